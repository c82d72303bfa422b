package badger

import (
	"encoding/binary"

	"github.com/poiesic/esmanager/core"
)

// Key prefixes for different data types
const (
	entryPrefix   = "entry:"
	draftPrefix   = "draft:"
	profilePrefix = "profile:"
	metaPrefix    = "meta:"
	entryIDSeq    = "seq:entry"
	draftIDSeq    = "seq:draft"
)

// makeIDKey appends id in BigEndian order so keys sort by ID.
func makeIDKey(prefix string, id core.ID) []byte {
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeEntryKey generates a key for an entry by ID.
func makeEntryKey(id core.ID) []byte {
	return makeIDKey(entryPrefix, id)
}

// makeDraftKey generates a key for a draft by ID.
func makeDraftKey(id core.ID) []byte {
	return makeIDKey(draftPrefix, id)
}

// makeProfileKey generates a key for a company profile.
// The stored value carries the full company name.
func makeProfileKey(company string) []byte {
	return makeIDKey(profilePrefix, core.ProfileID(company))
}

// makeMetaKey generates a key for a bookkeeping value.
func makeMetaKey(name string) []byte {
	return []byte(metaPrefix + name)
}
