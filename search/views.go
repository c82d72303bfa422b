package search

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/esmanager/core"
)

// UntaggedKey is the GroupByTag key for records without tags.
const UntaggedKey = "タグなし"

// QARecord is a QA item flattened out of its entry, carrying the entry
// context needed to display it on its own.
type QARecord struct {
	QA            core.QAItem
	EntryID       core.ID
	Company       string
	Status        core.Status
	SelectionType string
	UpdatedAt     time.Time // Owning entry's UpdatedAt
}

// RecordKey identifies one QA item across all entries.
func RecordKey(entryID core.ID, qaID string) string {
	return strconv.FormatUint(uint64(entryID), 10) + "_" + qaID
}

// Key returns the RecordKey of r.
func (r *QARecord) Key() string {
	return RecordKey(r.EntryID, r.QA.ID)
}

func (r QARecord) clone() QARecord {
	r.QA = r.QA.Clone()
	return r
}

func newRecord(e *core.Entry, qa *core.QAItem) QARecord {
	status := e.Status
	if strings.TrimSpace(string(status)) == "" {
		status = core.StatusUnset
	}
	return QARecord{
		QA:            qa.Clone(),
		EntryID:       e.ID,
		Company:       e.CompanyOrDefault(),
		Status:        status,
		SelectionType: e.SelectionType,
		UpdatedAt:     e.UpdatedAt,
	}
}

// nameRank orders names by how well they match q: exact match 0,
// containing q 1, anything else 2. An empty q ranks everything 2.
func nameRank(name, q string) int {
	if q == "" {
		return 2
	}
	name = strings.ToLower(name)
	switch {
	case name == q:
		return 0
	case strings.Contains(name, q):
		return 1
	default:
		return 2
	}
}

func foldQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// FilterAndGroupByCompany returns the entries matching query for the
// company view.
//
// An entry whose own fields match every token is returned with all of its
// QA items. Otherwise the entry is returned with only the QA items whose
// projection matches, and dropped if there are none.
//
// With a query, entries whose company name contains the whole query come
// first, an exact match ahead of a partial one. The rest are ordered by
// UpdatedAt, newest first, then by company name.
func FilterAndGroupByCompany(entries []core.Entry, query string) []core.Entry {
	tokens := Tokenize(query)
	out := make([]core.Entry, 0, len(entries))

	for i := range entries {
		e := &entries[i]
		base := EntryText(e)
		if StrategyAll.Match(base, tokens) {
			out = append(out, e.Clone())
			continue
		}

		var qas []core.QAItem
		for j := range e.QAs {
			if StrategyAll.Match(qaProjection(base, &e.QAs[j]), tokens) {
				qas = append(qas, e.QAs[j].Clone())
			}
		}
		if len(qas) == 0 {
			continue
		}
		narrowed := e.Clone()
		narrowed.QAs = qas
		out = append(out, narrowed)
	}

	q := foldQuery(query)
	col := acquireCollator()
	defer releaseCollator(col)
	slices.SortStableFunc(out, func(a, b core.Entry) int {
		if c := cmp.Compare(nameRank(a.Company, q), nameRank(b.Company, q)); c != 0 {
			return c
		}
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return col.CompareString(a.Company, b.Company)
	})
	return out
}

// FlattenAndFilterQAs emits one record per QA item whose projection
// matches every token of query, newest entry first. Records of one entry
// keep their QA order.
func FlattenAndFilterQAs(entries []core.Entry, query string) []QARecord {
	tokens := Tokenize(query)
	var out []QARecord

	for i := range entries {
		e := &entries[i]
		base := EntryText(e)
		for j := range e.QAs {
			if StrategyAll.Match(qaProjection(base, &e.QAs[j]), tokens) {
				out = append(out, newRecord(e, &e.QAs[j]))
			}
		}
	}

	slices.SortStableFunc(out, func(a, b QARecord) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return out
}

// GroupByTag partitions records by tag. A record appears once per tag it
// carries; a record without tags appears only under UntaggedKey.
//
// Keys that contain query, or one of its tag tokens, come first (an exact
// match ahead of a partial one). UntaggedKey comes last. Remaining keys
// use Japanese collation.
func GroupByTag(records []QARecord, query string) *OrderedMap[string, []QARecord] {
	groups := make(map[string][]QARecord)
	var keys []string
	add := func(key string, r QARecord) {
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], r.clone())
	}

	for _, r := range records {
		if len(r.QA.Tags) == 0 {
			add(UntaggedKey, r)
			continue
		}
		for _, tag := range r.QA.Tags {
			add(tag, r)
		}
	}

	q := foldQuery(query)
	tagTokens := TokenizeTags(query)
	rank := func(key string) int {
		r := nameRank(key, q)
		for _, tok := range tagTokens {
			r = min(r, nameRank(key, tok))
		}
		if r < 2 {
			return r
		}
		if key == UntaggedKey {
			return 3
		}
		return 2
	}

	col := acquireCollator()
	defer releaseCollator(col)
	slices.SortStableFunc(keys, func(a, b string) int {
		if c := cmp.Compare(rank(a), rank(b)); c != 0 {
			return c
		}
		return col.CompareString(a, b)
	})
	return newOrderedMap(keys, groups)
}

// GroupByStatus partitions entries by status. Known statuses come first in
// core.CanonicalStatuses order, then other values in the order they were
// first seen. An empty status is grouped under core.StatusUnset. Only
// non-empty groups are present.
func GroupByStatus(entries []core.Entry) *OrderedMap[core.Status, []core.Entry] {
	groups := make(map[core.Status][]core.Entry)
	var seen []core.Status

	for i := range entries {
		status := entries[i].Status
		if strings.TrimSpace(string(status)) == "" {
			status = core.StatusUnset
		}
		if _, ok := groups[status]; !ok {
			seen = append(seen, status)
		}
		groups[status] = append(groups[status], entries[i].Clone())
	}

	keys := make([]core.Status, 0, len(seen))
	for _, s := range core.CanonicalStatuses {
		if _, ok := groups[s]; ok {
			keys = append(keys, s)
		}
	}
	for _, s := range seen {
		if !s.IsKnown() {
			keys = append(keys, s)
		}
	}
	return newOrderedMap(keys, groups)
}

// Exclude names the QA items ReferenceQAs leaves out. The zero value
// excludes nothing.
type Exclude struct {
	Entry core.ID // Every item of this entry, e.g. the one being edited
	Key   string  // One record, see RecordKey
}

func (x Exclude) drops(r *QARecord) bool {
	return (x.Entry != 0 && r.EntryID == x.Entry) || (x.Key != "" && r.Key() == x.Key)
}

// ReferenceQAs returns answered QA items matching query as reference
// material while another answer is being written, minus those exclude
// names.
func ReferenceQAs(entries []core.Entry, query string, exclude Exclude) []QARecord {
	all := FlattenAndFilterQAs(entries, query)
	out := all[:0]
	for i := range all {
		r := &all[i]
		if strings.TrimSpace(r.QA.Answer) == "" || exclude.drops(r) {
			continue
		}
		out = append(out, *r)
	}
	return out
}

// CompanyNames returns every company known from entries or profiles.
// Companies with the most recently updated entry come first; companies
// that only have a profile come last. Ties use Japanese collation.
func CompanyNames(entries []core.Entry, profiles []core.CompanyProfile) []string {
	latest := make(map[string]time.Time)
	var names []string
	note := func(name string, at time.Time) {
		prev, ok := latest[name]
		if !ok {
			names = append(names, name)
		}
		if !ok || at.After(prev) {
			latest[name] = at
		}
	}

	for i := range entries {
		note(entries[i].CompanyOrDefault(), entries[i].UpdatedAt)
	}
	for i := range profiles {
		if strings.TrimSpace(profiles[i].Company) != "" {
			note(profiles[i].Company, time.Time{})
		}
	}

	col := acquireCollator()
	defer releaseCollator(col)
	slices.SortStableFunc(names, func(a, b string) int {
		if c := latest[b].Compare(latest[a]); c != 0 {
			return c
		}
		return col.CompareString(a, b)
	})
	return names
}

// FilterCompanies keeps the names for which some single field (the name
// itself or one profile attribute) contains any token of query. Input
// order is preserved.
func FilterCompanies(names []string, profiles []core.CompanyProfile, query string) []string {
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return slices.Clone(names)
	}

	byName := make(map[string]*core.CompanyProfile, len(profiles))
	for i := range profiles {
		byName[profiles[i].Company] = &profiles[i]
	}

	out := make([]string, 0, len(names))
	for _, name := range names {
		fields := []string{name}
		if p, ok := byName[name]; ok {
			fields = append(fields, p.Industry, p.Location, p.WorkLocation, p.Note)
			fields = append(fields, p.SelectionFlow...)
		}
		if slices.ContainsFunc(fields, func(f string) bool {
			return f != "" && StrategyAny.Match(strings.ToLower(f), tokens)
		}) {
			out = append(out, name)
		}
	}
	return out
}
