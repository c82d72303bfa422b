package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/esmanager/core"
	"github.com/poiesic/esmanager/storage"
)

// EntryRepository implements storage.EntryRepository for BadgerDB.
type EntryRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.EntryRepository = (*EntryRepository)(nil)

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(backend *Backend) (*EntryRepository, error) {
	idSeq, err := backend.GetSequence(entryIDSeq)
	if err != nil {
		return nil, err
	}

	return &EntryRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *EntryRepository) Close() error {
	if r.backend.IsClosed() {
		return nil
	}
	return r.idSeq.Release()
}

func (r *EntryRepository) nextID() (core.ID, error) {
	nextID, err := r.idSeq.Next()
	if err != nil {
		return 0, err
	}
	// BadgerDB sequences can return 0 on first call, so we skip it
	if nextID == 0 {
		nextID, err = r.idSeq.Next()
		if err != nil {
			return 0, err
		}
	}
	return core.ID(nextID), nil
}

// AddEntries adds one or more entries to storage.
func (r *EntryRepository) AddEntries(ctx context.Context, entries ...*core.Entry) ([]*core.Entry, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, entry := range entries {
			id, err := r.nextID()
			if err != nil {
				return err
			}
			entry.ID = id

			if entry.CreatedAt.IsZero() {
				entry.CreatedAt = now
			}
			if entry.UpdatedAt.IsZero() {
				entry.UpdatedAt = entry.CreatedAt
			}

			if err := tx.Set(makeEntryKey(entry.ID), storage.MarshalEntry(entry)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return entries, err
}

// UpdateEntries replaces existing entries.
func (r *EntryRepository) UpdateEntries(ctx context.Context, entries ...*core.Entry) ([]*core.Entry, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, entry := range entries {
			key := makeEntryKey(entry.ID)
			if _, err := tx.Get(key); err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					return fmt.Errorf("%w: entry %d", storage.ErrNotFound, entry.ID)
				}
				return err
			}
			if err := tx.Set(key, storage.MarshalEntry(entry)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return entries, err
}

// DeleteEntries removes entries by their IDs.
func (r *EntryRepository) DeleteEntries(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeEntryKey(id)
			if _, err := tx.Get(key); err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					return fmt.Errorf("%w: entry %d", storage.ErrNotFound, id)
				}
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetEntry retrieves a single entry by ID.
func (r *EntryRepository) GetEntry(ctx context.Context, id core.ID) (*core.Entry, error) {
	var result *core.Entry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readEntry(tx, makeEntryKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return fmt.Errorf("%w: entry %d", storage.ErrNotFound, id)
		}
		return nil
	}, false)
	return result, err
}

// ListEntries returns every entry, ordered by ID.
func (r *EntryRepository) ListEntries(ctx context.Context) ([]*core.Entry, error) {
	var results []*core.Entry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(entryPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var entry *core.Entry
			err := iter.Item().Value(func(val []byte) error {
				var err error
				entry, err = storage.UnmarshalEntry(val)
				return err
			})
			if err != nil {
				return err
			}
			results = append(results, entry)
		}
		return nil
	}, false)
	return results, err
}

// readEntry reads an entry within a transaction.
// Returns nil, nil if the entry doesn't exist.
func readEntry(tx *badger.Txn, key []byte) (*core.Entry, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var entry *core.Entry
	err = item.Value(func(val []byte) error {
		var err error
		entry, err = storage.UnmarshalEntry(val)
		return err
	})
	return entry, err
}
