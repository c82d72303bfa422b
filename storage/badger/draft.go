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

// DraftRepository implements storage.DraftRepository for BadgerDB.
type DraftRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.DraftRepository = (*DraftRepository)(nil)

// NewDraftRepository creates a new DraftRepository.
func NewDraftRepository(backend *Backend) (*DraftRepository, error) {
	idSeq, err := backend.GetSequence(draftIDSeq)
	if err != nil {
		return nil, err
	}
	return &DraftRepository{backend: backend, idSeq: idSeq}, nil
}

// Close releases the ID sequence.
func (r *DraftRepository) Close() error {
	if r.backend.IsClosed() {
		return nil
	}
	return r.idSeq.Release()
}

func (r *DraftRepository) nextID() (core.ID, error) {
	nextID, err := r.idSeq.Next()
	if err != nil {
		return 0, err
	}
	if nextID == 0 {
		nextID, err = r.idSeq.Next()
		if err != nil {
			return 0, err
		}
	}
	return core.ID(nextID), nil
}

// AddDrafts adds one or more drafts to storage.
func (r *DraftRepository) AddDrafts(ctx context.Context, drafts ...*core.Draft) ([]*core.Draft, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, draft := range drafts {
			id, err := r.nextID()
			if err != nil {
				return err
			}
			draft.ID = id
			if draft.CreatedAt.IsZero() {
				draft.CreatedAt = now
			}
			if draft.UpdatedAt.IsZero() {
				draft.UpdatedAt = draft.CreatedAt
			}
			if err := tx.Set(makeDraftKey(draft.ID), storage.MarshalDraft(draft)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return drafts, err
}

// UpdateDrafts replaces existing drafts.
func (r *DraftRepository) UpdateDrafts(ctx context.Context, drafts ...*core.Draft) ([]*core.Draft, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, draft := range drafts {
			key := makeDraftKey(draft.ID)
			if err := requireDraft(tx, key, draft.ID); err != nil {
				return err
			}
			if err := tx.Set(key, storage.MarshalDraft(draft)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return drafts, err
}

// DeleteDrafts removes drafts by their IDs.
func (r *DraftRepository) DeleteDrafts(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeDraftKey(id)
			if err := requireDraft(tx, key, id); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetDraft retrieves a single draft by ID.
func (r *DraftRepository) GetDraft(ctx context.Context, id core.ID) (*core.Draft, error) {
	var result *core.Draft
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeDraftKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: draft %d", storage.ErrNotFound, id)
			}
			return err
		}
		return item.Value(func(val []byte) error {
			result, err = storage.UnmarshalDraft(val)
			return err
		})
	}, false)
	return result, err
}

// ListDrafts returns every draft, ordered by ID.
func (r *DraftRepository) ListDrafts(ctx context.Context) ([]*core.Draft, error) {
	var results []*core.Draft
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(draftPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := iter.Item().Value(func(val []byte) error {
				draft, err := storage.UnmarshalDraft(val)
				if err != nil {
					return err
				}
				results = append(results, draft)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	return results, err
}

func requireDraft(tx *badger.Txn, key []byte, id core.ID) error {
	if _, err := tx.Get(key); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: draft %d", storage.ErrNotFound, id)
		}
		return err
	}
	return nil
}
