package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/poiesic/esmanager/core"
	"github.com/poiesic/esmanager/storage"
)

// DraftRepository implements storage.DraftRepository on SQLite.
// Items are kept as a JSON array in the drafts row, like entry QAs.
type DraftRepository struct {
	db *DB
}

var _ storage.DraftRepository = (*DraftRepository)(nil)

// NewDraftRepository creates a new DraftRepository.
func NewDraftRepository(db *DB) *DraftRepository {
	return &DraftRepository{db: db}
}

// Close is a no-op; the DB owns the connection.
func (r *DraftRepository) Close() error { return nil }

// AddDrafts adds one or more drafts to storage.
func (r *DraftRepository) AddDrafts(ctx context.Context, drafts ...*core.Draft) ([]*core.Draft, error) {
	tx, err := r.db.pool.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	for _, d := range drafts {
		if d.CreatedAt.IsZero() {
			d.CreatedAt = now
		}
		if d.UpdatedAt.IsZero() {
			d.UpdatedAt = d.CreatedAt
		}
		items, err := encodeQAs(d.Items)
		if err != nil {
			return nil, err
		}
		res, err := tx.ExecContext(ctx, `
INSERT INTO drafts (title, items, created_at, updated_at) VALUES (?, ?, ?, ?);`,
			d.Title, items, formatTime(d.CreatedAt), formatTime(d.UpdatedAt))
		if err != nil {
			return nil, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		d.ID = core.ID(id)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return drafts, nil
}

// UpdateDrafts replaces existing drafts.
func (r *DraftRepository) UpdateDrafts(ctx context.Context, drafts ...*core.Draft) ([]*core.Draft, error) {
	tx, err := r.db.pool.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	for _, d := range drafts {
		items, err := encodeQAs(d.Items)
		if err != nil {
			return nil, err
		}
		res, err := tx.ExecContext(ctx, `
UPDATE drafts SET title = ?, items = ?, created_at = ?, updated_at = ? WHERE id = ?;`,
			d.Title, items, formatTime(d.CreatedAt), formatTime(d.UpdatedAt), int64(d.ID))
		if err != nil {
			return nil, err
		}
		if n, err := res.RowsAffected(); err != nil {
			return nil, err
		} else if n == 0 {
			return nil, fmt.Errorf("%w: draft %d", storage.ErrNotFound, d.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return drafts, nil
}

// DeleteDrafts removes drafts by their IDs.
func (r *DraftRepository) DeleteDrafts(ctx context.Context, ids ...core.ID) error {
	tx, err := r.db.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, id := range ids {
		res, err := tx.ExecContext(ctx, `DELETE FROM drafts WHERE id = ?;`, int64(id))
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return fmt.Errorf("%w: draft %d", storage.ErrNotFound, id)
		}
	}
	return tx.Commit()
}

func scanDraft(row rowScanner) (*core.Draft, error) {
	var (
		d                  core.Draft
		id                 int64
		items              string
		createdAt, updated string
	)
	if err := row.Scan(&id, &d.Title, &items, &createdAt, &updated); err != nil {
		return nil, err
	}
	d.ID = core.ID(id)

	var err error
	if d.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if d.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	if d.Items, err = decodeQAs(items); err != nil {
		return nil, err
	}
	return &d, nil
}

// GetDraft retrieves a single draft by ID.
func (r *DraftRepository) GetDraft(ctx context.Context, id core.ID) (*core.Draft, error) {
	row := r.db.pool.QueryRowContext(ctx,
		`SELECT id, title, items, created_at, updated_at FROM drafts WHERE id = ?;`, int64(id))
	d, err := scanDraft(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: draft %d", storage.ErrNotFound, id)
	}
	return d, err
}

// ListDrafts returns every draft, ordered by ID.
func (r *DraftRepository) ListDrafts(ctx context.Context) ([]*core.Draft, error) {
	rows, err := r.db.pool.QueryContext(ctx,
		`SELECT id, title, items, created_at, updated_at FROM drafts ORDER BY id;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*core.Draft
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
