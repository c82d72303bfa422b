package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/poiesic/esmanager/core"
	"github.com/poiesic/esmanager/storage"
)

// EntryRepository implements storage.EntryRepository on SQLite.
// QA items are kept as a JSON array in the entries row.
type EntryRepository struct {
	db *DB
}

var _ storage.EntryRepository = (*EntryRepository)(nil)

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(db *DB) *EntryRepository {
	return &EntryRepository{db: db}
}

// Close is a no-op; the DB owns the connection.
func (r *EntryRepository) Close() error { return nil }

type qaRow struct {
	ID        string   `json:"id"`
	Question  string   `json:"question"`
	Answer    string   `json:"answer"`
	CharLimit int      `json:"charLimit,omitempty"`
	Note      string   `json:"note,omitempty"`
	Tags      []string `json:"tags"`
}

func encodeQAs(qas []core.QAItem) (string, error) {
	rows := make([]qaRow, len(qas))
	for i, qa := range qas {
		rows[i] = qaRow(qa)
		if rows[i].Tags == nil {
			rows[i].Tags = []string{}
		}
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}
	return string(b), nil
}

func decodeQAs(s string) ([]core.QAItem, error) {
	var rows []qaRow
	if err := json.Unmarshal([]byte(s), &rows); err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	qas := make([]core.QAItem, len(rows))
	for i, row := range rows {
		qas[i] = core.QAItem(row)
	}
	return qas, nil
}

type entryArgs struct {
	deadline sql.NullString
	qas      string
}

func newEntryArgs(e *core.Entry) (entryArgs, error) {
	var a entryArgs
	if e.Deadline != nil {
		a.deadline = sql.NullString{String: formatTime(*e.Deadline), Valid: true}
	}
	qas, err := encodeQAs(e.QAs)
	if err != nil {
		return a, err
	}
	a.qas = qas
	return a, nil
}

// AddEntries adds one or more entries to storage.
func (r *EntryRepository) AddEntries(ctx context.Context, entries ...*core.Entry) ([]*core.Entry, error) {
	tx, err := r.db.pool.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	for _, e := range entries {
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		if e.UpdatedAt.IsZero() {
			e.UpdatedAt = e.CreatedAt
		}
		a, err := newEntryArgs(e)
		if err != nil {
			return nil, err
		}

		res, err := tx.ExecContext(ctx, `
INSERT INTO entries (company, status, selection_type, deadline, note, qas, created_at, updated_at, legacy_industry, legacy_mypage_url)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
			e.Company, string(e.Status), e.SelectionType, a.deadline, e.Note, a.qas,
			formatTime(e.CreatedAt), formatTime(e.UpdatedAt), e.LegacyIndustry, e.LegacyMyPageURL)
		if err != nil {
			return nil, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		e.ID = core.ID(id)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return entries, nil
}

// UpdateEntries replaces existing entries.
func (r *EntryRepository) UpdateEntries(ctx context.Context, entries ...*core.Entry) ([]*core.Entry, error) {
	tx, err := r.db.pool.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	for _, e := range entries {
		a, err := newEntryArgs(e)
		if err != nil {
			return nil, err
		}
		res, err := tx.ExecContext(ctx, `
UPDATE entries SET company = ?, status = ?, selection_type = ?, deadline = ?, note = ?, qas = ?,
  created_at = ?, updated_at = ?, legacy_industry = ?, legacy_mypage_url = ?
WHERE id = ?;`,
			e.Company, string(e.Status), e.SelectionType, a.deadline, e.Note, a.qas,
			formatTime(e.CreatedAt), formatTime(e.UpdatedAt), e.LegacyIndustry, e.LegacyMyPageURL,
			int64(e.ID))
		if err != nil {
			return nil, err
		}
		if n, err := res.RowsAffected(); err != nil {
			return nil, err
		} else if n == 0 {
			return nil, fmt.Errorf("%w: entry %d", storage.ErrNotFound, e.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return entries, nil
}

// DeleteEntries removes entries by their IDs.
func (r *EntryRepository) DeleteEntries(ctx context.Context, ids ...core.ID) error {
	tx, err := r.db.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, id := range ids {
		res, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE id = ?;`, int64(id))
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return fmt.Errorf("%w: entry %d", storage.ErrNotFound, id)
		}
	}
	return tx.Commit()
}

const entryColumns = `id, company, status, selection_type, deadline, note, qas, created_at, updated_at, legacy_industry, legacy_mypage_url`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*core.Entry, error) {
	var (
		e                  core.Entry
		id                 int64
		status             string
		deadline           sql.NullString
		qas                string
		createdAt, updated string
	)
	if err := row.Scan(&id, &e.Company, &status, &e.SelectionType, &deadline, &e.Note, &qas,
		&createdAt, &updated, &e.LegacyIndustry, &e.LegacyMyPageURL); err != nil {
		return nil, err
	}
	e.ID = core.ID(id)
	e.Status = core.Status(status)

	var err error
	if deadline.Valid {
		d, err := parseTime(deadline.String)
		if err != nil {
			return nil, err
		}
		e.Deadline = &d
	}
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	if e.QAs, err = decodeQAs(qas); err != nil {
		return nil, err
	}
	return &e, nil
}

// GetEntry retrieves a single entry by ID.
func (r *EntryRepository) GetEntry(ctx context.Context, id core.ID) (*core.Entry, error) {
	row := r.db.pool.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE id = ?;`, int64(id))
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: entry %d", storage.ErrNotFound, id)
	}
	return e, err
}

// ListEntries returns every entry, ordered by ID.
func (r *EntryRepository) ListEntries(ctx context.Context) ([]*core.Entry, error) {
	rows, err := r.db.pool.QueryContext(ctx, `SELECT `+entryColumns+` FROM entries ORDER BY id;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*core.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
