package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/poiesic/esmanager/storage"
)

const schemaVersionKey = "schema_version"

// MetaRepository implements storage.MetaRepository on SQLite.
type MetaRepository struct {
	db *DB
}

var _ storage.MetaRepository = (*MetaRepository)(nil)

// NewMetaRepository creates a new MetaRepository.
func NewMetaRepository(db *DB) *MetaRepository {
	return &MetaRepository{db: db}
}

// Close is a no-op; the DB owns the connection.
func (r *MetaRepository) Close() error { return nil }

// SchemaVersion returns the last applied migration version, 0 if none.
func (r *MetaRepository) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := r.db.pool.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?;`, schemaVersionKey).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return v, err
}

// SetSchemaVersion records the last applied migration version.
func (r *MetaRepository) SetSchemaVersion(ctx context.Context, version int) error {
	_, err := r.db.pool.ExecContext(ctx, `
INSERT INTO meta (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value;`, schemaVersionKey, version)
	return err
}
