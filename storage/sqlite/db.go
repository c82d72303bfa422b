package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// schemaVersion is the table layout recorded in PRAGMA user_version. It is
// independent of the data migrations tracked by MetaRepository.
const schemaVersion = 2

// DB is an open SQLite database.
type DB struct {
	pool   *sql.DB
	logger *slog.Logger
}

// OpenDB opens (or creates) the database file at path and brings its
// tables up to date. Use ":memory:" for a private in-memory database.
func OpenDB(path string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	// modernc sqlite uses DSN like: file:foo.db?_pragma=busy_timeout(5000)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	pool, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// sqlite wants a single writer; one connection also keeps :memory: alive
	pool.SetMaxOpenConns(1)
	pool.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, err
	}

	db := &DB{pool: pool, logger: logger}
	if err := db.migrateSchema(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return db, nil
}

// Close closes the database.
func (d *DB) Close() error {
	if d == nil || d.pool == nil {
		return nil
	}
	return d.pool.Close()
}

func (d *DB) migrateSchema(ctx context.Context) error {
	tx, err := d.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRowContext(ctx, `PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= schemaVersion {
		return tx.Commit()
	}

	for _, stmt := range schemaSteps(v) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d;`, schemaVersion)); err != nil {
		return err
	}
	d.logger.Debug("sqlite schema updated", "from", v, "to", schemaVersion)
	return tx.Commit()
}

// schemaSteps returns the statements that bring a database at layout
// version from up to schemaVersion.
func schemaSteps(from int) []string {
	var stmts []string
	if from < 1 {
		stmts = append(stmts, `
CREATE TABLE IF NOT EXISTS entries (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  company TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT '',
  selection_type TEXT NOT NULL DEFAULT '',
  deadline TEXT,
  note TEXT NOT NULL DEFAULT '',
  qas TEXT NOT NULL DEFAULT '[]',
  created_at TEXT NOT NULL DEFAULT '',
  updated_at TEXT NOT NULL DEFAULT '',
  legacy_industry TEXT NOT NULL DEFAULT '',
  legacy_mypage_url TEXT NOT NULL DEFAULT ''
);`, `
CREATE INDEX IF NOT EXISTS idx_entries_company
ON entries(company);`, `
CREATE TABLE IF NOT EXISTS profiles (
  company TEXT PRIMARY KEY,
  mypage_url TEXT NOT NULL DEFAULT '',
  recruitment_url TEXT NOT NULL DEFAULT '',
  industry TEXT NOT NULL DEFAULT '',
  location TEXT NOT NULL DEFAULT '',
  work_location TEXT NOT NULL DEFAULT '',
  hiring_number TEXT NOT NULL DEFAULT '',
  avg_salary TEXT NOT NULL DEFAULT '',
  starting_salary TEXT NOT NULL DEFAULT '',
  annual_holiday TEXT NOT NULL DEFAULT '',
  selection_flow TEXT NOT NULL DEFAULT '[]',
  id_number TEXT NOT NULL DEFAULT '',
  note TEXT NOT NULL DEFAULT '',
  updated_at TEXT NOT NULL DEFAULT ''
);`, `
CREATE TABLE IF NOT EXISTS meta (
  key TEXT PRIMARY KEY,
  value INTEGER NOT NULL
);`,
		)
	}
	if from < 2 {
		stmts = append(stmts, `
CREATE TABLE IF NOT EXISTS drafts (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  title TEXT NOT NULL,
  items TEXT NOT NULL DEFAULT '[]',
  created_at TEXT NOT NULL DEFAULT '',
  updated_at TEXT NOT NULL DEFAULT ''
);`)
	}
	return stmts
}

// Timestamps are stored as RFC 3339 text in UTC; the zero time is ''.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
