package sqlite

import (
	"log/slog"

	"github.com/poiesic/esmanager/storage"
)

// Open opens (or creates) an SQLite store at path.
// Closing the returned store closes the database.
func Open(path string, logger *slog.Logger) (*storage.Store, error) {
	db, err := OpenDB(path, logger)
	if err != nil {
		return nil, err
	}
	return storage.NewStore(NewEntryRepository(db), NewDraftRepository(db), NewProfileRepository(db), NewMetaRepository(db), db), nil
}
