// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"log/slog"

	"github.com/poiesic/esmanager/storage"
)

// Open opens (or creates) a BadgerDB store at path.
// Closing the returned store closes the database.
func Open(path string, logger *slog.Logger) (*storage.Store, error) {
	return open(path, false, logger)
}

// NewMemoryStore creates an in-memory store for testing.
// Caller must close the store when done.
func NewMemoryStore() (*storage.Store, error) {
	return open("", true, nil)
}

func open(path string, inMemory bool, logger *slog.Logger) (*storage.Store, error) {
	backend, err := OpenBackend(path, inMemory, logger)
	if err != nil {
		return nil, err
	}

	entries, err := NewEntryRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	drafts, err := NewDraftRepository(backend)
	if err != nil {
		entries.Close()
		backend.Close()
		return nil, err
	}

	return storage.NewStore(entries, drafts, NewProfileRepository(backend), NewMetaRepository(backend), backend), nil
}
