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


// Package storage provides the storage abstraction layer for esmanager.
//
// This package defines repository interfaces that decouple storage
// implementation from the rest of the module. Two backends implement them:
//
//   - storage/badger: embedded BadgerDB key/value store (the default)
//   - storage/sqlite: a single SQLite file via modernc.org/sqlite
//
// # Architecture
//
//   - EntryRepository: entries together with their QA items
//   - DraftRepository: company-less drafts together with their items
//   - ProfileRepository: company profiles keyed by company name
//   - MetaRepository: the applied migration version
//   - Store: the repositories of one backend, closed together
//
// Entry, draft and profile values are encoded with mus-go (see serialization.go).
// The encoding starts with a format version so that older records can be
// recognized.
//
// # Usage
//
// Use in tests with in-memory storage:
//
//	store, err := badger.NewMemoryStore()
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer store.Close()
//
// Repositories never interpret entry contents. Defaults and legacy field
// moves are the job of the migrate package.
package storage
