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
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/esmanager/storage"
)

const schemaVersionKey = "schema_version"

// MetaRepository implements storage.MetaRepository for BadgerDB.
type MetaRepository struct {
	backend *Backend
}

var _ storage.MetaRepository = (*MetaRepository)(nil)

// NewMetaRepository creates a new MetaRepository.
func NewMetaRepository(backend *Backend) *MetaRepository {
	return &MetaRepository{
		backend: backend,
	}
}

// Close is a no-op; the backend owns all resources.
func (r *MetaRepository) Close() error {
	return nil
}

// SchemaVersion returns the last applied migration version.
// Returns 0 if no version has been recorded.
func (r *MetaRepository) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeMetaKey(schemaVersionKey))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			version, err = storage.UnmarshalVersion(val)
			return err
		})
	}, false)
	return version, err
}

// SetSchemaVersion records the last applied migration version.
func (r *MetaRepository) SetSchemaVersion(ctx context.Context, version int) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeMetaKey(schemaVersionKey), storage.MarshalVersion(version)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
