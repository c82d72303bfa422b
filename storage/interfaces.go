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


package storage

import (
	"context"
	"io"

	"github.com/poiesic/esmanager/core"
)

// Repository is embedded by every repository interface.
type Repository interface {
	// Close releases resources held by the repository.
	Close() error
}

// EntryRepository provides operations for managing entries.
// QA items are stored inside their entry.
type EntryRepository interface {
	Repository
	// AddEntries adds one or more entries to storage.
	// Always assigns a new ID from the entry sequence.
	// Sets CreatedAt and UpdatedAt if they are zero.
	// Returns the entries with IDs and timestamps populated.
	AddEntries(ctx context.Context, entries ...*core.Entry) ([]*core.Entry, error)

	// UpdateEntries replaces existing entries.
	// Entries are stored as given; callers stamp UpdatedAt.
	// Returns ErrNotFound if any entry doesn't exist.
	UpdateEntries(ctx context.Context, entries ...*core.Entry) ([]*core.Entry, error)

	// DeleteEntries removes entries by their IDs.
	// Returns ErrNotFound if any entry doesn't exist.
	DeleteEntries(ctx context.Context, ids ...core.ID) error

	// GetEntry retrieves a single entry by ID.
	// Returns ErrNotFound if the entry doesn't exist.
	GetEntry(ctx context.Context, id core.ID) (*core.Entry, error)

	// ListEntries returns every entry, ordered by ID.
	ListEntries(ctx context.Context) ([]*core.Entry, error)
}

// DraftRepository provides operations for managing drafts.
// Draft items are stored inside their draft.
type DraftRepository interface {
	Repository
	// AddDrafts adds one or more drafts to storage.
	// Always assigns a new ID from the draft sequence.
	AddDrafts(ctx context.Context, drafts ...*core.Draft) ([]*core.Draft, error)

	// UpdateDrafts replaces existing drafts.
	// Returns ErrNotFound if any draft doesn't exist.
	UpdateDrafts(ctx context.Context, drafts ...*core.Draft) ([]*core.Draft, error)

	// DeleteDrafts removes drafts by their IDs.
	// Returns ErrNotFound if any draft doesn't exist.
	DeleteDrafts(ctx context.Context, ids ...core.ID) error

	// GetDraft retrieves a single draft by ID.
	// Returns ErrNotFound if the draft doesn't exist.
	GetDraft(ctx context.Context, id core.ID) (*core.Draft, error)

	// ListDrafts returns every draft, ordered by ID.
	ListDrafts(ctx context.Context) ([]*core.Draft, error)
}

// ProfileRepository provides operations for managing company profiles.
// Profiles are keyed by company name.
type ProfileRepository interface {
	Repository
	// PutProfiles inserts or replaces profiles.
	PutProfiles(ctx context.Context, profiles ...*core.CompanyProfile) error

	// GetProfile retrieves the profile for company.
	// Returns ErrNotFound if there is none.
	GetProfile(ctx context.Context, company string) (*core.CompanyProfile, error)

	// DeleteProfiles removes the profiles for the given companies.
	// Missing profiles are ignored.
	DeleteProfiles(ctx context.Context, companies ...string) error

	// ListProfiles returns every profile, ordered by company name.
	ListProfiles(ctx context.Context) ([]*core.CompanyProfile, error)
}

// MetaRepository stores bookkeeping values for the data set.
type MetaRepository interface {
	Repository
	// SchemaVersion returns the last applied migration version, 0 if none.
	SchemaVersion(ctx context.Context) (int, error)

	// SetSchemaVersion records the last applied migration version.
	SetSchemaVersion(ctx context.Context, version int) error
}

// Store bundles the repositories of one backend.
type Store struct {
	Entries  EntryRepository
	Drafts   DraftRepository
	Profiles ProfileRepository
	Meta     MetaRepository
	closer   io.Closer
}

// NewStore bundles repositories. closer, if not nil, is closed after the
// repositories by Close.
func NewStore(entries EntryRepository, drafts DraftRepository, profiles ProfileRepository, meta MetaRepository, closer io.Closer) *Store {
	return &Store{Entries: entries, Drafts: drafts, Profiles: profiles, Meta: meta, closer: closer}
}

// Close closes the repositories and then the backend.
// The first error encountered is returned.
func (s *Store) Close() error {
	var first error
	for _, c := range []io.Closer{s.Entries, s.Drafts, s.Profiles, s.Meta, s.closer} {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
