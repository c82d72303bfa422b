package badger

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/esmanager/core"
	"github.com/poiesic/esmanager/storage"
)

// ProfileRepository implements storage.ProfileRepository for BadgerDB.
type ProfileRepository struct {
	backend *Backend
}

var _ storage.ProfileRepository = (*ProfileRepository)(nil)

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(backend *Backend) *ProfileRepository {
	return &ProfileRepository{backend: backend}
}

// Close is a no-op; the backend owns all resources.
func (r *ProfileRepository) Close() error {
	return nil
}

// PutProfiles inserts or replaces profiles.
func (r *ProfileRepository) PutProfiles(ctx context.Context, profiles ...*core.CompanyProfile) error {
	for _, p := range profiles {
		if err := core.ValidateProfile(p); err != nil {
			return err
		}
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, p := range profiles {
			if err := tx.Set(makeProfileKey(p.Company), storage.MarshalProfile(p)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetProfile retrieves the profile for company.
func (r *ProfileRepository) GetProfile(ctx context.Context, company string) (*core.CompanyProfile, error) {
	var result *core.CompanyProfile
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeProfileKey(company))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: profile %q", storage.ErrNotFound, company)
			}
			return err
		}
		err = item.Value(func(val []byte) error {
			result, err = storage.UnmarshalProfile(val)
			return err
		})
		if err != nil {
			return err
		}
		// Keys are hashed; never hand back another company's profile.
		if result.Company != company {
			result = nil
			return fmt.Errorf("%w: profile %q", storage.ErrNotFound, company)
		}
		return nil
	}, false)
	return result, err
}

// DeleteProfiles removes the profiles for the given companies.
func (r *ProfileRepository) DeleteProfiles(ctx context.Context, companies ...string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, company := range companies {
			if err := tx.Delete(makeProfileKey(company)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// ListProfiles returns every profile, ordered by company name.
func (r *ProfileRepository) ListProfiles(ctx context.Context) ([]*core.CompanyProfile, error) {
	var results []*core.CompanyProfile
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(profilePrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var p *core.CompanyProfile
			err := iter.Item().Value(func(val []byte) error {
				var err error
				p, err = storage.UnmarshalProfile(val)
				return err
			})
			if err != nil {
				return err
			}
			results = append(results, p)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.CompanyProfile) int {
		return cmp.Compare(a.Company, b.Company)
	})
	return results, nil
}
