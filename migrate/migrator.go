package migrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/poiesic/esmanager/core"
	"github.com/poiesic/esmanager/storage"
)

var (
	// ErrStoreRequired is returned when New is given a nil store.
	ErrStoreRequired = errors.New("store required")

	// ErrDuplicateVersion is returned when two steps share a version.
	ErrDuplicateVersion = errors.New("duplicate migration version")
)

// Migrator applies pending steps to a store.
type Migrator struct {
	store  *storage.Store
	steps  []Step
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Migrator.
type Option func(*Migrator) error

// WithSteps replaces DefaultSteps.
func WithSteps(steps ...Step) Option {
	return func(m *Migrator) error {
		m.steps = slices.Clone(steps)
		return nil
	}
}

// WithClock sets the time source used for defaults.
func WithClock(now func() time.Time) Option {
	return func(m *Migrator) error {
		if now != nil {
			m.now = now
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Migrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger
		return nil
	}
}

// New creates a Migrator for store.
func New(store *storage.Store, opts ...Option) (*Migrator, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}

	m := &Migrator{
		store:  store,
		steps:  DefaultSteps(),
		now:    func() time.Time { return time.Now().UTC() },
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	slices.SortStableFunc(m.steps, func(a, b Step) int { return a.Version - b.Version })
	for i := 1; i < len(m.steps); i++ {
		if m.steps[i].Version == m.steps[i-1].Version {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateVersion, m.steps[i].Version)
		}
	}
	return m, nil
}

// Latest returns the version the store is at after Run.
func (m *Migrator) Latest() int {
	return Latest(m.steps)
}

// Pending returns the steps not yet applied.
func (m *Migrator) Pending(ctx context.Context) ([]Step, error) {
	current, err := m.store.Meta.SchemaVersion(ctx)
	if err != nil {
		return nil, err
	}
	var pending []Step
	for _, s := range m.steps {
		if s.Version > current {
			pending = append(pending, s)
		}
	}
	return pending, nil
}

// Run applies every pending step and returns the resulting version.
func (m *Migrator) Run(ctx context.Context) (int, error) {
	current, err := m.store.Meta.SchemaVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}

	pending, err := m.Pending(ctx)
	if err != nil {
		return current, err
	}
	if len(pending) == 0 {
		m.logger.Debug("data is up to date", "version", current)
		return current, nil
	}

	entries, err := m.store.Entries.ListEntries(ctx)
	if err != nil {
		return current, fmt.Errorf("load entries: %w", err)
	}
	profiles, err := m.store.Profiles.ListProfiles(ctx)
	if err != nil {
		return current, fmt.Errorf("load profiles: %w", err)
	}

	for _, step := range pending {
		if err := ctx.Err(); err != nil {
			return current, err
		}

		state := newState(entries, profiles, m.now())
		if err := step.Apply(ctx, state); err != nil {
			return current, fmt.Errorf("migration %d (%s): %w", step.Version, step.Name, err)
		}
		written, err := m.persist(ctx, state)
		if err != nil {
			return current, fmt.Errorf("migration %d (%s): %w", step.Version, step.Name, err)
		}
		if err := m.store.Meta.SetSchemaVersion(ctx, step.Version); err != nil {
			return current, err
		}
		current = step.Version
		profiles = profilesOf(state)

		m.logger.Info("applied migration",
			"version", step.Version,
			"name", step.Name,
			"entries", written.entries,
			"profiles", written.profiles)
	}
	return current, nil
}

type writeCounts struct {
	entries  int
	profiles int
}

func (m *Migrator) persist(ctx context.Context, s *State) (writeCounts, error) {
	var counts writeCounts

	var profiles []*core.CompanyProfile
	for company := range s.dirtyProfiles {
		if p, ok := s.Profiles[company]; ok {
			profiles = append(profiles, p)
		}
	}
	if len(profiles) > 0 {
		if err := m.store.Profiles.PutProfiles(ctx, profiles...); err != nil {
			return counts, err
		}
		counts.profiles = len(profiles)
	}

	var entries []*core.Entry
	for _, e := range s.Entries {
		if _, ok := s.dirtyEntries[e.ID]; ok {
			entries = append(entries, e)
		}
	}
	if len(entries) > 0 {
		if _, err := m.store.Entries.UpdateEntries(ctx, entries...); err != nil {
			return counts, err
		}
		counts.entries = len(entries)
	}
	return counts, nil
}

func profilesOf(s *State) []*core.CompanyProfile {
	out := make([]*core.CompanyProfile, 0, len(s.Profiles))
	for _, p := range s.Profiles {
		out = append(out, p)
	}
	return out
}
