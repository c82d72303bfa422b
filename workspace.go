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


package esmanager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/poiesic/esmanager/config"
	"github.com/poiesic/esmanager/core"
	"github.com/poiesic/esmanager/highlight"
	"github.com/poiesic/esmanager/lint"
	"github.com/poiesic/esmanager/migrate"
	"github.com/poiesic/esmanager/search"
	"github.com/poiesic/esmanager/storage"
	"github.com/poiesic/esmanager/storage/badger"
	"github.com/poiesic/esmanager/storage/sqlite"
)

// Workspace is an opened data set: the store plus the settings used to
// present it. Views load a fresh snapshot on every call.
type Workspace struct {
	store  *storage.Store
	lint   highlight.Config
	logger *slog.Logger
	now    func() time.Time

	// mu serializes writes. Rename propagation reads before it writes.
	mu sync.Mutex
}

// Option configures a Workspace.
type Option func(*Workspace) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workspace) error {
		if logger == nil {
			logger = slog.Default()
		}
		w.logger = logger
		return nil
	}
}

// WithStore uses store instead of opening the configured backend.
// The workspace takes ownership and closes it.
func WithStore(store *storage.Store) Option {
	return func(w *Workspace) error {
		if store == nil {
			return errors.New("store is nil")
		}
		w.store = store
		return nil
	}
}

// WithClock sets the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(w *Workspace) error {
		if now != nil {
			w.now = now
		}
		return nil
	}
}

// CompanyRow is one line of the company table.
type CompanyRow struct {
	Name    string
	Profile *core.CompanyProfile // nil when the company has no profile
	Entries int
}

// Open opens the backend named by cfg and brings its data up to the
// latest schema version.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*Workspace, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	lintCfg, err := cfg.Highlight()
	if err != nil {
		return nil, err
	}

	w := &Workspace{
		lint:   lintCfg,
		logger: slog.Default(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if err := opt(w); err != nil {
			if w.store != nil {
				w.store.Close()
			}
			return nil, err
		}
	}

	if w.store == nil {
		path, err := cfg.StorePath()
		if err != nil {
			return nil, err
		}
		switch cfg.Backend {
		case config.BackendSQLite:
			w.store, err = sqlite.Open(path, w.logger)
		default:
			w.store, err = badger.Open(path, w.logger)
		}
		if err != nil {
			return nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
		}
		w.logger.Debug("opened store", "backend", cfg.Backend, "path", path)
	}

	m, err := migrate.New(w.store, migrate.WithClock(w.now), migrate.WithLogger(w.logger))
	if err != nil {
		w.store.Close()
		return nil, err
	}
	if _, err := m.Run(ctx); err != nil {
		w.store.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return w, nil
}

// Close closes the underlying store.
func (w *Workspace) Close() error {
	if err := w.store.Close(); err != nil {
		w.logger.Error("error closing store", "err", err)
		return err
	}
	return nil
}

// SchemaVersion returns the applied migration version.
func (w *Workspace) SchemaVersion(ctx context.Context) (int, error) {
	return w.store.Meta.SchemaVersion(ctx)
}

// LintConfig returns the lint settings the workspace was opened with.
func (w *Workspace) LintConfig() highlight.Config {
	return w.lint
}

// Entries returns every entry ordered by ID.
func (w *Workspace) Entries(ctx context.Context) ([]core.Entry, error) {
	stored, err := w.store.Entries.ListEntries(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.Entry, len(stored))
	for i, e := range stored {
		out[i] = *e
	}
	return out, nil
}

// Entry returns one entry, or storage.ErrNotFound.
func (w *Workspace) Entry(ctx context.Context, id core.ID) (*core.Entry, error) {
	return w.store.Entries.GetEntry(ctx, id)
}

// Profiles returns every company profile ordered by company name.
func (w *Workspace) Profiles(ctx context.Context) ([]core.CompanyProfile, error) {
	stored, err := w.store.Profiles.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.CompanyProfile, len(stored))
	for i, p := range stored {
		out[i] = *p
	}
	return out, nil
}

// Profile returns the profile for company, or storage.ErrNotFound.
func (w *Workspace) Profile(ctx context.Context, company string) (*core.CompanyProfile, error) {
	return w.store.Profiles.GetProfile(ctx, company)
}

// SaveEntry sanitizes, validates and stores e. An entry with ID 0 is
// added; any other ID must exist and is replaced. UpdatedAt is set to now.
//
// When the company changes, its profile follows the entry to the new name
// unless that name already has a profile. The old profile is removed once
// no entry refers to the old name.
func (w *Workspace) SaveEntry(ctx context.Context, e *core.Entry) (*core.Entry, error) {
	if e == nil {
		return nil, fmt.Errorf("%w: entry is nil", core.ErrInvalidEntry)
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	entry := e.Clone()
	core.Sanitize(&entry, now)
	if err := core.ValidateEntry(&entry); err != nil {
		return nil, err
	}
	entry.UpdatedAt = now

	if entry.ID == 0 {
		added, err := w.store.Entries.AddEntries(ctx, &entry)
		if err != nil {
			return nil, err
		}
		w.logger.Debug("added entry", "id", added[0].ID, "company", added[0].Company)
		return added[0], nil
	}

	prev, err := w.store.Entries.GetEntry(ctx, entry.ID)
	if err != nil {
		return nil, err
	}

	from, to := prev.CompanyOrDefault(), entry.CompanyOrDefault()
	var copied bool
	if from != to {
		if copied, err = w.copyProfile(ctx, from, to); err != nil {
			return nil, fmt.Errorf("rename %q to %q: %w", from, to, err)
		}
	}

	updated, err := w.store.Entries.UpdateEntries(ctx, &entry)
	if err != nil {
		if copied {
			w.undoCopy(ctx, to)
		}
		return nil, err
	}

	if from != to {
		w.dropIfUnreferenced(ctx, from)
		w.logger.Info("renamed company", "id", entry.ID, "from", from, "to", to)
	}
	return updated[0], nil
}

// RenameCompany moves every entry of company from, and its profile, to the
// name to. It fails with ErrCompanyExists when to already has a profile and
// with storage.ErrNotFound when from has neither entries nor a profile.
// It returns the number of entries renamed.
func (w *Workspace) RenameCompany(ctx context.Context, from, to string) (int, error) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if from == "" || to == "" {
		return 0, fmt.Errorf("%w: %w", core.ErrInvalidProfile, core.ErrEmptyCompany)
	}
	if from == to {
		return 0, nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	switch _, err := w.store.Profiles.GetProfile(ctx, to); {
	case err == nil:
		return 0, fmt.Errorf("%w: %s", ErrCompanyExists, to)
	case !errors.Is(err, storage.ErrNotFound):
		return 0, err
	}

	stored, err := w.store.Entries.ListEntries(ctx)
	if err != nil {
		return 0, err
	}
	now := w.now()
	var moved []*core.Entry
	for _, e := range stored {
		if e.CompanyOrDefault() != from {
			continue
		}
		e.Company = to
		e.UpdatedAt = now
		moved = append(moved, e)
	}

	copied, err := w.copyProfile(ctx, from, to)
	if err != nil {
		return 0, err
	}
	if !copied && len(moved) == 0 {
		return 0, fmt.Errorf("%w: company %s", storage.ErrNotFound, from)
	}

	if len(moved) > 0 {
		if _, err := w.store.Entries.UpdateEntries(ctx, moved...); err != nil {
			if copied {
				w.undoCopy(ctx, to)
			}
			return 0, err
		}
	}
	if copied {
		if err := w.store.Profiles.DeleteProfiles(ctx, from); err != nil {
			w.logger.Warn("failed to remove renamed profile", "company", from, "err", err)
		}
	}

	w.logger.Info("renamed company", "from", from, "to", to, "entries", len(moved))
	return len(moved), nil
}

// copyProfile stores a copy of the profile of from under to, unless from
// has no profile or to already has one. It reports whether it wrote.
func (w *Workspace) copyProfile(ctx context.Context, from, to string) (bool, error) {
	old, err := w.store.Profiles.GetProfile(ctx, from)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	_, err = w.store.Profiles.GetProfile(ctx, to)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, storage.ErrNotFound):
		return false, err
	}

	moved := old.Clone()
	moved.Company = to
	moved.UpdatedAt = w.now()
	if err := w.store.Profiles.PutProfiles(ctx, &moved); err != nil {
		return false, err
	}
	return true, nil
}

func (w *Workspace) undoCopy(ctx context.Context, company string) {
	if err := w.store.Profiles.DeleteProfiles(ctx, company); err != nil {
		w.logger.Warn("failed to remove copied profile", "company", company, "err", err)
	}
}

// dropIfUnreferenced removes the profile of company once no entry uses it.
// The entry write has already succeeded, so failures are only logged.
func (w *Workspace) dropIfUnreferenced(ctx context.Context, company string) {
	inUse, err := w.referenced(ctx, company)
	if err == nil && !inUse {
		err = w.store.Profiles.DeleteProfiles(ctx, company)
	}
	if err != nil {
		w.logger.Warn("failed to remove unused profile", "company", company, "err", err)
	}
}

func (w *Workspace) referenced(ctx context.Context, company string) (bool, error) {
	entries, err := w.store.Entries.ListEntries(ctx)
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if e.CompanyOrDefault() == company {
			return true, nil
		}
	}
	return false, nil
}

// DeleteEntry removes an entry. Its company profile is kept.
func (w *Workspace) DeleteEntry(ctx context.Context, id core.ID) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.store.Entries.DeleteEntries(ctx, id)
}

// UpdateProfile applies fn to the profile of company and stores the
// result. A missing profile is created empty first. fn cannot change the
// company name.
func (w *Workspace) UpdateProfile(ctx context.Context, company string, fn func(*core.CompanyProfile) error) (*core.CompanyProfile, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	p, err := w.store.Profiles.GetProfile(ctx, company)
	if errors.Is(err, storage.ErrNotFound) {
		p, err = &core.CompanyProfile{Company: company}, nil
	}
	if err != nil {
		return nil, err
	}

	if err := fn(p); err != nil {
		return nil, err
	}
	p.Company = company
	p.UpdatedAt = w.now()
	if err := core.ValidateProfile(p); err != nil {
		return nil, err
	}
	if err := w.store.Profiles.PutProfiles(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProfile removes the profile of company. It fails with
// ErrProfileInUse while an entry still belongs to that company.
func (w *Workspace) DeleteProfile(ctx context.Context, company string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	inUse, err := w.referenced(ctx, company)
	if err != nil {
		return err
	}
	if inUse {
		return fmt.Errorf("%w: %s", ErrProfileInUse, company)
	}
	return w.store.Profiles.DeleteProfiles(ctx, company)
}

// Drafts returns every draft ordered by ID.
func (w *Workspace) Drafts(ctx context.Context) ([]core.Draft, error) {
	stored, err := w.store.Drafts.ListDrafts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.Draft, len(stored))
	for i, d := range stored {
		out[i] = *d
	}
	return out, nil
}

// Draft returns one draft, or storage.ErrNotFound.
func (w *Workspace) Draft(ctx context.Context, id core.ID) (*core.Draft, error) {
	return w.store.Drafts.GetDraft(ctx, id)
}

// SaveDraft sanitizes, validates and stores d. A draft with ID 0 is added;
// any other ID must exist and is replaced. UpdatedAt is set to now.
func (w *Workspace) SaveDraft(ctx context.Context, d *core.Draft) (*core.Draft, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: draft is nil", core.ErrInvalidDraft)
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	draft := d.Clone()
	core.SanitizeDraft(&draft, now)
	if err := core.ValidateDraft(&draft); err != nil {
		return nil, err
	}
	draft.UpdatedAt = now

	if draft.ID == 0 {
		added, err := w.store.Drafts.AddDrafts(ctx, &draft)
		if err != nil {
			return nil, err
		}
		w.logger.Debug("added draft", "id", added[0].ID, "title", added[0].Title)
		return added[0], nil
	}
	updated, err := w.store.Drafts.UpdateDrafts(ctx, &draft)
	if err != nil {
		return nil, err
	}
	return updated[0], nil
}

// DeleteDraft removes a draft.
func (w *Workspace) DeleteDraft(ctx context.Context, id core.ID) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.store.Drafts.DeleteDrafts(ctx, id)
}

// DraftView returns the drafts matching query under strategy, most
// recently updated first.
func (w *Workspace) DraftView(ctx context.Context, query string, strategy search.Strategy) ([]core.Draft, error) {
	drafts, err := w.Drafts(ctx)
	if err != nil {
		return nil, err
	}
	return search.FilterDrafts(drafts, query, strategy), nil
}

// CompanyView returns the entries matching query, best company match first.
func (w *Workspace) CompanyView(ctx context.Context, query string) ([]core.Entry, error) {
	entries, err := w.Entries(ctx)
	if err != nil {
		return nil, err
	}
	return search.FilterAndGroupByCompany(entries, query), nil
}

// QuestionView returns the QA items matching query as flat records.
func (w *Workspace) QuestionView(ctx context.Context, query string) ([]search.QARecord, error) {
	entries, err := w.Entries(ctx)
	if err != nil {
		return nil, err
	}
	return search.FlattenAndFilterQAs(entries, query), nil
}

// TagView groups the QA items matching query by tag.
func (w *Workspace) TagView(ctx context.Context, query string) (*search.OrderedMap[string, []search.QARecord], error) {
	records, err := w.QuestionView(ctx, query)
	if err != nil {
		return nil, err
	}
	return search.GroupByTag(records, query), nil
}

// StatusView groups the entries matching query by selection status.
func (w *Workspace) StatusView(ctx context.Context, query string) (*search.OrderedMap[core.Status, []core.Entry], error) {
	entries, err := w.CompanyView(ctx, query)
	if err != nil {
		return nil, err
	}
	return search.GroupByStatus(entries), nil
}

// ReferenceView returns answered QA items matching query, minus those
// exclude names.
func (w *Workspace) ReferenceView(ctx context.Context, query string, exclude search.Exclude) ([]search.QARecord, error) {
	entries, err := w.Entries(ctx)
	if err != nil {
		return nil, err
	}
	return search.ReferenceQAs(entries, query, exclude), nil
}

// CompanyTable lists the companies matching query with their profiles and
// entry counts.
func (w *Workspace) CompanyTable(ctx context.Context, query string) ([]CompanyRow, error) {
	entries, err := w.Entries(ctx)
	if err != nil {
		return nil, err
	}
	profiles, err := w.Profiles(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for i := range entries {
		counts[entries[i].CompanyOrDefault()]++
	}
	byName := make(map[string]*core.CompanyProfile, len(profiles))
	for i := range profiles {
		byName[profiles[i].Company] = &profiles[i]
	}

	names := search.FilterCompanies(search.CompanyNames(entries, profiles), profiles, query)
	rows := make([]CompanyRow, len(names))
	for i, name := range names {
		rows[i] = CompanyRow{Name: name, Profile: byName[name], Entries: counts[name]}
	}
	return rows, nil
}

// Highlight renders text with query matches and the workspace lint checks.
func (w *Workspace) Highlight(text, query string) []highlight.Segment {
	return highlight.Render(text, query, w.lint)
}

// Lint reports lint findings and over-limit answers across all entries.
func (w *Workspace) Lint(ctx context.Context, opts ...lint.Option) ([]lint.Finding, error) {
	entries, err := w.Entries(ctx)
	if err != nil {
		return nil, err
	}
	r, err := lint.NewReporter(append([]lint.Option{lint.WithLogger(w.logger)}, opts...)...)
	if err != nil {
		return nil, err
	}
	defer r.Release()
	return r.Report(ctx, entries, w.lint)
}
