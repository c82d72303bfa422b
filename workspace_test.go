package esmanager

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/esmanager/config"
	"github.com/poiesic/esmanager/core"
	"github.com/poiesic/esmanager/highlight"
	"github.com/poiesic/esmanager/lint"
	"github.com/poiesic/esmanager/migrate"
	"github.com/poiesic/esmanager/search"
	"github.com/poiesic/esmanager/storage"
	"github.com/poiesic/esmanager/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tick returns a clock that advances one minute per call.
func tick() func() time.Time {
	t := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func newTestWorkspace(t *testing.T, opts ...config.ConfigOption) *Workspace {
	t.Helper()
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)

	w, err := Open(context.Background(), config.NewConfig(opts...), WithStore(store), WithClock(tick()))
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	return w
}

func TestOpen(t *testing.T) {
	for _, backend := range []string{config.BackendBadger, config.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			cfg := config.NewConfig(config.WithDataDir(t.TempDir()), config.WithBackend(backend))

			w, err := Open(ctx, cfg)
			require.NoError(t, err)

			version, err := w.SchemaVersion(ctx)
			require.NoError(t, err)
			assert.Equal(t, migrate.Latest(migrate.DefaultSteps()), version)

			saved, err := w.SaveEntry(ctx, &core.Entry{Company: "Acme"})
			require.NoError(t, err)
			require.NoError(t, w.Close())

			// Data survives a reopen and migrations are not repeated.
			w, err = Open(ctx, cfg)
			require.NoError(t, err)
			defer w.Close()

			got, err := w.Entry(ctx, saved.ID)
			require.NoError(t, err)
			assert.Equal(t, "Acme", got.Company)
		})
	}

	t.Run("nil config", func(t *testing.T) {
		w, err := Open(context.Background(), nil)
		assert.ErrorIs(t, err, ErrConfigRequired)
		assert.Nil(t, w)
	})

	t.Run("invalid config", func(t *testing.T) {
		_, err := Open(context.Background(), config.NewConfig(config.WithBackend("csv")))
		assert.Error(t, err)
	})

	t.Run("data dir is a file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

		w, err := Open(context.Background(), config.NewConfig(config.WithDataDir(file)))
		assert.Error(t, err)
		assert.Nil(t, w)
	})
}

func TestOpen_MigratesLegacyData(t *testing.T) {
	ctx := context.Background()
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)

	_, err = store.Entries.AddEntries(ctx, &core.Entry{
		Company:        "Acme",
		LegacyIndustry: "製造",
		QAs:            []core.QAItem{{Question: "志望動機", Tags: []string{" 志望 ", ""}}},
	})
	require.NoError(t, err)

	w, err := Open(ctx, config.DefaultConfig(), WithStore(store), WithClock(tick()))
	require.NoError(t, err)
	defer w.Close()

	p, err := w.Profile(ctx, "Acme")
	require.NoError(t, err)
	assert.Equal(t, "製造", p.Industry)

	entries, err := w.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].LegacyIndustry)
	assert.NotEmpty(t, entries[0].QAs[0].ID)
	assert.Equal(t, []string{"志望"}, entries[0].QAs[0].Tags)
}

func TestSaveEntry(t *testing.T) {
	ctx := context.Background()
	w := newTestWorkspace(t)

	t.Run("add sanitizes", func(t *testing.T) {
		saved, err := w.SaveEntry(ctx, &core.Entry{QAs: []core.QAItem{{Question: "Q", CharLimit: -5}}})
		require.NoError(t, err)

		assert.NotZero(t, saved.ID)
		assert.Equal(t, core.DefaultCompany, saved.Company)
		assert.Equal(t, core.StatusNotSubmitted, saved.Status)
		assert.NotEmpty(t, saved.QAs[0].ID)
		assert.Zero(t, saved.QAs[0].CharLimit)
		assert.False(t, saved.CreatedAt.IsZero())
	})

	t.Run("update stamps UpdatedAt", func(t *testing.T) {
		saved, err := w.SaveEntry(ctx, &core.Entry{Company: "Beta"})
		require.NoError(t, err)

		saved.Status = core.StatusSubmitted
		updated, err := w.SaveEntry(ctx, saved)
		require.NoError(t, err)
		assert.True(t, updated.UpdatedAt.After(saved.UpdatedAt))
		assert.Equal(t, saved.CreatedAt, updated.CreatedAt)

		got, err := w.Entry(ctx, saved.ID)
		require.NoError(t, err)
		assert.Equal(t, core.StatusSubmitted, got.Status)
	})

	t.Run("caller value is not modified", func(t *testing.T) {
		in := &core.Entry{Company: "  "}
		_, err := w.SaveEntry(ctx, in)
		require.NoError(t, err)
		assert.Zero(t, in.ID)
		assert.Equal(t, "  ", in.Company)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := w.SaveEntry(ctx, &core.Entry{ID: 9999, Company: "Ghost"})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("duplicate qa ids are replaced", func(t *testing.T) {
		saved, err := w.SaveEntry(ctx, &core.Entry{Company: "Acme", QAs: []core.QAItem{{ID: "x"}, {ID: "x"}}})
		require.NoError(t, err)
		assert.Equal(t, "x", saved.QAs[0].ID)
		assert.NotEqual(t, "x", saved.QAs[1].ID)
	})

	t.Run("nil entry", func(t *testing.T) {
		_, err := w.SaveEntry(ctx, nil)
		assert.ErrorIs(t, err, core.ErrInvalidEntry)
	})
}

func TestSaveEntry_Rename(t *testing.T) {
	ctx := context.Background()

	setProfile := func(t *testing.T, w *Workspace, company, industry string) {
		t.Helper()
		_, err := w.UpdateProfile(ctx, company, func(p *core.CompanyProfile) error {
			p.Industry = industry
			return nil
		})
		require.NoError(t, err)
	}

	t.Run("profile follows the entry", func(t *testing.T) {
		w := newTestWorkspace(t)
		e, err := w.SaveEntry(ctx, &core.Entry{Company: "Old"})
		require.NoError(t, err)
		setProfile(t, w, "Old", "IT")

		e.Company = "New"
		_, err = w.SaveEntry(ctx, e)
		require.NoError(t, err)

		p, err := w.Profile(ctx, "New")
		require.NoError(t, err)
		assert.Equal(t, "IT", p.Industry)
		assert.Equal(t, "New", p.Company)

		_, err = w.Profile(ctx, "Old")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("existing target profile wins", func(t *testing.T) {
		w := newTestWorkspace(t)
		e, err := w.SaveEntry(ctx, &core.Entry{Company: "Old"})
		require.NoError(t, err)
		setProfile(t, w, "Old", "IT")
		setProfile(t, w, "New", "金融")

		e.Company = "New"
		_, err = w.SaveEntry(ctx, e)
		require.NoError(t, err)

		p, err := w.Profile(ctx, "New")
		require.NoError(t, err)
		assert.Equal(t, "金融", p.Industry)
	})

	t.Run("old profile kept while referenced", func(t *testing.T) {
		w := newTestWorkspace(t)
		e, err := w.SaveEntry(ctx, &core.Entry{Company: "Old"})
		require.NoError(t, err)
		_, err = w.SaveEntry(ctx, &core.Entry{Company: "Old"})
		require.NoError(t, err)
		setProfile(t, w, "Old", "IT")

		e.Company = "New"
		_, err = w.SaveEntry(ctx, e)
		require.NoError(t, err)

		old, err := w.Profile(ctx, "Old")
		require.NoError(t, err)
		assert.Equal(t, "IT", old.Industry)

		moved, err := w.Profile(ctx, "New")
		require.NoError(t, err)
		assert.Equal(t, "IT", moved.Industry)
	})

	t.Run("rename without profile", func(t *testing.T) {
		w := newTestWorkspace(t)
		e, err := w.SaveEntry(ctx, &core.Entry{Company: "Old"})
		require.NoError(t, err)

		e.Company = "New"
		_, err = w.SaveEntry(ctx, e)
		require.NoError(t, err)

		profiles, err := w.Profiles(ctx)
		require.NoError(t, err)
		assert.Empty(t, profiles)
	})
}

// faultyEntries and faultyProfiles fail selected writes on demand.
type faultyEntries struct {
	storage.EntryRepository
	failUpdate bool
}

func (f *faultyEntries) UpdateEntries(ctx context.Context, entries ...*core.Entry) ([]*core.Entry, error) {
	if f.failUpdate {
		return nil, assert.AnError
	}
	return f.EntryRepository.UpdateEntries(ctx, entries...)
}

type faultyProfiles struct {
	storage.ProfileRepository
	failDelete bool
}

func (f *faultyProfiles) DeleteProfiles(ctx context.Context, companies ...string) error {
	if f.failDelete {
		return assert.AnError
	}
	return f.ProfileRepository.DeleteProfiles(ctx, companies...)
}

func newFaultyWorkspace(t *testing.T) (*Workspace, *faultyEntries, *faultyProfiles) {
	t.Helper()
	backend, err := badger.OpenBackend("", true, nil)
	require.NoError(t, err)
	entries, err := badger.NewEntryRepository(backend)
	require.NoError(t, err)
	drafts, err := badger.NewDraftRepository(backend)
	require.NoError(t, err)

	fe := &faultyEntries{EntryRepository: entries}
	fp := &faultyProfiles{ProfileRepository: badger.NewProfileRepository(backend)}
	store := storage.NewStore(fe, drafts, fp, badger.NewMetaRepository(backend), backend)

	w, err := Open(context.Background(), config.NewConfig(), WithStore(store), WithClock(tick()))
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	return w, fe, fp
}

func TestSaveEntry_RenameFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("failed update leaves profiles alone", func(t *testing.T) {
		w, fe, _ := newFaultyWorkspace(t)
		e, err := w.SaveEntry(ctx, &core.Entry{Company: "Old"})
		require.NoError(t, err)
		_, err = w.UpdateProfile(ctx, "Old", func(p *core.CompanyProfile) error {
			p.Industry = "IT"
			return nil
		})
		require.NoError(t, err)

		fe.failUpdate = true
		e.Company = "New"
		_, err = w.SaveEntry(ctx, e)
		require.ErrorIs(t, err, assert.AnError)

		_, err = w.Profile(ctx, "New")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		old, err := w.Profile(ctx, "Old")
		require.NoError(t, err)
		assert.Equal(t, "IT", old.Industry)

		got, err := w.Entry(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, "Old", got.Company)
	})

	t.Run("cleanup failure does not fail the save", func(t *testing.T) {
		w, _, fp := newFaultyWorkspace(t)
		e, err := w.SaveEntry(ctx, &core.Entry{Company: "Old"})
		require.NoError(t, err)
		_, err = w.UpdateProfile(ctx, "Old", func(p *core.CompanyProfile) error {
			p.Industry = "IT"
			return nil
		})
		require.NoError(t, err)

		fp.failDelete = true
		e.Company = "New"
		saved, err := w.SaveEntry(ctx, e)
		require.NoError(t, err)
		assert.Equal(t, "New", saved.Company)

		moved, err := w.Profile(ctx, "New")
		require.NoError(t, err)
		assert.Equal(t, "IT", moved.Industry)

		// The stale profile stays behind and can be removed later.
		_, err = w.Profile(ctx, "Old")
		require.NoError(t, err)
		fp.failDelete = false
		require.NoError(t, w.DeleteProfile(ctx, "Old"))
	})
}

func TestRenameCompany(t *testing.T) {
	for _, backend := range []string{config.BackendBadger, config.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			cfg := config.NewConfig(config.WithDataDir(t.TempDir()), config.WithBackend(backend))
			w, err := Open(ctx, cfg, WithClock(tick()))
			require.NoError(t, err)
			t.Cleanup(func() { w.Close() })

			a, err := w.SaveEntry(ctx, &core.Entry{Company: "Old", SelectionType: "本選考"})
			require.NoError(t, err)
			b, err := w.SaveEntry(ctx, &core.Entry{Company: "Old", SelectionType: "夏インターン"})
			require.NoError(t, err)
			other, err := w.SaveEntry(ctx, &core.Entry{Company: "Other"})
			require.NoError(t, err)
			_, err = w.UpdateProfile(ctx, "Old", func(p *core.CompanyProfile) error {
				p.Industry = "IT"
				return nil
			})
			require.NoError(t, err)
			_, err = w.UpdateProfile(ctx, "Taken", func(p *core.CompanyProfile) error { return nil })
			require.NoError(t, err)

			_, err = w.RenameCompany(ctx, "Old", "Taken")
			assert.ErrorIs(t, err, ErrCompanyExists)

			n, err := w.RenameCompany(ctx, "Old", " New ")
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			for _, id := range []core.ID{a.ID, b.ID} {
				got, err := w.Entry(ctx, id)
				require.NoError(t, err)
				assert.Equal(t, "New", got.Company)
				assert.True(t, got.UpdatedAt.After(a.UpdatedAt))
			}
			got, err := w.Entry(ctx, other.ID)
			require.NoError(t, err)
			assert.Equal(t, "Other", got.Company)

			p, err := w.Profile(ctx, "New")
			require.NoError(t, err)
			assert.Equal(t, "IT", p.Industry)
			_, err = w.Profile(ctx, "Old")
			assert.ErrorIs(t, err, storage.ErrNotFound)

			_, err = w.RenameCompany(ctx, "Old", "Newer")
			assert.ErrorIs(t, err, storage.ErrNotFound)

			n, err = w.RenameCompany(ctx, "New", "New")
			require.NoError(t, err)
			assert.Zero(t, n)

			_, err = w.RenameCompany(ctx, "New", "  ")
			assert.ErrorIs(t, err, core.ErrEmptyCompany)
		})
	}

	t.Run("profile without entries", func(t *testing.T) {
		ctx := context.Background()
		w := newTestWorkspace(t)
		_, err := w.UpdateProfile(ctx, "Solo", func(p *core.CompanyProfile) error {
			p.Note = "説明会のみ"
			return nil
		})
		require.NoError(t, err)

		n, err := w.RenameCompany(ctx, "Solo", "Solo Inc")
		require.NoError(t, err)
		assert.Zero(t, n)
		p, err := w.Profile(ctx, "Solo Inc")
		require.NoError(t, err)
		assert.Equal(t, "説明会のみ", p.Note)
	})

	t.Run("failed update removes the copy", func(t *testing.T) {
		ctx := context.Background()
		w, fe, _ := newFaultyWorkspace(t)
		_, err := w.SaveEntry(ctx, &core.Entry{Company: "Old"})
		require.NoError(t, err)
		_, err = w.UpdateProfile(ctx, "Old", func(p *core.CompanyProfile) error { return nil })
		require.NoError(t, err)

		fe.failUpdate = true
		_, err = w.RenameCompany(ctx, "Old", "New")
		require.ErrorIs(t, err, assert.AnError)

		_, err = w.Profile(ctx, "New")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		_, err = w.Profile(ctx, "Old")
		require.NoError(t, err)
	})
}

func TestDrafts(t *testing.T) {
	ctx := context.Background()
	w := newTestWorkspace(t)

	first, err := w.SaveDraft(ctx, &core.Draft{
		Title: "志望動機",
		Items: []core.QAItem{
			{Question: "志望動機", Answer: "理念に共感した"},
			{Question: "", Answer: " "},
		},
	})
	require.NoError(t, err)
	assert.NotZero(t, first.ID)
	require.Len(t, first.Items, 1)
	assert.NotEmpty(t, first.Items[0].ID)

	second, err := w.SaveDraft(ctx, &core.Draft{})
	require.NoError(t, err)
	assert.Equal(t, core.UntitledDraft, second.Title)

	t.Run("update stamps UpdatedAt", func(t *testing.T) {
		d, err := w.Draft(ctx, first.ID)
		require.NoError(t, err)
		d.Items = append(d.Items, core.QAItem{Question: "ガクチカ", Answer: "リーダー経験"})
		updated, err := w.SaveDraft(ctx, d)
		require.NoError(t, err)
		assert.True(t, updated.UpdatedAt.After(first.UpdatedAt))
		assert.Len(t, updated.Items, 2)
	})

	t.Run("view filters and orders", func(t *testing.T) {
		all, err := w.DraftView(ctx, "", search.StrategyAll)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, first.ID, all[0].ID)

		hits, err := w.DraftView(ctx, "理念 無題", search.StrategyAny)
		require.NoError(t, err)
		assert.Len(t, hits, 2)

		hits, err = w.DraftView(ctx, "理念 リーダー", search.StrategyAll)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, first.ID, hits[0].ID)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := w.SaveDraft(ctx, &core.Draft{ID: 999, Title: "x"})
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.ErrorIs(t, w.DeleteDraft(ctx, 999), storage.ErrNotFound)
	})

	t.Run("nil draft", func(t *testing.T) {
		_, err := w.SaveDraft(ctx, nil)
		assert.ErrorIs(t, err, core.ErrInvalidDraft)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, w.DeleteDraft(ctx, second.ID))
		drafts, err := w.Drafts(ctx)
		require.NoError(t, err)
		assert.Len(t, drafts, 1)
	})
}

func TestProfiles(t *testing.T) {
	ctx := context.Background()
	w := newTestWorkspace(t)

	t.Run("update creates lazily", func(t *testing.T) {
		p, err := w.UpdateProfile(ctx, "Acme", func(p *core.CompanyProfile) error {
			p.Location = "東京"
			p.Company = "ignored"
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, "Acme", p.Company)
		assert.False(t, p.UpdatedAt.IsZero())

		got, err := w.Profile(ctx, "Acme")
		require.NoError(t, err)
		assert.Equal(t, "東京", got.Location)
	})

	t.Run("update callback error is returned", func(t *testing.T) {
		_, err := w.UpdateProfile(ctx, "Acme", func(*core.CompanyProfile) error { return assert.AnError })
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("referenced profile cannot be deleted", func(t *testing.T) {
		e, err := w.SaveEntry(ctx, &core.Entry{Company: "Acme"})
		require.NoError(t, err)

		assert.ErrorIs(t, w.DeleteProfile(ctx, "Acme"), ErrProfileInUse)

		// Deleting the entry keeps the profile, which can then be removed.
		require.NoError(t, w.DeleteEntry(ctx, e.ID))
		_, err = w.Profile(ctx, "Acme")
		require.NoError(t, err)

		require.NoError(t, w.DeleteProfile(ctx, "Acme"))
		_, err = w.Profile(ctx, "Acme")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestViews(t *testing.T) {
	ctx := context.Background()
	w := newTestWorkspace(t)

	acme, err := w.SaveEntry(ctx, &core.Entry{
		Company: "Acme",
		Status:  core.StatusSubmitted,
		QAs: []core.QAItem{
			{Question: "志望動機", Answer: "御社の理念に共感しました。", Tags: []string{"志望"}},
			{Question: "自己PR", Tags: []string{"PR"}},
		},
	})
	require.NoError(t, err)
	_, err = w.SaveEntry(ctx, &core.Entry{
		Company: "Acme Labs",
		QAs:     []core.QAItem{{Question: "ガクチカ", Answer: "研究に打ち込んだ。"}},
	})
	require.NoError(t, err)
	_, err = w.UpdateProfile(ctx, "Zeta", func(p *core.CompanyProfile) error {
		p.Industry = "acme supplier"
		return nil
	})
	require.NoError(t, err)

	t.Run("company", func(t *testing.T) {
		got, err := w.CompanyView(ctx, "acme")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Acme", got[0].Company)
	})

	t.Run("questions", func(t *testing.T) {
		got, err := w.QuestionView(ctx, "志望")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, acme.ID, got[0].EntryID)
	})

	t.Run("tags", func(t *testing.T) {
		got, err := w.TagView(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, 3, got.Len())
		untagged, ok := got.Get(search.UntaggedKey)
		require.True(t, ok)
		assert.Len(t, untagged, 1)
	})

	t.Run("status", func(t *testing.T) {
		got, err := w.StatusView(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, []core.Status{core.StatusNotSubmitted, core.StatusSubmitted}, got.Keys())
	})

	t.Run("reference", func(t *testing.T) {
		exclude := search.Exclude{Key: search.RecordKey(acme.ID, acme.QAs[0].ID)}
		got, err := w.ReferenceView(ctx, "", exclude)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "ガクチカ", got[0].QA.Question)

		got, err = w.ReferenceView(ctx, "", search.Exclude{Entry: acme.ID})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "ガクチカ", got[0].QA.Question)
	})

	t.Run("company table", func(t *testing.T) {
		rows, err := w.CompanyTable(ctx, "acme")
		require.NoError(t, err)
		require.Len(t, rows, 3)

		byName := make(map[string]CompanyRow)
		for _, r := range rows {
			byName[r.Name] = r
		}
		assert.Equal(t, 1, byName["Acme"].Entries)
		assert.Nil(t, byName["Acme"].Profile)
		require.NotNil(t, byName["Zeta"].Profile)
		assert.Zero(t, byName["Zeta"].Entries)
		assert.Equal(t, "Zeta", rows[2].Name)
	})
}

func TestHighlightAndLint(t *testing.T) {
	ctx := context.Background()
	w := newTestWorkspace(t, config.WithRegister(highlight.RegisterKeigo))

	segs := w.Highlight("御社で働きたい", "働き")
	assert.Equal(t, "御社で働きたい", highlight.Join(segs))
	require.Len(t, segs, 4)
	assert.Equal(t, highlight.KindLint, segs[0].Kind)
	assert.Equal(t, highlight.KindPlain, segs[1].Kind)
	assert.Equal(t, highlight.KindSearch, segs[2].Kind)

	_, err := w.SaveEntry(ctx, &core.Entry{
		Company: "Acme",
		QAs: []core.QAItem{
			{Question: "Q1", Answer: "御社が第一志望だ。", CharLimit: 3},
		},
	})
	require.NoError(t, err)

	findings, err := w.Lint(ctx, lint.WithPoolSize(2))
	require.NoError(t, err)

	var cats []highlight.Category
	for _, f := range findings {
		cats = append(cats, f.Category)
	}
	assert.ElementsMatch(t, []highlight.Category{highlight.CategoryDisallowed, highlight.CategoryKeigo, lint.CategoryOverLimit}, cats)
}
