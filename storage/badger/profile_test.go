package badger

import (
	"context"
	"testing"

	"github.com/poiesic/esmanager/core"
	"github.com/poiesic/esmanager/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileRepository(t *testing.T) {
	repo := newTestStore(t).Profiles
	ctx := context.Background()

	require.NoError(t, repo.PutProfiles(ctx,
		&core.CompanyProfile{Company: "株式会社いろは", Industry: "IT"},
		&core.CompanyProfile{Company: "Acme", MyPageURL: "https://example.com", SelectionFlow: []string{"ES", "面接"}},
	))

	t.Run("get", func(t *testing.T) {
		p, err := repo.GetProfile(ctx, "Acme")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com", p.MyPageURL)
		assert.Equal(t, []string{"ES", "面接"}, p.SelectionFlow)
	})

	t.Run("replace", func(t *testing.T) {
		require.NoError(t, repo.PutProfiles(ctx, &core.CompanyProfile{Company: "Acme", Industry: "製造"}))
		p, err := repo.GetProfile(ctx, "Acme")
		require.NoError(t, err)
		assert.Equal(t, "製造", p.Industry)
		assert.Empty(t, p.MyPageURL)
	})

	t.Run("list ordered by name", func(t *testing.T) {
		all, err := repo.ListProfiles(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "Acme", all[0].Company)
		assert.Equal(t, "株式会社いろは", all[1].Company)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := repo.GetProfile(ctx, "nobody")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("invalid", func(t *testing.T) {
		err := repo.PutProfiles(ctx, &core.CompanyProfile{Company: " "})
		assert.ErrorIs(t, err, core.ErrEmptyCompany)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.DeleteProfiles(ctx, "Acme", "nobody"))
		_, err := repo.GetProfile(ctx, "Acme")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		all, err := repo.ListProfiles(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}

func TestMetaRepository(t *testing.T) {
	repo := newTestStore(t).Meta
	ctx := context.Background()

	v, err := repo.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Zero(t, v)

	require.NoError(t, repo.SetSchemaVersion(ctx, 3))
	v, err = repo.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestOpen_Persists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := Open(dir, nil)
	require.NoError(t, err)
	added, err := store.Entries.AddEntries(ctx, &core.Entry{Company: "Acme"})
	require.NoError(t, err)
	require.NoError(t, store.Meta.SetSchemaVersion(ctx, 2))
	require.NoError(t, store.Close())

	store, err = Open(dir, nil)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.Entries.GetEntry(ctx, added[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Company)

	v, err := store.Meta.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	// New IDs never collide with stored ones after a reopen
	more, err := store.Entries.AddEntries(ctx, &core.Entry{Company: "Next"})
	require.NoError(t, err)
	assert.Greater(t, more[0].ID, added[0].ID)
}
