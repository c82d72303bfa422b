package badger

import (
	"context"
	"testing"

	"github.com/poiesic/esmanager/core"
	"github.com/poiesic/esmanager/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftRepository(t *testing.T) {
	store := newTestStore(t)
	repo := store.Drafts
	ctx := context.Background()

	added, err := repo.AddDrafts(ctx,
		&core.Draft{Title: "志望動機", Items: []core.QAItem{{ID: "a", Question: "志望動機", Answer: "理念に共感"}}},
		&core.Draft{Title: "ガクチカ"},
	)
	require.NoError(t, err)
	require.Len(t, added, 2)
	assert.NotZero(t, added[0].ID)
	assert.NotEqual(t, added[0].ID, added[1].ID)
	assert.False(t, added[0].CreatedAt.IsZero())

	got, err := repo.GetDraft(ctx, added[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "志望動機", got.Title)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "理念に共感", got.Items[0].Answer)

	got.Title = "志望動機 v2"
	_, err = repo.UpdateDrafts(ctx, got)
	require.NoError(t, err)

	list, err := repo.ListDrafts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "志望動機 v2", list[0].Title)

	require.NoError(t, repo.DeleteDrafts(ctx, added[1].ID))
	_, err = repo.GetDraft(ctx, added[1].ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	t.Run("unknown id", func(t *testing.T) {
		_, err := repo.UpdateDrafts(ctx, &core.Draft{ID: 9999, Title: "x"})
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.ErrorIs(t, repo.DeleteDrafts(ctx, 9999), storage.ErrNotFound)
	})

	t.Run("drafts do not show up as entries", func(t *testing.T) {
		entries, err := store.Entries.ListEntries(ctx)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}
