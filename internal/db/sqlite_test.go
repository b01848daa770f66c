package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/lunch-recommender/internal/models"
)

func TestSQLiteHistory_EmptyOnFirstOpen(t *testing.T) {
	store, err := OpenSQLiteHistory(context.Background(), filepath.Join(t.TempDir(), "nested", "lunch.db"))
	require.NoError(t, err)
	defer store.Close()

	entries, err := store.LoadHistory(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSQLiteHistory_SaveReplacesLog(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLiteHistory(ctx, filepath.Join(t.TempDir(), "lunch.db"))
	require.NoError(t, err)
	defer store.Close()

	selected := time.Date(2024, 1, 14, 18, 45, 0, 123000000, time.UTC)
	first := []models.HistoryEntry{
		{ID: 1, RestaurantID: 2, RestaurantName: "Sushi Ro", RestaurantCategory: "Japanese", SelectedAt: selected},
	}
	require.NoError(t, store.SaveHistory(ctx, first))

	second := append(first, models.HistoryEntry{
		ID: 2, RestaurantID: 1, RestaurantName: "Hanok Kitchen", RestaurantCategory: "Korean", SelectedAt: selected.Add(24 * time.Hour),
	})
	require.NoError(t, store.SaveHistory(ctx, second))

	loaded, err := store.LoadHistory(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, 1, loaded[0].ID)
	assert.Equal(t, 2, loaded[1].ID)
	assert.Equal(t, "Hanok Kitchen", loaded[1].RestaurantName)
	assert.True(t, selected.Equal(loaded[0].SelectedAt))
}

func TestSQLiteHistory_Uninitialized(t *testing.T) {
	store := &SQLiteHistory{}
	_, err := store.LoadHistory(context.Background())
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, store.SaveHistory(context.Background(), nil), ErrStoreUnavailable)
	assert.NoError(t, store.Close())
}
