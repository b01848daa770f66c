package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/lunch-recommender/internal/models"
)

const catalogJSON = `[
  {"id": 1, "name": "Hanok Kitchen", "category": "Korean", "address": "123 Teheran-ro",
   "latitude": 37.5665, "longitude": 126.9780, "rating": 4.5, "priceRange": "10,000 KRW",
   "image": "hanok.png", "description": "Traditional set meals",
   "phone": "02-111-2222", "menu": [{"id": 1, "name": "Bulgogi", "price": 15000}]},
  {"id": 2, "name": "Sushi Ro", "category": "Japanese", "address": "45 Sejong-daero",
   "latitude": 37.5700, "longitude": 126.9800, "rating": 4.2, "priceRange": "20,000 KRW",
   "image": "sushi.png", "description": "Lunch omakase"}
]`

func TestFileCatalog_LoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "restaurants.json")
	require.NoError(t, os.WriteFile(path, []byte(catalogJSON), 0o644))

	store := &FileCatalog{Path: path}
	restaurants, err := store.LoadCatalog(context.Background())
	require.NoError(t, err)
	require.Len(t, restaurants, 2)

	assert.Equal(t, 1, restaurants[0].ID)
	assert.Equal(t, "Hanok Kitchen", restaurants[0].Name)
	assert.Equal(t, 37.5665, restaurants[0].Latitude)
	assert.Equal(t, "10,000 KRW", restaurants[0].PriceRange)
	assert.Equal(t, "02-111-2222", restaurants[0].Phone)
	require.Len(t, restaurants[0].Menu, 1)
	assert.Equal(t, 15000, restaurants[0].Menu[0].Price)
	assert.Nil(t, restaurants[0].Distance)
}

func TestFileCatalog_MissingFile(t *testing.T) {
	store := &FileCatalog{Path: filepath.Join(t.TempDir(), "missing.json")}
	_, err := store.LoadCatalog(context.Background())
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestFileCatalog_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "restaurants.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := (&FileCatalog{Path: path}).LoadCatalog(context.Background())
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestFileHistory_MissingFileIsEmpty(t *testing.T) {
	store := &FileHistory{Path: filepath.Join(t.TempDir(), "storage", "history.json")}
	entries, err := store.LoadHistory(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NotNil(t, entries)
}

func TestFileHistory_SaveCreatesDirectoryAndRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage", "history.json")
	store := &FileHistory{Path: path}
	now := time.Date(2024, 1, 15, 12, 30, 0, 0, time.UTC)

	entries := []models.HistoryEntry{
		{ID: 1, RestaurantID: 3, RestaurantName: "Sushi Ro", RestaurantCategory: "Japanese", SelectedAt: now},
		{ID: 2, RestaurantID: 1, RestaurantName: "Hanok Kitchen", RestaurantCategory: "Korean", SelectedAt: now.Add(time.Hour)},
	}
	require.NoError(t, store.SaveHistory(context.Background(), entries))
	assert.FileExists(t, path)

	loaded, err := store.LoadHistory(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, entries[0].RestaurantName, loaded[0].RestaurantName)
	assert.True(t, entries[1].SelectedAt.Equal(loaded[1].SelectedAt))

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".history-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestFileHistory_LoadsTimestampsWithoutOffset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	legacy := `[
  {"id": 1, "restaurantId": 4, "restaurantName": "Pho Saigon", "restaurantCategory": "Vietnamese",
   "selectedAt": "2024-05-01T12:30:00.123456"},
  {"id": 2, "restaurantId": 1, "restaurantName": "Hanok Kitchen", "restaurantCategory": "Korean",
   "selectedAt": "2024-05-02T12:00:00"},
  {"id": 3, "restaurantId": 2, "restaurantName": "Sushi Ro", "restaurantCategory": "Japanese",
   "selectedAt": "2024-05-03T03:00:00Z"}
]`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))
	store := &FileHistory{Path: path}

	loaded, err := store.LoadHistory(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	assert.Equal(t, 4, loaded[0].RestaurantID)
	assert.Equal(t, "Vietnamese", loaded[0].RestaurantCategory)
	assert.True(t, time.Date(2024, 5, 1, 12, 30, 0, 123456000, time.Local).Equal(loaded[0].SelectedAt))
	assert.True(t, time.Date(2024, 5, 2, 12, 0, 0, 0, time.Local).Equal(loaded[1].SelectedAt))
	assert.True(t, time.Date(2024, 5, 3, 3, 0, 0, 0, time.UTC).Equal(loaded[2].SelectedAt))

	// Appending rewrites the log with offsets and keeps earlier entries readable.
	next := models.HistoryEntry{ID: 4, RestaurantID: 2, RestaurantName: "Sushi Ro", RestaurantCategory: "Japanese",
		SelectedAt: time.Date(2024, 5, 4, 12, 0, 0, 0, time.UTC)}
	require.NoError(t, store.SaveHistory(context.Background(), append(loaded, next)))

	reloaded, err := store.LoadHistory(context.Background())
	require.NoError(t, err)
	require.Len(t, reloaded, 4)
	assert.True(t, loaded[0].SelectedAt.Equal(reloaded[0].SelectedAt))
	assert.Equal(t, 4, reloaded[3].ID)
}

func TestFileHistory_InvalidTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id": 1, "selectedAt": "yesterday"}]`), 0o644))

	_, err := (&FileHistory{Path: path}).LoadHistory(context.Background())
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
