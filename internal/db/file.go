package db

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/ukydev/lunch-recommender/internal/models"
)

// FileCatalog reads the catalog from a JSON array on disk.
type FileCatalog struct {
	Path string
}

// LoadCatalog reads and decodes the catalog file.
func (c *FileCatalog) LoadCatalog(ctx context.Context) ([]models.RestaurantDetail, error) {
	var restaurants []models.RestaurantDetail
	if err := readJSON(c.Path, &restaurants); err != nil {
		return nil, err
	}
	return restaurants, nil
}

// FileHistory keeps the history log as a JSON array on disk.
type FileHistory struct {
	Path string
}

// LoadHistory returns the stored entries, or an empty log when the file does not exist yet.
func (h *FileHistory) LoadHistory(ctx context.Context) ([]models.HistoryEntry, error) {
	var stored []fileHistoryEntry
	if err := readJSON(h.Path, &stored); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []models.HistoryEntry{}, nil
		}
		return nil, err
	}
	entries := make([]models.HistoryEntry, len(stored))
	for i, e := range stored {
		entries[i] = models.HistoryEntry{
			ID:                 e.ID,
			RestaurantID:       e.RestaurantID,
			RestaurantName:     e.RestaurantName,
			RestaurantCategory: e.RestaurantCategory,
			SelectedAt:         time.Time(e.SelectedAt),
		}
	}
	return entries, nil
}

// fileHistoryEntry is the on-disk form of a history entry. Older logs carry
// timestamps without a zone offset.
type fileHistoryEntry struct {
	ID                 int           `json:"id"`
	RestaurantID       int           `json:"restaurantId"`
	RestaurantName     string        `json:"restaurantName"`
	RestaurantCategory string        `json:"restaurantCategory"`
	SelectedAt         selectionTime `json:"selectedAt"`
}

// naiveTimeLayout matches ISO-8601 timestamps without an offset. Fractional
// seconds are accepted when parsing.
const naiveTimeLayout = "2006-01-02T15:04:05"

// selectionTime decodes RFC 3339 timestamps and offset-less ones, which are
// read in the local zone.
type selectionTime time.Time

func (t *selectionTime) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("selectedAt: %w", err)
	}
	if parsed, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		*t = selectionTime(parsed)
		return nil
	}
	parsed, err := time.ParseInLocation(naiveTimeLayout, raw, time.Local)
	if err != nil {
		return fmt.Errorf("selectedAt %q: %w", raw, err)
	}
	*t = selectionTime(parsed)
	return nil
}

// SaveHistory replaces the log file atomically, creating its directory on first write.
func (h *FileHistory) SaveHistory(ctx context.Context, entries []models.HistoryEntry) error {
	if err := os.MkdirAll(filepath.Dir(h.Path), 0o755); err != nil {
		return fmt.Errorf("create history directory: %w", err)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(h.Path), ".history-*.json")
	if err != nil {
		return fmt.Errorf("create temp history file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close history: %w", err)
	}
	if err := os.Rename(tmp.Name(), h.Path); err != nil {
		return fmt.Errorf("replace history file: %w", err)
	}
	return nil
}

func readJSON(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrStoreUnavailable, path, err)
	}
	return nil
}
