package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/ukydev/lunch-recommender/internal/models"

	_ "modernc.org/sqlite"
)

// SQLiteHistory keeps the history log in a SQLite table.
type SQLiteHistory struct {
	db *sqlx.DB
}

type historyRow struct {
	ID                 int    `db:"id"`
	RestaurantID       int    `db:"restaurant_id"`
	RestaurantName     string `db:"restaurant_name"`
	RestaurantCategory string `db:"restaurant_category"`
	SelectedAt         string `db:"selected_at"`
}

// OpenSQLiteHistory opens the database at path, creating directories and schema as needed.
func OpenSQLiteHistory(ctx context.Context, path string) (*SQLiteHistory, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sqlx.Open("sqlite", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(5 * time.Minute)

	const schema = `CREATE TABLE IF NOT EXISTS history (
		id INTEGER PRIMARY KEY,
		restaurant_id INTEGER NOT NULL,
		restaurant_name TEXT NOT NULL,
		restaurant_category TEXT NOT NULL,
		selected_at TEXT NOT NULL
	);`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteHistory{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteHistory) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// LoadHistory returns all entries ordered by id.
func (s *SQLiteHistory) LoadHistory(ctx context.Context) ([]models.HistoryEntry, error) {
	if s.db == nil {
		return nil, fmt.Errorf("%w: store not initialized", ErrStoreUnavailable)
	}
	var rows []historyRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT id, restaurant_id, restaurant_name, restaurant_category, selected_at FROM history ORDER BY id`); err != nil {
		return nil, fmt.Errorf("%w: select history: %w", ErrStoreUnavailable, err)
	}

	entries := make([]models.HistoryEntry, 0, len(rows))
	for _, r := range rows {
		selectedAt, err := time.Parse(time.RFC3339Nano, r.SelectedAt)
		if err != nil {
			return nil, fmt.Errorf("parse selected_at of entry %d: %w", r.ID, err)
		}
		entries = append(entries, models.HistoryEntry{
			ID:                 r.ID,
			RestaurantID:       r.RestaurantID,
			RestaurantName:     r.RestaurantName,
			RestaurantCategory: r.RestaurantCategory,
			SelectedAt:         selectedAt,
		})
	}
	return entries, nil
}

// SaveHistory replaces the table contents with entries in one transaction.
func (s *SQLiteHistory) SaveHistory(ctx context.Context, entries []models.HistoryEntry) error {
	if s.db == nil {
		return fmt.Errorf("%w: store not initialized", ErrStoreUnavailable)
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM history`); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	for _, e := range entries {
		row := historyRow{
			ID:                 e.ID,
			RestaurantID:       e.RestaurantID,
			RestaurantName:     e.RestaurantName,
			RestaurantCategory: e.RestaurantCategory,
			SelectedAt:         e.SelectedAt.UTC().Format(time.RFC3339Nano),
		}
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO history (id, restaurant_id, restaurant_name, restaurant_category, selected_at)
			VALUES (:id, :restaurant_id, :restaurant_name, :restaurant_category, :selected_at)`, row); err != nil {
			return fmt.Errorf("insert history entry %d: %w", e.ID, err)
		}
	}
	return tx.Commit()
}
