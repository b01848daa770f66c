package db

import (
	"context"
	"errors"

	"github.com/ukydev/lunch-recommender/internal/models"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrStoreUnavailable is returned when a backing store is missing or unreadable.
var ErrStoreUnavailable = errors.New("store unavailable")

// CatalogStore defines the interface for loading the restaurant catalog.
type CatalogStore interface {
	LoadCatalog(ctx context.Context) ([]models.RestaurantDetail, error)
}

// HistoryStore defines the interface for the selection history log. SaveHistory
// receives the whole sequence; stores must not lose stored entries when it fails.
type HistoryStore interface {
	LoadHistory(ctx context.Context) ([]models.HistoryEntry, error)
	SaveHistory(ctx context.Context, entries []models.HistoryEntry) error
}

// HistoryAppender is implemented by history stores that can add one entry
// without rewriting the log.
type HistoryAppender interface {
	AppendHistory(ctx context.Context, entry models.HistoryEntry) error
}

// HistoryCollection defines the MongoDB operations used by the history store.
type HistoryCollection interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (HistoryCursor, error)
	CountDocuments(ctx context.Context, filter interface{}) (int64, error)
	InsertEntry(ctx context.Context, entry models.HistoryEntry) error
	InsertEntries(ctx context.Context, entries []models.HistoryEntry) error
}

// HistoryCursor defines the interface for history cursor operations.
type HistoryCursor interface {
	All(ctx context.Context, out interface{}) error
	Close(ctx context.Context) error
}
