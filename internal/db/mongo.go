package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ukydev/lunch-recommender/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectMongo connects to MongoDB at uri and verifies the connection.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	// Ping to verify connection
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// MongoCatalog reads the catalog from a MongoDB collection.
type MongoCatalog struct {
	Collection *mongo.Collection
}

// LoadCatalog returns every restaurant document ordered by id.
func (c *MongoCatalog) LoadCatalog(ctx context.Context) ([]models.RestaurantDetail, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("%w: mongo collection is nil", ErrStoreUnavailable)
	}
	cursor, err := c.Collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	defer cursor.Close(ctx)

	var restaurants []models.RestaurantDetail
	if err := cursor.All(ctx, &restaurants); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return restaurants, nil
}

// ErrHistoryShrink is returned when a save would drop entries from an append-only log.
var ErrHistoryShrink = errors.New("history log cannot shrink")

// MongoHistoryCollection adapts a *mongo.Collection to HistoryCollection.
type MongoHistoryCollection struct {
	Collection *mongo.Collection
}

// Find queries history documents.
func (c *MongoHistoryCollection) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (HistoryCursor, error) {
	cursor, err := c.Collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	return cursor, nil
}

// CountDocuments counts history documents matching filter.
func (c *MongoHistoryCollection) CountDocuments(ctx context.Context, filter interface{}) (int64, error) {
	return c.Collection.CountDocuments(ctx, filter)
}

// InsertEntry stores a single entry.
func (c *MongoHistoryCollection) InsertEntry(ctx context.Context, entry models.HistoryEntry) error {
	_, err := c.Collection.InsertOne(ctx, entry)
	return err
}

// InsertEntries stores entries in one ordered batch.
func (c *MongoHistoryCollection) InsertEntries(ctx context.Context, entries []models.HistoryEntry) error {
	docs := make([]interface{}, len(entries))
	for i, e := range entries {
		docs[i] = e
	}
	_, err := c.Collection.InsertMany(ctx, docs)
	return err
}

// MongoHistory keeps the history log in a MongoDB collection, one document per
// entry. Documents are only ever inserted.
type MongoHistory struct {
	Collection HistoryCollection
}

// NewMongoHistory creates a history store over collection.
func NewMongoHistory(collection *mongo.Collection) *MongoHistory {
	return &MongoHistory{Collection: &MongoHistoryCollection{Collection: collection}}
}

// LoadHistory returns all entries ordered by id.
func (h *MongoHistory) LoadHistory(ctx context.Context) ([]models.HistoryEntry, error) {
	if h.Collection == nil {
		return nil, fmt.Errorf("%w: mongo collection is nil", ErrStoreUnavailable)
	}
	cursor, err := h.Collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	defer cursor.Close(ctx)

	entries := []models.HistoryEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return entries, nil
}

// AppendHistory inserts entry without touching stored documents.
func (h *MongoHistory) AppendHistory(ctx context.Context, entry models.HistoryEntry) error {
	if h.Collection == nil {
		return fmt.Errorf("%w: mongo collection is nil", ErrStoreUnavailable)
	}
	if err := h.Collection.InsertEntry(ctx, entry); err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

// SaveHistory inserts the entries beyond those already stored. entries must
// extend the stored log; stored documents are never removed.
func (h *MongoHistory) SaveHistory(ctx context.Context, entries []models.HistoryEntry) error {
	if h.Collection == nil {
		return fmt.Errorf("%w: mongo collection is nil", ErrStoreUnavailable)
	}
	stored, err := h.Collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if int64(len(entries)) < stored {
		return fmt.Errorf("%w: %d stored, %d given", ErrHistoryShrink, stored, len(entries))
	}
	pending := entries[stored:]
	if len(pending) == 0 {
		return nil
	}
	if err := h.Collection.InsertEntries(ctx, pending); err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}
