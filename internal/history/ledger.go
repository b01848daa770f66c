// Package history keeps the append-only log of lunch selections.
package history

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/lunch-recommender/internal/db"
	"github.com/ukydev/lunch-recommender/internal/events"
	"github.com/ukydev/lunch-recommender/internal/metrics"
	"github.com/ukydev/lunch-recommender/internal/models"
)

// RestaurantLookup resolves a catalog id to its restaurant.
type RestaurantLookup interface {
	Lookup(ctx context.Context, id int) (models.Restaurant, error)
}

// Ledger appends selections to a history store. Writes are serialized so each
// entry receives a unique id.
type Ledger struct {
	mu        sync.Mutex
	store     db.HistoryStore
	catalog   RestaurantLookup
	publisher events.Publisher
	now       func() time.Time
	logger    logrus.FieldLogger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithPublisher announces every recorded selection.
func WithPublisher(p events.Publisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

// WithClock overrides the selection timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// NewLedger creates a ledger over store that validates ids against catalog.
func NewLedger(store db.HistoryStore, catalog RestaurantLookup, logger logrus.FieldLogger, opts ...Option) *Ledger {
	l := &Ledger{
		store:     store,
		catalog:   catalog,
		publisher: events.NopPublisher{},
		now:       time.Now,
		logger:    logger.WithField("component", "history"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record appends a selection of restaurantID. An unknown id returns
// models.ErrNotFound and leaves the log untouched.
func (l *Ledger) Record(ctx context.Context, restaurantID int) (models.HistoryEntry, error) {
	restaurant, err := l.catalog.Lookup(ctx, restaurantID)
	if err != nil {
		return models.HistoryEntry{}, err
	}

	entry, err := l.append(ctx, restaurant)
	if err != nil {
		return models.HistoryEntry{}, err
	}
	metrics.HistoryEntriesRecorded.Inc()

	log := l.logger.WithFields(logrus.Fields{
		"history_id":    entry.ID,
		"restaurant_id": entry.RestaurantID,
	})
	log.Info("Recorded lunch selection")

	if err := l.publisher.PublishSelection(ctx, entry); err != nil {
		log.WithError(err).Warn("Failed to publish selection event")
	}
	return entry, nil
}

func (l *Ledger) append(ctx context.Context, restaurant models.Restaurant) (models.HistoryEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.store.LoadHistory(ctx)
	if err != nil {
		return models.HistoryEntry{}, fmt.Errorf("load history: %w", err)
	}

	entry := models.HistoryEntry{
		ID:                 len(entries) + 1,
		RestaurantID:       restaurant.ID,
		RestaurantName:     restaurant.Name,
		RestaurantCategory: restaurant.Category,
		SelectedAt:         l.now(),
	}
	if appender, ok := l.store.(db.HistoryAppender); ok {
		if err := appender.AppendHistory(ctx, entry); err != nil {
			return models.HistoryEntry{}, fmt.Errorf("append history: %w", err)
		}
		return entry, nil
	}
	if err := l.store.SaveHistory(ctx, append(entries, entry)); err != nil {
		return models.HistoryEntry{}, fmt.Errorf("save history: %w", err)
	}
	return entry, nil
}

// List returns every entry in insertion order. An unreadable store yields an
// empty list.
func (l *Ledger) List(ctx context.Context) []models.HistoryEntry {
	entries, err := l.store.LoadHistory(ctx)
	if err != nil {
		l.logger.WithError(err).Error("Failed to load history")
		return []models.HistoryEntry{}
	}
	if entries == nil {
		return []models.HistoryEntry{}
	}
	return entries
}

// Range returns the entries selected in [start, end).
func (l *Ledger) Range(ctx context.Context, start, end time.Time) []models.HistoryEntry {
	result := []models.HistoryEntry{}
	for _, e := range l.List(ctx) {
		if !e.SelectedAt.Before(start) && e.SelectedAt.Before(end) {
			result = append(result, e)
		}
	}
	return result
}

// Stats counts selections per category, most frequent first. Percentages are
// rounded to whole numbers.
func (l *Ledger) Stats(ctx context.Context) []models.CategoryStat {
	entries := l.List(ctx)
	counts := map[string]int{}
	for _, e := range entries {
		counts[e.RestaurantCategory]++
	}

	stats := make([]models.CategoryStat, 0, len(counts))
	for category, count := range counts {
		stats = append(stats, models.CategoryStat{
			Category:   category,
			Count:      count,
			Percentage: int(math.Round(float64(count) / float64(len(entries)) * 100)),
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Category < stats[j].Category
	})
	return stats
}
