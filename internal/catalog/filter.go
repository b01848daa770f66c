// Package catalog answers distance and category queries over the restaurant catalog.
package catalog

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/lunch-recommender/internal/db"
	"github.com/ukydev/lunch-recommender/internal/geo"
	"github.com/ukydev/lunch-recommender/internal/models"
)

// Unbounded disables the radius filter in Nearby.
var Unbounded = math.Inf(1)

// Filter reads the catalog store on every call so edits to the backing data
// are picked up without a restart.
type Filter struct {
	store  db.CatalogStore
	logger logrus.FieldLogger
}

// NewFilter creates a catalog filter over store.
func NewFilter(store db.CatalogStore, logger logrus.FieldLogger) *Filter {
	return &Filter{store: store, logger: logger.WithField("component", "catalog")}
}

// load returns the catalog, treating an unavailable store as empty.
func (f *Filter) load(ctx context.Context) []models.RestaurantDetail {
	records, err := f.store.LoadCatalog(ctx)
	if err != nil {
		f.logger.WithError(err).Error("Failed to load restaurant catalog")
		return nil
	}
	return records
}

// Nearby returns restaurants within radius meters of origin, each annotated with
// its rounded distance, sorted ascending by distance. Ties keep catalog order.
// An empty category matches everything.
func (f *Filter) Nearby(ctx context.Context, origin models.Coordinate, radius float64, category string) []models.Restaurant {
	result := []models.Restaurant{}
	for _, rec := range f.load(ctx) {
		if category != "" && rec.Category != category {
			continue
		}
		d := geo.Distance(origin, rec.Coordinate)
		if d > radius {
			continue
		}
		result = append(result, rec.Restaurant.WithDistance(math.Round(d)))
	}

	sort.SliceStable(result, func(i, j int) bool {
		return *result[i].Distance < *result[j].Distance
	})
	return result
}

// Detail returns the full record for id with detail defaults applied.
func (f *Filter) Detail(ctx context.Context, id int) (models.RestaurantDetail, error) {
	for _, rec := range f.load(ctx) {
		if rec.ID == id {
			return rec.WithDefaults(), nil
		}
	}
	return models.RestaurantDetail{}, fmt.Errorf("restaurant %d: %w", id, models.ErrNotFound)
}

// Lookup returns the catalog restaurant with the given id.
func (f *Filter) Lookup(ctx context.Context, id int) (models.Restaurant, error) {
	d, err := f.Detail(ctx, id)
	if err != nil {
		return models.Restaurant{}, err
	}
	return d.Restaurant, nil
}

// Search returns restaurants whose name, category or description contains q,
// ignoring case. An empty query matches nothing.
func (f *Filter) Search(ctx context.Context, q string) []models.Restaurant {
	result := []models.Restaurant{}
	needle := strings.ToLower(strings.TrimSpace(q))
	if needle == "" {
		return result
	}
	for _, rec := range f.load(ctx) {
		if strings.Contains(strings.ToLower(rec.Name), needle) ||
			strings.Contains(strings.ToLower(rec.Category), needle) ||
			strings.Contains(strings.ToLower(rec.Description), needle) {
			result = append(result, rec.Restaurant)
		}
	}
	return result
}

// ByCategory returns the restaurants in exactly the given category, in catalog order.
func (f *Filter) ByCategory(ctx context.Context, category string) []models.Restaurant {
	result := []models.Restaurant{}
	for _, rec := range f.load(ctx) {
		if rec.Category == category {
			result = append(result, rec.Restaurant)
		}
	}
	return result
}
