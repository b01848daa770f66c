// Package lunch exposes the recommendation pipeline and history ledger as a
// single facade for the HTTP layer.
package lunch

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/lunch-recommender/internal/catalog"
	"github.com/ukydev/lunch-recommender/internal/history"
	"github.com/ukydev/lunch-recommender/internal/models"
)

// DateLayout is the format of history range bounds.
const DateLayout = "2006-01-02"

// HistorySavedMessage acknowledges a recorded selection.
const HistorySavedMessage = "history saved"

// PlaceSearcher finds external venues near a point. It never fails.
type PlaceSearcher interface {
	SearchNearby(ctx context.Context, origin models.Coordinate, radius, maxResults int) []models.Place
}

// Recommender shortlists candidates. It never fails.
type Recommender interface {
	Recommend(ctx context.Context, candidates []models.Restaurant, location string) []models.Recommendation
}

// Options holds the tunables of a Service.
type Options struct {
	RecommendRadius     float64 // meters
	PlacesDefaultRadius int     // meters
	PlacesMaxResults    int
	Location            *time.Location // for history range bounds
}

// Service implements the lunch operations.
type Service struct {
	catalog     *catalog.Filter
	places      PlaceSearcher
	recommender Recommender
	ledger      *history.Ledger
	opts        Options
	logger      logrus.FieldLogger
}

// NewService wires the components.
func NewService(c *catalog.Filter, p PlaceSearcher, r Recommender, l *history.Ledger, opts Options, logger logrus.FieldLogger) *Service {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Service{
		catalog:     c,
		places:      p,
		recommender: r,
		ledger:      l,
		opts:        opts,
		logger:      logger.WithField("component", "lunch"),
	}
}

// GetNearby lists every catalog restaurant nearest first, optionally limited to one category.
func (s *Service) GetNearby(ctx context.Context, origin models.Coordinate, category string) []models.Restaurant {
	return s.catalog.Nearby(ctx, origin, catalog.Unbounded, category)
}

// GetExternalNearby searches the place provider. A radius <= 0 uses the default.
func (s *Service) GetExternalNearby(ctx context.Context, origin models.Coordinate, radius int) []models.Place {
	if radius <= 0 {
		radius = s.opts.PlacesDefaultRadius
	}
	return s.places.SearchNearby(ctx, origin, radius, s.opts.PlacesMaxResults)
}

// GetRecommendations shortlists the catalog restaurants within the recommendation radius.
func (s *Service) GetRecommendations(ctx context.Context, origin models.Coordinate) models.RecommendationResponse {
	candidates := s.catalog.Nearby(ctx, origin, s.opts.RecommendRadius, "")
	label := origin.Label()

	s.logger.WithFields(logrus.Fields{
		"lat":        origin.Latitude,
		"lng":        origin.Longitude,
		"candidates": len(candidates),
	}).Info("Building lunch recommendations")

	return models.RecommendationResponse{
		Recommendations: s.recommender.Recommend(ctx, candidates, label),
		TotalCount:      len(candidates),
		UserLocation:    label,
	}
}

// GetDetail returns one restaurant with its detail fields.
func (s *Service) GetDetail(ctx context.Context, id int) (models.RestaurantDetail, error) {
	return s.catalog.Detail(ctx, id)
}

// Search matches restaurants by keyword.
func (s *Service) Search(ctx context.Context, q string) []models.Restaurant {
	return s.catalog.Search(ctx, q)
}

// ByCategory lists the restaurants in one category.
func (s *Service) ByCategory(ctx context.Context, category string) []models.Restaurant {
	return s.catalog.ByCategory(ctx, category)
}

// RecordSelection appends restaurantID to the history.
func (s *Service) RecordSelection(ctx context.Context, restaurantID int) (models.HistoryResponse, error) {
	entry, err := s.ledger.Record(ctx, restaurantID)
	if err != nil {
		return models.HistoryResponse{}, err
	}
	return models.HistoryResponse{Message: HistorySavedMessage, ID: entry.ID}, nil
}

// ListHistory returns every selection in insertion order.
func (s *Service) ListHistory(ctx context.Context) []models.HistoryEntry {
	return s.ledger.List(ctx)
}

// HistoryRange returns the selections made from the start of startDate through
// the end of endDate, both YYYY-MM-DD.
func (s *Service) HistoryRange(ctx context.Context, startDate, endDate string) ([]models.HistoryEntry, error) {
	start, err := time.ParseInLocation(DateLayout, startDate, s.opts.Location)
	if err != nil {
		return nil, fmt.Errorf("invalid startDate %q: %w", startDate, err)
	}
	end, err := time.ParseInLocation(DateLayout, endDate, s.opts.Location)
	if err != nil {
		return nil, fmt.Errorf("invalid endDate %q: %w", endDate, err)
	}
	return s.ledger.Range(ctx, start, end.AddDate(0, 0, 1)), nil
}

// HistoryStats summarizes selections by category.
func (s *Service) HistoryStats(ctx context.Context) []models.CategoryStat {
	return s.ledger.Stats(ctx)
}
