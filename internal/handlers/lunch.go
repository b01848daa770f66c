// Package handlers serves the lunch API over HTTP.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/lunch-recommender/internal/models"
)

// Service is the lunch facade consumed by the handlers.
type Service interface {
	GetNearby(ctx context.Context, origin models.Coordinate, category string) []models.Restaurant
	GetExternalNearby(ctx context.Context, origin models.Coordinate, radius int) []models.Place
	GetRecommendations(ctx context.Context, origin models.Coordinate) models.RecommendationResponse
	GetDetail(ctx context.Context, id int) (models.RestaurantDetail, error)
	Search(ctx context.Context, q string) []models.Restaurant
	ByCategory(ctx context.Context, category string) []models.Restaurant
	RecordSelection(ctx context.Context, restaurantID int) (models.HistoryResponse, error)
	ListHistory(ctx context.Context) []models.HistoryEntry
	HistoryRange(ctx context.Context, startDate, endDate string) ([]models.HistoryEntry, error)
	HistoryStats(ctx context.Context) []models.CategoryStat
}

// LunchHandler handles restaurant and history requests
type LunchHandler struct {
	svc      Service
	validate *validator.Validate
	logger   logrus.FieldLogger
}

// NewLunchHandler creates a new lunch handler
func NewLunchHandler(svc Service, logger logrus.FieldLogger) *LunchHandler {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"query", "json"} {
			if name := strings.Split(f.Tag.Get(tag), ",")[0]; name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return &LunchHandler{svc: svc, validate: v, logger: logger.WithField("component", "handlers")}
}

type locationQuery struct {
	Lat string `query:"lat" validate:"required,latitude"`
	Lng string `query:"lng" validate:"required,longitude"`
}

func (q locationQuery) coordinate() models.Coordinate {
	lat, _ := strconv.ParseFloat(q.Lat, 64)
	lng, _ := strconv.ParseFloat(q.Lng, 64)
	return models.Coordinate{Latitude: lat, Longitude: lng}
}

type nearbyQuery struct {
	locationQuery
	Category string `query:"category"`
}

type externalQuery struct {
	locationQuery
	Radius string `query:"radius" validate:"omitempty,number"`
}

type rangeQuery struct {
	StartDate string `query:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string `query:"endDate" validate:"required,datetime=2006-01-02"`
}

// GetRestaurants lists catalog restaurants nearest first.
func (h *LunchHandler) GetRestaurants(w http.ResponseWriter, r *http.Request) {
	q := nearbyQuery{
		locationQuery: parseLocation(r),
		Category:      r.URL.Query().Get("category"),
	}
	if !h.valid(w, q) {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.GetNearby(r.Context(), q.coordinate(), q.Category))
}

// GetKakaoNearby searches the external place provider.
func (h *LunchHandler) GetKakaoNearby(w http.ResponseWriter, r *http.Request) {
	q := externalQuery{
		locationQuery: parseLocation(r),
		Radius:        r.URL.Query().Get("radius"),
	}
	if !h.valid(w, q) {
		return
	}
	radius := 0
	if q.Radius != "" {
		var err error
		if radius, err = strconv.Atoi(q.Radius); err != nil {
			writeError(w, http.StatusBadRequest, "radius must be an integer")
			return
		}
	}
	writeJSON(w, http.StatusOK, h.svc.GetExternalNearby(r.Context(), q.coordinate(), radius))
}

// GetRecommendations returns the lunch shortlist near the caller.
func (h *LunchHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	q := parseLocation(r)
	if !h.valid(w, q) {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.GetRecommendations(r.Context(), q.coordinate()))
}

// Search matches restaurants by keyword.
func (h *LunchHandler) Search(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Search(r.Context(), r.URL.Query().Get("q")))
}

// ByCategory lists the restaurants of one category.
func (h *LunchHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.ByCategory(r.Context(), chi.URLParam(r, "category")))
}

// GetRestaurant returns one restaurant with its details.
func (h *LunchHandler) GetRestaurant(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "id must be an integer")
		return
	}
	detail, err := h.svc.GetDetail(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// PostHistory records a selected restaurant.
func (h *LunchHandler) PostHistory(w http.ResponseWriter, r *http.Request) {
	var req models.HistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !h.valid(w, req) {
		return
	}
	resp, err := h.svc.RecordSelection(r.Context(), req.RestaurantID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetHistory returns the whole selection history.
func (h *LunchHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.ListHistory(r.Context()))
}

// GetHistoryRange returns the selections between two dates inclusive.
func (h *LunchHandler) GetHistoryRange(w http.ResponseWriter, r *http.Request) {
	q := rangeQuery{
		StartDate: r.URL.Query().Get("startDate"),
		EndDate:   r.URL.Query().Get("endDate"),
	}
	if !h.valid(w, q) {
		return
	}
	entries, err := h.svc.HistoryRange(r.Context(), q.StartDate, q.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// GetHistoryStats returns per-category selection counts.
func (h *LunchHandler) GetHistoryStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.HistoryStats(r.Context()))
}

func parseLocation(r *http.Request) locationQuery {
	return locationQuery{
		Lat: r.URL.Query().Get("lat"),
		Lng: r.URL.Query().Get("lng"),
	}
}

// valid writes a 400 and returns false when v fails validation.
func (h *LunchHandler) valid(w http.ResponseWriter, v any) bool {
	err := h.validate.Struct(v)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	writeError(w, http.StatusBadRequest, strings.Join(msgs, "; "))
	return false
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD format", fe.Field())
	default:
		return fmt.Sprintf("%s is not a valid %s", fe.Field(), fe.Tag())
	}
}

func (h *LunchHandler) writeServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, models.ErrNotFound) {
		writeError(w, http.StatusNotFound, models.ErrNotFound.Error())
		return
	}
	h.logger.WithError(err).Error("Request failed")
	writeError(w, http.StatusInternalServerError, "internal server error")
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
