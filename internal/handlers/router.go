package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/lunch-recommender/internal/middleware"
)

// RouterOptions configures the cross-cutting middleware.
type RouterOptions struct {
	CORSOrigins     []string
	RateLimitReqs   int
	RateLimitWindow time.Duration
}

// NewRouter mounts the API, health and metrics endpoints.
func NewRouter(h *LunchHandler, opts RouterOptions, logger logrus.FieldLogger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(opts.CORSOrigins))

	r.Get("/health", Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		if opts.RateLimitReqs > 0 && opts.RateLimitWindow > 0 {
			r.Use(middleware.RateLimit(opts.RateLimitReqs, opts.RateLimitWindow))
		}

		r.Route("/restaurants", func(r chi.Router) {
			r.Get("/", h.GetRestaurants)
			r.Get("/kakao-nearby", h.GetKakaoNearby)
			r.Get("/random", h.GetRecommendations)
			r.Get("/search", h.Search)
			r.Get("/category/{category}", h.ByCategory)
			r.Get("/{id}", h.GetRestaurant)
		})

		r.Route("/history", func(r chi.Router) {
			r.Post("/", h.PostHistory)
			r.Get("/", h.GetHistory)
			r.Get("/range", h.GetHistoryRange)
			r.Get("/stats", h.GetHistoryStats)
		})
	})

	return r
}

// Health reports liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
