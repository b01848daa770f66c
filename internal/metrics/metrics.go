// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lunch_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lunch_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lunch_upstream_requests_total",
			Help: "Calls to external providers by outcome",
		},
		[]string{"upstream", "result"}, // result: "success", "failure", "rejected"
	)

	FallbackRecommendations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lunch_fallback_recommendations_total",
			Help: "Recommendations produced without LLM ranking",
		},
		[]string{"cause"}, // cause: "no_llm", "llm_error", "unparseable"
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lunch_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	HistoryEntriesRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lunch_history_entries_recorded_total",
			Help: "Selections appended to the history ledger",
		},
	)
)
