// Package resilience wraps calls to external providers in circuit breakers.
package resilience

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/ukydev/lunch-recommender/internal/metrics"
)

// NewBreaker returns a circuit breaker for the named upstream.
// It opens when at least 60% of 10 or more requests in a one-minute window
// fail and probes again after 30 seconds.
func NewBreaker[T any](name string, logger logrus.FieldLogger) *gobreaker.CircuitBreaker[T] {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
}

// Record updates the upstream request counter for the outcome of a breaker call.
func Record(upstream string, err error) {
	switch {
	case err == nil:
		metrics.UpstreamRequests.WithLabelValues(upstream, "success").Inc()
	case IsRejected(err):
		metrics.UpstreamRequests.WithLabelValues(upstream, "rejected").Inc()
	default:
		metrics.UpstreamRequests.WithLabelValues(upstream, "failure").Inc()
	}
}

// IsRejected reports whether err means the breaker refused the call.
func IsRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
