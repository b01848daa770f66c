// Package recommend shortlists lunch candidates, ranking them with an LLM when
// one is configured and falling back to a random pick otherwise.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/lunch-recommender/internal/metrics"
	"github.com/ukydev/lunch-recommender/internal/models"
)

const (
	ReasonDefault  = "default recommendation"
	ReasonFallback = "AI recommendation (fallback)"
)

var (
	ErrNoLLM       = errors.New("no language model configured")
	ErrLLMCall     = errors.New("language model call failed")
	ErrUnparseable = errors.New("language model response not parseable")
)

// LLM completes a single prompt.
type LLM interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Engine produces recommendation shortlists.
type Engine struct {
	llm     LLM
	timeout time.Duration
	pick    func(n int) int
	logger  logrus.FieldLogger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLLM enables LLM ranking.
func WithLLM(llm LLM) Option {
	return func(e *Engine) { e.llm = llm }
}

// WithTimeout bounds each LLM call.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithPicker replaces the uniform random index source used by the fallback.
func WithPicker(pick func(n int) int) Option {
	return func(e *Engine) { e.pick = pick }
}

// NewEngine creates an engine. Without WithLLM every call takes the fallback path.
func NewEngine(logger logrus.FieldLogger, opts ...Option) *Engine {
	e := &Engine{
		timeout: 10 * time.Second,
		pick:    rand.IntN,
		logger:  logger.WithField("component", "recommend"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Recommend returns the ranked shortlist for the candidates. It never fails: any ranking problem is logged and answered with a single random pick.
func (e *Engine) Recommend(ctx context.Context, candidates []models.Restaurant, location string) []models.Recommendation {
	if len(candidates) == 0 {
		return []models.Recommendation{}
	}

	recs, err := e.rank(ctx, candidates, location)
	if err == nil {
		return recs
	}

	reason := ReasonFallback
	cause := "llm_error"
	switch {
	case errors.Is(err, ErrNoLLM):
		reason = ReasonDefault
		cause = "no_llm"
	case errors.Is(err, ErrUnparseable):
		cause = "unparseable"
	}
	metrics.FallbackRecommendations.WithLabelValues(cause).Inc()

	log := e.logger.WithFields(logrus.Fields{"cause": cause, "candidates": len(candidates)})
	if cause == "no_llm" {
		log.Debug("Using random recommendation")
	} else {
		log.WithError(err).Warn("LLM ranking failed, using random recommendation")
	}

	choice := candidates[e.pick(len(candidates))]
	return []models.Recommendation{{ID: choice.ID, Reason: reason}}
}

func (e *Engine) rank(ctx context.Context, candidates []models.Restaurant, location string) ([]models.Recommendation, error) {
	if e.llm == nil {
		return nil, ErrNoLLM
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	raw, err := e.llm.Complete(ctx, SystemPrompt, BuildPrompt(candidates, location))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLLMCall, err)
	}

	recs, err := ParseRecommendations(raw, candidates)
	if err != nil {
		e.logger.WithField("response", raw).Debug("Unparseable LLM response")
		return nil, err
	}
	return recs, nil
}
