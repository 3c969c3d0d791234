package ai

import (
	"fmt"

	"atspro/internal/config"
	"atspro/internal/errors"

	"github.com/sony/gobreaker/v2"
	"google.golang.org/genai"
)

// Breaker guards calls returning T. A nil Breaker runs calls unguarded.
type Breaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// AICircuitBreaker guards content generation for one operation.
type AICircuitBreaker = Breaker[*genai.GenerateContentResponse]

// ModelCircuitBreaker guards model lookups used by health checks.
type ModelCircuitBreaker = Breaker[*genai.Model]

// NewBreaker returns nil when the breaker is disabled for the operation.
// minRequests and threshold override the configured trip rule when > 0.
func NewBreaker[T any](name, operation string, cfg config.CircuitBreakerConfig, minRequests uint32, threshold float64, logger *errors.Logger) *Breaker[T] {
	if !cfg.Enabled {
		return nil
	}
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	if minRequests == 0 {
		minRequests = cfg.MinRequests
	}
	if threshold <= 0 {
		threshold = cfg.FailureThreshold
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= minRequests && failureRatio >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				"name", name,
				"operation", operation,
				"from", from.String(),
				"to", to.String())
		},
	}
	return &Breaker[T]{cb: gobreaker.NewCircuitBreaker[T](settings)}
}

// NewAICircuitBreaker creates the generation breaker for operation.
func NewAICircuitBreaker(operation string, cfg config.CircuitBreakerConfig, logger *errors.Logger) *AICircuitBreaker {
	return NewBreaker[*genai.GenerateContentResponse](fmt.Sprintf("AI-%s", operation), operation, cfg, 0, 0, logger)
}

// NewModelCircuitBreaker creates a more lenient breaker for model lookups.
func NewModelCircuitBreaker(operation string, cfg config.CircuitBreakerConfig, logger *errors.Logger) *ModelCircuitBreaker {
	return NewBreaker[*genai.Model](fmt.Sprintf("AI-Model-%s", operation), operation, cfg, 5, 0.8, logger)
}

// Execute runs fn under the breaker.
func (b *Breaker[T]) Execute(fn func() (T, error)) (T, error) {
	if b == nil || b.cb == nil {
		return fn()
	}
	return b.cb.Execute(fn)
}

// GetStats reports the breaker state for the health endpoint.
func (b *Breaker[T]) GetStats() map[string]any {
	if b == nil || b.cb == nil {
		return map[string]any{"enabled": false}
	}
	return map[string]any{
		"name":    b.cb.Name(),
		"state":   b.cb.State().String(),
		"counts":  b.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy is true unless the breaker is open or half-open.
func (b *Breaker[T]) IsHealthy() bool {
	if b == nil || b.cb == nil {
		return true
	}
	return b.cb.State() == gobreaker.StateClosed
}
