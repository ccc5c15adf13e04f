// Package resilience wraps outbound HTTP calls to environment providers and
// to the backend with a circuit breaker, bounded retries and health
// tracking.
package resilience

import (
	"time"

	"github.com/sony/gobreaker/v2"
)

// Breaker defaults. Counts are cleared every CountWindow while closed so a
// provider that failed during a past outage is not tripped by one new error.
const (
	DefaultHalfOpenProbes      = 1
	DefaultCountWindow         = 5 * time.Minute
	DefaultOpenTimeout         = 30 * time.Second
	DefaultMinRequests         = 5
	DefaultFailureRatio        = 0.5
	DefaultConsecutiveFailures = 3
)

// CircuitBreakerConfig configures the breaker guarding one provider.
type CircuitBreakerConfig struct {
	Name string

	// MaxRequests is the number of probes let through while half-open.
	MaxRequests uint32

	// Interval clears the counts while closed. Zero never clears them.
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration

	// ReadyToTrip defaults to DefaultReadyToTrip.
	ReadyToTrip func(counts gobreaker.Counts) bool

	OnStateChange func(name string, from gobreaker.State, to gobreaker.State)
}

// DefaultCircuitBreakerConfig returns the breaker settings used for
// environment providers.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:        name,
		MaxRequests: DefaultHalfOpenProbes,
		Interval:    DefaultCountWindow,
		Timeout:     DefaultOpenTimeout,
		ReadyToTrip: DefaultReadyToTrip,
	}
}

// DefaultReadyToTrip opens the breaker after DefaultConsecutiveFailures
// failures in a row, or once DefaultMinRequests have been seen and at least
// half of them failed. The consecutive rule matters for single-attempt
// clients that rarely reach the request minimum.
func DefaultReadyToTrip(counts gobreaker.Counts) bool {
	if counts.ConsecutiveFailures >= DefaultConsecutiveFailures {
		return true
	}
	if counts.Requests < DefaultMinRequests {
		return false
	}
	return float64(counts.TotalFailures)/float64(counts.Requests) >= DefaultFailureRatio
}

// NewCircuitBreaker builds a gobreaker instance from cfg. Zero fields fall
// back to the defaults, except Interval.
func NewCircuitBreaker[T any](cfg CircuitBreakerConfig) *gobreaker.CircuitBreaker[T] {
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = DefaultHalfOpenProbes
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultOpenTimeout
	}
	if cfg.ReadyToTrip == nil {
		cfg.ReadyToTrip = DefaultReadyToTrip
	}

	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:          cfg.Name,
		MaxRequests:   cfg.MaxRequests,
		Interval:      cfg.Interval,
		Timeout:       cfg.Timeout,
		ReadyToTrip:   cfg.ReadyToTrip,
		OnStateChange: cfg.OnStateChange,
	})
}
