// Package resilience wraps outbound HTTP calls with a circuit breaker, bounded
// retries and health tracking.
package resilience

import (
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerConfig holds circuit breaker settings.
type BreakerConfig struct {
	// Name identifies the breaker in logs and health reports.
	Name string

	// MaxRequests allowed through while half-open. Default: 1
	MaxRequests uint32

	// OpenTimeout is how long the breaker stays open before probing. Default: 30s
	OpenTimeout time.Duration

	// Trip decides when the breaker opens. Default: TripOnFailureRatio.
	Trip func(counts gobreaker.Counts) bool

	// OnStateChange is called on every state transition.
	OnStateChange func(name string, from, to gobreaker.State)
}

// TripOnFailureRatio opens the breaker once 5 requests have been counted and
// at least half of them failed.
func TripOnFailureRatio(counts gobreaker.Counts) bool {
	if counts.Requests < 5 {
		return false
	}
	return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
}

func newBreaker[T any](cfg BreakerConfig) *gobreaker.CircuitBreaker[T] {
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 1
	}
	if cfg.OpenTimeout == 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if cfg.Trip == nil {
		cfg.Trip = TripOnFailureRatio
	}

	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:          cfg.Name,
		MaxRequests:   cfg.MaxRequests,
		Timeout:       cfg.OpenTimeout,
		ReadyToTrip:   cfg.Trip,
		OnStateChange: cfg.OnStateChange,
	})
}
