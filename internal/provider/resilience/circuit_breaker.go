// Package resilience wraps calls to the upstream air-quality API with circuit
// breakers, timeouts and retries, and tracks per-upstream health.
package resilience

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerConfig controls when an upstream's circuit opens.
type BreakerConfig struct {
	// MinRequests is how many requests are counted before FailureRatio applies.
	// Default: 5
	MinRequests uint32

	// FailureRatio opens the circuit once this share of counted requests failed.
	// Default: 0.5
	FailureRatio float64

	// OpenTimeout is how long the circuit stays open before one probe request
	// is let through.
	// Default: 30 seconds
	OpenTimeout time.Duration

	// Window clears the counts periodically while the circuit is closed.
	// Zero keeps counting until the circuit trips.
	Window time.Duration
}

// DefaultBreakerConfig returns the breaker settings used for the upstream API.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MinRequests:  5,
		FailureRatio: 0.5,
		OpenTimeout:  30 * time.Second,
	}
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	d := DefaultBreakerConfig()
	if c.MinRequests == 0 {
		c.MinRequests = d.MinRequests
	}
	if c.FailureRatio <= 0 {
		c.FailureRatio = d.FailureRatio
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = d.OpenTimeout
	}
	return c
}

// ShouldTrip reports whether counts reach the failure threshold.
func (c BreakerConfig) ShouldTrip(counts gobreaker.Counts) bool {
	c = c.withDefaults()
	if counts.Requests < c.MinRequests {
		return false
	}
	return float64(counts.TotalFailures)/float64(counts.Requests) >= c.FailureRatio
}

// countsAsFailure reports whether err should count against the upstream.
// A caller giving up (shutdown, superseded fetch) says nothing about it.
func countsAsFailure(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled)
}

func newBreaker(name string, cfg BreakerConfig, onChange func(from, to gobreaker.State)) *gobreaker.CircuitBreaker[*http.Response] {
	cfg = cfg.withDefaults()
	return gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:         name,
		MaxRequests:  1,
		Interval:     cfg.Window,
		Timeout:      cfg.OpenTimeout,
		ReadyToTrip:  cfg.ShouldTrip,
		IsSuccessful: func(err error) bool { return !countsAsFailure(err) },
		OnStateChange: func(_ string, from, to gobreaker.State) {
			onChange(from, to)
		},
	})
}
