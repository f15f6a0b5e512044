package resilience

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Status summarises an upstream's circuit state.
type Status string

const (
	StatusHealthy Status = "healthy"
	// StatusRecovering means the circuit is half-open and probing.
	StatusRecovering  Status = "recovering"
	StatusUnavailable Status = "unavailable"
)

// ProviderHealth is a point-in-time view of one upstream.
type ProviderHealth struct {
	Name         string
	CircuitState gobreaker.State
	Counts       gobreaker.Counts

	// StateSince is when the circuit last changed state; nil if it never has.
	StateSince *time.Time

	LastSuccessAt *time.Time
	LastFailureAt *time.Time
	LastError     string
}

// Status maps the circuit state to a health status.
func (h ProviderHealth) Status() Status {
	switch h.CircuitState {
	case gobreaker.StateOpen:
		return StatusUnavailable
	case gobreaker.StateHalfOpen:
		return StatusRecovering
	default:
		return StatusHealthy
	}
}

// Registry tracks the upstream clients and the outcome of their calls.
type Registry struct {
	mu        sync.RWMutex
	upstreams map[string]*upstream
}

type upstream struct {
	client        *Client
	stateSince    *time.Time
	lastSuccessAt *time.Time
	lastFailureAt *time.Time
	lastError     string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{upstreams: make(map[string]*upstream)}
}

// Register adds client under name, replacing any earlier client of that name.
func (r *Registry) Register(name string, client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upstreams[name] = &upstream{client: client}
}

// RecordSuccess records a successful call.
func (r *Registry) RecordSuccess(name string) {
	r.update(name, func(u *upstream, now time.Time) {
		u.lastSuccessAt = &now
	})
}

// RecordFailure records a failed call and its error.
func (r *Registry) RecordFailure(name string, err error) {
	r.update(name, func(u *upstream, now time.Time) {
		u.lastFailureAt = &now
		if err != nil {
			u.lastError = err.Error()
		}
	})
}

func (r *Registry) recordTransition(name string) {
	r.update(name, func(u *upstream, now time.Time) {
		u.stateSince = &now
	})
}

func (r *Registry) update(name string, fn func(*upstream, time.Time)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.upstreams[name]; ok {
		fn(u, time.Now())
	}
}

// Health returns the health of one upstream.
func (r *Registry) Health(name string) (ProviderHealth, bool) {
	r.mu.RLock()
	u, ok := r.upstreams[name]
	var h ProviderHealth
	var client *Client
	if ok {
		h, client = u.health(name), u.client
	}
	r.mu.RUnlock()

	if !ok {
		return ProviderHealth{}, false
	}
	return withBreaker(h, client), true
}

// Snapshot returns the health of every upstream, ordered by name.
func (r *Registry) Snapshot() []ProviderHealth {
	type entry struct {
		health ProviderHealth
		client *Client
	}

	r.mu.RLock()
	entries := make([]entry, 0, len(r.upstreams))
	for name, u := range r.upstreams {
		entries = append(entries, entry{u.health(name), u.client})
	}
	r.mu.RUnlock()

	// Breaker state is read outside the registry lock: the breaker calls back
	// into the registry on transitions while holding its own lock.
	out := make([]ProviderHealth, 0, len(entries))
	for _, e := range entries {
		out = append(out, withBreaker(e.health, e.client))
	}
	slices.SortFunc(out, func(a, b ProviderHealth) int { return strings.Compare(a.Name, b.Name) })
	return out
}

func (u *upstream) health(name string) ProviderHealth {
	return ProviderHealth{
		Name:          name,
		StateSince:    u.stateSince,
		LastSuccessAt: u.lastSuccessAt,
		LastFailureAt: u.lastFailureAt,
		LastError:     u.lastError,
	}
}

func withBreaker(h ProviderHealth, c *Client) ProviderHealth {
	h.CircuitState = c.CircuitBreakerState()
	h.Counts = c.CircuitBreakerCounts()
	return h
}
