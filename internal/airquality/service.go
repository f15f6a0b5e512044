package airquality

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Provider defines the interface for live air quality providers.
type Provider interface {
	// Name identifies the data source.
	Name() string

	// CurrentAirQuality fetches the latest reading.
	CurrentAirQuality(ctx context.Context) (*Current, error)
}

// ServiceConfig holds configuration for the air quality service.
type ServiceConfig struct {
	// Provider is the air quality data provider.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long to cache the reading (default: 1 minute).
	CacheTTL time.Duration

	// StaleIfErrorTTL allows serving stale data on provider errors (default: 30 minutes).
	StaleIfErrorTTL time.Duration

	// Now overrides the clock. Optional.
	Now func() time.Time
}

// Service provides the current air quality reading with caching.
type Service struct {
	provider        Provider
	logger          zerolog.Logger
	cacheTTL        time.Duration
	staleIfErrorTTL time.Duration
	now             func() time.Time

	mu          sync.RWMutex
	snapshot    *Snapshot
	cacheExpiry time.Time
}

// NewService creates a new air quality service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = time.Minute
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = 30 * time.Minute
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		provider:        cfg.Provider,
		logger:          cfg.Logger,
		cacheTTL:        cacheTTL,
		staleIfErrorTTL: staleIfErrorTTL,
		now:             now,
	}
}

// GetCurrent returns the current reading, using the cache while it is fresh.
func (s *Service) GetCurrent(ctx context.Context) (*Current, error) {
	s.mu.RLock()
	if s.snapshot != nil && s.now().Before(s.cacheExpiry) {
		current := s.snapshot.Current
		s.mu.RUnlock()
		return &current, nil
	}
	s.mu.RUnlock()

	snapshot, err := s.refresh(ctx, false)
	if err != nil {
		return nil, err
	}
	current := snapshot.Current
	return &current, nil
}

// Refresh forces a provider call. Unlike GetCurrent it reports provider
// errors even when stale data could still be served.
func (s *Service) Refresh(ctx context.Context) error {
	_, err := s.refresh(ctx, true)
	return err
}

// Cached returns the last reading without contacting the provider.
func (s *Service) Cached() (*Current, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return nil, false
	}
	current := s.snapshot.Current
	return &current, true
}

// InvalidateCache clears the cached reading.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = nil
	s.cacheExpiry = time.Time{}
}

// CacheStatus returns information about the current cache state.
func (s *Service) CacheStatus() CacheStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snapshot == nil {
		return CacheStatus{HasData: false}
	}

	now := s.now()
	return CacheStatus{
		HasData:   true,
		FetchedAt: s.snapshot.FetchedAt,
		ExpiresAt: s.cacheExpiry,
		IsExpired: now.After(s.cacheExpiry),
		IsStale:   now.After(s.snapshot.FetchedAt.Add(s.staleIfErrorTTL)),
		Provider:  s.snapshot.Provider,
	}
}

// CacheStatus represents the current state of the cache.
type CacheStatus struct {
	HasData   bool      `json:"has_data"`
	FetchedAt time.Time `json:"fetched_at,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	IsExpired bool      `json:"is_expired"`
	IsStale   bool      `json:"is_stale"`
	Provider  string    `json:"provider,omitempty"`
}

func (s *Service) refresh(ctx context.Context, force bool) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Another goroutine may have refreshed while we waited.
	if !force && s.snapshot != nil && s.now().Before(s.cacheExpiry) {
		return s.snapshot, nil
	}

	s.logger.Debug().Str("provider", s.provider.Name()).Msg("refreshing current air quality")

	current, err := s.provider.CurrentAirQuality(ctx)
	if err != nil {
		s.logger.Error().Err(err).Str("provider", s.provider.Name()).Msg("failed to fetch current air quality")

		if !force && s.snapshot != nil && s.now().Before(s.snapshot.FetchedAt.Add(s.staleIfErrorTTL)) {
			s.logger.Warn().
				Time("fetched_at", s.snapshot.FetchedAt).
				Msg("serving stale air quality data due to provider error")
			return s.snapshot, nil
		}

		return nil, ErrProviderUnavailable
	}
	if current == nil {
		return nil, ErrNoReading
	}

	current.Normalize()
	fetchedAt := s.now()
	s.snapshot = &Snapshot{
		Current:   *current,
		FetchedAt: fetchedAt,
		Provider:  s.provider.Name(),
	}
	s.cacheExpiry = fetchedAt.Add(s.cacheTTL)

	s.logger.Info().
		Str("location", current.Location).
		Int("aqi", current.AQIValue).
		Str("category", string(current.AQICategory)).
		Time("expires_at", s.cacheExpiry).
		Msg("current air quality refreshed")

	return s.snapshot, nil
}
