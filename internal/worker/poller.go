package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"

	"github.com/breatheroute/airdash/internal/notify"
)

// Notification fields for a failed poll.
const (
	NotificationSource = "airquality"
	FailureMessage     = "Failed to fetch air quality data"
)

// ErrPollerStarted is returned when Start is called twice.
var ErrPollerStarted = errors.New("poller already started")

// Refresher reloads a cached resource from its provider.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// PollMetrics tracks poll statistics.
type PollMetrics struct {
	TotalPolls          int64
	SuccessfulPolls     int64
	FailedPolls         int64
	ConsecutiveFailures int64
	LastPollAt          time.Time
	LastPollDuration    time.Duration
	LastError           string
}

// LivePollerConfig holds configuration for creating a LivePoller.
type LivePollerConfig struct {
	Config    PollConfig
	Logger    zerolog.Logger
	Refresher Refresher
	Notifier  notify.Notifier
}

// LivePoller refreshes the current conditions on a fixed schedule and
// raises a notification for every failed poll.
type LivePoller struct {
	config    PollConfig
	logger    zerolog.Logger
	refresher Refresher
	notifier  notify.Notifier

	mu        sync.Mutex
	scheduler *gocron.Scheduler
	metrics   PollMetrics
}

// NewLivePoller creates a new poller. It does nothing until Start.
func NewLivePoller(cfg LivePollerConfig) *LivePoller {
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = notify.Nop{}
	}

	return &LivePoller{
		config:    cfg.Config.withDefaults(),
		logger:    cfg.Logger,
		refresher: cfg.Refresher,
		notifier:  notifier,
	}
}

// Start schedules the poll job and starts the scheduler in the background.
// Polls run with ctx as their parent; cancelling it aborts an in-flight poll
// but does not stop the schedule, use Stop for that.
func (p *LivePoller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.scheduler != nil {
		return ErrPollerStarted
	}

	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	if p.config.WaitForSchedule {
		s.WaitForScheduleAll()
	}

	_, err := s.Every(p.config.Interval).Do(func() {
		_ = p.RunOnce(ctx)
	})
	if err != nil {
		return err
	}

	s.StartAsync()
	p.scheduler = s

	p.logger.Info().
		Dur("interval", p.config.Interval).
		Msg("live poller started")
	return nil
}

// Stop stops the scheduler. Safe to call when not started.
func (p *LivePoller) Stop() {
	p.mu.Lock()
	s := p.scheduler
	p.scheduler = nil
	p.mu.Unlock()

	if s != nil {
		s.Stop()
		p.logger.Info().Msg("live poller stopped")
	}
}

// RunOnce executes a single poll and returns its error.
func (p *LivePoller) RunOnce(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	start := time.Now()
	pollCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	err := p.refresher.Refresh(pollCtx)
	duration := time.Since(start)
	p.record(start, duration, err)

	if err != nil {
		p.logger.Error().Err(err).Dur("duration", duration).Msg("live poll failed")
		p.notifier.Notify(ctx, notify.Error(NotificationSource, FailureMessage))
		return err
	}

	p.logger.Debug().Dur("duration", duration).Msg("live poll completed")
	return nil
}

func (p *LivePoller) record(at time.Time, duration time.Duration, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.metrics.TotalPolls++
	p.metrics.LastPollAt = at
	p.metrics.LastPollDuration = duration
	if err != nil {
		p.metrics.FailedPolls++
		p.metrics.ConsecutiveFailures++
		p.metrics.LastError = err.Error()
		return
	}
	p.metrics.SuccessfulPolls++
	p.metrics.ConsecutiveFailures = 0
	p.metrics.LastError = ""
}

// GetMetrics returns a copy of the current metrics.
func (p *LivePoller) GetMetrics() PollMetrics {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.metrics
}

// MetricsSnapshot returns the current metrics as a map for status output.
func (p *LivePoller) MetricsSnapshot() map[string]any {
	m := p.GetMetrics()
	return map[string]any{
		"total_polls":          m.TotalPolls,
		"successful_polls":     m.SuccessfulPolls,
		"failed_polls":         m.FailedPolls,
		"consecutive_failures": m.ConsecutiveFailures,
		"last_poll_at":         m.LastPollAt,
		"last_poll_duration":   m.LastPollDuration.String(),
		"last_error":           m.LastError,
	}
}
