package insights

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/breatheroute/airdash/internal/notify"
)

// Status is the lifecycle state of the insights view.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// NotificationSource tags notifications raised by the insights view.
const NotificationSource = "insights"

// FailureMessage is the user-visible text for a failed fetch cycle.
const FailureMessage = "Failed to fetch insights data"

// View is an immutable snapshot of the insights view for rendering.
// Chart, Years and Seasonal are empty unless Status is StatusReady.
type View struct {
	Status        Status            `json:"status"`
	Generation    uint64            `json:"generation"`
	Selection     RangeSelection    `json:"selection"`
	WindowOptions []int             `json:"windowOptions"`
	Title         string            `json:"title"`
	Chart         []ChartPoint      `json:"chart"`
	Years         []int             `json:"years"`
	Seasonal      []SeasonalPattern `json:"seasonal"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// ControllerConfig holds configuration for the insights controller.
type ControllerConfig struct {
	// Fetcher performs the joint historical and seasonal fetch.
	Fetcher *Fetcher

	// Notifier receives one notification per failed fetch cycle.
	Notifier notify.Notifier

	// Logger for state transitions.
	Logger zerolog.Logger

	// Metrics records discarded stale results (optional).
	Metrics *Metrics

	// Now supplies the current time; the initial selected year is taken from it.
	Now func() time.Time

	// QueueSize is the capacity of the event queue (default: 16).
	QueueSize int
}

type eventKind int

const (
	eventGranularity eventKind = iota
	eventWindowSize
	eventYear
	eventRefresh
	eventSettled
)

type event struct {
	kind        eventKind
	granularity Granularity
	size        int
	year        int
	reply       chan error

	generation uint64
	result     *Result
	err        error
}

// Controller owns the insights view state. Selection changes are queued and
// processed one at a time by Run, each one that affects the historical
// request starting a new fetch cycle. A cycle's result is applied only if no
// newer cycle was started while it was in flight.
type Controller struct {
	fetcher  *Fetcher
	notifier notify.Notifier
	logger   zerolog.Logger
	metrics  *Metrics
	now      func() time.Time

	events  chan event
	done    chan struct{}
	started atomic.Bool
	wg      sync.WaitGroup

	mu         sync.RWMutex
	selection  RangeSelection
	status     Status
	generation uint64
	result     *Result
	years      []int
	updatedAt  time.Time
}

// NewController creates a controller in the idle state with the default selection.
func NewController(cfg ControllerConfig) *Controller {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	notifier := cfg.Notifier
	if notifier == nil {
		notifier = notify.Nop{}
	}

	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 16
	}

	return &Controller{
		fetcher:   cfg.Fetcher,
		notifier:  notifier,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		now:       now,
		events:    make(chan event, queueSize),
		done:      make(chan struct{}),
		selection: NewRangeSelection(now()),
		status:    StatusIdle,
	}
}

// Run issues the initial fetch and processes events until ctx is cancelled.
// It may be called once.
func (c *Controller) Run(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return errors.New("insights controller already running")
	}
	defer close(c.done)

	c.logger.Info().
		Str("granularity", string(c.Selection().Granularity)).
		Msg("insights controller started")

	c.startFetch(ctx)

	for {
		select {
		case <-ctx.Done():
			c.wg.Wait()
			c.logger.Info().Msg("insights controller stopped")
			return ctx.Err()
		case ev := <-c.events:
			c.handle(ctx, ev)
		}
	}
}

// SelectGranularity switches the active granularity and refetches when it changes.
func (c *Controller) SelectGranularity(ctx context.Context, g Granularity) error {
	return c.submit(ctx, event{kind: eventGranularity, granularity: g})
}

// SelectWindowSize stores n as g's window size. A refetch happens only when g
// is the active granularity.
func (c *Controller) SelectWindowSize(ctx context.Context, g Granularity, n int) error {
	return c.submit(ctx, event{kind: eventWindowSize, granularity: g, size: n})
}

// SelectYear changes the charted year of monthly data without refetching.
func (c *Controller) SelectYear(ctx context.Context, year int) error {
	return c.submit(ctx, event{kind: eventYear, year: year})
}

// Refresh starts a new fetch cycle for the current selection.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.submit(ctx, event{kind: eventRefresh})
}

// Selection returns the current selection.
func (c *Controller) Selection() RangeSelection {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selection
}

// View returns a snapshot of the current state with the chart derived from
// the last applied result and the current selection.
func (c *Controller) View() View {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v := View{
		Status:        c.status,
		Generation:    c.generation,
		Selection:     c.selection,
		WindowOptions: c.selection.Granularity.WindowSizes(),
		Title:         c.selection.Title(),
		Chart:         []ChartPoint{},
		Years:         []int{},
		Seasonal:      []SeasonalPattern{},
		UpdatedAt:     c.updatedAt,
	}

	if c.status == StatusReady && c.result != nil {
		v.Chart = Transform(c.result.Historical, c.selection)
		v.Years = slices.Clone(c.years)
		v.Seasonal = slices.Clone(c.result.Seasonal)
	}

	return v
}

func (c *Controller) submit(ctx context.Context, ev event) error {
	ev.reply = make(chan error, 1)

	select {
	case c.events <- ev:
	case <-c.done:
		return ErrControllerStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-ev.reply:
		return err
	case <-c.done:
		return ErrControllerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) handle(ctx context.Context, ev event) {
	switch ev.kind {
	case eventGranularity:
		ev.reply <- c.applyGranularity(ctx, ev.granularity)
	case eventWindowSize:
		ev.reply <- c.applyWindowSize(ctx, ev.granularity, ev.size)
	case eventYear:
		ev.reply <- c.applyYear(ev.year)
	case eventRefresh:
		c.startFetch(ctx)
		ev.reply <- nil
	case eventSettled:
		c.settle(ctx, ev)
	}
}

func (c *Controller) applyGranularity(ctx context.Context, g Granularity) error {
	current := c.Selection()
	next, err := current.WithGranularity(g)
	if err != nil {
		return err
	}
	if next.Granularity == current.Granularity {
		return nil
	}

	c.setSelection(next)
	c.startFetch(ctx)
	return nil
}

func (c *Controller) applyWindowSize(ctx context.Context, g Granularity, n int) error {
	next, err := c.Selection().WithWindowSize(g, n)
	if err != nil {
		return err
	}

	c.setSelection(next)
	if g == next.Granularity {
		c.startFetch(ctx)
	}
	return nil
}

func (c *Controller) applyYear(year int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := c.selection.WithYear(year, c.years)
	if err != nil {
		return err
	}
	c.selection = next
	return nil
}

func (c *Controller) setSelection(sel RangeSelection) {
	c.mu.Lock()
	c.selection = sel
	c.mu.Unlock()
}

// startFetch moves to Loading, drops the previous result and launches a
// fetch tagged with a fresh generation.
func (c *Controller) startFetch(ctx context.Context) {
	c.mu.Lock()
	c.generation++
	generation := c.generation
	sel := c.selection
	c.status = StatusLoading
	c.result = nil
	c.years = nil
	c.mu.Unlock()

	c.logger.Debug().
		Uint64("generation", generation).
		Str("granularity", string(sel.Granularity)).
		Int("window", sel.WindowSize()).
		Msg("insights fetch started")

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		result, err := c.fetcher.Fetch(ctx, sel)
		select {
		case c.events <- event{kind: eventSettled, generation: generation, result: result, err: err}:
		case <-ctx.Done():
		}
	}()
}

func (c *Controller) settle(ctx context.Context, ev event) {
	c.mu.Lock()

	if ev.generation != c.generation {
		g := c.selection.Granularity
		latest := c.generation
		c.mu.Unlock()

		c.metrics.recordStale(ctx, g)
		c.logger.Debug().
			Uint64("generation", ev.generation).
			Uint64("latest", latest).
			Msg("discarding superseded insights result")
		return
	}

	c.updatedAt = c.now()

	if ev.err != nil {
		c.status = StatusFailed
		c.result = nil
		c.years = nil
		c.mu.Unlock()

		c.notifier.Notify(ctx, notify.Error(NotificationSource, FailureMessage))
		return
	}

	c.status = StatusReady
	c.result = ev.result
	if ev.result.Historical.Granularity == Monthly {
		c.years = Years(ev.result.Historical.Monthly)
	} else {
		c.years = nil
	}
	generation := c.generation
	records := ev.result.Historical.Len()
	c.mu.Unlock()

	c.logger.Debug().
		Uint64("generation", generation).
		Int("records", records).
		Msg("insights result applied")
}
