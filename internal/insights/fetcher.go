package insights

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// DataSource retrieves pre-aggregated historical series and seasonal patterns.
// Each call returns a complete set or fails.
type DataSource interface {
	// InsightsMonthly returns the most recent months of monthly averages.
	InsightsMonthly(ctx context.Context, months int) ([]MonthlyRecord, error)

	// InsightsWeekly returns the most recent weeks of weekly averages, newest first.
	InsightsWeekly(ctx context.Context, weeks int) ([]WeeklyRecord, error)

	// InsightsDaily returns the most recent days of daily averages, newest first.
	InsightsDaily(ctx context.Context, days int) ([]DailyRecord, error)

	// SeasonalPatterns returns the four seasonal summaries.
	SeasonalPatterns(ctx context.Context) ([]SeasonalPattern, error)
}

// Result is the joint outcome of one fetch cycle.
type Result struct {
	Historical Historical
	Seasonal   []SeasonalPattern
}

// FetcherConfig holds configuration for the fetcher.
type FetcherConfig struct {
	// Source is the remote insights data source.
	Source DataSource

	// Logger for fetch operations.
	Logger zerolog.Logger

	// Metrics records fetch outcomes (optional).
	Metrics *Metrics
}

// Fetcher issues the historical request for a selection together with the
// seasonal request and joins them.
type Fetcher struct {
	source  DataSource
	logger  zerolog.Logger
	metrics *Metrics
	tracer  trace.Tracer
}

// NewFetcher creates a new fetcher.
func NewFetcher(cfg FetcherConfig) *Fetcher {
	return &Fetcher{
		source:  cfg.Source,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		tracer:  otel.Tracer(instrumentationName),
	}
}

// Fetch retrieves the historical series for sel's granularity and window size
// concurrently with the seasonal patterns. Either both succeed or the call
// fails with ErrRetrievalFailure.
func (f *Fetcher) Fetch(ctx context.Context, sel RangeSelection) (*Result, error) {
	g := sel.Granularity
	window := sel.WindowSize()

	ctx, span := f.tracer.Start(ctx, "insights.fetch",
		trace.WithAttributes(
			attribute.String("insights.granularity", string(g)),
			attribute.Int("insights.window", window),
		),
	)
	defer span.End()

	start := time.Now()
	result := &Result{Historical: Historical{Granularity: g}}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return f.fetchHistorical(egCtx, g, window, &result.Historical)
	})
	eg.Go(func() error {
		seasonal, err := f.source.SeasonalPatterns(egCtx)
		if err != nil {
			return fmt.Errorf("seasonal patterns: %w", err)
		}
		result.Seasonal = seasonal
		return nil
	})

	if err := eg.Wait(); err != nil {
		f.metrics.recordFetch(ctx, g, "failure", time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, "insights fetch failed")
		f.logger.Error().
			Err(err).
			Str("granularity", string(g)).
			Int("window", window).
			Msg("insights fetch failed")
		return nil, fmt.Errorf("%w: %w", ErrRetrievalFailure, err)
	}

	f.metrics.recordFetch(ctx, g, "success", time.Since(start))
	f.logger.Debug().
		Str("granularity", string(g)).
		Int("window", window).
		Int("records", result.Historical.Len()).
		Int("seasons", len(result.Seasonal)).
		Dur("duration", time.Since(start)).
		Msg("insights fetched")

	return result, nil
}

func (f *Fetcher) fetchHistorical(ctx context.Context, g Granularity, window int, out *Historical) error {
	var err error
	switch g {
	case Monthly:
		out.Monthly, err = f.source.InsightsMonthly(ctx, window)
	case Weekly:
		out.Weekly, err = f.source.InsightsWeekly(ctx, window)
	case Daily:
		out.Daily, err = f.source.InsightsDaily(ctx, window)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownGranularity, g)
	}
	if err != nil {
		return fmt.Errorf("%s history: %w", g, err)
	}
	return nil
}
