package insights

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/breatheroute/airdash/internal/insights"

// Metrics holds the OpenTelemetry instruments for insights fetch cycles.
type Metrics struct {
	fetchCycles   metric.Int64Counter
	fetchDuration metric.Float64Histogram
	staleResults  metric.Int64Counter
}

// NewMetrics creates the insights instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)

	fetchCycles, err := meter.Int64Counter(
		"insights.fetch.cycles",
		metric.WithDescription("Insights fetch cycles by granularity and outcome"),
		metric.WithUnit("{cycle}"),
	)
	if err != nil {
		return nil, err
	}

	fetchDuration, err := meter.Float64Histogram(
		"insights.fetch.duration",
		metric.WithDescription("Duration of joint historical and seasonal fetches in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	staleResults, err := meter.Int64Counter(
		"insights.fetch.stale_discarded",
		metric.WithDescription("Fetch results discarded because a newer selection superseded them"),
		metric.WithUnit("{result}"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		fetchCycles:   fetchCycles,
		fetchDuration: fetchDuration,
		staleResults:  staleResults,
	}, nil
}

func (m *Metrics) recordFetch(ctx context.Context, g Granularity, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("granularity", string(g)),
		attribute.String("outcome", outcome),
	)
	m.fetchCycles.Add(ctx, 1, attrs)
	m.fetchDuration.Record(ctx, elapsed.Seconds(), attrs)
}

func (m *Metrics) recordStale(ctx context.Context, g Granularity) {
	if m == nil {
		return
	}
	m.staleResults.Add(ctx, 1, metric.WithAttributes(attribute.String("granularity", string(g))))
}
