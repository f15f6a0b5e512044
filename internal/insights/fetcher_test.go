package insights_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breatheroute/airdash/internal/insights"
)

func newTestFetcher(t *testing.T, source insights.DataSource) *insights.Fetcher {
	t.Helper()
	metrics, err := insights.NewMetrics()
	require.NoError(t, err)
	return insights.NewFetcher(insights.FetcherConfig{
		Source:  source,
		Logger:  zerolog.New(io.Discard),
		Metrics: metrics,
	})
}

func TestFetcher_DefaultSelectionRequestsMonthly36(t *testing.T) {
	source := newFakeSource()
	fetcher := newTestFetcher(t, source)

	result, err := fetcher.Fetch(context.Background(), insights.NewRangeSelection(time.Now()))
	require.NoError(t, err)

	assert.Equal(t, []int{36}, source.calls(insights.Monthly))
	assert.Empty(t, source.calls(insights.Weekly))
	assert.Empty(t, source.calls(insights.Daily))
	assert.Equal(t, int32(1), source.seasonalCalls.Load())

	assert.Equal(t, insights.Monthly, result.Historical.Granularity)
	assert.Len(t, result.Historical.Monthly, 5)
	assert.Len(t, result.Seasonal, 4)
}

func TestFetcher_SelectsRequestByGranularity(t *testing.T) {
	tests := []struct {
		granularity insights.Granularity
		window      int
	}{
		{insights.Monthly, 12},
		{insights.Weekly, 8},
		{insights.Daily, 14},
	}

	for _, tt := range tests {
		t.Run(string(tt.granularity), func(t *testing.T) {
			source := newFakeSource()
			fetcher := newTestFetcher(t, source)

			sel := insights.NewRangeSelection(time.Now())
			sel, err := sel.WithWindowSize(tt.granularity, tt.window)
			require.NoError(t, err)
			sel, err = sel.WithGranularity(tt.granularity)
			require.NoError(t, err)

			result, err := fetcher.Fetch(context.Background(), sel)
			require.NoError(t, err)

			assert.Equal(t, []int{tt.window}, source.calls(tt.granularity))
			assert.Equal(t, tt.granularity, result.Historical.Granularity)
			assert.Positive(t, result.Historical.Len())
			for _, other := range insights.Granularities {
				if other != tt.granularity {
					assert.Empty(t, source.calls(other))
				}
			}
		})
	}
}

func TestFetcher_SeasonalFailureFailsWholeCycle(t *testing.T) {
	source := newFakeSource()
	source.seasonalErr = errUpstream
	fetcher := newTestFetcher(t, source)

	result, err := fetcher.Fetch(context.Background(), insights.NewRangeSelection(time.Now()))

	assert.Nil(t, result)
	require.ErrorIs(t, err, insights.ErrRetrievalFailure)
	assert.ErrorIs(t, err, errUpstream)
}

func TestFetcher_HistoricalFailureFailsWholeCycle(t *testing.T) {
	source := newFakeSource()
	source.historicalErr = errUpstream
	fetcher := newTestFetcher(t, source)

	result, err := fetcher.Fetch(context.Background(), insights.NewRangeSelection(time.Now()))

	assert.Nil(t, result)
	assert.ErrorIs(t, err, insights.ErrRetrievalFailure)
}

func TestFetcher_IssuesRequestsConcurrently(t *testing.T) {
	source := newFakeSource()
	gate := source.gate(insights.Monthly)
	fetcher := newTestFetcher(t, source)

	done := make(chan error, 1)
	go func() {
		_, err := fetcher.Fetch(context.Background(), insights.NewRangeSelection(time.Now()))
		done <- err
	}()

	// The seasonal request is issued while the historical one is still blocked.
	assert.Eventually(t, func() bool {
		return source.seasonalCalls.Load() == 1
	}, time.Second, 5*time.Millisecond)

	close(gate)
	require.NoError(t, <-done)
}
