package insights_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/breatheroute/airdash/internal/insights"
)

var errUpstream = errors.New("upstream unavailable")

// fakeSource is a configurable DataSource that records its calls.
type fakeSource struct {
	mu sync.Mutex

	monthly  []insights.MonthlyRecord
	weekly   []insights.WeeklyRecord
	daily    []insights.DailyRecord
	seasonal []insights.SeasonalPattern

	historicalErr error
	seasonalErr   error

	// gates block the matching historical call until closed.
	gates map[insights.Granularity]chan struct{}

	monthlyCalls  []int
	weeklyCalls   []int
	dailyCalls    []int
	seasonalCalls atomic.Int32
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		monthly:  monthlyFixture(),
		weekly:   weeklyFixture(),
		daily:    dailyFixture(),
		seasonal: seasonalFixture(),
		gates:    make(map[insights.Granularity]chan struct{}),
	}
}

func (f *fakeSource) gate(g insights.Granularity) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[g] = ch
	return ch
}

func (f *fakeSource) wait(ctx context.Context, g insights.Granularity) error {
	f.mu.Lock()
	ch := f.gates[g]
	f.mu.Unlock()
	if ch == nil {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeSource) InsightsMonthly(ctx context.Context, months int) ([]insights.MonthlyRecord, error) {
	f.mu.Lock()
	f.monthlyCalls = append(f.monthlyCalls, months)
	f.mu.Unlock()
	if err := f.wait(ctx, insights.Monthly); err != nil {
		return nil, err
	}
	if f.historicalErr != nil {
		return nil, f.historicalErr
	}
	return f.monthly, nil
}

func (f *fakeSource) InsightsWeekly(ctx context.Context, weeks int) ([]insights.WeeklyRecord, error) {
	f.mu.Lock()
	f.weeklyCalls = append(f.weeklyCalls, weeks)
	f.mu.Unlock()
	if err := f.wait(ctx, insights.Weekly); err != nil {
		return nil, err
	}
	if f.historicalErr != nil {
		return nil, f.historicalErr
	}
	return f.weekly, nil
}

func (f *fakeSource) InsightsDaily(ctx context.Context, days int) ([]insights.DailyRecord, error) {
	f.mu.Lock()
	f.dailyCalls = append(f.dailyCalls, days)
	f.mu.Unlock()
	if err := f.wait(ctx, insights.Daily); err != nil {
		return nil, err
	}
	if f.historicalErr != nil {
		return nil, f.historicalErr
	}
	return f.daily, nil
}

func (f *fakeSource) SeasonalPatterns(_ context.Context) ([]insights.SeasonalPattern, error) {
	f.seasonalCalls.Add(1)
	if f.seasonalErr != nil {
		return nil, f.seasonalErr
	}
	return f.seasonal, nil
}

func (f *fakeSource) calls(g insights.Granularity) []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch g {
	case insights.Monthly:
		return append([]int(nil), f.monthlyCalls...)
	case insights.Weekly:
		return append([]int(nil), f.weeklyCalls...)
	default:
		return append([]int(nil), f.dailyCalls...)
	}
}

func monthlyFixture() []insights.MonthlyRecord {
	return []insights.MonthlyRecord{
		{Year: 2023, Month: 11, AvgNO2: 61.2, AvgO3: 18.4},
		{Year: 2023, Month: 12, AvgNO2: 72.9, AvgO3: 15.1},
		{Year: 2024, Month: 1, AvgNO2: 70.3, AvgO3: 16.8},
		{Year: 2024, Month: 2, AvgNO2: 58.0, AvgO3: 22.5},
		{Year: 2024, Month: 3, AvgNO2: 44.7, AvgO3: 31.0},
	}
}

func weeklyFixture() []insights.WeeklyRecord {
	return []insights.WeeklyRecord{
		{WeekStart: insights.NewDate(2024, 3, 11), AvgNO2: 40.1, AvgO3: 30.2},
		{WeekStart: insights.NewDate(2024, 3, 4), AvgNO2: 42.5, AvgO3: 29.8},
		{WeekStart: insights.NewDate(2024, 2, 26), AvgNO2: 47.0, AvgO3: 27.3},
	}
}

func dailyFixture() []insights.DailyRecord {
	return []insights.DailyRecord{
		{Date: insights.NewDate(2024, 3, 3), AvgNO2: 39.0, AvgO3: 33.1},
		{Date: insights.NewDate(2024, 3, 2), AvgNO2: 41.4, AvgO3: 32.0},
	}
}

func seasonalFixture() []insights.SeasonalPattern {
	return []insights.SeasonalPattern{
		{Season: insights.Winter, AvgNO2: 68.4, AvgO3: 17.2, Description: "Highest NO2 under winter inversions."},
		{Season: insights.Spring, AvgNO2: 45.1, AvgO3: 34.6, Description: "Rising ozone with stronger sunlight."},
		{Season: insights.Summer, AvgNO2: 30.2, AvgO3: 41.9, Description: "Ozone peaks, NO2 at its lowest."},
		{Season: insights.Autumn, AvgNO2: 55.8, AvgO3: 22.0, Description: "Crop residue burning lifts NO2."},
	}
}
