package insights

import (
	"fmt"
	"slices"
	"time"
)

// MonthlyRange is the monthly view's state: how many months to fetch and
// which year of them to chart.
type MonthlyRange struct {
	Months int `json:"months"`
	Year   int `json:"year"`
}

// WeeklyRange is the weekly view's state.
type WeeklyRange struct {
	Weeks int `json:"weeks"`
}

// DailyRange is the daily view's state.
type DailyRange struct {
	Days int `json:"days"`
}

// RangeSelection is the user's current choice of granularity together with
// the last window chosen for each granularity. Values are immutable; the
// With* methods return an updated copy.
type RangeSelection struct {
	Granularity Granularity  `json:"granularity"`
	Monthly     MonthlyRange `json:"monthly"`
	Weekly      WeeklyRange  `json:"weekly"`
	Daily       DailyRange   `json:"daily"`
}

// NewRangeSelection returns the initial selection: monthly granularity,
// default windows, and the calendar year of now.
func NewRangeSelection(now time.Time) RangeSelection {
	return RangeSelection{
		Granularity: Monthly,
		Monthly:     MonthlyRange{Months: Monthly.DefaultWindowSize(), Year: now.Year()},
		Weekly:      WeeklyRange{Weeks: Weekly.DefaultWindowSize()},
		Daily:       DailyRange{Days: Daily.DefaultWindowSize()},
	}
}

// WindowSize returns the window size of the active granularity.
func (s RangeSelection) WindowSize() int {
	return s.WindowSizeFor(s.Granularity)
}

// WindowSizeFor returns the stored window size for g.
func (s RangeSelection) WindowSizeFor(g Granularity) int {
	switch g {
	case Monthly:
		return s.Monthly.Months
	case Weekly:
		return s.Weekly.Weeks
	case Daily:
		return s.Daily.Days
	default:
		return 0
	}
}

// SelectedYear returns the charted year. It is only meaningful for the
// monthly granularity.
func (s RangeSelection) SelectedYear() int {
	return s.Monthly.Year
}

// WithGranularity switches the active granularity. The target granularity
// keeps whatever window it last had.
func (s RangeSelection) WithGranularity(g Granularity) (RangeSelection, error) {
	if g.WindowSizes() == nil {
		return s, fmt.Errorf("%w: %q", ErrUnknownGranularity, g)
	}
	s.Granularity = g
	return s, nil
}

// WithWindowSize stores n as g's window size. It fails unless n is one of
// g's allowed sizes, leaving the selection unchanged.
func (s RangeSelection) WithWindowSize(g Granularity, n int) (RangeSelection, error) {
	if g.WindowSizes() == nil {
		return s, fmt.Errorf("%w: %q", ErrUnknownGranularity, g)
	}
	if !g.ValidWindowSize(n) {
		return s, fmt.Errorf("%w: %d %s", ErrInvalidWindowSize, n, g.Unit())
	}

	switch g {
	case Monthly:
		s.Monthly.Months = n
	case Weekly:
		s.Weekly.Weeks = n
	case Daily:
		s.Daily.Days = n
	}
	return s, nil
}

// WithYear selects the charted year. It is valid only while the monthly
// granularity is active and y is one of available.
func (s RangeSelection) WithYear(y int, available []int) (RangeSelection, error) {
	if s.Granularity != Monthly {
		return s, fmt.Errorf("%w: year selection requires monthly granularity", ErrYearUnavailable)
	}
	if !slices.Contains(available, y) {
		return s, fmt.Errorf("%w: %d", ErrYearUnavailable, y)
	}
	s.Monthly.Year = y
	return s, nil
}

// SameFetch reports whether s and other would issue the same historical request.
func (s RangeSelection) SameFetch(other RangeSelection) bool {
	return s.Granularity == other.Granularity && s.WindowSize() == other.WindowSize()
}

// Title is the chart heading for the selection.
func (s RangeSelection) Title() string {
	switch s.Granularity {
	case Monthly:
		return fmt.Sprintf("Monthly Trends - %d", s.Monthly.Year)
	case Weekly:
		return fmt.Sprintf("Weekly Trends - Last %d Weeks", s.Weekly.Weeks)
	case Daily:
		return fmt.Sprintf("Daily Trends - Last %d Days", s.Daily.Days)
	default:
		return ""
	}
}
