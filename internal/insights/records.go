// Package insights implements the seasonal and historical insights view:
// range selection, the joint historical/seasonal fetch, and the shaping of
// per-granularity records into chart points.
package insights

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Granularity is the temporal bucket size of a historical record.
type Granularity string

const (
	Monthly Granularity = "monthly"
	Weekly  Granularity = "weekly"
	Daily   Granularity = "daily"
)

// Granularities lists every granularity in display order.
var Granularities = []Granularity{Monthly, Weekly, Daily}

// ParseGranularity converts a string into a Granularity.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(strings.ToLower(strings.TrimSpace(s))) {
	case Monthly, "months":
		return Monthly, nil
	case Weekly, "weeks":
		return Weekly, nil
	case Daily, "days":
		return Daily, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownGranularity, s)
	}
}

// WindowSizes returns the window sizes a user may choose for g.
func (g Granularity) WindowSizes() []int {
	switch g {
	case Monthly:
		return []int{12, 24, 36}
	case Weekly:
		return []int{4, 8, 12, 24}
	case Daily:
		return []int{7, 14, 30, 60}
	default:
		return nil
	}
}

// DefaultWindowSize is the window used before the user picks one.
func (g Granularity) DefaultWindowSize() int {
	switch g {
	case Monthly:
		return 36
	case Weekly:
		return 12
	case Daily:
		return 30
	default:
		return 0
	}
}

// ValidWindowSize reports whether n is one of g's window sizes.
func (g Granularity) ValidWindowSize(n int) bool {
	for _, size := range g.WindowSizes() {
		if size == n {
			return true
		}
	}
	return false
}

// Unit is the plural bucket name used in labels ("months", "weeks", "days").
func (g Granularity) Unit() string {
	switch g {
	case Monthly:
		return "months"
	case Weekly:
		return "weeks"
	case Daily:
		return "days"
	default:
		return ""
	}
}

// Date is a calendar date without a time of day or zone.
// It decodes both "2006-01-02" and RFC 3339 timestamps; only the date part is kept.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate builds a Date.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// ParseDate parses "2006-01-02" or an RFC 3339 timestamp.
func ParseDate(s string) (Date, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, fmt.Errorf("parse date %q: unsupported format", s)
}

var dateLayouts = []string{time.DateOnly, time.RFC3339, "2006-01-02T15:04:05"}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// String formats the date as "2006-01-02".
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Before reports whether d is earlier than other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return fmt.Errorf("date is null")
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MonthlyRecord is one month of averaged concentrations in µg/m³.
type MonthlyRecord struct {
	Year   int     `json:"year"`
	Month  int     `json:"month"`
	AvgNO2 float64 `json:"avg_no2"`
	AvgO3  float64 `json:"avg_o3"`
}

// WeeklyRecord is one week of averaged concentrations, keyed by the week's first day.
type WeeklyRecord struct {
	WeekStart Date    `json:"week_start"`
	AvgNO2    float64 `json:"avg_no2"`
	AvgO3     float64 `json:"avg_o3"`
}

// DailyRecord is one day of averaged concentrations.
type DailyRecord struct {
	Date   Date    `json:"date"`
	AvgNO2 float64 `json:"avg_no2"`
	AvgO3  float64 `json:"avg_o3"`
}

// Historical holds the records of a single fetch. Only the slice matching
// Granularity is populated.
type Historical struct {
	Granularity Granularity
	Monthly     []MonthlyRecord
	Weekly      []WeeklyRecord
	Daily       []DailyRecord
}

// Len returns the number of records for the active granularity.
func (h Historical) Len() int {
	switch h.Granularity {
	case Monthly:
		return len(h.Monthly)
	case Weekly:
		return len(h.Weekly)
	case Daily:
		return len(h.Daily)
	default:
		return 0
	}
}

// Season is one of the four calendar seasons used by the seasonal summary.
// Its value is the label the data source uses.
type Season string

const (
	Winter Season = "Winter (Dec-Feb)"
	Spring Season = "Spring (Mar-May)"
	Summer Season = "Summer (Jun-Aug)"
	Autumn Season = "Autumn (Sep-Nov)"
)

// Seasons lists the seasons in calendar order starting with winter.
var Seasons = []Season{Winter, Spring, Summer, Autumn}

// Name returns the bare season name, e.g. "Winter".
func (s Season) Name() string {
	name, _, _ := strings.Cut(string(s), " ")
	return name
}

// Months returns the months that define the season.
func (s Season) Months() []time.Month {
	switch s {
	case Winter:
		return []time.Month{time.December, time.January, time.February}
	case Spring:
		return []time.Month{time.March, time.April, time.May}
	case Summer:
		return []time.Month{time.June, time.July, time.August}
	case Autumn:
		return []time.Month{time.September, time.October, time.November}
	default:
		return nil
	}
}

// Known reports whether s is one of the four seasons.
func (s Season) Known() bool {
	return s.Months() != nil
}

// SeasonOf returns the season containing month m.
func SeasonOf(m time.Month) Season {
	for _, s := range Seasons {
		for _, month := range s.Months() {
			if month == m {
				return s
			}
		}
	}
	return ""
}

// SeasonalPattern summarises one season's typical concentrations.
type SeasonalPattern struct {
	Season      Season  `json:"season"`
	AvgNO2      float64 `json:"avg_no2"`
	AvgO3       float64 `json:"avg_o3"`
	Description string  `json:"description"`
}

// ChartPoint is a single bar pair on the insights chart.
type ChartPoint struct {
	Label string  `json:"label"`
	NO2   float64 `json:"no2"`
	O3    float64 `json:"o3"`
}
