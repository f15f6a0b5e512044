package insights

import (
	"fmt"
	"slices"
)

var monthLabels = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// MonthLabel returns the three-letter label for a 1-based month, or "" when
// month is out of range.
func MonthLabel(month int) string {
	if month < 1 || month > len(monthLabels) {
		return ""
	}
	return monthLabels[month-1]
}

// DayLabel formats a date as "M/D" without zero padding.
func DayLabel(d Date) string {
	return fmt.Sprintf("%d/%d", int(d.Month), d.Day)
}

// Transform maps fetched records onto chart points for the selection.
//
// Monthly records are filtered to the selected year and keep their input
// order. Weekly and daily records arrive newest-first and are reversed so the
// chart reads oldest to newest. The records used are those matching the
// selection's granularity; the result is never nil.
func Transform(h Historical, sel RangeSelection) []ChartPoint {
	switch sel.Granularity {
	case Monthly:
		return monthlyPoints(h.Monthly, sel.SelectedYear())
	case Weekly:
		points := make([]ChartPoint, 0, len(h.Weekly))
		for _, r := range h.Weekly {
			points = append(points, ChartPoint{Label: DayLabel(r.WeekStart), NO2: r.AvgNO2, O3: r.AvgO3})
		}
		slices.Reverse(points)
		return points
	case Daily:
		points := make([]ChartPoint, 0, len(h.Daily))
		for _, r := range h.Daily {
			points = append(points, ChartPoint{Label: DayLabel(r.Date), NO2: r.AvgNO2, O3: r.AvgO3})
		}
		slices.Reverse(points)
		return points
	default:
		return []ChartPoint{}
	}
}

func monthlyPoints(records []MonthlyRecord, year int) []ChartPoint {
	points := make([]ChartPoint, 0, len(records))
	for _, r := range records {
		if r.Year != year {
			continue
		}
		points = append(points, ChartPoint{Label: MonthLabel(r.Month), NO2: r.AvgNO2, O3: r.AvgO3})
	}
	return points
}
