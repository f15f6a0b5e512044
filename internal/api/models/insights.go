package models

import (
	"github.com/breatheroute/airdash/internal/insights"
)

// SetGranularityRequest is the body of PUT /v1/insights/granularity.
type SetGranularityRequest struct {
	Granularity string `json:"granularity" validate:"required"`
}

// SetWindowRequest is the body of PUT /v1/insights/window.
type SetWindowRequest struct {
	Granularity string `json:"granularity"`
	Size        int    `json:"size" validate:"gt=0"`
}

// SetYearRequest is the body of PUT /v1/insights/year.
type SetYearRequest struct {
	Year int `json:"year" validate:"required"`
}

// Windows holds the remembered window size of every granularity.
type Windows struct {
	Months int `json:"months"`
	Weeks  int `json:"weeks"`
	Days   int `json:"days"`
}

// Selection is the wire form of the range selection.
type Selection struct {
	Granularity  string  `json:"granularity"`
	WindowSize   int     `json:"windowSize"`
	SelectedYear *int    `json:"selectedYear,omitempty"`
	Windows      Windows `json:"windows"`
}

// ChartPoint is one labelled bar pair.
type ChartPoint struct {
	Label string  `json:"label"`
	NO2   float64 `json:"no2"`
	O3    float64 `json:"o3"`
}

// SeasonalCard is one seasonal summary.
type SeasonalCard struct {
	Season      string  `json:"season"`
	AvgNO2      float64 `json:"avgNo2"`
	AvgO3       float64 `json:"avgO3"`
	Description string  `json:"description"`
}

// InsightsView is the response of GET /v1/insights.
type InsightsView struct {
	Status        string         `json:"status"`
	Generation    uint64         `json:"generation"`
	Selection     Selection      `json:"selection"`
	WindowOptions []int          `json:"windowOptions"`
	Title         string         `json:"title"`
	Chart         []ChartPoint   `json:"chart"`
	Years         []int          `json:"years"`
	Seasonal      []SeasonalCard `json:"seasonal"`
	UpdatedAt     *Timestamp     `json:"updatedAt,omitempty"`
}

// NewInsightsView maps a controller view onto its wire form. Slices are
// never null.
func NewInsightsView(v insights.View) InsightsView {
	sel := Selection{
		Granularity: string(v.Selection.Granularity),
		WindowSize:  v.Selection.WindowSize(),
		Windows: Windows{
			Months: v.Selection.Monthly.Months,
			Weeks:  v.Selection.Weekly.Weeks,
			Days:   v.Selection.Daily.Days,
		},
	}
	if v.Selection.Granularity == insights.Monthly {
		year := v.Selection.SelectedYear()
		sel.SelectedYear = &year
	}

	chart := make([]ChartPoint, 0, len(v.Chart))
	for _, p := range v.Chart {
		chart = append(chart, ChartPoint{Label: p.Label, NO2: p.NO2, O3: p.O3})
	}

	seasonal := make([]SeasonalCard, 0, len(v.Seasonal))
	for _, s := range v.Seasonal {
		seasonal = append(seasonal, SeasonalCard{
			Season:      string(s.Season),
			AvgNO2:      s.AvgNO2,
			AvgO3:       s.AvgO3,
			Description: s.Description,
		})
	}

	years := v.Years
	if years == nil {
		years = []int{}
	}

	view := InsightsView{
		Status:        string(v.Status),
		Generation:    v.Generation,
		Selection:     sel,
		WindowOptions: v.WindowOptions,
		Title:         v.Title,
		Chart:         chart,
		Years:         years,
		Seasonal:      seasonal,
	}
	if !v.UpdatedAt.IsZero() {
		view.UpdatedAt = TimestampPtr(&v.UpdatedAt)
	}
	return view
}
