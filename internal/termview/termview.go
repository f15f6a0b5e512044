// Package termview renders the insights view for a terminal.
package termview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/breatheroute/airdash/internal/insights"
)

// DefaultBarWidth is the bar width used when Options.BarWidth is unset.
const DefaultBarWidth = 40

var (
	colorNO2   = lipgloss.Color("#F97316")
	colorO3    = lipgloss.Color("#0EA5E9")
	colorTrack = lipgloss.Color("#3F3F46")
	colorDim   = lipgloss.Color("#A1A1AA")

	titleStyle  = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(colorDim)
	dimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	legendStyle = lipgloss.NewStyle().MarginTop(1)
	cardStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorTrack).
			Padding(0, 1).
			Width(30)
)

// Options controls chart layout.
type Options struct {
	// BarWidth is the width of the longest bar in cells.
	BarWidth int
}

// Render returns the title, chart, year list and seasonal cards of v.
// Only a ready view has data; other states render a one-line status.
func Render(v insights.View, opts Options) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(v.Title))
	b.WriteString("\n")

	switch v.Status {
	case insights.StatusLoading, insights.StatusIdle:
		b.WriteString(dimStyle.Render("  Loading..."))
		return b.String()
	case insights.StatusFailed:
		b.WriteString(dimStyle.Render("  " + insights.FailureMessage))
		return b.String()
	}

	b.WriteString(Chart(v.Chart, opts))

	if v.Selection.Granularity == insights.Monthly && len(v.Years) > 0 {
		b.WriteString("\n\n")
		b.WriteString(Years(v.Years, v.Selection.SelectedYear()))
	}

	if len(v.Seasonal) > 0 {
		b.WriteString("\n\n")
		b.WriteString(SeasonalCards(v.Seasonal))
	}

	return b.String()
}

// Chart renders one NO2 bar and one O3 bar per point, scaled to the largest
// value across both pollutants.
func Chart(points []insights.ChartPoint, opts Options) string {
	if len(points) == 0 {
		return dimStyle.Render("  No data available")
	}

	barWidth := opts.BarWidth
	if barWidth < 4 {
		barWidth = DefaultBarWidth
	}

	maxVal, labelWidth := 0.0, 0
	for _, p := range points {
		maxVal = max(maxVal, p.NO2, p.O3)
		labelWidth = max(labelWidth, lipgloss.Width(p.Label))
	}
	if maxVal == 0 {
		maxVal = 1
	}

	lines := make([]string, 0, len(points)*2+1)
	for _, p := range points {
		label := labelStyle.Width(labelWidth).Render(p.Label)
		blank := strings.Repeat(" ", labelWidth)
		lines = append(lines,
			fmt.Sprintf("  %s %s", label, bar(p.NO2, maxVal, barWidth, colorNO2)),
			fmt.Sprintf("  %s %s", blank, bar(p.O3, maxVal, barWidth, colorO3)),
		)
	}

	legend := lipgloss.NewStyle().Foreground(colorNO2).Render("█ NO2") + "  " +
		lipgloss.NewStyle().Foreground(colorO3).Render("█ O3")
	lines = append(lines, legendStyle.Render("  "+legend))

	return strings.Join(lines, "\n")
}

func bar(value, maxVal float64, width int, color lipgloss.Color) string {
	n := int(value / maxVal * float64(width))
	if n < 1 && value > 0 {
		n = 1
	}
	n = min(max(n, 0), width)

	filled := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", n))
	track := lipgloss.NewStyle().Foreground(colorTrack).Render(strings.Repeat("░", width-n))
	amount := lipgloss.NewStyle().Foreground(color).Bold(true).Render(fmt.Sprintf("%.1f", value))
	return filled + track + "  " + amount
}

// Years renders the selectable years with the selected one marked.
func Years(years []int, selected int) string {
	parts := make([]string, 0, len(years))
	for _, y := range years {
		if y == selected {
			parts = append(parts, lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("[%d]", y)))
			continue
		}
		parts = append(parts, dimStyle.Render(fmt.Sprintf(" %d ", y)))
	}
	return "  Years: " + strings.Join(parts, " ")
}

// SeasonalCards renders one bordered card per season, side by side.
func SeasonalCards(patterns []insights.SeasonalPattern) string {
	cards := make([]string, 0, len(patterns))
	for _, p := range patterns {
		body := strings.Join([]string{
			lipgloss.NewStyle().Bold(true).Render(string(p.Season)),
			fmt.Sprintf("Avg NO2  %s", FormatAverage(p.AvgNO2)),
			fmt.Sprintf("Avg O3   %s", FormatAverage(p.AvgO3)),
			dimStyle.Render(p.Description),
		}, "\n")
		cards = append(cards, cardStyle.Render(body))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

// FormatAverage formats a seasonal average to one decimal place.
func FormatAverage(v float64) string {
	return fmt.Sprintf("%.1f", v)
}
