// Package airquality provides live air quality conditions and caching.
package airquality

import (
	"errors"
	"time"
)

// Provider errors.
var (
	ErrNoReading           = errors.New("no air quality reading available")
	ErrProviderUnavailable = errors.New("air quality provider unavailable")
)

// Pollutant represents an air quality pollutant type.
type Pollutant string

const (
	PollutantNO2 Pollutant = "NO2"
	PollutantO3  Pollutant = "O3"
)

// Trend is the short-term direction of a pollutant concentration.
type Trend string

const (
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
	TrendStable  Trend = "stable"
)

// Category is an AQI band.
type Category string

// AQI bands, from best to worst.
const (
	CategoryGood         Category = "Good"
	CategorySatisfactory Category = "Satisfactory"
	CategoryModerate     Category = "Moderate"
	CategoryPoor         Category = "Poor"
	CategoryVeryPoor     Category = "Very Poor"
	CategorySevere       Category = "Severe"
)

var advisories = map[Category]string{
	CategoryGood:         "Air quality is satisfactory. Ideal for outdoor activities.",
	CategorySatisfactory: "Air quality is acceptable. Enjoy outdoor activities.",
	CategoryModerate:     "Sensitive individuals should limit prolonged outdoor exposure.",
	CategoryPoor:         "Everyone should reduce prolonged outdoor exertion. Wear masks.",
	CategoryVeryPoor:     "Avoid outdoor activities. Use N95 masks if necessary to go outside.",
	CategorySevere:       "Health alert: Stay indoors. Use air purifiers and keep windows closed.",
}

// Advisory returns the health advisory for the band, or "" for an unknown band.
func (c Category) Advisory() string {
	return advisories[c]
}

// CategoryForAQI maps an AQI value onto its band using the national AQI breakpoints.
func CategoryForAQI(aqi int) Category {
	switch {
	case aqi <= 50:
		return CategoryGood
	case aqi <= 100:
		return CategorySatisfactory
	case aqi <= 200:
		return CategoryModerate
	case aqi <= 300:
		return CategoryPoor
	case aqi <= 400:
		return CategoryVeryPoor
	default:
		return CategorySevere
	}
}

// Current is the latest reading for the configured location.
type Current struct {
	Location    string    `json:"location"`
	AQIValue    int       `json:"aqi_value"`
	AQICategory Category  `json:"aqi_category"`
	NO2         float64   `json:"no2"`
	O3          float64   `json:"o3"`
	TrendNO2    Trend     `json:"trend_no2"`
	TrendO3     Trend     `json:"trend_o3"`
	Timestamp   time.Time `json:"timestamp"`
}

// Normalize fills the category from the AQI value when the upstream left it
// empty and defaults missing trends to stable.
func (c *Current) Normalize() {
	if c.AQICategory == "" {
		c.AQICategory = CategoryForAQI(c.AQIValue)
	}
	if c.TrendNO2 == "" {
		c.TrendNO2 = TrendStable
	}
	if c.TrendO3 == "" {
		c.TrendO3 = TrendStable
	}
}

// Snapshot is a cached reading plus when it was retrieved.
type Snapshot struct {
	Current   Current
	FetchedAt time.Time
	Provider  string
}
