package airquality_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/breatheroute/airdash/internal/airquality"
)

func TestCategoryForAQI(t *testing.T) {
	tests := []struct {
		aqi  int
		want airquality.Category
	}{
		{0, airquality.CategoryGood},
		{50, airquality.CategoryGood},
		{51, airquality.CategorySatisfactory},
		{100, airquality.CategorySatisfactory},
		{150, airquality.CategoryModerate},
		{201, airquality.CategoryPoor},
		{400, airquality.CategoryVeryPoor},
		{401, airquality.CategorySevere},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, airquality.CategoryForAQI(tt.aqi), "aqi %d", tt.aqi)
	}
}

func TestCategory_Advisory(t *testing.T) {
	assert.Equal(t, "Air quality is satisfactory. Ideal for outdoor activities.", airquality.CategoryGood.Advisory())
	assert.Equal(t, "Health alert: Stay indoors. Use air purifiers and keep windows closed.", airquality.CategorySevere.Advisory())
	assert.Empty(t, airquality.Category("Hazardous").Advisory())
}
