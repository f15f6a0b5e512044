// Package aqapi provides a client for the air quality backend REST API.
// It serves both the insights pipeline and the live current conditions.
package aqapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/breatheroute/airdash/internal/airquality"
	"github.com/breatheroute/airdash/internal/insights"
	"github.com/breatheroute/airdash/internal/provider/resilience"
)

const (
	// DefaultBaseURL is used when no base URL is configured.
	DefaultBaseURL = "http://localhost:8001"

	// ProviderName identifies this provider in the health registry.
	ProviderName = "aq-api"
)

// Endpoint paths, relative to the base URL.
const (
	pathInsightsMonthly = "/api/insights/monthly"
	pathInsightsWeekly  = "/api/insights/weekly"
	pathInsightsDaily   = "/api/insights/daily"
	pathSeasonal        = "/api/insights/seasonal"
	pathCurrent         = "/api/air-quality/current"
)

// ClientConfig holds configuration for the API client.
type ClientConfig struct {
	// BaseURL is the API base URL (defaults to DefaultBaseURL).
	BaseURL string

	// Location is sent with current-conditions requests when set.
	Location string

	// HTTPClient is the HTTP client to use (must implement HTTPDoer).
	// If nil, a default resilient client will be created.
	HTTPClient HTTPDoer

	// Timeout for individual API requests (default: 10s).
	Timeout time.Duration

	// Registry receives the default resilient client. Ignored when HTTPClient is set.
	Registry *resilience.Registry

	// Logger for breaker transitions of the default client.
	Logger zerolog.Logger
}

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is an air quality API client.
type Client struct {
	baseURL    string
	location   string
	httpClient HTTPDoer
}

var (
	_ insights.DataSource = (*Client)(nil)
	_ airquality.Provider = (*Client)(nil)
)

// NewClient creates a new API client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:            ProviderName,
			Timeout:         timeout,
			MaxRetries:      3,
			InitialInterval: 200 * time.Millisecond,
			MaxInterval:     5 * time.Second,
			Registry:        cfg.Registry,
			Logger:          cfg.Logger,
		})
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		location:   cfg.Location,
		httpClient: httpClient,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// InsightsMonthly retrieves monthly averages for the last months months.
func (c *Client) InsightsMonthly(ctx context.Context, months int) ([]insights.MonthlyRecord, error) {
	var records []insights.MonthlyRecord
	if err := c.getJSON(ctx, pathInsightsMonthly, windowQuery("months", months), &records); err != nil {
		return nil, fmt.Errorf("fetch monthly insights: %w", err)
	}
	return records, nil
}

// InsightsWeekly retrieves weekly averages for the last weeks weeks, newest first.
func (c *Client) InsightsWeekly(ctx context.Context, weeks int) ([]insights.WeeklyRecord, error) {
	var records []insights.WeeklyRecord
	if err := c.getJSON(ctx, pathInsightsWeekly, windowQuery("weeks", weeks), &records); err != nil {
		return nil, fmt.Errorf("fetch weekly insights: %w", err)
	}
	return records, nil
}

// InsightsDaily retrieves daily averages for the last days days, newest first.
func (c *Client) InsightsDaily(ctx context.Context, days int) ([]insights.DailyRecord, error) {
	var records []insights.DailyRecord
	if err := c.getJSON(ctx, pathInsightsDaily, windowQuery("days", days), &records); err != nil {
		return nil, fmt.Errorf("fetch daily insights: %w", err)
	}
	return records, nil
}

// SeasonalPatterns retrieves the four seasonal summaries.
func (c *Client) SeasonalPatterns(ctx context.Context) ([]insights.SeasonalPattern, error) {
	var patterns []insights.SeasonalPattern
	if err := c.getJSON(ctx, pathSeasonal, nil, &patterns); err != nil {
		return nil, fmt.Errorf("fetch seasonal patterns: %w", err)
	}
	return patterns, nil
}

// CurrentAirQuality retrieves the latest reading.
func (c *Client) CurrentAirQuality(ctx context.Context) (*airquality.Current, error) {
	var query url.Values
	if c.location != "" {
		query = url.Values{"location": {c.location}}
	}

	var current airquality.Current
	if err := c.getJSON(ctx, pathCurrent, query, &current); err != nil {
		return nil, fmt.Errorf("fetch current air quality: %w", err)
	}
	return &current, nil
}

func windowQuery(key string, n int) url.Values {
	return url.Values{key: {strconv.Itoa(n)}}
}

// getJSON issues a GET and decodes a 200 response body into out.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
