package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breatheroute/airdash/internal/airquality"
	"github.com/breatheroute/airdash/internal/api"
	"github.com/breatheroute/airdash/internal/api/models"
	"github.com/breatheroute/airdash/internal/insights"
	"github.com/breatheroute/airdash/internal/notify"
	"github.com/breatheroute/airdash/internal/provider/resilience"
	"github.com/breatheroute/airdash/internal/worker"
)

var testNow = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

// fakeController records selection calls and serves a fixed view.
type fakeController struct {
	mu        sync.Mutex
	view      insights.View
	err       error
	calls     []string
	refreshes int
}

func newFakeController() *fakeController {
	sel := insights.NewRangeSelection(testNow)
	return &fakeController{
		view: insights.View{
			Status:        insights.StatusReady,
			Generation:    1,
			Selection:     sel,
			WindowOptions: insights.Monthly.WindowSizes(),
			Title:         sel.Title(),
			Chart:         []insights.ChartPoint{{Label: "Jan", NO2: 40, O3: 30}},
			Years:         []int{2023, 2024},
			Seasonal:      []insights.SeasonalPattern{},
			UpdatedAt:     testNow,
		},
	}
}

func (f *fakeController) SelectGranularity(_ context.Context, g insights.Granularity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, "granularity:"+string(g))
	next, err := f.view.Selection.WithGranularity(g)
	if err != nil {
		return err
	}
	f.view.Selection = next
	return nil
}

func (f *fakeController) SelectWindowSize(_ context.Context, g insights.Granularity, n int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	next, err := f.view.Selection.WithWindowSize(g, n)
	if err != nil {
		return err
	}
	f.calls = append(f.calls, "window:"+string(g))
	f.view.Selection = next
	return nil
}

func (f *fakeController) SelectYear(_ context.Context, year int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	next, err := f.view.Selection.WithYear(year, f.view.Years)
	if err != nil {
		return err
	}
	f.view.Selection = next
	return nil
}

func (f *fakeController) Refresh(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.refreshes++
	f.view.Status = insights.StatusLoading
	f.view.Generation++
	return nil
}

func (f *fakeController) View() insights.View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.view
}

type fakeCurrent struct {
	current *airquality.Current
	err     error
	status  airquality.CacheStatus
}

func (f *fakeCurrent) GetCurrent(context.Context) (*airquality.Current, error) {
	return f.current, f.err
}

func (f *fakeCurrent) CacheStatus() airquality.CacheStatus {
	return f.status
}

type fakePoller struct {
	metrics worker.PollMetrics
}

func (f *fakePoller) GetMetrics() worker.PollMetrics { return f.metrics }

func (f *fakePoller) MetricsSnapshot() map[string]any {
	return map[string]any{"consecutive_failures": f.metrics.ConsecutiveFailures}
}

type testDeps struct {
	controller *fakeController
	current    *fakeCurrent
	feed       *notify.Feed
	poller     *fakePoller
	registry   *resilience.Registry
}

func newTestDeps() *testDeps {
	current := &airquality.Current{
		Location:  "Delhi",
		AQIValue:  152,
		NO2:       48.2,
		O3:        31.5,
		TrendNO2:  airquality.TrendRising,
		TrendO3:   airquality.TrendStable,
		Timestamp: testNow,
	}
	current.Normalize()

	return &testDeps{
		controller: newFakeController(),
		current: &fakeCurrent{
			current: current,
			status:  airquality.CacheStatus{HasData: true, FetchedAt: testNow},
		},
		feed:     notify.NewFeed(10),
		poller:   &fakePoller{},
		registry: resilience.NewRegistry(),
	}
}

func newTestRouter(deps *testDeps) http.Handler {
	return api.NewRouter(api.RouterConfig{
		Version:   "test",
		BuildTime: "2024-01-01T00:00:00Z",
		Logger:    zerolog.New(io.Discard),
		Insights:  deps.controller,
		Current:   deps.current,
		Feed:      deps.feed,
		Poller:    deps.poller,
		Registry:  deps.registry,
	})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) models.Problem {
	t.Helper()
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	var problem models.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	return problem
}

func TestRouter_HealthCheck(t *testing.T) {
	router := newTestRouter(newTestDeps())

	w := do(t, router, http.MethodGet, "/v1/ops/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	var health models.Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.Equal(t, "test", health.Details["version"])
}

func TestRouter_ReadinessCheck(t *testing.T) {
	deps := newTestDeps()
	router := newTestRouter(deps)

	w := do(t, router, http.MethodGet, "/v1/ops/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)

	deps.controller.view.Status = insights.StatusIdle
	w = do(t, router, http.MethodGet, "/v1/ops/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var health models.Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, models.HealthStatusFail, health.Status)
}

func TestRouter_SystemStatus(t *testing.T) {
	deps := newTestDeps()
	deps.registry.Register("aq-api", resilience.NewClient(resilience.ClientConfig{Name: "aq-api"}))
	router := newTestRouter(deps)

	w := do(t, router, http.MethodGet, "/v1/ops/status", "")
	require.Equal(t, http.StatusOK, w.Code)

	var status models.SystemStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))

	assert.Equal(t, models.HealthStatusOK, status.Status)
	require.Len(t, status.Subsystems, 3)
	assert.Equal(t, "insights", status.Subsystems[0].Name)
	assert.Equal(t, "live-poller", status.Subsystems[1].Name)
	assert.Equal(t, "current-cache", status.Subsystems[2].Name)
	require.Len(t, status.Providers, 1)
	assert.Equal(t, "aq-api", status.Providers[0].Provider)
	assert.Equal(t, "closed", status.Providers[0].CircuitState)
}

func TestRouter_SystemStatus_DegradedOnPollFailures(t *testing.T) {
	deps := newTestDeps()
	deps.poller.metrics = worker.PollMetrics{ConsecutiveFailures: 2, LastError: "boom"}
	router := newTestRouter(deps)

	w := do(t, router, http.MethodGet, "/v1/ops/status", "")

	var status models.SystemStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, models.HealthStatusDegraded, status.Status)
	require.NotNil(t, status.Subsystems[1].Detail)
	assert.Equal(t, "boom", *status.Subsystems[1].Detail)
}

func TestRouter_GetInsights(t *testing.T) {
	router := newTestRouter(newTestDeps())

	w := do(t, router, http.MethodGet, "/v1/insights", "")
	require.Equal(t, http.StatusOK, w.Code)

	var view models.InsightsView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "ready", view.Status)
	assert.Equal(t, "monthly", view.Selection.Granularity)
	require.NotNil(t, view.Selection.SelectedYear)
	assert.Equal(t, 2024, *view.Selection.SelectedYear)
	require.Len(t, view.Chart, 1)
	assert.Equal(t, "Jan", view.Chart[0].Label)
}

func TestRouter_SetGranularity(t *testing.T) {
	deps := newTestDeps()
	router := newTestRouter(deps)

	w := do(t, router, http.MethodPut, "/v1/insights/granularity", `{"granularity":"weekly"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var view models.InsightsView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "weekly", view.Selection.Granularity)
	assert.Nil(t, view.Selection.SelectedYear)
	assert.Equal(t, []string{"granularity:weekly"}, deps.controller.calls)
}

func TestRouter_SetGranularity_Unknown(t *testing.T) {
	deps := newTestDeps()
	router := newTestRouter(deps)

	w := do(t, router, http.MethodPut, "/v1/insights/granularity", `{"granularity":"hourly"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	problem := decodeProblem(t, w)
	require.Len(t, problem.Errors, 1)
	assert.Equal(t, "granularity", problem.Errors[0].Field)
	assert.Empty(t, deps.controller.calls)
}

func TestRouter_SetGranularity_Missing(t *testing.T) {
	deps := newTestDeps()
	router := newTestRouter(deps)

	w := do(t, router, http.MethodPut, "/v1/insights/granularity", `{"granularity":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	problem := decodeProblem(t, w)
	require.Len(t, problem.Errors, 1)
	assert.Equal(t, "granularity", problem.Errors[0].Field)
	assert.Equal(t, models.CodeRequired, problem.Errors[0].Code)
	assert.Empty(t, deps.controller.calls)
}

func TestRouter_SetWindow(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantField  string
	}{
		{"active granularity", `{"size":24}`, http.StatusOK, ""},
		{"explicit granularity", `{"granularity":"daily","size":60}`, http.StatusOK, ""},
		{"size not offered", `{"size":7}`, http.StatusBadRequest, "size"},
		{"missing size", `{"granularity":"weekly"}`, http.StatusBadRequest, "size"},
		{"unknown field", `{"size":12,"extra":true}`, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(newTestDeps())

			w := do(t, router, http.MethodPut, "/v1/insights/window", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)

			if tt.wantField != "" {
				problem := decodeProblem(t, w)
				require.NotEmpty(t, problem.Errors)
				assert.Equal(t, tt.wantField, problem.Errors[0].Field)
			}
		})
	}
}

func TestRouter_SetYear(t *testing.T) {
	router := newTestRouter(newTestDeps())

	w := do(t, router, http.MethodPut, "/v1/insights/year", `{"year":2023}`)
	require.Equal(t, http.StatusOK, w.Code)

	var view models.InsightsView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	require.NotNil(t, view.Selection.SelectedYear)
	assert.Equal(t, 2023, *view.Selection.SelectedYear)

	w = do(t, router, http.MethodPut, "/v1/insights/year", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	missing := decodeProblem(t, w)
	require.Len(t, missing.Errors, 1)
	assert.Equal(t, "year", missing.Errors[0].Field)
	assert.Equal(t, models.CodeRequired, missing.Errors[0].Code)

	w = do(t, router, http.MethodPut, "/v1/insights/year", `{"year":1999}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	problem := decodeProblem(t, w)
	require.Len(t, problem.Errors, 1)
	assert.Equal(t, models.CodeUnavailable, problem.Errors[0].Code)
}

func TestRouter_Refresh(t *testing.T) {
	deps := newTestDeps()
	router := newTestRouter(deps)

	w := do(t, router, http.MethodPost, "/v1/insights/refresh", "")
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, 1, deps.controller.refreshes)

	var view models.InsightsView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "loading", view.Status)
}

func TestRouter_ControllerStopped(t *testing.T) {
	deps := newTestDeps()
	deps.controller.err = insights.ErrControllerStopped
	router := newTestRouter(deps)

	w := do(t, router, http.MethodPost, "/v1/insights/refresh", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRouter_SelectionRequiresJSON(t *testing.T) {
	router := newTestRouter(newTestDeps())

	req := httptest.NewRequest(http.MethodPut, "/v1/insights/granularity", strings.NewReader("granularity=weekly"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestRouter_GetCurrent(t *testing.T) {
	deps := newTestDeps()
	router := newTestRouter(deps)

	w := do(t, router, http.MethodGet, "/v1/current", "")
	require.Equal(t, http.StatusOK, w.Code)

	var current models.CurrentConditions
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &current))
	assert.Equal(t, "Delhi", current.Location)
	assert.Equal(t, 152, current.AQIValue)
	assert.Equal(t, "Moderate", current.AQICategory)
	assert.NotEmpty(t, current.Advisory)
	assert.Equal(t, "rising", current.TrendNO2)
	assert.False(t, current.Stale)

	deps.current.status.IsExpired = true
	w = do(t, router, http.MethodGet, "/v1/current", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &current))
	assert.True(t, current.Stale)
}

func TestRouter_GetCurrent_Unavailable(t *testing.T) {
	deps := newTestDeps()
	deps.current.current = nil
	deps.current.err = errors.New("provider down")
	router := newTestRouter(deps)

	w := do(t, router, http.MethodGet, "/v1/current", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	problem := decodeProblem(t, w)
	assert.Equal(t, models.ProblemTypeUnavailable, problem.Type)
}

func TestRouter_ListNotifications(t *testing.T) {
	deps := newTestDeps()
	for i := 0; i < 3; i++ {
		deps.feed.Notify(context.Background(), notify.Error("insights", "Failed to fetch insights data"))
	}
	router := newTestRouter(deps)

	w := do(t, router, http.MethodGet, "/v1/notifications?limit=2", "")
	require.Equal(t, http.StatusOK, w.Code)

	var list models.NotificationList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Items, 2)
	assert.Equal(t, "error", list.Items[0].Level)
	assert.Equal(t, "insights", list.Items[0].Source)

	w = do(t, router, http.MethodGet, "/v1/notifications?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_RequestID_Generated(t *testing.T) {
	router := newTestRouter(newTestDeps())

	w := do(t, router, http.MethodGet, "/v1/ops/health", "")

	requestID := w.Header().Get("X-Request-Id")
	assert.NotEmpty(t, requestID)
	assert.Contains(t, requestID, "req_")
}

func TestRouter_RequestID_Preserved(t *testing.T) {
	router := newTestRouter(newTestDeps())

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	req.Header.Set("X-Request-Id", "custom_request_id")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, "custom_request_id", w.Header().Get("X-Request-Id"))
}

func TestRouter_NotFound(t *testing.T) {
	router := newTestRouter(newTestDeps())

	w := do(t, router, http.MethodGet, "/v1/nonexistent", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	problem := decodeProblem(t, w)
	assert.Equal(t, models.ProblemTypeNotFound, problem.Type)
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	router := newTestRouter(newTestDeps())

	w := do(t, router, http.MethodDelete, "/v1/insights/granularity", "")

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRouter_OptionalRoutesDisabled(t *testing.T) {
	router := api.NewRouter(api.RouterConfig{Logger: zerolog.New(io.Discard)})

	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/v1/ops/health", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/v1/insights", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/v1/current", "").Code)
}
