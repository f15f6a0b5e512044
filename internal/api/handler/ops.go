// Package handler provides HTTP handlers for the dashboard API.
package handler

import (
	"net/http"
	"time"

	"github.com/breatheroute/airdash/internal/airquality"
	"github.com/breatheroute/airdash/internal/api/models"
	"github.com/breatheroute/airdash/internal/api/response"
	"github.com/breatheroute/airdash/internal/insights"
	"github.com/breatheroute/airdash/internal/provider/resilience"
	"github.com/breatheroute/airdash/internal/worker"
)

// ViewSource exposes the insights view for status checks.
type ViewSource interface {
	View() insights.View
}

// PollerStats exposes live poller statistics.
type PollerStats interface {
	GetMetrics() worker.PollMetrics
	MetricsSnapshot() map[string]any
}

// CacheInspector exposes the current-conditions cache state.
type CacheInspector interface {
	CacheStatus() airquality.CacheStatus
}

// OpsConfig holds the dependencies of the operational endpoints.
// Every dependency is optional; missing ones are left out of the status.
type OpsConfig struct {
	Version   string
	BuildTime string
	Insights  ViewSource
	Poller    PollerStats
	Cache     CacheInspector
	Registry  *resilience.Registry
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	cfg OpsConfig
	now func() time.Time
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	return &OpsHandler{cfg: cfg, now: time.Now}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.now()),
		Details: map[string]any{
			"version":   h.cfg.Version,
			"buildTime": h.cfg.BuildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready. The service is ready once the
// insights controller has started its first fetch cycle.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.now()),
	}

	if h.cfg.Insights != nil {
		status := h.cfg.Insights.View().Status
		health.Details = map[string]any{"insights": string(status)}
		if status == insights.StatusIdle {
			health.Status = models.HealthStatusFail
			response.JSON(w, r, http.StatusServiceUnavailable, health)
			return
		}
	}

	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - provider and subsystem status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	subsystems := h.subsystems()
	providers := h.providers()

	statuses := make([]models.HealthStatus, 0, len(subsystems)+len(providers))
	for _, s := range subsystems {
		statuses = append(statuses, s.Status)
	}
	for _, p := range providers {
		statuses = append(statuses, p.Status)
	}

	response.JSON(w, r, http.StatusOK, models.SystemStatus{
		Status:     models.Worst(statuses...),
		Time:       models.Timestamp(h.now()),
		Subsystems: subsystems,
		Providers:  providers,
	})
}

func (h *OpsHandler) subsystems() []models.SubsystemStatus {
	out := []models.SubsystemStatus{}

	if h.cfg.Insights != nil {
		view := h.cfg.Insights.View()
		s := models.SubsystemStatus{
			Name:   "insights",
			Status: models.HealthStatusOK,
			Metrics: map[string]any{
				"state":       string(view.Status),
				"generation":  view.Generation,
				"granularity": string(view.Selection.Granularity),
			},
		}
		switch view.Status {
		case insights.StatusFailed:
			s.Status = models.HealthStatusDegraded
			s.Detail = strPtr(insights.FailureMessage)
		case insights.StatusIdle:
			s.Status = models.HealthStatusDegraded
			s.Detail = strPtr("no fetch cycle started")
		}
		out = append(out, s)
	}

	if h.cfg.Poller != nil {
		s := models.SubsystemStatus{
			Name:    "live-poller",
			Status:  models.HealthStatusOK,
			Metrics: h.cfg.Poller.MetricsSnapshot(),
		}
		if m := h.cfg.Poller.GetMetrics(); m.ConsecutiveFailures > 0 {
			s.Status = models.HealthStatusDegraded
			s.Detail = strPtr(m.LastError)
		}
		out = append(out, s)
	}

	if h.cfg.Cache != nil {
		cs := h.cfg.Cache.CacheStatus()
		s := models.SubsystemStatus{
			Name:   "current-cache",
			Status: models.HealthStatusOK,
			Metrics: map[string]any{
				"hasData":   cs.HasData,
				"isExpired": cs.IsExpired,
				"isStale":   cs.IsStale,
			},
		}
		switch {
		case !cs.HasData:
			s.Status = models.HealthStatusDegraded
			s.Detail = strPtr("no reading cached")
		case cs.IsStale:
			s.Status = models.HealthStatusDegraded
			s.Detail = strPtr("cached reading is stale")
		}
		out = append(out, s)
	}

	return out
}

func (h *OpsHandler) providers() []models.ProviderStatus {
	out := []models.ProviderStatus{}
	if h.cfg.Registry == nil {
		return out
	}

	for _, health := range h.cfg.Registry.Snapshot() {
		p := models.ProviderStatus{
			Provider:      health.Name,
			CircuitState:  health.CircuitState.String(),
			StateSince:    models.TimestampPtr(health.StateSince),
			LastSuccessAt: models.TimestampPtr(health.LastSuccessAt),
			LastFailureAt: models.TimestampPtr(health.LastFailureAt),
		}
		switch health.Status() {
		case resilience.StatusUnavailable:
			p.Status = models.HealthStatusFail
		case resilience.StatusRecovering:
			p.Status = models.HealthStatusDegraded
		default:
			p.Status = models.HealthStatusOK
		}
		if health.LastError != "" {
			p.Message = strPtr(health.LastError)
		}
		out = append(out, p)
	}
	return out
}

func strPtr(s string) *string {
	return &s
}
