// Package api provides the HTTP API of the air quality dashboard.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/breatheroute/airdash/internal/api/handler"
	"github.com/breatheroute/airdash/internal/api/middleware"
	"github.com/breatheroute/airdash/internal/api/response"
	"github.com/breatheroute/airdash/internal/provider/resilience"
)

// RouterConfig holds configuration for the router.
// Insights, Current and Feed enable their route groups when set.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics
	Insights    handler.InsightsController
	Current     handler.CurrentService
	Feed        handler.NotificationFeed
	Poller      handler.PollerStats
	Registry    *resilience.Registry
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "airdash-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger, "/v1/ops/health", "/v1/ops/ready"))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.ContentTypeJSON)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		response.NotFound(w, req, "no route for "+req.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		response.MethodNotAllowed(w, req, req.Method+" is not allowed on "+req.URL.Path)
	})

	opsCfg := handler.OpsConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Poller:    cfg.Poller,
		Registry:  cfg.Registry,
	}
	if cfg.Insights != nil {
		opsCfg.Insights = cfg.Insights
	}
	if cfg.Current != nil {
		opsCfg.Cache = cfg.Current
	}
	opsHandler := handler.NewOpsHandler(opsCfg)

	readRateLimit := middleware.RateLimitByIP(middleware.ReadRateLimit)           // 120 req/min
	selectionRateLimit := middleware.RateLimitByIP(middleware.SelectionRateLimit) // 30 req/min

	r.Route("/v1", func(r chi.Router) {
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.With(readRateLimit).Get("/status", opsHandler.SystemStatus)
		})

		if cfg.Insights != nil {
			insightsHandler := handler.NewInsightsHandler(cfg.Insights, cfg.Logger)
			r.Route("/insights", func(r chi.Router) {
				r.With(readRateLimit).Get("/", insightsHandler.GetView)
				r.Group(func(r chi.Router) {
					r.Use(selectionRateLimit)
					r.With(middleware.RequireJSON).Put("/granularity", insightsHandler.SetGranularity)
					r.With(middleware.RequireJSON).Put("/window", insightsHandler.SetWindow)
					r.With(middleware.RequireJSON).Put("/year", insightsHandler.SetYear)
					r.Post("/refresh", insightsHandler.Refresh)
				})
			})
		}

		if cfg.Current != nil || cfg.Feed != nil {
			currentHandler := handler.NewCurrentHandler(cfg.Current, cfg.Feed, cfg.Logger)
			r.Group(func(r chi.Router) {
				r.Use(readRateLimit)
				if cfg.Current != nil {
					r.Get("/current", currentHandler.GetCurrent)
				}
				if cfg.Feed != nil {
					r.Get("/notifications", currentHandler.ListNotifications)
				}
			})
		}
	})

	return r
}
