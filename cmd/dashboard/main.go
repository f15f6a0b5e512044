// Package main provides the entrypoint for the air quality dashboard API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/breatheroute/airdash/internal/airquality"
	"github.com/breatheroute/airdash/internal/airquality/aqapi"
	"github.com/breatheroute/airdash/internal/api"
	"github.com/breatheroute/airdash/internal/api/middleware"
	"github.com/breatheroute/airdash/internal/config"
	"github.com/breatheroute/airdash/internal/insights"
	"github.com/breatheroute/airdash/internal/notify"
	"github.com/breatheroute/airdash/internal/provider/resilience"
	"github.com/breatheroute/airdash/internal/telemetry"
	"github.com/breatheroute/airdash/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "airdash-api"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	log = log.Level(cfg.LogLevel)

	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.Env).
		Msg("starting air quality dashboard")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTelEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if tp.Enabled() {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize http metrics")
	}
	insightsMetrics, err := insights.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize insights metrics")
	}

	// Notifications go to the in-memory feed served by the API and to the log.
	feed := notify.NewFeed(notify.DefaultFeedCapacity)
	notifier := notify.Multi{feed, notify.NewLogNotifier(log)}

	registry := resilience.NewRegistry()
	client := aqapi.NewClient(aqapi.ClientConfig{
		BaseURL:  cfg.APIBaseURL,
		Location: cfg.City,
		Timeout:  cfg.APITimeout,
		Registry: registry,
		Logger:   log,
	})

	controller := insights.NewController(insights.ControllerConfig{
		Fetcher: insights.NewFetcher(insights.FetcherConfig{
			Source:  client,
			Logger:  log,
			Metrics: insightsMetrics,
		}),
		Notifier: notifier,
		Logger:   log,
		Metrics:  insightsMetrics,
	})

	controllerDone := make(chan struct{})
	go func() {
		defer close(controllerDone)
		if runErr := controller.Run(ctx); runErr != nil && !errors.Is(runErr, context.Canceled) {
			log.Error().Err(runErr).Msg("insights controller exited")
		}
	}()

	current := airquality.NewService(airquality.ServiceConfig{
		Provider: client,
		Logger:   log,
		CacheTTL: cfg.CurrentCacheTTL,
	})

	poller := worker.NewLivePoller(worker.LivePollerConfig{
		Config:    worker.PollConfig{Interval: cfg.LiveInterval, Timeout: cfg.APITimeout},
		Logger:    log,
		Refresher: current,
		Notifier:  notifier,
	})
	if err := poller.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start live poller")
	}
	defer poller.Stop()

	router := api.NewRouter(api.RouterConfig{
		Version:     Version,
		BuildTime:   BuildTime,
		Logger:      log,
		ServiceName: serviceName,
		Metrics:     httpMetrics,
		Insights:    controller,
		Current:     current,
		Feed:        feed,
		Poller:      poller,
		Registry:    registry,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	<-controllerDone

	log.Info().Msg("server stopped")
}
