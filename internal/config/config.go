// Package config loads the dashboard configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds the runtime configuration.
type Config struct {
	// Port is the HTTP listen port.
	Port string

	// Env is the deployment environment (development, staging, production).
	Env string

	// APIBaseURL is the air quality backend base URL.
	APIBaseURL string

	// APITimeout bounds a single upstream request.
	APITimeout time.Duration

	// City is the location requested for current conditions.
	City string

	// LiveInterval is the current-conditions polling period.
	LiveInterval time.Duration

	// CurrentCacheTTL is how long a current reading is served from cache.
	CurrentCacheTTL time.Duration

	// OTelEnabled turns on OTLP export of traces and metrics.
	OTelEnabled bool

	// OTLPEndpoint is the OTLP gRPC collector address.
	OTLPEndpoint string

	// LogLevel is the minimum zerolog level.
	LogLevel zerolog.Level
}

// Load reads the given dotenv files (".env" when none are named) and then
// the environment. Variables already set in the environment win over the
// files. A missing dotenv file is not an error.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables with defaults.
func FromEnv() (Config, error) {
	apiTimeout, err := durationFromEnv("AIRDASH_API_TIMEOUT", "10s")
	if err != nil {
		return Config{}, err
	}
	liveInterval, err := durationFromEnv("AIRDASH_LIVE_INTERVAL", "60s")
	if err != nil {
		return Config{}, err
	}
	cacheTTL, err := durationFromEnv("AIRDASH_CURRENT_CACHE_TTL", "1m")
	if err != nil {
		return Config{}, err
	}

	level, err := zerolog.ParseLevel(strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")))
	if err != nil {
		return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	return Config{
		Port:            getEnvOrDefault("APP_PORT", "8080"),
		Env:             getEnvOrDefault("APP_ENV", "development"),
		APIBaseURL:      getEnvOrDefault("AIRDASH_API_BASE_URL", "http://localhost:8001"),
		APITimeout:      apiTimeout,
		City:            getEnvOrDefault("AIRDASH_CITY", "Delhi"),
		LiveInterval:    liveInterval,
		CurrentCacheTTL: cacheTTL,
		OTelEnabled:     os.Getenv("OTEL_ENABLED") == "true",
		OTLPEndpoint:    getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		LogLevel:        level,
	}, nil
}

func durationFromEnv(key, defaultValue string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnvOrDefault(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
