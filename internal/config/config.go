// Package config defines service configuration and how it is loaded.
//
// Conventions:
// - New returns a Config holding every default.
// - Load layers an optional YAML file and SIGNALS_* environment variables on top.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"context"
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`
	// CORSAllowedOrigins lists origins allowed by the CORS middleware.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// QueueSize bounds the batch assessment queue.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of assessment workers.
	WorkerCount int `koanf:"worker_count"`
	// DedupeSize bounds the batch id idempotency set.
	DedupeSize int `koanf:"dedupe_size"`
	// MaxWatchlistLimit caps GET /v1/watchlist?limit.
	MaxWatchlistLimit int `koanf:"max_watchlist_limit"`

	// HistoryDriver selects the history source: memory, sqlite, postgres or mongo.
	HistoryDriver string `koanf:"history_driver"`
	// HistoryDSN is the SQL DSN or Mongo URI.
	HistoryDSN string `koanf:"history_dsn"`
	// HistoryDatabase names the Mongo database.
	HistoryDatabase string `koanf:"history_database"`
	// FetchTimeoutMS bounds each history fetch.
	FetchTimeoutMS int `koanf:"fetch_timeout_ms"`

	// RedisAddr enables the assessment cache when set.
	RedisAddr string `koanf:"redis_addr"`
	RedisDB   int    `koanf:"redis_db"`
	// CacheTTLSeconds is the assessment cache lifetime.
	CacheTTLSeconds int `koanf:"cache_ttl_seconds"`

	// MetricsNamespace and MetricsSubsystem prefix every metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`
	// MetricsLatencyBuckets overrides the latency histogram buckets (ms).
	MetricsLatencyBuckets []float64 `koanf:"metrics_latency_buckets"`

	AnomalyWindowSize int     `koanf:"anomaly_window_size"`
	AnomalyThreshold  float64 `koanf:"anomaly_threshold"`

	SkewThreshold     float64 `koanf:"skew_threshold"`
	KurtosisThreshold float64 `koanf:"kurtosis_threshold"`

	CorrelationCritical float64 `koanf:"correlation_critical"`
	CorrelationModerate float64 `koanf:"correlation_moderate"`

	PatternMinConfidence  float64 `koanf:"pattern_min_confidence"`
	PatternMinOccurrences int     `koanf:"pattern_min_occurrences"`
}

// New creates a Config holding the defaults. Context is accepted first to
// follow the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":9080",
		CORSAllowedOrigins:    []string{"*"},
		QueueSize:             10_000,
		WorkerCount:           runtime.NumCPU() * 2,
		DedupeSize:            50_000,
		MaxWatchlistLimit:     100,
		HistoryDriver:         "memory",
		HistoryDSN:            "file:signals.db?cache=shared",
		HistoryDatabase:       "signals",
		FetchTimeoutMS:        2000,
		CacheTTLSeconds:       900,
		MetricsNamespace:      "signals",
		MetricsSubsystem:      "engine",
		AnomalyWindowSize:     5,
		AnomalyThreshold:      2.5,
		SkewThreshold:         1.0,
		KurtosisThreshold:     2.0,
		CorrelationCritical:   0.7,
		CorrelationModerate:   0.4,
		PatternMinConfidence:  0.6,
		PatternMinOccurrences: 3,
	}
}
