package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix = "SIGNALS_"
	envFile   = "SIGNALS_CONFIG"
)

var knownDrivers = map[string]bool{"memory": true, "sqlite": true, "postgres": true, "mongo": true}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if SIGNALS_CONFIG is set
//  3. env (prefix SIGNALS_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv(envFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// SIGNALS_QUEUE_SIZE -> queue_size. List values are comma separated.
	envProvider := env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, any) {
		key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(envPrefix))
		if key == "config" {
			return "", nil
		}
		if key == "cors_allowed_origins" || key == "metrics_latency_buckets" {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			return key, parts
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case !knownDrivers[c.HistoryDriver]:
		return fmt.Errorf("%w: unknown history_driver %q", ErrInvalidConfig, c.HistoryDriver)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.MaxWatchlistLimit <= 0:
		return fmt.Errorf("%w: max_watchlist_limit must be positive", ErrInvalidConfig)
	case c.MetricsNamespace == "":
		return fmt.Errorf("%w: metrics_namespace must not be empty", ErrInvalidConfig)
	case !increasing(c.MetricsLatencyBuckets):
		return fmt.Errorf("%w: metrics_latency_buckets must be strictly increasing", ErrInvalidConfig)
	case c.AnomalyWindowSize <= 0 || c.AnomalyThreshold <= 0:
		return fmt.Errorf("%w: anomaly window and threshold must be positive", ErrInvalidConfig)
	case c.SkewThreshold <= 0 || c.KurtosisThreshold <= 0:
		return fmt.Errorf("%w: distribution thresholds must be positive", ErrInvalidConfig)
	case c.CorrelationModerate <= 0 || c.CorrelationModerate >= c.CorrelationCritical || c.CorrelationCritical > 1:
		return fmt.Errorf("%w: need 0 < correlation_moderate < correlation_critical <= 1", ErrInvalidConfig)
	case c.PatternMinConfidence <= 0 || c.PatternMinConfidence > 1 || c.PatternMinOccurrences <= 0:
		return fmt.Errorf("%w: pattern filters out of range", ErrInvalidConfig)
	}
	return nil
}

func increasing(xs []float64) bool {
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return false
		}
	}
	return true
}
