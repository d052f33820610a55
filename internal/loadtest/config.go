// Package loadtest drives a running signals service with concurrent risk
// predictions and batch assessments, then checks the watchlist it builds.
package loadtest

import (
	"errors"
	"time"
)

// ErrInvalidConfig is returned by Run for unusable settings.
var ErrInvalidConfig = errors.New("invalid load test config")

// Config holds configuration for a load test run.
type Config struct {
	BaseURL     string        // Base URL of the service
	Predictions int           // Number of synthetic feature vectors to score
	StudentIDs  []string      // Students to queue for batch assessment
	BatchSize   int           // Students per batch request
	TopN        int           // Watchlist entries to fetch
	Workers     int           // Concurrent HTTP workers
	Timeout     time.Duration // HTTP request timeout
	Settle      time.Duration // Wait between batch submission and watchlist checks
	Seed        uint64        // Seed for the feature generator
	OutputFile  string        // Optional JSON dump of generated features
}

func (c *Config) validate() error {
	switch {
	case c.BaseURL == "":
		return errors.Join(ErrInvalidConfig, errors.New("base url is required"))
	case c.Workers < 1:
		return errors.Join(ErrInvalidConfig, errors.New("workers must be positive"))
	case c.Predictions < 0:
		return errors.Join(ErrInvalidConfig, errors.New("predictions must not be negative"))
	case len(c.StudentIDs) > 0 && c.BatchSize < 1:
		return errors.Join(ErrInvalidConfig, errors.New("batch size must be positive"))
	case c.TopN < 1:
		return errors.Join(ErrInvalidConfig, errors.New("top must be positive"))
	}
	return nil
}

// Stats holds run statistics.
type Stats struct {
	Predictions        int
	PredictionsFailed  int
	PredictionMismatch int
	Levels             map[string]int
	BatchesAccepted    int
	BatchesDuplicate   int
	BatchesRejected    int
	BatchesFailed      int
	JobsQueued         int
	WatchlistEntries   int
	RanksRetrieved     int
	StartTime          time.Time
	Duration           time.Duration
}
