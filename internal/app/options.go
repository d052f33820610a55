package service

import (
	"time"

	"github.com/optischolar/signals/internal/adapters/cache"
	"github.com/optischolar/signals/internal/adapters/repository"
	"github.com/optischolar/signals/internal/domain/anomaly"
	"github.com/optischolar/signals/internal/domain/correlation"
	"github.com/optischolar/signals/internal/domain/distribution"
	"github.com/optischolar/signals/internal/domain/patterns"
	"github.com/optischolar/signals/internal/domain/risk"
	"github.com/optischolar/signals/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSource sets the history source.
func WithSource(src repository.HistorySource) Option {
	return func(s *Service) {
		if src != nil {
			s.source = src
		}
	}
}

// WithCache sets the assessment cache.
func WithCache(c cache.AssessmentCache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithWorkerCount sets the number of assessment workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the batch queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the batch id idempotency set.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source used for assessment timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithDetector sets the default anomaly detector.
func WithDetector(d *anomaly.Detector) Option {
	return func(s *Service) {
		if d != nil {
			s.detector = d
		}
	}
}

// WithDistributionAnalyzer sets the default distribution analyzer.
func WithDistributionAnalyzer(a *distribution.Analyzer) Option {
	return func(s *Service) {
		if a != nil {
			s.distribution = a
		}
	}
}

// WithCorrelationEngine sets the default correlation engine.
func WithCorrelationEngine(e *correlation.Engine) Option {
	return func(s *Service) {
		if e != nil {
			s.correlation = e
		}
	}
}

// WithClassifier sets the default risk classifier.
func WithClassifier(c *risk.Classifier) Option {
	return func(s *Service) {
		if c != nil {
			s.classifier = c
		}
	}
}

// WithMiner sets the default pattern miner.
func WithMiner(m *patterns.Miner) Option {
	return func(s *Service) {
		if m != nil {
			s.miner = m
		}
	}
}
