// Package anomaly flags scores that deviate sharply from a student's own
// recent grading history.
package anomaly

import (
	"github.com/optischolar/signals/internal/domain/model"
	"github.com/optischolar/signals/internal/domain/stats"
)

// Default detector configuration.
const (
	DefaultWindowSize = 5
	DefaultThreshold  = 2.5

	// MinHistory is the smallest window a z-score is computed over.
	MinHistory = 3
	// minStdDev is the spread below which the window is treated as flat.
	minStdDev = 0.01
	// nominalStdDev replaces a flat window's spread.
	nominalStdDev = 1.0
)

// Verdict texts.
const (
	RecommendSpike        = "Unusually high score - verify for integrity"
	RecommendDrop         = "Significant grade drop - student may need support"
	NoteInsufficient      = "Insufficient history for analysis"
	NoteDegenerateHistory = "Historical scores have no spread; standard deviation set to 1.0"
)

// Option configures a Detector.
type Option func(*Detector)

// WithWindowSize sets how many trailing scores form the baseline.
func WithWindowSize(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.windowSize = n
		}
	}
}

// WithThreshold sets the |z| above which a score is anomalous.
func WithThreshold(threshold float64) Option {
	return func(d *Detector) {
		if threshold > 0 {
			d.threshold = threshold
		}
	}
}

// Detector compares a new score with the trailing window of a history.
// It holds configuration only and is safe for concurrent use.
type Detector struct {
	windowSize int
	threshold  float64
}

// NewDetector creates a detector with the default window and threshold.
func NewDetector(opts ...Option) *Detector {
	d := &Detector{
		windowSize: DefaultWindowSize,
		threshold:  DefaultThreshold,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// With returns a copy of d with opts applied; d is left unchanged.
func (d *Detector) With(opts ...Option) *Detector {
	c := *d
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

// WindowSize returns the configured window size.
func (d *Detector) WindowSize() int { return d.windowSize }

// Threshold returns the configured z-score threshold.
func (d *Detector) Threshold() float64 { return d.threshold }

// Detect scores current against the trailing window of history
// (oldest first). It never fails: short histories yield an
// insufficient-data verdict and flat ones use a nominal spread.
func (d *Detector) Detect(history []float64, current float64) model.AnomalyVerdict {
	window := history
	if len(window) > d.windowSize {
		window = window[len(window)-d.windowSize:]
	}

	if len(window) < MinHistory {
		return model.AnomalyVerdict{
			Direction:      model.DirectionNone,
			HistoricalMean: current,
			WindowSize:     len(window),
			AlertLevel:     model.AlertNormal,
			Recommendation: NoteInsufficient,
			Status:         model.StatusInsufficientData,
			Note:           NoteInsufficient,
		}
	}

	mean := stats.Mean(window)
	std := stats.StdDev(window)
	status, note := model.StatusOK, ""
	if std < minStdDev {
		std = nominalStdDev
		status, note = model.StatusDegenerateInput, NoteDegenerateHistory
	}

	z := stats.ZScore(current, mean, std)
	v := model.AnomalyVerdict{
		ZScore:         z,
		Direction:      model.DirectionNone,
		HistoricalMean: mean,
		HistoricalStd:  std,
		WindowSize:     len(window),
		AlertLevel:     model.AlertNormal,
		Status:         status,
		Note:           note,
	}
	switch {
	case z > d.threshold:
		v.IsAnomaly = true
		v.Direction = model.DirectionSpike
		v.AlertLevel = model.AlertWarning
		v.Recommendation = RecommendSpike
	case z < -d.threshold:
		v.IsAnomaly = true
		v.Direction = model.DirectionDrop
		v.AlertLevel = model.AlertWarning
		v.Recommendation = RecommendDrop
	}
	return v
}
