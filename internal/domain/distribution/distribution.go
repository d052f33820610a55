// Package distribution assesses the shape and health of a cohort's grades
// for one exam.
package distribution

import (
	"math"

	"github.com/optischolar/signals/internal/domain/model"
	"github.com/optischolar/signals/internal/domain/stats"
)

// Default analyzer configuration.
const (
	DefaultSkewThreshold     = 1.0
	DefaultKurtosisThreshold = 2.0

	// MinCohort is the smallest cohort that is analyzed.
	MinCohort = 5
	// normalAlpha is the significance level of the normality test.
	normalAlpha = 0.05
	// scaleMax is the top of the grading scale used by the histogram.
	scaleMax = 10.0
)

// Report texts.
const (
	RecommendInsufficient = "Insufficient data for analysis"
	RecommendInflation    = "Grade distribution is right-skewed - possible grade inflation"
	RecommendDeflation    = "Grade distribution is left-skewed - possible harsh grading"
	RecommendClustering   = "Unusual clustering in grade distribution - review grading rubric"
	NoteDegenerate        = "Every grade is identical; shape statistics are undefined"
)

// bins are the fixed histogram buckets on the 0-10 scale. Each bin is
// half-open [low, high) except the last, which also includes 10.
var bins = []struct {
	label     string
	low, high float64
}{
	{"0-2", 0, 3},
	{"3-4", 3, 5},
	{"5-6", 5, 7},
	{"7-8", 7, 9},
	{"9-10", 9, scaleMax},
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithSkewThreshold sets the |skewness| above which grades are flagged.
func WithSkewThreshold(threshold float64) Option {
	return func(a *Analyzer) {
		if threshold > 0 {
			a.skewThreshold = threshold
		}
	}
}

// WithKurtosisThreshold sets the |excess kurtosis| above which grades are
// flagged as clustered.
func WithKurtosisThreshold(threshold float64) Option {
	return func(a *Analyzer) {
		if threshold > 0 {
			a.kurtosisThreshold = threshold
		}
	}
}

// Analyzer reports on cohort grade distributions. It holds configuration
// only and is safe for concurrent use.
type Analyzer struct {
	skewThreshold     float64
	kurtosisThreshold float64
}

// NewAnalyzer creates an analyzer with the default thresholds.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		skewThreshold:     DefaultSkewThreshold,
		kurtosisThreshold: DefaultKurtosisThreshold,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// With returns a copy of a with opts applied.
func (a *Analyzer) With(opts ...Option) *Analyzer {
	c := *a
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

// Normalize converts samples onto the 0-10 scale. Samples without a
// positive maximum are skipped.
func Normalize(samples []model.GradeSample) []float64 {
	out := make([]float64, 0, len(samples))
	for _, s := range samples {
		if s.MaxScore <= 0 {
			continue
		}
		out = append(out, s.Score/s.MaxScore*scaleMax)
	}
	return out
}

// AnalyzeSamples normalizes samples and analyzes them.
func (a *Analyzer) AnalyzeSamples(samples []model.GradeSample) model.DistributionReport {
	return a.Analyze(Normalize(samples))
}

// Analyze reports on grades expressed on the 0-10 scale.
func (a *Analyzer) Analyze(grades []float64) model.DistributionReport {
	if len(grades) < MinCohort {
		return insufficient()
	}

	// Describe only fails on empty input.
	summary, _ := stats.Describe(grades)
	r := model.DistributionReport{
		Count:     summary.Count,
		Mean:      summary.Mean,
		Median:    summary.Median,
		StdDev:    summary.StdDev,
		Min:       summary.Min,
		Max:       summary.Max,
		Histogram: histogram(grades),
		AlertType: model.AlertNone,
		IsHealthy: true,
		Status:    model.StatusOK,
	}

	if stats.Variance(grades) == 0 {
		r.Status = model.StatusDegenerateInput
		r.Note = NoteDegenerate
		r.IsHealthy = false
		r.AlertType = model.AlertClustering
		r.Recommendation = RecommendClustering
		return r
	}

	r.Skewness = stats.Skewness(grades)
	r.Kurtosis = stats.ExcessKurtosis(grades)
	if _, p, err := stats.Normality(grades); err == nil {
		r.PValue = p
		r.IsNormal = p > normalAlpha
	}

	switch {
	case r.Skewness > a.skewThreshold:
		r.AlertType, r.Recommendation = model.AlertInflation, RecommendInflation
	case r.Skewness < -a.skewThreshold:
		r.AlertType, r.Recommendation = model.AlertDeflation, RecommendDeflation
	case math.Abs(r.Kurtosis) > a.kurtosisThreshold:
		r.AlertType, r.Recommendation = model.AlertClustering, RecommendClustering
	}
	r.IsHealthy = r.AlertType == model.AlertNone
	return r
}

func insufficient() model.DistributionReport {
	return model.DistributionReport{
		IsNormal:       true,
		IsHealthy:      true,
		AlertType:      model.AlertNone,
		Recommendation: RecommendInsufficient,
		Histogram:      []model.HistogramBin{},
		Status:         model.StatusInsufficientData,
		Note:           RecommendInsufficient,
	}
}

// histogram counts grades per bin. Grades outside 0-10 fall into the
// nearest end bin.
func histogram(grades []float64) []model.HistogramBin {
	out := make([]model.HistogramBin, len(bins))
	for i, b := range bins {
		out[i] = model.HistogramBin{Label: b.label, Low: b.low, High: b.high}
	}
	for _, g := range grades {
		idx := len(bins) - 1
		for i, b := range bins {
			if g < b.high {
				idx = i
				break
			}
		}
		out[idx].Count++
	}
	return out
}
