// Package correlation measures how strongly attendance tracks grades in each
// of a student's subjects.
package correlation

import (
	"math"
	"sort"

	"github.com/optischolar/signals/internal/domain/model"
	"github.com/optischolar/signals/internal/domain/stats"
)

// Default significance cutoffs on |r|.
const (
	DefaultCriticalCutoff = 0.7
	DefaultModerateCutoff = 0.4

	// MinObservations is the smallest paired series that is correlated.
	MinObservations = 3
)

// Interpretation texts per significance class.
const (
	InterpretCritical = "Strong correlation - attendance highly impacts grades"
	InterpretModerate = "Moderate correlation - attendance matters for this subject"
	InterpretLow      = "Weak correlation - flexible attendance may be acceptable"
	NoteConstant      = "Attendance or grades are constant; correlation is undefined"
)

// Option configures an Engine.
type Option func(*Engine)

// WithCutoffs sets the |r| cutoffs for the critical and moderate classes.
// Pairs that are not positive and strictly ordered are ignored.
func WithCutoffs(critical, moderate float64) Option {
	return func(e *Engine) {
		if moderate > 0 && critical > moderate && critical <= 1 {
			e.critical = critical
			e.moderate = moderate
		}
	}
}

// Engine correlates paired attendance and grade series. It holds
// configuration only and is safe for concurrent use.
type Engine struct {
	critical float64
	moderate float64
}

// NewEngine creates an engine with the default cutoffs.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		critical: DefaultCriticalCutoff,
		moderate: DefaultModerateCutoff,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// With returns a copy of e with opts applied.
func (e *Engine) With(opts ...Option) *Engine {
	c := *e
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

// Cutoffs returns the critical and moderate cutoffs on |r|.
func (e *Engine) Cutoffs() (critical, moderate float64) {
	return e.critical, e.moderate
}

// Analyze correlates every subject with at least MinObservations pairs.
// Mismatched series are truncated to the shorter length and shorter ones
// are skipped. Results are ordered by |r| descending, ties keeping input order.
func (e *Engine) Analyze(series []model.SubjectSeries) []model.CorrelationResult {
	results := make([]model.CorrelationResult, 0, len(series))
	for _, s := range series {
		n := min(len(s.AttendanceRates), len(s.Grades))
		if n < MinObservations {
			continue
		}
		results = append(results, e.correlate(s.Subject, s.AttendanceRates[:n], s.Grades[:n]))
	}
	sort.SliceStable(results, func(i, j int) bool {
		return math.Abs(results[i].PearsonR) > math.Abs(results[j].PearsonR)
	})
	return results
}

func (e *Engine) correlate(subject string, attendance, grades []float64) model.CorrelationResult {
	res := model.CorrelationResult{
		Subject:      subject,
		Observations: len(attendance),
		Status:       model.StatusOK,
	}
	// Both slices are non-empty and equal length here.
	r, _ := stats.Pearson(attendance, grades)
	if stats.Variance(attendance) == 0 || stats.Variance(grades) == 0 {
		res.Status = model.StatusDegenerateInput
		res.Note = NoteConstant
		r = 0
	}
	res.PearsonR = r
	res.PValue = stats.PearsonPValue(r, len(attendance))
	res.Significance, res.Interpretation = e.classify(r)
	return res
}

// Classify returns the significance class of r.
func (e *Engine) Classify(r float64) model.Significance {
	s, _ := e.classify(r)
	return s
}

func (e *Engine) classify(r float64) (model.Significance, string) {
	switch abs := math.Abs(r); {
	case abs >= e.critical:
		return model.SignificanceCritical, InterpretCritical
	case abs >= e.moderate:
		return model.SignificanceModerate, InterpretModerate
	default:
		return model.SignificanceLow, InterpretLow
	}
}
