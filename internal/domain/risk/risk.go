// Package risk scores dropout risk from a student's normalized features with
// a fixed logistic model.
package risk

import (
	"fmt"
	"strconv"

	"github.com/optischolar/signals/internal/domain/model"
	"github.com/optischolar/signals/internal/domain/stats"
)

// Default level thresholds on the probability.
const (
	DefaultCriticalThreshold = 0.85
	DefaultHighThreshold     = 0.7
	DefaultMediumThreshold   = 0.4

	// MaxActions caps the recommendation list.
	MaxActions = 5
)

// Factor labels.
const (
	FactorAttendance = "Attendance rate"
	FactorGrades     = "Grade average"
	FactorTrend      = "Attendance trend"
	FactorPatterns   = "Absence patterns"
)

// Normalization bounds and factor cutoffs on normalized features.
const (
	attendanceScale  = 100.0
	gradeScale       = 10.0
	daysScale        = 30.0
	flagsScale       = 5.0
	lowAttendance    = 0.75
	lowGrades        = 0.6
	manyPatternFlags = 0.4
)

// Model holds the logistic regression coefficients.
type Model struct {
	Intercept        float64
	AttendanceRate   float64
	GradeAverage     float64
	AttendanceTrend  float64
	DaysSinceAbsence float64
	PatternFlags     float64
}

// DefaultModel returns the coefficients the classifier ships with.
func DefaultModel() Model {
	return Model{
		Intercept:        4.0,
		AttendanceRate:   -3.5,
		GradeAverage:     -2.5,
		AttendanceTrend:  -1.5,
		DaysSinceAbsence: -0.8,
		PatternFlags:     1.2,
	}
}

// Normalized holds features mapped onto [0,1] ([-1,1] for the trend).
type Normalized struct {
	AttendanceRate   float64
	GradeAverage     float64
	AttendanceTrend  float64
	DaysSinceAbsence float64
	PatternFlags     float64
}

// Normalize maps raw features onto the model's fixed bounds.
func Normalize(f model.FeatureVector) Normalized {
	return Normalized{
		AttendanceRate:   f.AttendanceRate / attendanceScale,
		GradeAverage:     f.GradeAverage / gradeScale,
		AttendanceTrend:  stats.Clamp(f.AttendanceTrend, -1, 1),
		DaysSinceAbsence: min(1, f.DaysSinceAbsence/daysScale),
		PatternFlags:     min(1, f.PatternFlags/flagsScale),
	}
}

// LogOdds evaluates the linear part of the model.
func (m Model) LogOdds(n Normalized) float64 {
	return m.Intercept +
		m.AttendanceRate*n.AttendanceRate +
		m.GradeAverage*n.GradeAverage +
		m.AttendanceTrend*n.AttendanceTrend +
		m.DaysSinceAbsence*n.DaysSinceAbsence +
		m.PatternFlags*n.PatternFlags
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithThresholds sets the probability cutoffs of the critical, high and
// medium levels. Cutoffs that are not strictly descending within (0,1) are
// ignored.
func WithThresholds(critical, high, medium float64) Option {
	return func(c *Classifier) {
		if 0 < medium && medium < high && high < critical && critical < 1 {
			c.critical, c.high, c.medium = critical, high, medium
		}
	}
}

// WithModel replaces the regression coefficients.
func WithModel(m Model) Option {
	return func(c *Classifier) {
		c.model = m
	}
}

// Classifier turns feature vectors into risk verdicts. It holds
// configuration only and is safe for concurrent use.
type Classifier struct {
	model    Model
	critical float64
	high     float64
	medium   float64
}

// NewClassifier creates a classifier with the default model and thresholds.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{
		model:    DefaultModel(),
		critical: DefaultCriticalThreshold,
		high:     DefaultHighThreshold,
		medium:   DefaultMediumThreshold,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// With returns a copy of c with opts applied.
func (c *Classifier) With(opts ...Option) *Classifier {
	cp := *c
	for _, opt := range opts {
		opt(&cp)
	}
	return &cp
}

// Predict scores f. Factors are derived from the features themselves,
// independently of the probability.
func (c *Classifier) Predict(f model.FeatureVector) model.RiskVerdict {
	n := Normalize(f)
	logOdds := c.model.LogOdds(n)
	p := stats.Sigmoid(logOdds)
	level := c.Level(p)
	factors := contributingFactors(f, n)
	return model.RiskVerdict{
		RiskLevel:           level,
		Probability:         p,
		LogOdds:             logOdds,
		ContributingFactors: factors,
		RecommendedActions:  recommendations(level, factors),
		Status:              model.StatusOK,
	}
}

// Level buckets a probability.
func (c *Classifier) Level(p float64) model.RiskLevel {
	switch {
	case p >= c.critical:
		return model.RiskCritical
	case p >= c.high:
		return model.RiskHigh
	case p >= c.medium:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

func contributingFactors(f model.FeatureVector, n Normalized) []model.Factor {
	factors := make([]model.Factor, 0, 4)
	if n.AttendanceRate < lowAttendance {
		factors = append(factors, model.Factor{
			Factor: FactorAttendance,
			Value:  fmt.Sprintf("%.0f%%", f.AttendanceRate),
			Impact: model.ImpactHigh,
		})
	}
	if n.GradeAverage < lowGrades {
		factors = append(factors, model.Factor{
			Factor: FactorGrades,
			Value:  fmt.Sprintf("%.1f/10", f.GradeAverage),
			Impact: model.ImpactHigh,
		})
	}
	if n.AttendanceTrend < 0 {
		factors = append(factors, model.Factor{
			Factor: FactorTrend,
			Value:  "declining",
			Impact: model.ImpactMedium,
		})
	}
	if n.PatternFlags > manyPatternFlags {
		factors = append(factors, model.Factor{
			Factor: FactorPatterns,
			Value:  strconv.FormatFloat(f.PatternFlags, 'f', -1, 64) + " flags",
			Impact: model.ImpactMedium,
		})
	}
	return factors
}

var (
	escalationActions = []string{
		"Schedule immediate meeting with counselor",
		"Assign peer mentor for support",
		"Contact parent/guardian",
	}
	outreachActions = []string{
		"Send personalized check-in message",
		"Recommend tutoring resources",
	}
	monitoringActions = []string{
		"Continue regular monitoring",
		"Encourage participation in study groups",
	}
	factorActions = map[string]string{
		FactorAttendance: "Review attendance barriers (transportation, health)",
		FactorGrades:     "Provide subject-specific study materials",
		FactorTrend:      "Monitor closely over next 2 weeks",
	}
)

func recommendations(level model.RiskLevel, factors []model.Factor) []string {
	var actions []string
	switch level {
	case model.RiskCritical, model.RiskHigh:
		actions = append(actions, escalationActions...)
	case model.RiskMedium:
		actions = append(actions, outreachActions...)
	}
	for _, f := range factors {
		if a, ok := factorActions[f.Factor]; ok {
			actions = append(actions, a)
		}
	}
	if len(actions) == 0 {
		actions = append(actions, monitoringActions...)
	}
	if len(actions) > MaxActions {
		actions = actions[:MaxActions]
	}
	return actions
}
