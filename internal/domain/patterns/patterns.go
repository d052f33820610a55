// Package patterns mines recurring absence habits from a student's
// attendance log.
package patterns

import (
	"fmt"
	"sort"
	"time"

	"github.com/optischolar/signals/internal/domain/model"
)

// Default miner configuration.
const (
	DefaultMinConfidence  = 0.6
	DefaultMinOccurrences = 3

	// MinRecords is the smallest log that is mined.
	MinRecords = 10
	// MaxSampleDates caps the sample dates of a weekday match.
	MaxSampleDates = 3
)

// PeriodInsufficient is the analysis period reported for short logs.
const PeriodInsufficient = "Insufficient data"

// Pattern labels.
const (
	LabelConsecutive   = "Tendency for consecutive-day absences"
	LabelAfterWeekend  = "Misses class on Monday after weekend"
	LabelBeforeWeekend = "Misses class on Friday before weekend"
)

// DayLabel returns the label of a weekday pattern.
func DayLabel(day time.Weekday) string {
	return "Frequent absences on " + day.String()
}

// Option configures a Miner.
type Option func(*Miner)

// WithMinConfidence sets the confidence a match needs to be reported.
func WithMinConfidence(c float64) Option {
	return func(m *Miner) {
		if c >= 0 && c <= 1 {
			m.minConfidence = c
		}
	}
}

// WithMinOccurrences sets the occurrences a match needs to be reported.
func WithMinOccurrences(n int) Option {
	return func(m *Miner) {
		if n > 0 {
			m.minOccurrences = n
		}
	}
}

// WithScaling replaces the confidence scaling constants.
func WithScaling(s Scaling) Option {
	return func(m *Miner) {
		m.scaling = s
	}
}

// Miner finds absence patterns. It holds configuration only and is safe
// for concurrent use.
type Miner struct {
	minConfidence  float64
	minOccurrences int
	scaling        Scaling
}

// NewMiner creates a miner with the default filters and scaling.
func NewMiner(opts ...Option) *Miner {
	m := &Miner{
		minConfidence:  DefaultMinConfidence,
		minOccurrences: DefaultMinOccurrences,
		scaling:        DefaultScaling(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// With returns a copy of m with opts applied.
func (m *Miner) With(opts ...Option) *Miner {
	c := *m
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

// Mine runs the weekday, consecutive-day and weekend-boundary passes over
// the missed days of records and returns the matches that clear both
// filters, most confident first.
func (m *Miner) Mine(records []model.AttendanceRecord) model.PatternReport {
	if len(records) < MinRecords {
		return model.PatternReport{
			Patterns:       []model.PatternMatch{},
			AnalysisPeriod: PeriodInsufficient,
			Status:         model.StatusInsufficientData,
		}
	}

	missed := make([]model.Date, 0, len(records))
	first, last := records[0].Date, records[0].Date
	for _, r := range records {
		if r.Date.Before(first.Time) {
			first = r.Date
		}
		if r.Date.After(last.Time) {
			last = r.Date
		}
		if r.Status.Missed() {
			missed = append(missed, r.Date)
		}
	}
	sort.SliceStable(missed, func(i, j int) bool { return missed[i].Before(missed[j].Time) })

	var candidates []model.PatternMatch
	candidates = append(candidates, m.weekdays(missed)...)
	candidates = append(candidates, m.consecutive(missed)...)
	candidates = append(candidates, m.boundaries(missed)...)

	found := make([]model.PatternMatch, 0, len(candidates))
	for _, c := range candidates {
		if c.Confidence >= m.minConfidence && c.Occurrences >= m.minOccurrences {
			found = append(found, c)
		}
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].Confidence > found[j].Confidence })

	return model.PatternReport{
		Patterns:       found,
		AnalysisPeriod: fmt.Sprintf("%s to %s", first, last),
		Status:         model.StatusOK,
	}
}

// weekdays emits a match for each of the most-missed weekdays whose share
// of all missed days is large enough. Ties go to the weekday missed first.
func (m *Miner) weekdays(missed []model.Date) []model.PatternMatch {
	if len(missed) == 0 {
		return nil
	}
	counts := make(map[time.Weekday]int, 7)
	var order []time.Weekday
	for _, d := range missed {
		wd := d.Weekday()
		if counts[wd] == 0 {
			order = append(order, wd)
		}
		counts[wd]++
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > m.scaling.TopDays {
		order = order[:m.scaling.TopDays]
	}

	var out []model.PatternMatch
	total := float64(len(missed))
	for _, wd := range order {
		share := float64(counts[wd]) / total
		if share <= m.scaling.DayShareMin {
			continue
		}
		out = append(out, model.PatternMatch{
			PatternType: DayLabel(wd),
			Kind:        model.PatternDayOfWeek,
			Confidence:  min(m.scaling.DayCap, share*m.scaling.DayFactor),
			Occurrences: counts[wd],
			SampleDates: sampleDates(missed, wd),
		})
	}
	return out
}

// consecutive counts adjacent missed days exactly one calendar day apart.
func (m *Miner) consecutive(missed []model.Date) []model.PatternMatch {
	runs := 0
	for i := 1; i < len(missed); i++ {
		if missed[i-1].DaysUntil(missed[i]) == 1 {
			runs++
		}
	}
	if runs < m.scaling.ConsecutiveMin {
		return nil
	}
	return []model.PatternMatch{{
		PatternType: LabelConsecutive,
		Kind:        model.PatternConsecutive,
		Confidence:  scaled(runs, m.scaling.ConsecutiveFactor, m.scaling.ConsecutiveCap),
		Occurrences: runs,
		SampleDates: []model.Date{},
	}}
}

// boundaries counts missed Mondays and Fridays separately.
func (m *Miner) boundaries(missed []model.Date) []model.PatternMatch {
	var mondays, fridays int
	for _, d := range missed {
		switch d.Weekday() {
		case time.Monday:
			mondays++
		case time.Friday:
			fridays++
		}
	}

	var out []model.PatternMatch
	if mondays >= m.scaling.BoundaryMin {
		out = append(out, model.PatternMatch{
			PatternType: LabelAfterWeekend,
			Kind:        model.PatternAfterWeekend,
			Confidence:  scaled(mondays, m.scaling.MondayFactor, m.scaling.MondayCap),
			Occurrences: mondays,
			SampleDates: []model.Date{},
		})
	}
	if fridays >= m.scaling.BoundaryMin {
		out = append(out, model.PatternMatch{
			PatternType: LabelBeforeWeekend,
			Kind:        model.PatternBeforeWeekend,
			Confidence:  scaled(fridays, m.scaling.FridayFactor, m.scaling.FridayCap),
			Occurrences: fridays,
			SampleDates: []model.Date{},
		})
	}
	return out
}

func sampleDates(missed []model.Date, wd time.Weekday) []model.Date {
	out := make([]model.Date, 0, MaxSampleDates)
	for _, d := range missed {
		if d.Weekday() == wd {
			out = append(out, d)
			if len(out) == MaxSampleDates {
				break
			}
		}
	}
	return out
}
