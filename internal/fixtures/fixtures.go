// Package fixtures holds demo histories for local runs, seeding and tests.
// Nothing in the analyzers reads from here; callers inject this data through
// a history source.
package fixtures

import (
	"time"

	"github.com/optischolar/signals/internal/domain/model"
)

// Demo identifiers.
const (
	AtRiskStudent = "STU-404"
	SteadyStudent = "STU-101"
	NewStudent    = "STU-202"
	MidtermExam   = "EXAM-MIDTERM"
)

// AttendanceEnd is the last day of the generated attendance logs.
var AttendanceEnd = model.NewDate(2024, time.May, 31)

// Student is one demo student's complete history.
type Student struct {
	ID         string
	Grades     []float64
	Subjects   []model.SubjectSeries
	Attendance []model.AttendanceRecord
}

// Students returns fresh copies of every demo student.
func Students() []Student {
	return []Student{
		{
			ID:         AtRiskStudent,
			Grades:     []float64{9.0, 9.2, 8.8, 9.5, 9.0, 4.0},
			Subjects:   Subjects(),
			Attendance: MondayHabitLog(AttendanceEnd),
		},
		{
			ID:         SteadyStudent,
			Grades:     []float64{7.0, 7.5, 6.8, 7.2, 7.0},
			Subjects:   Subjects()[:2],
			Attendance: PresentLog(AttendanceEnd, 30),
		},
		{
			ID:     NewStudent,
			Grades: []float64{8.1},
		},
	}
}

// Cohorts returns the demo exam cohorts keyed by exam id.
func Cohorts() map[string][]model.GradeSample {
	midterm := []float64{
		8.5, 7.0, 9.0, 6.5, 8.0, 7.5, 9.5, 6.0, 8.5, 7.0,
		8.0, 7.5, 9.0, 6.5, 8.5, 7.0, 8.5, 7.5, 8.0, 7.0,
		9.0, 8.0, 7.5, 8.5, 7.0, 8.0, 9.0, 7.5, 8.0, 7.5,
		3.5, 4.0, 9.5, 10.0, 8.5, 7.0, 8.0, 7.5, 8.5, 7.0,
		8.0, 9.0, 7.5, 8.0, 7.0,
	}
	samples := make([]model.GradeSample, len(midterm))
	for i, g := range midterm {
		samples[i] = model.GradeSample{Score: g, MaxScore: 10}
	}
	return map[string][]model.GradeSample{MidtermExam: samples}
}

// Subjects returns per-subject attendance rates paired with grades.
func Subjects() []model.SubjectSeries {
	return []model.SubjectSeries{
		{
			Subject:         "Mathematics",
			AttendanceRates: []float64{95, 90, 85, 92, 88, 95, 80, 85, 90, 92},
			Grades:          []float64{9.0, 8.5, 8.0, 9.0, 8.2, 9.2, 7.0, 7.5, 8.5, 9.0},
		},
		{
			Subject:         "Physics",
			AttendanceRates: []float64{90, 85, 88, 92, 87, 90, 85, 88, 92, 90},
			Grades:          []float64{8.5, 8.0, 8.2, 8.8, 8.0, 8.5, 7.8, 8.0, 8.7, 8.5},
		},
		{
			Subject:         "Art",
			AttendanceRates: []float64{70, 85, 60, 95, 75, 65, 90, 80, 70, 85},
			Grades:          []float64{8.0, 8.2, 7.5, 8.5, 8.0, 8.0, 8.3, 8.0, 7.8, 8.2},
		},
		{
			Subject:         "History",
			AttendanceRates: []float64{85, 88, 82, 90, 85, 88, 80, 85, 90, 88},
			Grades:          []float64{7.5, 7.8, 7.2, 8.0, 7.5, 7.8, 7.0, 7.5, 8.0, 7.8},
		},
	}
}

// MondayHabitLog returns 90 calendar days of weekday attendance ending at
// end. Every third day back that is a Monday is missed and every fifth day
// back that is a Friday is late.
func MondayHabitLog(end model.Date) []model.AttendanceRecord {
	var out []model.AttendanceRecord
	for i := 0; i < 90; i++ {
		d := model.DateOf(end.AddDate(0, 0, -i))
		wd := d.Weekday()
		if wd == time.Saturday || wd == time.Sunday {
			continue
		}
		status := model.AttendancePresent
		switch {
		case wd == time.Monday && i%3 == 0:
			status = model.AttendanceAbsent
		case wd == time.Friday && i%5 == 0:
			status = model.AttendanceLate
		}
		out = append(out, model.AttendanceRecord{Date: d, Status: status})
	}
	return out
}

// PresentLog returns n consecutive weekdays of perfect attendance ending at end.
func PresentLog(end model.Date, n int) []model.AttendanceRecord {
	out := make([]model.AttendanceRecord, 0, n)
	for i := 0; len(out) < n; i++ {
		d := model.DateOf(end.AddDate(0, 0, -i))
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		out = append(out, model.AttendanceRecord{Date: d, Status: model.AttendancePresent})
	}
	return out
}

// Features returns demo feature vectors keyed by student id.
func Features() map[string]model.FeatureVector {
	return map[string]model.FeatureVector{
		AtRiskStudent: {AttendanceRate: 72, GradeAverage: 6.5, AttendanceTrend: -0.15, DaysSinceAbsence: 3, PatternFlags: 2},
		SteadyStudent: {AttendanceRate: 88, GradeAverage: 7.5, AttendanceTrend: 0.05, DaysSinceAbsence: 12, PatternFlags: 0},
	}
}
