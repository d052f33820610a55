package model

import "time"

// AttendanceStatus is the outcome recorded for one class day.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceExcused AttendanceStatus = "excused"
)

// Valid reports whether s is one of the known statuses.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused:
		return true
	}
	return false
}

// Missed reports whether the day counts towards absence patterns.
func (s AttendanceStatus) Missed() bool {
	return s == AttendanceAbsent || s == AttendanceLate
}

// AttendanceRecord is one dated entry of a student's attendance log.
// At most one record exists per (student, course, date).
type AttendanceRecord struct {
	Date   Date             `json:"date" validate:"required"`
	Status AttendanceStatus `json:"status" validate:"required,oneof=present absent late excused"`
}

// GradeSample is one cohort member's score for one exam.
type GradeSample struct {
	Score    float64 `json:"score" validate:"gte=0"`
	MaxScore float64 `json:"max_score" validate:"gt=0"`
}

// SubjectSeries pairs attendance rates with grades for one subject.
type SubjectSeries struct {
	Subject         string    `json:"subject" validate:"required"`
	AttendanceRates []float64 `json:"attendance_rates" validate:"required"`
	Grades          []float64 `json:"grades" validate:"required"`
}

// FeatureVector holds the raw inputs of dropout-risk scoring.
type FeatureVector struct {
	AttendanceRate   float64 `json:"attendance_rate" validate:"gte=0,lte=100"`
	GradeAverage     float64 `json:"grade_average" validate:"gte=0,lte=10"`
	AttendanceTrend  float64 `json:"attendance_trend" validate:"gte=-1,lte=1"`
	DaysSinceAbsence float64 `json:"days_since_absence" validate:"gte=0"`
	PatternFlags     float64 `json:"pattern_flags" validate:"gte=0"`
}

// AssessmentJob asks a worker to assess one student.
type AssessmentJob struct {
	JobID       string
	BatchID     string
	StudentID   string
	SubmittedAt time.Time
}
