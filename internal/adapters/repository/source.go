// Package repository reads student histories from the configured store.
package repository

import (
	"context"

	"github.com/optischolar/signals/internal/domain/model"
)

// HistorySource supplies the series the analyzers consume. Implementations
// return ErrNotFound for an unknown student or exam, and an empty slice for
// a known student with no data of the requested kind.
type HistorySource interface {
	// GradeHistory returns grades on the 0-10 scale, oldest first.
	GradeHistory(ctx context.Context, studentID string) ([]float64, error)
	// CohortGrades returns every sample recorded for an exam.
	CohortGrades(ctx context.Context, examID string) ([]model.GradeSample, error)
	// SubjectSeries returns per-subject series in the order subjects were first recorded.
	SubjectSeries(ctx context.Context, studentID string) ([]model.SubjectSeries, error)
	// Attendance returns the attendance log, oldest first.
	Attendance(ctx context.Context, studentID string) ([]model.AttendanceRecord, error)
}

// Writer stores histories. It is used for seeding and is not part of the
// read path.
type Writer interface {
	SaveGrades(ctx context.Context, studentID string, grades []float64) error
	SaveCohort(ctx context.Context, examID string, samples []model.GradeSample) error
	SaveSubjects(ctx context.Context, studentID string, series []model.SubjectSeries) error
	SaveAttendance(ctx context.Context, studentID string, records []model.AttendanceRecord) error
}

// Drivers understood by Open.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// KnownDriver reports whether Open accepts driver.
func KnownDriver(driver string) bool {
	switch driver {
	case DriverMemory, DriverSQLite, DriverPostgres, DriverMongo:
		return true
	}
	return false
}
