package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/optischolar/signals/internal/domain/model"
	"github.com/optischolar/signals/pkg/metrics"
)

// Store is a readable and writable history backend.
type Store interface {
	HistorySource
	Writer
	Close() error
}

// Open returns the store for driver. The memory store starts seeded with the
// demo fixtures.
func Open(ctx context.Context, driver, dsn, database string) (Store, error) {
	switch driver {
	case DriverMemory:
		m := NewMemorySource()
		if err := Seed(ctx, m); err != nil {
			return nil, err
		}
		return m, nil
	case DriverSQLite, DriverPostgres:
		return NewSQLSource(ctx, driver, dsn)
	case DriverMongo:
		return NewMongoSource(ctx, dsn, database)
	default:
		return nil, fmt.Errorf("%q: %w", driver, ErrUnknownDriver)
	}
}

// Instrumented bounds every fetch by a timeout and records its latency.
type Instrumented struct {
	next    HistorySource
	timeout time.Duration
}

// NewInstrumented wraps next. A non-positive timeout disables the bound.
func NewInstrumented(next HistorySource, timeout time.Duration) *Instrumented {
	return &Instrumented{next: next, timeout: timeout}
}

func fetch[T any](ctx context.Context, i *Instrumented, series string, fn func(context.Context) (T, error)) (T, error) {
	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}
	start := time.Now()
	v, err := fn(ctx)
	metrics.RecordFetch(series, float64(time.Since(start).Microseconds())/1000, err != nil)
	return v, err
}

// GradeHistory implements HistorySource.
func (i *Instrumented) GradeHistory(ctx context.Context, studentID string) ([]float64, error) {
	return fetch(ctx, i, "grades", func(ctx context.Context) ([]float64, error) {
		return i.next.GradeHistory(ctx, studentID)
	})
}

// CohortGrades implements HistorySource.
func (i *Instrumented) CohortGrades(ctx context.Context, examID string) ([]model.GradeSample, error) {
	return fetch(ctx, i, "cohort", func(ctx context.Context) ([]model.GradeSample, error) {
		return i.next.CohortGrades(ctx, examID)
	})
}

// SubjectSeries implements HistorySource.
func (i *Instrumented) SubjectSeries(ctx context.Context, studentID string) ([]model.SubjectSeries, error) {
	return fetch(ctx, i, "subjects", func(ctx context.Context) ([]model.SubjectSeries, error) {
		return i.next.SubjectSeries(ctx, studentID)
	})
}

// Attendance implements HistorySource.
func (i *Instrumented) Attendance(ctx context.Context, studentID string) ([]model.AttendanceRecord, error) {
	return fetch(ctx, i, "attendance", func(ctx context.Context) ([]model.AttendanceRecord, error) {
		return i.next.Attendance(ctx, studentID)
	})
}
