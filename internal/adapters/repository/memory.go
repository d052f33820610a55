package repository

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/optischolar/signals/internal/domain/model"
)

// MemorySource keeps histories in maps. It is safe for concurrent use.
type MemorySource struct {
	mu         sync.RWMutex
	grades     map[string][]float64
	subjects   map[string][]model.SubjectSeries
	attendance map[string][]model.AttendanceRecord
	cohorts    map[string][]model.GradeSample
}

// NewMemorySource returns an empty source.
func NewMemorySource() *MemorySource {
	return &MemorySource{
		grades:     make(map[string][]float64),
		subjects:   make(map[string][]model.SubjectSeries),
		attendance: make(map[string][]model.AttendanceRecord),
		cohorts:    make(map[string][]model.GradeSample),
	}
}

// known must be called with the read lock held.
func (m *MemorySource) known(studentID string) bool {
	if _, ok := m.grades[studentID]; ok {
		return true
	}
	if _, ok := m.subjects[studentID]; ok {
		return true
	}
	_, ok := m.attendance[studentID]
	return ok
}

// GradeHistory implements HistorySource.
func (m *MemorySource) GradeHistory(_ context.Context, studentID string) ([]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.known(studentID) {
		return nil, fmt.Errorf("student %s: %w", studentID, ErrNotFound)
	}
	return slices.Clone(m.grades[studentID]), nil
}

// CohortGrades implements HistorySource.
func (m *MemorySource) CohortGrades(_ context.Context, examID string) ([]model.GradeSample, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	samples, ok := m.cohorts[examID]
	if !ok {
		return nil, fmt.Errorf("exam %s: %w", examID, ErrNotFound)
	}
	return slices.Clone(samples), nil
}

// SubjectSeries implements HistorySource.
func (m *MemorySource) SubjectSeries(_ context.Context, studentID string) ([]model.SubjectSeries, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.known(studentID) {
		return nil, fmt.Errorf("student %s: %w", studentID, ErrNotFound)
	}
	src := m.subjects[studentID]
	out := make([]model.SubjectSeries, len(src))
	for i, s := range src {
		out[i] = model.SubjectSeries{
			Subject:         s.Subject,
			AttendanceRates: slices.Clone(s.AttendanceRates),
			Grades:          slices.Clone(s.Grades),
		}
	}
	return out, nil
}

// Attendance implements HistorySource.
func (m *MemorySource) Attendance(_ context.Context, studentID string) ([]model.AttendanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.known(studentID) {
		return nil, fmt.Errorf("student %s: %w", studentID, ErrNotFound)
	}
	return slices.Clone(m.attendance[studentID]), nil
}

// SaveGrades implements Writer.
func (m *MemorySource) SaveGrades(_ context.Context, studentID string, grades []float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grades[studentID] = slices.Clone(grades)
	return nil
}

// SaveCohort implements Writer.
func (m *MemorySource) SaveCohort(_ context.Context, examID string, samples []model.GradeSample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cohorts[examID] = slices.Clone(samples)
	return nil
}

// SaveSubjects implements Writer.
func (m *MemorySource) SaveSubjects(_ context.Context, studentID string, series []model.SubjectSeries) error {
	for _, s := range series {
		if s.Subject == "" {
			return fmt.Errorf("subject without a name: %w", ErrInvalidRecord)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subjects[studentID] = slices.Clone(series)
	return nil
}

// SaveAttendance implements Writer. Records are stored oldest first.
func (m *MemorySource) SaveAttendance(_ context.Context, studentID string, records []model.AttendanceRecord) error {
	sorted, err := sortedAttendance(records)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attendance[studentID] = sorted
	return nil
}

// Close implements Store.
func (m *MemorySource) Close() error { return nil }

func sortedAttendance(records []model.AttendanceRecord) ([]model.AttendanceRecord, error) {
	for _, r := range records {
		if !r.Status.Valid() {
			return nil, fmt.Errorf("attendance status %q: %w", r.Status, ErrInvalidRecord)
		}
	}
	out := slices.Clone(records)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date.Time) })
	return out, nil
}
