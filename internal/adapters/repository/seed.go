package repository

import (
	"context"
	"fmt"

	"github.com/optischolar/signals/internal/fixtures"
)

// Seed writes the demo students and cohorts into w.
func Seed(ctx context.Context, w Writer) error {
	for _, s := range fixtures.Students() {
		if err := w.SaveGrades(ctx, s.ID, s.Grades); err != nil {
			return fmt.Errorf("seed grades for %s: %w", s.ID, err)
		}
		if err := w.SaveSubjects(ctx, s.ID, s.Subjects); err != nil {
			return fmt.Errorf("seed subjects for %s: %w", s.ID, err)
		}
		if err := w.SaveAttendance(ctx, s.ID, s.Attendance); err != nil {
			return fmt.Errorf("seed attendance for %s: %w", s.ID, err)
		}
	}
	for examID, samples := range fixtures.Cohorts() {
		if err := w.SaveCohort(ctx, examID, samples); err != nil {
			return fmt.Errorf("seed cohort %s: %w", examID, err)
		}
	}
	return nil
}
