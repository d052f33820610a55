package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"  // postgres driver
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/optischolar/signals/internal/domain/model"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// SQLSource reads histories from SQLite or PostgreSQL through sqlx.
type SQLSource struct {
	db *sqlx.DB
}

// NewSQLSource connects with the given driver ("sqlite" or "postgres") and
// applies pending migrations.
func NewSQLSource(ctx context.Context, driver, dsn string) (*SQLSource, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	switch driver {
	case DriverSQLite:
		// One writer at a time; an in-memory database also lives per connection.
		db.SetMaxOpenConns(1)
	default:
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	s := &SQLSource{db: db}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *SQLSource) Close() error {
	return s.db.Close()
}

// Migrate applies every embedded migration not yet recorded in
// schema_migrations, in file name order.
func (s *SQLSource) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY, applied_at TEXT NOT NULL)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := fs.ReadDir(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, e := range entries {
		version, err := migrationVersion(e.Name())
		if err != nil {
			return err
		}
		var applied int
		if err := s.db.GetContext(ctx, &applied,
			s.db.Rebind(`SELECT COUNT(*) FROM schema_migrations WHERE version = ?`), version); err != nil {
			return fmt.Errorf("check migration %d: %w", version, err)
		}
		if applied > 0 {
			continue
		}
		body, err := migrationFS.ReadFile("migrations/" + e.Name())
		if err != nil {
			return fmt.Errorf("read migration %s: %w", e.Name(), err)
		}
		if err := s.inTx(ctx, func(tx *sqlx.Tx) error {
			for _, stmt := range strings.Split(string(body), ";") {
				if strings.TrimSpace(stmt) == "" {
					continue
				}
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return err
				}
			}
			_, err := tx.ExecContext(ctx,
				tx.Rebind(`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`),
				version, time.Now().UTC().Format(time.RFC3339))
			return err
		}); err != nil {
			return fmt.Errorf("apply migration %s: %w", e.Name(), err)
		}
	}
	return nil
}

func migrationVersion(name string) (int, error) {
	prefix, _, ok := strings.Cut(name, "_")
	if !ok {
		return 0, fmt.Errorf("migration %s: missing version prefix", name)
	}
	v, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, fmt.Errorf("migration %s: %w", name, err)
	}
	return v, nil
}

func (s *SQLSource) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *SQLSource) requireStudent(ctx context.Context, studentID string) error {
	var n int
	if err := s.db.GetContext(ctx, &n,
		s.db.Rebind(`SELECT COUNT(*) FROM students WHERE id = ?`), studentID); err != nil {
		return fmt.Errorf("lookup student %s: %w", studentID, err)
	}
	if n == 0 {
		return fmt.Errorf("student %s: %w", studentID, ErrNotFound)
	}
	return nil
}

// GradeHistory implements HistorySource.
func (s *SQLSource) GradeHistory(ctx context.Context, studentID string) ([]float64, error) {
	if err := s.requireStudent(ctx, studentID); err != nil {
		return nil, err
	}
	grades := []float64{}
	if err := s.db.SelectContext(ctx, &grades,
		s.db.Rebind(`SELECT score FROM grades WHERE student_id = ? ORDER BY seq`), studentID); err != nil {
		return nil, fmt.Errorf("select grades: %w", err)
	}
	return grades, nil
}

type cohortRow struct {
	Score    float64 `db:"score"`
	MaxScore float64 `db:"max_score"`
}

// CohortGrades implements HistorySource.
func (s *SQLSource) CohortGrades(ctx context.Context, examID string) ([]model.GradeSample, error) {
	var rows []cohortRow
	if err := s.db.SelectContext(ctx, &rows,
		s.db.Rebind(`SELECT score, max_score FROM cohort_grades WHERE exam_id = ? ORDER BY seq`), examID); err != nil {
		return nil, fmt.Errorf("select cohort: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("exam %s: %w", examID, ErrNotFound)
	}
	out := make([]model.GradeSample, len(rows))
	for i, r := range rows {
		out[i] = model.GradeSample{Score: r.Score, MaxScore: r.MaxScore}
	}
	return out, nil
}

type subjectRow struct {
	Subject        string          `db:"subject"`
	AttendanceRate sql.NullFloat64 `db:"attendance_rate"`
	Grade          sql.NullFloat64 `db:"grade"`
}

// SubjectSeries implements HistorySource.
func (s *SQLSource) SubjectSeries(ctx context.Context, studentID string) ([]model.SubjectSeries, error) {
	if err := s.requireStudent(ctx, studentID); err != nil {
		return nil, err
	}
	var rows []subjectRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(
		`SELECT subject, attendance_rate, grade FROM subject_observations
		 WHERE student_id = ? ORDER BY subject_order, seq`), studentID); err != nil {
		return nil, fmt.Errorf("select subjects: %w", err)
	}

	out := []model.SubjectSeries{}
	for _, r := range rows {
		if len(out) == 0 || out[len(out)-1].Subject != r.Subject {
			out = append(out, model.SubjectSeries{Subject: r.Subject, AttendanceRates: []float64{}, Grades: []float64{}})
		}
		cur := &out[len(out)-1]
		if r.AttendanceRate.Valid {
			cur.AttendanceRates = append(cur.AttendanceRates, r.AttendanceRate.Float64)
		}
		if r.Grade.Valid {
			cur.Grades = append(cur.Grades, r.Grade.Float64)
		}
	}
	return out, nil
}

type attendanceRow struct {
	Day    string `db:"day"`
	Status string `db:"status"`
}

// Attendance implements HistorySource.
func (s *SQLSource) Attendance(ctx context.Context, studentID string) ([]model.AttendanceRecord, error) {
	if err := s.requireStudent(ctx, studentID); err != nil {
		return nil, err
	}
	var rows []attendanceRow
	if err := s.db.SelectContext(ctx, &rows,
		s.db.Rebind(`SELECT day, status FROM attendance WHERE student_id = ? ORDER BY day`), studentID); err != nil {
		return nil, fmt.Errorf("select attendance: %w", err)
	}
	out := make([]model.AttendanceRecord, 0, len(rows))
	for _, r := range rows {
		d, err := model.ParseDate(r.Day)
		if err != nil {
			return nil, fmt.Errorf("attendance row %s: %w", r.Day, errors.Join(ErrInvalidRecord, err))
		}
		out = append(out, model.AttendanceRecord{Date: d, Status: model.AttendanceStatus(r.Status)})
	}
	return out, nil
}

func (s *SQLSource) ensureStudent(ctx context.Context, tx *sqlx.Tx, studentID string) error {
	_, err := tx.ExecContext(ctx,
		tx.Rebind(`INSERT INTO students (id) VALUES (?) ON CONFLICT (id) DO NOTHING`), studentID)
	return err
}

// SaveGrades implements Writer. It replaces the student's grade history.
func (s *SQLSource) SaveGrades(ctx context.Context, studentID string, grades []float64) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.ensureStudent(ctx, tx, studentID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM grades WHERE student_id = ?`), studentID); err != nil {
			return err
		}
		stmt := tx.Rebind(`INSERT INTO grades (student_id, seq, score) VALUES (?, ?, ?)`)
		for i, g := range grades {
			if _, err := tx.ExecContext(ctx, stmt, studentID, i, g); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveCohort implements Writer. It replaces the exam's samples.
func (s *SQLSource) SaveCohort(ctx context.Context, examID string, samples []model.GradeSample) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM cohort_grades WHERE exam_id = ?`), examID); err != nil {
			return err
		}
		stmt := tx.Rebind(`INSERT INTO cohort_grades (exam_id, seq, score, max_score) VALUES (?, ?, ?, ?)`)
		for i, g := range samples {
			if _, err := tx.ExecContext(ctx, stmt, examID, i, g.Score, g.MaxScore); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveSubjects implements Writer. It replaces every subject of the student.
func (s *SQLSource) SaveSubjects(ctx context.Context, studentID string, series []model.SubjectSeries) error {
	for _, sub := range series {
		if sub.Subject == "" {
			return fmt.Errorf("subject without a name: %w", ErrInvalidRecord)
		}
	}
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.ensureStudent(ctx, tx, studentID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			tx.Rebind(`DELETE FROM subject_observations WHERE student_id = ?`), studentID); err != nil {
			return err
		}
		stmt := tx.Rebind(`INSERT INTO subject_observations
			(student_id, subject, subject_order, seq, attendance_rate, grade) VALUES (?, ?, ?, ?, ?, ?)`)
		for order, sub := range series {
			n := max(len(sub.AttendanceRates), len(sub.Grades))
			for i := 0; i < n; i++ {
				if _, err := tx.ExecContext(ctx, stmt, studentID, sub.Subject, order, i,
					nullAt(sub.AttendanceRates, i), nullAt(sub.Grades, i)); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func nullAt(xs []float64, i int) sql.NullFloat64 {
	if i < len(xs) {
		return sql.NullFloat64{Float64: xs[i], Valid: true}
	}
	return sql.NullFloat64{}
}

// SaveAttendance implements Writer. It replaces the student's log.
func (s *SQLSource) SaveAttendance(ctx context.Context, studentID string, records []model.AttendanceRecord) error {
	sorted, err := sortedAttendance(records)
	if err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.ensureStudent(ctx, tx, studentID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM attendance WHERE student_id = ?`), studentID); err != nil {
			return err
		}
		stmt := tx.Rebind(`INSERT INTO attendance (student_id, day, status) VALUES (?, ?, ?)
			ON CONFLICT (student_id, day) DO UPDATE SET status = excluded.status`)
		for _, r := range sorted {
			if _, err := tx.ExecContext(ctx, stmt, studentID, r.Date.String(), string(r.Status)); err != nil {
				return err
			}
		}
		return nil
	})
}
