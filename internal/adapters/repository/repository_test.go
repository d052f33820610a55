package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/optischolar/signals/internal/adapters/repository"
	"github.com/optischolar/signals/internal/domain/model"
	"github.com/optischolar/signals/internal/fixtures"
	. "github.com/smartystreets/goconvey/convey"
)

// exerciseStore runs the same read-after-write checks against any backend.
func exerciseStore(ctx context.Context, store repository.Store) {
	Convey("When the demo fixtures are seeded", func() {
		So(repository.Seed(ctx, store), ShouldBeNil)

		Convey("Then grade history should come back in order", func() {
			grades, err := store.GradeHistory(ctx, fixtures.AtRiskStudent)
			So(err, ShouldBeNil)
			So(grades, ShouldResemble, []float64{9.0, 9.2, 8.8, 9.5, 9.0, 4.0})
		})

		Convey("Then subjects should keep their first-seen order", func() {
			series, err := store.SubjectSeries(ctx, fixtures.AtRiskStudent)
			So(err, ShouldBeNil)
			So(len(series), ShouldEqual, 4)
			So(series[0].Subject, ShouldEqual, "Mathematics")
			So(series[3].Subject, ShouldEqual, "History")
			So(series[2].AttendanceRates, ShouldResemble, fixtures.Subjects()[2].AttendanceRates)
		})

		Convey("Then attendance should be returned oldest first", func() {
			records, err := store.Attendance(ctx, fixtures.AtRiskStudent)
			So(err, ShouldBeNil)
			So(len(records), ShouldEqual, 65)
			So(records[0].Date.Before(records[len(records)-1].Date.Time), ShouldBeTrue)
			So(records[len(records)-1].Date.String(), ShouldEqual, "2024-05-31")
		})

		Convey("Then a known student without data should yield empty series", func() {
			records, err := store.Attendance(ctx, fixtures.NewStudent)
			So(err, ShouldBeNil)
			So(records, ShouldBeEmpty)
			series, err := store.SubjectSeries(ctx, fixtures.NewStudent)
			So(err, ShouldBeNil)
			So(series, ShouldBeEmpty)
		})

		Convey("Then the cohort should be readable", func() {
			samples, err := store.CohortGrades(ctx, fixtures.MidtermExam)
			So(err, ShouldBeNil)
			So(len(samples), ShouldEqual, 45)
			So(samples[0], ShouldResemble, model.GradeSample{Score: 8.5, MaxScore: 10})
		})

		Convey("Then saving again should replace the history", func() {
			So(store.SaveGrades(ctx, fixtures.AtRiskStudent, []float64{5, 6}), ShouldBeNil)
			grades, err := store.GradeHistory(ctx, fixtures.AtRiskStudent)
			So(err, ShouldBeNil)
			So(grades, ShouldResemble, []float64{5, 6})
		})
	})

	Convey("When asking for unknown keys", func() {
		_, err := store.GradeHistory(ctx, "STU-missing")
		So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		_, err = store.Attendance(ctx, "STU-missing")
		So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		_, err = store.CohortGrades(ctx, "EXAM-missing")
		So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
	})

	Convey("When saving an attendance record with an unknown status", func() {
		err := store.SaveAttendance(ctx, "STU-1", []model.AttendanceRecord{
			{Date: model.NewDate(2024, time.March, 4), Status: "sick"},
		})

		Convey("Then the write should be rejected", func() {
			So(errors.Is(err, repository.ErrInvalidRecord), ShouldBeTrue)
		})
	})
}

func TestMemorySource(t *testing.T) {
	Convey("Given an empty memory source", t, func() {
		ctx := context.Background()
		exerciseStore(ctx, repository.NewMemorySource())
	})
}

func TestSQLSource(t *testing.T) {
	Convey("Given an in-memory SQLite source", t, func() {
		ctx := context.Background()
		store, err := repository.NewSQLSource(ctx, repository.DriverSQLite, ":memory:")
		So(err, ShouldBeNil)
		Reset(func() { _ = store.Close() })

		Convey("Then migrating twice should be a no-op", func() {
			So(store.Migrate(ctx), ShouldBeNil)
		})

		Convey("Then subjects of unequal length should round-trip", func() {
			series := []model.SubjectSeries{{Subject: "Chemistry", AttendanceRates: []float64{90, 80, 70}, Grades: []float64{8, 7}}}
			So(store.SaveSubjects(ctx, "STU-9", series), ShouldBeNil)
			got, err := store.SubjectSeries(ctx, "STU-9")
			So(err, ShouldBeNil)
			So(got, ShouldResemble, series)
		})

		exerciseStore(ctx, store)
	})
}

func TestOpen(t *testing.T) {
	Convey("Given the memory driver", t, func() {
		store, err := repository.Open(context.Background(), repository.DriverMemory, "", "")
		So(err, ShouldBeNil)

		Convey("Then the fixtures should already be loaded", func() {
			grades, err := store.GradeHistory(context.Background(), fixtures.SteadyStudent)
			So(err, ShouldBeNil)
			So(len(grades), ShouldEqual, 5)
		})
	})

	Convey("Given an unknown driver", t, func() {
		_, err := repository.Open(context.Background(), "csv", "", "")

		Convey("Then Open should fail", func() {
			So(errors.Is(err, repository.ErrUnknownDriver), ShouldBeTrue)
			So(repository.KnownDriver("csv"), ShouldBeFalse)
			So(repository.KnownDriver(repository.DriverMongo), ShouldBeTrue)
		})
	})
}

type slowSource struct {
	repository.HistorySource
}

func (slowSource) GradeHistory(ctx context.Context, _ string) ([]float64, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestInstrumented(t *testing.T) {
	Convey("Given a source that never answers", t, func() {
		src := repository.NewInstrumented(slowSource{}, 20*time.Millisecond)

		Convey("Then the fetch should time out", func() {
			_, err := src.GradeHistory(context.Background(), "STU-1")
			So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
		})
	})

	Convey("Given a seeded memory source behind the wrapper", t, func() {
		mem := repository.NewMemorySource()
		So(repository.Seed(context.Background(), mem), ShouldBeNil)
		src := repository.NewInstrumented(mem, time.Second)

		Convey("Then reads should pass through", func() {
			records, err := src.Attendance(context.Background(), fixtures.SteadyStudent)
			So(err, ShouldBeNil)
			So(len(records), ShouldEqual, 30)
		})
	})
}
