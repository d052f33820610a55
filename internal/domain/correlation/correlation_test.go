package correlation_test

import (
	"testing"

	"github.com/optischolar/signals/internal/domain/correlation"
	"github.com/optischolar/signals/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func subjects(results []model.CorrelationResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Subject
	}
	return out
}

func TestAnalyze(t *testing.T) {
	Convey("Given a student's subjects", t, func() {
		e := correlation.NewEngine()
		series := []model.SubjectSeries{
			{Subject: "Art", AttendanceRates: []float64{70, 85, 60, 95, 75, 65, 90, 80, 70, 85}, Grades: []float64{8.0, 8.2, 7.5, 8.5, 8.0, 8.0, 8.3, 8.0, 7.8, 8.2}},
			{Subject: "Mathematics", AttendanceRates: []float64{95, 90, 85, 92, 88, 95, 80, 85, 90, 92}, Grades: []float64{9.0, 8.5, 8.0, 9.0, 8.2, 9.2, 7.0, 7.5, 8.5, 9.0}},
			{Subject: "Linear", AttendanceRates: []float64{1, 2, 3, 4}, Grades: []float64{2, 4, 6, 8}},
			{Subject: "Short", AttendanceRates: []float64{90, 80}, Grades: []float64{9, 8}},
		}

		Convey("When analyzing them", func() {
			results := e.Analyze(series)

			Convey("Then short subjects should be skipped and the rest ordered by |r|", func() {
				So(subjects(results), ShouldResemble, []string{"Linear", "Mathematics", "Art"})
			})

			Convey("Then a perfectly linear pair should be critical", func() {
				So(results[0].PearsonR, ShouldAlmostEqual, 1, 1e-9)
				So(results[0].Significance, ShouldEqual, model.SignificanceCritical)
				So(results[0].PValue, ShouldAlmostEqual, 0, 1e-6)
				So(results[0].Interpretation, ShouldEqual, correlation.InterpretCritical)
			})

			Convey("Then p-values should follow the t distribution", func() {
				So(results[1].PearsonR, ShouldAlmostEqual, 0.97122, 1e-4)
				So(results[1].Observations, ShouldEqual, 10)
				So(results[2].PValue, ShouldAlmostEqual, 0.00023, 1e-4)
			})
		})

		Convey("When per-call cutoffs are stricter", func() {
			results := e.With(correlation.WithCutoffs(0.99, 0.95)).Analyze(series[:2])
			So(results[0].Significance, ShouldEqual, model.SignificanceModerate)
			So(results[1].Significance, ShouldEqual, model.SignificanceLow)
		})
	})

	Convey("Given mismatched series lengths", t, func() {
		results := correlation.NewEngine().Analyze([]model.SubjectSeries{
			{Subject: "Physics", AttendanceRates: []float64{1, 2, 3, 4, 5, 6}, Grades: []float64{5, 3, 4, 1, 2}},
		})

		Convey("Then both should be truncated to the shorter one", func() {
			So(results, ShouldHaveLength, 1)
			So(results[0].Observations, ShouldEqual, 5)
			So(results[0].PearsonR, ShouldAlmostEqual, -0.8, 1e-9)
			So(results[0].Significance, ShouldEqual, model.SignificanceCritical)
			So(results[0].PValue, ShouldAlmostEqual, 0.10409, 1e-4)
		})
	})

	Convey("Given equal coefficients", t, func() {
		pair := model.SubjectSeries{AttendanceRates: []float64{1, 2, 3}, Grades: []float64{1, 3, 2}}
		first, second := pair, pair
		first.Subject, second.Subject = "First", "Second"

		results := correlation.NewEngine().Analyze([]model.SubjectSeries{first, second})
		So(subjects(results), ShouldResemble, []string{"First", "Second"})
	})

	Convey("Given a constant grade series", t, func() {
		results := correlation.NewEngine().Analyze([]model.SubjectSeries{
			{Subject: "PE", AttendanceRates: []float64{80, 90, 100}, Grades: []float64{10, 10, 10}},
		})

		So(results[0].PearsonR, ShouldEqual, 0)
		So(results[0].PValue, ShouldEqual, 1)
		So(results[0].Significance, ShouldEqual, model.SignificanceLow)
		So(results[0].Status, ShouldEqual, model.StatusDegenerateInput)
		So(results[0].Note, ShouldEqual, correlation.NoteConstant)
	})

	Convey("Given no subjects", t, func() {
		So(correlation.NewEngine().Analyze(nil), ShouldBeEmpty)
	})
}

func TestClassify(t *testing.T) {
	Convey("Given the default cutoffs", t, func() {
		e := correlation.NewEngine()
		So(e.Classify(0.7), ShouldEqual, model.SignificanceCritical)
		So(e.Classify(-0.75), ShouldEqual, model.SignificanceCritical)
		So(e.Classify(0.4), ShouldEqual, model.SignificanceModerate)
		So(e.Classify(0.39), ShouldEqual, model.SignificanceLow)

		Convey("Then invalid cutoffs should be ignored", func() {
			e2 := correlation.NewEngine(correlation.WithCutoffs(0.3, 0.5))
			So(e2.Classify(0.45), ShouldEqual, model.SignificanceModerate)
		})
	})
}
