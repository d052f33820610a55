package distribution_test

import (
	"testing"

	"github.com/optischolar/signals/internal/domain/distribution"
	"github.com/optischolar/signals/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func repeat(pairs ...float64) []float64 {
	var out []float64
	for i := 0; i+1 < len(pairs); i += 2 {
		for n := 0; n < int(pairs[i+1]); n++ {
			out = append(out, pairs[i])
		}
	}
	return out
}

func TestAnalyzeInsufficient(t *testing.T) {
	Convey("Given cohorts smaller than five", t, func() {
		a := distribution.NewAnalyzer()

		for _, grades := range [][]float64{nil, {1}, {1, 2, 3, 4}} {
			r := a.Analyze(grades)

			So(r.Count, ShouldEqual, 0)
			So(r.Mean, ShouldEqual, 0)
			So(r.IsHealthy, ShouldBeTrue)
			So(r.IsNormal, ShouldBeTrue)
			So(r.Recommendation, ShouldEqual, distribution.RecommendInsufficient)
			So(r.Histogram, ShouldBeEmpty)
			So(r.Status, ShouldEqual, model.StatusInsufficientData)
		}
	})
}

func TestAnalyzeSymmetric(t *testing.T) {
	Convey("Given a symmetric bell-shaped cohort", t, func() {
		grades := repeat(3, 1, 4, 3, 5, 6, 6, 9, 7, 6, 8, 3, 9, 1)
		r := distribution.NewAnalyzer().Analyze(grades)

		Convey("Then it should be healthy and normal", func() {
			So(r.Count, ShouldEqual, 29)
			So(r.Mean, ShouldAlmostEqual, 6, 1e-9)
			So(r.Median, ShouldEqual, 6)
			So(r.Skewness, ShouldAlmostEqual, 0, 0.3)
			So(r.Kurtosis, ShouldAlmostEqual, -0.3148, 1e-3)
			So(r.IsHealthy, ShouldBeTrue)
			So(r.IsNormal, ShouldBeTrue)
			So(r.AlertType, ShouldEqual, model.AlertNone)
			So(r.Recommendation, ShouldBeEmpty)
			So(r.Status, ShouldEqual, model.StatusOK)
		})

		Convey("Then the histogram should use half-open bins", func() {
			counts := make([]int, 0, len(r.Histogram))
			for _, b := range r.Histogram {
				counts = append(counts, b.Count)
			}
			So(counts, ShouldResemble, []int{0, 4, 15, 9, 1})
			So(r.Histogram[0].Label, ShouldEqual, "0-2")
			So(r.Histogram[4].Label, ShouldEqual, "9-10")
		})
	})

	Convey("Given a large symmetric cohort", t, func() {
		var grades []float64
		for i := 0; i < 30; i++ {
			grades = append(grades, 4+float64(i)*0.1, 8-float64(i)*0.1)
		}
		grades = append(grades, 6, 6, 6, 6, 6, 6)
		r := distribution.NewAnalyzer().Analyze(grades)

		So(r.Count, ShouldEqual, 66)
		So(r.Skewness, ShouldAlmostEqual, 0, 1e-9)
		So(r.IsHealthy, ShouldBeTrue)
	})
}

func TestAnalyzeAlerts(t *testing.T) {
	Convey("Given skewed cohorts", t, func() {
		a := distribution.NewAnalyzer()
		right := []float64{2, 2.5, 3, 3, 3.5, 3.5, 4, 4, 4, 4.5, 5, 9.5, 10, 3, 3.2}

		Convey("When most grades are low with a few high outliers", func() {
			r := a.Analyze(right)
			So(r.Skewness, ShouldAlmostEqual, 1.7165, 1e-3)
			So(r.AlertType, ShouldEqual, model.AlertInflation)
			So(r.IsHealthy, ShouldBeFalse)
			So(r.Recommendation, ShouldEqual, distribution.RecommendInflation)
		})

		Convey("When the same cohort is mirrored", func() {
			left := make([]float64, len(right))
			for i, g := range right {
				left[i] = 10 - g
			}
			r := a.Analyze(left)
			So(r.AlertType, ShouldEqual, model.AlertDeflation)
			So(r.Recommendation, ShouldEqual, distribution.RecommendDeflation)
		})

		Convey("When a per-call threshold tolerates the skew", func() {
			r := a.With(distribution.WithSkewThreshold(2)).Analyze(right)
			So(r.AlertType, ShouldNotEqual, model.AlertInflation)
		})
	})

	Convey("Given a tightly clustered symmetric cohort", t, func() {
		grades := append(repeat(6, 12), 2, 10)
		r := distribution.NewAnalyzer().Analyze(grades)

		So(r.Skewness, ShouldAlmostEqual, 0, 1e-9)
		So(r.Kurtosis, ShouldAlmostEqual, 4, 1e-9)
		So(r.AlertType, ShouldEqual, model.AlertClustering)
		So(r.Recommendation, ShouldEqual, distribution.RecommendClustering)
	})

	Convey("Given identical grades", t, func() {
		r := distribution.NewAnalyzer().Analyze(repeat(7, 6))

		So(r.Count, ShouldEqual, 6)
		So(r.StdDev, ShouldEqual, 0)
		So(r.Status, ShouldEqual, model.StatusDegenerateInput)
		So(r.IsNormal, ShouldBeFalse)
		So(r.AlertType, ShouldEqual, model.AlertClustering)
		So(r.Histogram[3].Count, ShouldEqual, 6)
	})
}

func TestNormalize(t *testing.T) {
	Convey("Given raw exam scores", t, func() {
		samples := []model.GradeSample{
			{Score: 45, MaxScore: 50},
			{Score: 3, MaxScore: 0},
			{Score: 20, MaxScore: 100},
		}
		So(distribution.Normalize(samples), ShouldResemble, []float64{9, 2})

		Convey("Then out-of-range grades should land in the end bins", func() {
			r := distribution.NewAnalyzer().AnalyzeSamples([]model.GradeSample{
				{Score: 55, MaxScore: 50}, {Score: -1, MaxScore: 10},
				{Score: 5, MaxScore: 10}, {Score: 6, MaxScore: 10}, {Score: 7, MaxScore: 10},
			})
			So(r.Histogram[0].Count, ShouldEqual, 1)
			So(r.Histogram[4].Count, ShouldEqual, 1)
		})
	})
}
