package anomaly_test

import (
	"testing"

	"github.com/optischolar/signals/internal/domain/anomaly"
	"github.com/optischolar/signals/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDetectInsufficientHistory(t *testing.T) {
	Convey("Given histories shorter than three scores", t, func() {
		d := anomaly.NewDetector()

		for _, history := range [][]float64{nil, {8}, {8, 9}} {
			v := d.Detect(history, 2)

			So(v.IsAnomaly, ShouldBeFalse)
			So(v.HistoricalStd, ShouldEqual, 0)
			So(v.ZScore, ShouldEqual, 0)
			So(v.HistoricalMean, ShouldEqual, 2)
			So(v.WindowSize, ShouldEqual, len(history))
			So(v.Status, ShouldEqual, model.StatusInsufficientData)
			So(v.Note, ShouldEqual, anomaly.NoteInsufficient)
			So(v.AlertLevel, ShouldEqual, model.AlertNormal)
		}
	})

	Convey("Given a window smaller than the minimum", t, func() {
		v := anomaly.NewDetector(anomaly.WithWindowSize(2)).Detect([]float64{7, 7, 7, 7}, 1)
		So(v.Status, ShouldEqual, model.StatusInsufficientData)
		So(v.WindowSize, ShouldEqual, 2)
	})
}

func TestDetectFlatHistory(t *testing.T) {
	Convey("Given five identical scores", t, func() {
		d := anomaly.NewDetector()

		Convey("When the current score matches them", func() {
			v := d.Detect([]float64{7, 7, 7, 7, 7}, 7)

			Convey("Then z should be zero with a clamped spread", func() {
				So(v.ZScore, ShouldEqual, 0)
				So(v.IsAnomaly, ShouldBeFalse)
				So(v.HistoricalStd, ShouldEqual, 1.0)
				So(v.Status, ShouldEqual, model.StatusDegenerateInput)
				So(v.Direction, ShouldEqual, model.DirectionNone)
			})
		})

		Convey("When the current score is three points away", func() {
			v := d.Detect([]float64{7, 7, 7, 7, 7}, 10)
			So(v.ZScore, ShouldEqual, 3)
			So(v.IsAnomaly, ShouldBeTrue)
			So(v.Direction, ShouldEqual, model.DirectionSpike)
		})
	})
}

func TestDetectDirections(t *testing.T) {
	Convey("Given a consistently high-performing student", t, func() {
		d := anomaly.NewDetector()
		history := []float64{9.0, 9.2, 8.8, 9.5, 9.0}

		Convey("When the score collapses to 4.0", func() {
			v := d.Detect(history, 4.0)

			Convey("Then it should be flagged as a drop", func() {
				So(v.IsAnomaly, ShouldBeTrue)
				So(v.Direction, ShouldEqual, model.DirectionDrop)
				So(v.ZScore, ShouldAlmostEqual, -21.5514, 1e-3)
				So(v.HistoricalMean, ShouldAlmostEqual, 9.1, 1e-9)
				So(v.AlertLevel, ShouldEqual, model.AlertWarning)
				So(v.Recommendation, ShouldEqual, anomaly.RecommendDrop)
				So(v.Status, ShouldEqual, model.StatusOK)
			})
		})

		Convey("When the score jumps above the threshold", func() {
			v := d.Detect(history, 9.9)
			So(v.IsAnomaly, ShouldBeTrue)
			So(v.Direction, ShouldEqual, model.DirectionSpike)
			So(v.Recommendation, ShouldEqual, anomaly.RecommendSpike)
		})

		Convey("When a per-call threshold is stricter", func() {
			v := d.With(anomaly.WithThreshold(4)).Detect(history, 9.9)
			So(v.IsAnomaly, ShouldBeFalse)
			So(v.Recommendation, ShouldBeEmpty)

			Convey("Then the shared detector should keep its default", func() {
				So(d.Threshold(), ShouldEqual, anomaly.DefaultThreshold)
			})
		})
	})

	Convey("Given a long history", t, func() {
		history := []float64{1, 1, 1, 1, 1, 9.0, 9.2, 8.8, 9.5, 9.0}
		v := anomaly.NewDetector().Detect(history, 9.1)

		Convey("Then only the trailing window should count", func() {
			So(v.WindowSize, ShouldEqual, 5)
			So(v.HistoricalMean, ShouldAlmostEqual, 9.1, 1e-9)
			So(v.IsAnomaly, ShouldBeFalse)
		})
	})

	Convey("Given invalid options", t, func() {
		d := anomaly.NewDetector(anomaly.WithWindowSize(0), anomaly.WithThreshold(-1))
		So(d.WindowSize(), ShouldEqual, anomaly.DefaultWindowSize)
		So(d.Threshold(), ShouldEqual, anomaly.DefaultThreshold)
	})
}
