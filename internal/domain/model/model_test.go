package model_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/optischolar/signals/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDate(t *testing.T) {
	Convey("Given calendar dates", t, func() {
		Convey("When parsing the plain date layout", func() {
			d, err := model.ParseDate("2024-03-04")

			Convey("Then it should land on midnight UTC", func() {
				So(err, ShouldBeNil)
				So(d.String(), ShouldEqual, "2024-03-04")
				So(d.Weekday(), ShouldEqual, time.Monday)
				So(d.Hour(), ShouldEqual, 0)
			})
		})

		Convey("When parsing an RFC3339 timestamp", func() {
			d, err := model.ParseDate("2024-03-04T15:04:05Z")
			So(err, ShouldBeNil)
			So(d, ShouldEqual, model.NewDate(2024, time.March, 4))
		})

		Convey("When parsing garbage", func() {
			_, err := model.ParseDate("04/03/2024")
			So(err, ShouldNotBeNil)
		})

		Convey("When counting days between two dates", func() {
			a := model.NewDate(2024, time.February, 28)
			b := model.NewDate(2024, time.March, 1)
			So(a.DaysUntil(b), ShouldEqual, 2)
			So(b.DaysUntil(a), ShouldEqual, -2)
		})
	})
}

func TestAttendanceRecordJSON(t *testing.T) {
	Convey("Given an attendance record", t, func() {
		rec := model.AttendanceRecord{Date: model.NewDate(2024, time.January, 8), Status: model.AttendanceAbsent}

		Convey("When encoding it", func() {
			b, err := json.Marshal(rec)

			Convey("Then the date should use the short layout", func() {
				So(err, ShouldBeNil)
				So(string(b), ShouldEqual, `{"date":"2024-01-08","status":"absent"}`)
			})

			Convey("Then decoding should restore it", func() {
				var back model.AttendanceRecord
				So(json.Unmarshal(b, &back), ShouldBeNil)
				So(back, ShouldResemble, rec)
			})
		})

		Convey("When decoding a non-string date", func() {
			var back model.AttendanceRecord
			So(json.Unmarshal([]byte(`{"date":20240108,"status":"absent"}`), &back), ShouldNotBeNil)
		})
	})
}

func TestAttendanceStatus(t *testing.T) {
	Convey("Given attendance statuses", t, func() {
		So(model.AttendanceAbsent.Missed(), ShouldBeTrue)
		So(model.AttendanceLate.Missed(), ShouldBeTrue)
		So(model.AttendancePresent.Missed(), ShouldBeFalse)
		So(model.AttendanceExcused.Missed(), ShouldBeFalse)
		So(model.AttendanceExcused.Valid(), ShouldBeTrue)
		So(model.AttendanceStatus("sick").Valid(), ShouldBeFalse)
	})
}

func TestVerdictFieldNames(t *testing.T) {
	Convey("Given verdicts encoded as JSON", t, func() {
		decode := func(v any) map[string]any {
			b, err := json.Marshal(v)
			So(err, ShouldBeNil)
			out := map[string]any{}
			So(json.Unmarshal(b, &out), ShouldBeNil)
			return out
		}

		So(decode(model.AnomalyVerdict{}), ShouldContainKey, "is_anomaly")
		So(decode(model.AnomalyVerdict{}), ShouldContainKey, "z_score")
		So(decode(model.RiskVerdict{}), ShouldContainKey, "risk_level")
		So(decode(model.RiskVerdict{}), ShouldContainKey, "probability")
		So(decode(model.CorrelationResult{}), ShouldContainKey, "pearson_r")
		So(decode(model.PatternMatch{}), ShouldContainKey, "pattern_type")
		So(decode(model.PatternMatch{}), ShouldContainKey, "confidence")
		So(decode(model.DistributionReport{}), ShouldContainKey, "is_healthy")
	})
}
