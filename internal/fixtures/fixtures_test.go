package fixtures_test

import (
	"testing"
	"time"

	"github.com/optischolar/signals/internal/domain/model"
	"github.com/optischolar/signals/internal/fixtures"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFixtures(t *testing.T) {
	Convey("Given the demo attendance log", t, func() {
		log := fixtures.MondayHabitLog(fixtures.AttendanceEnd)

		Convey("Then it should hold only weekdays with a Monday habit", func() {
			So(log, ShouldHaveLength, 65)
			var mondays, fridays int
			for _, r := range log {
				So(r.Date.Weekday(), ShouldNotEqual, time.Saturday)
				So(r.Date.Weekday(), ShouldNotEqual, time.Sunday)
				if r.Status.Missed() {
					switch r.Date.Weekday() {
					case time.Monday:
						mondays++
					case time.Friday:
						fridays++
					}
				}
			}
			So(mondays, ShouldEqual, 4)
			So(fridays, ShouldEqual, 3)
		})
	})

	Convey("Given the demo students", t, func() {
		students := fixtures.Students()
		So(students, ShouldHaveLength, 3)
		So(students[0].ID, ShouldEqual, fixtures.AtRiskStudent)

		Convey("Then each call should return independent copies", func() {
			students[0].Grades[0] = 0
			So(fixtures.Students()[0].Grades[0], ShouldEqual, 9.0)
		})

		Convey("Then the perfect log should contain no missed days", func() {
			for _, r := range fixtures.PresentLog(fixtures.AttendanceEnd, 30) {
				So(r.Status, ShouldEqual, model.AttendancePresent)
			}
		})
	})

	Convey("Given the demo cohorts", t, func() {
		So(fixtures.Cohorts()[fixtures.MidtermExam], ShouldHaveLength, 45)
		So(fixtures.Subjects(), ShouldHaveLength, 4)
		So(fixtures.Features(), ShouldContainKey, fixtures.AtRiskStudent)
	})
}
