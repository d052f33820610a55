package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/optischolar/signals/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMongoDocuments(t *testing.T) {
	Convey("Given attendance records out of order", t, func() {
		records := []model.AttendanceRecord{
			{Date: model.NewDate(2024, time.March, 5), Status: model.AttendanceLate},
			{Date: model.NewDate(2024, time.March, 4), Status: model.AttendanceAbsent},
		}

		Convey("When converting to documents and back", func() {
			docs, err := newAttendanceDocs(records)
			So(err, ShouldBeNil)
			got, err := studentDoc{Attendance: docs}.attendance()

			Convey("Then days should be sorted and preserved", func() {
				So(err, ShouldBeNil)
				So(docs[0].Day, ShouldEqual, "2024-03-04")
				So(got[1], ShouldResemble, records[0])
			})
		})

		Convey("When a stored day is malformed", func() {
			_, err := studentDoc{Attendance: []attendanceDoc{{Day: "yesterday", Status: "absent"}}}.attendance()

			Convey("Then decoding should report an invalid record", func() {
				So(errors.Is(err, ErrInvalidRecord), ShouldBeTrue)
			})
		})
	})

	Convey("Given a cohort", t, func() {
		samples := []model.GradeSample{{Score: 42, MaxScore: 50}}
		So(newCohortDoc("EXAM-1", samples).samples(), ShouldResemble, samples)
	})
}
