package risk

import (
	"sort"

	"github.com/optischolar/signals/internal/domain/model"
	"github.com/optischolar/signals/internal/domain/stats"
)

// Neutral feature values used when a student has no usable history.
const (
	DefaultAttendanceRate   = 80.0
	DefaultGradeAverage     = 7.0
	DefaultAttendanceTrend  = 0.0
	DefaultDaysSinceAbsence = 5.0
)

// ExtractFeatures derives a feature vector from an attendance log, a grade
// history on the 0-10 scale and the number of surfaced absence patterns.
//
// The attendance rate counts present and late days over all non-excused
// days. The trend is the change in that rate between the older and newer
// half of the log, as a fraction. Days since absence runs from the latest
// absence to the latest record; a log without absences uses its full span.
func ExtractFeatures(records []model.AttendanceRecord, grades []float64, patternCount int) model.FeatureVector {
	f := model.FeatureVector{
		AttendanceRate:   DefaultAttendanceRate,
		GradeAverage:     DefaultGradeAverage,
		AttendanceTrend:  DefaultAttendanceTrend,
		DaysSinceAbsence: DefaultDaysSinceAbsence,
		PatternFlags:     float64(max(0, patternCount)),
	}
	if len(grades) > 0 {
		f.GradeAverage = stats.Clamp(stats.Mean(grades), 0, 10)
	}
	if len(records) == 0 {
		return f
	}

	sorted := append([]model.AttendanceRecord(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date.Time) })

	if rate, ok := attendanceRate(sorted); ok {
		f.AttendanceRate = rate
	}
	if len(sorted) >= 2 {
		half := len(sorted) / 2
		older, okOld := attendanceRate(sorted[:half])
		newer, okNew := attendanceRate(sorted[half:])
		if okOld && okNew {
			f.AttendanceTrend = stats.Clamp((newer-older)/attendanceScale, -1, 1)
		}
	}

	last := sorted[len(sorted)-1].Date
	since := sorted[0].Date
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i].Status == model.AttendanceAbsent {
			since = sorted[i].Date
			break
		}
	}
	f.DaysSinceAbsence = float64(since.DaysUntil(last))
	return f
}

// attendanceRate returns the attended share of non-excused days in percent.
func attendanceRate(records []model.AttendanceRecord) (float64, bool) {
	var attended, counted int
	for _, r := range records {
		switch r.Status {
		case model.AttendancePresent, model.AttendanceLate:
			attended++
			counted++
		case model.AttendanceAbsent:
			counted++
		}
	}
	if counted == 0 {
		return 0, false
	}
	return float64(attended) / float64(counted) * attendanceScale, true
}
