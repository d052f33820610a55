package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/optischolar/signals/internal/domain/model"
)

// Collection names used by MongoSource.
const (
	studentsCollection = "students"
	cohortsCollection  = "cohorts"
)

type subjectDoc struct {
	Subject         string    `bson:"subject"`
	AttendanceRates []float64 `bson:"attendance_rates"`
	Grades          []float64 `bson:"grades"`
}

type attendanceDoc struct {
	Day    string `bson:"day"`
	Status string `bson:"status"`
}

// studentDoc holds one student's whole history in a single document.
type studentDoc struct {
	ID         string          `bson:"_id"`
	Grades     []float64       `bson:"grades"`
	Subjects   []subjectDoc    `bson:"subjects"`
	Attendance []attendanceDoc `bson:"attendance"`
}

type sampleDoc struct {
	Score    float64 `bson:"score"`
	MaxScore float64 `bson:"max_score"`
}

type cohortDoc struct {
	ID      string      `bson:"_id"`
	Samples []sampleDoc `bson:"samples"`
}

// MongoSource reads histories from MongoDB.
type MongoSource struct {
	client   *mongo.Client
	students *mongo.Collection
	cohorts  *mongo.Collection
}

// NewMongoSource connects to uri and pings the server.
func NewMongoSource(ctx context.Context, uri, database string) (*MongoSource, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	db := client.Database(database)
	return &MongoSource{
		client:   client,
		students: db.Collection(studentsCollection),
		cohorts:  db.Collection(cohortsCollection),
	}, nil
}

// Close disconnects the client.
func (m *MongoSource) Close() error {
	return m.client.Disconnect(context.Background())
}

func (m *MongoSource) student(ctx context.Context, studentID string, fields bson.M) (studentDoc, error) {
	var doc studentDoc
	err := m.students.FindOne(ctx, bson.M{"_id": studentID}, options.FindOne().SetProjection(fields)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return doc, fmt.Errorf("student %s: %w", studentID, ErrNotFound)
	}
	if err != nil {
		return doc, fmt.Errorf("find student %s: %w", studentID, err)
	}
	return doc, nil
}

// GradeHistory implements HistorySource.
func (m *MongoSource) GradeHistory(ctx context.Context, studentID string) ([]float64, error) {
	doc, err := m.student(ctx, studentID, bson.M{"grades": 1})
	if err != nil {
		return nil, err
	}
	if doc.Grades == nil {
		return []float64{}, nil
	}
	return doc.Grades, nil
}

// CohortGrades implements HistorySource.
func (m *MongoSource) CohortGrades(ctx context.Context, examID string) ([]model.GradeSample, error) {
	var doc cohortDoc
	err := m.cohorts.FindOne(ctx, bson.M{"_id": examID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("exam %s: %w", examID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find cohort %s: %w", examID, err)
	}
	return doc.samples(), nil
}

// SubjectSeries implements HistorySource.
func (m *MongoSource) SubjectSeries(ctx context.Context, studentID string) ([]model.SubjectSeries, error) {
	doc, err := m.student(ctx, studentID, bson.M{"subjects": 1})
	if err != nil {
		return nil, err
	}
	return doc.subjectSeries(), nil
}

// Attendance implements HistorySource.
func (m *MongoSource) Attendance(ctx context.Context, studentID string) ([]model.AttendanceRecord, error) {
	doc, err := m.student(ctx, studentID, bson.M{"attendance": 1})
	if err != nil {
		return nil, err
	}
	return doc.attendance()
}

func (m *MongoSource) setStudentField(ctx context.Context, studentID, field string, value any) error {
	_, err := m.students.UpdateOne(ctx,
		bson.M{"_id": studentID},
		bson.M{"$set": bson.M{field: value}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("update %s for %s: %w", field, studentID, err)
	}
	return nil
}

// SaveGrades implements Writer.
func (m *MongoSource) SaveGrades(ctx context.Context, studentID string, grades []float64) error {
	if grades == nil {
		grades = []float64{}
	}
	return m.setStudentField(ctx, studentID, "grades", grades)
}

// SaveCohort implements Writer.
func (m *MongoSource) SaveCohort(ctx context.Context, examID string, samples []model.GradeSample) error {
	_, err := m.cohorts.ReplaceOne(ctx, bson.M{"_id": examID}, newCohortDoc(examID, samples),
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("replace cohort %s: %w", examID, err)
	}
	return nil
}

// SaveSubjects implements Writer.
func (m *MongoSource) SaveSubjects(ctx context.Context, studentID string, series []model.SubjectSeries) error {
	docs, err := newSubjectDocs(series)
	if err != nil {
		return err
	}
	return m.setStudentField(ctx, studentID, "subjects", docs)
}

// SaveAttendance implements Writer.
func (m *MongoSource) SaveAttendance(ctx context.Context, studentID string, records []model.AttendanceRecord) error {
	docs, err := newAttendanceDocs(records)
	if err != nil {
		return err
	}
	return m.setStudentField(ctx, studentID, "attendance", docs)
}

func newCohortDoc(examID string, samples []model.GradeSample) cohortDoc {
	doc := cohortDoc{ID: examID, Samples: make([]sampleDoc, len(samples))}
	for i, s := range samples {
		doc.Samples[i] = sampleDoc{Score: s.Score, MaxScore: s.MaxScore}
	}
	return doc
}

func (d cohortDoc) samples() []model.GradeSample {
	out := make([]model.GradeSample, len(d.Samples))
	for i, s := range d.Samples {
		out[i] = model.GradeSample{Score: s.Score, MaxScore: s.MaxScore}
	}
	return out
}

func newSubjectDocs(series []model.SubjectSeries) ([]subjectDoc, error) {
	docs := make([]subjectDoc, len(series))
	for i, s := range series {
		if s.Subject == "" {
			return nil, fmt.Errorf("subject without a name: %w", ErrInvalidRecord)
		}
		docs[i] = subjectDoc{Subject: s.Subject, AttendanceRates: s.AttendanceRates, Grades: s.Grades}
	}
	return docs, nil
}

func (d studentDoc) subjectSeries() []model.SubjectSeries {
	out := make([]model.SubjectSeries, len(d.Subjects))
	for i, s := range d.Subjects {
		out[i] = model.SubjectSeries{Subject: s.Subject, AttendanceRates: s.AttendanceRates, Grades: s.Grades}
	}
	return out
}

func newAttendanceDocs(records []model.AttendanceRecord) ([]attendanceDoc, error) {
	sorted, err := sortedAttendance(records)
	if err != nil {
		return nil, err
	}
	docs := make([]attendanceDoc, len(sorted))
	for i, r := range sorted {
		docs[i] = attendanceDoc{Day: r.Date.String(), Status: string(r.Status)}
	}
	return docs, nil
}

func (d studentDoc) attendance() ([]model.AttendanceRecord, error) {
	out := make([]model.AttendanceRecord, 0, len(d.Attendance))
	for _, a := range d.Attendance {
		day, err := model.ParseDate(a.Day)
		if err != nil {
			return nil, fmt.Errorf("attendance day %s: %w", a.Day, errors.Join(ErrInvalidRecord, err))
		}
		out = append(out, model.AttendanceRecord{Date: day, Status: model.AttendanceStatus(a.Status)})
	}
	return out, nil
}
