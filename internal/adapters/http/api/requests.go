package api

import (
	"time"

	"github.com/optischolar/signals/internal/domain/model"
)

// anomalyRequest mirrors the OpenAPI schema for POST /v1/anomaly.
type anomalyRequest struct {
	StudentID    string    `json:"student_id" validate:"required_without=History"`
	CurrentScore *float64  `json:"current_score" validate:"required,gte=0,lte=10"`
	History      []float64 `json:"history" validate:"omitempty,dive,gte=0,lte=10"`
	WindowSize   int       `json:"window_size" validate:"omitempty,gte=1,lte=100"`
	Threshold    float64   `json:"threshold" validate:"omitempty,gt=0"`
}

type distributionRequest struct {
	ExamID            string              `json:"exam_id" validate:"required_without_all=Grades Samples"`
	Grades            []float64           `json:"grades" validate:"omitempty,dive,gte=0,lte=10"`
	Samples           []model.GradeSample `json:"samples" validate:"omitempty,dive"`
	SkewThreshold     float64             `json:"skew_threshold" validate:"omitempty,gt=0"`
	KurtosisThreshold float64             `json:"kurtosis_threshold" validate:"omitempty,gt=0"`
}

type correlationRequest struct {
	StudentID      string                `json:"student_id" validate:"required"`
	Subjects       []model.SubjectSeries `json:"subjects" validate:"omitempty,dive"`
	CriticalCutoff float64               `json:"critical_cutoff" validate:"omitempty,gt=0,lte=1"`
	ModerateCutoff float64               `json:"moderate_cutoff" validate:"omitempty,gt=0,lt=1"`
}

type correlationResponse struct {
	StudentID    string                    `json:"student_id"`
	Correlations []model.CorrelationResult `json:"correlations"`
}

type riskRequest struct {
	StudentID string               `json:"student_id" validate:"required"`
	Features  *model.FeatureVector `json:"features" validate:"omitempty"`
}

type riskResponse struct {
	StudentID  string    `json:"student_id"`
	AssessedAt time.Time `json:"assessed_at"`
	model.RiskVerdict
}

type patternRequest struct {
	StudentID      string                   `json:"student_id" validate:"required"`
	Records        []model.AttendanceRecord `json:"records" validate:"omitempty,dive"`
	MinConfidence  float64                  `json:"min_confidence" validate:"omitempty,gt=0,lte=1"`
	MinOccurrences int                      `json:"min_occurrences" validate:"omitempty,gte=1"`
}

type patternResponse struct {
	StudentID      string               `json:"student_id"`
	Patterns       []model.PatternMatch `json:"patterns"`
	AnalysisPeriod string               `json:"analysis_period"`
	Status         model.Status         `json:"status"`
}

type batchRequest struct {
	BatchID    string   `json:"batch_id" validate:"omitempty,max=128"`
	StudentIDs []string `json:"student_ids" validate:"required,min=1,max=10000,dive,required"`
}

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Fields  FieldErrors `json:"fields,omitempty"`
}
