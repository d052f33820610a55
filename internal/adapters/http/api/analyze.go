package api

import (
	"net/http"

	service "github.com/optischolar/signals/internal/app"
)

// handleAnomaly handles POST /v1/anomaly.
func (s *Server) handleAnomaly(w http.ResponseWriter, r *http.Request) {
	const op = "api.anomaly"
	var req anomalyRequest
	if err := s.validation.decode(r, &req); err != nil {
		s.writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	verdict, err := s.deps.DetectAnomaly(r.Context(), service.AnomalyInput{
		StudentID:  req.StudentID,
		Current:    *req.CurrentScore,
		History:    req.History,
		WindowSize: req.WindowSize,
		Threshold:  req.Threshold,
	})
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, verdict)
}

// handleDistribution handles POST /v1/distribution.
func (s *Server) handleDistribution(w http.ResponseWriter, r *http.Request) {
	const op = "api.distribution"
	var req distributionRequest
	if err := s.validation.decode(r, &req); err != nil {
		s.writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	report, err := s.deps.AnalyzeDistribution(r.Context(), service.DistributionInput{
		ExamID:            req.ExamID,
		Grades:            req.Grades,
		Samples:           req.Samples,
		SkewThreshold:     req.SkewThreshold,
		KurtosisThreshold: req.KurtosisThreshold,
	})
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleCorrelations handles POST /v1/correlations.
func (s *Server) handleCorrelations(w http.ResponseWriter, r *http.Request) {
	const op = "api.correlations"
	var req correlationRequest
	if err := s.validation.decode(r, &req); err != nil {
		s.writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	results, err := s.deps.Correlations(r.Context(), service.CorrelationInput{
		StudentID:      req.StudentID,
		Subjects:       req.Subjects,
		CriticalCutoff: req.CriticalCutoff,
		ModerateCutoff: req.ModerateCutoff,
	})
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, correlationResponse{StudentID: req.StudentID, Correlations: results})
}

// handleRisk handles POST /v1/risk.
func (s *Server) handleRisk(w http.ResponseWriter, r *http.Request) {
	const op = "api.risk"
	var req riskRequest
	if err := s.validation.decode(r, &req); err != nil {
		s.writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	verdict, err := s.deps.PredictRisk(r.Context(), req.StudentID, req.Features)
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, riskResponse{
		StudentID:   req.StudentID,
		AssessedAt:  s.now().UTC(),
		RiskVerdict: verdict,
	})
}

// handlePatterns handles POST /v1/patterns.
func (s *Server) handlePatterns(w http.ResponseWriter, r *http.Request) {
	const op = "api.patterns"
	var req patternRequest
	if err := s.validation.decode(r, &req); err != nil {
		s.writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	report, err := s.deps.MinePatterns(r.Context(), service.PatternInput{
		StudentID:      req.StudentID,
		Records:        req.Records,
		MinConfidence:  req.MinConfidence,
		MinOccurrences: req.MinOccurrences,
	})
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, patternResponse{
		StudentID:      req.StudentID,
		Patterns:       report.Patterns,
		AnalysisPeriod: report.AnalysisPeriod,
		Status:         report.Status,
	})
}
