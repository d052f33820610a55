package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleAssessment handles GET /v1/students/{studentID}/assessment.
func (s *Server) handleAssessment(w http.ResponseWriter, r *http.Request) {
	const op = "api.assessment"
	assessment, err := s.deps.Assess(r.Context(), chi.URLParam(r, "studentID"))
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, assessment)
}

// handleBatch handles POST /v1/assessments/batch. Duplicate batch ids are
// acknowledged with 200, new batches with 202.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.batch"
	var req batchRequest
	if err := s.validation.decode(r, &req); err != nil {
		s.writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	receipt, err := s.deps.SubmitBatch(r.Context(), req.BatchID, req.StudentIDs)
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	status := http.StatusAccepted
	if receipt.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, receipt)
}
