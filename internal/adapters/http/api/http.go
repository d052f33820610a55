// Package api exposes the analyzers and the assessment pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	service "github.com/optischolar/signals/internal/app"
	"github.com/optischolar/signals/internal/domain/model"
	"github.com/optischolar/signals/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	DetectAnomaly(ctx context.Context, in service.AnomalyInput) (model.AnomalyVerdict, error)
	AnalyzeDistribution(ctx context.Context, in service.DistributionInput) (model.DistributionReport, error)
	Correlations(ctx context.Context, in service.CorrelationInput) ([]model.CorrelationResult, error)
	PredictRisk(ctx context.Context, studentID string, features *model.FeatureVector) (model.RiskVerdict, error)
	MinePatterns(ctx context.Context, in service.PatternInput) (model.PatternReport, error)

	Assess(ctx context.Context, studentID string) (model.StudentAssessment, error)
	SubmitBatch(ctx context.Context, batchID string, studentIDs []string) (service.BatchReceipt, error)

	Watchlist(ctx context.Context, n int) ([]model.WatchlistEntry, error)
	WatchlistEntry(ctx context.Context, studentID string) (model.WatchlistEntry, error)

	GetStats(ctx context.Context) service.Stats
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps           Dependencies
	validation     *validation
	maxLimit       int
	allowedOrigins []string
	now            func() time.Time
	logger         logger.Logger
}

// NewServer creates a new API server.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:           deps,
		validation:     newValidation(),
		maxLimit:       DefaultMaxWatchlistLimit,
		allowedOrigins: []string{"*"},
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("api")
	}
	return s
}

// Router builds a chi router with middleware and every API route. Extra
// route groups such as the API docs attach through mount.
func (s *Server) Router(mount ...func(chi.Router)) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
	r.Use(MetricsMiddleware)

	s.Register(r)
	for _, m := range mount {
		m(r)
	}
	return r
}

// Register attaches all API routes to r.
func (s *Server) Register(r chi.Router) {
	r.Get("/healthz", HandleHealth)
	r.Get("/stats", s.handleStats)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/anomaly", s.handleAnomaly)
		r.Post("/distribution", s.handleDistribution)
		r.Post("/correlations", s.handleCorrelations)
		r.Post("/risk", s.handleRisk)
		r.Post("/patterns", s.handlePatterns)

		r.Get("/students/{studentID}/assessment", s.handleAssessment)
		r.Post("/assessments/batch", s.handleBatch)

		r.Get("/watchlist", s.handleWatchlist)
		r.Get("/watchlist/{studentID}", s.handleWatchlistEntry)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	resp := errorResponse{Code: code, Message: err.Error()}
	var fields FieldErrors
	if errors.As(err, &fields) {
		resp.Fields = fields
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.String("request_id", middleware.GetReqID(r.Context())),
			logger.Error(err),
		)
	}
	writeJSON(w, status, resp)
}
