// Package service wires the analyzers to history, cache, watchlist and the
// batch pipeline. It implements the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/optischolar/signals/internal/adapters/cache"
	"github.com/optischolar/signals/internal/adapters/mq/queue"
	"github.com/optischolar/signals/internal/adapters/mq/worker"
	"github.com/optischolar/signals/internal/adapters/repository"
	"github.com/optischolar/signals/internal/adapters/watchlist"
	"github.com/optischolar/signals/internal/domain/anomaly"
	"github.com/optischolar/signals/internal/domain/correlation"
	"github.com/optischolar/signals/internal/domain/dedupe"
	"github.com/optischolar/signals/internal/domain/distribution"
	"github.com/optischolar/signals/internal/domain/model"
	"github.com/optischolar/signals/internal/domain/patterns"
	"github.com/optischolar/signals/internal/domain/risk"
	"github.com/optischolar/signals/pkg/logger"
	"github.com/optischolar/signals/pkg/metrics"
)

// Service runs analyses for the HTTP API and the batch workers.
type Service struct {
	mu sync.RWMutex

	source    repository.HistorySource
	cache     cache.AssessmentCache
	watchlist *watchlist.Watchlist
	deduper   dedupe.Deduper
	queue     *queue.InMemoryQueue
	pool      *worker.Pool

	detector     *anomaly.Detector
	distribution *distribution.Analyzer
	correlation  *correlation.Engine
	classifier   *risk.Classifier
	miner        *patterns.Miner

	workerCount int
	queueSize   int
	dedupeSize  int

	started bool
	now     func() time.Time
	logger  logger.Logger
}

// New constructs a Service. Without WithSource it reads from an empty
// in-memory source.
func New(opts ...Option) *Service {
	s := &Service{
		source:       repository.NewMemorySource(),
		cache:        cache.Noop{},
		detector:     anomaly.NewDetector(),
		distribution: distribution.NewAnalyzer(),
		correlation:  correlation.NewEngine(),
		classifier:   risk.NewClassifier(),
		miner:        patterns.NewMiner(),
		workerCount:  runtime.NumCPU() * 2,
		queueSize:    queue.DefaultCapacity,
		dedupeSize:   dedupe.DefaultMaxSize,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.watchlist = watchlist.New(watchlist.WithClock(s.now))
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	return s
}

// Start launches the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.queue.IsClosed() {
		return ErrQueueClosed
	}
	s.pool = worker.NewPool(s.workerCount, s.queue, s, s)
	// Workers outlive ctx so that accepted jobs drain in Stop.
	s.pool.Start(context.WithoutCancel(ctx))
	s.started = true

	s.logger.Info(ctx, "signals service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
	)
	return nil
}

// Stop closes the queue and waits for queued jobs to finish.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return s.queue.Close()
	}
	s.logger.Info(ctx, "stopping signals service")
	err := s.pool.Shutdown(ctx)
	s.started = false
	s.logger.Info(ctx, "signals service stopped")
	return err
}

// AnomalyInput asks whether Current is unusual for a student.
type AnomalyInput struct {
	StudentID string
	Current   float64
	// History is fetched from the source when nil.
	History    []float64
	WindowSize int
	Threshold  float64
}

// DetectAnomaly scores one grade against the student's recent history.
func (s *Service) DetectAnomaly(ctx context.Context, in AnomalyInput) (model.AnomalyVerdict, error) {
	history := in.History
	if history == nil {
		if in.StudentID == "" {
			return model.AnomalyVerdict{}, ErrNoInput
		}
		var err error
		if history, err = s.source.GradeHistory(ctx, in.StudentID); err != nil {
			return model.AnomalyVerdict{}, sourceErr("grade history", err)
		}
	}
	d := s.detector.With(anomaly.WithWindowSize(in.WindowSize), anomaly.WithThreshold(in.Threshold))
	return s.detect(d, history, in.Current), nil
}

func (s *Service) detect(d *anomaly.Detector, history []float64, current float64) model.AnomalyVerdict {
	start := time.Now()
	v := d.Detect(history, current)
	metrics.RecordAnalysis("anomaly", string(v.Status), sinceMs(start))
	if v.IsAnomaly {
		metrics.RecordAnomaly(string(v.Direction))
	}
	return v
}

// DistributionInput selects a cohort to analyze. Grades take precedence over
// Samples; with neither, the exam's samples are fetched.
type DistributionInput struct {
	ExamID            string
	Grades            []float64
	Samples           []model.GradeSample
	SkewThreshold     float64
	KurtosisThreshold float64
}

// AnalyzeDistribution checks a cohort's grade distribution.
func (s *Service) AnalyzeDistribution(ctx context.Context, in DistributionInput) (model.DistributionReport, error) {
	a := s.distribution.With(
		distribution.WithSkewThreshold(in.SkewThreshold),
		distribution.WithKurtosisThreshold(in.KurtosisThreshold),
	)
	grades := in.Grades
	if grades == nil {
		samples := in.Samples
		if samples == nil {
			if in.ExamID == "" {
				return model.DistributionReport{}, ErrNoInput
			}
			var err error
			if samples, err = s.source.CohortGrades(ctx, in.ExamID); err != nil {
				return model.DistributionReport{}, sourceErr("cohort grades", err)
			}
		}
		grades = distribution.Normalize(samples)
	}

	start := time.Now()
	report := a.Analyze(grades)
	metrics.RecordAnalysis("distribution", string(report.Status), sinceMs(start))
	if !report.IsHealthy {
		metrics.RecordDistributionAlert(string(report.AlertType))
	}
	return report, nil
}

// CorrelationInput selects the subject series to correlate.
type CorrelationInput struct {
	StudentID string
	// Subjects are fetched from the source when nil.
	Subjects []model.SubjectSeries
	// A zero cutoff keeps the engine's default.
	CriticalCutoff float64
	ModerateCutoff float64
}

// Correlations relates attendance to grades per subject.
func (s *Service) Correlations(ctx context.Context, in CorrelationInput) ([]model.CorrelationResult, error) {
	critical, moderate := s.correlation.Cutoffs()
	if in.CriticalCutoff > 0 {
		critical = in.CriticalCutoff
	}
	if in.ModerateCutoff > 0 {
		moderate = in.ModerateCutoff
	}
	if moderate <= 0 || moderate >= critical || critical > 1 {
		return nil, fmt.Errorf("%w: critical %.2f, moderate %.2f", ErrInvalidCutoffs, critical, moderate)
	}
	e := s.correlation.With(correlation.WithCutoffs(critical, moderate))

	subjects := in.Subjects
	if subjects == nil {
		var err error
		if subjects, err = s.source.SubjectSeries(ctx, in.StudentID); err != nil {
			return nil, sourceErr("subject series", err)
		}
	}
	return s.correlate(e, subjects), nil
}

func (s *Service) correlate(e *correlation.Engine, subjects []model.SubjectSeries) []model.CorrelationResult {
	start := time.Now()
	results := e.Analyze(subjects)
	metrics.RecordAnalysis("correlation", string(model.StatusOK), sinceMs(start))
	return results
}

// PatternInput selects an attendance log to mine.
type PatternInput struct {
	StudentID string
	// Records are fetched from the source when nil.
	Records []model.AttendanceRecord
	// Zero filters keep the miner's defaults.
	MinConfidence  float64
	MinOccurrences int
}

// MinePatterns finds recurring absence patterns.
func (s *Service) MinePatterns(ctx context.Context, in PatternInput) (model.PatternReport, error) {
	records := in.Records
	if records == nil {
		var err error
		if records, err = s.source.Attendance(ctx, in.StudentID); err != nil {
			return model.PatternReport{}, sourceErr("attendance", err)
		}
	}
	m := s.miner
	if in.MinConfidence > 0 {
		m = m.With(patterns.WithMinConfidence(in.MinConfidence))
	}
	if in.MinOccurrences > 0 {
		m = m.With(patterns.WithMinOccurrences(in.MinOccurrences))
	}
	return s.mine(m, records), nil
}

func (s *Service) mine(m *patterns.Miner, records []model.AttendanceRecord) model.PatternReport {
	start := time.Now()
	report := m.Mine(records)
	metrics.RecordAnalysis("patterns", string(report.Status), sinceMs(start))
	for _, p := range report.Patterns {
		metrics.RecordPattern(string(p.Kind))
	}
	return report
}

// PredictRisk scores dropout risk. Without features they are extracted from
// the student's attendance, grades and mined patterns.
func (s *Service) PredictRisk(ctx context.Context, studentID string, features *model.FeatureVector) (model.RiskVerdict, error) {
	var f model.FeatureVector
	if features != nil {
		f = *features
	} else {
		h, err := s.fetchHistory(ctx, studentID)
		if err != nil {
			return model.RiskVerdict{}, err
		}
		report := s.mine(s.miner, h.attendance)
		f = risk.ExtractFeatures(h.attendance, h.grades, len(report.Patterns))
	}
	return s.predict(f), nil
}

func (s *Service) predict(f model.FeatureVector) model.RiskVerdict {
	start := time.Now()
	v := s.classifier.Predict(f)
	metrics.RecordAnalysis("risk", string(v.Status), sinceMs(start))
	metrics.RecordRiskLevel(string(v.RiskLevel))
	return v
}

type history struct {
	grades     []float64
	subjects   []model.SubjectSeries
	attendance []model.AttendanceRecord
}

// fetchHistory loads every series of one student concurrently.
func (s *Service) fetchHistory(ctx context.Context, studentID string) (history, error) {
	var h history
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		h.grades, err = s.source.GradeHistory(gctx, studentID)
		return sourceErr("grade history", err)
	})
	g.Go(func() (err error) {
		h.subjects, err = s.source.SubjectSeries(gctx, studentID)
		return sourceErr("subject series", err)
	})
	g.Go(func() (err error) {
		h.attendance, err = s.source.Attendance(gctx, studentID)
		return sourceErr("attendance", err)
	})
	if err := g.Wait(); err != nil {
		return history{}, err
	}
	return h, nil
}

// Assess returns the student's cached assessment or computes and records a
// fresh one.
func (s *Service) Assess(ctx context.Context, studentID string) (model.StudentAssessment, error) {
	cached, err := s.cache.Get(ctx, studentID)
	if err != nil {
		s.logger.Warn(ctx, "assessment cache read failed", logger.String("student_id", studentID), logger.Error(err))
	}
	if cached != nil {
		return *cached, nil
	}
	a, err := s.Compute(ctx, studentID)
	if err != nil {
		return model.StudentAssessment{}, err
	}
	if err := s.Record(ctx, a); err != nil {
		return model.StudentAssessment{}, err
	}
	return a, nil
}

// Compute runs every per-student analysis. The latest grade is scored
// against the ones before it; risk consumes the mined pattern count.
func (s *Service) Compute(ctx context.Context, studentID string) (model.StudentAssessment, error) {
	h, err := s.fetchHistory(ctx, studentID)
	if err != nil {
		return model.StudentAssessment{}, err
	}

	a := model.StudentAssessment{
		AssessmentID: uuid.NewString(),
		StudentID:    studentID,
		AssessedAt:   s.now().UTC(),
	}

	var g errgroup.Group
	if n := len(h.grades); n > 0 {
		g.Go(func() error {
			v := s.detect(s.detector, h.grades[:n-1], h.grades[n-1])
			a.Anomaly = &v
			return nil
		})
	}
	g.Go(func() error {
		a.Correlations = s.correlate(s.correlation, h.subjects)
		return nil
	})
	g.Go(func() error {
		a.Patterns = s.mine(s.miner, h.attendance)
		return nil
	})
	_ = g.Wait()

	a.Features = risk.ExtractFeatures(h.attendance, h.grades, len(a.Patterns.Patterns))
	a.Risk = s.predict(a.Features)
	return a, nil
}

// Record places the assessment on the watchlist and in the cache. Cache
// failures are logged and otherwise ignored.
func (s *Service) Record(ctx context.Context, a model.StudentAssessment) error {
	if err := s.watchlist.Upsert(ctx, a.StudentID, a.Risk.Probability, a.Risk.RiskLevel); err != nil {
		return fmt.Errorf("watchlist upsert %s: %w", a.StudentID, err)
	}
	if err := s.cache.Set(ctx, a); err != nil {
		s.logger.Warn(ctx, "assessment cache write failed", logger.String("student_id", a.StudentID), logger.Error(err))
	}
	return nil
}

// BatchReceipt acknowledges a batch submission.
type BatchReceipt struct {
	BatchID   string `json:"batch_id"`
	Accepted  int    `json:"accepted"`
	Duplicate bool   `json:"duplicate"`
}

// SubmitBatch queues one assessment job per distinct student. A batch id
// seen before is acknowledged without queuing anything; an empty id gets a
// generated one. The batch is queued whole or not at all, so on
// backpressure the id is released and the caller can retry it.
func (s *Service) SubmitBatch(ctx context.Context, batchID string, studentIDs []string) (BatchReceipt, error) {
	if batchID == "" {
		batchID = uuid.NewString()
	}
	receipt := BatchReceipt{BatchID: batchID}
	if s.deduper.SeenAndRecord(ctx, batchID) {
		metrics.RecordBatchDuplicate()
		receipt.Duplicate = true
		return receipt, nil
	}

	seen := make(map[string]struct{}, len(studentIDs))
	jobs := make([]queue.Job, 0, len(studentIDs))
	submitted := s.now().UTC()
	for _, id := range studentIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		jobs = append(jobs, queue.Job{
			JobID:       uuid.NewString(),
			BatchID:     batchID,
			StudentID:   id,
			SubmittedAt: submitted,
		})
	}

	if err := s.queue.EnqueueBatch(ctx, jobs); err != nil {
		s.deduper.Unrecord(ctx, batchID)
		switch {
		case errors.Is(err, queue.ErrFull):
			err = fmt.Errorf("%w: %d jobs do not fit", ErrBackpressure, len(jobs))
		case errors.Is(err, queue.ErrClosed):
			err = ErrQueueClosed
		}
		return receipt, err
	}
	receipt.Accepted = len(jobs)

	s.logger.Debug(ctx, "batch queued",
		logger.String("batch_id", batchID),
		logger.Int("jobs", receipt.Accepted),
	)
	return receipt, nil
}

// Watchlist returns the n students most at risk.
func (s *Service) Watchlist(ctx context.Context, n int) ([]model.WatchlistEntry, error) {
	return s.watchlist.TopN(ctx, n)
}

// WatchlistEntry returns one student's watchlist position.
func (s *Service) WatchlistEntry(ctx context.Context, studentID string) (model.WatchlistEntry, error) {
	return s.watchlist.Rank(ctx, studentID)
}

// Stats is a point-in-time view of the service.
type Stats struct {
	Started       bool `json:"started"`
	WorkerCount   int  `json:"worker_count"`
	QueueLength   int  `json:"queue_length"`
	QueueCapacity int  `json:"queue_capacity"`
	DedupeSize    int  `json:"dedupe_size"`
	Watchlisted   int  `json:"watchlisted"`
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{
		Started:       s.started,
		WorkerCount:   s.workerCount,
		QueueLength:   s.queue.Len(),
		QueueCapacity: s.queue.Capacity(),
		DedupeSize:    s.deduper.Size(),
		Watchlisted:   s.watchlist.Count(ctx),
	}
	metrics.UpdateQueueSize(st.QueueLength)
	return st
}

func sourceErr(op string, err error) error {
	if err == nil || errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrSource, err)
}

func sinceMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
