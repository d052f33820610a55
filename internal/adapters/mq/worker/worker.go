// Package worker runs batch assessment jobs taken off the queue.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/optischolar/signals/internal/adapters/mq/queue"
	"github.com/optischolar/signals/internal/domain/model"
	"github.com/optischolar/signals/pkg/logger"
	"github.com/optischolar/signals/pkg/metrics"
)

const (
	defaultWorkerMultiplier = 2
	poolShutdownTimeout     = 30 * time.Second
)

// Assessor computes a student's assessment.
type Assessor interface {
	Compute(ctx context.Context, studentID string) (model.StudentAssessment, error)
}

// Recorder stores a finished assessment, for example on the watchlist.
type Recorder interface {
	Record(ctx context.Context, a model.StudentAssessment) error
}

// Queue is where workers receive jobs from.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// InMemoryWorker processes jobs one at a time.
type InMemoryWorker struct {
	queue    Queue
	assessor Assessor
	recorder Recorder
	name     string
	logger   logger.Logger

	shutdown chan struct{}
	done     chan struct{}
}

// NewInMemoryWorker creates a worker reading from q.
func NewInMemoryWorker(q Queue, assessor Assessor, recorder Recorder, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		assessor: assessor,
		recorder: recorder,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run processes jobs until ctx is done, Shutdown is called or the queue closes.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "assessment job failed",
					logger.String("job_id", job.JobID),
					logger.String("student_id", job.StudentID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown stops the worker after its current job.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker %s shutdown: %w", w.name, ctx.Err())
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

func (w *InMemoryWorker) process(ctx context.Context, job queue.Job) error {
	start := time.Now()
	elapsed := func() float64 { return float64(time.Since(start).Microseconds()) / 1000 }

	assessment, err := w.assessor.Compute(ctx, job.StudentID)
	if err != nil {
		metrics.RecordWorkerJob("assess_error", elapsed())
		return fmt.Errorf("assess %s: %w", job.StudentID, err)
	}
	if err := w.recorder.Record(ctx, assessment); err != nil {
		metrics.RecordWorkerJob("record_error", elapsed())
		return fmt.Errorf("record %s: %w", job.StudentID, err)
	}
	metrics.RecordWorkerJob("ok", elapsed())
	w.logger.Debug(ctx, "assessment job done",
		logger.String("job_id", job.JobID),
		logger.String("student_id", job.StudentID),
		logger.String("risk_level", string(assessment.Risk.RiskLevel)),
	)
	return nil
}

// Pool runs a fixed set of workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates count workers. A count below one uses twice the CPU count.
func NewPool(count int, q Queue, assessor Assessor, recorder Recorder) *Pool {
	if count < 1 {
		count = runtime.NumCPU() * defaultWorkerMultiplier
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, count),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		p.workers[i] = NewInMemoryWorker(q, assessor, recorder, WithName("worker-"+strconv.Itoa(i)))
	}
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Start launches every worker.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerCount(len(p.workers))
}

// Shutdown closes the queue, lets workers drain it and waits for them.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "closing queue", logger.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var stuck int
	for i, w := range p.workers {
		select {
		case <-w.Done():
		case <-ctx.Done():
			stuck++
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerCount(0)
	if stuck > 0 {
		return fmt.Errorf("%d workers did not stop: %w", stuck, ctx.Err())
	}
	return nil
}
