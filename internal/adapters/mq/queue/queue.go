// Package queue buffers batch assessment jobs between the HTTP layer and
// the worker pool.
package queue

import (
	"context"
	"sync"

	"github.com/optischolar/signals/internal/domain/model"
	"github.com/optischolar/signals/pkg/metrics"
)

// DefaultCapacity is the queue size used when none is configured.
const DefaultCapacity = 10000

// Job is the payload flowing through the queue.
type Job = model.AssessmentJob

// Queue offers non-blocking enqueue and channel-based dequeue.
type Queue interface {
	// Enqueue adds a job without blocking. It returns ErrFull when the queue
	// is at capacity and ErrClosed after Close.
	Enqueue(ctx context.Context, job Job) error

	// Dequeue returns a channel of jobs that is closed once the queue is
	// closed and drained, or when ctx is done.
	Dequeue(ctx context.Context) <-chan Job

	// EnqueueBatch adds every job or none of them. It returns ErrFull when
	// the free space is smaller than the batch.
	EnqueueBatch(ctx context.Context, jobs []Job) error

	// Len returns the number of waiting jobs.
	Len() int

	// Close stops accepting jobs. Waiting jobs are still delivered.
	Close() error
}

// InMemoryQueue implements Queue on a buffered channel.
type InMemoryQueue struct {
	capacity int
	jobs     chan Job

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a queue with DefaultCapacity unless configured.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: DefaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan Job, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue implements Queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueRejected("closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueRejected("canceled")
		return err
	}

	select {
	case q.jobs <- job:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.jobs))
		return nil
	default:
		metrics.RecordQueueRejected("full")
		return ErrFull
	}
}

// EnqueueBatch implements Queue. The write lock keeps other producers out
// between the capacity check and the sends.
func (q *InMemoryQueue) EnqueueBatch(ctx context.Context, jobs []Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		metrics.RecordQueueRejected("closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueRejected("canceled")
		return err
	}
	if free := cap(q.jobs) - len(q.jobs); free < len(jobs) {
		metrics.RecordQueueRejected("full")
		return ErrFull
	}
	for _, job := range jobs {
		q.jobs <- job
		metrics.RecordQueueEnqueue()
	}
	metrics.UpdateQueueSize(len(q.jobs))
	return nil
}

// Dequeue implements Queue.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Job {
	out := make(chan Job)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case job, ok := <-q.jobs:
				if !ok {
					return
				}
				metrics.RecordQueueDequeue()
				metrics.UpdateQueueSize(len(q.jobs))
				select {
				case out <- job:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Len implements Queue.
func (q *InMemoryQueue) Len() int {
	return len(q.jobs)
}

// Capacity returns the configured capacity.
func (q *InMemoryQueue) Capacity() int {
	return q.capacity
}

// Close implements Queue. It is safe to call more than once.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	return nil
}

// IsClosed reports whether Close was called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
