package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/optischolar/signals/internal/adapters/mq/queue"
	"github.com/optischolar/signals/internal/adapters/mq/worker"
	"github.com/optischolar/signals/internal/domain/model"
	"github.com/optischolar/signals/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeAssessor struct {
	fail map[string]bool
}

func (f *fakeAssessor) Compute(_ context.Context, studentID string) (model.StudentAssessment, error) {
	if f.fail[studentID] {
		return model.StudentAssessment{}, errors.New("history unavailable")
	}
	return model.StudentAssessment{
		StudentID: studentID,
		Risk:      model.RiskVerdict{RiskLevel: model.RiskMedium, Probability: 0.6},
	}, nil
}

type fakeRecorder struct {
	mu   sync.Mutex
	seen []string
}

func (f *fakeRecorder) Record(_ context.Context, a model.StudentAssessment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, a.StudentID)
	return nil
}

func (f *fakeRecorder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}

func TestWorker(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatal(err)
	}

	Convey("Given a queue holding three jobs", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(10))
		ctx := context.Background()
		for _, id := range []string{"STU-1", "STU-2", "STU-3"} {
			So(q.Enqueue(ctx, queue.Job{JobID: "job-" + id, StudentID: id}), ShouldBeNil)
		}
		recorder := &fakeRecorder{}

		Convey("When a single worker runs until the queue closes", func() {
			w := worker.NewInMemoryWorker(q, &fakeAssessor{}, recorder, worker.WithName("w-test"))
			go w.Run(ctx)
			So(q.Close(), ShouldBeNil)

			Convey("Then every job should be recorded", func() {
				select {
				case <-w.Done():
				case <-time.After(2 * time.Second):
					t.Fatal("worker did not stop")
				}
				So(recorder.count(), ShouldEqual, 3)
			})
		})

		Convey("When one assessment fails", func() {
			w := worker.NewInMemoryWorker(q, &fakeAssessor{fail: map[string]bool{"STU-2": true}}, recorder)
			go w.Run(ctx)
			So(q.Close(), ShouldBeNil)
			<-w.Done()

			Convey("Then the remaining jobs should still be recorded", func() {
				So(recorder.count(), ShouldEqual, 2)
			})
		})

		Convey("When the worker is shut down", func() {
			w := worker.NewInMemoryWorker(q, &fakeAssessor{}, recorder)
			go w.Run(ctx)
			shutdownCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()

			Convey("Then Shutdown should return and be repeatable", func() {
				So(w.Shutdown(shutdownCtx), ShouldBeNil)
				So(w.Shutdown(shutdownCtx), ShouldBeNil)
			})
		})
	})
}

func TestPool(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatal(err)
	}

	Convey("Given a pool of four workers", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(100))
		recorder := &fakeRecorder{}
		pool := worker.NewPool(4, q, &fakeAssessor{}, recorder)
		So(pool.Size(), ShouldEqual, 4)

		ctx := context.Background()
		pool.Start(ctx)
		for i := 0; i < 50; i++ {
			So(q.Enqueue(ctx, queue.Job{JobID: "job", StudentID: "STU"}), ShouldBeNil)
		}

		Convey("When the pool shuts down", func() {
			err := pool.Shutdown(ctx)

			Convey("Then the queue should be drained and closed", func() {
				So(err, ShouldBeNil)
				So(recorder.count(), ShouldEqual, 50)
				So(q.Enqueue(ctx, queue.Job{StudentID: "late"}), ShouldEqual, queue.ErrClosed)
			})
		})
	})

	Convey("Given a non-positive worker count", t, func() {
		pool := worker.NewPool(0, queue.NewInMemoryQueue(), &fakeAssessor{}, &fakeRecorder{})

		Convey("Then the pool should size itself from the CPU count", func() {
			So(pool.Size(), ShouldBeGreaterThan, 0)
		})
	})
}
