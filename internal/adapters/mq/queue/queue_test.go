package queue_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/optischolar/signals/internal/adapters/mq/queue"
	. "github.com/smartystreets/goconvey/convey"
)

func job(id string) queue.Job {
	return queue.Job{JobID: id, BatchID: "batch", StudentID: "STU-" + id, SubmittedAt: time.Now()}
}

func TestInMemoryQueue(t *testing.T) {
	ctx := context.Background()

	Convey("Given a queue with capacity two", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(2))
		So(q.Capacity(), ShouldEqual, 2)
		So(q.Len(), ShouldEqual, 0)

		Convey("When two jobs are enqueued", func() {
			So(q.Enqueue(ctx, job("1")), ShouldBeNil)
			So(q.Enqueue(ctx, job("2")), ShouldBeNil)

			Convey("Then a third should be rejected as backpressure", func() {
				So(q.Enqueue(ctx, job("3")), ShouldEqual, queue.ErrFull)
				So(q.Len(), ShouldEqual, 2)
			})

			Convey("Then they should be delivered in order", func() {
				ch := q.Dequeue(ctx)
				So((<-ch).JobID, ShouldEqual, "1")
				So((<-ch).JobID, ShouldEqual, "2")
			})
		})

		Convey("When a batch larger than the free space is enqueued", func() {
			So(q.Enqueue(ctx, job("1")), ShouldBeNil)
			err := q.EnqueueBatch(ctx, []queue.Job{job("2"), job("3")})

			Convey("Then nothing from the batch should be queued", func() {
				So(err, ShouldEqual, queue.ErrFull)
				So(q.Len(), ShouldEqual, 1)
			})

			Convey("Then a batch that fits should be queued whole", func() {
				So(q.EnqueueBatch(ctx, []queue.Job{job("2")}), ShouldBeNil)
				So(q.Len(), ShouldEqual, 2)
			})
		})

		Convey("When a batch is enqueued after Close", func() {
			So(q.Close(), ShouldBeNil)
			So(q.EnqueueBatch(ctx, []queue.Job{job("1")}), ShouldEqual, queue.ErrClosed)
		})

		Convey("When the context is already canceled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			So(q.Enqueue(cctx, job("1")), ShouldEqual, context.Canceled)
		})

		Convey("When the queue is closed with a job waiting", func() {
			So(q.Enqueue(ctx, job("1")), ShouldBeNil)
			So(q.Close(), ShouldBeNil)
			So(q.Close(), ShouldBeNil)

			Convey("Then new jobs should be refused", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(q.Enqueue(ctx, job("2")), ShouldEqual, queue.ErrClosed)
			})

			Convey("Then the waiting job should drain before the channel closes", func() {
				ch := q.Dequeue(ctx)
				first, ok := <-ch
				So(ok, ShouldBeTrue)
				So(first.JobID, ShouldEqual, "1")
				_, ok = <-ch
				So(ok, ShouldBeFalse)
			})
		})
	})

	Convey("Given concurrent producers", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(1000))
		var wg sync.WaitGroup
		for p := 0; p < 10; p++ {
			wg.Add(1)
			go func(p int) {
				defer wg.Done()
				for i := 0; i < 50; i++ {
					_ = q.Enqueue(ctx, job(fmt.Sprintf("%d-%d", p, i)))
				}
			}(p)
		}
		wg.Wait()
		So(q.Len(), ShouldEqual, 500)

		Convey("Then a canceled consumer should stop", func() {
			cctx, cancel := context.WithCancel(ctx)
			ch := q.Dequeue(cctx)
			<-ch
			cancel()
			deadline := time.After(time.Second)
			for {
				select {
				case _, ok := <-ch:
					if !ok {
						return
					}
				case <-deadline:
					So("consumer still open", ShouldBeEmpty)
					return
				}
			}
		})
	})
}
