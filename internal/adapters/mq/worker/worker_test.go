package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/cfcoach/internal/adapters/mq/queue"
	"github.com/okian/cfcoach/internal/adapters/mq/worker"
	"github.com/okian/cfcoach/internal/domain/model"
	logging "github.com/okian/cfcoach/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type recordingRunner struct {
	mu      sync.Mutex
	seen    []string
	fail    map[string]error
	active  int
	overlap bool
	delay   time.Duration
	ran     chan string
}

func newRecordingRunner() *recordingRunner {
	return &recordingRunner{fail: map[string]error{}, ran: make(chan string, 16)}
}

func (r *recordingRunner) RunOnce(_ context.Context, t model.Trigger) error {
	r.mu.Lock()
	r.active++
	if r.active > 1 {
		r.overlap = true
	}
	r.mu.Unlock()

	time.Sleep(r.delay)

	r.mu.Lock()
	r.active--
	r.seen = append(r.seen, t.ID)
	err := r.fail[t.ID]
	r.mu.Unlock()
	r.ran <- t.ID
	return err
}

func waitFor(ch <-chan string) string {
	select {
	case id := <-ch:
		return id
	case <-time.After(2 * time.Second):
		return ""
	}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker reading from a queue", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue(queue.WithCapacity(4))
		runner := newRecordingRunner()
		w := worker.NewInMemoryWorker(q, runner,
			worker.WithName("runs"),
			worker.WithLogger(logging.Discard()),
		)
		go w.Run(ctx)

		convey.Convey("When a trigger is enqueued", func() {
			q.Enqueue(ctx, model.Trigger{ID: "t1", Source: model.SourceHTTP, At: time.Now()})

			convey.Convey("Then the runner receives it", func() {
				convey.So(waitFor(runner.ran), convey.ShouldEqual, "t1")
				convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)
				convey.So(w.Processed(), convey.ShouldEqual, 1)
				convey.So(w.Failed(), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When several triggers arrive back to back", func() {
			runner.delay = 20 * time.Millisecond
			for _, id := range []string{"a", "b", "c"} {
				q.Enqueue(ctx, model.Trigger{ID: id, Source: model.SourceCron, At: time.Now()})
			}
			got := []string{waitFor(runner.ran), waitFor(runner.ran), waitFor(runner.ran)}

			convey.Convey("Then they run one at a time in order", func() {
				convey.So(got, convey.ShouldResemble, []string{"a", "b", "c"})
				runner.mu.Lock()
				convey.So(runner.overlap, convey.ShouldBeFalse)
				runner.mu.Unlock()
			})
		})

		convey.Convey("When a run fails", func() {
			runner.fail["bad"] = errors.New("upstream down")
			q.Enqueue(ctx, model.Trigger{ID: "bad", Source: model.SourceHTTP, At: time.Now()})
			q.Enqueue(ctx, model.Trigger{ID: "good", Source: model.SourceHTTP, At: time.Now()})

			convey.Convey("Then the worker keeps going", func() {
				convey.So(waitFor(runner.ran), convey.ShouldEqual, "bad")
				convey.So(waitFor(runner.ran), convey.ShouldEqual, "good")
				convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)
				convey.So(w.Failed(), convey.ShouldEqual, 1)
				convey.So(w.Processed(), convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When shutting down twice", func() {
			convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)

			convey.Convey("Then the second call is a no-op", func() {
				convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)
				convey.So(w.Busy(), convey.ShouldBeFalse)
			})
		})
	})

	convey.Convey("Given a worker whose queue gets closed", t, func() {
		q := queue.NewInMemoryQueue()
		calls := 0
		w := worker.NewInMemoryWorker(q, worker.RunnerFunc(func(context.Context, model.Trigger) error {
			calls++
			return nil
		}), worker.WithLogger(logging.Discard()))

		done := make(chan struct{})
		go func() {
			w.Run(context.Background())
			close(done)
		}()
		q.Enqueue(context.Background(), model.Trigger{ID: "last"})
		_ = q.Close()

		convey.Convey("Then the pending trigger runs and the loop exits", func() {
			select {
			case <-done:
			case <-time.After(2 * time.Second):
			}
			convey.So(calls, convey.ShouldEqual, 1)
		})
	})

	convey.Convey("Given a worker whose context is cancelled", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		w := worker.NewInMemoryWorker(queue.NewInMemoryQueue(), newRecordingRunner(),
			worker.WithLogger(logging.Discard()))
		done := make(chan struct{})
		go func() {
			w.Run(ctx)
			close(done)
		}()
		cancel()

		convey.Convey("Then the worker stops", func() {
			stopped := false
			select {
			case <-done:
				stopped = true
			case <-time.After(2 * time.Second):
			}
			convey.So(stopped, convey.ShouldBeTrue)
		})
	})
}
