// Package worker drains the trigger queue and performs one run at a time.
package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/cfcoach/internal/domain/model"
	"github.com/okian/cfcoach/pkg/logger"
	"github.com/okian/cfcoach/pkg/metrics"
)

// Runner performs one analysis run for a trigger.
type Runner interface {
	RunOnce(ctx context.Context, t model.Trigger) error
}

// RunnerFunc adapts a plain function to Runner.
type RunnerFunc func(ctx context.Context, t model.Trigger) error

// RunOnce implements Runner.
func (f RunnerFunc) RunOnce(ctx context.Context, t model.Trigger) error { return f(ctx, t) }

// Queue defines how the worker receives triggers.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Trigger
	Len(ctx context.Context) int
}

// Worker runs triggers sequentially.
type Worker interface {
	// Run starts the worker loop until ctx is canceled, Shutdown is called
	// or the queue is closed.
	Run(ctx context.Context)

	// Shutdown stops the loop once the current run, if any, has finished.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue  Queue
	runner Runner
	name   string

	busy      atomic.Bool
	processed atomic.Int64
	failed    atomic.Int64

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker bound to one queue and one runner.
func NewInMemoryWorker(queue Queue, runner Runner, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		runner:   runner,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	triggers := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case t, ok := <-triggers:
			if !ok {
				return
			}
			w.queue.Len(ctx)
			w.process(ctx, t)
		}
	}
}

// Shutdown gracefully stops the worker. It is safe to call more than once.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Busy reports whether a run is in progress.
func (w *InMemoryWorker) Busy() bool { return w.busy.Load() }

// Processed returns the number of finished runs, failed ones included.
func (w *InMemoryWorker) Processed() int64 { return w.processed.Load() }

// Failed returns the number of runs that returned an error.
func (w *InMemoryWorker) Failed() int64 { return w.failed.Load() }

func (w *InMemoryWorker) process(ctx context.Context, t model.Trigger) {
	w.busy.Store(true)
	defer w.busy.Store(false)
	defer w.processed.Add(1)

	start := time.Now()
	w.logger.Info(ctx, "run started",
		logger.String("trigger", t.ID),
		logger.String("source", t.Source),
		logger.Duration("waited", start.Sub(t.At)),
	)

	if err := w.runner.RunOnce(ctx, t); err != nil {
		w.failed.Add(1)
		metrics.RecordErrorByComponent("worker", "run_failed")
		w.logger.Error(ctx, "run failed",
			logger.String("trigger", t.ID),
			logger.Duration("took", time.Since(start)),
			logger.Error(err),
		)
		return
	}
	w.logger.Info(ctx, "run finished",
		logger.String("trigger", t.ID),
		logger.Duration("took", time.Since(start)),
	)
}
