// Package service wires the analysis pipeline to its triggers and exposes
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/cfcoach/internal/adapters/mq/queue"
	"github.com/okian/cfcoach/internal/adapters/mq/worker"
	"github.com/okian/cfcoach/internal/adapters/notify"
	"github.com/okian/cfcoach/internal/adapters/repository"
	"github.com/okian/cfcoach/internal/adapters/scheduler"
	"github.com/okian/cfcoach/internal/domain/contests"
	"github.com/okian/cfcoach/internal/domain/model"
	"github.com/okian/cfcoach/internal/domain/recommend"
	"github.com/okian/cfcoach/internal/domain/report"
	"github.com/okian/cfcoach/pkg/logger"
)

const (
	defaultHandle   = "tourist"
	shutdownTimeout = 30 * time.Second
)

// Codeforces is the judge API used by a run.
type Codeforces interface {
	UserSubmissions(ctx context.Context, handle string, count int) ([]model.Submission, error)
	UserRating(ctx context.Context, handle string) (int, error)
	Problemset(ctx context.Context) ([]model.CatalogProblem, error)
	contests.Source
}

// Plotter renders the progress chart of stored runs.
type Plotter interface {
	RenderFile(path string, recs []report.Record) error
}

// Dashboard shows a report on the terminal.
type Dashboard interface {
	Show(rep report.Report) error
}

// Service runs the weakness analysis for one handle.
type Service struct {
	mu sync.RWMutex
	// runMu serializes pipeline executions, whatever started them.
	runMu sync.Mutex

	// Collaborators
	client    Codeforces
	store     repository.Store
	notifier  notify.Notifier
	plotter   Plotter
	dashboard Dashboard
	selector  *recommend.Selector
	scheduler *scheduler.Scheduler
	spec      string

	// Configuration
	handle          string
	submissionCount int
	weakTopicCount  int
	dataDir         string
	now             func() time.Time
	newID           func() string

	// Runtime
	queue      *queue.InMemoryQueue
	worker     *worker.InMemoryWorker
	cancelRuns context.CancelFunc
	started    bool

	// State
	latest     report.Report
	hasLatest  bool
	runs       int
	failures   int
	lastRunAt  time.Time
	lastTook   time.Duration
	lastError  string
	lastSource string
	plotPath   string

	logger logger.Logger
}

// New constructs a new Service. WithClient is mandatory before Start or RunOnce.
func New(opts ...Option) *Service {
	s := &Service{
		notifier:       notify.Nop{},
		selector:       recommend.NewSelector(),
		handle:         defaultHandle,
		weakTopicCount: report.DefaultWeakTopicCount,
		now:            time.Now,
		newID:          uuid.NewString,
		logger:         logger.Get().Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle returns the tracked handle.
func (s *Service) Handle() string { return s.handle }

// Start launches the job worker and, when configured, the scheduler.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.client == nil {
		return fmt.Errorf("%w: codeforces client is required", ErrNotConfigured)
	}

	s.logger.Info(ctx, "starting coach service...", logger.String("handle", s.handle))

	s.queue = queue.NewInMemoryQueue()
	s.worker = worker.NewInMemoryWorker(s.queue,
		worker.RunnerFunc(func(ctx context.Context, t model.Trigger) error {
			_, err := s.execute(ctx, t)
			return err
		}),
		worker.WithName("jobs"),
		worker.WithLogger(s.logger),
	)
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancelRuns = cancel
	go s.worker.Run(runCtx)

	if s.scheduler != nil {
		err := s.scheduler.Schedule(s.spec, func() {
			if !s.Trigger(context.Background(), model.SourceCron) {
				s.logger.Warn(context.Background(), "scheduled run skipped, one is already pending")
			}
		})
		if err != nil {
			cancel()
			_ = s.queue.Close()
			return fmt.Errorf("schedule job: %w", err)
		}
		s.scheduler.Start()
		s.logger.Info(ctx, "job scheduled",
			logger.String("spec", s.spec),
			logger.Any("next", s.scheduler.Next()),
		)
	}

	s.started = true
	s.logger.Info(ctx, "coach service started")
	return nil
}

// Stop gracefully shuts down the scheduler, the worker and the store. A run
// in progress is given shutdownTimeout to finish before it is cancelled.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	q, w, sched, cancelRuns := s.queue, s.worker, s.scheduler, s.cancelRuns
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping coach service...")

	if sched != nil {
		if err := sched.Stop(ctx); err != nil {
			s.logger.Warn(ctx, "scheduler stop", logger.Error(err))
		}
	}
	_ = q.Close()
	if err := w.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker stop", logger.Error(err))
	}
	cancelRuns()
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(ctx, "store close", logger.Error(err))
		}
	}

	s.logger.Info(ctx, "coach service stopped")
}

// Close releases the store of a service that was never started.
func (s *Service) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

// Trigger queues a run. It returns false when the service is not running or
// a run is already pending.
func (s *Service) Trigger(ctx context.Context, source string) bool {
	s.mu.RLock()
	q, started := s.queue, s.started
	s.mu.RUnlock()
	if !started {
		return false
	}

	t := model.Trigger{ID: s.newID(), Source: source, At: s.now()}
	if err := q.Offer(ctx, t); err != nil {
		s.logger.Info(ctx, "run rejected",
			logger.String("source", source),
			logger.Error(err),
		)
		return false
	}
	s.logger.Debug(ctx, "run queued", logger.String("trigger", t.ID), logger.String("source", source))
	return true
}

// RunOnce performs one run synchronously, outside the queue. It still never
// overlaps with a queued run.
func (s *Service) RunOnce(ctx context.Context) (report.Report, error) {
	if s.client == nil {
		return report.Report{}, fmt.Errorf("%w: codeforces client is required", ErrNotConfigured)
	}
	return s.execute(ctx, model.Trigger{ID: s.newID(), Source: model.SourceStartup, At: s.now()})
}

// LatestReport returns the report of the last successful run.
func (s *Service) LatestReport(context.Context) (report.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.hasLatest
}

// LatestPlot returns the file name of the progress plot rendered by the last
// run. It reports false when that run drew no plot or the file is gone.
func (s *Service) LatestPlot(context.Context) (string, bool) {
	s.mu.RLock()
	path := s.plotPath
	s.mu.RUnlock()
	if path == "" {
		return "", false
	}
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return filepath.Base(path), true
}

// History returns up to limit stored runs of the tracked handle, oldest first.
func (s *Service) History(ctx context.Context, limit int) ([]report.Record, error) {
	if s.store == nil {
		return []report.Record{}, nil
	}
	recs, err := s.store.History(ctx, s.handle, limit)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return recs, nil
}

// PastContests lists finished contests suited to a virtual participation.
func (s *Service) PastContests(ctx context.Context, minRating, maxRating, limit int) ([]model.Contest, error) {
	if s.client == nil {
		return nil, fmt.Errorf("%w: codeforces client is required", ErrNotConfigured)
	}
	return contests.NewFinder(s.client).PastContests(ctx, minRating, maxRating, limit)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":        s.started,
		"handle":         s.handle,
		"runs":           s.runs,
		"failures":       s.failures,
		"weakTopicCount": s.weakTopicCount,
	}
	if !s.lastRunAt.IsZero() {
		stats["lastRunAt"] = s.lastRunAt
		stats["lastRunDuration"] = s.lastTook.String()
		stats["lastRunSource"] = s.lastSource
	}
	if s.lastError != "" {
		stats["lastError"] = s.lastError
	}
	if s.hasLatest {
		stats["rating"] = s.latest.Rating
		stats["tier"] = s.latest.Tier
	}
	if s.started {
		stats["queueLength"] = s.queue.Len(context.Background())
		stats["running"] = s.worker.Busy()
		if s.scheduler != nil {
			stats["schedule"] = s.spec
			if next := s.scheduler.Next(); !next.IsZero() {
				stats["nextRun"] = next
			}
		}
	}
	return stats
}

// recordOutcome updates the run counters.
func (s *Service) recordOutcome(t model.Trigger, start time.Time, rep *report.Report, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs++
	s.lastRunAt = start
	s.lastTook = s.now().Sub(start)
	s.lastSource = t.Source
	if err != nil {
		s.failures++
		s.lastError = err.Error()
		return
	}
	s.lastError = ""
	s.latest = *rep
	s.hasLatest = true
}
