// Package scheduler fires the coaching job daily or on a fixed interval.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/okian/cfcoach/pkg/logger"
)

// ErrInvalidSchedule is returned for malformed times or intervals.
var ErrInvalidSchedule = errors.New("invalid schedule")

var timeRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

// Option applies a configuration option to the Scheduler.
type Option func(*Scheduler)

// WithLocation sets the timezone daily specs are evaluated in.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// Scheduler wraps a cron runner holding a single job. Overlapping ticks are
// skipped and panics in the job are recovered.
type Scheduler struct {
	mu       sync.Mutex
	cron     *cron.Cron
	location *time.Location
	logger   logger.Logger
	entryID  cron.EntryID
	started  bool
}

// New creates a scheduler with configuration options.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		location: time.Local,
		logger:   logger.Get().Named("scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}
	cl := cronLogger{l: s.logger}
	s.cron = cron.New(
		cron.WithLocation(s.location),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	return s
}

// DailySpec converts "HH:MM" into a cron spec.
func DailySpec(hhmm string) (string, error) {
	m := timeRegex.FindStringSubmatch(hhmm)
	if len(m) != 3 {
		return "", fmt.Errorf("%w: %q (expected HH:MM)", ErrInvalidSchedule, hhmm)
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	// minute hour day month weekday
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

// IntervalSpec converts a positive duration into an "@every" spec.
func IntervalSpec(d time.Duration) (string, error) {
	if d <= 0 {
		return "", fmt.Errorf("%w: interval %s", ErrInvalidSchedule, d)
	}
	return "@every " + d.String(), nil
}

// Schedule installs fn under spec, replacing any previous job.
func (s *Scheduler) Schedule(spec string, fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
		s.entryID = 0
	}
	id, err := s.cron.AddFunc(spec, fn)
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrInvalidSchedule, spec, err)
	}
	s.entryID = id
	s.logger.Info(context.Background(), "job scheduled", logger.String("spec", spec))
	return nil
}

// Next returns the next activation, zero when nothing is scheduled or the
// scheduler has not started.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entryID == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

// Start begins firing jobs. It is idempotent.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		s.cron.Start()
		s.started = true
	}
}

// Stop halts the scheduler and waits for a running job until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	done := s.cron.Stop()
	s.mu.Unlock()

	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct {
	l logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(context.Background(), msg, kvFields(keysAndValues)...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(context.Background(), msg, append(kvFields(keysAndValues), logger.Error(err))...)
}

func kvFields(kv []interface{}) []logger.Field {
	fields := make([]logger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		fields = append(fields, logger.Any(key, kv[i+1]))
	}
	return fields
}
