package service

import (
	"time"

	"github.com/okian/cfcoach/internal/adapters/notify"
	"github.com/okian/cfcoach/internal/adapters/repository"
	"github.com/okian/cfcoach/internal/adapters/scheduler"
	"github.com/okian/cfcoach/internal/domain/recommend"
	"github.com/okian/cfcoach/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithHandle sets the tracked Codeforces handle.
func WithHandle(handle string) Option {
	return func(s *Service) {
		if handle != "" {
			s.handle = handle
		}
	}
}

// WithClient sets the Codeforces client. It is required.
func WithClient(c Codeforces) Option {
	return func(s *Service) {
		if c != nil {
			s.client = c
		}
	}
}

// WithStore sets where run records are persisted.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithNotifier sets the report delivery channel.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithPlotter enables the progress plot, written to dir.
func WithPlotter(p Plotter, dir string) Option {
	return func(s *Service) {
		if p != nil {
			s.plotter = p
			s.dataDir = dir
		}
	}
}

// WithDashboard enables the console dashboard.
func WithDashboard(d Dashboard) Option {
	return func(s *Service) {
		if d != nil {
			s.dashboard = d
		}
	}
}

// WithSelector sets the recommendation selector.
func WithSelector(sel *recommend.Selector) Option {
	return func(s *Service) {
		if sel != nil {
			s.selector = sel
		}
	}
}

// WithSubmissionCount limits how many recent submissions are analysed; 0 means all.
func WithSubmissionCount(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.submissionCount = n
		}
	}
}

// WithWeakTopicCount sets how many weakest topics drive recommendations.
func WithWeakTopicCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.weakTopicCount = n
		}
	}
}

// WithSchedule runs the job on spec using sched once the service starts.
func WithSchedule(sched *scheduler.Scheduler, spec string) Option {
	return func(s *Service) {
		if sched != nil && spec != "" {
			s.scheduler = sched
			s.spec = spec
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides the run id generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}
