package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/okian/cfcoach/internal/adapters/plot"
	"github.com/okian/cfcoach/internal/domain/model"
	"github.com/okian/cfcoach/internal/domain/report"
	"github.com/okian/cfcoach/internal/domain/weakness"
	"github.com/okian/cfcoach/pkg/logger"
	"github.com/okian/cfcoach/pkg/metrics"
)

// execute runs the pipeline once. Fetch failures abort the run; persisting,
// plotting, rendering and notifying are best effort.
func (s *Service) execute(ctx context.Context, t model.Trigger) (rep report.Report, err error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	start := s.now()
	metrics.RecordRunStarted(t.Source)
	log := s.logger.Named("run")
	defer func() {
		s.recordOutcome(t, start, &rep, err)
	}()

	rep, err = s.analyse(ctx)
	if err != nil {
		return report.Report{}, err
	}
	rep.ID = t.ID

	s.persist(ctx, rep)
	plotPath := s.renderPlot(ctx, rep.Handle)
	s.mu.Lock()
	s.plotPath = plotPath
	s.mu.Unlock()
	if s.dashboard != nil {
		if derr := s.dashboard.Show(rep); derr != nil {
			metrics.RecordErrorByComponent("service", "dashboard")
			log.Warn(ctx, "dashboard render failed", logger.Error(derr))
		}
	}
	if nerr := s.notifier.Notify(ctx, rep, plotPath); nerr != nil {
		metrics.RecordErrorByComponent("service", "notify")
		log.Error(ctx, "notification failed", logger.Error(nerr))
	}

	took := s.now().Sub(start)
	metrics.RecordRunSucceeded(took)
	log.Info(ctx, "report ready",
		logger.String("handle", rep.Handle),
		logger.Int("rating", rep.Rating),
		logger.Int("weak_topics", len(rep.WeakTopics)),
		logger.Int("recommendations", len(rep.Recommendations)),
		logger.Duration("took", took),
	)
	return rep, nil
}

// analyse fetches the judge data and builds the report.
func (s *Service) analyse(ctx context.Context) (report.Report, error) {
	subs, err := s.client.UserSubmissions(ctx, s.handle, s.submissionCount)
	if err != nil {
		metrics.RecordRunFailed("submissions")
		return report.Report{}, fmt.Errorf("%w: submissions of %s: %w", ErrFetch, s.handle, err)
	}
	current, err := s.client.UserRating(ctx, s.handle)
	if err != nil {
		metrics.RecordRunFailed("rating")
		return report.Report{}, fmt.Errorf("%w: rating of %s: %w", ErrFetch, s.handle, err)
	}

	stats := weakness.Aggregate(subs)
	entries := weakness.Rank(stats)
	metrics.UpdateSubmissionsAnalyzed(len(subs))
	metrics.UpdateTopicsTracked(stats.Len())

	catalog, err := s.client.Problemset(ctx)
	if err != nil {
		metrics.RecordRunFailed("problemset")
		return report.Report{}, fmt.Errorf("%w: problemset: %w", ErrFetch, err)
	}

	weakest := weakness.Weakest(entries, s.weakTopicCount)
	recs := s.selector.Recommend(weakest, current, catalog)

	rep := report.Build(s.handle, current, entries, recs, s.now(), report.WithWeakTopicCount(s.weakTopicCount))

	acc := make(map[string]float64, len(rep.WeakTopics))
	for _, w := range rep.Weakest() {
		acc[w.Topic] = w.Accuracy
	}
	metrics.UpdateWeakTopicAccuracy(acc)
	metrics.UpdateRecommendations(len(recs))
	metrics.UpdateCurrentRating(current)
	return rep, nil
}

func (s *Service) persist(ctx context.Context, rep report.Report) {
	if s.store == nil {
		return
	}
	if err := s.store.Append(ctx, rep.Record()); err != nil {
		metrics.RecordErrorByComponent("service", "persist")
		s.logger.Error(ctx, "persist run failed", logger.String("run", rep.ID), logger.Error(err))
	}
}

// renderPlot redraws the progress chart and returns its path, or "" when no
// chart is available.
func (s *Service) renderPlot(ctx context.Context, handle string) string {
	if s.plotter == nil || s.store == nil {
		return ""
	}
	recs, err := s.store.History(ctx, handle, 0)
	if err != nil {
		metrics.RecordErrorByComponent("service", "plot")
		s.logger.Warn(ctx, "read history for plot failed", logger.Error(err))
		return ""
	}
	path := filepath.Join(s.dataDir, plot.FileName(handle))
	switch err := s.plotter.RenderFile(path, recs); {
	case errors.Is(err, plot.ErrNotEnoughData):
		s.logger.Debug(ctx, "plot skipped", logger.Int("runs", len(recs)))
		return ""
	case err != nil:
		metrics.RecordErrorByComponent("service", "plot")
		s.logger.Warn(ctx, "plot failed", logger.Error(err))
		return ""
	}
	return path
}

