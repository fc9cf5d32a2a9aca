// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/okian/cfcoach/internal/domain/model"
	"github.com/okian/cfcoach/internal/domain/report"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Trigger queues an analysis run. Returns false when one is already pending.
	Trigger(ctx context.Context, source string) bool

	// LatestReport returns the report of the last successful run.
	LatestReport(ctx context.Context) (report.Report, bool)

	// LatestPlot returns the file name of the progress plot rendered by the
	// last run, if that file exists.
	LatestPlot(ctx context.Context) (string, bool)

	// History returns up to limit stored runs, oldest first.
	History(ctx context.Context, limit int) ([]report.Record, error)

	// PastContests lists finished contests whose average problem rating is
	// within [minRating, maxRating].
	PastContests(ctx context.Context, minRating, maxRating, limit int) ([]model.Contest, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	reportHandler    *ReportHandler
	runHandler       *RunHandler
	ratingHandler    *RatingHandler
	contestsHandler  *ContestsHandler
	dashboardHandler *dashboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		reportHandler:    NewReportHandler(deps),
		runHandler:       NewRunHandler(deps),
		ratingHandler:    NewRatingHandler(),
		contestsHandler:  NewContestsHandler(deps),
		dashboardHandler: newDashboardHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/dashboard", MetricsMiddleware(s.dashboardHandler.HandleDashboard, "dashboard"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/report", MetricsMiddleware(s.reportHandler.HandleLatest, "report"))
	mux.HandleFunc("/history", MetricsMiddleware(s.reportHandler.HandleHistory, "history"))
	mux.HandleFunc("/run", MetricsMiddleware(s.runHandler.HandleRun, "run"))
	mux.HandleFunc("/rating/tier", MetricsMiddleware(s.ratingHandler.HandleTier, "rating_tier"))
	mux.HandleFunc("/rating/milestone", MetricsMiddleware(s.ratingHandler.HandleMilestone, "rating_milestone"))
	mux.HandleFunc("/rating/estimate", MetricsMiddleware(s.ratingHandler.HandleEstimate, "rating_estimate"))
	mux.HandleFunc("/contests", MetricsMiddleware(s.contestsHandler.HandleContests, "contests"))
}
