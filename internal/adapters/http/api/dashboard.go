package api

import (
	"bytes"
	"context"
	"net/http"

	"github.com/okian/cfcoach/internal/adapters/http/site"
	"github.com/okian/cfcoach/internal/domain/report"
)

// DashboardDependencies defines the read side used by the dashboard page.
type DashboardDependencies interface {
	LatestReport(ctx context.Context) (report.Report, bool)
	LatestPlot(ctx context.Context) (string, bool)
}

// dashboardHandler renders the latest report as an HTML page.
type dashboardHandler struct {
	deps DashboardDependencies
}

func newDashboardHandler(deps DashboardDependencies) *dashboardHandler {
	return &dashboardHandler{deps: deps}
}

type dashboardView struct {
	Ready  bool
	Report report.Report
	Plot   string
}

// HandleDashboard handles GET /dashboard.
func (h *dashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	rep, ok := h.deps.LatestReport(r.Context())
	view := dashboardView{Ready: ok, Report: rep}
	if ok {
		if name, has := h.deps.LatestPlot(r.Context()); has {
			view.Plot = site.ArtifactsPrefix + name
		}
	}

	var buf bytes.Buffer
	if err := dashboardTemplate.Execute(&buf, view); err != nil {
		writeError(w, Wrap(err, "render dashboard"))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func formatPct(v float64) string { return report.FormatAccuracy(v) }
