package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/cfcoach/internal/domain/report"
)

const (
	defaultHistoryLimit = 30
	maxHistoryLimit     = 1000
)

// ReportDependencies defines the read side used by ReportHandler.
type ReportDependencies interface {
	LatestReport(ctx context.Context) (report.Report, bool)
	History(ctx context.Context, limit int) ([]report.Record, error)
}

// ReportHandler serves the latest report and the run history.
type ReportHandler struct {
	deps ReportDependencies
}

// NewReportHandler creates a new report handler.
func NewReportHandler(deps ReportDependencies) *ReportHandler {
	return &ReportHandler{deps: deps}
}

// HandleLatest handles GET /report.
func (h *ReportHandler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	rep, ok := h.deps.LatestReport(r.Context())
	if !ok {
		writeError(w, WrapKind(KindNotFound, errors.New("no run has completed yet")))
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// HandleHistory handles GET /history?limit=N.
func (h *ReportHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	limit, err := intParam(r, "limit", defaultHistoryLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	if limit < 1 || limit > maxHistoryLimit {
		writeError(w, WrapKind(KindBadRequest, errors.New("limit must be between 1 and 1000")))
		return
	}
	recs, err := h.deps.History(r.Context(), limit)
	if err != nil {
		writeError(w, Wrap(err, "history"))
		return
	}
	if recs == nil {
		recs = []report.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}
