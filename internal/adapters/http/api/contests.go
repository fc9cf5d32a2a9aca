package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/cfcoach/internal/domain/contests"
	"github.com/okian/cfcoach/internal/domain/model"
)

const (
	defaultContestMin = 1200
	defaultContestMax = 1600
	maxContestScan    = 100
)

// ContestsDependencies defines the lookup used by ContestsHandler.
type ContestsDependencies interface {
	PastContests(ctx context.Context, minRating, maxRating, limit int) ([]model.Contest, error)
}

// ContestsHandler suggests past contests for virtual participation.
type ContestsHandler struct {
	deps ContestsDependencies
}

// NewContestsHandler creates a new contests handler.
func NewContestsHandler(deps ContestsDependencies) *ContestsHandler {
	return &ContestsHandler{deps: deps}
}

// HandleContests handles GET /contests?min=&max=&limit=.
func (h *ContestsHandler) HandleContests(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	minRating, err := intParam(r, "min", defaultContestMin)
	if err != nil {
		writeError(w, err)
		return
	}
	maxRating, err := intParam(r, "max", defaultContestMax)
	if err != nil {
		writeError(w, err)
		return
	}
	limit, err := intParam(r, "limit", contests.DefaultScanLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	switch {
	case minRating > maxRating:
		writeError(w, WrapKind(KindBadRequest, errors.New("min must not exceed max")))
		return
	case limit < 1 || limit > maxContestScan:
		writeError(w, WrapKind(KindBadRequest, errors.New("limit must be between 1 and 100")))
		return
	}

	found, err := h.deps.PastContests(r.Context(), minRating, maxRating, limit)
	if err != nil {
		writeError(w, WrapKind(KindUpstream, err))
		return
	}
	if found == nil {
		found = []model.Contest{}
	}
	writeJSON(w, http.StatusOK, found)
}
