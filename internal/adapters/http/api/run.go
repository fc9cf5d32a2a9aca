package api

import (
	"context"
	"net/http"

	"github.com/okian/cfcoach/internal/domain/model"
)

// RunDependencies defines the trigger side used by RunHandler.
type RunDependencies interface {
	Trigger(ctx context.Context, source string) bool
}

// RunHandler queues manual runs.
type RunHandler struct {
	deps RunDependencies
}

// NewRunHandler creates a new run handler.
func NewRunHandler(deps RunDependencies) *RunHandler {
	return &RunHandler{deps: deps}
}

type ackResponse struct {
	Status string `json:"status"`
}

// HandleRun handles POST /run. A run that is already pending yields 429.
func (h *RunHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	if !h.deps.Trigger(r.Context(), model.SourceHTTP) {
		writeError(w, WrapKind(KindBackpressure, nil))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
}
