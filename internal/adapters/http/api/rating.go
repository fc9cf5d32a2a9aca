package api

import (
	"errors"
	"net/http"

	"github.com/okian/cfcoach/internal/domain/rating"
)

// RatingHandler exposes the pure rating helpers.
type RatingHandler struct{}

// NewRatingHandler creates a new rating handler.
func NewRatingHandler() *RatingHandler {
	return &RatingHandler{}
}

type tierResponse struct {
	Rating int    `json:"rating"`
	Tier   string `json:"tier"`
}

type milestoneResponse struct {
	Rating   int    `json:"rating"`
	NextTier string `json:"next_tier"`
	Points   int    `json:"points"`
}

type estimateResponse struct {
	Rating    int     `json:"rating"`
	Solved    float64 `json:"solved"`
	Expected  float64 `json:"expected"`
	Estimated int     `json:"estimated"`
	Delta     int     `json:"delta"`
}

// HandleTier handles GET /rating/tier?rating=R.
func (h *RatingHandler) HandleTier(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	v, err := requiredInt(r, "rating")
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tierResponse{Rating: v, Tier: rating.TierLabel(v)})
}

// HandleMilestone handles GET /rating/milestone?rating=R.
func (h *RatingHandler) HandleMilestone(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	v, err := requiredInt(r, "rating")
	if err != nil {
		writeError(w, err)
		return
	}
	next, points := rating.NextMilestone(v)
	writeJSON(w, http.StatusOK, milestoneResponse{Rating: v, NextTier: next, Points: points})
}

// HandleEstimate handles GET /rating/estimate?solved=S&expected=E&rating=R.
func (h *RatingHandler) HandleEstimate(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	solved, err := requiredFloat(r, "solved")
	if err != nil {
		writeError(w, err)
		return
	}
	expected, err := requiredFloat(r, "expected")
	if err != nil {
		writeError(w, err)
		return
	}
	current, err := requiredInt(r, "rating")
	if err != nil {
		writeError(w, err)
		return
	}
	if solved < 0 || expected < 0 {
		writeError(w, WrapKind(KindBadRequest, errors.New("solved and expected must not be negative")))
		return
	}
	est := rating.EstimateRatingDelta(solved, expected, current)
	writeJSON(w, http.StatusOK, estimateResponse{
		Rating:    current,
		Solved:    solved,
		Expected:  expected,
		Estimated: est,
		Delta:     est - current,
	})
}
