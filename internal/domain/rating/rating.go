// Package rating maps a Codeforces rating to titles and estimates contest deltas.
package rating

import (
	"math"

	"github.com/okian/cfcoach/internal/domain/model"
)

// DefaultRating is assumed for users without a rating history.
// Configuration may override it.
const DefaultRating = 1400

// Boundary labels.
const (
	// FloorLabel is the title below the lowest threshold.
	FloorLabel = "Newbie"
	// TopLabel is the milestone reported once the top threshold is reached.
	TopLabel = "Legendary Grandmaster"
)

// Delta estimator parameters.
const (
	highRatingCutoff = 2400
	lowK             = 80
	highK            = 40
	maxDelta         = 150
)

var tiers = []model.RatingTier{
	{Threshold: 1200, Label: "Pupil"},
	{Threshold: 1400, Label: "Specialist"},
	{Threshold: 1600, Label: "Expert"},
	{Threshold: 1900, Label: "Candidate Master"},
	{Threshold: 2100, Label: "Master"},
	{Threshold: 2300, Label: "International Master"},
	{Threshold: 2400, Label: "Grandmaster"},
	{Threshold: 2600, Label: "International Grandmaster"},
	{Threshold: 3000, Label: TopLabel},
}

// Tiers returns a copy of the ascending title table.
func Tiers() []model.RatingTier {
	out := make([]model.RatingTier, len(tiers))
	copy(out, tiers)
	return out
}

// TierLabel returns the title of the highest threshold not above r.
func TierLabel(r int) string {
	for i := len(tiers) - 1; i >= 0; i-- {
		if r >= tiers[i].Threshold {
			return tiers[i].Label
		}
	}
	return FloorLabel
}

// NextMilestone returns the next title and the points missing to reach it.
// At or above the top threshold the remaining points are zero or negative.
func NextMilestone(r int) (string, int) {
	for _, t := range tiers {
		if r < t.Threshold {
			return t.Label, t.Threshold - r
		}
	}
	top := tiers[len(tiers)-1]
	return TopLabel, top.Threshold - r
}

// EstimateRatingDelta predicts the rating after a contest from the number of
// solved problems against the expected number. It is a simplified heuristic
// and not the official Codeforces rating formula: the difference is scaled by
// 80 (40 from 2400 up) and clamped to ±150. An undefined difference (NaN)
// counts as no change.
func EstimateRatingDelta(solved, expected float64, current int) int {
	k := float64(lowK)
	if current >= highRatingCutoff {
		k = highK
	}
	diff := solved - expected
	if math.IsNaN(diff) {
		diff = 0
	}
	delta := max(min(k*diff, maxDelta), -maxDelta)
	return current + int(delta)
}
