// Package contests finds finished rounds whose difficulty suits a virtual contest.
package contests

import (
	"context"
	"fmt"

	"github.com/okian/cfcoach/internal/domain/model"
)

// Default finder configuration.
const (
	DefaultScanLimit = 20
	phaseFinished    = "FINISHED"
)

// Source lists contests and their problems.
type Source interface {
	ContestList(ctx context.Context) ([]model.Contest, error)
	ContestProblems(ctx context.Context, contestID int) ([]model.CatalogProblem, error)
}

// Finder filters past contests by average problem rating.
type Finder struct {
	source Source
}

// NewFinder creates a finder backed by source.
func NewFinder(source Source) *Finder {
	return &Finder{source: source}
}

// PastContests scans up to limit finished contests, newest first, and returns
// those whose average problem rating lies in [minRating, maxRating]. Unrated
// problems count as 0 and a contest without problems averages 0. A fetch
// error aborts the scan.
func (f *Finder) PastContests(ctx context.Context, minRating, maxRating, limit int) ([]model.Contest, error) {
	if limit <= 0 {
		limit = DefaultScanLimit
	}
	all, err := f.source.ContestList(ctx)
	if err != nil {
		return nil, fmt.Errorf("list contests: %w", err)
	}

	out := []model.Contest{}
	scanned := 0
	for _, c := range all {
		if c.Phase != phaseFinished {
			continue
		}
		if scanned == limit {
			break
		}
		scanned++

		problems, err := f.source.ContestProblems(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("contest %d problems: %w", c.ID, err)
		}
		c.AverageRating = AverageRating(problems)
		if c.AverageRating >= float64(minRating) && c.AverageRating <= float64(maxRating) {
			out = append(out, c)
		}
	}
	return out, nil
}

// AverageRating is the mean problem rating with unrated problems as 0.
func AverageRating(problems []model.CatalogProblem) float64 {
	if len(problems) == 0 {
		return 0
	}
	sum := 0
	for _, p := range problems {
		sum += p.Rating
	}
	return float64(sum) / float64(len(problems))
}
