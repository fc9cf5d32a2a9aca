// Package recommend picks practice problems from the catalog for a set of weak topics.
package recommend

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/okian/cfcoach/internal/domain/difficulty"
	"github.com/okian/cfcoach/internal/domain/model"
)

// Default selector configuration.
const (
	DefaultLimit   = 5
	DefaultBaseURL = "https://codeforces.com/problemset/problem"
	topicSeparator = ", "
)

// Option applies a configuration option to the Selector.
type Option func(*Selector)

// WithLimit caps the number of recommendations.
func WithLimit(n int) Option {
	return func(s *Selector) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithWindow sets the difficulty window half-width.
func WithWindow(w difficulty.Window) Option {
	return func(s *Selector) {
		if w >= 0 {
			s.window = w
		}
	}
}

// WithBaseURL sets the problem URL prefix.
func WithBaseURL(u string) Option {
	return func(s *Selector) {
		if u != "" {
			s.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// Selector intersects a catalog with weak topics and a difficulty window.
type Selector struct {
	limit   int
	window  difficulty.Window
	baseURL string
}

// NewSelector creates a selector with configuration options.
func NewSelector(opts ...Option) *Selector {
	s := &Selector{
		limit:   DefaultLimit,
		window:  difficulty.DefaultWindow,
		baseURL: DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Limit returns the maximum number of recommendations.
func (s *Selector) Limit() int { return s.limit }

// Window returns the configured difficulty window.
func (s *Selector) Window() difficulty.Window { return s.window }

type candidate struct {
	problem  model.CatalogProblem
	distance int
}

// Recommend returns at most Limit problems that are rated, inside the
// difficulty window and share a topic with weakTopics, closest rating first.
// Ties keep catalog order.
func (s *Selector) Recommend(weakTopics []string, currentRating int, catalog []model.CatalogProblem) []model.Recommendation {
	if len(weakTopics) == 0 || len(catalog) == 0 {
		return []model.Recommendation{}
	}
	weak := make(map[string]struct{}, len(weakTopics))
	for _, t := range weakTopics {
		weak[t] = struct{}{}
	}

	var survivors []candidate
	for _, p := range catalog {
		if p.Rating == 0 {
			continue
		}
		if !s.window.Contains(p.Rating, currentRating) || !sharesTopic(p.Topics, weak) {
			continue
		}
		d := p.Rating - currentRating
		if d < 0 {
			d = -d
		}
		survivors = append(survivors, candidate{problem: p, distance: d})
	}

	slices.SortStableFunc(survivors, func(a, b candidate) int {
		return cmp.Compare(a.distance, b.distance)
	})
	if len(survivors) > s.limit {
		survivors = survivors[:s.limit]
	}

	out := make([]model.Recommendation, 0, len(survivors))
	for _, c := range survivors {
		out = append(out, s.toRecommendation(c.problem))
	}
	return out
}

// URL returns the problem page for contestID/index.
func (s *Selector) URL(contestID int, index string) string {
	return fmt.Sprintf("%s/%d/%s", s.baseURL, contestID, index)
}

func (s *Selector) toRecommendation(p model.CatalogProblem) model.Recommendation {
	return model.Recommendation{
		ContestID: p.ContestID,
		Index:     p.Index,
		Name:      p.Name,
		Rating:    p.Rating,
		Topics:    strings.Join(p.Topics, topicSeparator),
		URL:       s.URL(p.ContestID, p.Index),
	}
}

func sharesTopic(topics []string, weak map[string]struct{}) bool {
	for _, t := range topics {
		if _, ok := weak[t]; ok {
			return true
		}
	}
	return false
}

var defaultSelector = NewSelector()

// Recommend uses a selector with default limit, window and base URL.
func Recommend(weakTopics []string, currentRating int, catalog []model.CatalogProblem) []model.Recommendation {
	return defaultSelector.Recommend(weakTopics, currentRating, catalog)
}
