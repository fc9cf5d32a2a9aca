// Package report assembles the outcome of one coaching run.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/cfcoach/internal/domain/model"
	"github.com/okian/cfcoach/internal/domain/rating"
	"github.com/okian/cfcoach/internal/domain/weakness"
)

const (
	// DefaultWeakTopicCount is how many weakest topics a report highlights.
	DefaultWeakTopicCount = 3

	// RecordSlots is the fixed number of weak-topic columns of a progress
	// record, whatever the highlighted count.
	RecordSlots = 3
)

// Option applies a configuration option to Build.
type Option func(*builder)

type builder struct {
	weakTopicCount int
}

// WithWeakTopicCount sets how many weakest topics are highlighted.
func WithWeakTopicCount(n int) Option {
	return func(b *builder) {
		if n > 0 {
			b.weakTopicCount = n
		}
	}
}

// Report is the result of one run for one handle.
type Report struct {
	ID              string                 `json:"id,omitempty"`
	Handle          string                 `json:"handle"`
	Rating          int                    `json:"rating"`
	Tier            string                 `json:"tier"`
	NextTier        string                 `json:"next_tier"`
	PointsToNext    int                    `json:"points_to_next"`
	Weaknesses      []model.WeaknessEntry  `json:"weaknesses"`
	WeakTopics      []string               `json:"weak_topics"`
	Recommendations []model.Recommendation `json:"recommendations"`
	GeneratedAt     time.Time              `json:"generated_at"`
}

// Build derives tier, milestone and weakest topics for the given run data.
// weaknesses must already be ranked worst-first.
func Build(handle string, current int, weaknesses []model.WeaknessEntry, recs []model.Recommendation, now time.Time, opts ...Option) Report {
	b := builder{weakTopicCount: DefaultWeakTopicCount}
	for _, opt := range opts {
		opt(&b)
	}

	next, left := rating.NextMilestone(current)
	if weaknesses == nil {
		weaknesses = []model.WeaknessEntry{}
	}
	if recs == nil {
		recs = []model.Recommendation{}
	}
	return Report{
		Handle:          handle,
		Rating:          current,
		Tier:            rating.TierLabel(current),
		NextTier:        next,
		PointsToNext:    left,
		Weaknesses:      weaknesses,
		WeakTopics:      weakness.Weakest(weaknesses, b.weakTopicCount),
		Recommendations: recs,
		GeneratedAt:     now,
	}
}

// Weakest returns the highlighted weakness entries.
func (r Report) Weakest() []model.WeaknessEntry {
	n := len(r.WeakTopics)
	if n > len(r.Weaknesses) {
		n = len(r.Weaknesses)
	}
	return r.Weaknesses[:n]
}

// Title is the headline of the report.
func (r Report) Title() string {
	return "Codeforces Daily Report for " + r.Handle
}

// Milestone renders the distance to the next title, e.g. "150 points to Expert".
// At or above the top title the count is zero or negative and shown as is.
func (r Report) Milestone() string {
	return fmt.Sprintf("%d points to %s", r.PointsToNext, r.NextTier)
}

// Text renders the report as a plain chat message. Empty sections are omitted.
func (r Report) Text() string {
	var sb strings.Builder
	sb.WriteString("🏆 " + r.Title() + "\n")
	fmt.Fprintf(&sb, "Current Rating: %d (%s)\n", r.Rating, r.Tier)
	sb.WriteString("Next Milestone: " + r.Milestone() + "\n")

	if weak := r.Weakest(); len(weak) > 0 {
		sb.WriteString("\n🔍 Weak Areas:\n")
		for _, w := range weak {
			fmt.Fprintf(&sb, "- %s (%s)\n", w.Topic, FormatAccuracy(w.Accuracy))
		}
	}
	if len(r.Recommendations) > 0 {
		sb.WriteString("\n📚 Recommended Problems:\n")
		for _, p := range r.Recommendations {
			fmt.Fprintf(&sb, "- %s (%d rating) %s\n", p.Name, p.Rating, p.URL)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Record converts the report to a progress log row. Its weak-topic slots hold
// the RecordSlots weakest entries, independent of the highlighted count.
func (r Report) Record() Record {
	weak := r.Weaknesses[:min(RecordSlots, len(r.Weaknesses))]
	rec := Record{
		ID:         r.ID,
		Handle:     r.Handle,
		Date:       r.GeneratedAt,
		Rating:     r.Rating,
		WeakTopics: make([]string, 0, len(weak)),
		Accuracies: make([]float64, 0, len(weak)),
		Problems:   make([]string, 0, len(r.Recommendations)),
	}
	for _, w := range weak {
		rec.WeakTopics = append(rec.WeakTopics, w.Topic)
		rec.Accuracies = append(rec.Accuracies, w.Accuracy)
	}
	for _, p := range r.Recommendations {
		rec.Problems = append(rec.Problems, p.ID())
	}
	return rec
}

// FormatAccuracy renders a percentage with one decimal, e.g. "50.0%".
func FormatAccuracy(a float64) string {
	return fmt.Sprintf("%.1f%%", a)
}
