// Package weakness turns a submission history into topics ranked worst-first.
//
// Aggregate folds submissions into per-topic counters; Rank converts the
// counters into accuracy percentages and orders them ascending. Both are pure.
package weakness

import (
	"cmp"
	"slices"

	"github.com/okian/cfcoach/internal/domain/model"
)

// Stats is the result of Aggregate: topic counters in first-encounter order.
// The zero value is an empty result.
type Stats struct {
	order   []string
	byTopic map[string]model.TopicStat
}

// Len returns the number of distinct topics.
func (s Stats) Len() int { return len(s.order) }

// Get returns the counters for topic.
func (s Stats) Get(topic string) (model.TopicStat, bool) {
	st, ok := s.byTopic[topic]
	return st, ok
}

// All returns the counters in first-encounter order.
func (s Stats) All() []model.TopicStat {
	out := make([]model.TopicStat, len(s.order))
	for i, t := range s.order {
		out[i] = s.byTopic[t]
	}
	return out
}

// Aggregate counts, for every topic, how many submissions touched it and how
// many of those were accepted. A topic listed twice on one submission counts
// once. Submissions without topics and empty topic names are ignored.
func Aggregate(subs []model.Submission) Stats {
	acc := Stats{byTopic: make(map[string]model.TopicStat)}
	for _, sub := range subs {
		acc = acc.add(sub)
	}
	return acc
}

// add folds one submission. It mutates only the accumulator owned by Aggregate.
func (s Stats) add(sub model.Submission) Stats {
	if len(sub.Topics) == 0 {
		return s
	}
	seen := make(map[string]struct{}, len(sub.Topics))
	for _, topic := range sub.Topics {
		if topic == "" {
			continue
		}
		if _, dup := seen[topic]; dup {
			continue
		}
		seen[topic] = struct{}{}

		st, ok := s.byTopic[topic]
		if !ok {
			st.Topic = topic
			s.order = append(s.order, topic)
		}
		st.Attempts++
		if sub.Verdict == model.VerdictAccepted {
			st.Successes++
		}
		s.byTopic[topic] = st
	}
	return s
}

// Rank returns one entry per topic sorted ascending by accuracy. Equal
// accuracies keep first-encounter order.
func Rank(stats Stats) []model.WeaknessEntry {
	entries := make([]model.WeaknessEntry, 0, stats.Len())
	for _, st := range stats.All() {
		if st.Attempts <= 0 {
			continue
		}
		entries = append(entries, model.WeaknessEntry{
			Topic:    st.Topic,
			Accuracy: st.Accuracy(),
			Attempts: st.Attempts,
		})
	}
	slices.SortStableFunc(entries, func(a, b model.WeaknessEntry) int {
		return cmp.Compare(a.Accuracy, b.Accuracy)
	})
	return entries
}

// Compute is Rank(Aggregate(subs)).
func Compute(subs []model.Submission) []model.WeaknessEntry {
	return Rank(Aggregate(subs))
}

// Weakest returns the topic names of the first n entries.
func Weakest(entries []model.WeaknessEntry, n int) []string {
	if n < 0 {
		n = 0
	}
	if n > len(entries) {
		n = len(entries)
	}
	out := make([]string, n)
	for i := range n {
		out[i] = entries[i].Topic
	}
	return out
}
