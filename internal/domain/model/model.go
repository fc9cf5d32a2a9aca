// Package model contains domain models passed between layers.
package model

import (
	"strconv"
	"time"
)

// Verdict collapses a judge outcome to accepted or not.
type Verdict int

const (
	// VerdictOther covers every non-accepted outcome, including pending ones.
	VerdictOther Verdict = iota
	// VerdictAccepted marks a correct submission.
	VerdictAccepted
)

// String implements fmt.Stringer.
func (v Verdict) String() string {
	if v == VerdictAccepted {
		return "Accepted"
	}
	return "Other"
}

// ParseVerdict maps a Codeforces verdict string ("OK", "WRONG_ANSWER", ...).
func ParseVerdict(s string) Verdict {
	if s == "OK" {
		return VerdictAccepted
	}
	return VerdictOther
}

// Submission is one judged attempt by the tracked user.
type Submission struct {
	ProblemID string    // {contestId}{index}
	Topics    []string  // problem tags
	Verdict   Verdict   // outcome
	Rating    int       // problem rating, 0 if unrated
	CreatedAt time.Time // submission time
}

// TopicStat holds per-topic attempt counters.
type TopicStat struct {
	Topic     string
	Attempts  int
	Successes int
}

// Accuracy returns successes/attempts as a percentage, 0 when there are no attempts.
func (s TopicStat) Accuracy() float64 {
	if s.Attempts <= 0 {
		return 0
	}
	return float64(s.Successes) / float64(s.Attempts) * 100
}

// WeaknessEntry is a ranked topic; lower accuracy means a bigger weakness.
type WeaknessEntry struct {
	Topic    string  `json:"topic"`
	Accuracy float64 `json:"accuracy"`
	Attempts int     `json:"attempts"`
}

// CatalogProblem is a problem from the public problemset.
type CatalogProblem struct {
	ContestID int
	Index     string
	Name      string
	Rating    int // 0 = unrated
	Topics    []string
}

// ID returns the short problem identifier, e.g. "1850C".
func (p CatalogProblem) ID() string {
	return strconv.Itoa(p.ContestID) + p.Index
}

// Recommendation is a catalog problem selected as practice material.
type Recommendation struct {
	ContestID int    `json:"contest_id"`
	Index     string `json:"index"`
	Name      string `json:"name"`
	Rating    int    `json:"rating"`
	Topics    string `json:"tags"`
	URL       string `json:"url"`
}

// ID returns the short problem identifier used in the progress log.
func (r Recommendation) ID() string {
	return strconv.Itoa(r.ContestID) + r.Index
}

// RatingTier is a (threshold, label) pair of the title table.
type RatingTier struct {
	Threshold int
	Label     string
}

// Contest is a past round as listed by the judge.
type Contest struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Phase string `json:"phase"`
	// AverageRating is filled by the contest finder.
	AverageRating float64 `json:"average_rating"`
}
