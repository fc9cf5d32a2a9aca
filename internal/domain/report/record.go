package report

import "time"

// Record is one persisted run: the date, the weakest topics with their
// accuracies and the recommended problem IDs.
type Record struct {
	ID         string    `json:"id,omitempty"`
	Handle     string    `json:"handle"`
	Date       time.Time `json:"date"`
	Rating     int       `json:"rating"`
	WeakTopics []string  `json:"weak_topics"`
	Accuracies []float64 `json:"accuracies"`
	Problems   []string  `json:"problems"`
}
