// Package repository persists run records: the CSV progress log, a SQLite
// run history and an in-memory store for tests and ephemeral runs.
package repository

import (
	"context"

	"github.com/okian/cfcoach/internal/domain/report"
)

// Record is one persisted run.
type Record = report.Record

// Store provides append/read access to run history.
type Store interface {
	// Append persists one run record.
	Append(ctx context.Context, rec Record) error

	// History returns the last limit records of handle, oldest first.
	// limit <= 0 returns every record.
	History(ctx context.Context, handle string, limit int) ([]Record, error)

	// Close releases underlying resources.
	Close() error
}

// tail returns the last limit elements of recs.
func tail(recs []Record, limit int) []Record {
	if limit <= 0 || limit >= len(recs) {
		return recs
	}
	return recs[len(recs)-limit:]
}
