package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/okian/cfcoach/pkg/metrics"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const backendSQLite = "sqlite"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	handle      TEXT NOT NULL,
	run_at      TEXT NOT NULL,
	rating      INTEGER NOT NULL DEFAULT 0,
	weak_topics TEXT NOT NULL DEFAULT '[]',
	accuracies  TEXT NOT NULL DEFAULT '[]',
	problems    TEXT NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS idx_runs_handle_run_at ON runs(handle, run_at);
`

// SQLiteStore keeps the run history in a SQLite database.
type SQLiteStore struct {
	db    *sql.DB
	newID func() string
}

// NewSQLiteStore opens (or creates) the database at path. ":memory:" is accepted.
func NewSQLiteStore(ctx context.Context, path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("%w: create db dir: %w", ErrStorage, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %w", ErrStorage, err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writes.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, newID: uuid.NewString}
	for _, opt := range opts {
		opt(s)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: enable wal: %w", ErrStorage, err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: init schema: %w", ErrStorage, err)
	}
	return s, nil
}

// Append implements Store. Records without an id get a generated one.
func (s *SQLiteStore) Append(ctx context.Context, rec Record) error {
	if rec.Handle == "" {
		return fmt.Errorf("%w: empty handle", ErrInvalidRecord)
	}
	if rec.ID == "" {
		rec.ID = s.newID()
	}
	topics, err := json.Marshal(nonNil(rec.WeakTopics))
	if err != nil {
		return fmt.Errorf("%w: marshal topics: %w", ErrInvalidRecord, err)
	}
	accs, err := json.Marshal(nonNil(rec.Accuracies))
	if err != nil {
		return fmt.Errorf("%w: marshal accuracies: %w", ErrInvalidRecord, err)
	}
	problems, err := json.Marshal(nonNil(rec.Problems))
	if err != nil {
		return fmt.Errorf("%w: marshal problems: %w", ErrInvalidRecord, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, handle, run_at, rating, weak_topics, accuracies, problems) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Handle, rec.Date.UTC().Format(time.RFC3339Nano), rec.Rating, string(topics), string(accs), string(problems),
	)
	if err != nil {
		metrics.RecordStoreError(backendSQLite)
		return fmt.Errorf("%w: insert run: %w", ErrStorage, err)
	}
	return nil
}

// History implements Store.
func (s *SQLiteStore) History(ctx context.Context, handle string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, handle, run_at, rating, weak_topics, accuracies, problems
		   FROM runs WHERE handle = ? ORDER BY run_at DESC, rowid DESC LIMIT ?`,
		handle, limit,
	)
	if err != nil {
		metrics.RecordStoreError(backendSQLite)
		return nil, fmt.Errorf("%w: query runs: %w", ErrStorage, err)
	}
	defer func() { _ = rows.Close() }()

	out := []Record{}
	for rows.Next() {
		var (
			rec                        Record
			runAt                      string
			topics, accs, problemsJSON string
		)
		if err := rows.Scan(&rec.ID, &rec.Handle, &runAt, &rec.Rating, &topics, &accs, &problemsJSON); err != nil {
			metrics.RecordStoreError(backendSQLite)
			return nil, fmt.Errorf("%w: scan run: %w", ErrStorage, err)
		}
		if rec.Date, err = time.Parse(time.RFC3339Nano, runAt); err != nil {
			return nil, fmt.Errorf("%w: run_at: %w", ErrStorage, err)
		}
		if err := json.Unmarshal([]byte(topics), &rec.WeakTopics); err != nil {
			return nil, fmt.Errorf("%w: weak_topics: %w", ErrStorage, err)
		}
		if err := json.Unmarshal([]byte(accs), &rec.Accuracies); err != nil {
			return nil, fmt.Errorf("%w: accuracies: %w", ErrStorage, err)
		}
		if err := json.Unmarshal([]byte(problemsJSON), &rec.Problems); err != nil {
			return nil, fmt.Errorf("%w: problems: %w", ErrStorage, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		metrics.RecordStoreError(backendSQLite)
		return nil, fmt.Errorf("%w: iterate runs: %w", ErrStorage, err)
	}
	slices.Reverse(out)
	return out, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
