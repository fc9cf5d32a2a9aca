package repository

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Snapshot is an immutable view of a MemoryStore.
type Snapshot struct {
	ByHandle map[string][]Record
}

// MemoryStore keeps records in process memory. Writes are serialized and
// publish a fresh snapshot; reads never take the write lock.
type MemoryStore struct {
	mu       sync.Mutex
	byHandle map[string][]Record
	snapshot atomic.Pointer[Snapshot]
	closed   atomic.Bool
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{byHandle: make(map[string][]Record)}
	s.snapshot.Store(&Snapshot{ByHandle: map[string][]Record{}})
	return s
}

// Append implements Store.
func (s *MemoryStore) Append(_ context.Context, rec Record) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if rec.Handle == "" {
		return fmt.Errorf("%w: empty handle", ErrInvalidRecord)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byHandle[rec.Handle] = append(s.byHandle[rec.Handle], rec)
	s.publishSnapshotInternal()
	return nil
}

// History implements Store.
func (s *MemoryStore) History(_ context.Context, handle string, limit int) ([]Record, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	recs := tail(s.snapshot.Load().ByHandle[handle], limit)
	out := make([]Record, len(recs))
	copy(out, recs)
	return out, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.closed.Store(true)
	return nil
}

// publishSnapshotInternal rebuilds and publishes a new snapshot (assumes lock is held)
func (s *MemoryStore) publishSnapshotInternal() {
	byHandle := make(map[string][]Record, len(s.byHandle))
	for h, recs := range s.byHandle {
		cp := make([]Record, len(recs))
		copy(cp, recs)
		byHandle[h] = cp
	}
	s.snapshot.Store(&Snapshot{ByHandle: byHandle})
}
