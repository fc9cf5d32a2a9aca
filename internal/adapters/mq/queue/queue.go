// Package queue holds pending analysis runs.
//
// The queue is deliberately tiny: with the default capacity of one, a trigger
// that arrives while another is already waiting is rejected, so runs can never
// pile up behind a slow upstream.
package queue

import (
	"context"
	"sync"

	"github.com/okian/cfcoach/internal/domain/model"
	"github.com/okian/cfcoach/pkg/metrics"
)

const defaultCapacity = 1

// Trigger is the payload flowing through the queue.
type Trigger = model.Trigger

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Offer adds a trigger. It returns ErrFull when a run is already pending
	// and ErrClosed after Close.
	Offer(ctx context.Context, t Trigger) error

	// Enqueue is Offer reduced to a success flag.
	Enqueue(ctx context.Context, t Trigger) bool

	// Dequeue returns the channel pending triggers are delivered on.
	// The channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Trigger

	// Len returns the number of pending triggers.
	Len(ctx context.Context) int

	// Close stops accepting triggers. Pending ones are still delivered.
	Close() error

	// IsClosed reports whether Close was called.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	events   chan Trigger
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.events = make(chan Trigger, q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Capacity returns the maximum number of pending triggers.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Offer adds a trigger without blocking.
func (q *InMemoryQueue) Offer(ctx context.Context, t Trigger) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueRejection("closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueRejection("cancelled")
		return err
	}

	select {
	case q.events <- t:
		metrics.UpdateQueueSize(len(q.events))
		return nil
	default:
		metrics.RecordQueueRejection("pending")
		return ErrFull
	}
}

// Enqueue adds a trigger and reports whether it was accepted.
func (q *InMemoryQueue) Enqueue(ctx context.Context, t Trigger) bool {
	return q.Offer(ctx, t) == nil
}

// Dequeue returns the underlying channel. Consumers should call Len after
// each receive if they want the size gauge to follow.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Trigger {
	return q.events
}

// Len returns the current number of pending triggers.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.events)
	metrics.UpdateQueueSize(size)
	return size
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.events)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
