// Package queue provides the bounded in-memory buffer coupling the stream
// receiver to the database writer.
//
// The queue is a fixed-capacity FIFO. Producers block when it is full
// (back-pressure), the single reader blocks when it is empty, and Close
// lets the reader drain the remainder and observe end-of-stream.
package queue

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Offer after Close. During shutdown this is an
// expected condition, not a failure.
var ErrClosed = errors.New("queue closed")

// Bounded is a thread-safe fixed-capacity FIFO. Multiple producers, one
// reader.
type Bounded[T any] struct {
	mu       sync.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond
	buf      []T
	head     int // read position
	tail     int // write position
	count    int
	capacity int
	closed   bool

	// Stats
	totalOffered int64
	totalDrained int64
}

// New creates a queue with the given capacity.
func New[T any](capacity int) *Bounded[T] {
	if capacity < 1 {
		capacity = 1
	}
	q := &Bounded[T]{
		buf:      make([]T, capacity),
		capacity: capacity,
	}
	q.notFull = sync.NewCond(&q.mu)
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// Offer appends an item, blocking while the queue is full. It returns
// ErrClosed if the queue has been closed, or the context error if ctx is
// cancelled while waiting.
func (q *Bounded[T]) Offer(ctx context.Context, item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.count == q.capacity && !q.closed {
		if err := q.waitNotFull(ctx); err != nil {
			return err
		}
	}
	if q.closed {
		return ErrClosed
	}

	q.buf[q.tail] = item
	q.tail = (q.tail + 1) % q.capacity
	q.count++
	q.totalOffered++

	q.notEmpty.Signal()
	return nil
}

// waitNotFull blocks on the not-full condition, waking early if ctx is
// cancelled. Must be called with the lock held.
func (q *Bounded[T]) waitNotFull(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		q.notFull.Broadcast()
		q.mu.Unlock()
	})
	q.notFull.Wait()
	stop()
	return ctx.Err()
}

// Receive removes and returns the oldest item, blocking until one is
// available. Returns the zero value and false once the queue is closed and
// fully drained.
func (q *Bounded[T]) Receive() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.count == 0 && !q.closed {
		q.notEmpty.Wait()
	}

	if q.count == 0 && q.closed {
		var zero T
		return zero, false
	}

	return q.takeLocked(), true
}

// TryReceive attempts to receive without blocking.
func (q *Bounded[T]) TryReceive() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 {
		var zero T
		return zero, false
	}
	return q.takeLocked(), true
}

// DrainTo removes up to max items without blocking. Returns nil if empty.
func (q *Bounded[T]) DrainTo(max int) []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 {
		return nil
	}

	n := q.count
	if max > 0 && max < n {
		n = max
	}

	out := make([]T, n)
	for i := 0; i < n; i++ {
		out[i] = q.takeLocked()
	}
	return out
}

// takeLocked removes the head item. Must be called with the lock held and
// count > 0.
func (q *Bounded[T]) takeLocked() T {
	item := q.buf[q.head]
	var zero T
	q.buf[q.head] = zero // clear reference for GC
	q.head = (q.head + 1) % q.capacity
	q.count--
	q.totalDrained++
	q.notFull.Signal()
	return item
}

// Close prevents further offers. The reader drains remaining items and
// then observes end-of-stream.
func (q *Bounded[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
}

// Len returns the current number of buffered items.
func (q *Bounded[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Cap returns the fixed capacity.
func (q *Bounded[T]) Cap() int {
	return q.capacity
}

// Stats returns queue statistics.
func (q *Bounded[T]) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{
		Count:        q.count,
		Capacity:     q.capacity,
		TotalOffered: q.totalOffered,
		TotalDrained: q.totalDrained,
	}
}

// Stats contains queue statistics.
type Stats struct {
	Count        int
	Capacity     int
	TotalOffered int64
	TotalDrained int64
}
