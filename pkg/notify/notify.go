// Package notify provides a shared single-value cell with change
// broadcast.
//
// A Notify[T] holds one value and a generation counter that increases
// by exactly one per accepted write. Subscribers read the cell through
// a Stream, which always delivers the latest snapshot: a subscriber
// that falls behind skips intermediate values and learns how many it
// missed, so a writer never blocks on a slow reader.
//
// The zero point of the design is that readers conflate and writers
// never wait. Device state only needs the freshest value plus the
// knowledge that updates were dropped, not a complete history.
package notify

import (
	"context"
	"errors"
	"sync"
)

// Notify errors.
var (
	// ErrClosed is returned by Stream.Next and Wait after the cell has
	// been closed.
	ErrClosed = errors.New("notify: cell closed")
)

// Snapshot is one observation of a cell.
type Snapshot[T any] struct {
	// Value is the cell's value at the observed generation.
	Value T

	// Generation is the cell's write counter at the observation.
	Generation uint64

	// Skipped is the number of writes this stream missed since its
	// previous snapshot. Zero means the stream saw every write.
	Skipped uint64
}

// Notify is a single-value cell with generation counting and change
// broadcast. The zero value is not usable; create cells with
// NewNotify.
type Notify[T any] struct {
	mu      sync.RWMutex
	val     T
	gen     uint64
	closed  bool
	changed chan struct{}
}

// NewNotify creates a cell holding initial at generation zero.
func NewNotify[T any](initial T) *Notify[T] {
	return &Notify[T]{
		val:     initial,
		changed: make(chan struct{}),
	}
}

// Get returns the current value.
func (n *Notify[T]) Get() T {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.val
}

// Generation returns the current write counter.
func (n *Notify[T]) Generation() uint64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.gen
}

// Set stores v, bumps the generation and wakes all streams. Writes on
// a closed cell are dropped.
func (n *Notify[T]) Set(v T) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.val = v
	n.bump()
}

// Update runs fn under the write lock with the current value. When fn
// reports true the returned value is stored and broadcast; when it
// reports false the cell is untouched and no generation is consumed.
func (n *Notify[T]) Update(fn func(T) (T, bool)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	v, mutated := fn(n.val)
	if !mutated {
		return
	}
	n.val = v
	n.bump()
}

// bump advances the generation and signals waiters. Callers hold the
// write lock.
func (n *Notify[T]) bump() {
	n.gen++
	close(n.changed)
	n.changed = make(chan struct{})
}

// Subscribe returns a stream primed with the cell's current value: its
// first Next returns without waiting.
func (n *Notify[T]) Subscribe() *Stream[T] {
	return &Stream[T]{cell: n, primed: true}
}

// Changes returns a stream that observes only mutations made after the
// call.
func (n *Notify[T]) Changes() *Stream[T] {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return &Stream[T]{cell: n, seen: n.gen}
}

// Wait blocks until pred holds, returning the satisfying value. It
// checks the current value first, so a predicate that already holds
// never waits. The wait ends early when ctx is done or the cell is
// closed.
func (n *Notify[T]) Wait(ctx context.Context, pred func(T) bool) (T, error) {
	s := n.Subscribe()
	for {
		snap, err := s.Next(ctx)
		if err != nil {
			var zero T
			return zero, err
		}
		if pred(snap.Value) {
			return snap.Value, nil
		}
	}
}

// Close ends the cell: every blocked and subsequent Next returns
// ErrClosed. Close is idempotent.
func (n *Notify[T]) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	close(n.changed)
}
