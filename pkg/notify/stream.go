package notify

import "context"

// Stream is one subscriber's cursor over a cell. A stream tracks the
// last generation it delivered and conflates everything newer into the
// next snapshot. Streams are cheap, carry no buffer and need no
// cleanup; dropping one is enough.
//
// A Stream is meant for a single goroutine. Concurrent Next calls on
// the same stream race on the cursor.
type Stream[T any] struct {
	cell   *Notify[T]
	seen   uint64
	primed bool
}

// Next returns the next snapshot. It blocks until the cell moves past
// the stream's cursor, the cell closes (ErrClosed) or ctx is done
// (the context's error). A primed stream returns the current value
// immediately on its first call.
func (s *Stream[T]) Next(ctx context.Context) (Snapshot[T], error) {
	for {
		s.cell.mu.RLock()
		if s.cell.closed {
			s.cell.mu.RUnlock()
			return Snapshot[T]{}, ErrClosed
		}
		if s.primed {
			snap := Snapshot[T]{Value: s.cell.val, Generation: s.cell.gen}
			s.primed = false
			s.seen = s.cell.gen
			s.cell.mu.RUnlock()
			return snap, nil
		}
		if s.cell.gen > s.seen {
			snap := Snapshot[T]{
				Value:      s.cell.val,
				Generation: s.cell.gen,
				Skipped:    s.cell.gen - s.seen - 1,
			}
			s.seen = s.cell.gen
			s.cell.mu.RUnlock()
			return snap, nil
		}
		ch := s.cell.changed
		s.cell.mu.RUnlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return Snapshot[T]{}, ctx.Err()
		}
	}
}

// Wait drives a stream until fn reports done. fn sees every snapshot
// the stream delivers; returning an error aborts the wait with that
// error. Cancellation and deadlines arrive through ctx.
func Wait[T, R any](ctx context.Context, s *Stream[T], fn func(Snapshot[T]) (R, bool, error)) (R, error) {
	var zero R
	for {
		snap, err := s.Next(ctx)
		if err != nil {
			return zero, err
		}
		r, done, err := fn(snap)
		if err != nil {
			return zero, err
		}
		if done {
			return r, nil
		}
	}
}
