// Package search provides the debounced typeahead used by relation fields.
package search

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultDelay is the debounce window applied when none is configured.
const DefaultDelay = 500 * time.Millisecond

// ErrSuperseded is returned to a call overtaken by a newer one.
var ErrSuperseded = errors.New("search superseded by a newer query")

// QueryFunc performs the remote lookup.
type QueryFunc[T any] func(ctx context.Context, q string) ([]T, error)

// Typeahead debounces lookups so that a burst of keystrokes results in a
// single request carrying the final value.
// INVARIANT: only the call holding the latest sequence number may reach the
// network or return results
type Typeahead[T any] struct {
	query QueryFunc[T]
	delay time.Duration

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// New creates a Typeahead. A non-positive delay uses DefaultDelay.
func New[T any](query QueryFunc[T], delay time.Duration) *Typeahead[T] {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Typeahead[T]{query: query, delay: delay}
}

// Search waits out the debounce window and then queries, unless a newer call
// arrives first, in which case it returns ErrSuperseded. A newer call also
// cancels this call's in-flight request.
func (t *Typeahead[T]) Search(ctx context.Context, q string) ([]T, error) {
	t.mu.Lock()
	t.seq++
	seq := t.seq
	if t.cancel != nil {
		t.cancel()
	}
	callCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.mu.Unlock()
	defer cancel()

	timer := time.NewTimer(t.delay)
	defer timer.Stop()
	select {
	case <-callCtx.Done():
		if !t.latest(seq) {
			return nil, ErrSuperseded
		}
		return nil, callCtx.Err()
	case <-timer.C:
	}
	if !t.latest(seq) {
		return nil, ErrSuperseded
	}

	res, err := t.query(callCtx, q)
	if !t.latest(seq) {
		return nil, ErrSuperseded
	}
	return res, err
}

// Cancel abandons any pending or in-flight call.
func (t *Typeahead[T]) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

func (t *Typeahead[T]) latest(seq uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return seq == t.seq
}
