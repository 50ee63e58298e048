package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) query(_ context.Context, q string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, q)
	return []string{q + "-result"}, nil
}

// TestSearch_DebouncesBurst verifies five keystrokes inside the window cause one request.
func TestSearch_DebouncesBurst(t *testing.T) {
	defer goleak.VerifyNone(t)

	rec := &recorder{}
	ta := New(rec.query, 80*time.Millisecond)

	type outcome struct {
		res []string
		err error
	}
	results := make([]chan outcome, 5)
	for i, q := range []string{"a", "an", "ana", "ana ", "ana l"} {
		results[i] = make(chan outcome, 1)
		go func(ch chan outcome, q string) {
			res, err := ta.Search(context.Background(), q)
			ch <- outcome{res, err}
		}(results[i], q)
		time.Sleep(5 * time.Millisecond)
	}

	for i := 0; i < 4; i++ {
		o := <-results[i]
		assert.ErrorIs(t, o.err, ErrSuperseded, "call %d", i)
	}
	last := <-results[4]
	require.NoError(t, last.err)
	assert.Equal(t, []string{"ana l-result"}, last.res)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []string{"ana l"}, rec.calls)
}

// TestSearch_NewerCallCancelsInFlight verifies a slow request is cancelled and its result dropped.
func TestSearch_NewerCallCancelsInFlight(t *testing.T) {
	defer goleak.VerifyNone(t)

	started := make(chan struct{})
	var once sync.Once
	query := func(ctx context.Context, q string) ([]string, error) {
		if q == "slow" {
			once.Do(func() { close(started) })
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return []string{q}, nil
	}
	ta := New(query, time.Millisecond)

	slow := make(chan error, 1)
	go func() {
		_, err := ta.Search(context.Background(), "slow")
		slow <- err
	}()
	<-started

	res, err := ta.Search(context.Background(), "fast")
	require.NoError(t, err)
	assert.Equal(t, []string{"fast"}, res)
	assert.ErrorIs(t, <-slow, ErrSuperseded)
}

// TestSearch_CallerCancel verifies the caller's context aborts the wait.
func TestSearch_CallerCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	rec := &recorder{}
	ta := New(rec.query, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ta.Search(ctx, "x")
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, rec.calls)
}

// TestSearch_PropagatesError verifies query errors reach the latest caller.
func TestSearch_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	ta := New(func(context.Context, string) ([]int, error) { return nil, boom }, time.Millisecond)
	_, err := ta.Search(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
}

// TestNew_DefaultDelay verifies the default window.
func TestNew_DefaultDelay(t *testing.T) {
	ta := New(func(context.Context, string) ([]int, error) { return nil, nil }, 0)
	assert.Equal(t, DefaultDelay, ta.delay)
}
