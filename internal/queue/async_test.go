package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linolazarous/cursorcode-ai/retry"
)

func TestAsyncDeliversInOrder(t *testing.T) {
	var mu sync.Mutex
	var got []int
	q := NewAsync(func(_ context.Context, n int) error {
		mu.Lock()
		got = append(got, n)
		mu.Unlock()
		return nil
	})

	for i := 0; i < 10; i++ {
		require.NoError(t, q.Submit(i))
	}
	require.NoError(t, q.Close(context.Background()))

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
}

func TestAsyncRetriesDelivery(t *testing.T) {
	var calls atomic.Int32
	q := NewAsync(func(_ context.Context, _ string) error {
		if calls.Add(1) < 3 {
			return errors.New("unavailable")
		}
		return nil
	}, func(o *Options) {
		o.Retry = retry.Policy{MaxAttempts: 5, Sleep: retry.NoSleep}
	})

	require.NoError(t, q.Submit("event"))
	require.NoError(t, q.Close(context.Background()))
	assert.Equal(t, int32(3), calls.Load())
}

func TestAsyncSubmitNeverBlocks(t *testing.T) {
	release := make(chan struct{})
	q := NewAsync(func(_ context.Context, _ int) error {
		<-release
		return nil
	}, func(o *Options) { o.Size = 1 })

	done := make(chan struct{})
	var errs []error
	go func() {
		for i := 0; i < 5; i++ {
			errs = append(errs, q.Submit(i))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Submit blocked")
	}
	assert.Contains(t, errs, ErrFull)

	close(release)
	require.NoError(t, q.Close(context.Background()))
}

func TestAsyncSubmitAfterClose(t *testing.T) {
	q := NewAsync(func(context.Context, int) error { return nil })
	require.NoError(t, q.Close(context.Background()))
	assert.ErrorIs(t, q.Submit(1), ErrClosed)
	require.NoError(t, q.Close(context.Background()))
}

func TestAsyncCloseHonoursContext(t *testing.T) {
	block := make(chan struct{})
	q := NewAsync(func(ctx context.Context, _ int) error {
		select {
		case <-block:
		case <-ctx.Done():
		}
		return ctx.Err()
	})
	require.NoError(t, q.Submit(1))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Close(ctx), context.DeadlineExceeded)
	close(block)
}
