// Package retry provides an explicit retry policy: a bounded number of
// attempts, a backoff function and a predicate deciding which errors are
// worth another attempt.
package retry

import (
	"context"
	"errors"
	"math"
	"time"
)

// Backoff returns the wait before the attempt following attempt (1-based).
type Backoff interface {
	Delay(attempt int) time.Duration
}

// Exponential waits Multiplier*2^(attempt-1), clamped to [Min, Max].
type Exponential struct {
	Multiplier time.Duration
	Min        time.Duration
	Max        time.Duration
}

// Delay implements Backoff.
func (e Exponential) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := time.Duration(float64(e.Multiplier) * math.Pow(2, float64(attempt-1)))
	if d < e.Min {
		d = e.Min
	}
	if e.Max > 0 && d > e.Max {
		d = e.Max
	}
	return d
}

// Constant waits the same duration between attempts.
type Constant time.Duration

// Delay implements Backoff.
func (c Constant) Delay(int) time.Duration { return time.Duration(c) }

// Policy describes how an operation is retried.
type Policy struct {
	MaxAttempts int
	Backoff     Backoff
	// Retryable reports whether err deserves another attempt. Nil means
	// DefaultRetryable.
	Retryable func(err error) bool
	// Sleep waits between attempts. Nil sleeps on a timer and honours ctx.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnRetry is called before each wait.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// DefaultRetryable retries everything except cancellation. A per-call
// deadline is treated as transient; Do still stops once its own ctx is done.
func DefaultRetryable(err error) bool {
	return !errors.Is(err, context.Canceled)
}

// Do runs fn until it succeeds, returns a non-retryable error, the context is
// done, or MaxAttempts is reached. The last error is returned.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = DefaultRetryable
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if cerr := ctx.Err(); cerr != nil {
			if err == nil {
				err = cerr
			}
			return err
		}
		err = fn(ctx, attempt)
		if err == nil {
			return nil
		}
		if attempt == attempts || !retryable(err) {
			return err
		}
		var wait time.Duration
		if p.Backoff != nil {
			wait = p.Backoff.Delay(attempt)
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, wait)
		}
		if serr := sleep(ctx, wait); serr != nil {
			return err
		}
	}
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// NoSleep is a Sleep function that returns immediately. Useful in tests.
func NoSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }
