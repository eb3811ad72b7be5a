// Package queue delivers items to a handler on a background worker without
// blocking producers.
package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/linolazarous/cursorcode-ai/logging"
	"github.com/linolazarous/cursorcode-ai/retry"
)

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("queue: closed")

// ErrFull is returned by Submit when the buffer is full and the item was dropped.
var ErrFull = errors.New("queue: full")

// Handler delivers one item.
type Handler[T any] func(ctx context.Context, item T) error

// Options configures an Async queue.
type Options struct {
	Name   string
	Size   int
	Retry  retry.Policy
	Logger logging.Logger
}

// Async is a buffered fire-and-forget queue with a single delivery worker.
// Failed deliveries are retried with Options.Retry and then logged and
// dropped.
type Async[T any] struct {
	name    string
	items   chan T
	handler Handler[T]
	policy  retry.Policy
	logger  logging.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

// NewAsync starts a worker that passes items to h.
func NewAsync[T any](h Handler[T], optFns ...func(o *Options)) *Async[T] {
	opts := Options{
		Name:   "queue",
		Size:   1024,
		Retry:  retry.Policy{MaxAttempts: 1},
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Size < 1 {
		opts.Size = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &Async[T]{
		name:    opts.Name,
		items:   make(chan T, opts.Size),
		handler: h,
		policy:  opts.Retry,
		logger:  opts.Logger,
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
	go q.run()
	return q
}

// Submit enqueues item without blocking.
func (q *Async[T]) Submit(item T) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrClosed
	}
	select {
	case q.items <- item:
		return nil
	default:
		q.logger.Warn("queue full, dropping item", "queue", q.name)
		return ErrFull
	}
}

// Len returns the number of buffered items.
func (q *Async[T]) Len() int { return len(q.items) }

// Close stops accepting items and waits for buffered items to be delivered.
// If ctx ends first, in-flight retries are abandoned and ctx.Err is returned.
func (q *Async[T]) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.items)
	}
	q.mu.Unlock()

	select {
	case <-q.done:
		q.cancel()
		return nil
	case <-ctx.Done():
		q.cancel()
		<-q.done
		return ctx.Err()
	}
}

func (q *Async[T]) run() {
	defer close(q.done)
	for item := range q.items {
		if q.ctx.Err() != nil {
			q.logger.Warn("queue abandoned, dropping item", "queue", q.name)
			continue
		}
		err := q.policy.Do(q.ctx, func(ctx context.Context, _ int) error {
			return q.handler(ctx, item)
		})
		if err != nil {
			q.logger.Error("queue delivery failed", "queue", q.name, "error", err)
		}
	}
}
