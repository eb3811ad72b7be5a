package audit

import (
	"context"
	"time"

	"github.com/linolazarous/cursorcode-ai/internal/queue"
	"github.com/linolazarous/cursorcode-ai/logging"
	"github.com/linolazarous/cursorcode-ai/retry"
)

// AsyncOptions configures an AsyncSink.
type AsyncOptions struct {
	QueueSize  int
	MaxRetries int
	RetryDelay time.Duration
	Logger     logging.Logger
}

// AsyncSink emits into a buffered queue drained by a worker that writes to a
// Store, retrying failed writes.
type AsyncSink struct {
	q      *queue.Async[Event]
	logger logging.Logger
}

// NewAsyncSink starts the delivery worker.
func NewAsyncSink(store Store, optFns ...func(o *AsyncOptions)) *AsyncSink {
	opts := AsyncOptions{
		QueueSize:  1024,
		MaxRetries: 5,
		RetryDelay: 30 * time.Second,
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	q := queue.NewAsync(store.Save, func(o *queue.Options) {
		o.Name = "audit"
		o.Size = opts.QueueSize
		o.Logger = opts.Logger
		o.Retry = retry.Policy{
			MaxAttempts: opts.MaxRetries + 1,
			Backoff:     retry.Constant(opts.RetryDelay),
		}
	})
	return &AsyncSink{q: q, logger: opts.Logger}
}

// Emit implements Sink.
func (s *AsyncSink) Emit(ev Event) {
	if err := s.q.Submit(ev); err != nil {
		s.logger.Warn("audit event not queued", "action", ev.Action, "error", err)
	}
}

// Close drains pending events.
func (s *AsyncSink) Close(ctx context.Context) error { return s.q.Close(ctx) }
