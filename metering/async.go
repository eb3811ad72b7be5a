package metering

import (
	"context"
	"time"

	"github.com/linolazarous/cursorcode-ai/internal/queue"
	"github.com/linolazarous/cursorcode-ai/logging"
	"github.com/linolazarous/cursorcode-ai/retry"
)

// AsyncOptions configures an AsyncReporter.
type AsyncOptions struct {
	QueueSize  int
	MaxRetries int
	RetryDelay time.Duration
	Logger     logging.Logger
}

// AsyncReporter queues records for a Store. Delivery is at-least-once.
type AsyncReporter struct {
	q      *queue.Async[Record]
	logger logging.Logger
}

// NewAsyncReporter starts the delivery worker.
func NewAsyncReporter(store Store, optFns ...func(o *AsyncOptions)) *AsyncReporter {
	opts := AsyncOptions{
		QueueSize:  1024,
		MaxRetries: 5,
		RetryDelay: 30 * time.Second,
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	q := queue.NewAsync(store.Put, func(o *queue.Options) {
		o.Name = "metering"
		o.Size = opts.QueueSize
		o.Logger = opts.Logger
		o.Retry = retry.Policy{
			MaxAttempts: opts.MaxRetries + 1,
			Backoff:     retry.Constant(opts.RetryDelay),
		}
	})
	return &AsyncReporter{q: q, logger: opts.Logger}
}

// Report implements Reporter.
func (r *AsyncReporter) Report(rec Record) {
	if err := r.q.Submit(rec); err != nil {
		r.logger.Warn("usage record not queued", "request_id", rec.RequestID, "error", err)
	}
}

// Close drains pending records.
func (r *AsyncReporter) Close(ctx context.Context) error { return r.q.Close(ctx) }
