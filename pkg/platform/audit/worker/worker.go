package worker

import (
	"context"
	"log/slog"
	"time"

	audit "swiftpolicy/pkg/platform/audit"
)

// Source yields buffered audit events in emission order.
type Source interface {
	DequeueBatch(n int) []audit.Event
}

// Worker moves buffered audit events into a store. It wakes on a signal from
// the emitter or on a fallback interval, and drains whatever remains when its
// context is cancelled.
type Worker struct {
	source    Source
	store     audit.Store
	wake      <-chan struct{}
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
	onFailure func(audit.Event, error)
}

type Option func(*Worker)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) { w.logger = logger }
}

func WithInterval(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

// WithFailureHook is called for every event the store rejects.
func WithFailureHook(fn func(audit.Event, error)) Option {
	return func(w *Worker) { w.onFailure = fn }
}

func NewWorker(source Source, store audit.Store, wake <-chan struct{}, opts ...Option) *Worker {
	w := &Worker{
		source:    source,
		store:     store,
		wake:      wake,
		interval:  time.Second,
		batchSize: 100,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run flushes until ctx is cancelled. Store failures are logged, never returned.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			// Final drain must not inherit the cancelled context.
			w.Flush(context.WithoutCancel(ctx))
			return nil
		case <-w.wake:
			w.Flush(ctx)
		case <-ticker.C:
			w.Flush(ctx)
		}
	}
}

// Flush appends every currently buffered event to the store.
func (w *Worker) Flush(ctx context.Context) {
	for {
		batch := w.source.DequeueBatch(w.batchSize)
		if len(batch) == 0 {
			return
		}
		for _, event := range batch {
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.WarnContext(ctx, "audit append failed",
					"action", event.Action,
					"target_id", event.TargetID,
					"error", err,
				)
				if w.onFailure != nil {
					w.onFailure(event, err)
				}
			}
		}
	}
}
