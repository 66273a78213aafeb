package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"swiftpolicy/internal/registry/models"
	"swiftpolicy/pkg/requestcontext"
)

const (
	DefaultTickInterval = 10 * time.Second
	DefaultKickDelay    = time.Second
)

// Drainer runs one pass over the submission queue.
type Drainer interface {
	Drain(ctx context.Context) (models.DrainReport, error)
}

// Worker drives the MID queue. It drains on a fixed tick and shortly after a
// Kick, so freshly queued submissions do not wait a full interval. Kicks that
// arrive while one is already scheduled are coalesced.
type Worker struct {
	drainer   Drainer
	interval  time.Duration
	kickDelay time.Duration
	logger    *slog.Logger
	onReport  func(models.DrainReport)

	kicks chan struct{}

	mu      sync.Mutex
	pending bool
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

func WithKickDelay(d time.Duration) Option {
	return func(w *Worker) {
		if d >= 0 {
			w.kickDelay = d
		}
	}
}

// WithReportHook is called after every completed drain.
func WithReportHook(fn func(models.DrainReport)) Option {
	return func(w *Worker) { w.onReport = fn }
}

func New(drainer Drainer, opts ...Option) *Worker {
	w := &Worker{
		drainer:   drainer,
		interval:  DefaultTickInterval,
		kickDelay: DefaultKickDelay,
		logger:    slog.Default(),
		kicks:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Kick schedules a drain after the kick delay. It never blocks.
func (w *Worker) Kick() {
	w.mu.Lock()
	if w.pending {
		w.mu.Unlock()
		return
	}
	w.pending = true
	w.mu.Unlock()

	select {
	case w.kicks <- struct{}{}:
	default:
	}
}

// Run drains until ctx is cancelled. Drain errors are logged, never returned.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var delayed <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.kicks:
			if delayed == nil {
				delayed = time.After(w.kickDelay)
			}
		case <-delayed:
			delayed = nil
			w.clearPending()
			w.Tick(ctx)
		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}

func (w *Worker) clearPending() {
	w.mu.Lock()
	w.pending = false
	w.mu.Unlock()
}

// Tick runs a single drain under a fresh correlation id.
func (w *Worker) Tick(ctx context.Context) {
	ctx = requestcontext.WithCorrelationID(ctx, requestcontext.NewCorrelationID())
	report, err := w.drainer.Drain(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "registry drain failed", "error", err)
		return
	}
	if w.onReport != nil {
		w.onReport(report)
	}
}
