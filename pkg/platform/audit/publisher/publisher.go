// Package publisher delivers audit events to a store without letting audit
// failures affect the operation that produced them.
//
// In the default synchronous mode Emit appends directly and returns the store
// error for the caller to log. With WithAsyncBuffer, Emit only enqueues into a
// ring buffer and a background worker flushes to the store.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	audit "swiftpolicy/pkg/platform/audit"
	"swiftpolicy/pkg/platform/audit/worker"
)

// Lister is implemented by stores that can read events back, used by tests
// and admin tooling.
type Lister interface {
	ListByTarget(ctx context.Context, targetID string) ([]audit.Event, error)
}

var ErrNotListable = errors.New("audit store does not support listing")

type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	metrics *Metrics
	now     func() time.Time

	buffer *RingBuffer
	wake   chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) { p.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(p *Publisher) { p.now = now }
}

// WithAsyncBuffer switches the publisher to buffered mode with the given capacity.
func WithAsyncBuffer(capacity int) Option {
	return func(p *Publisher) { p.buffer = NewRingBuffer(capacity) }
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer != nil {
		p.wake = make(chan struct{}, 1)
		p.done = make(chan struct{})
		ctx, cancel := context.WithCancel(context.Background())
		p.cancel = cancel
		w := worker.NewWorker(p.buffer, store, p.wake,
			worker.WithLogger(p.logger),
			worker.WithFailureHook(func(audit.Event, error) { p.metrics.IncPersistFailures() }),
		)
		go func() {
			defer close(p.done)
			_ = w.Run(ctx)
		}()
	}
	return p
}

// Emit records an event. In async mode it never blocks and always returns nil.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	event = audit.Normalize(event, p.now())
	p.metrics.IncEmitted()

	if p.buffer == nil {
		if err := p.store.Append(ctx, event); err != nil {
			p.metrics.IncPersistFailures()
			return err
		}
		return nil
	}

	if p.buffer.Enqueue(event) {
		p.metrics.IncDropped()
		p.logger.WarnContext(ctx, "audit buffer full, dropped oldest event")
	}
	p.metrics.SetBufferDepth(p.buffer.Len())
	select {
	case p.wake <- struct{}{}:
	default:
	}
	return nil
}

// List reads events for a target back from the store when it supports it.
func (p *Publisher) List(ctx context.Context, targetID string) ([]audit.Event, error) {
	lister, ok := p.store.(Lister)
	if !ok {
		return nil, ErrNotListable
	}
	return lister.ListByTarget(ctx, targetID)
}

// Close stops the flush worker after draining buffered events.
func (p *Publisher) Close() error {
	p.once.Do(func() {
		if p.cancel != nil {
			p.cancel()
			<-p.done
		}
	})
	return nil
}
