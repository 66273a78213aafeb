// Package service is the MID queue: it records which policies must be
// reported to the registry, drains them through the gateway and answers
// registration queries.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"swiftpolicy/internal/registry/metrics"
	"swiftpolicy/internal/registry/models"
	"swiftpolicy/pkg/attrs"
	"swiftpolicy/pkg/domain"
	dErrors "swiftpolicy/pkg/domain-errors"
	"swiftpolicy/pkg/platform/audit"
	"swiftpolicy/pkg/platform/sentinel"
	"swiftpolicy/pkg/requestcontext"
)

const defaultItemTimeout = 10 * time.Second

// Service owns submission state. Gateway failures are recorded on the
// submission and never returned from Drain.
type Service struct {
	submissions    Store
	gateway        Gateway
	locks          Locker
	mirror         PolicyMirror
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	now            domain.Clock
	itemTimeout    time.Duration
	retry          models.RetryPolicy
	kick           func()
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithClock(clock domain.Clock) Option {
	return func(s *Service) {
		s.now = clock
	}
}

func WithPolicyMirror(m PolicyMirror) Option {
	return func(s *Service) {
		s.mirror = m
	}
}

// WithItemTimeout bounds each gateway call.
func WithItemTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.itemTimeout = d
		}
	}
}

// WithRetryPolicy sets when failed submissions are re-armed. The zero policy
// re-arms on every tick without limit.
func WithRetryPolicy(p models.RetryPolicy) Option {
	return func(s *Service) {
		s.retry = p
	}
}

// New constructs a Service.
func New(submissions Store, gw Gateway, locks Locker, opts ...Option) *Service {
	s := &Service{
		submissions: submissions,
		gateway:     gw,
		locks:       locks,
		now:         domain.SystemClock,
		itemTimeout: defaultItemTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnEnqueue registers a hook called after a submission is created or
// re-armed, typically the worker's Kick.
func (s *Service) OnEnqueue(fn func()) {
	s.kick = fn
}

func (s *Service) kickWorker() {
	if s.kick != nil {
		s.kick()
	}
}

func (s *Service) setMirror(ctx context.Context, id domain.PolicyID, status domain.MIDStatus) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.SetMIDStatus(ctx, id, status); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "failed to mirror registry status onto policy",
			"policy_id", id.String(), "mid_status", status.String(), "error", err)
	}
}

func translateStoreErr(err error, msg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "submission not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

// logAudit writes the structured audit log line and emits the audit event.
func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, actor domain.Actor, targetID string, attributes ...any) {
	if correlationID := requestcontext.CorrelationID(ctx); correlationID != "" {
		attributes = append(attributes, "correlation_id", correlationID)
	}
	args := append(attributes, "actor_id", actor.ID, "target_id", targetID, "event", string(event), "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(event), args...)
	}
	if s.auditPublisher == nil {
		return
	}
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		ActorID:  actor.ID,
		Action:   string(event),
		TargetID: targetID,
		Details:  attrs.Format(attributes, "correlation_id"),
	})
}
