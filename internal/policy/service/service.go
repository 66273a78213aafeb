// Package service orchestrates the policy lifecycle: quoting, binding,
// administrative transitions, certificate access and registry checks.
package service

import (
	"context"
	"errors"
	"log/slog"

	"swiftpolicy/internal/policy/metrics"
	"swiftpolicy/internal/policy/models"
	"swiftpolicy/pkg/attrs"
	"swiftpolicy/pkg/domain"
	dErrors "swiftpolicy/pkg/domain-errors"
	"swiftpolicy/pkg/platform/audit"
	"swiftpolicy/pkg/platform/sentinel"
	"swiftpolicy/pkg/requestcontext"
)

// Service orchestrates policy operations. Every operation takes the acting
// principal explicitly.
type Service struct {
	policies       Store
	engine         PremiumEngine
	queue          SubmissionQueue
	issuer         CertificateIssuer
	customers      CustomerDirectory
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	now            domain.Clock
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

// New constructs a Service.
func New(
	policies Store,
	engine PremiumEngine,
	queue SubmissionQueue,
	issuer CertificateIssuer,
	customers CustomerDirectory,
	opts ...Option,
) *Service {
	s := &Service{
		policies:  policies,
		engine:    engine,
		queue:     queue,
		issuer:    issuer,
		customers: customers,
		now:       domain.SystemClock,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// load fetches a policy and translates store errors.
func (s *Service) load(ctx context.Context, id domain.PolicyID) (*models.Policy, error) {
	p, err := s.policies.FindByID(ctx, id)
	if err != nil {
		return nil, translateStoreErr(err, "failed to load policy")
	}
	return p, nil
}

// authorizeRead allows the owner and administrators.
func authorizeRead(actor domain.Actor, p *models.Policy) error {
	if !actor.CanActFor(p.OwnerID) {
		return dErrors.New(dErrors.CodeForbidden, "actor may not access this policy")
	}
	return nil
}

func requireAdmin(actor domain.Actor) error {
	if !actor.IsAdmin() {
		return dErrors.New(dErrors.CodeForbidden, "administrator role required")
	}
	return nil
}

func translateStoreErr(err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "policy not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, msg)
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

// asValidation converts model invariant violations to validation errors for callers.
func asValidation(err error) error {
	if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
		return dErrors.New(dErrors.CodeValidation, err.Error())
	}
	return err
}

// logAudit writes the structured audit log line and emits the audit event.
// Emission is fire-and-forget; a failing sink never fails the operation.
func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, actor domain.Actor, targetID, reason string, attributes ...any) {
	if correlationID := requestcontext.CorrelationID(ctx); correlationID != "" {
		attributes = append(attributes, "correlation_id", correlationID)
	}
	args := append(attributes, "actor_id", actor.ID, "target_id", targetID, "event", string(event), "log_type", "audit")
	if reason != "" {
		args = append(args, "reason", reason)
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(event), args...)
	}
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, audit.Event{
		ActorID:  actor.ID,
		Action:   string(event),
		TargetID: targetID,
		Details:  attrs.Format(attributes, "correlation_id"),
		Reason:   reason,
	}); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "event", string(event), "error", err)
	}
}

func (s *Service) incrementTransition(t models.Transition, outcome string) {
	if s.metrics != nil {
		s.metrics.IncrementTransition(string(t), outcome)
	}
}
