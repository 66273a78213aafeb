// Package service issues insurance certificates for Active policies.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"swiftpolicy/internal/document/metrics"
	"swiftpolicy/internal/document/models"
	"swiftpolicy/internal/document/render"
	"swiftpolicy/internal/document/signer"
	policymodels "swiftpolicy/internal/policy/models"
	"swiftpolicy/pkg/attrs"
	"swiftpolicy/pkg/domain"
	dErrors "swiftpolicy/pkg/domain-errors"
	"swiftpolicy/pkg/platform/audit"
	"swiftpolicy/pkg/platform/sentinel"
	"swiftpolicy/pkg/requestcontext"
)

var errNoLongerActive = errors.New("policy left Active during issuance")

type Service struct {
	policies       PolicyStore
	documents      Store
	signer         Signer
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
	now            domain.Clock
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(clock domain.Clock) Option {
	return func(s *Service) { s.now = clock }
}

func New(policies PolicyStore, documents Store, sgn Signer, opts ...Option) *Service {
	s := &Service{
		policies:  policies,
		documents: documents,
		signer:    sgn,
		tracer:    otel.Tracer("swiftpolicy/document"),
		now:       domain.SystemClock,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue renders, signs and stores a certificate and attaches it to the
// policy. It returns a nil ref without error when the policy is not Active,
// including an Active policy whose cover has run out. Every call issues a
// fresh certificate; earlier ones stay in storage.
func (s *Service) Issue(ctx context.Context, actor domain.Actor, id domain.PolicyID) (ref *policymodels.CertificateRef, err error) {
	ctx, span := s.tracer.Start(ctx, "document.issue",
		trace.WithAttributes(attribute.String("policy.id", id.String())))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "issuance failed")
		}
		span.SetAttributes(attribute.Bool("certificate.issued", ref != nil))
		span.End()
	}()

	p, err := s.policies.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "policy not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load policy")
	}
	now := s.now()
	if !p.IsUsable(now) {
		s.skipped(ctx, id, p.DerivedStatus(now))
		return nil, nil
	}

	cert := certificateFor(p, domain.NewDocumentID(), now)
	cert.Token, err = s.signer.Sign(cert)
	if err != nil {
		return nil, err
	}
	content, err := render.Certificate(cert)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to render certificate")
	}
	doc := &models.Document{
		ID:          cert.DocumentID,
		PolicyID:    p.ID,
		StorageKey:  cert.StorageKey(),
		ContentType: models.ContentTypeText,
		Content:     content,
		Token:       cert.Token,
		CreatedAt:   now,
	}
	if err := s.documents.Put(ctx, doc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store certificate")
	}

	ref = &policymodels.CertificateRef{
		DocumentID: cert.DocumentID,
		StorageKey: doc.StorageKey,
		IssuedAt:   now,
		ValidFrom:  cert.ValidFrom,
		ValidTo:    cert.ValidTo,
	}
	_, err = s.policies.Update(ctx, id, func(current *policymodels.Policy) error {
		if current.Status != policymodels.StatusActive {
			return errNoLongerActive
		}
		current.Certificate = ref
		current.UpdatedAt = now
		return nil
	})
	if err != nil {
		s.discard(ctx, doc.ID)
		if errors.Is(err, errNoLongerActive) {
			s.skipped(ctx, id, "changed")
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to attach certificate")
	}

	if s.metrics != nil {
		s.metrics.IncrementIssued(string(p.CoverType))
	}
	s.logAudit(ctx, audit.EventCertificateIssued, actor, id.String(),
		"document_id", cert.DocumentID.String(),
		"valid_to", cert.ValidTo.Format("2006-01-02"),
	)
	return ref, nil
}

func certificateFor(p *policymodels.Policy, docID domain.DocumentID, now time.Time) models.Certificate {
	return models.Certificate{
		DocumentID:   docID,
		PolicyID:     p.ID,
		OwnerID:      p.OwnerID,
		HolderName:   p.Details.Holder.FullName(),
		VRM:          p.Details.VRM,
		Make:         p.Details.Make,
		Model:        p.Details.Model,
		VehicleClass: p.VehicleClass,
		Cover:        p.CoverType,
		Duration:     p.Duration,
		Premium:      p.Premium,
		ValidFrom:    p.CoverageStart(),
		ValidTo:      p.Expiry(),
		IssuedAt:     now,
	}
}

// Fetch returns the rendered content of an issued certificate.
func (s *Service) Fetch(ctx context.Context, docID domain.DocumentID) ([]byte, error) {
	doc, err := s.documents.Get(ctx, docID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "certificate not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read certificate")
	}
	return doc.Content, nil
}

// History lists every certificate issued for a policy, oldest first.
func (s *Service) History(ctx context.Context, policyID domain.PolicyID) ([]*models.Document, error) {
	docs, err := s.documents.ListByPolicy(ctx, policyID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list certificates")
	}
	return docs, nil
}

// Verify checks a certificate token and that the certificate it names was
// issued by this system.
func (s *Service) Verify(ctx context.Context, token string) (*signer.Claims, error) {
	claims, err := s.signer.Verify(token)
	if err != nil {
		return nil, err
	}
	doc, err := s.documents.Get(ctx, claims.DocumentID())
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "certificate not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read certificate")
	}
	if doc.PolicyID != claims.PolicyID {
		return nil, dErrors.New(dErrors.CodeValidation, "certificate does not match its policy")
	}
	return claims, nil
}

func (s *Service) skipped(ctx context.Context, id domain.PolicyID, status any) {
	if s.metrics != nil {
		s.metrics.IncrementSkipped()
	}
	if s.logger != nil {
		s.logger.DebugContext(ctx, "certificate not issued, policy not active",
			"policy_id", id.String(), "status", status)
	}
}

// discard removes a stored certificate that could not be attached.
func (s *Service) discard(ctx context.Context, id domain.DocumentID) {
	if err := s.documents.Delete(ctx, id); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to remove orphaned certificate",
			"document_id", id.String(), "error", err)
	}
}

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
	if err := s.auditPublisher.Emit(ctx, audit.Event{
		ActorID:  actor.ID,
		Action:   string(event),
		TargetID: targetID,
		Details:  attrs.Format(attributes, "correlation_id"),
	}); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "event", string(event), "error", err)
	}
}
