package service

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"swiftpolicy/internal/policy/models"
	"swiftpolicy/internal/premium"
	"swiftpolicy/pkg/domain"
	"swiftpolicy/pkg/platform/audit"
)

// Store persists policies. Update must apply fn atomically against the
// latest stored record and persist only when fn returns nil.
type Store interface {
	Create(ctx context.Context, p *models.Policy) error
	FindByID(ctx context.Context, id domain.PolicyID) (*models.Policy, error)
	ListByOwner(ctx context.Context, owner domain.CustomerID) ([]*models.Policy, error)
	List(ctx context.Context) ([]*models.Policy, error)
	Update(ctx context.Context, id domain.PolicyID, fn func(*models.Policy) error) (*models.Policy, error)
	Delete(ctx context.Context, id domain.PolicyID) error
}

type PremiumEngine interface {
	Compute(req premium.Request) (premium.Breakdown, error)
}

// SubmissionQueue is the registry side of the lifecycle: it records which
// policies must be reported and answers registration queries.
type SubmissionQueue interface {
	Enqueue(ctx context.Context, policyID domain.PolicyID, vrm domain.VRM) error
	Requeue(ctx context.Context, policyID domain.PolicyID, vrm domain.VRM) error
	PurgePolicy(ctx context.Context, policyID domain.PolicyID) error
	IsRegistered(ctx context.Context, vrm domain.VRM) (domain.Registration, error)
}

// CertificateIssuer issues insurance certificates for Active policies.
// Issue returns a nil ref without error when the policy is not Active.
type CertificateIssuer interface {
	Issue(ctx context.Context, actor domain.Actor, id domain.PolicyID) (*models.CertificateRef, error)
	Fetch(ctx context.Context, docID domain.DocumentID) ([]byte, error)
}

type CustomerDirectory interface {
	Exists(ctx context.Context, id domain.CustomerID) (bool, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
