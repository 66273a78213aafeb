package service

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"swiftpolicy/internal/document/models"
	"swiftpolicy/internal/document/signer"
	policymodels "swiftpolicy/internal/policy/models"
	"swiftpolicy/pkg/domain"
	"swiftpolicy/pkg/platform/audit"
)

// PolicyStore is the slice of the policy store issuance needs. Update must
// be atomic per record.
type PolicyStore interface {
	FindByID(ctx context.Context, id domain.PolicyID) (*policymodels.Policy, error)
	Update(ctx context.Context, id domain.PolicyID, fn func(*policymodels.Policy) error) (*policymodels.Policy, error)
}

// Store holds rendered certificates.
type Store interface {
	Put(ctx context.Context, doc *models.Document) error
	Get(ctx context.Context, id domain.DocumentID) (*models.Document, error)
	ListByPolicy(ctx context.Context, policyID domain.PolicyID) ([]*models.Document, error)
	Delete(ctx context.Context, id domain.DocumentID) error
}

type Signer interface {
	Sign(c models.Certificate) (string, error)
	Verify(token string) (*signer.Claims, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
