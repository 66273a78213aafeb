package service

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"swiftpolicy/internal/registry/gateway"
	"swiftpolicy/internal/registry/models"
	"swiftpolicy/pkg/domain"
	"swiftpolicy/pkg/platform/audit"
)

// Store persists submissions. Create assigns Sequence and refuses a second
// submission for the same policy with sentinel.ErrConflict.
type Store interface {
	Create(ctx context.Context, sub *models.Submission) error
	FindByID(ctx context.Context, id domain.SubmissionID) (*models.Submission, error)
	FindByPolicy(ctx context.Context, policyID domain.PolicyID) (*models.Submission, error)
	ListByPolicy(ctx context.Context, policyID domain.PolicyID) ([]*models.Submission, error)
	ListByStatus(ctx context.Context, statuses ...domain.MIDStatus) ([]*models.Submission, error)
	ListByVRM(ctx context.Context, vrm domain.VRM) ([]*models.Submission, error)
	Update(ctx context.Context, id domain.SubmissionID, fn func(*models.Submission) error) (*models.Submission, error)
	DeleteByPolicy(ctx context.Context, policyID domain.PolicyID) (int, error)
	CountByStatus(ctx context.Context) (map[domain.MIDStatus]int, error)
}

type Gateway interface {
	Submit(ctx context.Context, vrm domain.VRM) (gateway.Result, error)
}

type Locker interface {
	TryLock(ctx context.Context, key string) (release func(), ok bool, err error)
}

// PolicyMirror copies submission status onto the owning policy.
type PolicyMirror interface {
	SetMIDStatus(ctx context.Context, id domain.PolicyID, status domain.MIDStatus) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
