package adapters

import (
	"context"
	"errors"

	"swiftpolicy/internal/policy/models"
	"swiftpolicy/pkg/domain"
	"swiftpolicy/pkg/platform/sentinel"
)

// policyUpdater is the slice of the policy store the mirror needs.
// Defined locally to avoid coupling registry wiring to the store package.
type policyUpdater interface {
	Update(ctx context.Context, id domain.PolicyID, fn func(*models.Policy) error) (*models.Policy, error)
}

// MIDMirror adapts the policy store to registry.PolicyMirror. The registry
// owns submission state; the policy only carries a read-side copy.
type MIDMirror struct {
	policies policyUpdater
	now      domain.Clock
}

func NewMIDMirror(policies policyUpdater, clock domain.Clock) *MIDMirror {
	if clock == nil {
		clock = domain.SystemClock
	}
	return &MIDMirror{policies: policies, now: clock}
}

// SetMIDStatus copies a submission status onto its policy. A policy purged
// while its submission was in flight is not an error.
func (m *MIDMirror) SetMIDStatus(ctx context.Context, id domain.PolicyID, status domain.MIDStatus) error {
	_, err := m.policies.Update(ctx, id, func(p *models.Policy) error {
		if p.MIDStatus == status {
			return nil
		}
		p.MIDStatus = status
		p.UpdatedAt = m.now()
		return nil
	})
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil
	}
	return err
}
