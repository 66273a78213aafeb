package service

import (
	"context"
	"strings"

	"swiftpolicy/internal/policy/models"
	"swiftpolicy/pkg/domain"
	dErrors "swiftpolicy/pkg/domain-errors"
	"swiftpolicy/pkg/platform/audit"
)

var transitionEvents = map[models.Transition]audit.AuditEvent{
	models.TransitionValidate:   audit.EventPolicyValidated,
	models.TransitionApprove:    audit.EventPolicyApproved,
	models.TransitionActivate:   audit.EventPolicyActivated,
	models.TransitionFreeze:     audit.EventPolicyFrozen,
	models.TransitionReactivate: audit.EventPolicyReactivated,
	models.TransitionBlock:      audit.EventPolicyBlocked,
	models.TransitionRemove:     audit.EventPolicyRemoved,
}

// Validate approves a pending one-month policy straight to Active.
func (s *Service) Validate(ctx context.Context, actor domain.Actor, id domain.PolicyID) (*models.View, error) {
	return s.transition(ctx, actor, id, models.TransitionValidate, "")
}

// Approve marks a pending policy Validated without activating it.
func (s *Service) Approve(ctx context.Context, actor domain.Actor, id domain.PolicyID) (*models.View, error) {
	return s.transition(ctx, actor, id, models.TransitionApprove, "")
}

func (s *Service) Activate(ctx context.Context, actor domain.Actor, id domain.PolicyID) (*models.View, error) {
	return s.transition(ctx, actor, id, models.TransitionActivate, "")
}

func (s *Service) Freeze(ctx context.Context, actor domain.Actor, id domain.PolicyID, reason string) (*models.View, error) {
	return s.transition(ctx, actor, id, models.TransitionFreeze, reason)
}

// Reactivate returns a frozen or blocked policy to Active, re-arms its
// registry submission and re-issues the certificate.
func (s *Service) Reactivate(ctx context.Context, actor domain.Actor, id domain.PolicyID) (*models.View, error) {
	return s.transition(ctx, actor, id, models.TransitionReactivate, "")
}

func (s *Service) Block(ctx context.Context, actor domain.Actor, id domain.PolicyID, reason string) (*models.View, error) {
	return s.transition(ctx, actor, id, models.TransitionBlock, reason)
}

// Remove is a soft delete. Nothing transitions out of Removed.
func (s *Service) Remove(ctx context.Context, actor domain.Actor, id domain.PolicyID, reason string) (*models.View, error) {
	return s.transition(ctx, actor, id, models.TransitionRemove, reason)
}

// Apply fires a transition by name for callers that dispatch dynamically.
func (s *Service) Apply(ctx context.Context, actor domain.Actor, id domain.PolicyID, t models.Transition, reason string) (*models.View, error) {
	return s.transition(ctx, actor, id, t, reason)
}

func (s *Service) transition(ctx context.Context, actor domain.Actor, id domain.PolicyID, t models.Transition, reason string) (*models.View, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)

	var from models.Status
	updated, err := s.policies.Update(ctx, id, func(p *models.Policy) error {
		from = p.Status
		if err := p.CanApply(t); err != nil {
			return err
		}
		p.ApplyTransition(t, s.now())
		return nil
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidStateTransition) {
			s.incrementTransition(t, "rejected")
			s.logAudit(ctx, audit.EventPolicyTransitionRejected, actor, id.String(), reason,
				"transition", string(t),
				"from", from.String(),
			)
			return nil, err
		}
		return nil, translateStoreErr(err, "failed to update policy")
	}

	s.incrementTransition(t, "applied")
	s.logAudit(ctx, transitionEvents[t], actor, id.String(), reason,
		"from", from.String(),
		"to", updated.Status.String(),
	)

	switch t {
	case models.TransitionValidate, models.TransitionActivate:
		s.onActivated(ctx, actor, updated, false)
	case models.TransitionReactivate:
		s.onActivated(ctx, actor, updated, true)
	}
	return s.reload(ctx, updated)
}

// UpdateDetails applies an audited administrative edit. The premium is not
// recomputed.
func (s *Service) UpdateDetails(ctx context.Context, actor domain.Actor, id domain.PolicyID, u models.DetailsUpdate, reason string) (*models.View, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if u.IsEmpty() {
		return nil, dErrors.New(dErrors.CodeValidation, "update changes nothing")
	}

	var changed []string
	updated, err := s.policies.Update(ctx, id, func(p *models.Policy) error {
		var err error
		changed, err = p.ApplyDetailsUpdate(u, s.now())
		return err
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidStateTransition) {
			return nil, err
		}
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, asValidation(err)
		}
		return nil, translateStoreErr(err, "failed to update policy details")
	}

	s.logAudit(ctx, audit.EventPolicyDetailsUpdated, actor, id.String(), strings.TrimSpace(reason),
		"fields", strings.Join(changed, ","),
	)
	v := models.NewView(updated, s.now())
	return &v, nil
}

// Purge hard-deletes a removed policy and its registry submissions. It
// exists to clean up erroneous test data.
func (s *Service) Purge(ctx context.Context, actor domain.Actor, id domain.PolicyID, reason string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	p, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if p.Status != models.StatusRemoved {
		return dErrors.Newf(dErrors.CodeInvalidStateTransition, "only removed policies can be purged, status is %s", p.Status)
	}

	if err := s.queue.PurgePolicy(ctx, id); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to purge registry submissions")
	}
	if err := s.policies.Delete(ctx, id); err != nil {
		return translateStoreErr(err, "failed to delete policy")
	}
	s.logAudit(ctx, audit.EventPolicyPurged, actor, id.String(), strings.TrimSpace(reason),
		"owner_id", p.OwnerID.String(),
	)
	return nil
}
