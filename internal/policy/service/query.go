package service

import (
	"context"

	"swiftpolicy/internal/policy/models"
	"swiftpolicy/pkg/domain"
	dErrors "swiftpolicy/pkg/domain-errors"
)

// Get returns a policy with its derived status.
func (s *Service) Get(ctx context.Context, actor domain.Actor, id domain.PolicyID) (*models.View, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeRead(actor, p); err != nil {
		return nil, err
	}
	v := models.NewView(p, s.now())
	return &v, nil
}

// ListByOwner returns a customer's policies, oldest first.
func (s *Service) ListByOwner(ctx context.Context, actor domain.Actor, owner domain.CustomerID) ([]models.View, error) {
	if !actor.CanActFor(owner) {
		return nil, dErrors.New(dErrors.CodeForbidden, "actor may not list this customer's policies")
	}
	policies, err := s.policies.ListByOwner(ctx, owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list policies")
	}
	return s.views(policies, models.ListFilter{}), nil
}

// List is the administrative listing. The status filter matches the derived
// status, so Expired can be selected even though it is never stored.
func (s *Service) List(ctx context.Context, actor domain.Actor, filter models.ListFilter) ([]models.View, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if filter.Status != "" {
		if _, ok := models.ParseStatus(string(filter.Status)); !ok {
			return nil, dErrors.Newf(dErrors.CodeValidation, "unknown status %q", filter.Status)
		}
	}
	var (
		policies []*models.Policy
		err      error
	)
	if filter.OwnerID.IsNil() {
		policies, err = s.policies.List(ctx)
	} else {
		policies, err = s.policies.ListByOwner(ctx, filter.OwnerID)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list policies")
	}
	return s.views(policies, filter), nil
}

func (s *Service) views(policies []*models.Policy, filter models.ListFilter) []models.View {
	now := s.now()
	out := make([]models.View, 0, len(policies))
	for _, p := range policies {
		v := models.NewView(p, now)
		if filter.Matches(v) {
			out = append(out, v)
		}
	}
	return out
}

// CheckUsable is the gate for certificate download, registry checks and claim
// filing: the derived status must be Active.
func (s *Service) CheckUsable(ctx context.Context, actor domain.Actor, id domain.PolicyID) (*models.Policy, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeRead(actor, p); err != nil {
		return nil, err
	}
	if status := p.DerivedStatus(s.now()); status != models.StatusActive {
		return nil, dErrors.Newf(dErrors.CodePreconditionFailed, "policy is %s, not Active", status)
	}
	return p, nil
}

// DownloadCertificate returns the rendered certificate of a usable policy.
func (s *Service) DownloadCertificate(ctx context.Context, actor domain.Actor, id domain.PolicyID) ([]byte, error) {
	p, err := s.CheckUsable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if p.Certificate == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "certificate has not been issued")
	}
	content, err := s.issuer.Fetch(ctx, p.Certificate.DocumentID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read certificate")
	}
	return content, nil
}

// VerifyRegistration asks the registry whether a usable policy's vehicle is
// recorded as insured.
func (s *Service) VerifyRegistration(ctx context.Context, actor domain.Actor, id domain.PolicyID) (domain.Registration, error) {
	p, err := s.CheckUsable(ctx, actor, id)
	if err != nil {
		return domain.Registration{}, err
	}
	reg, err := s.queue.IsRegistered(ctx, p.Details.VRM)
	if err != nil {
		return domain.Registration{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query registry status")
	}
	return reg, nil
}
