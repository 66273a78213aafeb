package service

import (
	"context"
	"time"

	"swiftpolicy/internal/policy/models"
	"swiftpolicy/internal/premium"
	"swiftpolicy/pkg/domain"
	dErrors "swiftpolicy/pkg/domain-errors"
	"swiftpolicy/pkg/platform/audit"
)

// Quote prices a request without persisting anything.
func (s *Service) Quote(_ context.Context, req models.QuoteRequest) (premium.Breakdown, error) {
	preq, err := req.ToPremiumRequest()
	if err != nil {
		return premium.Breakdown{}, err
	}
	return s.engine.Compute(preq)
}

// Bind turns a quote into a policy. Twelve-month policies start Active, are
// queued for registry submission and receive a certificate; one-month
// policies wait in PendingValidation for an administrator.
func (s *Service) Bind(ctx context.Context, actor domain.Actor, req models.BindRequest) (*models.View, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveBind(start)
		}
	}()

	req.Normalize()
	if req.OwnerID.IsNil() && actor.Role == domain.RoleCustomer {
		req.OwnerID = domain.CustomerID(actor.ID)
	}
	if req.OwnerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "policy owner is required")
	}
	if !actor.CanActFor(req.OwnerID) {
		return nil, dErrors.New(dErrors.CodeForbidden, "actor may not bind for this customer")
	}

	exists, err := s.customers.Exists(ctx, req.OwnerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up customer")
	}
	if !exists {
		return nil, dErrors.New(dErrors.CodeNotFound, "customer not found")
	}

	preq, err := req.ToPremiumRequest()
	if err != nil {
		return nil, err
	}
	breakdown, err := s.engine.Compute(preq)
	if err != nil {
		return nil, err
	}

	now := s.now()
	details, err := req.Details(breakdown, preq.Addons, now)
	if err != nil {
		return nil, asValidation(err)
	}
	p, err := models.NewPolicy(
		domain.NewPolicyID(req.VehicleClass.Code(), req.Duration.Code()),
		req.OwnerID,
		req.VehicleClass,
		req.CoverType,
		req.Duration,
		breakdown.Total,
		details,
		now,
	)
	if err != nil {
		return nil, asValidation(err)
	}
	p.Notes = req.Notes

	if err := s.policies.Create(ctx, p); err != nil {
		return nil, translateStoreErr(err, "failed to create policy")
	}
	s.logAudit(ctx, audit.EventPolicyBound, actor, p.ID.String(), "",
		"owner_id", p.OwnerID.String(),
		"status", p.Status.String(),
		"premium", p.Premium.StringFixed(2),
	)
	if s.metrics != nil {
		s.metrics.IncrementBound(p.Duration.Code())
	}

	if p.Status == models.StatusActive {
		s.onActivated(ctx, actor, p, false)
	}
	return s.reload(ctx, p)
}

// onActivated runs the side effects of entering Active: registry submission
// followed by certificate issuance. Failures are logged and never undo the
// transition that has already been persisted.
func (s *Service) onActivated(ctx context.Context, actor domain.Actor, p *models.Policy, requeue bool) {
	vrm := p.Details.VRM
	var err error
	if requeue {
		err = s.queue.Requeue(ctx, p.ID, vrm)
	} else {
		err = s.queue.Enqueue(ctx, p.ID, vrm)
	}
	if err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "failed to queue registry submission",
			"policy_id", p.ID.String(), "requeue", requeue, "error", err)
	}

	if _, err := s.issuer.Issue(ctx, actor, p.ID); err != nil {
		if s.metrics != nil {
			s.metrics.IncrementIssuanceFailure()
		}
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "failed to issue certificate",
				"policy_id", p.ID.String(), "error", err)
		}
	}
}

// reload re-reads a policy after side effects so callers observe the
// registry mirror and certificate reference. It falls back to the in-hand
// copy if the read fails.
func (s *Service) reload(ctx context.Context, p *models.Policy) (*models.View, error) {
	fresh, err := s.policies.FindByID(ctx, p.ID)
	if err != nil {
		fresh = p
	}
	v := models.NewView(fresh, s.now())
	return &v, nil
}
