package service

import (
	"context"
	"errors"
	"fmt"

	"swiftpolicy/internal/registry/models"
	"swiftpolicy/pkg/domain"
	dErrors "swiftpolicy/pkg/domain-errors"
	"swiftpolicy/pkg/platform/audit"
	"swiftpolicy/pkg/platform/sentinel"
)

// Enqueue creates a Pending submission for the policy. It is a no-op when the
// policy already has one, whatever its status.
func (s *Service) Enqueue(ctx context.Context, policyID domain.PolicyID, vrm domain.VRM) error {
	vrm = domain.NormalizeVRM(vrm.String())
	_, err := s.submissions.FindByPolicy(ctx, policyID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up submission")
	}
	return s.create(ctx, policyID, vrm)
}

// Requeue is Enqueue for a policy coming back to Active: a Failed submission
// is re-armed to Retrying with its retry count kept. Pending, Retrying and
// Success submissions are left alone.
func (s *Service) Requeue(ctx context.Context, policyID domain.PolicyID, vrm domain.VRM) error {
	vrm = domain.NormalizeVRM(vrm.String())
	existing, err := s.submissions.FindByPolicy(ctx, policyID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return s.create(ctx, policyID, vrm)
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up submission")
	}
	if existing.Status != domain.MIDStatusFailed {
		return nil
	}

	rearmed := false
	_, err = s.submissions.Update(ctx, existing.ID, func(sub *models.Submission) error {
		if sub.Status != domain.MIDStatusFailed {
			return nil
		}
		sub.MarkRetrying(s.now())
		rearmed = true
		return nil
	})
	if err != nil {
		return translateStoreErr(err, "failed to requeue submission")
	}
	if !rearmed {
		return nil
	}
	s.setMirror(ctx, policyID, domain.MIDStatusRetrying)
	s.logAudit(ctx, audit.EventSubmissionRequeued, domain.SystemActor, existing.ID.String(),
		"policy_id", policyID.String(),
		"retry_count", existing.RetryCount,
	)
	s.kickWorker()
	return nil
}

func (s *Service) create(ctx context.Context, policyID domain.PolicyID, vrm domain.VRM) error {
	sub, err := models.NewSubmission(domain.NewSubmissionID(), policyID, vrm, s.now())
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, err.Error())
	}
	if err := s.submissions.Create(ctx, sub); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// a concurrent enqueue for the same policy won
			return nil
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create submission")
	}
	if s.metrics != nil {
		s.metrics.IncrementEnqueued()
	}
	s.setMirror(ctx, policyID, domain.MIDStatusPending)
	s.logAudit(ctx, audit.EventSubmissionEnqueued, domain.SystemActor, sub.ID.String(),
		"policy_id", policyID.String(),
		"vrm", vrm.String(),
	)
	s.kickWorker()
	return nil
}

// IsRegistered reports found only when a submission for the VRM has
// succeeded. Pending and failed submissions are not evidence of cover.
func (s *Service) IsRegistered(ctx context.Context, vrm domain.VRM) (domain.Registration, error) {
	vrm = domain.NormalizeVRM(vrm.String())
	if vrm == "" {
		return domain.Registration{}, dErrors.New(dErrors.CodeValidation, "registration mark is required")
	}
	subs, err := s.submissions.ListByVRM(ctx, vrm)
	if err != nil {
		return domain.Registration{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query submissions")
	}
	for _, sub := range subs {
		if sub.Status == domain.MIDStatusSuccess {
			return domain.Registration{
				Found:   true,
				Message: fmt.Sprintf("%s is recorded on the Motor Insurance Database (confirmation %s)", vrm, sub.ResponseData),
			}, nil
		}
	}
	return domain.Registration{
		Found:   false,
		Message: fmt.Sprintf("no confirmed registration for %s", vrm),
	}, nil
}

func (s *Service) Get(ctx context.Context, id domain.SubmissionID) (*models.Submission, error) {
	sub, err := s.submissions.FindByID(ctx, id)
	if err != nil {
		return nil, translateStoreErr(err, "failed to load submission")
	}
	return sub, nil
}

// ListByStatus returns submissions in enqueue order.
func (s *Service) ListByStatus(ctx context.Context, status domain.MIDStatus) ([]*models.Submission, error) {
	switch status {
	case domain.MIDStatusPending, domain.MIDStatusRetrying, domain.MIDStatusSuccess, domain.MIDStatusFailed:
	default:
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown submission status %q", status)
	}
	subs, err := s.submissions.ListByStatus(ctx, status)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list submissions")
	}
	return subs, nil
}

func (s *Service) ListByPolicy(ctx context.Context, policyID domain.PolicyID) ([]*models.Submission, error) {
	subs, err := s.submissions.ListByPolicy(ctx, policyID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list submissions")
	}
	return subs, nil
}

// PurgePolicy deletes every submission of a policy being hard-deleted.
func (s *Service) PurgePolicy(ctx context.Context, policyID domain.PolicyID) error {
	n, err := s.submissions.DeleteByPolicy(ctx, policyID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to purge submissions")
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "purged registry submissions", "policy_id", policyID.String(), "count", n)
	}
	return nil
}
