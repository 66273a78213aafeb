package service

import (
	"context"
	"errors"
	"time"

	"swiftpolicy/internal/registry/gateway"
	"swiftpolicy/internal/registry/lock"
	"swiftpolicy/internal/registry/models"
	"swiftpolicy/pkg/domain"
	dErrors "swiftpolicy/pkg/domain-errors"
	"swiftpolicy/pkg/platform/audit"
)

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeBusy
	outcomeSucceeded
	outcomeFailed
)

var errNotEligible = errors.New("submission no longer eligible")

// Drain runs one worker tick. Only one drain runs at a time; a tick that
// finds the drain lock held does nothing and reports Skipped.
func (s *Service) Drain(ctx context.Context) (models.DrainReport, error) {
	var report models.DrainReport

	release, ok, err := s.locks.TryLock(ctx, lock.DrainKey)
	if err != nil {
		return report, dErrors.Wrap(err, dErrors.CodeInternal, "failed to acquire drain lock")
	}
	if !ok {
		if s.logger != nil {
			s.logger.DebugContext(ctx, "drain already in progress, skipping tick")
		}
		if s.metrics != nil {
			s.metrics.IncrementDrainSkipped()
		}
		report.Skipped = true
		return report, nil
	}
	defer release()

	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveDrain(start)
		}
	}()

	report.Rearmed = s.rearm(ctx)

	due, err := s.submissions.ListByStatus(ctx, domain.MIDStatusPending, domain.MIDStatusRetrying)
	if err != nil {
		return report, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list due submissions")
	}
	for _, sub := range due {
		if ctx.Err() != nil {
			break
		}
		out, _, err := s.process(ctx, sub.ID, false)
		if err != nil {
			if s.logger != nil {
				s.logger.ErrorContext(ctx, "failed to process submission",
					"submission_id", sub.ID.String(), "error", err)
			}
			continue
		}
		switch out {
		case outcomeBusy:
			report.Busy++
		case outcomeSucceeded:
			report.Attempted++
			report.Succeeded++
		case outcomeFailed:
			report.Attempted++
			report.Failed++
		}
	}

	s.recordDepth(ctx)
	if s.logger != nil && (report.Attempted > 0 || report.Rearmed > 0) {
		s.logger.InfoContext(ctx, "registry drain complete",
			"rearmed", report.Rearmed,
			"attempted", report.Attempted,
			"succeeded", report.Succeeded,
			"failed", report.Failed,
			"busy", report.Busy,
		)
	}
	return report, nil
}

// rearm moves failed submissions whose backoff has elapsed back to Retrying.
func (s *Service) rearm(ctx context.Context) int {
	failed, err := s.submissions.ListByStatus(ctx, domain.MIDStatusFailed)
	if err != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "failed to list failed submissions", "error", err)
		}
		return 0
	}
	now := s.now()
	n := 0
	for _, sub := range failed {
		if !s.retry.ShouldRearm(sub, now) {
			continue
		}
		_, err := s.submissions.Update(ctx, sub.ID, func(m *models.Submission) error {
			if !s.retry.ShouldRearm(m, now) {
				return errNotEligible
			}
			m.MarkRetrying(now)
			return nil
		})
		if err != nil {
			continue
		}
		n++
		s.setMirror(ctx, sub.PolicyID, domain.MIDStatusRetrying)
	}
	return n
}

// Retry is the manual, synchronous retry. It fails with CodeConflict when the
// worker is processing the same submission.
func (s *Service) Retry(ctx context.Context, actor domain.Actor, id domain.SubmissionID) (*models.Submission, error) {
	if !actor.IsAdmin() && !actor.IsSystem() {
		return nil, dErrors.New(dErrors.CodeForbidden, "administrator role required")
	}
	if _, err := s.submissions.FindByID(ctx, id); err != nil {
		return nil, translateStoreErr(err, "failed to load submission")
	}

	s.logAudit(ctx, audit.EventSubmissionRetried, actor, id.String())
	out, sub, err := s.process(ctx, id, true)
	if err != nil {
		return nil, err
	}
	if out == outcomeBusy {
		return nil, dErrors.New(dErrors.CodeConflict, "submission is being processed")
	}
	return sub, nil
}

// process attempts one submission under its record lock. Scheduled attempts
// skip submissions that stopped being due since they were listed.
func (s *Service) process(ctx context.Context, id domain.SubmissionID, manual bool) (outcome, *models.Submission, error) {
	release, ok, err := s.locks.TryLock(ctx, lock.SubmissionKey(id.String()))
	if err != nil {
		return outcomeSkipped, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to acquire submission lock")
	}
	if !ok {
		if s.metrics != nil {
			s.metrics.IncrementRecordBusy()
		}
		return outcomeBusy, nil, nil
	}
	defer release()

	var sub *models.Submission
	if manual {
		sub, err = s.submissions.Update(ctx, id, func(m *models.Submission) error {
			m.MarkRetrying(s.now())
			return nil
		})
		if err == nil {
			s.setMirror(ctx, sub.PolicyID, domain.MIDStatusRetrying)
		}
	} else {
		sub, err = s.submissions.FindByID(ctx, id)
	}
	if err != nil {
		return outcomeSkipped, nil, translateStoreErr(err, "failed to load submission")
	}
	if !sub.IsDue() {
		return outcomeSkipped, sub, nil
	}
	return s.attempt(ctx, sub)
}

// attempt makes one gateway call and records the outcome. The caller holds
// the record lock.
func (s *Service) attempt(ctx context.Context, sub *models.Submission) (outcome, *models.Submission, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.itemTimeout)
	start := time.Now()
	res, callErr := s.gateway.Submit(callCtx, sub.VRM)
	cancel()
	if s.metrics != nil {
		s.metrics.ObserveGateway(start)
	}
	now := s.now()

	if callErr == nil && res.Accepted {
		updated, err := s.submissions.Update(ctx, sub.ID, func(m *models.Submission) error {
			m.RecordSuccess(res.Confirmation, now)
			return nil
		})
		if err != nil {
			return outcomeSkipped, nil, translateStoreErr(err, "failed to record registry success")
		}
		if s.metrics != nil {
			s.metrics.IncrementAttempt("success")
		}
		s.setMirror(ctx, sub.PolicyID, domain.MIDStatusSuccess)
		s.logAudit(ctx, audit.EventSubmissionSucceeded, domain.SystemActor, sub.ID.String(),
			"policy_id", sub.PolicyID.String(),
			"confirmation", res.Confirmation,
		)
		return outcomeSucceeded, updated, nil
	}

	diag := diagnostic(res, callErr)
	updated, err := s.submissions.Update(ctx, sub.ID, func(m *models.Submission) error {
		m.RecordFailure(diag, now)
		return nil
	})
	if err != nil {
		return outcomeSkipped, nil, translateStoreErr(err, "failed to record registry failure")
	}
	if s.metrics != nil {
		s.metrics.IncrementAttempt("failure")
	}
	if s.logger != nil {
		s.logger.WarnContext(ctx, "registry submission failed",
			"submission_id", sub.ID.String(),
			"policy_id", sub.PolicyID.String(),
			"retry_count", updated.RetryCount,
			"category", string(gateway.CategoryOf(callErr)),
			"diagnostic", diag,
		)
	}
	s.logAudit(ctx, audit.EventSubmissionFailed, domain.SystemActor, sub.ID.String(),
		"policy_id", sub.PolicyID.String(),
		"retry_count", updated.RetryCount,
		"diagnostic", diag,
	)
	return outcomeFailed, updated, nil
}

func diagnostic(res gateway.Result, err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout: registry did not respond in time"
	case err != nil:
		return err.Error()
	case res.Diagnostic != "":
		return res.Diagnostic
	default:
		return "registry declined submission"
	}
}

// Stats reports current queue depth per status.
func (s *Service) Stats(ctx context.Context) (map[domain.MIDStatus]int, error) {
	counts, err := s.submissions.CountByStatus(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count submissions")
	}
	return counts, nil
}

func (s *Service) recordDepth(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	counts, err := s.submissions.CountByStatus(ctx)
	if err != nil {
		return
	}
	for _, st := range []domain.MIDStatus{
		domain.MIDStatusPending, domain.MIDStatusRetrying, domain.MIDStatusSuccess, domain.MIDStatusFailed,
	} {
		s.metrics.SetQueueDepth(st.String(), counts[st])
	}
}
