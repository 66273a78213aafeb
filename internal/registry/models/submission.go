// Package models holds the registry submission aggregate.
package models

import (
	"time"

	"swiftpolicy/pkg/domain"
	dErrors "swiftpolicy/pkg/domain-errors"
)

// Submission is one policy's entry in the MID queue.
//
// Invariants:
//   - at most one submission exists per policy
//   - RetryCount only grows, and only on a failed attempt
//   - Sequence orders submissions by enqueue time
type Submission struct {
	ID            domain.SubmissionID `json:"id"`
	PolicyID      domain.PolicyID     `json:"policy_id"`
	VRM           domain.VRM          `json:"vrm"`
	Status        domain.MIDStatus    `json:"status"`
	SubmittedAt   time.Time           `json:"submitted_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`
	RetryCount    int                 `json:"retry_count"`
	ResponseData  string              `json:"response_data,omitempty"`
	Sequence      int64               `json:"sequence"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// NewSubmission creates a Pending entry. The store assigns Sequence.
func NewSubmission(id domain.SubmissionID, policyID domain.PolicyID, vrm domain.VRM, now time.Time) (*Submission, error) {
	if id.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "submission id is required")
	}
	if policyID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "submission policy is required")
	}
	if vrm == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "submission registration mark is required")
	}
	return &Submission{
		ID:          id,
		PolicyID:    policyID,
		VRM:         vrm,
		Status:      domain.MIDStatusPending,
		SubmittedAt: now,
		UpdatedAt:   now,
	}, nil
}

// IsDue reports whether the worker should attempt the submission.
func (s *Submission) IsDue() bool {
	return s.Status == domain.MIDStatusPending || s.Status == domain.MIDStatusRetrying
}

// MarkRetrying queues the submission for another attempt. RetryCount is kept.
func (s *Submission) MarkRetrying(now time.Time) {
	s.Status = domain.MIDStatusRetrying
	s.UpdatedAt = now
}

// RecordSuccess stores the registry confirmation token.
func (s *Submission) RecordSuccess(confirmation string, now time.Time) {
	s.Status = domain.MIDStatusSuccess
	s.ResponseData = confirmation
	s.touch(now)
}

// RecordFailure stores the diagnostic and counts the failed attempt.
func (s *Submission) RecordFailure(diagnostic string, now time.Time) {
	s.Status = domain.MIDStatusFailed
	s.RetryCount++
	s.ResponseData = diagnostic
	s.touch(now)
}

func (s *Submission) touch(now time.Time) {
	at := now
	s.LastAttemptAt = &at
	s.UpdatedAt = now
}

// RetryPolicy decides when a failed submission is re-armed by the worker.
// A zero Backoff re-arms on every tick; a zero MaxRetries never gives up.
type RetryPolicy struct {
	Backoff    time.Duration
	MaxBackoff time.Duration
	MaxRetries int
}

// NextAttemptAt is the earliest time a failed submission may be re-armed.
// The wait doubles with each failure, capped at MaxBackoff when set.
func (p RetryPolicy) NextAttemptAt(s *Submission) time.Time {
	if s.LastAttemptAt == nil {
		return s.SubmittedAt
	}
	if p.Backoff <= 0 {
		return *s.LastAttemptAt
	}
	wait := p.Backoff
	for i := 1; i < s.RetryCount; i++ {
		wait *= 2
		if p.MaxBackoff > 0 && wait >= p.MaxBackoff {
			wait = p.MaxBackoff
			break
		}
	}
	return s.LastAttemptAt.Add(wait)
}

// ShouldRearm reports whether a Failed submission goes back into the drain set.
func (p RetryPolicy) ShouldRearm(s *Submission, now time.Time) bool {
	if s.Status != domain.MIDStatusFailed {
		return false
	}
	if p.MaxRetries > 0 && s.RetryCount >= p.MaxRetries {
		return false
	}
	return !now.Before(p.NextAttemptAt(s))
}

func (s *Submission) Clone() *Submission {
	if s == nil {
		return nil
	}
	out := *s
	if s.LastAttemptAt != nil {
		at := *s.LastAttemptAt
		out.LastAttemptAt = &at
	}
	return &out
}

// DrainReport summarises one worker tick.
type DrainReport struct {
	Skipped   bool `json:"skipped"`
	Rearmed   int  `json:"rearmed"`
	Attempted int  `json:"attempted"`
	Succeeded int  `json:"succeeded"`
	Failed    int  `json:"failed"`
	Busy      int  `json:"busy"`
}
