package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"swiftpolicy/internal/registry/models"
	"swiftpolicy/pkg/domain"
	"swiftpolicy/pkg/platform/sentinel"
)

type SubmissionStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	now   time.Time
}

func TestSubmissionStoreSuite(t *testing.T) {
	suite.Run(t, new(SubmissionStoreSuite))
}

func (s *SubmissionStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
}

func (s *SubmissionStoreSuite) create(vrm domain.VRM) *models.Submission {
	sub, err := models.NewSubmission(domain.NewSubmissionID(), domain.NewPolicyID("CAR", "12M"), vrm, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(s.ctx, sub))
	return sub
}

func (s *SubmissionStoreSuite) TestCreate() {
	s.Run("assigns increasing sequence", func() {
		a := s.create("AA11AAA")
		b := s.create("BB22BBB")
		s.Less(a.Sequence, b.Sequence)
	})

	s.Run("one submission per policy", func() {
		a := s.create("CC33CCC")
		dup, err := models.NewSubmission(domain.NewSubmissionID(), a.PolicyID, a.VRM, s.now)
		s.Require().NoError(err)
		s.ErrorIs(s.store.Create(s.ctx, dup), sentinel.ErrConflict)
	})

	s.Run("finds by policy", func() {
		a := s.create("DD44DDD")
		found, err := s.store.FindByPolicy(s.ctx, a.PolicyID)
		s.Require().NoError(err)
		s.Equal(a.ID, found.ID)

		_, err = s.store.FindByPolicy(s.ctx, domain.NewPolicyID("VAN", "1M"))
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *SubmissionStoreSuite) TestListByStatusInEnqueueOrder() {
	first := s.create("AA11AAA")
	second := s.create("BB22BBB")
	third := s.create("CC33CCC")
	_, err := s.store.Update(s.ctx, second.ID, func(sub *models.Submission) error {
		sub.RecordSuccess("CONF", s.now)
		return nil
	})
	s.Require().NoError(err)
	_, err = s.store.Update(s.ctx, first.ID, func(sub *models.Submission) error {
		sub.MarkRetrying(s.now)
		return nil
	})
	s.Require().NoError(err)

	due, err := s.store.ListByStatus(s.ctx, domain.MIDStatusPending, domain.MIDStatusRetrying)
	s.Require().NoError(err)
	s.Require().Len(due, 2)
	s.Equal(first.ID, due[0].ID)
	s.Equal(third.ID, due[1].ID)

	counts, err := s.store.CountByStatus(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, counts[domain.MIDStatusSuccess])
	s.Equal(1, counts[domain.MIDStatusRetrying])
	s.Equal(1, counts[domain.MIDStatusPending])
}

func (s *SubmissionStoreSuite) TestUpdateIsolation() {
	sub := s.create("AA11AAA")

	s.Run("failed fn leaves record untouched", func() {
		_, err := s.store.Update(s.ctx, sub.ID, func(m *models.Submission) error {
			m.RecordFailure("x", s.now)
			return sentinel.ErrInvalidState
		})
		s.ErrorIs(err, sentinel.ErrInvalidState)
		found, err := s.store.FindByID(s.ctx, sub.ID)
		s.Require().NoError(err)
		s.Equal(0, found.RetryCount)
	})

	s.Run("returned copies do not alias", func() {
		found, err := s.store.FindByID(s.ctx, sub.ID)
		s.Require().NoError(err)
		found.RetryCount = 42
		again, err := s.store.FindByID(s.ctx, sub.ID)
		s.Require().NoError(err)
		s.Equal(0, again.RetryCount)
	})

	s.Run("unknown id is not found", func() {
		_, err := s.store.Update(s.ctx, domain.NewSubmissionID(), func(*models.Submission) error { return nil })
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *SubmissionStoreSuite) TestDeleteByPolicy() {
	sub := s.create("AA11AAA")
	n, err := s.store.DeleteByPolicy(s.ctx, sub.PolicyID)
	s.Require().NoError(err)
	s.Equal(1, n)

	_, err = s.store.FindByID(s.ctx, sub.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	again, err := models.NewSubmission(domain.NewSubmissionID(), sub.PolicyID, sub.VRM, s.now)
	s.Require().NoError(err)
	s.NoError(s.store.Create(s.ctx, again))
}
