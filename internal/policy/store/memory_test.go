package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"swiftpolicy/internal/policy/models"
	"swiftpolicy/pkg/domain"
	"swiftpolicy/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *InMemoryStoreSuite) newPolicy(owner domain.CustomerID, created time.Time) *models.Policy {
	p, err := models.NewPolicy(domain.NewPolicyID("CAR", "12M"), owner, domain.VehicleCar,
		domain.CoverComprehensive, domain.DurationTwelveMonths, decimal.NewFromInt(900),
		models.VehicleDetails{
			SchemaVersion: models.DetailsSchemaVersion,
			VRM:           "AB12CDE",
			Make:          "Ford",
			Model:         "Fiesta",
			Holder:        models.HolderSnapshot{LastName: "Jones"},
			StartDate:     created,
		}, created)
	s.Require().NoError(err)
	return p
}

func (s *InMemoryStoreSuite) TestCreateAndFind() {
	p := s.newPolicy("cust-1", time.Now())
	s.Require().NoError(s.store.Create(s.ctx, p))

	found, err := s.store.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(p.ID, found.ID)

	s.Run("duplicate id conflicts", func() {
		s.ErrorIs(s.store.Create(s.ctx, p), sentinel.ErrConflict)
	})

	s.Run("unknown id is not found", func() {
		_, err := s.store.FindByID(s.ctx, "SP-CAR-12M-FFFFFFFF")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returned copies are isolated", func() {
		found.Status = models.StatusRemoved
		again, err := s.store.FindByID(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusActive, again.Status)
	})
}

func (s *InMemoryStoreSuite) TestUpdate() {
	p := s.newPolicy("cust-1", time.Now())
	s.Require().NoError(s.store.Create(s.ctx, p))

	s.Run("failed callback leaves record untouched", func() {
		_, err := s.store.Update(s.ctx, p.ID, func(p *models.Policy) error {
			p.Status = models.StatusFrozen
			return errors.New("nope")
		})
		s.Require().Error(err)
		found, _ := s.store.FindByID(s.ctx, p.ID)
		s.Equal(models.StatusActive, found.Status)
	})

	s.Run("successful callback persists", func() {
		updated, err := s.store.Update(s.ctx, p.ID, func(p *models.Policy) error {
			p.MIDStatus = domain.MIDStatusSuccess
			return nil
		})
		s.Require().NoError(err)
		s.Equal(domain.MIDStatusSuccess, updated.MIDStatus)
	})

	s.Run("concurrent updates are serialized", func() {
		var wg sync.WaitGroup
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = s.store.Update(s.ctx, p.ID, func(p *models.Policy) error {
					p.Notes += "x"
					return nil
				})
			}()
		}
		wg.Wait()
		found, _ := s.store.FindByID(s.ctx, p.ID)
		s.Len(found.Notes, 50)
	})
}

func (s *InMemoryStoreSuite) TestListOrderingAndDelete() {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	second := s.newPolicy("cust-1", base.Add(time.Hour))
	first := s.newPolicy("cust-1", base)
	other := s.newPolicy("cust-2", base.Add(2*time.Hour))
	for _, p := range []*models.Policy{second, first, other} {
		s.Require().NoError(s.store.Create(s.ctx, p))
	}

	mine, err := s.store.ListByOwner(s.ctx, "cust-1")
	s.Require().NoError(err)
	s.Require().Len(mine, 2)
	s.Equal(first.ID, mine[0].ID)
	s.Equal(second.ID, mine[1].ID)

	all, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 3)

	s.Require().NoError(s.store.Delete(s.ctx, first.ID))
	s.ErrorIs(s.store.Delete(s.ctx, first.ID), sentinel.ErrNotFound)
}
