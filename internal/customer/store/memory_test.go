package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"swiftpolicy/internal/customer/models"
	"swiftpolicy/pkg/domain"
	"swiftpolicy/pkg/platform/sentinel"
)

type InMemoryCustomerStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestInMemoryCustomerStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryCustomerStoreSuite))
}

func (s *InMemoryCustomerStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *InMemoryCustomerStoreSuite) customer(id, email string) *models.Customer {
	c, err := models.NewCustomer(domain.CustomerID(id), "Jane", "Doe", email, time.Now())
	s.Require().NoError(err)
	return c
}

func (s *InMemoryCustomerStoreSuite) TestLookup() {
	c := s.customer("cust-1", "Jane.Doe@Example.com")
	s.Require().NoError(s.store.Save(s.ctx, c))

	s.Run("by id", func() {
		found, err := s.store.FindByID(s.ctx, "cust-1")
		s.Require().NoError(err)
		s.Equal(c, found)
	})

	s.Run("by normalized email", func() {
		found, err := s.store.FindByEmail(s.ctx, "jane.doe@example.com")
		s.Require().NoError(err)
		s.Equal(c.ID, found.ID)
	})

	s.Run("exists", func() {
		ok, err := s.store.Exists(s.ctx, "cust-1")
		s.Require().NoError(err)
		s.True(ok)
		ok, err = s.store.Exists(s.ctx, "cust-2")
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("missing id", func() {
		_, err := s.store.FindByID(s.ctx, "cust-2")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryCustomerStoreSuite) TestUniqueness() {
	s.Require().NoError(s.store.Save(s.ctx, s.customer("cust-1", "a@example.com")))
	s.ErrorIs(s.store.Save(s.ctx, s.customer("cust-1", "b@example.com")), sentinel.ErrConflict)
	s.ErrorIs(s.store.Save(s.ctx, s.customer("cust-2", "a@example.com")), sentinel.ErrConflict)
}

func (s *InMemoryCustomerStoreSuite) TestDelete() {
	s.Require().NoError(s.store.Save(s.ctx, s.customer("cust-1", "a@example.com")))
	s.Require().NoError(s.store.Delete(s.ctx, "cust-1"))
	_, err := s.store.FindByID(s.ctx, "cust-1")
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.Delete(s.ctx, "cust-1"), sentinel.ErrNotFound)
}
