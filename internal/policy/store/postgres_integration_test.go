//go:build integration

package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"swiftpolicy/internal/policy/models"
	"swiftpolicy/internal/policy/store"
	"swiftpolicy/pkg/domain"
	"swiftpolicy/pkg/platform/sentinel"
	"swiftpolicy/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "policies"))
}

func (s *PostgresStoreSuite) newPolicy(owner domain.CustomerID) *models.Policy {
	now := time.Now().UTC().Truncate(time.Microsecond)
	excess := decimal.NewFromInt(250)
	p, err := models.NewPolicy(domain.NewPolicyID("CAR", "12M"), owner, domain.VehicleCar,
		domain.CoverComprehensive, domain.DurationTwelveMonths, decimal.RequireFromString("1016.20"),
		models.VehicleDetails{
			SchemaVersion: models.DetailsSchemaVersion,
			VRM:           "AB12CDE",
			Make:          "Ford",
			Model:         "Focus",
			Value:         decimal.NewFromInt(8000),
			Holder:        models.HolderSnapshot{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"},
			Excess:        &excess,
			StartDate:     now,
			ExpiryDate:    domain.DurationTwelveMonths.ExpiryFrom(now),
		}, now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(context.Background(), p))
	return p
}

func (s *PostgresStoreSuite) TestRoundTripKeepsDetailsAndMoney() {
	p := s.newPolicy("cust-1")

	found, err := s.store.FindByID(context.Background(), p.ID)
	s.Require().NoError(err)
	s.Equal(p.Status, found.Status)
	s.True(p.Premium.Equal(found.Premium))
	s.Equal(p.Details.VRM, found.Details.VRM)
	s.Equal(models.DetailsSchemaVersion, found.Details.SchemaVersion)
	s.Require().NotNil(found.Details.Excess)
	s.True(found.Details.Excess.Equal(decimal.NewFromInt(250)))
	s.True(p.Expiry().Equal(found.Expiry()))
}

func (s *PostgresStoreSuite) TestDuplicateIDConflicts() {
	p := s.newPolicy("cust-1")
	s.ErrorIs(s.store.Create(context.Background(), p), sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestUpdate() {
	ctx := context.Background()
	p := s.newPolicy("cust-1")

	s.Run("applies and persists", func() {
		updated, err := s.store.Update(ctx, p.ID, func(m *models.Policy) error {
			m.MIDStatus = domain.MIDStatusSuccess
			m.Certificate = &models.CertificateRef{DocumentID: "CERT-00000001", StorageKey: "certificates/x"}
			return nil
		})
		s.Require().NoError(err)
		s.Equal(domain.MIDStatusSuccess, updated.MIDStatus)

		found, err := s.store.FindByID(ctx, p.ID)
		s.Require().NoError(err)
		s.Require().NotNil(found.Certificate)
		s.Equal(domain.DocumentID("CERT-00000001"), found.Certificate.DocumentID)
	})

	s.Run("error rolls back", func() {
		boom := errors.New("boom")
		_, err := s.store.Update(ctx, p.ID, func(m *models.Policy) error {
			m.Status = models.StatusRemoved
			return boom
		})
		s.ErrorIs(err, boom)

		found, err := s.store.FindByID(ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusActive, found.Status)
	})

	s.Run("unknown id", func() {
		_, err := s.store.Update(ctx, domain.NewPolicyID("VAN", "1M"), func(*models.Policy) error { return nil })
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *PostgresStoreSuite) TestListAndDelete() {
	ctx := context.Background()
	a := s.newPolicy("cust-1")
	s.newPolicy("cust-2")

	mine, err := s.store.ListByOwner(ctx, "cust-1")
	s.Require().NoError(err)
	s.Require().Len(mine, 1)
	s.Equal(a.ID, mine[0].ID)

	all, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Len(all, 2)

	s.Require().NoError(s.store.Delete(ctx, a.ID))
	_, err = s.store.FindByID(ctx, a.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.Delete(ctx, a.ID), sentinel.ErrNotFound)
}
