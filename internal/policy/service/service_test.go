package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"swiftpolicy/internal/policy/models"
	"swiftpolicy/internal/policy/service/mocks"
	"swiftpolicy/internal/policy/store"
	"swiftpolicy/internal/premium"
	"swiftpolicy/pkg/domain"
	dErrors "swiftpolicy/pkg/domain-errors"
	"swiftpolicy/pkg/platform/audit"
)

// =============================================================================
// Policy Service Test Suite
// =============================================================================
// The store and premium engine are real; the registry queue, certificate
// issuer, customer directory and audit sink are mocked so side effects of each
// lifecycle step can be asserted.

var (
	admin    = domain.Actor{ID: "admin-1", Role: domain.RoleAdmin}
	customer = domain.Actor{ID: "cust-1", Role: domain.RoleCustomer}
	stranger = domain.Actor{ID: "cust-2", Role: domain.RoleCustomer}
)

type PolicyServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	queue     *mocks.MockSubmissionQueue
	issuer    *mocks.MockCertificateIssuer
	customers *mocks.MockCustomerDirectory
	auditor   *mocks.MockAuditPublisher
	store     *store.InMemory
	service   *Service
	now       time.Time
	events    []audit.Event
	ctx       context.Context
}

func TestPolicyServiceSuite(t *testing.T) {
	suite.Run(t, new(PolicyServiceSuite))
}

func (s *PolicyServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.queue = mocks.NewMockSubmissionQueue(s.ctrl)
	s.issuer = mocks.NewMockCertificateIssuer(s.ctrl)
	s.customers = mocks.NewMockCustomerDirectory(s.ctrl)
	s.auditor = mocks.NewMockAuditPublisher(s.ctrl)
	s.store = store.NewInMemory()
	s.now = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	s.events = nil
	s.ctx = context.Background()

	s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, e audit.Event) error {
			s.events = append(s.events, e)
			return nil
		}).AnyTimes()

	s.service = New(
		s.store,
		premium.NewEngine(),
		s.queue,
		s.issuer,
		s.customers,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(s.auditor),
		WithClock(func() time.Time { return s.now }),
	)
}

func (s *PolicyServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *PolicyServiceSuite) bindRequest(duration domain.Duration) models.BindRequest {
	return models.BindRequest{
		QuoteRequest: models.QuoteRequest{
			VehicleClass: domain.VehicleCar,
			VehicleValue: "8000",
			CoverType:    domain.CoverComprehensive,
			NCBYears:     5,
			Duration:     duration,
		},
		OwnerID: "cust-1",
		Vehicle: models.VehicleSnapshot{VRM: "ab12 cde", Make: "Ford", Model: "Focus"},
		Holder:  models.HolderSnapshot{FirstName: "Ada", LastName: "Lovelace", Email: "Ada@Example.com"},
		Address: models.AddressSnapshot{Line1: "1 High St", City: "Leeds", Postcode: "ls1 1aa"},
	}
}

// bindPending binds a one-month policy, which starts in PendingValidation
// with no side effects.
func (s *PolicyServiceSuite) bindPending() *models.View {
	s.customers.EXPECT().Exists(gomock.Any(), domain.CustomerID("cust-1")).Return(true, nil)
	v, err := s.service.Bind(s.ctx, customer, s.bindRequest(domain.DurationOneMonth))
	s.Require().NoError(err)
	return v
}

// bindActive binds a twelve-month policy, expecting enqueue and issuance.
func (s *PolicyServiceSuite) bindActive() *models.View {
	s.customers.EXPECT().Exists(gomock.Any(), domain.CustomerID("cust-1")).Return(true, nil)
	s.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any(), domain.VRM("AB12CDE")).Return(nil)
	s.issuer.EXPECT().Issue(gomock.Any(), customer, gomock.Any()).Return(&models.CertificateRef{}, nil)
	v, err := s.service.Bind(s.ctx, customer, s.bindRequest(domain.DurationTwelveMonths))
	s.Require().NoError(err)
	return v
}

func (s *PolicyServiceSuite) actions() []string {
	out := make([]string, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Action)
	}
	return out
}

func (s *PolicyServiceSuite) stored(id domain.PolicyID) *models.Policy {
	p, err := s.store.FindByID(s.ctx, id)
	s.Require().NoError(err)
	return p
}

// =============================================================================
// Quote and Bind
// =============================================================================

func (s *PolicyServiceSuite) TestQuote() {
	s.Run("prices without persisting", func() {
		b, err := s.service.Quote(s.ctx, s.bindRequest(domain.DurationTwelveMonths).QuoteRequest)
		s.Require().NoError(err)
		s.Equal("1016.20", b.Total.StringFixed(2))

		all, err := s.store.List(s.ctx)
		s.Require().NoError(err)
		s.Empty(all)
	})

	s.Run("unknown add-on is a validation error", func() {
		req := s.bindRequest(domain.DurationTwelveMonths).QuoteRequest
		req.Addons = []string{"jetpack"}
		_, err := s.service.Quote(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *PolicyServiceSuite) TestBind() {
	s.Run("twelve month comprehensive car starts Active and is submitted", func() {
		v := s.bindActive()

		s.Equal(models.StatusActive, v.Status)
		s.Equal(models.StatusActive, v.DerivedStatus)
		s.Require().NotNil(v.ValidatedAt)
		s.Equal(s.now, *v.ValidatedAt)
		s.Equal("1016.20", v.Premium.StringFixed(2))
		s.Equal(domain.VRM("AB12CDE"), v.Details.VRM)
		s.Equal("ada@example.com", v.Details.Holder.Email)
		s.Regexp(`^SP-CAR-12M-[0-9A-F]{8}$`, v.ID.String())
		s.Contains(s.actions(), string(audit.EventPolicyBound))
	})

	s.Run("one month policy waits for validation", func() {
		v := s.bindPending()

		s.Equal(models.StatusPendingValidation, v.Status)
		s.Nil(v.ValidatedAt)
		s.Regexp(`^SP-CAR-1M-`, v.ID.String())
	})

	s.Run("customer owner defaults to the acting customer", func() {
		req := s.bindRequest(domain.DurationOneMonth)
		req.OwnerID = ""
		s.customers.EXPECT().Exists(gomock.Any(), domain.CustomerID("cust-1")).Return(true, nil)

		v, err := s.service.Bind(s.ctx, customer, req)
		s.Require().NoError(err)
		s.Equal(domain.CustomerID("cust-1"), v.OwnerID)
	})

	s.Run("unknown customer is not found", func() {
		s.customers.EXPECT().Exists(gomock.Any(), gomock.Any()).Return(false, nil)
		_, err := s.service.Bind(s.ctx, admin, s.bindRequest(domain.DurationTwelveMonths))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("customer cannot bind for someone else", func() {
		_, err := s.service.Bind(s.ctx, stranger, s.bindRequest(domain.DurationTwelveMonths))
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("invalid registration mark is a validation error", func() {
		req := s.bindRequest(domain.DurationOneMonth)
		req.Vehicle.VRM = "??"
		s.customers.EXPECT().Exists(gomock.Any(), gomock.Any()).Return(true, nil)
		_, err := s.service.Bind(s.ctx, customer, req)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("enqueue and issuance failures do not fail the bind", func() {
		s.customers.EXPECT().Exists(gomock.Any(), gomock.Any()).Return(true, nil)
		s.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("queue down"))
		s.issuer.EXPECT().Issue(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("storage down"))

		v, err := s.service.Bind(s.ctx, customer, s.bindRequest(domain.DurationTwelveMonths))
		s.Require().NoError(err)
		s.Equal(models.StatusActive, v.Status)
	})
}

// =============================================================================
// Lifecycle transitions
// =============================================================================

func (s *PolicyServiceSuite) TestTransitions() {
	s.Run("validate activates a pending policy and submits it", func() {
		p := s.bindPending()
		s.queue.EXPECT().Enqueue(gomock.Any(), p.ID, domain.VRM("AB12CDE")).Return(nil)
		s.issuer.EXPECT().Issue(gomock.Any(), admin, p.ID).Return(&models.CertificateRef{}, nil)

		v, err := s.service.Validate(s.ctx, admin, p.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusActive, v.Status)
		s.Require().NotNil(v.ValidatedAt)
		s.Contains(s.actions(), string(audit.EventPolicyValidated))
	})

	s.Run("approve then activate keeps the first validation time", func() {
		p := s.bindPending()
		approvedAt := s.now
		_, err := s.service.Approve(s.ctx, admin, p.ID)
		s.Require().NoError(err)

		s.now = s.now.Add(48 * time.Hour)
		s.queue.EXPECT().Enqueue(gomock.Any(), p.ID, gomock.Any()).Return(nil)
		s.issuer.EXPECT().Issue(gomock.Any(), admin, p.ID).Return(nil, nil)

		v, err := s.service.Activate(s.ctx, admin, p.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusActive, v.Status)
		s.Equal(approvedAt, *v.ValidatedAt)
	})

	s.Run("freeze then reactivate requeues and reissues", func() {
		p := s.bindActive()
		v, err := s.service.Freeze(s.ctx, admin, p.ID, "payment lapsed")
		s.Require().NoError(err)
		s.Equal(models.StatusFrozen, v.Status)

		s.queue.EXPECT().Requeue(gomock.Any(), p.ID, domain.VRM("AB12CDE")).Return(nil)
		s.issuer.EXPECT().Issue(gomock.Any(), admin, p.ID).Return(&models.CertificateRef{}, nil)
		v, err = s.service.Reactivate(s.ctx, admin, p.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusActive, v.Status)

		var frozen audit.Event
		for _, e := range s.events {
			if e.Action == string(audit.EventPolicyFrozen) {
				frozen = e
			}
		}
		s.Equal("payment lapsed", frozen.Reason)
		s.Equal(admin.ID, frozen.ActorID)
	})

	s.Run("removed policy cannot be reactivated", func() {
		p := s.bindPending()
		_, err := s.service.Remove(s.ctx, admin, p.ID, "duplicate")
		s.Require().NoError(err)

		_, err = s.service.Reactivate(s.ctx, admin, p.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidStateTransition))
		s.Equal(models.StatusRemoved, s.stored(p.ID).Status)
		s.Contains(s.actions(), string(audit.EventPolicyTransitionRejected))
	})

	s.Run("disallowed transition leaves state untouched", func() {
		p := s.bindPending()
		_, err := s.service.Freeze(s.ctx, admin, p.ID, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidStateTransition))
		s.Equal(models.StatusPendingValidation, s.stored(p.ID).Status)
	})

	s.Run("customers cannot administer policies", func() {
		p := s.bindPending()
		_, err := s.service.Block(s.ctx, customer, p.ID, "")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("unknown policy is not found", func() {
		_, err := s.service.Freeze(s.ctx, admin, domain.NewPolicyID("CAR", "12M"), "")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("unknown transition is a validation error", func() {
		p := s.bindPending()
		_, err := s.service.Apply(s.ctx, admin, p.ID, models.Transition("teleport"), "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *PolicyServiceSuite) TestUpdateDetails() {
	s.Run("edits fields without repricing", func() {
		p := s.bindPending()
		mk := "Vauxhall"
		flag := true
		v, err := s.service.UpdateDetails(s.ctx, admin, p.ID, models.DetailsUpdate{Make: &mk, RiskFlag: &flag}, "typo")
		s.Require().NoError(err)
		s.Equal("Vauxhall", v.Details.Make)
		s.True(v.RiskFlag)
		s.True(p.Premium.Equal(v.Premium))
		s.Contains(s.events[len(s.events)-1].Details, "fields=make,risk_flag")
	})

	s.Run("empty update is rejected", func() {
		p := s.bindPending()
		_, err := s.service.UpdateDetails(s.ctx, admin, p.ID, models.DetailsUpdate{}, "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("removed policy cannot be edited", func() {
		p := s.bindPending()
		_, err := s.service.Remove(s.ctx, admin, p.ID, "")
		s.Require().NoError(err)
		notes := "x"
		_, err = s.service.UpdateDetails(s.ctx, admin, p.ID, models.DetailsUpdate{Notes: &notes}, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidStateTransition))
	})

	s.Run("negative excess is a validation error", func() {
		p := s.bindPending()
		excess := decimal.NewFromInt(-1)
		_, err := s.service.UpdateDetails(s.ctx, admin, p.ID, models.DetailsUpdate{Excess: &excess}, "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *PolicyServiceSuite) TestPurge() {
	s.Run("only removed policies can be purged", func() {
		p := s.bindPending()
		err := s.service.Purge(s.ctx, admin, p.ID, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidStateTransition))
	})

	s.Run("purges submissions and the policy", func() {
		p := s.bindPending()
		_, err := s.service.Remove(s.ctx, admin, p.ID, "test data")
		s.Require().NoError(err)
		s.queue.EXPECT().PurgePolicy(gomock.Any(), p.ID).Return(nil)

		s.Require().NoError(s.service.Purge(s.ctx, admin, p.ID, "test data"))
		_, err = s.service.Get(s.ctx, admin, p.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Contains(s.actions(), string(audit.EventPolicyPurged))
	})

	s.Run("requires admin", func() {
		err := s.service.Purge(s.ctx, customer, domain.NewPolicyID("CAR", "1M"), "")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

// =============================================================================
// Reads and derived expiry
// =============================================================================

func (s *PolicyServiceSuite) TestDerivedExpiry() {
	p := s.bindPending()
	s.queue.EXPECT().Enqueue(gomock.Any(), p.ID, gomock.Any()).Return(nil)
	s.issuer.EXPECT().Issue(gomock.Any(), admin, p.ID).Return(nil, nil)
	_, err := s.service.Validate(s.ctx, admin, p.ID)
	s.Require().NoError(err)
	validatedAt := s.now

	s.Run("twenty days later the policy is still usable", func() {
		s.now = validatedAt.Add(20 * 24 * time.Hour)
		v, err := s.service.Get(s.ctx, customer, p.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusActive, v.DerivedStatus)

		_, err = s.service.CheckUsable(s.ctx, customer, p.ID)
		s.NoError(err)
	})

	s.Run("thirty two days later it reads as expired", func() {
		s.now = validatedAt.Add(32 * 24 * time.Hour)
		v, err := s.service.Get(s.ctx, customer, p.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusExpired, v.DerivedStatus)
		s.Equal(models.StatusActive, s.stored(p.ID).Status)

		_, err = s.service.CheckUsable(s.ctx, customer, p.ID)
		s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))

		expired, err := s.service.List(s.ctx, admin, models.ListFilter{Status: models.StatusExpired})
		s.Require().NoError(err)
		s.Len(expired, 1)
	})
}

func (s *PolicyServiceSuite) TestReads() {
	active := s.bindActive()
	s.bindPending()

	s.Run("owner and admin may read, others may not", func() {
		_, err := s.service.Get(s.ctx, customer, active.ID)
		s.NoError(err)
		_, err = s.service.Get(s.ctx, admin, active.ID)
		s.NoError(err)
		_, err = s.service.Get(s.ctx, stranger, active.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("lists by owner", func() {
		views, err := s.service.ListByOwner(s.ctx, customer, "cust-1")
		s.Require().NoError(err)
		s.Len(views, 2)

		_, err = s.service.ListByOwner(s.ctx, stranger, "cust-1")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("admin list filters by status", func() {
		views, err := s.service.List(s.ctx, admin, models.ListFilter{Status: models.StatusPendingValidation})
		s.Require().NoError(err)
		s.Len(views, 1)

		_, err = s.service.List(s.ctx, admin, models.ListFilter{Status: "Lapsed"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		_, err = s.service.List(s.ctx, customer, models.ListFilter{})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *PolicyServiceSuite) TestCertificateAndRegistry() {
	p := s.bindActive()

	s.Run("download before issuance is not found", func() {
		_, err := s.service.DownloadCertificate(s.ctx, customer, p.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("download reads issued content", func() {
		docID := domain.NewDocumentID()
		_, err := s.store.Update(s.ctx, p.ID, func(pol *models.Policy) error {
			pol.Certificate = &models.CertificateRef{DocumentID: docID}
			return nil
		})
		s.Require().NoError(err)
		s.issuer.EXPECT().Fetch(gomock.Any(), docID).Return([]byte("CERTIFICATE"), nil)

		content, err := s.service.DownloadCertificate(s.ctx, customer, p.ID)
		s.Require().NoError(err)
		s.Equal("CERTIFICATE", string(content))
	})

	s.Run("verify registration queries by VRM", func() {
		s.queue.EXPECT().IsRegistered(gomock.Any(), domain.VRM("AB12CDE")).
			Return(domain.Registration{Found: true, Message: "registered"}, nil)

		reg, err := s.service.VerifyRegistration(s.ctx, customer, p.ID)
		s.Require().NoError(err)
		s.True(reg.Found)
	})

	s.Run("frozen policy is not usable", func() {
		_, err := s.service.Freeze(s.ctx, admin, p.ID, "")
		s.Require().NoError(err)
		_, err = s.service.VerifyRegistration(s.ctx, customer, p.ID)
		s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))
	})
}
