package integration_tests

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swiftpolicy/internal/customer"
	customerstore "swiftpolicy/internal/customer/store"
	documentservice "swiftpolicy/internal/document/service"
	"swiftpolicy/internal/document/signer"
	documentstore "swiftpolicy/internal/document/store"
	"swiftpolicy/internal/policy"
	"swiftpolicy/internal/policy/adapters"
	"swiftpolicy/internal/policy/models"
	policyservice "swiftpolicy/internal/policy/service"
	policystore "swiftpolicy/internal/policy/store"
	"swiftpolicy/internal/premium"
	"swiftpolicy/internal/registry"
	"swiftpolicy/internal/registry/gateway"
	"swiftpolicy/internal/registry/lock"
	registryservice "swiftpolicy/internal/registry/service"
	registrystore "swiftpolicy/internal/registry/store"
	"swiftpolicy/internal/registry/worker"
	"swiftpolicy/pkg/domain"
	dErrors "swiftpolicy/pkg/domain-errors"
	"swiftpolicy/pkg/platform/audit/publisher"
	auditmemory "swiftpolicy/pkg/platform/audit/store/memory"
	"swiftpolicy/pkg/testutil"
)

const signingKey = "0123456789abcdef0123456789abcdef"

// system wires every module against in-memory stores and the simulated
// registry gateway, the same graph the server builds without a database.
type system struct {
	now      time.Time
	policies *policy.Service
	registry *registry.Service
	worker   *worker.Worker
	gateway  *gateway.Simulated
	audit    *auditmemory.InMemoryStore
}

func newSystem(t *testing.T) *system {
	t.Helper()
	sys := &system{now: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return sys.now }
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	sys.audit = auditmemory.NewInMemoryStore()
	auditor := publisher.NewPublisher(sys.audit, publisher.WithClock(clock), publisher.WithLogger(logger))
	t.Cleanup(func() { _ = auditor.Close() })

	policyStore := policystore.NewInMemory()
	customers := customer.NewDirectory(customerstore.NewInMemory(), clock)
	_, err := customers.Register(context.Background(), "cust-1", "Ada", "Lovelace", "ada@example.com")
	require.NoError(t, err)

	sgn, err := signer.New(signingKey, signer.WithClock(clock))
	require.NoError(t, err)
	issuer := documentservice.New(policyStore, documentstore.NewInMemory(), sgn,
		documentservice.WithLogger(logger),
		documentservice.WithAuditPublisher(auditor),
		documentservice.WithClock(clock),
	)

	sys.gateway = gateway.NewSimulated(0)
	sys.registry, sys.worker = registry.New(registrystore.NewInMemory(), sys.gateway, lock.NewLocal(),
		[]worker.Option{worker.WithLogger(logger)},
		registryservice.WithLogger(logger),
		registryservice.WithAuditPublisher(auditor),
		registryservice.WithClock(clock),
		registryservice.WithPolicyMirror(adapters.NewMIDMirror(policyStore, clock)),
	)

	sys.policies = policy.NewService(policyStore, premium.NewEngine(), sys.registry, issuer, customers,
		policyservice.WithLogger(logger),
		policyservice.WithAuditPublisher(auditor),
		policyservice.WithClock(clock),
	)
	return sys
}

func carBind(duration domain.Duration) models.BindRequest {
	return models.BindRequest{
		QuoteRequest: models.QuoteRequest{
			VehicleClass:     domain.VehicleCar,
			VehicleValue:     "8000",
			CoverType:        domain.CoverComprehensive,
			NCBYears:         5,
			Duration:         duration,
			PaymentFrequency: domain.PayAnnually,
		},
		OwnerID: "cust-1",
		Vehicle: models.VehicleSnapshot{VRM: "AB12 CDE", Make: "Ford", Model: "Focus"},
		Holder:  models.HolderSnapshot{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"},
		Address: models.AddressSnapshot{Line1: "1 High St", City: "Leeds", Postcode: "LS1 1AA"},
	}
}

func (sys *system) actions(t *testing.T, targetID string) []string {
	t.Helper()
	events, err := sys.audit.ListByTarget(context.Background(), targetID)
	require.NoError(t, err)
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.Action)
	}
	return out
}

func TestTwelveMonthComprehensiveCar(t *testing.T) {
	sys := newSystem(t)
	ctx := testutil.Correlated("corr-bind-1")
	owner := testutil.Customer("cust-1")

	testutil.Given(t, "a customer binds twelve months of comprehensive cover", func(t *testing.T) {
		view, err := sys.policies.Bind(ctx, owner, carBind(domain.DurationTwelveMonths))
		require.NoError(t, err)

		testutil.Then(t, "the policy is active, priced and certified", func(t *testing.T) {
			assert.Equal(t, "1016.2", view.Premium.String())
			assert.Equal(t, models.StatusActive, view.DerivedStatus)
			assert.Equal(t, domain.MIDStatusPending, view.MIDStatus)
			require.NotNil(t, view.Certificate)
			assert.Equal(t, sys.now.AddDate(1, 0, 0), view.Certificate.ValidTo)

			content, err := sys.policies.DownloadCertificate(ctx, owner, view.ID)
			require.NoError(t, err)
			assert.Contains(t, string(content), "AB12CDE")
		})

		testutil.When(t, "the registry worker ticks", func(t *testing.T) {
			sys.worker.Tick(ctx)

			got, err := sys.policies.Get(ctx, testutil.Admin(), view.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.MIDStatusSuccess, got.MIDStatus)

			reg, err := sys.policies.VerifyRegistration(ctx, owner, view.ID)
			require.NoError(t, err)
			assert.True(t, reg.Found)
		})

		testutil.And(t, "the audit trail records each step", func(t *testing.T) {
			actions := sys.actions(t, view.ID.String())
			assert.Contains(t, actions, "policy_bound")
			assert.Contains(t, actions, "certificate_issued")
		})
	})
}

func TestRegistryOutageLeavesPolicyMirror(t *testing.T) {
	sys := newSystem(t)
	ctx := context.Background()
	owner := testutil.Customer("cust-1")
	sys.gateway.FailVRM("AB12CDE", "registry unavailable")

	view, err := sys.policies.Bind(ctx, owner, carBind(domain.DurationTwelveMonths))
	require.NoError(t, err)

	sys.worker.Tick(ctx)

	subs, err := sys.registry.ListByPolicy(ctx, view.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, domain.MIDStatusFailed, subs[0].Status)
	assert.Equal(t, 1, subs[0].RetryCount)
	assert.Contains(t, subs[0].ResponseData, "registry unavailable")

	got, err := sys.policies.Get(ctx, owner, view.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MIDStatusPending, got.MIDStatus, "failure is not mirrored onto the policy")

	reg, err := sys.policies.VerifyRegistration(ctx, owner, view.ID)
	require.NoError(t, err)
	assert.False(t, reg.Found)

	sys.gateway.Recover("AB12CDE")
	sys.worker.Tick(ctx)
	sys.worker.Tick(ctx)

	got, err = sys.policies.Get(ctx, owner, view.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MIDStatusSuccess, got.MIDStatus)
}

func TestOneMonthPolicyAdminPath(t *testing.T) {
	sys := newSystem(t)
	ctx := context.Background()
	admin := testutil.Admin()

	view, err := sys.policies.Bind(ctx, testutil.Customer("cust-1"), carBind(domain.DurationOneMonth))
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingValidation, view.DerivedStatus)
	assert.Nil(t, view.Certificate)
	assert.Zero(t, sys.gateway.Calls("AB12CDE"))

	_, err = sys.policies.Approve(ctx, admin, view.ID)
	require.NoError(t, err)
	active, err := sys.policies.Activate(ctx, admin, view.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, active.DerivedStatus)
	assert.NotNil(t, active.Certificate)

	sys.now = sys.now.AddDate(0, 2, 0)
	expired, err := sys.policies.Get(ctx, admin, view.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusExpired, expired.DerivedStatus)
	assert.False(t, expired.Usable)
}

func TestRemovedPolicyCannotBeReactivated(t *testing.T) {
	sys := newSystem(t)
	ctx := context.Background()
	admin := testutil.Admin()

	view, err := sys.policies.Bind(ctx, testutil.Customer("cust-1"), carBind(domain.DurationTwelveMonths))
	require.NoError(t, err)

	_, err = sys.policies.Remove(ctx, admin, view.ID, "fraud")
	require.NoError(t, err)

	_, err = sys.policies.Activate(ctx, admin, view.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidStateTransition))

	_, err = sys.policies.Reactivate(ctx, admin, view.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidStateTransition))

	assert.Contains(t, sys.actions(t, view.ID.String()), "policy_transition_rejected")
}
