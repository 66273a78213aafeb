package adapters

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swiftpolicy/internal/policy/models"
	"swiftpolicy/internal/policy/store"
	"swiftpolicy/pkg/domain"
)

func TestMIDMirror_SetMIDStatus(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	policies := store.NewInMemory()
	mirror := NewMIDMirror(policies, domain.FixedClock(now))

	p, err := models.NewPolicy(
		domain.NewPolicyID("CAR", "12M"),
		"cust-1",
		domain.VehicleCar,
		domain.CoverComprehensive,
		domain.DurationTwelveMonths,
		decimal.RequireFromString("1016.20"),
		models.VehicleDetails{
			SchemaVersion: models.DetailsSchemaVersion,
			VRM:           "AB12CDE",
			Make:          "Ford",
			Model:         "Focus",
			Value:         decimal.NewFromInt(8000),
			Holder:        models.HolderSnapshot{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"},
			StartDate:     now,
			ExpiryDate:    now.AddDate(1, 0, 0),
		},
		now.Add(-time.Hour),
	)
	require.NoError(t, err)
	require.NoError(t, policies.Create(ctx, p))

	t.Run("copies status onto policy", func(t *testing.T) {
		require.NoError(t, mirror.SetMIDStatus(ctx, p.ID, domain.MIDStatusPending))
		got, err := policies.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.MIDStatusPending, got.MIDStatus)
		assert.Equal(t, now, got.UpdatedAt)
	})

	t.Run("missing policy is ignored", func(t *testing.T) {
		assert.NoError(t, mirror.SetMIDStatus(ctx, domain.NewPolicyID("VAN", "1M"), domain.MIDStatusSuccess))
	})
}
