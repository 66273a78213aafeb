package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "swiftpolicy/pkg/domain-errors"
)

func TestParseCoverType_AcceptsLegacyLabels(t *testing.T) {
	cases := map[string]CoverType{
		"Comprehensive Cover":       CoverComprehensive,
		"comprehensive":             CoverComprehensive,
		"Third Party, Fire & Theft": CoverThirdPartyFireTheft,
		"TPFT":                      CoverThirdPartyFireTheft,
		"Third Party Insurance":     CoverThirdPartyOnly,
		"third-party-only":          CoverThirdPartyOnly,
	}
	for in, want := range cases {
		got, err := ParseCoverType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseCoverType("platinum")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestParseVehicleClassAndCode(t *testing.T) {
	c, err := ParseVehicleClass("Motorbike")
	require.NoError(t, err)
	assert.Equal(t, VehicleMotorcycle, c)
	assert.Equal(t, "MCY", c.Code())

	_, err = ParseVehicleClass("tractor")
	require.Error(t, err)
}

func TestDuration(t *testing.T) {
	d, err := ParseDuration("1 Month")
	require.NoError(t, err)
	assert.Equal(t, DurationOneMonth, d)
	assert.Equal(t, "1M", d.Code())

	start := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), DurationOneMonth.ExpiryFrom(start))
	assert.Equal(t, time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC), DurationTwelveMonths.ExpiryFrom(start))

	_, err = ParseDuration("6 months")
	require.Error(t, err)
}

func TestParsePaymentFrequency(t *testing.T) {
	f, err := ParsePaymentFrequency("Monthly")
	require.NoError(t, err)
	assert.Equal(t, PayMonthly, f)

	f, err = ParsePaymentFrequency("")
	require.NoError(t, err)
	assert.Equal(t, PayAnnually, f)
}
