package premium

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swiftpolicy/pkg/domain"
	dErrors "swiftpolicy/pkg/domain-errors"
)

func assertMoney(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.Equal(t, want, got.StringFixed(2), field)
}

func carRequest() Request {
	return Request{
		VehicleClass:     domain.VehicleCar,
		VehicleValue:     "8000",
		CoverType:        domain.CoverComprehensive,
		NCBYears:         5,
		Duration:         domain.DurationTwelveMonths,
		PaymentFrequency: domain.PayAnnually,
	}
}

func TestCompute_TwelveMonthComprehensiveCar(t *testing.T) {
	b, err := NewEngine().Compute(carRequest())
	require.NoError(t, err)

	assertMoney(t, "850.00", b.Base, "base")
	assertMoney(t, "330.00", b.RiskAdjustment, "risk")
	assertMoney(t, "-295.00", b.NCBDiscount, "ncb")
	assertMoney(t, "0.00", b.AddonsCost, "addons")
	assertMoney(t, "885.00", b.Subtotal, "subtotal")
	assertMoney(t, "106.20", b.IPT, "ipt")
	assertMoney(t, "25.00", b.AdminFee, "fee")
	assertMoney(t, "1016.20", b.Total, "total")
	assertMoney(t, "1016.20", b.FirstMonthCharge, "first month")
	assertMoney(t, "0.00", b.RemainingBalance, "remaining")
	assertMoney(t, "1016.20", b.FullAnnualPremium, "annual")

	assert.True(t, b.NCBDiscount.IsNegative())
	expected := b.Subtotal.Mul(decimal.RequireFromString("1.12")).Add(b.AdminFee)
	assert.True(t, b.Total.Equal(expected), "total = subtotal*(1+ipt) + fee")
}

func TestCompute_MonthlyPaymentSplitsTwelveMonthTotal(t *testing.T) {
	req := carRequest()
	req.PaymentFrequency = domain.PayMonthly

	b, err := NewEngine().Compute(req)
	require.NoError(t, err)

	assertMoney(t, "84.68", b.FirstMonthCharge, "first month")
	assertMoney(t, "931.52", b.RemainingBalance, "remaining")
	assert.True(t, b.FirstMonthCharge.Add(b.RemainingBalance).Equal(b.Total))
}

func TestCompute_OneMonthVanWithAddons(t *testing.T) {
	addons, err := ParseAddons([]string{"Breakdown", "legal", "breakdown"})
	require.NoError(t, err)

	b, err := NewEngine().Compute(Request{
		VehicleClass:     domain.VehicleVan,
		VehicleValue:     "£12,000",
		CoverType:        domain.CoverThirdPartyFireTheft,
		Addons:           addons,
		Duration:         domain.DurationOneMonth,
		PaymentFrequency: domain.PayMonthly,
	})
	require.NoError(t, err)

	assertMoney(t, "106.25", b.Base, "base")
	assertMoney(t, "71.25", b.RiskAdjustment, "risk")
	assertMoney(t, "0.00", b.NCBDiscount, "ncb")
	assertMoney(t, "70.00", b.AddonsCost, "addons")
	assertMoney(t, "247.50", b.Subtotal, "subtotal")
	assertMoney(t, "29.70", b.IPT, "ipt")
	assertMoney(t, "302.20", b.Total, "total")
	assertMoney(t, "302.20", b.FirstMonthCharge, "one month terms are charged in full")
	assertMoney(t, "1693.80", b.FullAnnualPremium, "annual")
}

func TestCompute_MotorcycleNCBIsCapped(t *testing.T) {
	req := Request{
		VehicleClass:     domain.VehicleMotorcycle,
		VehicleValue:     "3000",
		CoverType:        domain.CoverThirdPartyOnly,
		NCBYears:         12,
		Duration:         domain.DurationTwelveMonths,
		PaymentFrequency: domain.PayAnnually,
	}
	b, err := NewEngine().Compute(req)
	require.NoError(t, err)

	assertMoney(t, "-220.00", b.RiskAdjustment, "risk")
	assertMoney(t, "-283.50", b.NCBDiscount, "ncb")
	assertMoney(t, "413.08", b.Total, "total")
}

func TestCompute_DuplicateAddonsCountedOnce(t *testing.T) {
	req := carRequest()
	req.Addons = []Addon{AddonWindscreen, AddonWindscreen}

	b, err := NewEngine().Compute(req)
	require.NoError(t, err)
	assertMoney(t, "20.00", b.AddonsCost, "addons")
}

func TestCompute_RejectsMalformedInput(t *testing.T) {
	cases := map[string]func(*Request){
		"non-numeric value": func(r *Request) { r.VehicleValue = "eight thousand" },
		"empty value":       func(r *Request) { r.VehicleValue = " " },
		"negative value":    func(r *Request) { r.VehicleValue = "-1" },
		"exponent value":    func(r *Request) { r.VehicleValue = "1e400000000" },
		"signed exponent":   func(r *Request) { r.VehicleValue = "8E+3" },
		"over the maximum":  func(r *Request) { r.VehicleValue = "£10,000,000.01" },
		"hex value":         func(r *Request) { r.VehicleValue = "0x1F40" },
		"negative ncb":      func(r *Request) { r.NCBYears = -1 },
		"unknown class":     func(r *Request) { r.VehicleClass = "Tractor" },
		"unknown cover":     func(r *Request) { r.CoverType = "gold" },
		"unknown duration":  func(r *Request) { r.Duration = "6 Months" },
		"unknown frequency": func(r *Request) { r.PaymentFrequency = "weekly" },
		"unknown addon":     func(r *Request) { r.Addons = []Addon{"jetpack"} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := carRequest()
			mutate(&req)
			_, err := NewEngine().Compute(req)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}

func TestParseVehicleValue(t *testing.T) {
	for raw, want := range map[string]string{
		"8000":       "8000",
		"£12,000":    "12000",
		" 8,000.50 ": "8000.5",
		"10000000":   "10000000",
	} {
		got, err := ParseVehicleValue(raw)
		require.NoError(t, err, raw)
		assert.True(t, got.Equal(decimal.RequireFromString(want)), "%s parsed as %s", raw, got)
	}
}

func TestParseAddons(t *testing.T) {
	got, err := ParseAddons([]string{"Courtesy Car", "courtesy-car", "Protected NCB"})
	require.NoError(t, err)
	assert.Equal(t, []Addon{AddonCourtesyCar, AddonProtectedNCB}, got)

	_, err = ParseAddons([]string{"gap insurance"})
	require.Error(t, err)
}

func TestWithTariff(t *testing.T) {
	tariff := DefaultTariff()
	tariff.AdminFee = decimal.Zero
	tariff.IPTRate = decimal.Zero

	b, err := NewEngine(WithTariff(tariff)).Compute(carRequest())
	require.NoError(t, err)
	assert.True(t, b.Total.Equal(b.Subtotal))
}
