package premium

import (
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"swiftpolicy/pkg/domain"
)

var (
	classes     = []domain.VehicleClass{domain.VehicleCar, domain.VehicleVan, domain.VehicleMotorcycle}
	covers      = []domain.CoverType{domain.CoverComprehensive, domain.CoverThirdPartyFireTheft, domain.CoverThirdPartyOnly}
	durations   = []domain.Duration{domain.DurationOneMonth, domain.DurationTwelveMonths}
	frequencies = []domain.PaymentFrequency{domain.PayMonthly, domain.PayAnnually}
	allAddons   = []Addon{AddonBreakdown, AddonLegal, AddonCourtesyCar, AddonWindscreen, AddonProtectedNCB}
)

func buildRequest(value, ncb, class, cover, duration, freq, addonMask int) Request {
	var addons []Addon
	for i, a := range allAddons {
		if addonMask&(1<<i) != 0 {
			addons = append(addons, a)
		}
	}
	return Request{
		VehicleClass:     classes[class],
		VehicleValue:     strconv.Itoa(value),
		CoverType:        covers[cover],
		NCBYears:         ncb,
		Addons:           addons,
		Duration:         durations[duration],
		PaymentFrequency: frequencies[freq],
	}
}

func sameBreakdown(a, b Breakdown) bool {
	return a.Base.Equal(b.Base) && a.RiskAdjustment.Equal(b.RiskAdjustment) &&
		a.NCBDiscount.Equal(b.NCBDiscount) && a.AddonsCost.Equal(b.AddonsCost) &&
		a.Subtotal.Equal(b.Subtotal) && a.IPT.Equal(b.IPT) && a.AdminFee.Equal(b.AdminFee) &&
		a.Total.Equal(b.Total) && a.FirstMonthCharge.Equal(b.FirstMonthCharge) &&
		a.RemainingBalance.Equal(b.RemainingBalance) && a.FullAnnualPremium.Equal(b.FullAnnualPremium)
}

func TestComputeProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)
	engine := NewEngine()

	properties.Property("compute is deterministic and components sum to total", prop.ForAll(
		func(value, ncb, class, cover, duration, freq, mask int) bool {
			req := buildRequest(value, ncb, class, cover, duration, freq, mask)
			first, err := engine.Compute(req)
			if err != nil {
				return false
			}
			second, err := engine.Compute(req)
			if err != nil || !sameBreakdown(first, second) {
				return false
			}
			subtotal := first.Base.Add(first.RiskAdjustment).Add(first.NCBDiscount).Add(first.AddonsCost)
			total := first.Subtotal.Add(first.IPT).Add(first.AdminFee)
			split := first.FirstMonthCharge.Add(first.RemainingBalance)
			return subtotal.Equal(first.Subtotal) && total.Equal(first.Total) &&
				split.Equal(first.Total) && !first.NCBDiscount.IsPositive()
		},
		gen.IntRange(0, 250000),
		gen.IntRange(0, 20),
		gen.IntRange(0, len(classes)-1),
		gen.IntRange(0, len(covers)-1),
		gen.IntRange(0, len(durations)-1),
		gen.IntRange(0, len(frequencies)-1),
		gen.IntRange(0, 31),
	))

	properties.Property("ncb discount grows with years up to the cap and is flat beyond", prop.ForAll(
		func(value, years, class, cover int) bool {
			cur, err := engine.Compute(buildRequest(value, years, class, cover, 1, 1, 0))
			if err != nil {
				return false
			}
			next, err := engine.Compute(buildRequest(value, years+1, class, cover, 1, 1, 0))
			if err != nil {
				return false
			}
			if years >= DefaultTariff().NCBCapYears {
				return next.NCBDiscount.Equal(cur.NCBDiscount)
			}
			return next.NCBDiscount.LessThanOrEqual(cur.NCBDiscount)
		},
		gen.IntRange(0, 250000),
		gen.IntRange(0, 25),
		gen.IntRange(0, len(classes)-1),
		gen.IntRange(0, len(covers)-1),
	))

	properties.TestingRun(t)
}
