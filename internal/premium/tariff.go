package premium

import (
	"github.com/shopspring/decimal"

	"swiftpolicy/pkg/domain"
)

// Tariff holds the rating constants. Rates are fractions (0.12 = 12%).
type Tariff struct {
	BaseAnnual     decimal.Decimal
	ClassSurcharge map[domain.VehicleClass]decimal.Decimal
	ValueRate      decimal.Decimal
	CoverLoading   map[domain.CoverType]decimal.Decimal
	TermFactor     map[domain.Duration]decimal.Decimal
	NCBCapYears    int
	NCBRatePerYear decimal.Decimal
	AddonCharges   map[Addon]decimal.Decimal
	IPTRate        decimal.Decimal
	AdminFee       decimal.Decimal
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// DefaultTariff is the production rating table.
func DefaultTariff() Tariff {
	return Tariff{
		BaseAnnual: d("850"),
		ClassSurcharge: map[domain.VehicleClass]decimal.Decimal{
			domain.VehicleCar:        decimal.Zero,
			domain.VehicleVan:        d("350"),
			domain.VehicleMotorcycle: d("-250"),
		},
		ValueRate: d("0.01"),
		CoverLoading: map[domain.CoverType]decimal.Decimal{
			domain.CoverComprehensive:       d("250"),
			domain.CoverThirdPartyFireTheft: d("100"),
			domain.CoverThirdPartyOnly:      decimal.Zero,
		},
		TermFactor: map[domain.Duration]decimal.Decimal{
			domain.DurationTwelveMonths: decimal.NewFromInt(1),
			domain.DurationOneMonth:     d("0.125"),
		},
		NCBCapYears:    9,
		NCBRatePerYear: d("0.05"),
		AddonCharges: map[Addon]decimal.Decimal{
			AddonBreakdown:    d("45"),
			AddonLegal:        d("25"),
			AddonCourtesyCar:  d("30"),
			AddonWindscreen:   d("20"),
			AddonProtectedNCB: d("35"),
		},
		IPTRate:  d("0.12"),
		AdminFee: d("25"),
	}
}
