package premium

import (
	"github.com/shopspring/decimal"

	"swiftpolicy/pkg/domain"
	dErrors "swiftpolicy/pkg/domain-errors"
	pstrings "swiftpolicy/pkg/platform/strings"
)

// Addon is an optional flat-priced extra.
type Addon string

const (
	AddonBreakdown    Addon = "breakdown"
	AddonLegal        Addon = "legal"
	AddonCourtesyCar  Addon = "courtesy_car"
	AddonWindscreen   Addon = "windscreen"
	AddonProtectedNCB Addon = "protected_ncb"
)

var knownAddons = map[Addon]struct{}{
	AddonBreakdown:    {},
	AddonLegal:        {},
	AddonCourtesyCar:  {},
	AddonWindscreen:   {},
	AddonProtectedNCB: {},
}

// ParseAddons normalizes labels ("Courtesy Car", "courtesy-car") and drops duplicates.
func ParseAddons(raw []string) ([]Addon, error) {
	keys := pstrings.DedupeKeys(raw)
	out := make([]Addon, 0, len(keys))
	for _, k := range keys {
		a := Addon(k)
		if _, ok := knownAddons[a]; !ok {
			return nil, dErrors.Newf(dErrors.CodeValidation, "unknown add-on %q", k)
		}
		out = append(out, a)
	}
	return out, nil
}

// Request is a rating request. VehicleValue is the declared value as entered.
type Request struct {
	VehicleClass     domain.VehicleClass
	VehicleValue     string
	CoverType        domain.CoverType
	NCBYears         int
	Addons           []Addon
	Duration         domain.Duration
	PaymentFrequency domain.PaymentFrequency
}

// Breakdown is the itemised premium. Every component is rounded to pence.
//
// Invariant: Subtotal = Base + RiskAdjustment + NCBDiscount + AddonsCost and
// Total = Subtotal + IPT + AdminFee.
type Breakdown struct {
	Base              decimal.Decimal `json:"base"`
	RiskAdjustment    decimal.Decimal `json:"risk_adjustment"`
	NCBDiscount       decimal.Decimal `json:"ncb_discount"`
	AddonsCost        decimal.Decimal `json:"addons_cost"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	IPT               decimal.Decimal `json:"ipt"`
	AdminFee          decimal.Decimal `json:"admin_fee"`
	Total             decimal.Decimal `json:"total"`
	FirstMonthCharge  decimal.Decimal `json:"first_month_charge"`
	RemainingBalance  decimal.Decimal `json:"remaining_balance"`
	FullAnnualPremium decimal.Decimal `json:"full_annual_premium"`
}
