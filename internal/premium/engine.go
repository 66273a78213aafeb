// Package premium prices motor policies. Compute is pure: no I/O, no clock,
// identical input always yields an identical Breakdown.
package premium

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"swiftpolicy/pkg/domain"
	dErrors "swiftpolicy/pkg/domain-errors"
)

var twelve = decimal.NewFromInt(12)

type Engine struct {
	tariff Tariff
}

type Option func(*Engine)

func WithTariff(t Tariff) Option {
	return func(e *Engine) { e.tariff = t }
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{tariff: DefaultTariff()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compute prices a request. Malformed input fails with CodeValidation rather
// than falling back to defaults.
func (e *Engine) Compute(req Request) (Breakdown, error) {
	value, err := ParseVehicleValue(req.VehicleValue)
	if err != nil {
		return Breakdown{}, err
	}
	if err := e.validate(req); err != nil {
		return Breakdown{}, err
	}

	b := e.price(req, value, e.tariff.TermFactor[req.Duration])
	annual := b.Total
	if req.Duration != domain.DurationTwelveMonths {
		annual = e.price(req, value, decimal.NewFromInt(1)).Total
	}
	b.FullAnnualPremium = annual

	if req.Duration == domain.DurationTwelveMonths && req.PaymentFrequency == domain.PayMonthly {
		b.FirstMonthCharge = round(b.Total.Div(twelve))
		b.RemainingBalance = b.Total.Sub(b.FirstMonthCharge)
	} else {
		b.FirstMonthCharge = b.Total
		b.RemainingBalance = decimal.Zero
	}
	return b, nil
}

func (e *Engine) price(req Request, value, term decimal.Decimal) Breakdown {
	t := e.tariff

	base := round(t.BaseAnnual.Mul(term))
	risk := round(t.ClassSurcharge[req.VehicleClass].
		Add(value.Mul(t.ValueRate)).
		Add(t.CoverLoading[req.CoverType]).
		Mul(term))

	years := min(req.NCBYears, t.NCBCapYears)
	ncb := round(base.Add(risk).Mul(decimal.NewFromInt(int64(years))).Mul(t.NCBRatePerYear).Neg())
	if ncb.IsPositive() {
		ncb = decimal.Zero
	}

	addons := decimal.Zero
	counted := make(map[Addon]struct{}, len(req.Addons))
	for _, a := range req.Addons {
		if _, dup := counted[a]; dup {
			continue
		}
		counted[a] = struct{}{}
		addons = addons.Add(t.AddonCharges[a])
	}
	addons = round(addons)

	subtotal := base.Add(risk).Add(ncb).Add(addons)
	ipt := round(subtotal.Mul(t.IPTRate))
	fee := round(t.AdminFee)

	return Breakdown{
		Base:           base,
		RiskAdjustment: risk,
		NCBDiscount:    ncb,
		AddonsCost:     addons,
		Subtotal:       subtotal,
		IPT:            ipt,
		AdminFee:       fee,
		Total:          subtotal.Add(ipt).Add(fee),
	}
}

func (e *Engine) validate(req Request) error {
	if !req.VehicleClass.IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown vehicle class %q", req.VehicleClass)
	}
	if !req.CoverType.IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown cover type %q", req.CoverType)
	}
	if !req.Duration.IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown policy duration %q", req.Duration)
	}
	if !req.PaymentFrequency.IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown payment frequency %q", req.PaymentFrequency)
	}
	if req.NCBYears < 0 {
		return dErrors.New(dErrors.CodeValidation, "no claims bonus years cannot be negative")
	}
	for _, a := range req.Addons {
		if _, ok := e.tariff.AddonCharges[a]; !ok {
			return dErrors.Newf(dErrors.CodeValidation, "unknown add-on %q", a)
		}
	}
	return nil
}

// MaxVehicleValue is the largest declared value the tariff will rate.
var MaxVehicleValue = decimal.NewFromInt(10_000_000)

var plainAmount = regexp.MustCompile(`^\d{1,12}(\.\d{1,4})?$`)

// ParseVehicleValue accepts "8000", "8,000.50" or "£8000". Exponent and
// signed forms are rejected.
func ParseVehicleValue(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "£")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return decimal.Zero, dErrors.New(dErrors.CodeValidation, "vehicle value is required")
	}
	if strings.HasPrefix(s, "-") {
		return decimal.Zero, dErrors.New(dErrors.CodeValidation, "vehicle value cannot be negative")
	}
	if !plainAmount.MatchString(s) {
		return decimal.Zero, dErrors.Newf(dErrors.CodeValidation, "vehicle value %q must be a plain amount", raw)
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, dErrors.Wrap(err, dErrors.CodeValidation, "vehicle value must be numeric")
	}
	if v.GreaterThan(MaxVehicleValue) {
		return decimal.Zero, dErrors.Newf(dErrors.CodeValidation, "vehicle value exceeds %s", MaxVehicleValue)
	}
	return v, nil
}

// round is half away from zero to pence.
func round(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}
