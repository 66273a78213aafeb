package domain

import (
	"strings"
	"time"

	dErrors "swiftpolicy/pkg/domain-errors"
	pstrings "swiftpolicy/pkg/platform/strings"
)

// VehicleClass is the rated vehicle category.
type VehicleClass string

const (
	VehicleCar        VehicleClass = "Car"
	VehicleVan        VehicleClass = "Van"
	VehicleMotorcycle VehicleClass = "Motorcycle"
)

// Code is the class segment used in policy identifiers.
func (c VehicleClass) Code() string {
	switch c {
	case VehicleVan:
		return "VAN"
	case VehicleMotorcycle:
		return "MCY"
	default:
		return "CAR"
	}
}

func (c VehicleClass) IsValid() bool {
	return c == VehicleCar || c == VehicleVan || c == VehicleMotorcycle
}

func ParseVehicleClass(s string) (VehicleClass, error) {
	switch pstrings.Key(s) {
	case "car":
		return VehicleCar, nil
	case "van":
		return VehicleVan, nil
	case "motorcycle", "motorbike", "moto", "mcy":
		return VehicleMotorcycle, nil
	}
	return "", dErrors.Newf(dErrors.CodeValidation, "unknown vehicle class %q", s)
}

// CoverType is the level of cover. Label gives the legacy display wording.
type CoverType string

const (
	CoverComprehensive       CoverType = "comprehensive"
	CoverThirdPartyFireTheft CoverType = "third_party_fire_theft"
	CoverThirdPartyOnly      CoverType = "third_party_only"
)

var coverLabels = map[CoverType]string{
	CoverComprehensive:       "Comprehensive Cover",
	CoverThirdPartyFireTheft: "Third Party, Fire & Theft",
	CoverThirdPartyOnly:      "Third Party Insurance",
}

func (c CoverType) Label() string { return coverLabels[c] }

func (c CoverType) IsValid() bool {
	_, ok := coverLabels[c]
	return ok
}

// ParseCoverType accepts canonical keys, short codes and legacy labels.
func ParseCoverType(s string) (CoverType, error) {
	raw := strings.TrimSpace(s)
	for ct, label := range coverLabels {
		if strings.EqualFold(raw, label) {
			return ct, nil
		}
	}
	switch pstrings.Key(strings.NewReplacer(",", " ", "&", " ").Replace(raw)) {
	case "comprehensive", "comp":
		return CoverComprehensive, nil
	case "third_party_fire_theft", "third_party_fire_and_theft", "tpft":
		return CoverThirdPartyFireTheft, nil
	case "third_party_only", "third_party", "tpo":
		return CoverThirdPartyOnly, nil
	}
	return "", dErrors.Newf(dErrors.CodeValidation, "unknown cover type %q", s)
}

// Duration is the policy term. It is fixed at bind.
type Duration string

const (
	DurationOneMonth     Duration = "1 Month"
	DurationTwelveMonths Duration = "12 Months"
)

// Code is the term segment used in policy identifiers.
func (d Duration) Code() string {
	if d == DurationOneMonth {
		return "1M"
	}
	return "12M"
}

func (d Duration) IsValid() bool {
	return d == DurationOneMonth || d == DurationTwelveMonths
}

// ExpiryFrom adds the term to start using calendar arithmetic.
func (d Duration) ExpiryFrom(start time.Time) time.Time {
	if d == DurationOneMonth {
		return start.AddDate(0, 1, 0)
	}
	return start.AddDate(1, 0, 0)
}

func ParseDuration(s string) (Duration, error) {
	switch pstrings.Key(s) {
	case "1_month", "1m", "one_month", "monthly_term":
		return DurationOneMonth, nil
	case "12_months", "12m", "twelve_months", "1_year", "annual":
		return DurationTwelveMonths, nil
	}
	return "", dErrors.Newf(dErrors.CodeValidation, "unknown policy duration %q", s)
}

// PaymentFrequency controls how the premium is collected.
type PaymentFrequency string

const (
	PayMonthly  PaymentFrequency = "monthly"
	PayAnnually PaymentFrequency = "annually"
)

func (f PaymentFrequency) IsValid() bool {
	return f == PayMonthly || f == PayAnnually
}

func ParsePaymentFrequency(s string) (PaymentFrequency, error) {
	switch pstrings.Key(s) {
	case "monthly", "month":
		return PayMonthly, nil
	case "annually", "annual", "yearly", "":
		return PayAnnually, nil
	}
	return "", dErrors.Newf(dErrors.CodeValidation, "unknown payment frequency %q", s)
}
