package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"swiftpolicy/internal/premium"
	"swiftpolicy/pkg/domain"
	dErrors "swiftpolicy/pkg/domain-errors"
)

// DetailsSchemaVersion is bumped whenever VehicleDetails gains or changes fields.
const DetailsSchemaVersion = 1

// VehicleDetails is the versioned snapshot captured at bind. It is immutable
// except through audited administrative edits.
type VehicleDetails struct {
	SchemaVersion int `json:"schema_version"`

	VRM          domain.VRM      `json:"vrm"`
	VIN          *string         `json:"vin,omitempty"`
	Make         string          `json:"make"`
	Model        string          `json:"model"`
	Year         *int            `json:"year,omitempty"`
	EngineSizeCC *int            `json:"engine_size_cc,omitempty"`
	FuelType     *string         `json:"fuel_type,omitempty"`
	Colour       *string         `json:"colour,omitempty"`
	Value        decimal.Decimal `json:"declared_value"`

	Holder  HolderSnapshot  `json:"holder"`
	Address AddressSnapshot `json:"address"`

	NCBYears         int                     `json:"ncb_years"`
	Excess           *decimal.Decimal        `json:"excess,omitempty"`
	Addons           []premium.Addon         `json:"addons,omitempty"`
	StartDate        time.Time               `json:"start_date"`
	ExpiryDate       time.Time               `json:"expiry_date"`
	PaymentFrequency domain.PaymentFrequency `json:"payment_frequency"`
	Premium          premium.Breakdown       `json:"premium_breakdown"`
}

type HolderSnapshot struct {
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	DateOfBirth   *time.Time `json:"date_of_birth,omitempty"`
	Email         string     `json:"email"`
	Phone         *string    `json:"phone,omitempty"`
	LicenceNumber *string    `json:"licence_number,omitempty"`
}

func (h HolderSnapshot) FullName() string {
	return strings.TrimSpace(h.FirstName + " " + h.LastName)
}

type AddressSnapshot struct {
	Line1    string  `json:"line1"`
	Line2    *string `json:"line2,omitempty"`
	City     string  `json:"city"`
	Postcode string  `json:"postcode"`
}

// Validate checks the snapshot invariants.
func (d VehicleDetails) Validate() error {
	if d.SchemaVersion != DetailsSchemaVersion {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "unsupported details schema version %d", d.SchemaVersion)
	}
	if d.VRM == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "vehicle registration is required")
	}
	if strings.TrimSpace(d.Make) == "" || strings.TrimSpace(d.Model) == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "vehicle make and model are required")
	}
	if d.Year != nil && (*d.Year < 1900 || *d.Year > 2100) {
		return dErrors.New(dErrors.CodeInvariantViolation, "vehicle year is out of range")
	}
	if d.Value.IsNegative() {
		return dErrors.New(dErrors.CodeInvariantViolation, "declared value cannot be negative")
	}
	if d.Excess != nil && d.Excess.IsNegative() {
		return dErrors.New(dErrors.CodeInvariantViolation, "excess cannot be negative")
	}
	if strings.TrimSpace(d.Holder.LastName) == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "policyholder surname is required")
	}
	if d.NCBYears < 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "no claims bonus years cannot be negative")
	}
	if d.StartDate.IsZero() {
		return dErrors.New(dErrors.CodeInvariantViolation, "start date is required")
	}
	return nil
}

func (d VehicleDetails) clone() VehicleDetails {
	out := d
	out.VIN = clonePtr(d.VIN)
	out.Year = clonePtr(d.Year)
	out.EngineSizeCC = clonePtr(d.EngineSizeCC)
	out.FuelType = clonePtr(d.FuelType)
	out.Colour = clonePtr(d.Colour)
	out.Excess = clonePtr(d.Excess)
	out.Holder.DateOfBirth = clonePtr(d.Holder.DateOfBirth)
	out.Holder.Phone = clonePtr(d.Holder.Phone)
	out.Holder.LicenceNumber = clonePtr(d.Holder.LicenceNumber)
	out.Address.Line2 = clonePtr(d.Address.Line2)
	if d.Addons != nil {
		out.Addons = append([]premium.Addon(nil), d.Addons...)
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// DetailsUpdate is an administrative edit. Nil fields are left unchanged.
// Registration, term and premium are not editable.
type DetailsUpdate struct {
	VIN          *string
	Make         *string
	Model        *string
	Year         *int
	EngineSizeCC *int
	FuelType     *string
	Colour       *string
	Holder       *HolderSnapshot
	Address      *AddressSnapshot
	Excess       *decimal.Decimal
	Notes        *string
	RiskFlag     *bool
}

// IsEmpty reports whether the update changes nothing.
func (u DetailsUpdate) IsEmpty() bool {
	return u.VIN == nil && u.Make == nil && u.Model == nil && u.Year == nil &&
		u.EngineSizeCC == nil && u.FuelType == nil && u.Colour == nil &&
		u.Holder == nil && u.Address == nil && u.Excess == nil &&
		u.Notes == nil && u.RiskFlag == nil
}
