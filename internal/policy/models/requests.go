package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"swiftpolicy/internal/premium"
	"swiftpolicy/pkg/domain"
)

// QuoteRequest carries the rating inputs. Add-ons are free-form labels.
type QuoteRequest struct {
	VehicleClass     domain.VehicleClass
	VehicleValue     string
	CoverType        domain.CoverType
	NCBYears         int
	Addons           []string
	Duration         domain.Duration
	PaymentFrequency domain.PaymentFrequency
}

// ToPremiumRequest resolves add-on labels into a rating request.
func (r QuoteRequest) ToPremiumRequest() (premium.Request, error) {
	addons, err := premium.ParseAddons(r.Addons)
	if err != nil {
		return premium.Request{}, err
	}
	freq := r.PaymentFrequency
	if freq == "" {
		freq = domain.PayAnnually
	}
	return premium.Request{
		VehicleClass:     r.VehicleClass,
		VehicleValue:     r.VehicleValue,
		CoverType:        r.CoverType,
		NCBYears:         r.NCBYears,
		Addons:           addons,
		Duration:         r.Duration,
		PaymentFrequency: freq,
	}, nil
}

// VehicleSnapshot is the already-resolved vehicle description supplied at bind.
type VehicleSnapshot struct {
	VRM          string
	VIN          *string
	Make         string
	Model        string
	Year         *int
	EngineSizeCC *int
	FuelType     *string
	Colour       *string
}

// BindRequest turns a quote into a policy.
type BindRequest struct {
	QuoteRequest
	OwnerID   domain.CustomerID
	Vehicle   VehicleSnapshot
	Holder    HolderSnapshot
	Address   AddressSnapshot
	Excess    *decimal.Decimal
	StartDate time.Time
	Notes     string
}

// Normalize trims free text in place.
func (r *BindRequest) Normalize() {
	r.Vehicle.Make = strings.TrimSpace(r.Vehicle.Make)
	r.Vehicle.Model = strings.TrimSpace(r.Vehicle.Model)
	r.Holder.FirstName = strings.TrimSpace(r.Holder.FirstName)
	r.Holder.LastName = strings.TrimSpace(r.Holder.LastName)
	r.Holder.Email = strings.ToLower(strings.TrimSpace(r.Holder.Email))
	r.Address.Postcode = strings.ToUpper(strings.TrimSpace(r.Address.Postcode))
	r.Notes = strings.TrimSpace(r.Notes)
}

// Details builds the versioned snapshot for a priced bind request.
func (r BindRequest) Details(breakdown premium.Breakdown, addons []premium.Addon, now time.Time) (VehicleDetails, error) {
	vrm, err := domain.ParseVRM(r.Vehicle.VRM)
	if err != nil {
		return VehicleDetails{}, err
	}
	value, err := premium.ParseVehicleValue(r.VehicleValue)
	if err != nil {
		return VehicleDetails{}, err
	}
	start := r.StartDate
	if start.IsZero() {
		start = now
	}
	freq := r.PaymentFrequency
	if freq == "" {
		freq = domain.PayAnnually
	}
	return VehicleDetails{
		SchemaVersion:    DetailsSchemaVersion,
		VRM:              vrm,
		VIN:              r.Vehicle.VIN,
		Make:             r.Vehicle.Make,
		Model:            r.Vehicle.Model,
		Year:             r.Vehicle.Year,
		EngineSizeCC:     r.Vehicle.EngineSizeCC,
		FuelType:         r.Vehicle.FuelType,
		Colour:           r.Vehicle.Colour,
		Value:            value,
		Holder:           r.Holder,
		Address:          r.Address,
		NCBYears:         r.NCBYears,
		Excess:           r.Excess,
		Addons:           addons,
		StartDate:        start,
		ExpiryDate:       r.Duration.ExpiryFrom(start),
		PaymentFrequency: freq,
		Premium:          breakdown,
	}, nil
}
