package models

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"swiftpolicy/pkg/domain"
	dErrors "swiftpolicy/pkg/domain-errors"
)

// Policy is the aggregate root for a motor policy.
//
// Invariants:
//   - ID, OwnerID, Duration and Premium are fixed at bind
//   - Status is a stored status; Expired is only ever derived
//   - ValidatedAt is set on first entry to Validated or Active and never overwritten
//   - Nothing transitions out of Removed
type Policy struct {
	ID           domain.PolicyID     `json:"id"`
	OwnerID      domain.CustomerID   `json:"owner_id"`
	VehicleClass domain.VehicleClass `json:"vehicle_class"`
	CoverType    domain.CoverType    `json:"cover_type"`
	Duration     domain.Duration     `json:"duration"`
	Premium      decimal.Decimal     `json:"premium"`
	Status       Status              `json:"status"`
	Details      VehicleDetails      `json:"details"`
	MIDStatus    domain.MIDStatus    `json:"mid_status,omitempty"`
	Certificate  *CertificateRef     `json:"certificate,omitempty"`
	ValidatedAt  *time.Time          `json:"validated_at,omitempty"`
	Notes        string              `json:"notes,omitempty"`
	RiskFlag     bool                `json:"risk_flag"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// CertificateRef points at an issued certificate in document storage.
type CertificateRef struct {
	DocumentID domain.DocumentID `json:"document_id"`
	StorageKey string            `json:"storage_key"`
	IssuedAt   time.Time         `json:"issued_at"`
	ValidFrom  time.Time         `json:"valid_from"`
	ValidTo    time.Time         `json:"valid_to"`
}

// InitialStatus is Active for twelve-month binds and PendingValidation for
// one-month binds, which need manual underwriting.
func InitialStatus(d domain.Duration) Status {
	if d == domain.DurationTwelveMonths {
		return StatusActive
	}
	return StatusPendingValidation
}

// NewPolicy builds a freshly bound policy.
func NewPolicy(
	id domain.PolicyID,
	owner domain.CustomerID,
	class domain.VehicleClass,
	cover domain.CoverType,
	duration domain.Duration,
	premium decimal.Decimal,
	details VehicleDetails,
	now time.Time,
) (*Policy, error) {
	if id.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "policy id is required")
	}
	if owner.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "policy owner is required")
	}
	if !class.IsValid() || !cover.IsValid() || !duration.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "vehicle class, cover and duration must be set")
	}
	if premium.IsNegative() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "premium cannot be negative")
	}
	if err := details.Validate(); err != nil {
		return nil, err
	}

	p := &Policy{
		ID:           id,
		OwnerID:      owner,
		VehicleClass: class,
		CoverType:    cover,
		Duration:     duration,
		Premium:      premium,
		Status:       InitialStatus(duration),
		Details:      details,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if p.Status == StatusActive {
		p.markValidated(now)
	}
	return p, nil
}

// CanApply checks a transition against the stored status.
func (p *Policy) CanApply(t Transition) error {
	if !t.IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown transition %q", t)
	}
	if p.Status == StatusRemoved {
		return dErrors.New(dErrors.CodeInvalidStateTransition, "policy has been removed")
	}
	if !t.Allowed(p.Status) {
		return dErrors.Newf(dErrors.CodeInvalidStateTransition, "cannot %s a policy in status %s", t, p.Status)
	}
	return nil
}

// ApplyTransition moves the policy to the transition target.
// Call CanApply first.
func (p *Policy) ApplyTransition(t Transition, now time.Time) {
	p.Status = t.Target()
	if p.Status == StatusActive || p.Status == StatusValidated {
		p.markValidated(now)
	}
	p.UpdatedAt = now
}

// Transition validates and applies in one call.
func (p *Policy) Transition(t Transition, now time.Time) error {
	if err := p.CanApply(t); err != nil {
		return err
	}
	p.ApplyTransition(t, now)
	return nil
}

func (p *Policy) markValidated(now time.Time) {
	if p.ValidatedAt == nil {
		at := now
		p.ValidatedAt = &at
	}
}

// CoverageStart is the anchor for expiry: ValidatedAt, else the declared start date.
func (p *Policy) CoverageStart() time.Time {
	if p.ValidatedAt != nil {
		return *p.ValidatedAt
	}
	return p.Details.StartDate
}

func (p *Policy) Expiry() time.Time {
	return p.Duration.ExpiryFrom(p.CoverageStart())
}

// DerivedStatus is the read-time status. An Active policy past its expiry
// reads as Expired; the stored status is not changed.
func (p *Policy) DerivedStatus(now time.Time) Status {
	if p.Status == StatusActive && now.After(p.Expiry()) {
		return StatusExpired
	}
	return p.Status
}

// IsUsable gates certificate download, registry checks and claims.
func (p *Policy) IsUsable(now time.Time) bool {
	return p.DerivedStatus(now) == StatusActive
}

// ApplyDetailsUpdate applies an administrative edit and returns the names of
// the fields that changed.
func (p *Policy) ApplyDetailsUpdate(u DetailsUpdate, now time.Time) ([]string, error) {
	if p.Status == StatusRemoved {
		return nil, dErrors.New(dErrors.CodeInvalidStateTransition, "policy has been removed")
	}
	next := p.Details.clone()
	var changed []string
	set := func(name string, apply func()) {
		apply()
		changed = append(changed, name)
	}
	if u.VIN != nil {
		set("vin", func() { next.VIN = clonePtr(u.VIN) })
	}
	if u.Make != nil {
		set("make", func() { next.Make = *u.Make })
	}
	if u.Model != nil {
		set("model", func() { next.Model = *u.Model })
	}
	if u.Year != nil {
		set("year", func() { next.Year = clonePtr(u.Year) })
	}
	if u.EngineSizeCC != nil {
		set("engine_size_cc", func() { next.EngineSizeCC = clonePtr(u.EngineSizeCC) })
	}
	if u.FuelType != nil {
		set("fuel_type", func() { next.FuelType = clonePtr(u.FuelType) })
	}
	if u.Colour != nil {
		set("colour", func() { next.Colour = clonePtr(u.Colour) })
	}
	if u.Holder != nil {
		set("holder", func() { next.Holder = *u.Holder })
	}
	if u.Address != nil {
		set("address", func() { next.Address = *u.Address })
	}
	if u.Excess != nil {
		set("excess", func() { next.Excess = clonePtr(u.Excess) })
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}
	p.Details = next
	if u.Notes != nil {
		p.Notes = *u.Notes
		changed = append(changed, "notes")
	}
	if u.RiskFlag != nil {
		p.RiskFlag = *u.RiskFlag
		changed = append(changed, "risk_flag")
	}
	slices.Sort(changed)
	p.UpdatedAt = now
	return changed, nil
}

// Clone returns a deep copy so stores never share mutable state with callers.
func (p *Policy) Clone() *Policy {
	if p == nil {
		return nil
	}
	out := *p
	out.Details = p.Details.clone()
	out.ValidatedAt = clonePtr(p.ValidatedAt)
	out.Certificate = clonePtr(p.Certificate)
	return &out
}

// View is a policy as presented to readers, with derived fields resolved.
type View struct {
	*Policy
	DerivedStatus Status    `json:"derived_status"`
	ExpiresAt     time.Time `json:"expires_at"`
	Usable        bool      `json:"usable"`
}

func NewView(p *Policy, now time.Time) View {
	return View{
		Policy:        p,
		DerivedStatus: p.DerivedStatus(now),
		ExpiresAt:     p.Expiry(),
		Usable:        p.IsUsable(now),
	}
}

// ListFilter narrows administrative listings. Status matches the derived status.
type ListFilter struct {
	OwnerID   domain.CustomerID
	Status    Status
	MIDStatus domain.MIDStatus
}

func (f ListFilter) Matches(v View) bool {
	if f.OwnerID != "" && v.OwnerID != f.OwnerID {
		return false
	}
	if f.Status != "" && v.DerivedStatus != f.Status {
		return false
	}
	if f.MIDStatus != "" && v.MIDStatus != f.MIDStatus {
		return false
	}
	return true
}
