package domain

import "time"

// Role is the coarse permission class of an actor.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
	RoleSystem   Role = "system"
)

// Actor is the principal performing an operation. It is always passed
// explicitly; the core never reads a "current user" from ambient state.
type Actor struct {
	ID   string
	Role Role
}

// SystemActor is used by background processing such as the submission worker.
var SystemActor = Actor{ID: "SYSTEM", Role: RoleSystem}

func (a Actor) IsAdmin() bool  { return a.Role == RoleAdmin }
func (a Actor) IsSystem() bool { return a.Role == RoleSystem }

// CanActFor reports whether the actor may act on resources owned by owner.
func (a Actor) CanActFor(owner CustomerID) bool {
	if a.IsAdmin() || a.IsSystem() {
		return true
	}
	return a.Role == RoleCustomer && a.ID != "" && a.ID == string(owner)
}

// Clock supplies the current time. Services take one so time-dependent
// derivations such as expiry are deterministic under test.
type Clock func() time.Time

// SystemClock is the wall clock in UTC.
func SystemClock() time.Time { return time.Now().UTC() }

// FixedClock returns a clock frozen at t.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}
