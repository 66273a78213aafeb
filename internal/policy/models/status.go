package models

// Status is the stored lifecycle status of a policy. StatusExpired is never
// stored; it only appears as a derived status.
type Status string

const (
	StatusPendingValidation Status = "Pending Validation"
	StatusValidated         Status = "Validated"
	StatusActive            Status = "Active"
	StatusFrozen            Status = "Frozen"
	StatusBlocked           Status = "Blocked"
	StatusExpired           Status = "Expired"
	StatusRemoved           Status = "Removed"
)

func (s Status) IsStored() bool {
	switch s {
	case StatusPendingValidation, StatusValidated, StatusActive, StatusFrozen, StatusBlocked, StatusRemoved:
		return true
	}
	return false
}

func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	if st.IsStored() || st == StatusExpired {
		return st, true
	}
	return "", false
}

func (s Status) String() string { return string(s) }

// Transition is an administrative lifecycle trigger.
type Transition string

const (
	TransitionValidate   Transition = "validate"
	TransitionApprove    Transition = "approve"
	TransitionActivate   Transition = "activate"
	TransitionFreeze     Transition = "freeze"
	TransitionReactivate Transition = "reactivate"
	TransitionBlock      Transition = "block"
	TransitionRemove     Transition = "remove"
)

type transitionRule struct {
	from []Status
	to   Status
}

var transitionRules = map[Transition]transitionRule{
	TransitionValidate:   {from: []Status{StatusPendingValidation}, to: StatusActive},
	TransitionApprove:    {from: []Status{StatusPendingValidation}, to: StatusValidated},
	TransitionActivate:   {from: []Status{StatusValidated}, to: StatusActive},
	TransitionFreeze:     {from: []Status{StatusActive}, to: StatusFrozen},
	TransitionReactivate: {from: []Status{StatusActive, StatusFrozen, StatusBlocked}, to: StatusActive},
	TransitionBlock:      {from: []Status{StatusPendingValidation, StatusValidated, StatusActive, StatusFrozen}, to: StatusBlocked},
	TransitionRemove:     {from: []Status{StatusPendingValidation, StatusValidated, StatusActive, StatusFrozen, StatusBlocked}, to: StatusRemoved},
}

// Target returns the status a transition leads to.
func (t Transition) Target() Status { return transitionRules[t].to }

func (t Transition) IsValid() bool {
	_, ok := transitionRules[t]
	return ok
}

// Allowed reports whether the transition may fire from the stored status.
// Nothing leaves StatusRemoved.
func (t Transition) Allowed(from Status) bool {
	for _, s := range transitionRules[t].from {
		if s == from {
			return true
		}
	}
	return false
}
