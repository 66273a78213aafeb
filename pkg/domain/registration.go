package domain

import (
	"strings"
	"unicode"

	dErrors "swiftpolicy/pkg/domain-errors"
)

// VRM is a vehicle registration mark in normalized form: upper case with
// spaces and hyphens removed ("ab12 cde" -> "AB12CDE").
type VRM string

// NormalizeVRM canonicalises a registration mark without validating it.
func NormalizeVRM(raw string) VRM {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if unicode.IsSpace(r) || r == '-' {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return VRM(b.String())
}

// ParseVRM normalizes and validates a registration mark.
func ParseVRM(raw string) (VRM, error) {
	vrm := NormalizeVRM(raw)
	if len(vrm) < 2 || len(vrm) > 8 {
		return "", dErrors.New(dErrors.CodeValidation, "registration mark must be 2 to 8 characters")
	}
	for _, r := range vrm {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return "", dErrors.New(dErrors.CodeValidation, "registration mark must be alphanumeric")
		}
	}
	return vrm, nil
}

func (v VRM) String() string { return string(v) }

// MIDStatus is the registry synchronization state mirrored on a policy and
// held by each submission.
type MIDStatus string

const (
	MIDStatusNone     MIDStatus = ""
	MIDStatusPending  MIDStatus = "Pending"
	MIDStatusRetrying MIDStatus = "Retrying"
	MIDStatusSuccess  MIDStatus = "Success"
	MIDStatusFailed   MIDStatus = "Failed"
)

// IsLive reports whether the status counts as an outstanding or successful
// registration, i.e. one that must not be queued again.
func (s MIDStatus) IsLive() bool {
	return s == MIDStatusPending || s == MIDStatusRetrying || s == MIDStatusSuccess
}

func (s MIDStatus) String() string { return string(s) }

// Registration is the answer to a registry query by VRM.
type Registration struct {
	Found   bool
	Message string
}
