// Package domain holds primitives shared across modules: typed identifiers,
// registration marks, the acting principal and the clock.
//
// Identifiers are human-legible strings rather than raw UUIDs because they are
// printed on certificates and quoted by customers on the phone. Parsing happens
// at trust boundaries; inside the core the typed values are assumed valid.
package domain

import (
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/google/uuid"

	dErrors "swiftpolicy/pkg/domain-errors"
)

const maxIDLength = 64

// PolicyID identifies a policy, e.g. SP-CAR-12M-3FA9C01B.
type PolicyID string

// SubmissionID identifies a MID queue entry, e.g. MID-7C21A0FF.
type SubmissionID string

// DocumentID identifies an issued certificate, e.g. CERT-0B9D44E1.
type DocumentID string

// CustomerID references a policyholder owned by the identity collaborator.
type CustomerID string

// AuditEventID identifies an audit record, e.g. AUD-12AB34CD.
type AuditEventID string

var (
	policyIDPattern     = regexp.MustCompile(`^SP-(CAR|VAN|MCY)-(1M|12M)-[0-9A-F]{8}$`)
	submissionIDPattern = regexp.MustCompile(`^MID-[0-9A-F]{8}$`)
	documentIDPattern   = regexp.MustCompile(`^CERT-[0-9A-F]{8}$`)
	customerIDPattern   = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)
)

// suffix returns eight upper-case hex characters of fresh entropy.
func suffix() string {
	u := uuid.New()
	return strings.ToUpper(hex.EncodeToString(u[:4]))
}

// NewPolicyID builds a policy id from the vehicle class code (CAR, VAN, MCY)
// and the term code (1M, 12M).
func NewPolicyID(classCode, termCode string) PolicyID {
	return PolicyID("SP-" + classCode + "-" + termCode + "-" + suffix())
}

func NewSubmissionID() SubmissionID { return SubmissionID("MID-" + suffix()) }

func NewDocumentID() DocumentID { return DocumentID("CERT-" + suffix()) }

func NewAuditEventID() AuditEventID { return AuditEventID("AUD-" + suffix()) }

func (id PolicyID) String() string     { return string(id) }
func (id SubmissionID) String() string { return string(id) }
func (id DocumentID) String() string   { return string(id) }
func (id CustomerID) String() string   { return string(id) }
func (id AuditEventID) String() string { return string(id) }

func (id PolicyID) IsNil() bool     { return id == "" }
func (id SubmissionID) IsNil() bool { return id == "" }
func (id CustomerID) IsNil() bool   { return id == "" }

// ParsePolicyID validates the policy id format.
func ParsePolicyID(s string) (PolicyID, error) {
	if err := checkRaw(s, "policy id"); err != nil {
		return "", err
	}
	if !policyIDPattern.MatchString(s) {
		return "", dErrors.New(dErrors.CodeValidation, "invalid policy id format")
	}
	return PolicyID(s), nil
}

// ParseSubmissionID validates the submission id format.
func ParseSubmissionID(s string) (SubmissionID, error) {
	if err := checkRaw(s, "submission id"); err != nil {
		return "", err
	}
	if !submissionIDPattern.MatchString(s) {
		return "", dErrors.New(dErrors.CodeValidation, "invalid submission id format")
	}
	return SubmissionID(s), nil
}

// ParseDocumentID validates the certificate document id format.
func ParseDocumentID(s string) (DocumentID, error) {
	if err := checkRaw(s, "document id"); err != nil {
		return "", err
	}
	if !documentIDPattern.MatchString(s) {
		return "", dErrors.New(dErrors.CodeValidation, "invalid document id format")
	}
	return DocumentID(s), nil
}

// ParseCustomerID accepts opaque identifiers issued by the identity provider.
func ParseCustomerID(s string) (CustomerID, error) {
	if err := checkRaw(s, "customer id"); err != nil {
		return "", err
	}
	if !customerIDPattern.MatchString(s) {
		return "", dErrors.New(dErrors.CodeValidation, "invalid customer id format")
	}
	return CustomerID(s), nil
}

func checkRaw(s, what string) error {
	if s == "" {
		return dErrors.New(dErrors.CodeValidation, what+" is required")
	}
	if len(s) > maxIDLength {
		return dErrors.New(dErrors.CodeValidation, what+" is too long")
	}
	return nil
}
