package audit

import (
	"context"
	"errors"
	"time"

	"swiftpolicy/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose so stores
// can route or retain them differently.
type EventCategory string

const (
	// CategoryCompliance covers events with regulatory significance: binds,
	// lifecycle transitions, purges and certificate issuance.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers refused or forbidden operations.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers registry synchronization traffic.
	CategoryOperations EventCategory = "operations"
)

// Event is one append-only audit record. It is transport-agnostic so stores
// and sinks can fan out.
type Event struct {
	ID        domain.AuditEventID
	Category  EventCategory
	Timestamp time.Time
	ActorID   string
	Action    string
	TargetID  string
	Details   string
	Reason    string
}

type AuditEvent string

const (
	// Policy lifecycle
	EventPolicyBound              AuditEvent = "policy_bound"
	EventPolicyValidated          AuditEvent = "policy_validated"
	EventPolicyApproved           AuditEvent = "policy_approved"
	EventPolicyActivated          AuditEvent = "policy_activated"
	EventPolicyFrozen             AuditEvent = "policy_frozen"
	EventPolicyReactivated        AuditEvent = "policy_reactivated"
	EventPolicyBlocked            AuditEvent = "policy_blocked"
	EventPolicyRemoved            AuditEvent = "policy_removed"
	EventPolicyPurged             AuditEvent = "policy_purged"
	EventPolicyDetailsUpdated     AuditEvent = "policy_details_updated"
	EventPolicyTransitionRejected AuditEvent = "policy_transition_rejected"

	// Registry submissions
	EventSubmissionEnqueued  AuditEvent = "submission_enqueued"
	EventSubmissionRequeued  AuditEvent = "submission_requeued"
	EventSubmissionSucceeded AuditEvent = "submission_succeeded"
	EventSubmissionFailed    AuditEvent = "submission_failed"
	EventSubmissionRetried   AuditEvent = "submission_retried"

	// Documents
	EventCertificateIssued AuditEvent = "certificate_issued"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventPolicyBound:          CategoryCompliance,
	EventPolicyValidated:      CategoryCompliance,
	EventPolicyApproved:       CategoryCompliance,
	EventPolicyActivated:      CategoryCompliance,
	EventPolicyFrozen:         CategoryCompliance,
	EventPolicyReactivated:    CategoryCompliance,
	EventPolicyBlocked:        CategoryCompliance,
	EventPolicyRemoved:        CategoryCompliance,
	EventPolicyPurged:         CategoryCompliance,
	EventPolicyDetailsUpdated: CategoryCompliance,
	EventCertificateIssued:    CategoryCompliance,

	EventPolicyTransitionRejected: CategorySecurity,

	EventSubmissionEnqueued:  CategoryOperations,
	EventSubmissionRequeued:  CategoryOperations,
	EventSubmissionSucceeded: CategoryOperations,
	EventSubmissionFailed:    CategoryOperations,
	EventSubmissionRetried:   CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events. Implementations must be safe for concurrent use.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Normalize fills the id, timestamp and category when the emitter left them empty.
func Normalize(event Event, now time.Time) Event {
	if event.ID == "" {
		event.ID = domain.NewAuditEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = now
	}
	if event.Category == "" {
		event.Category = AuditEvent(event.Action).Category()
	}
	return event
}

// Tee appends each event to every store and joins their errors.
type Tee []Store

func (t Tee) Append(ctx context.Context, event Event) error {
	var errs []error
	for _, s := range t {
		if err := s.Append(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
