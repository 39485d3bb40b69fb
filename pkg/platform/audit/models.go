package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose so sinks
// can apply different retention.
type EventCategory string

const (
	// CategoryCompliance covers record creation, deletion and status changes
	// that an administrator may later need to account for.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers routine edits.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category   EventCategory
	Timestamp  time.Time
	Action     string
	EntityType string
	EntityID   string
	Email      string
	// Decision records the outcome of a status change (e.g. "approved").
	Decision  string
	Reason    string
	RequestID string
	// ActorID is the caller identity asserted upstream, empty for self-service.
	ActorID string
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

type AuditEvent string

const (
	EventCooperativeCreated       AuditEvent = "cooperative_created"
	EventCooperativeUpdated       AuditEvent = "cooperative_updated"
	EventCooperativeActivated     AuditEvent = "cooperative_activated"
	EventCooperativeStatusChanged AuditEvent = "cooperative_status_changed"
	EventCooperativeDeleted       AuditEvent = "cooperative_deleted"

	EventMemberCreated  AuditEvent = "member_created"
	EventMemberUpdated  AuditEvent = "member_updated"
	EventMemberDeleted  AuditEvent = "member_deleted"
	EventMemberPromoted AuditEvent = "member_promoted"

	EventRegistrationSubmitted     AuditEvent = "registration_submitted"
	EventRegistrationStatusChanged AuditEvent = "registration_status_changed"
	EventRegistrationDeleted       AuditEvent = "registration_deleted"

	EventEvidenceReleased AuditEvent = "evidence_released"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventCooperativeCreated:        CategoryCompliance,
	EventCooperativeActivated:      CategoryCompliance,
	EventCooperativeStatusChanged:  CategoryCompliance,
	EventCooperativeDeleted:        CategoryCompliance,
	EventMemberCreated:             CategoryCompliance,
	EventMemberDeleted:             CategoryCompliance,
	EventMemberPromoted:            CategoryCompliance,
	EventRegistrationSubmitted:     CategoryCompliance,
	EventRegistrationStatusChanged: CategoryCompliance,
	EventRegistrationDeleted:       CategoryCompliance,

	EventCooperativeUpdated: CategoryOperations,
	EventMemberUpdated:      CategoryOperations,
	EventEvidenceReleased:   CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}
