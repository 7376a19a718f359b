// Package audit emits structured audit records for claim lifecycle actions.
package audit

import "time"

// EventCategory classifies audit events by their primary purpose so sinks
// can apply different retention.
type EventCategory string

const (
	// CategoryCompliance covers changes a regulator may ask about: status
	// transitions and fraud resolutions.
	CategoryCompliance EventCategory = "compliance"
	// CategorySecurity covers denied actions.
	CategorySecurity EventCategory = "security"
	// CategoryOperations covers routine activity.
	CategoryOperations EventCategory = "operations"
)

type AuditEvent string

const (
	EventClaimCreated       AuditEvent = "claim_created"
	EventClaimTransitioned  AuditEvent = "claim_transitioned"
	EventTransitionRejected AuditEvent = "claim_transition_rejected"
	EventFraudFlagRaised    AuditEvent = "fraud_flag_raised"
	EventFraudFlagResolved  AuditEvent = "fraud_flag_resolved"
	EventNotificationFailed AuditEvent = "notification_failed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventClaimTransitioned: CategoryCompliance,
	EventFraudFlagResolved: CategoryCompliance,
	EventFraudFlagRaised:   CategoryCompliance,

	EventTransitionRejected: CategorySecurity,

	EventClaimCreated:       CategoryOperations,
	EventNotificationFailed: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Event is the sink-facing record. Subject is the claim or flag the action
// touched.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	Action    AuditEvent
	Subject   string
	ActorID   string
	RequestID string
	Decision  string
	Reason    string
}
