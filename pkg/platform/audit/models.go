package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose so sinks
// can route and retain them differently.
type EventCategory string

const (
	// CategoryCompliance covers changes to client records.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers abuse signals such as rate limit rejections.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        string        `json:"id"`
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	// Subject is the entity acted upon, usually a client id.
	Subject string `json:"subject"`
	Action  string `json:"action"`
	// ActorID is the principal that performed the action ("system" when anonymous).
	ActorID   string `json:"actor_id"`
	RequestID string `json:"request_id,omitempty"`
	ClientIP  string `json:"client_ip,omitempty"`
	Device    string `json:"device,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

type AuditEvent string

const (
	EventClientCreated     AuditEvent = "client_created"
	EventClientUpdated     AuditEvent = "client_updated"
	EventClientDeactivated AuditEvent = "client_deactivated"

	EventRateLimitExceeded AuditEvent = "rate_limit_exceeded"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventClientCreated:     CategoryCompliance,
	EventClientUpdated:     CategoryCompliance,
	EventClientDeactivated: CategoryCompliance,
	EventRateLimitExceeded: CategorySecurity,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events. Append must be safe for concurrent use.
type Store interface {
	Append(ctx context.Context, event Event) error
}
