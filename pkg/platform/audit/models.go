package audit

import (
	"context"
	"time"

	id "clearcheck/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose. This
// enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with regulatory significance:
	// order submissions, draft fallbacks, server-side status overrides.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers events useful for debugging and operational
	// visibility: configuration toggles, catalog refreshes.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category   EventCategory
	Timestamp  time.Time
	OperatorID id.OperatorID
	Action     string
	ServiceID  id.ServiceID
	LocationID id.LocationID
	OrderID    string
	Detail     string
	RequestID  string
}

type AuditEvent string

const (
	// Configuration events
	EventMappingToggled      AuditEvent = "mapping_toggled"
	EventAvailabilityToggled AuditEvent = "availability_toggled"

	// Order events
	EventOrderSubmitted        AuditEvent = "order_submitted"
	EventOrderDraftFallback    AuditEvent = "order_draft_fallback"
	EventOrderStatusOverridden AuditEvent = "order_status_overridden"
)

// Store persists audit events. Implementations: in-memory for tests and
// local running, kafka sink for production fan-out.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Lister is implemented by stores that support reading events back.
// Produce-only sinks (kafka) do not.
type Lister interface {
	ListByOperator(ctx context.Context, operatorID id.OperatorID) ([]Event, error)
}
