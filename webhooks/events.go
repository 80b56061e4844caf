package webhooks

import "encoding/json"

// EventType identifies a webhook event. The registry is keyed by this type
// so coverage of the known events is visible in one place.
type EventType string

const (
	EventCompanyUpdated        EventType = "company.updated"
	EventCompanyDeleted        EventType = "company.deleted"
	EventSubscriptionCreated   EventType = "subscription.created"
	EventSubscriptionUpdated   EventType = "subscription.updated"
	EventSubscriptionCancelled EventType = "subscription.cancelled"
	EventPaymentSucceeded      EventType = "payment.succeeded"
	EventPaymentFailed         EventType = "payment.failed"
)

// KnownEventTypes lists every event the dispatcher has a named handler for.
func KnownEventTypes() []EventType {
	return []EventType{
		EventCompanyUpdated,
		EventCompanyDeleted,
		EventSubscriptionCreated,
		EventSubscriptionUpdated,
		EventSubscriptionCancelled,
		EventPaymentSucceeded,
		EventPaymentFailed,
	}
}

// Event is a decoded webhook delivery. Raw preserves the full body for
// handlers and for logging.
type Event struct {
	Type EventType
	Raw  json.RawMessage
}
