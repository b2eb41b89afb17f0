package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated    EventType = "ticket_created"
	EventTicketResolved   EventType = "ticket_resolved"
	EventSaleFulfilled    EventType = "sale_fulfilled"
	EventDuplicateBlocked EventType = "duplicate_blocked"
	EventDeliveryFailed   EventType = "delivery_failed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  int         `json:"ticket_id"`
	Actor     string      `json:"actor,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Product   string `json:"product"`
	Country   string `json:"country"`
	ChannelID string `json:"channel_id"`
	Prefix    string `json:"prefix"`
}

// TicketResolvedPayload payload.
type TicketResolvedPayload struct {
	Decision string `json:"decision"`
}

// SaleFulfilledPayload payload.
type SaleFulfilledPayload struct {
	Product string `json:"product"`
	Agent   string `json:"agent,omitempty"`
	Branch  string `json:"branch"`
}

// DuplicateBlockedPayload payload.
type DuplicateBlockedPayload struct {
	PriorTicketID  int `json:"prior_ticket_id"`
	ElapsedMinutes int `json:"elapsed_minutes"`
}

// DeliveryFailedPayload payload.
type DeliveryFailedPayload struct {
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}
