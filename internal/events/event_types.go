package events

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventResolutionRequested EventType = "resolution_requested"
	EventEscalationRaised    EventType = "escalation_raised"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventMessagePosted       EventType = "message_posted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	ActorID   *string     `json:"actor_id,omitempty"`
	ActorRole domain.Role `json:"actor_role,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TeamTag *string `json:"team_tag,omitempty"`
	Title   string  `json:"title"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Comment   string              `json:"comment,omitempty"`
}

// ResolutionRequestedPayload signals the customer should pick
// resolved/unresolved after a staff close.
type ResolutionRequestedPayload struct {
	CustomerID string `json:"customer_id"`
	ClosedBy   string `json:"closed_by"`
}

// EscalationRaisedPayload payload.
type EscalationRaisedPayload struct {
	EscalationID     string  `json:"escalation_id"`
	SuggestedByAgent *string `json:"suggested_by_agent,omitempty"`
	Reason           string  `json:"reason"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssigneeID *string `json:"assignee_id,omitempty"`
	TeamTag    *string `json:"team_tag,omitempty"`
}

// MessagePostedPayload payload.
type MessagePostedPayload struct {
	MessageID   string  `json:"message_id"`
	AuthorID    *string `json:"author_id,omitempty"`
	System      bool    `json:"system"`
	BodyPreview string  `json:"body_preview"`
}
