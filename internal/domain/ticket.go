package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusClosed     TicketStatus = "closed"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusUnresolved TicketStatus = "unresolved"
)

// IsKnown reports whether the value is a member of the status set.
func (s TicketStatus) IsKnown() bool {
	switch s {
	case TicketStatusOpen, TicketStatusClosed, TicketStatusResolved, TicketStatusUnresolved:
		return true
	}
	return false
}

// Ticket is the aggregate for support requests.
//
// Version is an optimistic-concurrency counter: status transitions present
// the version they observed and stale writes are rejected. LastClosedBy holds
// the staff member who most recently moved the ticket to closed; the
// escalation raised by an unresolved resolution choice is attributed to them.
type Ticket struct {
	ID           string
	CustomerID   string
	TeamTag      *string
	AssigneeID   *string
	Title        string
	Description  string
	Status       TicketStatus
	LastClosedBy *string
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
