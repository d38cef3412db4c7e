package domain

import "time"

// EscalationStatus tracks an escalation's review lifecycle.
type EscalationStatus string

const (
	EscalationStatusPending    EscalationStatus = "pending"
	EscalationStatusApproved   EscalationStatus = "approved"
	EscalationStatusRejected   EscalationStatus = "rejected"
	EscalationStatusSuperseded EscalationStatus = "superseded"
)

// DefaultEscalationReason is recorded when a customer marks a closed ticket
// unresolved.
const DefaultEscalationReason = "customer marked ticket unresolved after close"

// Escalation is raised when a customer rejects a resolution. At most one
// pending escalation exists per ticket; a newer one supersedes the old.
type Escalation struct {
	ID               string
	TicketID         string
	SuggestedByAgent *string
	Status           EscalationStatus
	Reason           *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
