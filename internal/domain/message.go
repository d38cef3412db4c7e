package domain

import "time"

// Message is one entry in a ticket's append-only conversation log. Immutable
// once created; display order is creation order as assigned by the store.
type Message struct {
	ID        string
	TicketID  string
	AuthorID  *string
	System    bool
	Body      string
	CreatedAt time.Time
}
