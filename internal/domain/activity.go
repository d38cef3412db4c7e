package domain

import "time"

// ActivityLogEntry is an append-only audit record. Written fire-and-forget by
// the core operations and never read back by them.
type ActivityLogEntry struct {
	ID        string
	UserID    *string
	Action    string
	Details   map[string]any
	CreatedAt time.Time
}
