package domain

import "time"

// PresenceMember is one connected participant in a ticket's live session.
// Ephemeral: exists only while the subscription is alive, never persisted.
type PresenceMember struct {
	UserID   string
	Name     string
	Role     Role
	JoinedAt time.Time
}
