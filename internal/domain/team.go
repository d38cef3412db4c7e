package domain

import "time"

// Team groups agents under an organization. Tag is the stable identifier
// tickets are routed by; agents gain access to tickets carrying their tag.
type Team struct {
	ID             string
	OrganizationID string
	Tag            string
	Name           string
	Description    string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
