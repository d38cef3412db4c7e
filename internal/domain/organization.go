package domain

import "time"

// Organization represents a tenant.
type Organization struct {
	ID        string
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
