package domain

import "time"

// Role enumerates the access hierarchy. Every account carries exactly one.
type Role string

const (
	RoleCustomer         Role = "customer"
	RoleAgent            Role = "agent"
	RoleSupervisoryAdmin Role = "supervisory_admin"
	RoleSuperAdmin       Role = "super_admin"
)

// IsStaff reports whether the role belongs to support staff.
func (r Role) IsStaff() bool {
	return r == RoleAgent || r == RoleSupervisoryAdmin || r == RoleSuperAdmin
}

// IsAdmin reports whether the role carries management capability.
func (r Role) IsAdmin() bool {
	return r == RoleSupervisoryAdmin || r == RoleSuperAdmin
}

// UserStatus represents lifecycle states for an account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

// User is the domain model for every account: customers who file tickets and
// the staff who work them.
type User struct {
	ID             string
	OrganizationID *string
	TeamTag        *string
	Name           string
	Email          string
	PasswordHash   string
	Role           Role
	EmailVerified  bool
	Status         UserStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Actor is the identity slice the core operations work with. Handlers build
// it from the authenticated user; the policy evaluator never looks anything
// up itself.
type Actor struct {
	ID      string
	Role    Role
	TeamTag *string
}

// ActorFor derives the acting identity from an account.
func ActorFor(u *User) Actor {
	return Actor{ID: u.ID, Role: u.Role, TeamTag: u.TeamTag}
}
