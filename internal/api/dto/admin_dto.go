package dto

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// CreateOrganizationRequest payload.
type CreateOrganizationRequest struct {
	Name string `json:"name"`
}

// CreateTeamRequest payload.
type CreateTeamRequest struct {
	OrganizationID string `json:"organization_id"`
	Tag            string `json:"tag"`
	Name           string `json:"name"`
	Description    string `json:"description"`
}

// SetRoleRequest payload.
type SetRoleRequest struct {
	Role    domain.Role `json:"role"`
	TeamTag *string     `json:"team_tag"`
}

// OrganizationResponse public representation.
type OrganizationResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// TeamResponse public representation.
type TeamResponse struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Tag            string    `json:"tag"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

// EscalationResponse public representation.
type EscalationResponse struct {
	ID               string                  `json:"id"`
	TicketID         string                  `json:"ticket_id"`
	SuggestedByAgent *string                 `json:"suggested_by_agent,omitempty"`
	Status           domain.EscalationStatus `json:"status"`
	Reason           *string                 `json:"reason,omitempty"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
}

// OrganizationResponseFrom maps a domain organization.
func OrganizationResponseFrom(o *domain.Organization) OrganizationResponse {
	return OrganizationResponse{
		ID:        o.ID,
		Name:      o.Name,
		IsActive:  o.IsActive,
		CreatedAt: o.CreatedAt,
	}
}

// TeamResponseFrom maps a domain team.
func TeamResponseFrom(t *domain.Team) TeamResponse {
	return TeamResponse{
		ID:             t.ID,
		OrganizationID: t.OrganizationID,
		Tag:            t.Tag,
		Name:           t.Name,
		Description:    t.Description,
		IsActive:       t.IsActive,
		CreatedAt:      t.CreatedAt,
	}
}

// EscalationResponseFrom maps a domain escalation.
func EscalationResponseFrom(e *domain.Escalation) EscalationResponse {
	return EscalationResponse{
		ID:               e.ID,
		TicketID:         e.TicketID,
		SuggestedByAgent: e.SuggestedByAgent,
		Status:           e.Status,
		Reason:           e.Reason,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}
