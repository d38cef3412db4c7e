package dto

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	TeamTag     *string `json:"team_tag"`
}

// SetStatusRequest carries the requested status and the version the caller
// observed.
type SetStatusRequest struct {
	Status  domain.TicketStatus `json:"status"`
	Version int64               `json:"version"`
}

// ResolutionRequest carries the customer's resolved/unresolved choice.
type ResolutionRequest struct {
	Choice  domain.TicketStatus `json:"choice"`
	Version int64               `json:"version"`
}

// AssignRequest payload.
type AssignRequest struct {
	AssigneeID string `json:"assignee_id"`
}

// CreateMessageRequest payload.
type CreateMessageRequest struct {
	Body string `json:"body"`
}

// TicketResponse public ticket representation.
type TicketResponse struct {
	ID           string              `json:"id"`
	CustomerID   string              `json:"customer_id"`
	TeamTag      *string             `json:"team_tag,omitempty"`
	AssigneeID   *string             `json:"assignee_id,omitempty"`
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	Status       domain.TicketStatus `json:"status"`
	LastClosedBy *string             `json:"last_closed_by,omitempty"`
	Version      int64               `json:"version"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// MessageResponse one conversation entry.
type MessageResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	AuthorID  *string   `json:"author_id,omitempty"`
	System    bool      `json:"system"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// PresenceMemberResponse one live participant.
type PresenceMemberResponse struct {
	UserID   string      `json:"user_id"`
	Name     string      `json:"name"`
	Role     domain.Role `json:"role"`
	JoinedAt time.Time   `json:"joined_at"`
}

// TicketResponseFrom maps a domain ticket.
func TicketResponseFrom(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:           t.ID,
		CustomerID:   t.CustomerID,
		TeamTag:      t.TeamTag,
		AssigneeID:   t.AssigneeID,
		Title:        t.Title,
		Description:  t.Description,
		Status:       t.Status,
		LastClosedBy: t.LastClosedBy,
		Version:      t.Version,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

// MessageResponseFrom maps a domain message.
func MessageResponseFrom(m *domain.Message) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		TicketID:  m.TicketID,
		AuthorID:  m.AuthorID,
		System:    m.System,
		Body:      m.Body,
		CreatedAt: m.CreatedAt,
	}
}

// PresenceResponseFrom maps presence members.
func PresenceResponseFrom(members []domain.PresenceMember) []PresenceMemberResponse {
	resp := make([]PresenceMemberResponse, 0, len(members))
	for _, m := range members {
		resp = append(resp, PresenceMemberResponse{
			UserID:   m.UserID,
			Name:     m.Name,
			Role:     m.Role,
			JoinedAt: m.JoinedAt,
		})
	}
	return resp
}
