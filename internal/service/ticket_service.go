package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/policy"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// TicketService coordinates ticket CRUD around the status engine and message
// channel.
type TicketService struct {
	tickets    repository.TicketRepository
	teams      repository.TeamRepository
	users      repository.UserRepository
	activity   repository.ActivityLogRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	TeamRepo     repository.TeamRepository
	UserRepo     repository.UserRepository
	ActivityRepo repository.ActivityLogRepository
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	TeamTag     *string
}

// TicketListFilter describes listing filters.
type TicketListFilter struct {
	Statuses    []domain.TicketStatus
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		teams:      deps.TeamRepo,
		users:      deps.UserRepo,
		activity:   deps.ActivityRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// CreateTicket files a new ticket for the acting customer. Tickets always
// start open.
func (s *TicketService) CreateTicket(ctx context.Context, actor domain.Actor, input TicketCreateInput) (*domain.Ticket, error) {
	if err := policy.Allow(actor, policy.TicketView{}, policy.OpCreateTicket); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, apperrors.NewValidationError("title and description required", nil)
	}
	if input.TeamTag != nil {
		team, err := s.teams.GetByTag(ctx, *input.TeamTag)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewValidationError("unknown team tag", map[string]any{"team_tag": *input.TeamTag})
			}
			return nil, apperrors.MapError(err)
		}
		if !team.IsActive {
			return nil, apperrors.NewValidationError("team inactive", map[string]any{"team_tag": *input.TeamTag})
		}
	}

	ticket := &domain.Ticket{
		CustomerID:  actor.ID,
		TeamTag:     input.TeamTag,
		Title:       title,
		Description: description,
		Status:      domain.TicketStatusOpen,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.appendActivity(ctx, actor.ID, "ticket.created", map[string]any{"ticket_id": ticket.ID})
	s.publishEvent(ctx, events.Event{
		Type:      events.EventTicketCreated,
		TicketID:  ticket.ID,
		ActorID:   &actor.ID,
		ActorRole: actor.Role,
		Payload: events.TicketCreatedPayload{
			TeamTag: ticket.TeamTag,
			Title:   ticket.Title,
		},
	})
	return ticket, nil
}

// GetTicket fetches a single ticket the actor may read. Unauthorized and
// nonexistent tickets are indistinguishable.
func (s *TicketService) GetTicket(ctx context.Context, actor domain.Actor, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if err := policy.Allow(actor, policy.ViewOf(ticket), policy.OpReadTicket); err != nil {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	return ticket, nil
}

// ListTickets returns tickets visible to the actor: customers see their own,
// agents their team's, admins everything.
func (s *TicketService) ListTickets(ctx context.Context, actor domain.Actor, filter TicketListFilter) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{
		Statuses:    filter.Statuses,
		SearchTerm:  filter.SearchTerm,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}
	switch actor.Role {
	case domain.RoleCustomer:
		customerID := actor.ID
		repoFilter.CustomerID = &customerID
	case domain.RoleAgent:
		if actor.TeamTag == nil {
			return []domain.Ticket{}, nil
		}
		repoFilter.TeamTag = actor.TeamTag
	case domain.RoleSupervisoryAdmin, domain.RoleSuperAdmin:
		// unscoped
	default:
		return nil, apperrors.NewAccessDenied("unknown role")
	}
	return s.tickets.ListWithFilter(ctx, repoFilter)
}

// AssignTicket routes a ticket to a staff member and their team tag.
func (s *TicketService) AssignTicket(ctx context.Context, actor domain.Actor, ticketID, assigneeID string) (*domain.Ticket, error) {
	ticket, err := s.GetTicket(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	if !actor.Role.IsStaff() {
		return nil, apperrors.NewAccessDenied("staff capability required")
	}
	assignee, err := s.users.GetByID(ctx, assigneeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": assigneeID})
		}
		return nil, apperrors.MapError(err)
	}
	if !assignee.Role.IsStaff() {
		return nil, apperrors.NewValidationError("assignee is not staff", map[string]any{"user_id": assigneeID})
	}

	ticket.AssigneeID = &assignee.ID
	if assignee.TeamTag != nil {
		ticket.TeamTag = assignee.TeamTag
	}
	if err := s.tickets.UpdateAssignee(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.appendActivity(ctx, actor.ID, "ticket.assigned", map[string]any{
		"ticket_id":   ticket.ID,
		"assignee_id": assignee.ID,
	})
	s.publishEvent(ctx, events.Event{
		Type:      events.EventTicketAssigned,
		TicketID:  ticket.ID,
		ActorID:   &actor.ID,
		ActorRole: actor.Role,
		Payload: events.TicketAssignedPayload{
			AssigneeID: ticket.AssigneeID,
			TeamTag:    ticket.TeamTag,
		},
	})
	return ticket, nil
}

// ExportCSV renders the actor-visible tickets as CSV for download.
func (s *TicketService) ExportCSV(ctx context.Context, actor domain.Actor, filter TicketListFilter) ([]byte, error) {
	if err := policy.Allow(actor, policy.TicketView{}, policy.OpExportTickets); err != nil {
		return nil, err
	}
	tickets, err := s.ListTickets(ctx, actor, filter)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{"id", "title", "status", "customer_id", "team_tag", "assignee_id", "created_at", "updated_at"}
	if err := w.Write(header); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	for i := range tickets {
		t := &tickets[i]
		row := []string{
			t.ID,
			t.Title,
			string(t.Status),
			t.CustomerID,
			derefOrEmpty(t.TeamTag),
			derefOrEmpty(t.AssigneeID),
			t.CreatedAt.Format(time.RFC3339),
			t.UpdatedAt.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return nil, apperrors.NewInternalError(err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return buf.Bytes(), nil
}

func derefOrEmpty(val *string) string {
	if val == nil {
		return ""
	}
	return *val
}

func (s *TicketService) appendActivity(ctx context.Context, userID, action string, details map[string]any) {
	if s.activity == nil {
		return
	}
	entry := &domain.ActivityLogEntry{
		UserID:  &userID,
		Action:  action,
		Details: details,
	}
	if err := s.activity.Append(ctx, entry); err != nil {
		s.logger.Warn("activity log append failed", zap.String("action", action), zap.Error(err))
	}
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
