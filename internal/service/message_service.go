package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/policy"
	"github.com/spec-kit/support-desk/internal/realtime"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// MessageService is the append-only conversation log per ticket plus its live
// delivery. Ordering is the store's commit order; client clocks never matter.
type MessageService struct {
	tickets    repository.TicketRepository
	messages   repository.MessageRepository
	activity   repository.ActivityLogRepository
	hub        *realtime.Hub
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// MessageDependencies bundles collaborators for the message channel.
type MessageDependencies struct {
	TicketRepo   repository.TicketRepository
	MessageRepo  repository.MessageRepository
	ActivityRepo repository.ActivityLogRepository
	Hub          *realtime.Hub
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewMessageService constructs the service.
func NewMessageService(deps MessageDependencies) *MessageService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessageService{
		tickets:    deps.TicketRepo,
		messages:   deps.MessageRepo,
		activity:   deps.ActivityRepo,
		hub:        deps.Hub,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// PostMessage appends to the ticket's conversation and fans the new message
// out to every live subscriber, the sender included; the sender's own UI
// updates through the same path.
func (s *MessageService) PostMessage(ctx context.Context, actor domain.Actor, ticketID, body string) (*domain.Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, apperrors.NewValidationError("message body required", nil)
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if err := policy.Allow(actor, policy.ViewOf(ticket), policy.OpPostMessage); err != nil {
		return nil, err
	}

	authorID := actor.ID
	msg := &domain.Message{
		TicketID: ticket.ID,
		AuthorID: &authorID,
		Body:     strings.TrimSpace(body),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, apperrors.MapError(err)
	}

	if s.hub != nil {
		_ = s.hub.Publish(ctx, ticket.ID, realtime.Event{
			Kind:    realtime.EventKindMessage,
			Message: msg,
		})
	}
	s.publishEvent(ctx, events.Event{
		Type:      events.EventMessagePosted,
		TicketID:  ticket.ID,
		ActorID:   &authorID,
		ActorRole: actor.Role,
		Payload: events.MessagePostedPayload{
			MessageID:   msg.ID,
			AuthorID:    msg.AuthorID,
			System:      msg.System,
			BodyPreview: stringPreview(msg.Body, 120),
		},
	})
	s.appendActivity(ctx, actor.ID, "ticket.message_posted", map[string]any{
		"ticket_id":  ticket.ID,
		"message_id": msg.ID,
	})

	return msg, nil
}

// ListMessages returns the full conversation, oldest first. History is
// fetched here once; live updates come from Subscribe.
func (s *MessageService) ListMessages(ctx context.Context, actor domain.Actor, ticketID string) ([]domain.Message, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if err := policy.Allow(actor, policy.ViewOf(ticket), policy.OpReadMessages); err != nil {
		// Indistinguishable from a missing ticket on purpose.
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	return s.messages.ListByTicket(ctx, ticketID)
}

// Subscribe joins the live session on a ticket: messages appended after this
// point plus presence join/leave events. Not retroactive.
func (s *MessageService) Subscribe(ctx context.Context, actor domain.Actor, ticketID, displayName string) (*realtime.Subscription, error) {
	if s.hub == nil {
		return nil, apperrors.NewTransientFailure(errors.New("realtime hub unavailable"))
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if err := policy.Allow(actor, policy.ViewOf(ticket), policy.OpReadMessages); err != nil {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}

	member := domain.PresenceMember{
		UserID:   actor.ID,
		Name:     displayName,
		Role:     actor.Role,
		JoinedAt: time.Now(),
	}
	sub, err := s.hub.Subscribe(ctx, ticketID, member)
	if err != nil {
		return nil, apperrors.NewTransientFailure(err)
	}
	return sub, nil
}

// Unsubscribe leaves the presence set and stops the feed. Must be called on
// every exit path; a dropped connection without it relies on transport
// timeout cleanup.
func (s *MessageService) Unsubscribe(ctx context.Context, sub *realtime.Subscription) {
	if s.hub == nil || sub == nil {
		return
	}
	s.hub.Unsubscribe(ctx, sub)
}

// Presence reports who is currently connected to the ticket's live session.
func (s *MessageService) Presence(ticketID string) []domain.PresenceMember {
	if s.hub == nil {
		return nil
	}
	return s.hub.Presence(ticketID)
}

func (s *MessageService) appendActivity(ctx context.Context, userID, action string, details map[string]any) {
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

func (s *MessageService) publishEvent(ctx context.Context, event events.Event) {
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

// stringPreview truncates to at most max runes so the cut never lands inside
// a multi-byte character.
func stringPreview(body string, max int) string {
	runes := []rune(strings.TrimSpace(body))
	if len(runes) <= max {
		return string(runes)
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
