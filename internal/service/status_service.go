package service

import (
	"context"
	"errors"
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

// StatusService owns the ticket lifecycle state machine and the resolution
// handshake. Transitions are never retried internally; each success writes an
// activity entry and sometimes an escalation, so blind retries would
// duplicate side effects.
type StatusService struct {
	tickets     repository.TicketRepository
	escalations repository.EscalationRepository
	messages    repository.MessageRepository
	activity    repository.ActivityLogRepository
	hub         *realtime.Hub
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// StatusDependencies bundles collaborators for the status engine.
type StatusDependencies struct {
	TicketRepo     repository.TicketRepository
	EscalationRepo repository.EscalationRepository
	MessageRepo    repository.MessageRepository
	ActivityRepo   repository.ActivityLogRepository
	Hub            *realtime.Hub
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// NewStatusService constructs the service.
func NewStatusService(deps StatusDependencies) *StatusService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusService{
		tickets:     deps.TicketRepo,
		escalations: deps.EscalationRepo,
		messages:    deps.MessageRepo,
		activity:    deps.ActivityRepo,
		hub:         deps.Hub,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
	}
}

// allowedTransitions are the only edges of the lifecycle. closed is the
// transient staff-initiated state pending the customer's resolution choice;
// resolved/unresolved are terminal until a staff reopen restarts the cycle.
var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusOpen:       {domain.TicketStatusClosed},
	domain.TicketStatusClosed:     {domain.TicketStatusResolved, domain.TicketStatusUnresolved, domain.TicketStatusOpen},
	domain.TicketStatusResolved:   {domain.TicketStatusOpen},
	domain.TicketStatusUnresolved: {domain.TicketStatusOpen},
}

func isValidTransition(current, next domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

func operationForStatus(next domain.TicketStatus) policy.Operation {
	switch next {
	case domain.TicketStatusClosed:
		return policy.OpCloseTicket
	case domain.TicketStatusOpen:
		return policy.OpReopenTicket
	default:
		return policy.OpChooseResolution
	}
}

// SetStatus drives one transition of the state machine. expectedVersion is
// the ticket version the caller observed; a stale value is rejected so racing
// staff sessions cannot silently overwrite each other.
func (s *StatusService) SetStatus(ctx context.Context, actor domain.Actor, ticketID string, newStatus domain.TicketStatus, expectedVersion int64) (*domain.Ticket, error) {
	if !newStatus.IsKnown() {
		return nil, apperrors.NewValidationError("unknown ticket status", map[string]any{"status": newStatus})
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	// Hide the ticket entirely from actors without read access.
	if err := policy.Allow(actor, policy.ViewOf(ticket), policy.OpReadTicket); err != nil {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}

	if !isValidTransition(ticket.Status, newStatus) {
		return nil, apperrors.NewInvalidTransition("invalid status transition", map[string]any{
			"from": ticket.Status,
			"to":   newStatus,
		})
	}
	if err := policy.Allow(actor, policy.ViewOf(ticket), operationForStatus(newStatus)); err != nil {
		return nil, err
	}
	if newStatus == domain.TicketStatusResolved || newStatus == domain.TicketStatusUnresolved {
		if ticket.CustomerID != actor.ID {
			return nil, apperrors.NewAccessDenied("only the ticket owner may choose a resolution")
		}
	}
	if expectedVersion != ticket.Version {
		return nil, apperrors.NewInvalidTransition("ticket changed since it was read", map[string]any{
			"expected_version": expectedVersion,
			"current_version":  ticket.Version,
		})
	}

	oldStatus := ticket.Status
	ticket.Status = newStatus
	if newStatus == domain.TicketStatusClosed {
		closedBy := actor.ID
		ticket.LastClosedBy = &closedBy
	}
	if err := s.tickets.UpdateStatus(ctx, ticket, expectedVersion); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, apperrors.NewInvalidTransition("ticket changed since it was read", nil)
		}
		return nil, apperrors.MapError(err)
	}

	s.appendActivity(ctx, actor.ID, "ticket.status_changed", map[string]any{
		"ticket_id":  ticket.ID,
		"old_status": oldStatus,
		"new_status": newStatus,
	})
	s.publishEvent(ctx, events.Event{
		Type:      events.EventTicketStatusChanged,
		TicketID:  ticket.ID,
		ActorID:   &actor.ID,
		ActorRole: actor.Role,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
		},
	})
	if s.hub != nil {
		_ = s.hub.Publish(ctx, ticket.ID, realtime.Event{
			Kind: realtime.EventKindStatusChange,
			Data: map[string]any{"old_status": oldStatus, "new_status": newStatus},
		})
	}

	// A staff close hands the ball to the customer: prompt them to pick
	// resolved or unresolved.
	if newStatus == domain.TicketStatusClosed && actor.Role.IsStaff() {
		s.publishEvent(ctx, events.Event{
			Type:      events.EventResolutionRequested,
			TicketID:  ticket.ID,
			ActorID:   &actor.ID,
			ActorRole: actor.Role,
			Payload: events.ResolutionRequestedPayload{
				CustomerID: ticket.CustomerID,
				ClosedBy:   actor.ID,
			},
		})
		if s.hub != nil {
			_ = s.hub.Publish(ctx, ticket.ID, realtime.Event{
				Kind: realtime.EventKindResolutionPrompt,
				Data: map[string]any{"customer_id": ticket.CustomerID},
			})
		}
	}

	return ticket, nil
}

// ChooseResolution finishes the handshake on a closed ticket. resolved ends
// the cycle quietly; unresolved raises a pending escalation attributed to the
// staff member who closed the ticket, then records a system message.
func (s *StatusService) ChooseResolution(ctx context.Context, actor domain.Actor, ticketID string, choice domain.TicketStatus, expectedVersion int64) (*domain.Ticket, error) {
	if choice != domain.TicketStatusResolved && choice != domain.TicketStatusUnresolved {
		return nil, apperrors.NewValidationError("resolution must be resolved or unresolved", map[string]any{"choice": choice})
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if err := policy.Allow(actor, policy.ViewOf(ticket), policy.OpChooseResolution); err != nil {
		return nil, err
	}
	if ticket.Status != domain.TicketStatusClosed {
		return nil, apperrors.NewInvalidTransition("resolution choice requires a closed ticket", map[string]any{
			"status": ticket.Status,
		})
	}
	// Reject stale versions before any escalation rows are written, so a
	// failed choice leaves nothing behind for admins to review.
	if expectedVersion != ticket.Version {
		return nil, apperrors.NewInvalidTransition("ticket changed since it was read", map[string]any{
			"expected_version": expectedVersion,
			"current_version":  ticket.Version,
		})
	}

	if choice == domain.TicketStatusResolved {
		return s.SetStatus(ctx, actor, ticketID, domain.TicketStatusResolved, expectedVersion)
	}

	// At most one pending escalation per ticket: a new one supersedes the
	// previous, so a later reopen cycle never resurrects a stale row.
	if prior, err := s.escalations.GetPendingByTicket(ctx, ticketID); err == nil {
		if err := s.escalations.UpdateStatus(ctx, prior.ID, domain.EscalationStatusSuperseded); err != nil {
			return nil, apperrors.MapError(err)
		}
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	reason := domain.DefaultEscalationReason
	escalation := &domain.Escalation{
		TicketID:         ticket.ID,
		SuggestedByAgent: ticket.LastClosedBy,
		Status:           domain.EscalationStatusPending,
		Reason:           &reason,
	}
	if err := s.escalations.Create(ctx, escalation); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:      events.EventEscalationRaised,
		TicketID:  ticket.ID,
		ActorID:   &actor.ID,
		ActorRole: actor.Role,
		Payload: events.EscalationRaisedPayload{
			EscalationID:     escalation.ID,
			SuggestedByAgent: escalation.SuggestedByAgent,
			Reason:           reason,
		},
	})

	updated, err := s.SetStatus(ctx, actor, ticketID, domain.TicketStatusUnresolved, expectedVersion)
	if err != nil {
		return nil, err
	}

	systemMsg := &domain.Message{
		TicketID: ticket.ID,
		System:   true,
		Body:     "customer marked the ticket unresolved and requested reopening",
	}
	if err := s.messages.Create(ctx, systemMsg); err != nil {
		return nil, apperrors.MapError(err)
	}
	if s.hub != nil {
		_ = s.hub.Publish(ctx, ticket.ID, realtime.Event{
			Kind:    realtime.EventKindMessage,
			Message: systemMsg,
		})
	}
	s.appendActivity(ctx, actor.ID, "ticket.resolution_chosen", map[string]any{
		"ticket_id": ticket.ID,
		"choice":    choice,
	})

	return updated, nil
}

// appendActivity writes to the audit sink. Failures are logged and dropped;
// the sink is fire-and-forget and must not fail the operation.
func (s *StatusService) appendActivity(ctx context.Context, userID, action string, details map[string]any) {
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

func (s *StatusService) publishEvent(ctx context.Context, event events.Event) {
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
