// Package realtime owns the live side of a ticket conversation: fan-out of
// newly appended messages and the ephemeral presence set of connected
// participants. Durable state never lives here.
package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// Subscription is one viewer's live feed on a ticket. Events arrive on C in
// broker delivery order; slow consumers lose events rather than block the
// fan-out (at-least-once delivery is bounded by the buffer).
type Subscription struct {
	TicketID string
	Member   domain.PresenceMember

	C chan Event

	mu     sync.Mutex
	closed bool
	cancel func()
}

func (s *Subscription) deliver(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.C <- event:
	default:
	}
}

func (s *Subscription) shut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.C)
}

// Hub tracks per-ticket presence and bridges subscribers to the broker.
type Hub struct {
	broker Broker
	buffer int

	mu       sync.RWMutex
	presence map[string]map[*Subscription]domain.PresenceMember
}

// NewHub creates a hub over the given broker. buffer is the per-subscriber
// event queue size.
func NewHub(broker Broker, buffer int) *Hub {
	if buffer <= 0 {
		buffer = 32
	}
	return &Hub{
		broker:   broker,
		buffer:   buffer,
		presence: make(map[string]map[*Subscription]domain.PresenceMember),
	}
}

// Subscribe joins the ticket's presence set and starts the live feed. The
// feed yields every event published after this call; history is the message
// repository's business.
func (h *Hub) Subscribe(ctx context.Context, ticketID string, member domain.PresenceMember) (*Subscription, error) {
	if member.JoinedAt.IsZero() {
		member.JoinedAt = time.Now()
	}
	sub := &Subscription{
		TicketID: ticketID,
		Member:   member,
		C:        make(chan Event, h.buffer),
	}

	cancel, err := h.broker.Subscribe(ctx, ticketID, sub.deliver)
	if err != nil {
		return nil, err
	}
	sub.cancel = cancel

	h.mu.Lock()
	if h.presence[ticketID] == nil {
		h.presence[ticketID] = make(map[*Subscription]domain.PresenceMember)
	}
	h.presence[ticketID][sub] = member
	h.mu.Unlock()

	_ = h.broker.Publish(ctx, ticketID, Event{
		Kind:     EventKindPresenceJoin,
		TicketID: ticketID,
		At:       time.Now(),
		Member:   &member,
	})
	return sub, nil
}

// Unsubscribe leaves the presence set and stops the feed immediately. Safe to
// call more than once. Callers must invoke it on every exit path; a process
// that disappears without unsubscribing is cleaned up by transport context
// cancellation, not by the hub.
func (h *Hub) Unsubscribe(ctx context.Context, sub *Subscription) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	_, present := h.presence[sub.TicketID][sub]
	delete(h.presence[sub.TicketID], sub)
	if len(h.presence[sub.TicketID]) == 0 {
		delete(h.presence, sub.TicketID)
	}
	h.mu.Unlock()

	if present {
		member := sub.Member
		_ = h.broker.Publish(ctx, sub.TicketID, Event{
			Kind:     EventKindPresenceLeave,
			TicketID: sub.TicketID,
			At:       time.Now(),
			Member:   &member,
		})
	}

	if sub.cancel != nil {
		sub.cancel()
	}
	sub.shut()
}

// Publish fans an event out to every current subscriber of the ticket,
// including the publisher's own subscription.
func (h *Hub) Publish(ctx context.Context, ticketID string, event Event) error {
	if event.At.IsZero() {
		event.At = time.Now()
	}
	event.TicketID = ticketID
	return h.broker.Publish(ctx, ticketID, event)
}

// Presence returns a snapshot of the connected participants for a ticket.
func (h *Hub) Presence(ticketID string) []domain.PresenceMember {
	h.mu.RLock()
	defer h.mu.RUnlock()
	members := make([]domain.PresenceMember, 0, len(h.presence[ticketID]))
	for _, member := range h.presence[ticketID] {
		members = append(members, member)
	}
	return members
}
