package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// EventKind discriminates events on a ticket's live feed.
type EventKind string

const (
	EventKindMessage          EventKind = "message"
	EventKindPresenceJoin     EventKind = "presence_join"
	EventKindPresenceLeave    EventKind = "presence_leave"
	EventKindStatusChange     EventKind = "status_change"
	EventKindResolutionPrompt EventKind = "resolution_prompt"
)

// Event is the unit delivered to live subscribers of a ticket. Exactly one of
// the payload fields is set depending on Kind.
type Event struct {
	Kind     EventKind              `json:"kind"`
	TicketID string                 `json:"ticket_id"`
	At       time.Time              `json:"at"`
	Message  *domain.Message        `json:"message,omitempty"`
	Member   *domain.PresenceMember `json:"member,omitempty"`
	Data     map[string]any         `json:"data,omitempty"`
}

// Broker fans events out to every subscriber of a ticket, including the
// publisher's own subscription. Implementations: in-process (tests, single
// node) and Redis pub/sub (multi-node).
type Broker interface {
	Publish(ctx context.Context, ticketID string, event Event) error
	// Subscribe registers deliver for every subsequent event on the ticket
	// and returns a cancel func. Delivery is not retroactive.
	Subscribe(ctx context.Context, ticketID string, deliver func(Event)) (func(), error)
}

// localBroker is a single-process broker.
type localBroker struct {
	mu        sync.RWMutex
	nextID    int64
	listeners map[string]map[int64]func(Event)
}

// NewLocalBroker creates an in-process broker.
func NewLocalBroker() Broker {
	return &localBroker{listeners: make(map[string]map[int64]func(Event))}
}

func (b *localBroker) Publish(_ context.Context, ticketID string, event Event) error {
	b.mu.RLock()
	handlers := make([]func(Event), 0, len(b.listeners[ticketID]))
	for _, deliver := range b.listeners[ticketID] {
		handlers = append(handlers, deliver)
	}
	b.mu.RUnlock()

	for _, deliver := range handlers {
		deliver(event)
	}
	return nil
}

func (b *localBroker) Subscribe(_ context.Context, ticketID string, deliver func(Event)) (func(), error) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	if b.listeners[ticketID] == nil {
		b.listeners[ticketID] = make(map[int64]func(Event))
	}
	b.listeners[ticketID][id] = deliver
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.listeners[ticketID], id)
		if len(b.listeners[ticketID]) == 0 {
			delete(b.listeners, ticketID)
		}
	}, nil
}
