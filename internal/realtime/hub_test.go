package realtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-desk/internal/domain"
)

func member(id string) domain.PresenceMember {
	return domain.PresenceMember{UserID: id, Name: id, Role: domain.RoleCustomer}
}

func TestHub_FanOutReachesAllSubscribers(t *testing.T) {
	hub := NewHub(NewLocalBroker(), 8)
	ctx := context.Background()

	a, err := hub.Subscribe(ctx, "ticket-1", member("a"))
	require.NoError(t, err)
	b, err := hub.Subscribe(ctx, "ticket-1", member("b"))
	require.NoError(t, err)
	other, err := hub.Subscribe(ctx, "ticket-2", member("c"))
	require.NoError(t, err)

	// a saw both joins, b only its own, other only its own.
	<-a.C
	<-a.C
	<-b.C
	<-other.C

	msg := &domain.Message{ID: "m-1", TicketID: "ticket-1", Body: "hello"}
	require.NoError(t, hub.Publish(ctx, "ticket-1", Event{Kind: EventKindMessage, Message: msg}))

	for _, sub := range []*Subscription{a, b} {
		event := <-sub.C
		require.Equal(t, EventKindMessage, event.Kind)
		require.NotNil(t, event.Message)
		assert.Equal(t, "m-1", event.Message.ID)
		assert.Equal(t, "ticket-1", event.TicketID)
	}

	select {
	case event := <-other.C:
		t.Fatalf("subscriber on another ticket received %v", event.Kind)
	default:
	}
}

func TestHub_PresenceTracksJoinAndLeave(t *testing.T) {
	hub := NewHub(NewLocalBroker(), 8)
	ctx := context.Background()

	assert.Empty(t, hub.Presence("ticket-1"))

	a, err := hub.Subscribe(ctx, "ticket-1", member("a"))
	require.NoError(t, err)
	b, err := hub.Subscribe(ctx, "ticket-1", member("b"))
	require.NoError(t, err)

	require.Len(t, hub.Presence("ticket-1"), 2)

	hub.Unsubscribe(ctx, a)
	members := hub.Presence("ticket-1")
	require.Len(t, members, 1)
	assert.Equal(t, "b", members[0].UserID)

	// a's channel is closed after unsubscribe; the remaining subscriber saw
	// the leave event.
	for event := range a.C {
		_ = event
	}
	var sawLeave bool
	for len(b.C) > 0 {
		if event := <-b.C; event.Kind == EventKindPresenceLeave {
			sawLeave = true
			assert.Equal(t, "a", event.Member.UserID)
		}
	}
	assert.True(t, sawLeave)

	hub.Unsubscribe(ctx, b)
	assert.Empty(t, hub.Presence("ticket-1"))
}

func TestHub_UnsubscribeIsIdempotent(t *testing.T) {
	hub := NewHub(NewLocalBroker(), 8)
	ctx := context.Background()

	sub, err := hub.Subscribe(ctx, "ticket-1", member("a"))
	require.NoError(t, err)

	hub.Unsubscribe(ctx, sub)
	hub.Unsubscribe(ctx, sub)
	hub.Unsubscribe(ctx, nil)
	assert.Empty(t, hub.Presence("ticket-1"))
}

func TestHub_SlowSubscriberDropsEventsInsteadOfBlocking(t *testing.T) {
	hub := NewHub(NewLocalBroker(), 2)
	ctx := context.Background()

	sub, err := hub.Subscribe(ctx, "ticket-1", member("a"))
	require.NoError(t, err)

	// One slot is taken by the join event; overflow beyond the buffer must
	// not block the publisher.
	for i := 0; i < 10; i++ {
		require.NoError(t, hub.Publish(ctx, "ticket-1", Event{Kind: EventKindMessage}))
	}
	assert.Len(t, sub.C, 2)

	hub.Unsubscribe(ctx, sub)
}
