package service

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/realtime"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

type messageTestEnv struct {
	tickets    *fakeTicketRepo
	messages   *fakeMessageRepo
	activity   *fakeActivityRepo
	dispatcher *recordingDispatcher
	hub        *realtime.Hub
	svc        *MessageService
}

func newMessageTestEnv() *messageTestEnv {
	env := &messageTestEnv{
		tickets:    newFakeTicketRepo(),
		messages:   newFakeMessageRepo(),
		activity:   newFakeActivityRepo(),
		dispatcher: &recordingDispatcher{},
		hub:        realtime.NewHub(realtime.NewLocalBroker(), 8),
	}
	env.svc = NewMessageService(MessageDependencies{
		TicketRepo:   env.tickets,
		MessageRepo:  env.messages,
		ActivityRepo: env.activity,
		Hub:          env.hub,
		Dispatcher:   env.dispatcher,
	})
	return env
}

func (e *messageTestEnv) seedTicket(customerID string, status domain.TicketStatus, teamTag *string) *domain.Ticket {
	ticket := &domain.Ticket{
		CustomerID:  customerID,
		TeamTag:     teamTag,
		Title:       "vpn drops",
		Description: "connection resets every few minutes",
		Status:      domain.TicketStatusOpen,
	}
	_ = e.tickets.Create(context.Background(), ticket)
	if status != domain.TicketStatusOpen {
		ticket.Status = status
		_ = e.tickets.UpdateStatus(context.Background(), ticket, ticket.Version)
	}
	return ticket
}

func TestPostMessage_AppendsAndFansOutToSender(t *testing.T) {
	env := newMessageTestEnv()
	ticket := env.seedTicket(testCustomer.ID, domain.TicketStatusOpen, nil)
	ctx := context.Background()

	sub, err := env.svc.Subscribe(ctx, testCustomer, ticket.ID, "Pat")
	require.NoError(t, err)
	defer env.svc.Unsubscribe(ctx, sub)

	join := <-sub.C
	assert.Equal(t, realtime.EventKindPresenceJoin, join.Kind)

	msg, err := env.svc.PostMessage(ctx, testCustomer, ticket.ID, "  still broken  ")
	require.NoError(t, err)
	assert.Equal(t, "still broken", msg.Body)
	require.NotNil(t, msg.AuthorID)
	assert.Equal(t, testCustomer.ID, *msg.AuthorID)
	assert.False(t, msg.System)

	// The sender's own subscription receives the message too.
	live := <-sub.C
	require.Equal(t, realtime.EventKindMessage, live.Kind)
	require.NotNil(t, live.Message)
	assert.Equal(t, msg.ID, live.Message.ID)
}

func TestPostMessage_BlankBodyRejected(t *testing.T) {
	env := newMessageTestEnv()
	ticket := env.seedTicket(testCustomer.ID, domain.TicketStatusOpen, nil)

	_, err := env.svc.PostMessage(context.Background(), testCustomer, ticket.ID, "   \n\t ")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	msgs, _ := env.messages.ListByTicket(context.Background(), ticket.ID)
	assert.Empty(t, msgs)
}

func TestPostMessage_ClosedTicketRejected(t *testing.T) {
	env := newMessageTestEnv()
	ticket := env.seedTicket(testCustomer.ID, domain.TicketStatusClosed, strPtr("network"))

	for _, actor := range []domain.Actor{testCustomer, testAgent, {ID: "root", Role: domain.RoleSuperAdmin}} {
		_, err := env.svc.PostMessage(context.Background(), actor, ticket.ID, "hello")
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeAccessDenied))
	}
}

func TestListMessages_OrderPreserved(t *testing.T) {
	env := newMessageTestEnv()
	ticket := env.seedTicket(testCustomer.ID, domain.TicketStatusOpen, strPtr("network"))
	ctx := context.Background()

	bodies := []string{"first", "second", "third"}
	for _, body := range bodies {
		_, err := env.svc.PostMessage(ctx, testCustomer, ticket.ID, body)
		require.NoError(t, err)
	}

	msgs, err := env.svc.ListMessages(ctx, testAgent, ticket.ID)
	require.NoError(t, err)
	require.Len(t, msgs, len(bodies))
	for i, body := range bodies {
		assert.Equal(t, body, msgs[i].Body)
	}
}

func TestListMessages_UnauthorizedLooksMissing(t *testing.T) {
	env := newMessageTestEnv()
	ticket := env.seedTicket(testCustomer.ID, domain.TicketStatusOpen, strPtr("network"))

	stranger := domain.Actor{ID: "cust-9", Role: domain.RoleCustomer}
	_, err := env.svc.ListMessages(context.Background(), stranger, ticket.ID)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = env.svc.ListMessages(context.Background(), stranger, "no-such-ticket")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestSubscribe_PresenceLifecycle(t *testing.T) {
	env := newMessageTestEnv()
	ticket := env.seedTicket(testCustomer.ID, domain.TicketStatusOpen, strPtr("network"))
	ctx := context.Background()

	custSub, err := env.svc.Subscribe(ctx, testCustomer, ticket.ID, "Pat")
	require.NoError(t, err)
	agentSub, err := env.svc.Subscribe(ctx, testAgent, ticket.ID, "Sam")
	require.NoError(t, err)

	members := env.svc.Presence(ticket.ID)
	require.Len(t, members, 2)

	// The customer's feed saw both joins: its own and the agent's.
	first := <-custSub.C
	assert.Equal(t, realtime.EventKindPresenceJoin, first.Kind)
	second := <-custSub.C
	require.Equal(t, realtime.EventKindPresenceJoin, second.Kind)
	require.NotNil(t, second.Member)
	assert.Equal(t, testAgent.ID, second.Member.UserID)

	env.svc.Unsubscribe(ctx, agentSub)

	leave := <-custSub.C
	require.Equal(t, realtime.EventKindPresenceLeave, leave.Kind)
	require.NotNil(t, leave.Member)
	assert.Equal(t, testAgent.ID, leave.Member.UserID)

	members = env.svc.Presence(ticket.ID)
	require.Len(t, members, 1)
	assert.Equal(t, testCustomer.ID, members[0].UserID)

	// Unsubscribe is idempotent.
	env.svc.Unsubscribe(ctx, agentSub)
	env.svc.Unsubscribe(ctx, custSub)
	assert.Empty(t, env.svc.Presence(ticket.ID))
}

func TestStringPreview_KeepsRunesWhole(t *testing.T) {
	short := stringPreview("héllo", 120)
	assert.Equal(t, "héllo", short)

	long := strings.Repeat("ü", 50)
	preview := stringPreview(long, 10)
	assert.True(t, utf8.ValidString(preview))
	assert.Equal(t, strings.Repeat("ü", 7)+"...", preview)

	tight := stringPreview("日本語テスト", 3)
	assert.True(t, utf8.ValidString(tight))
	assert.Equal(t, "日本語", tight)
}

func TestSubscribe_UnauthorizedLooksMissing(t *testing.T) {
	env := newMessageTestEnv()
	ticket := env.seedTicket(testCustomer.ID, domain.TicketStatusOpen, strPtr("network"))

	otherTeam := domain.Actor{ID: "agent-9", Role: domain.RoleAgent, TeamTag: strPtr("facilities")}
	_, err := env.svc.Subscribe(context.Background(), otherTeam, ticket.ID, "Kim")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}
