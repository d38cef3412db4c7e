package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

type ticketTestEnv struct {
	tickets    *fakeTicketRepo
	teams      *fakeTeamRepo
	users      *fakeUserRepo
	activity   *fakeActivityRepo
	dispatcher *recordingDispatcher
	svc        *TicketService
}

func newTicketTestEnv() *ticketTestEnv {
	env := &ticketTestEnv{
		tickets:    newFakeTicketRepo(),
		teams:      newFakeTeamRepo(),
		users:      newFakeUserRepo(),
		activity:   newFakeActivityRepo(),
		dispatcher: &recordingDispatcher{},
	}
	env.svc = NewTicketService(TicketDependencies{
		TicketRepo:   env.tickets,
		TeamRepo:     env.teams,
		UserRepo:     env.users,
		ActivityRepo: env.activity,
		Dispatcher:   env.dispatcher,
	})
	return env
}

func (e *ticketTestEnv) seedTeam(tag string) *domain.Team {
	team := &domain.Team{OrganizationID: "org-1", Tag: tag, Name: tag, IsActive: true}
	_ = e.teams.Create(context.Background(), team)
	return team
}

func TestCreateTicket_StartsOpen(t *testing.T) {
	env := newTicketTestEnv()
	env.seedTeam("network")
	ctx := context.Background()

	ticket, err := env.svc.CreateTicket(ctx, testCustomer, TicketCreateInput{
		Title:       "  monitor flickers ",
		Description: " happens after standby ",
		TeamTag:     strPtr("network"),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, testCustomer.ID, ticket.CustomerID)
	assert.Equal(t, "monitor flickers", ticket.Title)
	assert.Equal(t, int64(1), ticket.Version)
	assert.Nil(t, ticket.LastClosedBy)

	assert.Contains(t, env.dispatcher.typesSeen(), events.EventTicketCreated)
	assert.Contains(t, env.activity.actions(), "ticket.created")
}

func TestCreateTicket_UnknownTeamTag(t *testing.T) {
	env := newTicketTestEnv()

	_, err := env.svc.CreateTicket(context.Background(), testCustomer, TicketCreateInput{
		Title:       "broken chair",
		Description: "left armrest fell off",
		TeamTag:     strPtr("facilities"),
	})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestCreateTicket_StaffDenied(t *testing.T) {
	env := newTicketTestEnv()

	_, err := env.svc.CreateTicket(context.Background(), testAgent, TicketCreateInput{
		Title:       "self-filed",
		Description: "agents do not file tickets",
	})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAccessDenied))
}

func TestGetTicket_MaskedForStrangers(t *testing.T) {
	env := newTicketTestEnv()
	env.seedTeam("network")
	ctx := context.Background()

	ticket, err := env.svc.CreateTicket(ctx, testCustomer, TicketCreateInput{
		Title:       "no sound",
		Description: "speakers silent since update",
		TeamTag:     strPtr("network"),
	})
	require.NoError(t, err)

	got, err := env.svc.GetTicket(ctx, testCustomer, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, got.ID)

	stranger := domain.Actor{ID: "cust-2", Role: domain.RoleCustomer}
	_, err = env.svc.GetTicket(ctx, stranger, ticket.ID)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = env.svc.GetTicket(ctx, testCustomer, "missing")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestListTickets_ScopedByRole(t *testing.T) {
	env := newTicketTestEnv()
	env.seedTeam("network")
	env.seedTeam("facilities")
	ctx := context.Background()

	other := domain.Actor{ID: "cust-2", Role: domain.RoleCustomer}
	mustCreate := func(actor domain.Actor, title string, tag *string) {
		_, err := env.svc.CreateTicket(ctx, actor, TicketCreateInput{Title: title, Description: "d", TeamTag: tag})
		require.NoError(t, err)
	}
	mustCreate(testCustomer, "mine one", strPtr("network"))
	mustCreate(testCustomer, "mine two", nil)
	mustCreate(other, "theirs", strPtr("facilities"))

	own, err := env.svc.ListTickets(ctx, testCustomer, TicketListFilter{})
	require.NoError(t, err)
	assert.Len(t, own, 2)

	team, err := env.svc.ListTickets(ctx, testAgent, TicketListFilter{})
	require.NoError(t, err)
	require.Len(t, team, 1)
	assert.Equal(t, "mine one", team[0].Title)

	noTag := domain.Actor{ID: "agent-9", Role: domain.RoleAgent}
	none, err := env.svc.ListTickets(ctx, noTag, TicketListFilter{})
	require.NoError(t, err)
	assert.Empty(t, none)

	all, err := env.svc.ListTickets(ctx, testSupAdmin, TicketListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestAssignTicket_RoutesToAssigneeTeam(t *testing.T) {
	env := newTicketTestEnv()
	env.seedTeam("network")
	ctx := context.Background()

	assignee := &domain.User{Name: "Sam", Email: "sam@example.com", Role: domain.RoleAgent, TeamTag: strPtr("network"), Status: domain.UserStatusActive}
	require.NoError(t, env.users.Create(ctx, assignee))

	ticket, err := env.svc.CreateTicket(ctx, testCustomer, TicketCreateInput{Title: "slow wifi", Description: "d"})
	require.NoError(t, err)

	updated, err := env.svc.AssignTicket(ctx, testSupAdmin, ticket.ID, assignee.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.AssigneeID)
	assert.Equal(t, assignee.ID, *updated.AssigneeID)
	require.NotNil(t, updated.TeamTag)
	assert.Equal(t, "network", *updated.TeamTag)

	assert.Contains(t, env.dispatcher.typesSeen(), events.EventTicketAssigned)
}

func TestAssignTicket_NonStaffAssigneeRejected(t *testing.T) {
	env := newTicketTestEnv()
	ctx := context.Background()

	assignee := &domain.User{Name: "Pat", Email: "pat@example.com", Role: domain.RoleCustomer, Status: domain.UserStatusActive}
	require.NoError(t, env.users.Create(ctx, assignee))

	ticket, err := env.svc.CreateTicket(ctx, testCustomer, TicketCreateInput{Title: "slow wifi", Description: "d"})
	require.NoError(t, err)

	_, err = env.svc.AssignTicket(ctx, testSupAdmin, ticket.ID, assignee.ID)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestExportCSV(t *testing.T) {
	env := newTicketTestEnv()
	env.seedTeam("network")
	ctx := context.Background()

	_, err := env.svc.CreateTicket(ctx, testCustomer, TicketCreateInput{Title: "slow wifi", Description: "d", TeamTag: strPtr("network")})
	require.NoError(t, err)

	data, err := env.svc.ExportCSV(ctx, testSupAdmin, TicketListFilter{})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "id,title,status,customer_id,team_tag,assignee_id,created_at,updated_at", lines[0])
	assert.Contains(t, lines[1], "slow wifi")
	assert.Contains(t, lines[1], "open")

	_, err = env.svc.ExportCSV(ctx, testCustomer, TicketListFilter{})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAccessDenied))
}
