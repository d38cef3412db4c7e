package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/support-desk/internal/domain"
)

func tag(s string) *string { return &s }

var (
	owner    = domain.Actor{ID: "cust-1", Role: domain.RoleCustomer}
	stranger = domain.Actor{ID: "cust-2", Role: domain.RoleCustomer}
	agent    = domain.Actor{ID: "agent-1", Role: domain.RoleAgent, TeamTag: tag("network")}
	offTeam  = domain.Actor{ID: "agent-2", Role: domain.RoleAgent, TeamTag: tag("facilities")}
	supAdmin = domain.Actor{ID: "admin-1", Role: domain.RoleSupervisoryAdmin}
	root     = domain.Actor{ID: "root-1", Role: domain.RoleSuperAdmin}
)

func openTicket() TicketView {
	return TicketView{CustomerID: owner.ID, TeamTag: tag("network"), Status: domain.TicketStatusOpen}
}

func closedTicket() TicketView {
	t := openTicket()
	t.Status = domain.TicketStatusClosed
	return t
}

func TestAllow_ReadTicket(t *testing.T) {
	ticket := openTicket()

	assert.NoError(t, Allow(owner, ticket, OpReadTicket))
	assert.NoError(t, Allow(agent, ticket, OpReadTicket))
	assert.NoError(t, Allow(supAdmin, ticket, OpReadTicket))
	assert.NoError(t, Allow(root, ticket, OpReadTicket))

	assert.Error(t, Allow(stranger, ticket, OpReadTicket))
	assert.Error(t, Allow(offTeam, ticket, OpReadTicket))
}

func TestAllow_ReadTicket_NoTeamTag(t *testing.T) {
	ticket := openTicket()
	ticket.TeamTag = nil

	// Untagged tickets are invisible to agents but not to admins.
	assert.Error(t, Allow(agent, ticket, OpReadTicket))
	assert.NoError(t, Allow(supAdmin, ticket, OpReadTicket))
	assert.NoError(t, Allow(root, ticket, OpReadTicket))
}

func TestAllow_CreateTicket(t *testing.T) {
	assert.NoError(t, Allow(owner, TicketView{}, OpCreateTicket))
	assert.NoError(t, Allow(root, TicketView{}, OpCreateTicket))

	assert.Error(t, Allow(agent, TicketView{}, OpCreateTicket))
	assert.Error(t, Allow(supAdmin, TicketView{}, OpCreateTicket))
}

func TestAllow_PostMessage(t *testing.T) {
	open := openTicket()
	closed := closedTicket()

	assert.NoError(t, Allow(owner, open, OpPostMessage))
	assert.NoError(t, Allow(agent, open, OpPostMessage))
	assert.NoError(t, Allow(supAdmin, open, OpPostMessage))
	assert.NoError(t, Allow(root, open, OpPostMessage))

	// Nobody posts to a non-open ticket, super admin included.
	assert.Error(t, Allow(owner, closed, OpPostMessage))
	assert.Error(t, Allow(agent, closed, OpPostMessage))
	assert.Error(t, Allow(supAdmin, closed, OpPostMessage))
	assert.Error(t, Allow(root, closed, OpPostMessage))

	// No read access means no posting either, even to an open ticket.
	assert.Error(t, Allow(stranger, open, OpPostMessage))
	assert.Error(t, Allow(offTeam, open, OpPostMessage))
}

func TestAllow_StatusTransitions(t *testing.T) {
	ticket := openTicket()

	assert.NoError(t, Allow(agent, ticket, OpCloseTicket))
	assert.NoError(t, Allow(supAdmin, ticket, OpCloseTicket))
	assert.NoError(t, Allow(root, ticket, OpCloseTicket))
	assert.Error(t, Allow(owner, ticket, OpCloseTicket))
	assert.Error(t, Allow(offTeam, ticket, OpCloseTicket))

	assert.NoError(t, Allow(agent, ticket, OpReopenTicket))
	assert.Error(t, Allow(owner, ticket, OpReopenTicket))
}

func TestAllow_ChooseResolution(t *testing.T) {
	ticket := closedTicket()

	assert.NoError(t, Allow(owner, ticket, OpChooseResolution))
	assert.NoError(t, Allow(root, ticket, OpChooseResolution))

	assert.Error(t, Allow(stranger, ticket, OpChooseResolution))
	assert.Error(t, Allow(agent, ticket, OpChooseResolution))
	assert.Error(t, Allow(supAdmin, ticket, OpChooseResolution))
}

func TestAllow_AdminOperations(t *testing.T) {
	for _, op := range []Operation{OpManageTeams, OpManageOrgs, OpManageUsers, OpListEscalations} {
		assert.NoError(t, Allow(supAdmin, TicketView{}, op), string(op))
		assert.NoError(t, Allow(root, TicketView{}, op), string(op))
		assert.Error(t, Allow(agent, TicketView{}, op), string(op))
		assert.Error(t, Allow(owner, TicketView{}, op), string(op))
	}
}

func TestAllow_ExportTickets(t *testing.T) {
	assert.NoError(t, Allow(agent, TicketView{}, OpExportTickets))
	assert.NoError(t, Allow(supAdmin, TicketView{}, OpExportTickets))
	assert.NoError(t, Allow(root, TicketView{}, OpExportTickets))
	assert.Error(t, Allow(owner, TicketView{}, OpExportTickets))
}

func TestViewOf(t *testing.T) {
	ticket := &domain.Ticket{CustomerID: "cust-1", TeamTag: tag("network"), Status: domain.TicketStatusClosed}
	view := ViewOf(ticket)
	assert.Equal(t, "cust-1", view.CustomerID)
	assert.Equal(t, "network", *view.TeamTag)
	assert.Equal(t, domain.TicketStatusClosed, view.Status)
}
