// Package policy maps (actor, resource, operation) to allow/deny. It is
// consulted synchronously by the status engine and the message channel before
// any mutation reaches the store. The evaluator performs no I/O: every fact
// it needs is carried by the arguments.
package policy

import (
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/pkg/util"
)

// Operation identifies a requested capability.
type Operation string

const (
	OpCreateTicket     Operation = "ticket.create"
	OpReadTicket       Operation = "ticket.read"
	OpPostMessage      Operation = "ticket.message.post"
	OpReadMessages     Operation = "ticket.message.read"
	OpCloseTicket      Operation = "ticket.status.close"
	OpReopenTicket     Operation = "ticket.status.reopen"
	OpChooseResolution Operation = "ticket.resolution.choose"
	OpCreateEscalation Operation = "escalation.create"
	OpListEscalations  Operation = "escalation.list"
	OpManageTeams      Operation = "team.manage"
	OpManageOrgs       Operation = "organization.manage"
	OpManageUsers      Operation = "user.manage"
	OpExportTickets    Operation = "ticket.export"
)

// TicketView carries the ticket facts the rules depend on. The caller fills
// it from a fetched ticket; a zero value is used for operations that are not
// about a particular ticket.
type TicketView struct {
	CustomerID string
	TeamTag    *string
	Status     domain.TicketStatus
}

// ViewOf projects a ticket for evaluation.
func ViewOf(t *domain.Ticket) TicketView {
	return TicketView{CustomerID: t.CustomerID, TeamTag: t.TeamTag, Status: t.Status}
}

// Allow returns nil when actor may perform op on the ticket, or an
// AccessDenied error otherwise. Posting a message additionally requires the
// ticket to be open, regardless of who asks.
func Allow(actor domain.Actor, ticket TicketView, op Operation) error {
	if actor.Role == domain.RoleSuperAdmin {
		if op == OpPostMessage && ticket.Status != domain.TicketStatusOpen {
			return util.NewAccessDenied("messages can only be posted to open tickets")
		}
		return nil
	}

	switch op {
	case OpCreateTicket:
		if actor.Role == domain.RoleCustomer {
			return nil
		}
	case OpReadTicket, OpReadMessages:
		if canReadTicket(actor, ticket) {
			return nil
		}
	case OpPostMessage:
		if !canReadTicket(actor, ticket) {
			return util.NewAccessDenied("no access to ticket conversation")
		}
		if ticket.Status != domain.TicketStatusOpen {
			return util.NewAccessDenied("messages can only be posted to open tickets")
		}
		return nil
	case OpCloseTicket, OpReopenTicket:
		if actor.Role.IsStaff() && staffScopeCovers(actor, ticket) {
			return nil
		}
	case OpChooseResolution:
		if actor.Role == domain.RoleCustomer && ticket.CustomerID == actor.ID {
			return nil
		}
	case OpCreateEscalation:
		if actor.Role.IsStaff() && staffScopeCovers(actor, ticket) {
			return nil
		}
	case OpListEscalations, OpManageTeams, OpManageOrgs, OpManageUsers:
		if actor.Role.IsAdmin() {
			return nil
		}
	case OpExportTickets:
		if actor.Role.IsStaff() {
			return nil
		}
	}
	return util.NewAccessDenied("operation not permitted for role " + string(actor.Role))
}

func canReadTicket(actor domain.Actor, ticket TicketView) bool {
	switch {
	case actor.Role == domain.RoleCustomer:
		return ticket.CustomerID == actor.ID
	case actor.Role == domain.RoleSupervisoryAdmin:
		return true
	case actor.Role == domain.RoleAgent:
		return staffScopeCovers(actor, ticket)
	}
	return false
}

// staffScopeCovers checks team-tag scoping. Supervisory admins see across
// teams; agents only their own tag.
func staffScopeCovers(actor domain.Actor, ticket TicketView) bool {
	if actor.Role == domain.RoleSupervisoryAdmin {
		return true
	}
	if actor.TeamTag == nil || ticket.TeamTag == nil {
		return false
	}
	return *actor.TeamTag == *ticket.TeamTag
}
