package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
)

// In-memory repository fakes. The real repositories are thin pgx wrappers;
// the fakes reproduce their contract (pgx.ErrNoRows on missing rows, CAS on
// ticket version) so the services can be exercised without a database.

type fakeTicketRepo struct {
	mu      sync.Mutex
	seq     int
	tickets map[string]*domain.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[string]*domain.Ticket)}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	ticket.ID = fmt.Sprintf("ticket-%d", r.seq)
	ticket.Version = 1
	now := time.Now()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	stored := *ticket
	r.tickets[ticket.ID] = &stored
	return nil
}

func (r *fakeTicketRepo) UpdateStatus(_ context.Context, ticket *domain.Ticket, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[ticket.ID]
	if !ok || stored.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	stored.Status = ticket.Status
	stored.LastClosedBy = ticket.LastClosedBy
	stored.Version++
	stored.UpdatedAt = time.Now()
	ticket.Version = stored.Version
	ticket.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *fakeTicketRepo) UpdateAssignee(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.AssigneeID = ticket.AssigneeID
	stored.TeamTag = ticket.TeamTag
	stored.UpdatedAt = time.Now()
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	ticket := *stored
	return &ticket, nil
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Ticket, 0)
	for i := 1; i <= r.seq; i++ {
		stored, ok := r.tickets[fmt.Sprintf("ticket-%d", i)]
		if !ok {
			continue
		}
		if filter.CustomerID != nil && stored.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.TeamTag != nil && (stored.TeamTag == nil || *stored.TeamTag != *filter.TeamTag) {
			continue
		}
		if filter.AssigneeID != nil && (stored.AssigneeID == nil || *stored.AssigneeID != *filter.AssigneeID) {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, stored.Status) {
			continue
		}
		if filter.SearchTerm != nil && !strings.Contains(stored.Title, *filter.SearchTerm) {
			continue
		}
		out = append(out, *stored)
	}
	return out, nil
}

func containsStatus(statuses []domain.TicketStatus, status domain.TicketStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	seq      int
	messages []domain.Message
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{}
}

func (r *fakeMessageRepo) Create(_ context.Context, msg *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	msg.ID = fmt.Sprintf("msg-%d", r.seq)
	msg.CreatedAt = time.Now()
	r.messages = append(r.messages, *msg)
	return nil
}

func (r *fakeMessageRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Message, 0)
	for _, msg := range r.messages {
		if msg.TicketID == ticketID {
			out = append(out, msg)
		}
	}
	return out, nil
}

type fakeEscalationRepo struct {
	mu          sync.Mutex
	seq         int
	escalations []domain.Escalation
}

func newFakeEscalationRepo() *fakeEscalationRepo {
	return &fakeEscalationRepo{}
}

func (r *fakeEscalationRepo) Create(_ context.Context, escalation *domain.Escalation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	escalation.ID = fmt.Sprintf("esc-%d", r.seq)
	now := time.Now()
	escalation.CreatedAt = now
	escalation.UpdatedAt = now
	r.escalations = append(r.escalations, *escalation)
	return nil
}

func (r *fakeEscalationRepo) GetPendingByTicket(_ context.Context, ticketID string) (*domain.Escalation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.escalations {
		if r.escalations[i].TicketID == ticketID && r.escalations[i].Status == domain.EscalationStatusPending {
			escalation := r.escalations[i]
			return &escalation, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeEscalationRepo) UpdateStatus(_ context.Context, id string, status domain.EscalationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.escalations {
		if r.escalations[i].ID == id {
			r.escalations[i].Status = status
			r.escalations[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *fakeEscalationRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Escalation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Escalation, 0)
	for _, escalation := range r.escalations {
		if escalation.TicketID == ticketID {
			out = append(out, escalation)
		}
	}
	return out, nil
}

func (r *fakeEscalationRepo) List(_ context.Context, status *domain.EscalationStatus, _, _ int) ([]domain.Escalation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Escalation, 0)
	for _, escalation := range r.escalations {
		if status != nil && escalation.Status != *status {
			continue
		}
		out = append(out, escalation)
	}
	return out, nil
}

type fakeActivityRepo struct {
	mu      sync.Mutex
	entries []domain.ActivityLogEntry
	failErr error
}

func newFakeActivityRepo() *fakeActivityRepo {
	return &fakeActivityRepo{}
}

func (r *fakeActivityRepo) Append(_ context.Context, entry *domain.ActivityLogEntry) error {
	if r.failErr != nil {
		return r.failErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = fmt.Sprintf("act-%d", len(r.entries)+1)
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeActivityRepo) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for _, entry := range r.entries {
		out = append(out, entry.Action)
	}
	return out
}

type fakeTeamRepo struct {
	mu    sync.Mutex
	seq   int
	teams map[string]*domain.Team
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{teams: make(map[string]*domain.Team)}
}

func (r *fakeTeamRepo) Create(_ context.Context, team *domain.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	team.ID = fmt.Sprintf("team-%d", r.seq)
	now := time.Now()
	team.CreatedAt = now
	team.UpdatedAt = now
	stored := *team
	r.teams[team.Tag] = &stored
	return nil
}

func (r *fakeTeamRepo) Update(_ context.Context, team *domain.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.teams[team.Tag]
	if !ok {
		return pgx.ErrNoRows
	}
	*stored = *team
	return nil
}

func (r *fakeTeamRepo) GetByID(_ context.Context, id string) (*domain.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.teams {
		if stored.ID == id {
			team := *stored
			return &team, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTeamRepo) GetByTag(_ context.Context, tag string) (*domain.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.teams[tag]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	team := *stored
	return &team, nil
}

func (r *fakeTeamRepo) ListByOrganization(_ context.Context, organizationID string) ([]domain.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Team, 0)
	for _, stored := range r.teams {
		if stored.OrganizationID == organizationID {
			out = append(out, *stored)
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == "" {
		r.seq++
		user.ID = fmt.Sprintf("user-%d", r.seq)
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	user := *stored
	return &user, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.users {
		if stored.Email == email {
			user := *stored
			return &user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) List(_ context.Context, _, _ int) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.User, 0, len(r.users))
	for _, stored := range r.users {
		out = append(out, *stored)
	}
	return out, nil
}

func strPtr(s string) *string {
	return &s
}
