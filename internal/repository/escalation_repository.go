package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// EscalationRepository stores resolution escalations.
type EscalationRepository interface {
	Create(ctx context.Context, escalation *domain.Escalation) error
	GetPendingByTicket(ctx context.Context, ticketID string) (*domain.Escalation, error)
	UpdateStatus(ctx context.Context, id string, status domain.EscalationStatus) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Escalation, error)
	List(ctx context.Context, status *domain.EscalationStatus, limit, offset int) ([]domain.Escalation, error)
}

type escalationRepository struct {
	pool *pgxpool.Pool
}

// NewEscalationRepository builds repository.
func NewEscalationRepository(pool *pgxpool.Pool) EscalationRepository {
	return &escalationRepository{pool: pool}
}

func (r *escalationRepository) Create(ctx context.Context, escalation *domain.Escalation) error {
	const query = `
        INSERT INTO escalations (ticket_id, suggested_by_agent_id, status, reason)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		escalation.TicketID,
		escalation.SuggestedByAgent,
		escalation.Status,
		escalation.Reason,
	).Scan(&escalation.ID, &escalation.CreatedAt, &escalation.UpdatedAt)
}

func (r *escalationRepository) GetPendingByTicket(ctx context.Context, ticketID string) (*domain.Escalation, error) {
	const query = `
        SELECT id, ticket_id, suggested_by_agent_id, status, reason, created_at, updated_at
        FROM escalations WHERE ticket_id=$1 AND status=$2
        ORDER BY created_at DESC LIMIT 1`
	var esc domain.Escalation
	if err := r.pool.QueryRow(ctx, query, ticketID, domain.EscalationStatusPending).Scan(
		&esc.ID,
		&esc.TicketID,
		&esc.SuggestedByAgent,
		&esc.Status,
		&esc.Reason,
		&esc.CreatedAt,
		&esc.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &esc, nil
}

func (r *escalationRepository) UpdateStatus(ctx context.Context, id string, status domain.EscalationStatus) error {
	const query = `UPDATE escalations SET status=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *escalationRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Escalation, error) {
	const query = `
        SELECT id, ticket_id, suggested_by_agent_id, status, reason, created_at, updated_at
        FROM escalations WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEscalations(rows)
}

func (r *escalationRepository) List(ctx context.Context, status *domain.EscalationStatus, limit, offset int) ([]domain.Escalation, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	if status != nil {
		const query = `
            SELECT id, ticket_id, suggested_by_agent_id, status, reason, created_at, updated_at
            FROM escalations WHERE status=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		rows, err := r.pool.Query(ctx, query, *status, limit, offset)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		return scanEscalations(rows)
	}
	const query = `
        SELECT id, ticket_id, suggested_by_agent_id, status, reason, created_at, updated_at
        FROM escalations ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEscalations(rows)
}

func scanEscalations(rows pgx.Rows) ([]domain.Escalation, error) {
	var result []domain.Escalation
	for rows.Next() {
		var esc domain.Escalation
		if err := rows.Scan(
			&esc.ID,
			&esc.TicketID,
			&esc.SuggestedByAgent,
			&esc.Status,
			&esc.Reason,
			&esc.CreatedAt,
			&esc.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, esc)
	}
	return result, rows.Err()
}
