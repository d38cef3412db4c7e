package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// TeamRepository manages team records.
type TeamRepository interface {
	Create(ctx context.Context, team *domain.Team) error
	Update(ctx context.Context, team *domain.Team) error
	GetByID(ctx context.Context, id string) (*domain.Team, error)
	GetByTag(ctx context.Context, tag string) (*domain.Team, error)
	ListByOrganization(ctx context.Context, organizationID string) ([]domain.Team, error)
}

type teamRepository struct {
	pool *pgxpool.Pool
}

// NewTeamRepository builds repository.
func NewTeamRepository(pool *pgxpool.Pool) TeamRepository {
	return &teamRepository{pool: pool}
}

func (r *teamRepository) Create(ctx context.Context, team *domain.Team) error {
	const query = `
        INSERT INTO teams (organization_id, tag, name, description, is_active)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		team.OrganizationID,
		team.Tag,
		team.Name,
		team.Description,
		team.IsActive,
	).Scan(&team.ID, &team.CreatedAt, &team.UpdatedAt)
}

func (r *teamRepository) Update(ctx context.Context, team *domain.Team) error {
	const query = `
        UPDATE teams SET tag=$1, name=$2, description=$3, is_active=$4, updated_at=NOW()
        WHERE id=$5`
	cmd, err := r.pool.Exec(ctx, query, team.Tag, team.Name, team.Description, team.IsActive, team.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *teamRepository) GetByID(ctx context.Context, id string) (*domain.Team, error) {
	const query = `
        SELECT id, organization_id, tag, name, description, is_active, created_at, updated_at
        FROM teams WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *teamRepository) GetByTag(ctx context.Context, tag string) (*domain.Team, error) {
	const query = `
        SELECT id, organization_id, tag, name, description, is_active, created_at, updated_at
        FROM teams WHERE tag=$1`
	return r.fetchSingle(ctx, query, tag)
}

func (r *teamRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Team, error) {
	var team domain.Team
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&team.ID,
		&team.OrganizationID,
		&team.Tag,
		&team.Name,
		&team.Description,
		&team.IsActive,
		&team.CreatedAt,
		&team.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *teamRepository) ListByOrganization(ctx context.Context, organizationID string) ([]domain.Team, error) {
	const query = `
        SELECT id, organization_id, tag, name, description, is_active, created_at, updated_at
        FROM teams WHERE organization_id=$1 ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Team
	for rows.Next() {
		var team domain.Team
		if err := rows.Scan(
			&team.ID,
			&team.OrganizationID,
			&team.Tag,
			&team.Name,
			&team.Description,
			&team.IsActive,
			&team.CreatedAt,
			&team.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, team)
	}
	return result, rows.Err()
}
