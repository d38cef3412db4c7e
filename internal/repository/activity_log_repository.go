package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// ActivityLogRepository is a write-only audit sink from the core's
// perspective; entries are appended and never read back by core logic.
type ActivityLogRepository interface {
	Append(ctx context.Context, entry *domain.ActivityLogEntry) error
}

type activityLogRepository struct {
	pool *pgxpool.Pool
}

// NewActivityLogRepository builds repository.
func NewActivityLogRepository(pool *pgxpool.Pool) ActivityLogRepository {
	return &activityLogRepository{pool: pool}
}

func (r *activityLogRepository) Append(ctx context.Context, entry *domain.ActivityLogEntry) error {
	const query = `
        INSERT INTO activity_log (user_id, action, details)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.UserID,
		entry.Action,
		entry.Details,
	).Scan(&entry.ID, &entry.CreatedAt)
}
