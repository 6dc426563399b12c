package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// ActivityRepository stores the append-only audit trail.
type ActivityRepository interface {
	Append(ctx context.Context, entry *domain.ActivityLogEntry) error
	ListByItem(ctx context.Context, itemID string, limit int) ([]domain.ActivityLogEntry, error)
	ListRecent(ctx context.Context, limit int) ([]domain.ActivityLogEntry, error)
}

type activityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository builds repository.
func NewActivityRepository(pool *pgxpool.Pool) ActivityRepository {
	return &activityRepository{pool: pool}
}

func (r *activityRepository) Append(ctx context.Context, entry *domain.ActivityLogEntry) error {
	const query = `
        INSERT INTO activity_log (type, action, title, description, user_id, item_id)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		string(entry.Type),
		string(entry.Action),
		entry.Title,
		entry.Description,
		entry.UserID,
		entry.ItemID,
	).Scan(&entry.ID, &entry.CreatedAt)
	return apperrors.NewStoreError(apperrors.KindInsertFailed, "activity log entry", err)
}

func (r *activityRepository) ListByItem(ctx context.Context, itemID string, limit int) ([]domain.ActivityLogEntry, error) {
	const query = `
        SELECT id, type, action, title, description, user_id, item_id, created_at
        FROM activity_log WHERE item_id=$1 ORDER BY created_at DESC LIMIT $2`
	return r.query(ctx, query, itemID, clampLimit(limit))
}

func (r *activityRepository) ListRecent(ctx context.Context, limit int) ([]domain.ActivityLogEntry, error) {
	const query = `
        SELECT id, type, action, title, description, user_id, item_id, created_at
        FROM activity_log ORDER BY created_at DESC LIMIT $1`
	return r.query(ctx, query, clampLimit(limit))
}

func (r *activityRepository) query(ctx context.Context, query string, args ...any) ([]domain.ActivityLogEntry, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "activity log entry", err)
	}
	defer rows.Close()

	result := []domain.ActivityLogEntry{}
	for rows.Next() {
		var entry domain.ActivityLogEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.Type,
			&entry.Action,
			&entry.Title,
			&entry.Description,
			&entry.UserID,
			&entry.ItemID,
			&entry.CreatedAt,
		); err != nil {
			return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "activity log entry", err)
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func clampLimit(limit int) int {
	return PageRequest{Limit: limit}.Normalize().Limit
}
