package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// NotificationRepository persists per-user inbox entries.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool, req PageRequest) (*Page[domain.Notification], error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository builds repository.
func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	const query = `
        INSERT INTO notifications (user_id, title, message, type, item_id, item_type)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, is_read, created_at`
	var itemType *string
	if n.ItemType != nil {
		s := string(*n.ItemType)
		itemType = &s
	}
	err := r.pool.QueryRow(ctx, query,
		n.UserID,
		n.Title,
		n.Message,
		string(n.Type),
		n.ItemID,
		itemType,
	).Scan(&n.ID, &n.IsRead, &n.CreatedAt)
	return apperrors.NewStoreError(apperrors.KindInsertFailed, "notification", err)
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, req PageRequest) (*Page[domain.Notification], error) {
	req = req.Normalize()
	var w whereBuilder
	w.add("user_id = %s", userID)
	if unreadOnly {
		w.clauses = append(w.clauses, "is_read = FALSE")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM notifications"+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "notification", err)
	}
	page, offset := ResolvePage(req, total)
	if total == 0 {
		return NewPage[domain.Notification](nil, 0, req, page), nil
	}

	query := `SELECT id, user_id, title, message, type, item_id, item_type, is_read, created_at FROM notifications` +
		w.sql() + fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d", req.Limit, offset)
	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "notification", err)
	}
	defer rows.Close()

	var items []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var itemType *string
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.ItemID, &itemType, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "notification", err)
		}
		if itemType != nil {
			kind := domain.ItemKind(*itemType)
			n.ItemType = &kind
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "notification", err)
	}
	return NewPage(items, total, req, page), nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id=$1 AND is_read = FALSE`, userID).Scan(&total)
	if err != nil {
		return 0, apperrors.NewStoreError(apperrors.KindQueryFailed, "notification", err)
	}
	return total, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return apperrors.NewStoreError(apperrors.KindUpdateFailed, "notification", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFound("notification", map[string]any{"id": id})
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE user_id=$1 AND is_read = FALSE`, userID)
	if err != nil {
		return 0, apperrors.NewStoreError(apperrors.KindUpdateFailed, "notification", err)
	}
	return tag.RowsAffected(), nil
}
