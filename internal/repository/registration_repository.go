package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// RegistrationRepository persists public sign-up requests.
type RegistrationRepository interface {
	Create(ctx context.Context, req *domain.RegistrationRequest) error
	GetByID(ctx context.Context, id string) (*domain.RegistrationRequest, error)
	List(ctx context.Context, status *domain.RegistrationStatus, page PageRequest) (*Page[domain.RegistrationRequest], error)
	HasPending(ctx context.Context, email string) (bool, error)
	// Approve creates user from the request and marks it approved atomically.
	Approve(ctx context.Context, id, reviewerID string, user *domain.User) error
	Reject(ctx context.Context, id, reviewerID string) error
}

type registrationRepository struct {
	pool *pgxpool.Pool
}

// NewRegistrationRepository builds repository.
func NewRegistrationRepository(pool *pgxpool.Pool) RegistrationRepository {
	return &registrationRepository{pool: pool}
}

const registrationSelect = `
        SELECT id, name, email, password_hash, department_id, requested_role, status, created_at, reviewed_by, reviewed_at
        FROM registration_requests`

func (r *registrationRepository) Create(ctx context.Context, req *domain.RegistrationRequest) error {
	const query = `
        INSERT INTO registration_requests (name, email, password_hash, department_id, requested_role, status)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		req.Name,
		req.Email,
		req.PasswordHash,
		req.DepartmentID,
		string(req.RequestedRole),
		string(req.Status),
	).Scan(&req.ID, &req.CreatedAt)
	return apperrors.NewStoreError(apperrors.KindInsertFailed, "registration request", err)
}

func (r *registrationRepository) GetByID(ctx context.Context, id string) (*domain.RegistrationRequest, error) {
	req, err := scanRegistration(r.pool.QueryRow(ctx, registrationSelect+" WHERE id=$1", id))
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "registration request", err)
	}
	return req, nil
}

func (r *registrationRepository) List(ctx context.Context, status *domain.RegistrationStatus, pageReq PageRequest) (*Page[domain.RegistrationRequest], error) {
	pageReq = pageReq.Normalize()
	var w whereBuilder
	if status != nil {
		w.add("status = %s", string(*status))
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM registration_requests"+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "registration request", err)
	}
	page, offset := ResolvePage(pageReq, total)
	if total == 0 {
		return NewPage[domain.RegistrationRequest](nil, 0, pageReq, page), nil
	}

	query := registrationSelect + w.sql() + fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d", pageReq.Limit, offset)
	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "registration request", err)
	}
	defer rows.Close()

	var items []domain.RegistrationRequest
	for rows.Next() {
		req, err := scanRegistration(rows)
		if err != nil {
			return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "registration request", err)
		}
		items = append(items, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "registration request", err)
	}
	return NewPage(items, total, pageReq, page), nil
}

func (r *registrationRepository) HasPending(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM registration_requests WHERE LOWER(email) = LOWER($1) AND status = 'pending')`,
		email,
	).Scan(&exists)
	if err != nil {
		return false, apperrors.NewStoreError(apperrors.KindQueryFailed, "registration request", err)
	}
	return exists, nil
}

func (r *registrationRepository) Approve(ctx context.Context, id, reviewerID string, user *domain.User) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return apperrors.NewStoreError(apperrors.KindUpdateFailed, "registration request", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := lockPending(ctx, tx, id); err != nil {
		return err
	}
	if err := insertUser(ctx, tx, user); err != nil {
		return err
	}
	if err := setReviewed(ctx, tx, id, reviewerID, domain.RegistrationApproved); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewStoreError(apperrors.KindUpdateFailed, "registration request", err)
	}
	return nil
}

func (r *registrationRepository) Reject(ctx context.Context, id, reviewerID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return apperrors.NewStoreError(apperrors.KindUpdateFailed, "registration request", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := lockPending(ctx, tx, id); err != nil {
		return err
	}
	if err := setReviewed(ctx, tx, id, reviewerID, domain.RegistrationRejected); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewStoreError(apperrors.KindUpdateFailed, "registration request", err)
	}
	return nil
}

func lockPending(ctx context.Context, q querier, id string) error {
	var status domain.RegistrationStatus
	err := q.QueryRow(ctx, `SELECT status FROM registration_requests WHERE id=$1 FOR UPDATE`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("registration request", map[string]any{"id": id})
		}
		return apperrors.NewStoreError(apperrors.KindQueryFailed, "registration request", err)
	}
	if status != domain.RegistrationPending {
		return apperrors.NewConflict("registration request already reviewed", map[string]any{"status": status})
	}
	return nil
}

func setReviewed(ctx context.Context, q querier, id, reviewerID string, status domain.RegistrationStatus) error {
	_, err := q.Exec(ctx,
		`UPDATE registration_requests SET status=$1, reviewed_by=$2, reviewed_at=NOW() WHERE id=$3`,
		string(status), reviewerID, id,
	)
	return apperrors.NewStoreError(apperrors.KindUpdateFailed, "registration request", err)
}

func scanRegistration(row pgx.Row) (*domain.RegistrationRequest, error) {
	var req domain.RegistrationRequest
	if err := row.Scan(
		&req.ID,
		&req.Name,
		&req.Email,
		&req.PasswordHash,
		&req.DepartmentID,
		&req.RequestedRole,
		&req.Status,
		&req.CreatedAt,
		&req.ReviewedBy,
		&req.ReviewedAt,
	); err != nil {
		return nil, err
	}
	return &req, nil
}
