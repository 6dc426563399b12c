package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// UserFilter narrows user listings.
type UserFilter struct {
	Role         *domain.RoleName
	DepartmentID *int64
	IsActive     *bool
	Search       string
	PageRequest
}

// UserPatch lists the user columns an update writes.
type UserPatch struct {
	FullName     *string
	RoleID       *int64
	DepartmentID Optional[int64]
	IsActive     *bool
}

// UserRepository defines persistence access for dashboard accounts.
type UserRepository interface {
	List(ctx context.Context, filter UserFilter) (*Page[domain.User], error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, id string, patch UserPatch) error
	Delete(ctx context.Context, id string) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userSelect = `
        SELECT u.id, u.email, u.full_name, u.password_hash, u.department_id, d.name,
               u.role_id, r.name, u.is_active, u.created_at, u.updated_at
        FROM users u
        JOIN roles r ON r.id = u.role_id
        LEFT JOIN departments d ON d.id = u.department_id`

func (r *userRepository) List(ctx context.Context, filter UserFilter) (*Page[domain.User], error) {
	req := filter.PageRequest.Normalize()

	var w whereBuilder
	if filter.Role != nil {
		w.add("r.name = %s", string(*filter.Role))
	}
	if filter.DepartmentID != nil {
		w.add("u.department_id = %s", *filter.DepartmentID)
	}
	if filter.IsActive != nil {
		w.add("u.is_active = %s", *filter.IsActive)
	}
	if strings.TrimSpace(filter.Search) != "" {
		w.add("(u.full_name ILIKE %s OR u.email ILIKE %s)", likePattern(filter.Search))
	}

	var total int
	countSQL := "SELECT COUNT(*) FROM users u JOIN roles r ON r.id = u.role_id" + w.sql()
	if err := r.pool.QueryRow(ctx, countSQL, w.args...).Scan(&total); err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "user", err)
	}
	page, offset := ResolvePage(req, total)
	if total == 0 {
		return NewPage[domain.User](nil, 0, req, page), nil
	}

	query := userSelect + w.sql() + fmt.Sprintf(" ORDER BY u.created_at DESC, u.id DESC LIMIT %d OFFSET %d", req.Limit, offset)
	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "user", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "user", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "user", err)
	}
	return NewPage(users, total, req, page), nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, userSelect+" WHERE u.id = $1", id))
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "user", err)
	}
	return user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, userSelect+" WHERE LOWER(u.email) = LOWER($1)", email))
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "user", err)
	}
	return user, nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	return insertUser(ctx, r.pool, user)
}

func (r *userRepository) Update(ctx context.Context, id string, patch UserPatch) error {
	var w whereBuilder
	sets := []string{"updated_at = NOW()"}
	if patch.FullName != nil {
		sets = append(sets, "full_name = "+w.arg(*patch.FullName))
	}
	if patch.RoleID != nil {
		sets = append(sets, "role_id = "+w.arg(*patch.RoleID))
	}
	if patch.DepartmentID.Set {
		sets = append(sets, "department_id = "+w.arg(patch.DepartmentID.Value))
	}
	if patch.IsActive != nil {
		sets = append(sets, "is_active = "+w.arg(*patch.IsActive))
	}

	query := fmt.Sprintf("UPDATE users SET %s WHERE id = %s", strings.Join(sets, ", "), w.arg(id))
	tag, err := r.pool.Exec(ctx, query, w.args...)
	if err != nil {
		return apperrors.NewStoreError(apperrors.KindUpdateFailed, "user", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFound("user", map[string]any{"id": id})
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return apperrors.NewStoreError(apperrors.KindDeleteFailed, "user", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFound("user", map[string]any{"id": id})
	}
	return nil
}

// insertUser is shared with the registration approval transaction.
func insertUser(ctx context.Context, q querier, user *domain.User) error {
	const query = `
        INSERT INTO users (email, full_name, password_hash, department_id, role_id, is_active)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	err := q.QueryRow(ctx, query,
		user.Email,
		user.FullName,
		user.PasswordHash,
		user.DepartmentID,
		user.RoleID,
		user.IsActive,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	return apperrors.NewStoreError(apperrors.KindInsertFailed, "user", err)
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FullName,
		&user.PasswordHash,
		&user.DepartmentID,
		&user.DepartmentName,
		&user.RoleID,
		&user.RoleName,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
