package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// RoleRepository reads the role catalog.
type RoleRepository interface {
	List(ctx context.Context) ([]domain.Role, error)
	GetByName(ctx context.Context, name domain.RoleName) (*domain.Role, error)
}

type roleRepository struct {
	pool *pgxpool.Pool
}

// NewRoleRepository builds the repository.
func NewRoleRepository(pool *pgxpool.Pool) RoleRepository {
	return &roleRepository{pool: pool}
}

func (r *roleRepository) List(ctx context.Context) ([]domain.Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description, is_active FROM roles ORDER BY id`)
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "role", err)
	}
	defer rows.Close()

	result := []domain.Role{}
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "role", err)
		}
		result = append(result, *role)
	}
	return result, rows.Err()
}

func (r *roleRepository) GetByName(ctx context.Context, name domain.RoleName) (*domain.Role, error) {
	role, err := scanRole(r.pool.QueryRow(ctx, `SELECT id, name, description, is_active FROM roles WHERE name=$1`, string(name)))
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "role", err)
	}
	return role, nil
}

func scanRole(row pgx.Row) (*domain.Role, error) {
	var role domain.Role
	if err := row.Scan(&role.ID, &role.Name, &role.Description, &role.IsActive); err != nil {
		return nil, err
	}
	return &role, nil
}
