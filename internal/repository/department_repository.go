package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// DepartmentRepository manages the department catalog.
type DepartmentRepository interface {
	Create(ctx context.Context, dept *domain.Department) error
	Update(ctx context.Context, dept *domain.Department) error
	GetByID(ctx context.Context, id int64) (*domain.Department, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Department, error)
}

type departmentRepository struct {
	pool *pgxpool.Pool
}

// NewDepartmentRepository builds the repository.
func NewDepartmentRepository(pool *pgxpool.Pool) DepartmentRepository {
	return &departmentRepository{pool: pool}
}

func (r *departmentRepository) Create(ctx context.Context, dept *domain.Department) error {
	const query = `
        INSERT INTO departments (name, short_name, description, is_active)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		dept.Name,
		dept.ShortName,
		dept.Description,
		dept.IsActive,
	).Scan(&dept.ID, &dept.CreatedAt, &dept.UpdatedAt)
	return apperrors.NewStoreError(apperrors.KindInsertFailed, "department", err)
}

func (r *departmentRepository) Update(ctx context.Context, dept *domain.Department) error {
	const query = `
        UPDATE departments SET name=$1, short_name=$2, description=$3, is_active=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		dept.Name,
		dept.ShortName,
		dept.Description,
		dept.IsActive,
		dept.ID,
	).Scan(&dept.UpdatedAt)
	return apperrors.NewStoreError(apperrors.KindUpdateFailed, "department", err)
}

func (r *departmentRepository) GetByID(ctx context.Context, id int64) (*domain.Department, error) {
	const query = `
        SELECT id, name, short_name, description, is_active, created_at, updated_at
        FROM departments WHERE id=$1`
	dept, err := scanDepartment(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "department", err)
	}
	return dept, nil
}

func (r *departmentRepository) List(ctx context.Context, activeOnly bool) ([]domain.Department, error) {
	query := `
        SELECT id, name, short_name, description, is_active, created_at, updated_at
        FROM departments`
	if activeOnly {
		query += " WHERE is_active = TRUE"
	}
	query += " ORDER BY name"

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "department", err)
	}
	defer rows.Close()

	result := []domain.Department{}
	for rows.Next() {
		dept, err := scanDepartment(rows)
		if err != nil {
			return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "department", err)
		}
		result = append(result, *dept)
	}
	return result, rows.Err()
}

func scanDepartment(row pgx.Row) (*domain.Department, error) {
	var dept domain.Department
	if err := row.Scan(
		&dept.ID,
		&dept.Name,
		&dept.ShortName,
		&dept.Description,
		&dept.IsActive,
		&dept.CreatedAt,
		&dept.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &dept, nil
}
