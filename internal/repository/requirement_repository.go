package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// RequirementRepository encapsulates requirement persistence.
type RequirementRepository interface {
	List(ctx context.Context, filter ItemFilter) (*Page[domain.Requirement], error)
	GetByID(ctx context.Context, id string) (*domain.Requirement, error)
	Create(ctx context.Context, requirement *domain.Requirement) error
	Update(ctx context.Context, id string, patch ItemPatch) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context, status domain.RequirementStatus) (int, error)
}

type requirementRepository struct {
	store itemStore
}

// NewRequirementRepository instantiates a Postgres-backed repository.
func NewRequirementRepository(pool *pgxpool.Pool) RequirementRepository {
	return &requirementRepository{store: itemStore{pool: pool, schema: requirementSchema}}
}

func (r *requirementRepository) List(ctx context.Context, filter ItemFilter) (*Page[domain.Requirement], error) {
	page, err := r.store.list(ctx, filter)
	if err != nil {
		return nil, err
	}
	return MapPage(page, requirementFromRow), nil
}

func (r *requirementRepository) GetByID(ctx context.Context, id string) (*domain.Requirement, error) {
	row, err := r.store.get(ctx, id)
	if err != nil {
		return nil, err
	}
	requirement := requirementFromRow(*row)
	return &requirement, nil
}

func (r *requirementRepository) Create(ctx context.Context, requirement *domain.Requirement) error {
	row := itemRow{
		Title:       requirement.Title,
		Description: requirement.Description,
		Type:        string(requirement.Type),
		Priority:    string(requirement.Priority),
		Status:      string(requirement.Status),
		AreaID:      requirement.DepartmentID,
		AssignedTo:  requirement.AssignedTo,
		CreatedBy:   requirement.CreatedBy,
	}
	if err := r.store.insert(ctx, &row); err != nil {
		return err
	}
	requirement.ID = row.ID
	requirement.CreatedAt = row.CreatedAt
	requirement.LastModifiedAt = row.LastModifiedAt
	requirement.LastModifiedBy = row.LastModifiedBy
	return nil
}

func (r *requirementRepository) Update(ctx context.Context, id string, patch ItemPatch) error {
	return r.store.update(ctx, id, patch)
}

func (r *requirementRepository) Delete(ctx context.Context, id string) error {
	return r.store.delete(ctx, id)
}

func (r *requirementRepository) Count(ctx context.Context, status domain.RequirementStatus) (int, error) {
	return r.store.count(ctx, string(status))
}

func requirementFromRow(row itemRow) domain.Requirement {
	return domain.Requirement{
		ID:             row.ID,
		Title:          row.Title,
		Description:    row.Description,
		Type:           domain.RequirementType(row.Type),
		Priority:       domain.Priority(row.Priority),
		Status:         domain.RequirementStatus(row.Status),
		DepartmentID:   row.AreaID,
		AssignedTo:     row.AssignedTo,
		CreatedBy:      row.CreatedBy,
		CreatedAt:      row.CreatedAt,
		LastModifiedAt: row.LastModifiedAt,
		LastModifiedBy: row.LastModifiedBy,
		DeliveredAt:    row.CompletedAt,
		DepartmentName: row.AreaName,
		AssigneeName:   row.AssigneeName,
		CreatorName:    row.CreatorName,
	}
}
