package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// IncidentRepository encapsulates incident persistence.
type IncidentRepository interface {
	List(ctx context.Context, filter ItemFilter) (*Page[domain.Incident], error)
	GetByID(ctx context.Context, id string) (*domain.Incident, error)
	Create(ctx context.Context, incident *domain.Incident) error
	Update(ctx context.Context, id string, patch ItemPatch) error
	Delete(ctx context.Context, id string) error
	// Count returns the number of incidents in status, or all incidents when
	// status is empty.
	Count(ctx context.Context, status domain.IncidentStatus) (int, error)
}

type incidentRepository struct {
	store itemStore
}

// NewIncidentRepository instantiates a Postgres-backed repository.
func NewIncidentRepository(pool *pgxpool.Pool) IncidentRepository {
	return &incidentRepository{store: itemStore{pool: pool, schema: incidentSchema}}
}

func (r *incidentRepository) List(ctx context.Context, filter ItemFilter) (*Page[domain.Incident], error) {
	page, err := r.store.list(ctx, filter)
	if err != nil {
		return nil, err
	}
	return MapPage(page, incidentFromRow), nil
}

func (r *incidentRepository) GetByID(ctx context.Context, id string) (*domain.Incident, error) {
	row, err := r.store.get(ctx, id)
	if err != nil {
		return nil, err
	}
	incident := incidentFromRow(*row)
	return &incident, nil
}

func (r *incidentRepository) Create(ctx context.Context, incident *domain.Incident) error {
	row := itemRow{
		Title:       incident.Title,
		Description: incident.Description,
		Type:        string(incident.Type),
		Priority:    string(incident.Priority),
		Status:      string(incident.Status),
		AreaID:      incident.AffectedAreaID,
		AssignedTo:  incident.AssignedTo,
		CreatedBy:   incident.CreatedBy,
	}
	if err := r.store.insert(ctx, &row); err != nil {
		return err
	}
	incident.ID = row.ID
	incident.CreatedAt = row.CreatedAt
	incident.LastModifiedAt = row.LastModifiedAt
	incident.LastModifiedBy = row.LastModifiedBy
	return nil
}

func (r *incidentRepository) Update(ctx context.Context, id string, patch ItemPatch) error {
	return r.store.update(ctx, id, patch)
}

func (r *incidentRepository) Delete(ctx context.Context, id string) error {
	return r.store.delete(ctx, id)
}

func (r *incidentRepository) Count(ctx context.Context, status domain.IncidentStatus) (int, error) {
	return r.store.count(ctx, string(status))
}

func incidentFromRow(row itemRow) domain.Incident {
	return domain.Incident{
		ID:               row.ID,
		Title:            row.Title,
		Description:      row.Description,
		Type:             domain.IncidentType(row.Type),
		Priority:         domain.Priority(row.Priority),
		Status:           domain.IncidentStatus(row.Status),
		AffectedAreaID:   row.AreaID,
		AssignedTo:       row.AssignedTo,
		CreatedBy:        row.CreatedBy,
		CreatedAt:        row.CreatedAt,
		LastModifiedAt:   row.LastModifiedAt,
		LastModifiedBy:   row.LastModifiedBy,
		ResolvedAt:       row.CompletedAt,
		AffectedAreaName: row.AreaName,
		AssigneeName:     row.AssigneeName,
		CreatorName:      row.CreatorName,
	}
}
