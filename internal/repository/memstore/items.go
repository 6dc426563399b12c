package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

type item struct {
	ID             string
	Title          string
	Description    string
	Type           string
	Priority       string
	Status         string
	AreaID         int64
	AssignedTo     *string
	CreatedBy      string
	CreatedAt      time.Time
	LastModifiedAt time.Time
	LastModifiedBy *string
	CompletedAt    *time.Time
}

type itemTable struct {
	resource  string
	completed func(status string) bool
	rows      map[string]*item
}

func (s *Store) listItems(t *itemTable, f repository.ItemFilter) *repository.Page[item] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []item
	for _, row := range t.rows {
		if !matchesItem(row, f) {
			continue
		}
		matched = append(matched, *row)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})
	return paginate(matched, f.PageRequest)
}

func matchesItem(row *item, f repository.ItemFilter) bool {
	if !inSet(row.Status, f.Statuses) || !inSet(row.Priority, f.Priorities) || !inSet(row.Type, f.Types) {
		return false
	}
	if f.AssignedTo != nil && (row.AssignedTo == nil || *row.AssignedTo != *f.AssignedTo) {
		return false
	}
	if f.CreatedBy != nil && row.CreatedBy != *f.CreatedBy {
		return false
	}
	if f.DepartmentID != nil && row.AreaID != *f.DepartmentID {
		return false
	}
	if f.DateFrom != nil && row.CreatedAt.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && row.CreatedAt.After(*f.DateTo) {
		return false
	}
	if f.DateBefore != nil && !row.CreatedAt.Before(*f.DateBefore) {
		return false
	}
	if f.Search != "" && !containsFold(row.Title, f.Search) && !containsFold(row.Description, f.Search) {
		return false
	}
	return true
}

func (s *Store) getItem(t *itemTable, id string) (*item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := t.rows[id]
	if !ok {
		return nil, apperrors.NewNotFound(t.resource, map[string]any{"id": id})
	}
	copied := *row
	return &copied, nil
}

func (s *Store) insertItem(t *itemTable, row *item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkItemRefs(row); err != nil {
		return err
	}
	now := s.now()
	row.ID = newID()
	row.CreatedAt = now
	row.LastModifiedAt = now
	row.LastModifiedBy = ptr(row.CreatedBy)
	row.CompletedAt = nil
	stored := *row
	t.rows[row.ID] = &stored
	return nil
}

func (s *Store) updateItem(t *itemTable, id string, p repository.ItemPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := t.rows[id]
	if !ok {
		return apperrors.NewNotFound(t.resource, map[string]any{"id": id})
	}
	if p.ExpectedLastModifiedAt != nil && !current.LastModifiedAt.Equal(*p.ExpectedLastModifiedAt) {
		return apperrors.NewStoreError(apperrors.KindUpdateFailed, t.resource, apperrors.ErrPreconditionFailed)
	}

	next := *current
	if p.Title != nil {
		next.Title = *p.Title
	}
	if p.Description != nil {
		next.Description = *p.Description
	}
	if p.Type != nil {
		next.Type = *p.Type
	}
	if p.Priority != nil {
		next.Priority = *p.Priority
	}
	if p.AssignedTo.Set {
		next.AssignedTo = p.AssignedTo.Value
	}
	if p.DepartmentID != nil {
		next.AreaID = *p.DepartmentID
	}
	if p.Status != nil {
		next.Status = *p.Status
	}
	if p.CompletedAt.Set {
		next.CompletedAt = p.CompletedAt.Value
	}
	next.LastModifiedAt = p.ModifiedAt.UTC().Truncate(time.Microsecond)
	next.LastModifiedBy = ptr(p.ModifiedBy)

	if t.completed(next.Status) != (next.CompletedAt != nil) {
		return apperrors.NewValidationError("completion timestamp does not match status", map[string]any{"status": next.Status})
	}
	if err := s.checkItemRefs(&next); err != nil {
		return err
	}
	t.rows[id] = &next
	return nil
}

func (s *Store) deleteItem(t *itemTable, kind domain.ItemKind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := t.rows[id]; !ok {
		return apperrors.NewNotFound(t.resource, map[string]any{"id": id})
	}
	for _, a := range s.attachments {
		owner := a.IncidentID
		if kind == domain.KindRequirement {
			owner = a.RequirementID
		}
		if owner != nil && *owner == id {
			return apperrors.NewConflict(t.resource+" is referenced by other records", map[string]any{"constraint": "attachments"})
		}
	}
	delete(t.rows, id)
	return nil
}

func (s *Store) countItems(t *itemTable, status string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if status == "" {
		return len(t.rows)
	}
	n := 0
	for _, row := range t.rows {
		if row.Status == status {
			n++
		}
	}
	return n
}

// checkItemRefs mirrors the foreign keys of the item tables. Callers hold the lock.
func (s *Store) checkItemRefs(row *item) error {
	if _, ok := s.departments[row.AreaID]; !ok {
		return apperrors.NewConflict("department reference is invalid", map[string]any{"departmentId": row.AreaID})
	}
	if row.AssignedTo != nil {
		if _, ok := s.users[*row.AssignedTo]; !ok {
			return apperrors.NewConflict("assignee reference is invalid", map[string]any{"assignedTo": *row.AssignedTo})
		}
	}
	return nil
}

// names resolves the joined display columns. Callers hold the lock.
func (s *Store) names(row *item) (area, assignee, creator *string) {
	if dept, ok := s.departments[row.AreaID]; ok {
		area = ptr(dept.Name)
	}
	if row.AssignedTo != nil {
		assignee = s.displayName(*row.AssignedTo)
	}
	creator = s.displayName(row.CreatedBy)
	return area, assignee, creator
}

func (s *Store) displayName(userID string) *string {
	user, ok := s.users[userID]
	if !ok {
		return nil
	}
	if user.FullName != "" {
		return ptr(user.FullName)
	}
	return ptr(user.Email)
}

type incidentRepo struct{ s *Store }

func (r *incidentRepo) toDomain(row item) domain.Incident {
	r.s.mu.RLock()
	area, assignee, creator := r.s.names(&row)
	r.s.mu.RUnlock()
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
		AffectedAreaName: area,
		AssigneeName:     assignee,
		CreatorName:      creator,
	}
}

func (r *incidentRepo) List(_ context.Context, filter repository.ItemFilter) (*repository.Page[domain.Incident], error) {
	return repository.MapPage(r.s.listItems(&r.s.incidents, filter), r.toDomain), nil
}

func (r *incidentRepo) GetByID(_ context.Context, id string) (*domain.Incident, error) {
	row, err := r.s.getItem(&r.s.incidents, id)
	if err != nil {
		return nil, err
	}
	incident := r.toDomain(*row)
	return &incident, nil
}

func (r *incidentRepo) Create(_ context.Context, incident *domain.Incident) error {
	row := &item{
		Title:       incident.Title,
		Description: incident.Description,
		Type:        string(incident.Type),
		Priority:    string(incident.Priority),
		Status:      string(incident.Status),
		AreaID:      incident.AffectedAreaID,
		AssignedTo:  incident.AssignedTo,
		CreatedBy:   incident.CreatedBy,
	}
	if err := r.s.insertItem(&r.s.incidents, row); err != nil {
		return err
	}
	incident.ID = row.ID
	incident.CreatedAt = row.CreatedAt
	incident.LastModifiedAt = row.LastModifiedAt
	incident.LastModifiedBy = row.LastModifiedBy
	incident.ResolvedAt = nil
	return nil
}

func (r *incidentRepo) Update(_ context.Context, id string, patch repository.ItemPatch) error {
	return r.s.updateItem(&r.s.incidents, id, patch)
}

func (r *incidentRepo) Delete(_ context.Context, id string) error {
	return r.s.deleteItem(&r.s.incidents, domain.KindIncident, id)
}

func (r *incidentRepo) Count(_ context.Context, status domain.IncidentStatus) (int, error) {
	return r.s.countItems(&r.s.incidents, string(status)), nil
}

type requirementRepo struct{ s *Store }

func (r *requirementRepo) toDomain(row item) domain.Requirement {
	r.s.mu.RLock()
	area, assignee, creator := r.s.names(&row)
	r.s.mu.RUnlock()
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
		DepartmentName: area,
		AssigneeName:   assignee,
		CreatorName:    creator,
	}
}

func (r *requirementRepo) List(_ context.Context, filter repository.ItemFilter) (*repository.Page[domain.Requirement], error) {
	return repository.MapPage(r.s.listItems(&r.s.requirements, filter), r.toDomain), nil
}

func (r *requirementRepo) GetByID(_ context.Context, id string) (*domain.Requirement, error) {
	row, err := r.s.getItem(&r.s.requirements, id)
	if err != nil {
		return nil, err
	}
	requirement := r.toDomain(*row)
	return &requirement, nil
}

func (r *requirementRepo) Create(_ context.Context, requirement *domain.Requirement) error {
	row := &item{
		Title:       requirement.Title,
		Description: requirement.Description,
		Type:        string(requirement.Type),
		Priority:    string(requirement.Priority),
		Status:      string(requirement.Status),
		AreaID:      requirement.DepartmentID,
		AssignedTo:  requirement.AssignedTo,
		CreatedBy:   requirement.CreatedBy,
	}
	if err := r.s.insertItem(&r.s.requirements, row); err != nil {
		return err
	}
	requirement.ID = row.ID
	requirement.CreatedAt = row.CreatedAt
	requirement.LastModifiedAt = row.LastModifiedAt
	requirement.LastModifiedBy = row.LastModifiedBy
	requirement.DeliveredAt = nil
	return nil
}

func (r *requirementRepo) Update(_ context.Context, id string, patch repository.ItemPatch) error {
	return r.s.updateItem(&r.s.requirements, id, patch)
}

func (r *requirementRepo) Delete(_ context.Context, id string) error {
	return r.s.deleteItem(&r.s.requirements, domain.KindRequirement, id)
}

func (r *requirementRepo) Count(_ context.Context, status domain.RequirementStatus) (int, error) {
	return r.s.countItems(&r.s.requirements, string(status)), nil
}
