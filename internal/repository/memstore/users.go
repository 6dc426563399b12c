package memstore

import (
	"context"
	"sort"
	"strings"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

type userRepo struct{ s *Store }

// enrich fills the joined columns. Callers hold the lock.
func (s *Store) enrichUser(u domain.User) domain.User {
	if role, ok := s.roles[u.RoleID]; ok {
		u.RoleName = role.Name
	}
	u.DepartmentName = nil
	if u.DepartmentID != nil {
		if dept, ok := s.departments[*u.DepartmentID]; ok {
			u.DepartmentName = ptr(dept.Name)
		}
	}
	return u
}

func (r *userRepo) List(_ context.Context, f repository.UserFilter) (*repository.Page[domain.User], error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []domain.User
	for _, stored := range r.s.users {
		u := r.s.enrichUser(*stored)
		if f.Role != nil && u.RoleName != *f.Role {
			continue
		}
		if f.DepartmentID != nil && (u.DepartmentID == nil || *u.DepartmentID != *f.DepartmentID) {
			continue
		}
		if f.IsActive != nil && u.IsActive != *f.IsActive {
			continue
		}
		if f.Search != "" && !containsFold(u.FullName, f.Search) && !containsFold(u.Email, f.Search) {
			continue
		}
		matched = append(matched, u)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})
	return paginate(matched, f.PageRequest), nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	stored, ok := r.s.users[id]
	if !ok {
		return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
	}
	u := r.s.enrichUser(*stored)
	return &u, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, stored := range r.s.users {
		if strings.EqualFold(stored.Email, email) {
			u := r.s.enrichUser(*stored)
			return &u, nil
		}
	}
	return nil, apperrors.NewNotFound("user", map[string]any{"email": email})
}

func (r *userRepo) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.insertUser(user)
}

// insertUser enforces the users constraints. Callers hold the lock.
func (s *Store) insertUser(user *domain.User) error {
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return apperrors.NewConflict("user already exists", map[string]any{"constraint": "users_email_key"})
		}
	}
	if _, ok := s.roles[user.RoleID]; !ok {
		return apperrors.NewConflict("role reference is invalid", map[string]any{"roleId": user.RoleID})
	}
	if user.DepartmentID != nil {
		if _, ok := s.departments[*user.DepartmentID]; !ok {
			return apperrors.NewConflict("department reference is invalid", map[string]any{"departmentId": *user.DepartmentID})
		}
	}
	now := s.now()
	if user.ID == "" {
		user.ID = newID()
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	stored := *user
	s.users[user.ID] = &stored
	*user = s.enrichUser(stored)
	return nil
}

func (r *userRepo) Update(_ context.Context, id string, patch repository.UserPatch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.users[id]
	if !ok {
		return apperrors.NewNotFound("user", map[string]any{"id": id})
	}
	next := *current
	if patch.FullName != nil {
		next.FullName = *patch.FullName
	}
	if patch.RoleID != nil {
		if _, ok := r.s.roles[*patch.RoleID]; !ok {
			return apperrors.NewConflict("role reference is invalid", map[string]any{"roleId": *patch.RoleID})
		}
		next.RoleID = *patch.RoleID
	}
	if patch.DepartmentID.Set {
		if patch.DepartmentID.Value != nil {
			if _, ok := r.s.departments[*patch.DepartmentID.Value]; !ok {
				return apperrors.NewConflict("department reference is invalid", map[string]any{"departmentId": *patch.DepartmentID.Value})
			}
		}
		next.DepartmentID = patch.DepartmentID.Value
	}
	if patch.IsActive != nil {
		next.IsActive = *patch.IsActive
	}
	next.UpdatedAt = r.s.now()
	r.s.users[id] = &next
	return nil
}

func (r *userRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return apperrors.NewNotFound("user", map[string]any{"id": id})
	}
	if r.s.userReferenced(id) {
		return apperrors.NewConflict("user is referenced by other records", map[string]any{"id": id})
	}
	delete(r.s.users, id)
	for nid, n := range r.s.notifications {
		if n.UserID == id {
			delete(r.s.notifications, nid)
		}
	}
	return nil
}

// userReferenced mirrors the foreign keys pointing at users. Callers hold the lock.
func (s *Store) userReferenced(id string) bool {
	for _, table := range []*itemTable{&s.incidents, &s.requirements} {
		for _, row := range table.rows {
			if row.CreatedBy == id ||
				(row.AssignedTo != nil && *row.AssignedTo == id) ||
				(row.LastModifiedBy != nil && *row.LastModifiedBy == id) {
				return true
			}
		}
	}
	for _, a := range s.attachments {
		if a.UploadedBy == id {
			return true
		}
	}
	for _, req := range s.registrations {
		if req.ReviewedBy != nil && *req.ReviewedBy == id {
			return true
		}
	}
	return false
}

type roleRepo struct{ s *Store }

func (r *roleRepo) List(_ context.Context) ([]domain.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	result := make([]domain.Role, 0, len(r.s.roles))
	for _, role := range r.s.roles {
		result = append(result, *role)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *roleRepo) GetByName(_ context.Context, name domain.RoleName) (*domain.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, role := range r.s.roles {
		if role.Name == name {
			copied := *role
			return &copied, nil
		}
	}
	return nil, apperrors.NewNotFound("role", map[string]any{"name": name})
}

type departmentRepo struct{ s *Store }

func (r *departmentRepo) Create(_ context.Context, dept *domain.Department) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.departments {
		if existing.Name == dept.Name {
			return apperrors.NewConflict("department already exists", map[string]any{"constraint": "departments_name_key"})
		}
	}
	r.s.nextDeptID++
	now := r.s.now()
	dept.ID = r.s.nextDeptID
	dept.CreatedAt = now
	dept.UpdatedAt = now
	stored := *dept
	r.s.departments[dept.ID] = &stored
	return nil
}

func (r *departmentRepo) Update(_ context.Context, dept *domain.Department) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.departments[dept.ID]
	if !ok {
		return apperrors.NewNotFound("department", map[string]any{"id": dept.ID})
	}
	for id, existing := range r.s.departments {
		if id != dept.ID && existing.Name == dept.Name {
			return apperrors.NewConflict("department already exists", map[string]any{"constraint": "departments_name_key"})
		}
	}
	dept.CreatedAt = current.CreatedAt
	dept.UpdatedAt = r.s.now()
	stored := *dept
	r.s.departments[dept.ID] = &stored
	return nil
}

func (r *departmentRepo) GetByID(_ context.Context, id int64) (*domain.Department, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	dept, ok := r.s.departments[id]
	if !ok {
		return nil, apperrors.NewNotFound("department", map[string]any{"id": id})
	}
	copied := *dept
	return &copied, nil
}

func (r *departmentRepo) List(_ context.Context, activeOnly bool) ([]domain.Department, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	result := []domain.Department{}
	for _, dept := range r.s.departments {
		if activeOnly && !dept.IsActive {
			continue
		}
		result = append(result, *dept)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}
