package service

import (
	"context"
	"strings"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// UserService manages dashboard accounts.
type UserService struct {
	users       repository.UserRepository
	roles       repository.RoleRepository
	departments repository.DepartmentRepository
}

// NewUserService constructs the service.
func NewUserService(repos *repository.Repositories) *UserService {
	return &UserService{users: repos.Users, roles: repos.Roles, departments: repos.Departments}
}

// UserUpdate is an admin edit of an account. Nil fields are unchanged.
type UserUpdate struct {
	FullName     *string
	Role         *domain.RoleName
	DepartmentID repository.Optional[int64]
	IsActive     *bool
}

// Me returns the caller's own account.
func (s *UserService) Me(ctx context.Context, p *domain.Principal) (*domain.User, error) {
	if p == nil {
		return nil, apperrors.NewUnauthenticated("authentication required")
	}
	user, err := s.users.GetByID(ctx, p.ID)
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "user", err)
	}
	return user, nil
}

// List pages through accounts. Assignee pickers use it, so technicians may
// call it too.
func (s *UserService) List(ctx context.Context, p *domain.Principal, filter repository.UserFilter) (*repository.Page[domain.User], error) {
	if err := auth.EnsurePrivileged(p); err != nil {
		return nil, err
	}
	if filter.Role != nil && !filter.Role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": *filter.Role})
	}
	filter.Search = strings.TrimSpace(filter.Search)
	page, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "user", err)
	}
	return page, nil
}

// Get returns an account. Requesters may only read their own.
func (s *UserService) Get(ctx context.Context, p *domain.Principal, id string) (*domain.User, error) {
	if p == nil {
		return nil, apperrors.NewUnauthenticated("authentication required")
	}
	if id != p.ID {
		if err := auth.EnsurePrivileged(p); err != nil {
			return nil, err
		}
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "user", err)
	}
	return user, nil
}

// Update edits an account. Admins cannot demote or deactivate themselves.
func (s *UserService) Update(ctx context.Context, p *domain.Principal, id string, in UserUpdate) (*domain.User, error) {
	if err := auth.EnsureAdmin(p); err != nil {
		return nil, err
	}
	if id == p.ID {
		if in.Role != nil && *in.Role != domain.RoleAdmin {
			return nil, apperrors.NewValidationError("admins cannot change their own role", nil)
		}
		if in.IsActive != nil && !*in.IsActive {
			return nil, apperrors.NewValidationError("admins cannot deactivate themselves", nil)
		}
	}

	patch := repository.UserPatch{IsActive: in.IsActive, DepartmentID: in.DepartmentID}
	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		patch.FullName = &name
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": *in.Role})
		}
		role, err := s.roles.GetByName(ctx, *in.Role)
		if err != nil {
			return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "role", err)
		}
		patch.RoleID = &role.ID
	}
	if in.DepartmentID.Set && in.DepartmentID.Value != nil {
		if _, err := s.departments.GetByID(ctx, *in.DepartmentID.Value); err != nil {
			if apperrors.IsKind(err, apperrors.KindNotFound) {
				return nil, apperrors.NewValidationError("department does not exist", map[string]any{"departmentId": *in.DepartmentID.Value})
			}
			return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "department", err)
		}
	}

	if err := s.users.Update(ctx, id, patch); err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindUpdateFailed, "user", err)
	}
	return s.Get(ctx, p, id)
}

// Delete removes an account that nothing references.
func (s *UserService) Delete(ctx context.Context, p *domain.Principal, id string) error {
	if err := auth.EnsureAdmin(p); err != nil {
		return err
	}
	if id == p.ID {
		return apperrors.NewValidationError("admins cannot delete themselves", nil)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return apperrors.NewStoreError(apperrors.KindDeleteFailed, "user", err)
	}
	return nil
}
