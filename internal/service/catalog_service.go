package service

import (
	"context"
	"strings"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// CatalogService manages departments and exposes roles.
type CatalogService struct {
	departments repository.DepartmentRepository
	roles       repository.RoleRepository
}

// NewCatalogService constructs the service.
func NewCatalogService(repos *repository.Repositories) *CatalogService {
	return &CatalogService{departments: repos.Departments, roles: repos.Roles}
}

// DepartmentInput creates or edits a department. Nil fields are unchanged on
// edit.
type DepartmentInput struct {
	Name        *string
	ShortName   *string
	Description *string
	IsActive    *bool
}

// Departments lists departments; registration forms ask for active ones.
func (s *CatalogService) Departments(ctx context.Context, activeOnly bool) ([]domain.Department, error) {
	depts, err := s.departments.List(ctx, activeOnly)
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "department", err)
	}
	return depts, nil
}

// CreateDepartment adds a department.
func (s *CatalogService) CreateDepartment(ctx context.Context, p *domain.Principal, in DepartmentInput) (*domain.Department, error) {
	if err := auth.EnsureAdmin(p); err != nil {
		return nil, err
	}
	dept := &domain.Department{IsActive: true}
	if err := applyDepartment(dept, in); err != nil {
		return nil, err
	}
	if dept.Name == "" {
		return nil, apperrors.NewValidationError("name is required", map[string]any{"field": "name"})
	}
	if err := s.departments.Create(ctx, dept); err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindInsertFailed, "department", err)
	}
	return dept, nil
}

// UpdateDepartment edits a department.
func (s *CatalogService) UpdateDepartment(ctx context.Context, p *domain.Principal, id int64, in DepartmentInput) (*domain.Department, error) {
	if err := auth.EnsureAdmin(p); err != nil {
		return nil, err
	}
	dept, err := s.departments.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "department", err)
	}
	if err := applyDepartment(dept, in); err != nil {
		return nil, err
	}
	if err := s.departments.Update(ctx, dept); err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindUpdateFailed, "department", err)
	}
	return dept, nil
}

// Roles lists the role catalog.
func (s *CatalogService) Roles(ctx context.Context) ([]domain.Role, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "role", err)
	}
	return roles, nil
}

func applyDepartment(dept *domain.Department, in DepartmentInput) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return apperrors.NewValidationError("name is required", map[string]any{"field": "name"})
		}
		dept.Name = name
	}
	if in.ShortName != nil {
		dept.ShortName = strings.TrimSpace(*in.ShortName)
	}
	if in.Description != nil {
		dept.Description = strings.TrimSpace(*in.Description)
	}
	if in.IsActive != nil {
		dept.IsActive = *in.IsActive
	}
	return nil
}
