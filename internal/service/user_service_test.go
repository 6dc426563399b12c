package service

import (
	"context"
	"testing"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func TestUserAdministration(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.repos)
	ctx := context.Background()

	me, err := svc.Me(ctx, f.requester)
	if err != nil || me.Email != "req@example.com" {
		t.Fatalf("me = %+v, %v", me, err)
	}
	if _, err := svc.Get(ctx, f.requester, f.tech.ID); !apperrors.IsKind(err, apperrors.KindForbidden) {
		t.Fatalf("requester reading others: got %v", err)
	}
	if _, err := svc.List(ctx, f.requester, repository.UserFilter{}); !apperrors.IsKind(err, apperrors.KindForbidden) {
		t.Fatalf("requester listing: got %v", err)
	}

	techRole := domain.RoleTechnician
	page, err := svc.List(ctx, f.tech, repository.UserFilter{Role: &techRole})
	if err != nil || page.Total != 1 {
		t.Fatalf("technicians = %+v, %v", page, err)
	}

	promoted := domain.RoleAdmin
	updated, err := svc.Update(ctx, f.admin, f.requester.ID, UserUpdate{Role: &promoted, DepartmentID: repository.Some(&f.dept.ID)})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.RoleName != domain.RoleAdmin || updated.DepartmentName == nil {
		t.Fatalf("updated = %+v", updated)
	}

	demoted := domain.RoleRequester
	if _, err := svc.Update(ctx, f.admin, f.admin.ID, UserUpdate{Role: &demoted}); !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Fatalf("self demotion: got %v", err)
	}
	if _, err := svc.Update(ctx, f.tech, f.requester.ID, UserUpdate{Role: &demoted}); !apperrors.IsKind(err, apperrors.KindForbidden) {
		t.Fatalf("technician update: got %v", err)
	}
	if err := svc.Delete(ctx, f.admin, f.admin.ID); !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Fatalf("self delete: got %v", err)
	}

	f.openIncident(t, "made by tech")
	if err := svc.Delete(ctx, f.admin, f.tech.ID); !apperrors.IsKind(err, apperrors.KindConflict) {
		t.Fatalf("referenced delete: got %v", err)
	}
	if err := svc.Delete(ctx, f.admin, f.requester.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestCatalog(t *testing.T) {
	f := newFixture(t)
	svc := NewCatalogService(f.repos)
	ctx := context.Background()

	name := "Human Resources"
	dept, err := svc.CreateDepartment(ctx, f.admin, DepartmentInput{Name: &name, ShortName: strPtr("HR")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.CreateDepartment(ctx, f.admin, DepartmentInput{Name: &name}); !apperrors.IsKind(err, apperrors.KindConflict) {
		t.Fatalf("duplicate: got %v", err)
	}
	if _, err := svc.CreateDepartment(ctx, f.tech, DepartmentInput{Name: strPtr("Legal")}); !apperrors.IsKind(err, apperrors.KindForbidden) {
		t.Fatalf("technician create: got %v", err)
	}

	inactive := false
	if _, err := svc.UpdateDepartment(ctx, f.admin, dept.ID, DepartmentInput{IsActive: &inactive}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	active, _ := svc.Departments(ctx, true)
	all, _ := svc.Departments(ctx, false)
	if len(active) != 1 || len(all) != 2 {
		t.Fatalf("active = %d all = %d", len(active), len(all))
	}

	_, err = f.incidents.Create(ctx, f.tech, ItemInput{Title: "x", DepartmentID: dept.ID})
	if !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Fatalf("inactive department: got %v", err)
	}

	roles, err := svc.Roles(ctx)
	if err != nil || len(roles) != 3 {
		t.Fatalf("roles = %+v, %v", roles, err)
	}
}
