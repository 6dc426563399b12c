package policy

import (
	"testing"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

type stubItem struct{ open bool }

func (s stubItem) IsOpen() bool { return s.open }

func TestComputePermissions(t *testing.T) {
	tests := []struct {
		name string
		role domain.RoleName
		item Item
		want PermissionView
	}{
		{
			name: "admin creating",
			role: domain.RoleAdmin,
			want: PermissionView{CanEditStatus: true, CanEditArea: true, CanEditContent: true},
		},
		{
			name: "admin on closed item",
			role: domain.RoleAdmin,
			item: stubItem{open: false},
			want: PermissionView{CanEditStatus: true, CanEditArea: true, CanEditContent: true},
		},
		{
			name: "technician creating",
			role: domain.RoleTechnician,
			want: PermissionView{CanEditArea: true, CanEditContent: true},
		},
		{
			name: "technician on open item",
			role: domain.RoleTechnician,
			item: stubItem{open: true},
			want: PermissionView{CanEditContent: true},
		},
		{
			name: "technician on progressed item",
			role: domain.RoleTechnician,
			item: stubItem{open: false},
			want: PermissionView{IsReadOnly: true},
		},
		{
			name: "requester",
			role: domain.RoleRequester,
			item: stubItem{open: true},
			want: PermissionView{IsReadOnly: true},
		},
		{
			name: "unknown role",
			role: domain.RoleName("auditor"),
			want: PermissionView{IsReadOnly: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputePermissions(tt.role, tt.item)
			if got.CanEditStatus != tt.want.CanEditStatus ||
				got.CanEditArea != tt.want.CanEditArea ||
				got.CanEditContent != tt.want.CanEditContent ||
				got.IsReadOnly != tt.want.IsReadOnly {
				t.Errorf("ComputePermissions(%q) = %+v, want flags %+v", tt.role, got, tt.want)
			}
		})
	}
}

func TestComputePermissionsAllowedFields(t *testing.T) {
	admin := ComputePermissions(domain.RoleAdmin, nil)
	for _, f := range []Field{FieldTitle, FieldStatus, FieldDepartment, FieldAssignedTo} {
		if !admin.Allows(f) {
			t.Errorf("admin should be allowed %q", f)
		}
	}

	tech := ComputePermissions(domain.RoleTechnician, stubItem{open: true})
	if len(tech.AllowedFields) != 5 {
		t.Fatalf("technician allowed fields = %v", tech.AllowedFields)
	}
	if tech.Allows(FieldStatus) || tech.Allows(FieldDepartment) {
		t.Errorf("technician must not be allowed status or area: %v", tech.AllowedFields)
	}

	requester := ComputePermissions(domain.RoleRequester, nil)
	if requester.AllowedFields == nil || len(requester.AllowedFields) != 0 {
		t.Errorf("requester allowed fields = %v, want empty non-nil", requester.AllowedFields)
	}
}

func TestComputePermissionsReturnsFreshSlices(t *testing.T) {
	first := ComputePermissions(domain.RoleAdmin, nil)
	first.AllowedFields[0] = "tampered"
	second := ComputePermissions(domain.RoleAdmin, nil)
	if second.AllowedFields[0] == "tampered" {
		t.Fatal("permission views share backing storage")
	}
}

func TestAuthorize(t *testing.T) {
	open := stubItem{open: true}
	progressed := stubItem{open: false}

	tests := []struct {
		name    string
		view    PermissionView
		changed []Field
		allowed bool
	}{
		{"technician edits content on open item", ComputePermissions(domain.RoleTechnician, open), []Field{FieldTitle, FieldPriority}, true},
		{"technician reassigns on open item", ComputePermissions(domain.RoleTechnician, open), []Field{FieldAssignedTo}, true},
		{"technician changes area on open item", ComputePermissions(domain.RoleTechnician, open), []Field{FieldDepartment}, false},
		{"technician changes status on open item", ComputePermissions(domain.RoleTechnician, open), []Field{FieldStatus}, false},
		{"technician edits content on progressed item", ComputePermissions(domain.RoleTechnician, progressed), []Field{FieldDescription}, false},
		{"technician sets area while creating", ComputePermissions(domain.RoleTechnician, nil), []Field{FieldDepartment, FieldTitle}, true},
		{"admin edits everything on progressed item", ComputePermissions(domain.RoleAdmin, progressed), allFields, true},
		{"requester edits title", ComputePermissions(domain.RoleRequester, open), []Field{FieldTitle}, false},
		{"no changes always pass", ComputePermissions(domain.RoleRequester, open), nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.view, tt.changed)
			if tt.allowed && err != nil {
				t.Fatalf("expected allowed, got %v", err)
			}
			if !tt.allowed {
				if err == nil {
					t.Fatal("expected forbidden, got nil")
				}
				if !apperrors.IsKind(err, apperrors.KindForbidden) {
					t.Fatalf("expected Forbidden kind, got %v", err)
				}
			}
		})
	}
}

func TestAllowsDelete(t *testing.T) {
	if !AllowsDelete(ComputePermissions(domain.RoleAdmin, stubItem{})) {
		t.Error("admin should delete any item")
	}
	if !AllowsDelete(ComputePermissions(domain.RoleTechnician, stubItem{open: true})) {
		t.Error("technician should delete open items")
	}
	if AllowsDelete(ComputePermissions(domain.RoleTechnician, stubItem{open: false})) {
		t.Error("technician must not delete progressed items")
	}
	if AllowsDelete(ComputePermissions(domain.RoleRequester, stubItem{open: true})) {
		t.Error("requester must not delete")
	}
}
