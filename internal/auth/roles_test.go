package auth

import (
	"testing"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func TestEnsurePrivileged(t *testing.T) {
	tests := []struct {
		name      string
		principal *domain.Principal
		kind      apperrors.Kind
	}{
		{"admin", &domain.Principal{RoleName: domain.RoleAdmin, IsActive: true}, ""},
		{"technician", &domain.Principal{RoleName: domain.RoleTechnician, IsActive: true}, ""},
		{"requester", &domain.Principal{RoleName: domain.RoleRequester, IsActive: true}, apperrors.KindForbidden},
		{"inactive admin", &domain.Principal{RoleName: domain.RoleAdmin}, apperrors.KindForbidden},
		{"nobody", nil, apperrors.KindUnauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := EnsurePrivileged(tt.principal)
			if tt.kind == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !apperrors.IsKind(err, tt.kind) {
				t.Fatalf("expected %s, got %v", tt.kind, err)
			}
		})
	}
}

func TestEnsureAdmin(t *testing.T) {
	if err := EnsureAdmin(&domain.Principal{RoleName: domain.RoleAdmin, IsActive: true}); err != nil {
		t.Fatalf("admin rejected: %v", err)
	}
	if err := EnsureAdmin(&domain.Principal{RoleName: domain.RoleTechnician, IsActive: true}); !apperrors.IsKind(err, apperrors.KindForbidden) {
		t.Fatalf("expected Forbidden for technician, got %v", err)
	}
}
