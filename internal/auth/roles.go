package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// EnsurePrivileged fails with Forbidden unless the principal is active and
// holds a role allowed to mutate items.
func EnsurePrivileged(principal *domain.Principal) error {
	if principal == nil {
		return apperrors.NewUnauthenticated("authentication required")
	}
	if !principal.IsActive {
		return apperrors.NewForbidden("account is inactive")
	}
	if !principal.RoleName.Privileged() {
		return apperrors.NewForbidden("admin or technician role required")
	}
	return nil
}

// EnsureAdmin fails with Forbidden unless the principal is an active admin.
func EnsureAdmin(principal *domain.Principal) error {
	if principal == nil {
		return apperrors.NewUnauthenticated("authentication required")
	}
	if !principal.IsActive || principal.RoleName != domain.RoleAdmin {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

// RequirePrivileged gates routes on EnsurePrivileged.
func RequirePrivileged() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, _ := PrincipalFromContext(c)
		if err := EnsurePrivileged(principal); err != nil {
			return err
		}
		return c.Next()
	}
}

// RequireAdmin gates routes on EnsureAdmin.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, _ := PrincipalFromContext(c)
		if err := EnsureAdmin(principal); err != nil {
			return err
		}
		return c.Next()
	}
}
