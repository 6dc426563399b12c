package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// UserLookup is the slice of the user repository the resolver needs.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// Resolver turns a bearer credential into a Principal.
type Resolver struct {
	tokens *TokenManager
	users  UserLookup
}

// NewResolver constructs a resolver.
func NewResolver(tokens *TokenManager, users UserLookup) *Resolver {
	return &Resolver{tokens: tokens, users: users}
}

// Resolve validates the Authorization header value and loads the user it names.
func (r *Resolver) Resolve(ctx context.Context, authorization string) (*domain.Principal, error) {
	if authorization == "" {
		return nil, apperrors.NewUnauthenticated("missing authorization header")
	}
	parts := strings.SplitN(authorization, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return nil, apperrors.NewUnauthenticated("invalid authorization header")
	}

	claims, err := r.tokens.ParseToken(ctx, strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, apperrors.NewUnauthenticated("invalid or expired token")
	}

	user, err := r.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindNotFound) || apperrors.IsKind(err, apperrors.KindValidation) {
			return nil, apperrors.NewUnauthenticated("user not found")
		}
		return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "user", err)
	}
	return domain.PrincipalFromUser(user), nil
}

// Handle enforces authentication for protected routes.
func (r *Resolver) Handle(c *fiber.Ctx) error {
	principal, err := r.Resolve(c.UserContext(), c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return err
	}
	c.Locals(principalKey, principal)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated caller.
func PrincipalFromContext(c *fiber.Ctx) (*domain.Principal, bool) {
	principal, ok := c.Locals(principalKey).(*domain.Principal)
	return principal, ok && principal != nil
}
