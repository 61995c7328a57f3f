package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/supercivilization/membership-service/internal/domain"
	apperrors "github.com/supercivilization/membership-service/pkg/util"
)

// RequireAuthenticated ensures a caller is authenticated, regardless of
// status or role.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// RequireActive ensures the caller's profile status is ACTIVE. Pending,
// suspended, banned and rejected members are refused.
func RequireActive() fiber.Handler {
	return func(c *fiber.Ctx) error {
		profile, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !profile.IsActive() {
			return apperrors.NewForbidden("active membership required")
		}
		return c.Next()
	}
}

// RequireRole ensures the caller holds one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		profile, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[profile.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireAdmin ensures the caller is an admin or superadmin.
func RequireAdmin() fiber.Handler {
	return RequireRole(domain.RoleAdmin, domain.RoleSuperadmin)
}
