package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/domain"
)

// RequireRole ensures the principal carries one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.User.Role]; !exists {
			return fiber.NewError(http.StatusForbidden, "insufficient role")
		}
		return c.Next()
	}
}

// RequireStaff ensures the principal is agent or above.
func RequireStaff() fiber.Handler {
	return RequireRole(domain.RoleAgent, domain.RoleSupervisoryAdmin, domain.RoleSuperAdmin)
}

// RequireAdmin ensures the principal has management capability.
func RequireAdmin() fiber.Handler {
	return RequireRole(domain.RoleSupervisoryAdmin, domain.RoleSuperAdmin)
}

// RequireAuthenticated ensures the caller is logged in regardless of role.
func RequireAuthenticated() fiber.Handler {
	return RequireRole()
}
