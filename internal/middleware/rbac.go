package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cast"

	"github.com/noah-isme/estate-crm-api/internal/utils"
)

// Roles carried in access tokens.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleAgent   = "agent"
)

// RequireRole ensures that the authenticated user possesses one of the allowed roles.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		normalized := strings.ToLower(strings.TrimSpace(role))
		if normalized != "" {
			allowed[normalized] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		role := strings.ToLower(strings.TrimSpace(cast.ToString(c.Locals(LocalUserRole))))
		if _, ok := allowed[role]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}
