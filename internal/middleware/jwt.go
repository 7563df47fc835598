package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cast"

	"github.com/noah-isme/estate-crm-api/internal/utils"
)

// Locals keys populated by JWTProtected.
const (
	LocalUserID   = "user_id"
	LocalUserRole = "user_role"
	LocalTenantID = "tenant_id"
)

// JWTProtected returns a middleware that validates JWT bearer tokens. The
// subject becomes the acting user and the company_id claim the tenant.
func JWTProtected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := c.Get("Authorization")
		if authorization == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		const bearer = "Bearer "
		if !strings.HasPrefix(strings.ToLower(authorization), strings.ToLower(bearer)) {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}

		tokenString := strings.TrimSpace(authorization[len(bearer):])
		if tokenString == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		userID, ok := int64Claim(claims, "sub", "user_id")
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "token subject missing")
		}
		c.Locals(LocalUserID, userID)

		if role := roleClaim(claims); role != "" {
			c.Locals(LocalUserRole, role)
		}
		if tenantID, ok := int64Claim(claims, "company_id", "tenant_id"); ok {
			c.Locals(LocalTenantID, tenantID)
		}

		return c.Next()
	}
}

func int64Claim(claims jwt.MapClaims, keys ...string) (int64, bool) {
	for _, key := range keys {
		value, ok := claims[key]
		if !ok || value == nil {
			continue
		}
		parsed, err := cast.ToInt64E(value)
		if err == nil && parsed > 0 {
			return parsed, true
		}
	}
	return 0, false
}

func roleClaim(claims jwt.MapClaims) string {
	for _, key := range []string{"role", "roles"} {
		switch v := claims[key].(type) {
		case string:
			if role := strings.ToLower(strings.TrimSpace(v)); role != "" {
				return role
			}
		case []interface{}:
			for _, item := range v {
				if role := strings.ToLower(strings.TrimSpace(cast.ToString(item))); role != "" {
					return role
				}
			}
		}
	}
	return ""
}
