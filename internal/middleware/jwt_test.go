package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func newJWTApp() *fiber.App {
	app := fiber.New()
	app.Use(JWTProtected(testSecret))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user":   c.Locals(LocalUserID),
			"role":   c.Locals(LocalUserRole),
			"tenant": c.Locals(LocalTenantID),
		})
	})
	return app
}

func TestJWTProtectedPopulatesActorAndTenant(t *testing.T) {
	app := newJWTApp()
	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":        "20003",
		"role":       "Agent",
		"company_id": float64(40001),
		"exp":        time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		User   int64  `json:"user"`
		Role   string `json:"role"`
		Tenant int64  `json:"tenant"`
	}
	decodeJSON(t, resp, &body)
	require.Equal(t, int64(20003), body.User)
	require.Equal(t, RoleAgent, body.Role)
	require.Equal(t, int64(40001), body.Tenant)
}

func TestJWTProtectedRejectsBadTokens(t *testing.T) {
	app := newJWTApp()

	cases := map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic abc",
		"wrong secret":   "Bearer " + signToken(t, "other", jwt.MapClaims{"sub": "20003"}),
		"no subject":     "Bearer " + signToken(t, testSecret, jwt.MapClaims{"role": "agent"}),
		"expired": "Bearer " + signToken(t, testSecret, jwt.MapClaims{
			"sub": "20003",
			"exp": time.Now().Add(-time.Hour).Unix(),
		}),
	}

	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}
