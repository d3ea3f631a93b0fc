package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/LasMinruk/SmartHealthcaremanagementSystem-sub000/config"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret, subject, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func newAuthApp(t *testing.T, role string) *fiber.App {
	t.Helper()
	cfg := &config.Config{JWTSecret: testSecret}
	auth := NewAuthMiddleware(cfg, zap.NewNop())

	app := fiber.New()
	app.Get("/protected", auth.Require(role), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"userID": c.Locals("userID"),
			"role":   c.Locals("role"),
		})
	})
	return app
}

func TestAuthMiddleware(t *testing.T) {
	app := newAuthApp(t, "patient")

	cases := []struct {
		name   string
		header string
		status int
	}{
		{name: "valid token", header: "Bearer " + signToken(t, testSecret, "PAT00001", "patient"), status: fiber.StatusOK},
		{name: "missing header", header: "", status: fiber.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", status: fiber.StatusUnauthorized},
		{name: "wrong secret", header: "Bearer " + signToken(t, "other-secret", "PAT00001", "patient"), status: fiber.StatusUnauthorized},
		{name: "wrong role", header: "Bearer " + signToken(t, testSecret, "doc-1", "doctor"), status: fiber.StatusForbidden},
		{name: "missing subject", header: "Bearer " + signToken(t, testSecret, "", "patient"), status: fiber.StatusForbidden},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/protected", nil)
			if c.header != "" {
				req.Header.Set("Authorization", c.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, c.status, resp.StatusCode)
		})
	}
}

func TestAuthMiddlewareRejectsExpiredToken(t *testing.T) {
	app := newAuthApp(t, "patient")

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "PAT00001",
		"role": "patient",
		"exp":  time.Now().Add(-time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
