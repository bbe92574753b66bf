package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eventhub/internal/middleware"
	"eventhub/internal/model"
	"eventhub/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(tokens *service.TokenService) *fiber.App {
	app := fiber.New()
	app.Use(middleware.SecurityHeaders())
	app.Get("/me", middleware.Authenticated(tokens, "token"), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"id": middleware.UserID(c), "role": middleware.UserRole(c)})
	})
	app.Get("/admin", middleware.Authenticated(tokens, "token"), middleware.RequireRole(model.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestAuthenticated(t *testing.T) {
	tokens := service.NewTokenService("secret", time.Hour)
	app := newApp(tokens)

	raw, err := tokens.Issue(model.User{ID: "user-1", Role: model.RoleStudent})
	require.NoError(t, err)

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{"no credentials", func(r *http.Request) {}, fiber.StatusUnauthorized},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "token", Value: raw}) }, fiber.StatusOK},
		{"bearer header", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+raw) }, fiber.StatusOK},
		{"garbage token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.setup(req)

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestRequireRole(t *testing.T) {
	tokens := service.NewTokenService("secret", time.Hour)
	app := newApp(tokens)

	student, err := tokens.Issue(model.User{ID: "s", Role: model.RoleStudent})
	require.NoError(t, err)
	admin, err := tokens.Issue(model.User{ID: "a", Role: model.RoleAdmin})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+student)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestSecurityHeaders(t *testing.T) {
	app := newApp(service.NewTokenService("secret", time.Hour))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/me", nil))
	require.NoError(t, err)

	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Empty(t, resp.Header.Get("Strict-Transport-Security"))
}
