package middleware

import (
	"strings"

	"eventhub/internal/model"
	"eventhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

const (
	localUserID   = "user_id"
	localUserRole = "user_role"
)

// Authenticated verifies the JWT from the auth cookie, or from a Bearer
// Authorization header, and stores the caller's identity in locals.
func Authenticated(tokens *service.TokenService, cookieName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Cookies(cookieName)
		if raw == "" {
			if auth := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
				raw = strings.TrimSpace(auth[len("Bearer "):])
			}
		}
		if raw == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		claims, err := tokens.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals(localUserID, claims.Subject)
		c.Locals(localUserRole, claims.Role)

		return c.Next()
	}
}

// RequireRole rejects authenticated callers that do not hold role. It must
// run after Authenticated.
func RequireRole(role model.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if UserRole(c) != role {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Admin access required",
			})
		}
		return c.Next()
	}
}

// UserID returns the authenticated user's id, or "" outside Authenticated.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}

func UserRole(c *fiber.Ctx) model.Role {
	role, _ := c.Locals(localUserRole).(model.Role)
	return role
}
