package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// SecurityHeaders adds security headers suited to a JSON API
func SecurityHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Responses are data, never documents
		c.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// Strict Transport Security (only for HTTPS)
		if c.Protocol() == "https" {
			c.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Set("Permissions-Policy",
			"camera=(), microphone=(), geolocation=(), payment=(), usb=()")

		return c.Next()
	}
}
