// middleware/gateway.go
package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// ServiceTokenMiddleware guards admin routes with a shared service token.
// An empty expected token disables the routes entirely.
func ServiceTokenMiddleware(expected string, log logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if expected == "" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "admin routes disabled: ADMIN_SERVICE_TOKEN not set",
			})
		}

		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			log.WithField("path", c.Path()).Warn("🚫 [SERVICE_AUTH] missing Authorization header")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "service token missing",
			})
		}

		// accept "Bearer <token>" or the raw token
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
			log.WithField("path", c.Path()).Warn("❌ [SERVICE_AUTH] invalid service token")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid service token",
			})
		}
		return c.Next()
	}
}
