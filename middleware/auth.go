// middleware/auth.go
package middleware

import (
	"strings"

	"seikatsu-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const userIDKey = "user_id"

// JWTAuth validates the Bearer access token and puts the user id in c.Locals("user_id")
func JWTAuth(secret string, log logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(auth, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing bearer token",
			})
		}

		userID, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			log.WithField("path", c.Path()).Debugf("🚫 [AUTH] rejected token: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid token",
			})
		}

		c.Locals(userIDKey, userID)
		return c.Next()
	}
}

// UserID returns the authenticated user id (0 when JWTAuth did not run)
func UserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(userIDKey).(uint)
	return id
}
