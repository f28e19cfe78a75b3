package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/calebhsu/swarmdesk/internal/security"
)

// AuthMiddleware creates a middleware for bearer token authentication.
// A nil token service disables auth and lets every request through.
func AuthMiddleware(tokens *security.TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tokens == nil {
			return c.Next()
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing authorization header",
			})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid authorization header format",
			})
		}

		claims, err := tokens.Validate(parts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid or expired token",
			})
		}

		c.Locals("clientID", claims.ClientID)

		return c.Next()
	}
}

// GetClientID gets the authenticated client ID from the context
func GetClientID(c *fiber.Ctx) string {
	clientID, ok := c.Locals("clientID").(string)
	if !ok {
		return ""
	}
	return clientID
}
