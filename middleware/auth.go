package middleware

import (
	"net/http"
	"strings"

	"github.com/Abat-Hospital-Project/data-analyzer-backend/utils"
	"github.com/gofiber/fiber/v2"
)

// AuthRequired ensures the request carries a valid access token and
// injects the caller's identity into the request context.
func AuthRequired(tokens *utils.TokenIssuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Authorization header missing"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid Authorization header format"})
		}

		claims, err := tokens.Parse(parts[1], utils.TokenKindAccess)
		if err != nil {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
		}

		c.Locals("user_id", claims.UserID)
		c.Locals("email", claims.Email)
		return c.Next()
	}
}
