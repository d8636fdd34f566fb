package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// RequireQueryToken authenticates EventSource requests, which cannot set
// headers, from the `token` query parameter.
func RequireQueryToken(tokens TokenParser) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := strings.TrimSpace(c.Query("token"))
		if token == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "missing token in query",
			})
		}

		userID, err := tokens.ParseToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}

		c.Locals("user_id", userID)
		return c.Next()
	}
}
