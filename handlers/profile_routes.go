package handlers

import (
	"phish-sim-backend/middleware"
	"phish-sim-backend/services"

	"github.com/gofiber/fiber/v2"
)

func SetupProfileRoutes(app *fiber.App, auth middleware.TokenParser, userService *services.UserService) {
	app.Get("/api/profile/me", middleware.RequireAuth(auth), func(c *fiber.Ctx) error {
		profile, err := userService.Profile(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, "failed to load profile", err)
		}
		return c.JSON(profile)
	})

	app.Get("/api/leaderboard", func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", services.DefaultLeaderboardLimit)
		entries, err := userService.Leaderboard(c.UserContext(), limit)
		if err != nil {
			return respondError(c, "failed to load leaderboard", err)
		}
		return c.JSON(fiber.Map{"leaderboard": entries})
	})
}
