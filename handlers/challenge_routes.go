package handlers

import (
	"phish-sim-backend/services"

	"github.com/gofiber/fiber/v2"
)

func SetupChallengeRoutes(app *fiber.App, challengeService *services.ChallengeService) {
	challenges := app.Group("/api/challenges")

	challenges.Get("/random", func(c *fiber.Ctx) error {
		ch, err := challengeService.Random(c.UserContext(), c.Query("exclude"))
		if err != nil {
			return respondError(c, "failed to fetch random challenge", err)
		}
		if ch == nil {
			return c.JSON(fiber.Map{"challenge": nil})
		}
		return c.JSON(fiber.Map{"challenge": ch.Public()})
	})

	challenges.Post("/generate", func(c *fiber.Ctx) error {
		var req struct {
			Difficulty string `json:"difficulty" validate:"omitempty,max=16"`
		}
		if len(c.Body()) > 0 {
			if err := parseBody(c, &req); err != nil {
				return respondError(c, "failed to generate challenge", err)
			}
		}
		ch, err := challengeService.Generate(c.UserContext(), req.Difficulty)
		if err != nil {
			return respondError(c, "failed to generate challenge", err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":        ch.ID,
			"challenge": ch,
		})
	})

	challenges.Get("/:id", func(c *fiber.Ctx) error {
		ch, err := challengeService.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, "failed to fetch challenge", err)
		}
		return c.JSON(fiber.Map{"challenge": ch.Public()})
	})
}
