package handlers

import (
	"time"

	"phish-sim-backend/middleware"
	"phish-sim-backend/services"

	"github.com/gofiber/fiber/v2"
)

type AdminHandlerDeps struct {
	Token       string
	Progression *services.ProgressionService
	Challenges  *services.ChallengeService
	SeedDir     string
}

// SetupAdminRoutes mounts the operator endpoints. Nothing is mounted
// without a token.
func SetupAdminRoutes(app *fiber.App, deps AdminHandlerDeps) {
	if deps.Token == "" {
		return
	}
	admin := app.Group("/api/admin", middleware.RequireServiceToken(deps.Token))

	admin.Post("/reconcile", func(c *fiber.Ctx) error {
		hours := c.QueryInt("since_hours", 24)
		if hours <= 0 {
			return respondError(c, "reconcile failed", &services.Error{Kind: services.KindInvalidInput, Err: errSinceHours})
		}
		since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
		report, err := deps.Progression.Reconcile(c.UserContext(), since)
		if err != nil {
			return respondError(c, "reconcile failed", err)
		}
		return c.JSON(fiber.Map{
			"users":        report.Users,
			"badges":       report.Badges,
			"certificates": report.Certificates,
			"drifted":      report.Drifted,
		})
	})

	admin.Post("/challenges/import", func(c *fiber.Ctx) error {
		if deps.SeedDir == "" {
			return respondError(c, "import failed", &services.Error{Kind: services.KindInvalidInput, Err: errNoSeedDir})
		}
		n, err := deps.Challenges.ImportDir(c.UserContext(), deps.SeedDir)
		if err != nil {
			return respondError(c, "import failed", err)
		}
		return c.JSON(fiber.Map{"imported": n})
	})
}
