// handlers/progression_routes.go
package handlers

import (
	"phish-sim-backend/middleware"
	"phish-sim-backend/services"

	"github.com/gofiber/fiber/v2"
)

type ProgressionHandlerDeps struct {
	Auth         middleware.TokenParser
	Progression  *services.ProgressionService
	Badges       *services.BadgeService
	Certificates *services.CertificateService
	Artifacts    *services.CertificateArtifactService
}

func SetupProgressionRoutes(app *fiber.App, deps ProgressionHandlerDeps) {
	requireAuth := middleware.RequireAuth(deps.Auth)

	app.Get("/api/badges", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"badges": deps.Badges.Catalog()})
	})

	app.Post("/api/attempts", requireAuth, func(c *fiber.Ctx) error {
		var req struct {
			ChallengeID string `json:"challenge_id" validate:"required"`
			ChosenID    string `json:"chosen_id" validate:"required"`
		}
		if err := parseBody(c, &req); err != nil {
			return respondError(c, "failed to record attempt", err)
		}

		result, err := deps.Progression.RecordAttempt(c.UserContext(), middleware.UserID(c), req.ChallengeID, req.ChosenID)
		if err != nil {
			return respondError(c, "failed to record attempt", err)
		}
		return c.JSON(result)
	})

	certs := app.Group("/api/certificates", requireAuth)

	certs.Get("/me", func(c *fiber.Ctx) error {
		list, err := deps.Certificates.ListCertificates(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, "failed to load certificates", err)
		}
		return c.JSON(fiber.Map{"certificates": list})
	})

	certs.Post("/generate", func(c *fiber.Ctx) error {
		var req struct {
			Level string `json:"level" validate:"omitempty,max=16"`
		}
		if len(c.Body()) > 0 {
			if err := parseBody(c, &req); err != nil {
				return respondError(c, "failed to generate certificate", err)
			}
		}

		cert, err := deps.Artifacts.Generate(c.UserContext(), middleware.UserID(c), req.Level)
		if err != nil {
			return respondError(c, "failed to generate certificate", err)
		}
		return c.JSON(fiber.Map{
			"url":         cert.ArtifactURL,
			"level":       cert.Level,
			"certificate": cert,
		})
	})
}
