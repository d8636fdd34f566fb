package handlers

import (
	"phish-sim-backend/models"
	"phish-sim-backend/services"

	"github.com/gofiber/fiber/v2"
)

type credentialsRequest struct {
	Name     string `json:"name" validate:"max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func publicUser(u *models.User) fiber.Map {
	return fiber.Map{
		"id":     u.ID,
		"name":   u.Name,
		"email":  u.Email,
		"points": u.Points,
		"level":  models.LevelForPoints(u.Points).Key,
	}
}

func SetupAuthRoutes(app *fiber.App, authService *services.AuthService) {
	auth := app.Group("/api/auth")

	auth.Post("/register", func(c *fiber.Ctx) error {
		var req credentialsRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, "registration failed", err)
		}
		user, token, err := authService.Register(c.UserContext(), req.Name, req.Email, req.Password)
		if err != nil {
			return respondError(c, "registration failed", err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"token": token,
			"user":  publicUser(user),
		})
	})

	auth.Post("/login", func(c *fiber.Ctx) error {
		var req credentialsRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, "login failed", err)
		}
		user, token, err := authService.Login(c.UserContext(), req.Email, req.Password)
		if err != nil {
			return respondError(c, "login failed", err)
		}
		return c.JSON(fiber.Map{
			"token": token,
			"user":  publicUser(user),
		})
	})
}
