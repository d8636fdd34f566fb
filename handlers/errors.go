package handlers

import (
	"errors"
	"fmt"
	"strings"

	"phish-sim-backend/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

var (
	errSinceHours = errors.New("since_hours must be positive")
	errNoSeedDir  = errors.New("SEED_DIR is not configured")
)

func statusFor(kind services.Kind) int {
	switch kind {
	case services.KindNotFound:
		return fiber.StatusNotFound
	case services.KindInvalidInput:
		return fiber.StatusBadRequest
	case services.KindConflict:
		return fiber.StatusConflict
	case services.KindUnauthorized:
		return fiber.StatusUnauthorized
	case services.KindForbidden:
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes err with the status of its kind. Internal errors keep
// a generic message and carry the detail in "cause".
func respondError(c *fiber.Ctx, fallback string, err error) error {
	kind := services.KindOf(err)
	status := statusFor(kind)
	if kind == services.KindInternal {
		return c.Status(status).JSON(fiber.Map{
			"error": fallback,
			"cause": err.Error(),
		})
	}
	msg := err.Error()
	var se *services.Error
	if errors.As(err, &se) && se.Err != nil {
		msg = se.Err.Error()
	}
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

// parseBody decodes and validates a JSON request body.
func parseBody(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return &services.Error{Kind: services.KindInvalidInput, Err: fmt.Errorf("invalid JSON: %w", err)}
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return &services.Error{Kind: services.KindInvalidInput, Err: fmt.Errorf("invalid fields: %s", strings.Join(fields, ", "))}
		}
		return &services.Error{Kind: services.KindInvalidInput, Err: err}
	}
	return nil
}
