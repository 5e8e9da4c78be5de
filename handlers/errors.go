package handlers

import (
	"errors"
	"strconv"

	"seikatsu-backend/services"

	"github.com/gofiber/fiber/v2"
)

// statusFor maps service error kinds to HTTP codes. Refined kinds are checked before ErrValidation.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrInsufficientXP):
		return fiber.StatusPaymentRequired
	case errors.Is(err, services.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrValidation):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// fail writes {"error": msg, "cause": err} with the mapped status.
// Store failures are logged and keep their cause out of the response.
func (d *Deps) fail(c *fiber.Ctx, msg string, err error) error {
	status := statusFor(err)
	body := fiber.Map{"error": msg}
	if status == fiber.StatusInternalServerError {
		d.Log.WithError(err).WithField("path", c.Path()).Error(msg)
	} else {
		body["cause"] = err.Error()
	}
	return c.Status(status).JSON(body)
}

func badRequest(c *fiber.Ctx, msg string, cause error) error {
	body := fiber.Map{"error": msg}
	if cause != nil {
		body["cause"] = cause.Error()
	}
	return c.Status(fiber.StatusBadRequest).JSON(body)
}

func paramUint(c *fiber.Ctx, key string) (uint, error) {
	n, err := strconv.ParseUint(c.Params(key), 10, 64)
	if err != nil || n == 0 {
		return 0, errors.New(key + " must be a positive integer")
	}
	return uint(n), nil
}
