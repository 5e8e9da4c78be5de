package handlers

import (
	"seikatsu-backend/services"

	"github.com/gofiber/fiber/v2"
)

func SetupAuthRoutes(api fiber.Router, d *Deps) {
	api.Post("/auth/register", func(c *fiber.Ctx) error {
		var in services.RegisterInput
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c, "invalid request body", err)
		}
		u, err := d.Users.Register(c.UserContext(), in)
		if err != nil {
			return d.fail(c, "registration failed", err)
		}
		return c.Status(fiber.StatusCreated).JSON(u)
	})

	api.Post("/auth/login", func(c *fiber.Ctx) error {
		var in struct {
			Username string `json:"username"`
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c, "invalid request body", err)
		}
		identifier := in.Username
		if identifier == "" {
			identifier = in.Email
		}
		res, err := d.Users.Login(c.UserContext(), identifier, in.Password)
		if err != nil {
			if statusFor(err) == fiber.StatusBadRequest {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid username or password"})
			}
			return d.fail(c, "login failed", err)
		}
		return c.JSON(res)
	})
}
