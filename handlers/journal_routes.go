package handlers

import (
	"seikatsu-backend/middleware"
	"seikatsu-backend/services"

	"github.com/gofiber/fiber/v2"
)

func SetupJournalRoutes(r fiber.Router, d *Deps) {
	r.Post("/", func(c *fiber.Ctx) error {
		var in services.JournalInput
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c, "invalid request body", err)
		}
		res, err := d.Activity.CreateJournal(c.UserContext(), middleware.UserID(c), in)
		if err != nil {
			return d.fail(c, "failed to create journal", err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	})

	r.Get("/", func(c *fiber.Ctx) error {
		page, err := d.Journals.List(c.UserContext(), middleware.UserID(c), c.QueryInt("page", 1), c.QueryInt("size", 20))
		if err != nil {
			return d.fail(c, "failed to list journals", err)
		}
		return c.JSON(page)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		j, err := d.Journals.Get(c.UserContext(), middleware.UserID(c), c.Params("id"))
		if err != nil {
			return d.fail(c, "failed to get journal", err)
		}
		return c.JSON(j)
	})

	r.Put("/:id", func(c *fiber.Ctx) error {
		var in services.JournalUpdate
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c, "invalid request body", err)
		}
		j, err := d.Journals.Update(c.UserContext(), middleware.UserID(c), c.Params("id"), in)
		if err != nil {
			return d.fail(c, "failed to update journal", err)
		}
		return c.JSON(j)
	})

	r.Delete("/:id", func(c *fiber.Ctx) error {
		if err := d.Journals.Delete(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
			return d.fail(c, "failed to delete journal", err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
