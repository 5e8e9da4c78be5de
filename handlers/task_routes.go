package handlers

import (
	"seikatsu-backend/middleware"
	"seikatsu-backend/services"

	"github.com/gofiber/fiber/v2"
)

type completeRequest struct {
	CategoryID uint `json:"category_id"`
}

func SetupTaskRoutes(r fiber.Router, d *Deps) {
	r.Post("/", func(c *fiber.Ctx) error {
		var in services.TaskInput
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c, "invalid request body", err)
		}
		t, err := d.Tasks.Create(c.UserContext(), middleware.UserID(c), in)
		if err != nil {
			return d.fail(c, "failed to create task", err)
		}
		return c.Status(fiber.StatusCreated).JSON(t)
	})

	list := func(completed *bool) fiber.Handler {
		return func(c *fiber.Ctx) error {
			page, err := d.Tasks.List(c.UserContext(), middleware.UserID(c), completed, c.QueryInt("page", 1), c.QueryInt("size", 20))
			if err != nil {
				return d.fail(c, "failed to list tasks", err)
			}
			return c.JSON(page)
		}
	}
	yes, no := true, false
	r.Get("/", list(nil))
	r.Get("/completed", list(&yes))
	r.Get("/pending", list(&no))

	r.Get("/due", func(c *fiber.Ctx) error {
		tasks, err := d.Tasks.Due(c.UserContext(), middleware.UserID(c), c.QueryInt("days", 7))
		if err != nil {
			return d.fail(c, "failed to load due tasks", err)
		}
		return c.JSON(tasks)
	})

	r.Get("/overdue", func(c *fiber.Ctx) error {
		tasks, err := d.Tasks.Overdue(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return d.fail(c, "failed to load overdue tasks", err)
		}
		return c.JSON(tasks)
	})

	r.Get("/today", func(c *fiber.Ctx) error {
		today, err := d.Tasks.Today(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return d.fail(c, "failed to load today's tasks", err)
		}
		return c.JSON(today)
	})

	r.Get("/stats", func(c *fiber.Ctx) error {
		st, err := d.Tasks.Statistics(c.UserContext(), middleware.UserID(c), c.QueryInt("days", 30))
		if err != nil {
			return d.fail(c, "failed to load task statistics", err)
		}
		return c.JSON(st)
	})

	r.Post("/bulk-complete", func(c *fiber.Ctx) error {
		var in struct {
			TaskIDs    []string `json:"task_ids"`
			CategoryID uint     `json:"category_id"`
		}
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c, "invalid request body", err)
		}
		if len(in.TaskIDs) == 0 {
			return badRequest(c, "task_ids must not be empty", nil)
		}
		res, err := d.Activity.BulkCompleteTasks(c.UserContext(), middleware.UserID(c), in.TaskIDs, in.CategoryID)
		if err != nil {
			return d.fail(c, "bulk completion failed", err)
		}
		return c.JSON(res)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		t, err := d.Tasks.Get(c.UserContext(), middleware.UserID(c), c.Params("id"))
		if err != nil {
			return d.fail(c, "failed to get task", err)
		}
		return c.JSON(t)
	})

	r.Put("/:id", func(c *fiber.Ctx) error {
		var in services.TaskUpdate
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c, "invalid request body", err)
		}
		t, err := d.Tasks.Update(c.UserContext(), middleware.UserID(c), c.Params("id"), in)
		if err != nil {
			return d.fail(c, "failed to update task", err)
		}
		return c.JSON(t)
	})

	r.Delete("/:id", func(c *fiber.Ctx) error {
		if err := d.Tasks.Delete(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
			return d.fail(c, "failed to delete task", err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/:id/complete", func(c *fiber.Ctx) error {
		var in completeRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&in); err != nil {
				return badRequest(c, "invalid request body", err)
			}
		}
		res, err := d.Activity.CompleteTask(c.UserContext(), middleware.UserID(c), c.Params("id"), in.CategoryID)
		if err != nil {
			return d.fail(c, "failed to complete task", err)
		}
		return c.JSON(res)
	})

	r.Post("/:id/uncomplete", func(c *fiber.Ctx) error {
		res, err := d.Activity.UncompleteTask(c.UserContext(), middleware.UserID(c), c.Params("id"))
		if err != nil {
			return d.fail(c, "failed to uncomplete task", err)
		}
		return c.JSON(res)
	})
}
