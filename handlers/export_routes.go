package handlers

import (
	"seikatsu-backend/middleware"

	"github.com/gofiber/fiber/v2"
)

func (d *Deps) exportData(c *fiber.Ctx) error {
	res, err := d.Export.Export(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return d.fail(c, "export failed", err)
	}
	return c.JSON(res)
}
