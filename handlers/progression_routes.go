// handlers/progression_routes.go
package handlers

import (
	"seikatsu-backend/middleware"
	"seikatsu-backend/services"

	"github.com/gofiber/fiber/v2"
)

func SetupProgressionRoutes(api fiber.Router, d *Deps, auth fiber.Handler) {
	// 🔓 level curve calculator
	api.Get("/progress/level", func(c *fiber.Ctx) error {
		xp := int64(c.QueryInt("xp", 0))
		if xp < 0 {
			return badRequest(c, "xp must not be negative", nil)
		}
		return c.JSON(services.CalculateLevelProgress(xp))
	})

	// 🔐 user-scoped
	me := api.Group("/users/me", auth)

	me.Get("/", func(c *fiber.Ctx) error {
		p, err := d.Users.Profile(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return d.fail(c, "failed to load profile", err)
		}
		return c.JSON(p)
	})

	me.Get("/progress", func(c *fiber.Ctx) error {
		details, err := d.Ledger.LevelDetails(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return d.fail(c, "failed to load progress", err)
		}
		return c.JSON(details)
	})
}

type xpAdjustment struct {
	UserID     uint   `json:"user_id"`
	CategoryID uint   `json:"category_id"`
	Amount     int64  `json:"amount"`
	Reason     string `json:"reason"`
}

// SetupAdminRoutes are service-to-service ledger operations
func SetupAdminRoutes(admin fiber.Router, d *Deps) {
	admin.Post("/xp/grant", func(c *fiber.Ctx) error {
		var in xpAdjustment
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c, "invalid request body", err)
		}
		if in.Reason == "" {
			in.Reason = "admin_grant"
		}
		res, err := d.Ledger.AddXP(c.UserContext(), in.UserID, in.CategoryID, in.Amount, in.Reason)
		if err != nil {
			return d.fail(c, "failed to grant XP", err)
		}
		return c.JSON(res)
	})

	admin.Post("/xp/deduct", func(c *fiber.Ctx) error {
		var in xpAdjustment
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c, "invalid request body", err)
		}
		if in.Reason == "" {
			in.Reason = "admin_deduct"
		}
		res, err := d.Ledger.DeductXP(c.UserContext(), in.UserID, in.CategoryID, in.Amount, in.Reason)
		if err != nil {
			return d.fail(c, "failed to deduct XP", err)
		}
		return c.JSON(res)
	})

	admin.Post("/recalculate", func(c *fiber.Ctx) error {
		report, err := d.Ledger.RecalculateLevels(c.UserContext())
		if err != nil {
			return d.fail(c, "recalculation failed", err)
		}
		return c.JSON(report)
	})
}
