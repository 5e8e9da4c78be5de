package handlers

import (
	"strconv"

	"seikatsu-backend/middleware"
	"seikatsu-backend/services"

	"github.com/gofiber/fiber/v2"
)

func SetupMarketRoutes(r fiber.Router, d *Deps, auth fiber.Handler) {
	// 🔓 catalog
	r.Get("/items", func(c *fiber.Ctx) error {
		f := services.ItemFilter{ItemType: c.Query("item_type"), Rarity: c.Query("rarity")}
		if raw := c.Query("max_cost"); raw != "" {
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return badRequest(c, "max_cost must be an integer", err)
			}
			f.MaxCost = &n
		}
		items, err := d.Market.Items(c.UserContext(), f)
		if err != nil {
			return d.fail(c, "failed to fetch market items", err)
		}
		return c.JSON(items)
	})

	r.Get("/items/:id", func(c *fiber.Ctx) error {
		id, err := paramUint(c, "id")
		if err != nil {
			return badRequest(c, "invalid item id", err)
		}
		item, err := d.Market.Item(c.UserContext(), id)
		if err != nil {
			return d.fail(c, "failed to fetch item", err)
		}
		return c.JSON(item)
	})

	// 🔐 purchases
	r.Post("/buy/:id", auth, func(c *fiber.Ctx) error {
		id, err := paramUint(c, "id")
		if err != nil {
			return badRequest(c, "invalid item id", err)
		}
		var in completeRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&in); err != nil {
				return badRequest(c, "invalid request body", err)
			}
		}
		res, err := d.Market.Buy(c.UserContext(), middleware.UserID(c), id, in.CategoryID)
		if err != nil {
			return d.fail(c, "failed to complete purchase", err)
		}
		return c.JSON(res)
	})

	r.Get("/inventory", auth, func(c *fiber.Ctx) error {
		items, err := d.Market.Inventory(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return d.fail(c, "failed to fetch inventory", err)
		}
		return c.JSON(items)
	})

	r.Get("/affordable", auth, func(c *fiber.Ctx) error {
		items, err := d.Market.Affordable(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return d.fail(c, "failed to fetch affordable items", err)
		}
		return c.JSON(items)
	})
}
