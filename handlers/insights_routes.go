package handlers

import (
	"seikatsu-backend/middleware"

	"github.com/gofiber/fiber/v2"
)

func SetupInsightsRoutes(r fiber.Router, d *Deps) {
	r.Get("/streaks", func(c *fiber.Ctx) error {
		res, err := d.Insights.Streaks(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return d.fail(c, "failed to compute streaks", err)
		}
		return c.JSON(res)
	})

	r.Get("/stats", func(c *fiber.Ctx) error {
		res, err := d.Insights.ActivityStats(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return d.fail(c, "failed to compute stats", err)
		}
		return c.JSON(res)
	})

	r.Get("/radar", func(c *fiber.Ctx) error {
		res, err := d.Insights.Radar(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return d.fail(c, "failed to build radar", err)
		}
		return c.JSON(res)
	})

	r.Get("/mood", func(c *fiber.Ctx) error {
		res, err := d.Insights.MoodTrend(c.UserContext(), middleware.UserID(c), c.QueryInt("days", 30))
		if err != nil {
			return d.fail(c, "failed to analyze mood", err)
		}
		return c.JSON(res)
	})

	r.Get("/weekly", func(c *fiber.Ctx) error {
		res, err := d.Insights.WeeklySummary(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return d.fail(c, "failed to build weekly summary", err)
		}
		return c.JSON(res)
	})

	r.Get("/recent", func(c *fiber.Ctx) error {
		res, err := d.Insights.RecentActivity(c.UserContext(), middleware.UserID(c), c.QueryInt("days", 7), c.QueryInt("limit", 10))
		if err != nil {
			return d.fail(c, "failed to load recent activity", err)
		}
		return c.JSON(res)
	})

	r.Get("/summary", func(c *fiber.Ctx) error {
		res, err := d.Insights.Summary(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return d.fail(c, "failed to build summary", err)
		}
		return c.JSON(res)
	})

	r.Get("/dashboard", func(c *fiber.Ctx) error {
		res, err := d.Insights.Dashboard(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return d.fail(c, "failed to build dashboard", err)
		}
		return c.JSON(res)
	})

	r.Get("/productivity", func(c *fiber.Ctx) error {
		res, err := d.Insights.Productivity(c.UserContext(), middleware.UserID(c), c.QueryInt("days", 30))
		if err != nil {
			return d.fail(c, "failed to compute productivity", err)
		}
		return c.JSON(res)
	})
}
