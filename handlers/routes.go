package handlers

import (
	"seikatsu-backend/metrics"
	"seikatsu-backend/middleware"
	"seikatsu-backend/services"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Deps is everything the HTTP layer calls into
type Deps struct {
	Users    *services.UserService
	Journals *services.JournalService
	Tasks    *services.TaskService
	Activity *services.ActivityOrchestrator
	Insights *services.InsightsService
	Market   *services.MarketService
	Export   *services.ExportService
	Ledger   *services.XPLedger

	Log          logrus.FieldLogger
	JWTSecret    string
	ServiceToken string
}

// Setup mounts /health, /metrics and the /api/v1 routes
func Setup(app *fiber.App, d *Deps) {
	SetupHealthRoutes(app, d)
	app.Get("/metrics", metrics.Handler())

	api := app.Group("/api/v1")
	auth := middleware.JWTAuth(d.JWTSecret, d.Log)

	SetupAuthRoutes(api, d)
	SetupProgressionRoutes(api, d, auth)
	SetupJournalRoutes(api.Group("/journals", auth), d)
	SetupTaskRoutes(api.Group("/tasks", auth), d)
	SetupInsightsRoutes(api.Group("/insights", auth), d)
	SetupMarketRoutes(api.Group("/market"), d, auth)
	api.Get("/export", auth, d.exportData)
	SetupAdminRoutes(api.Group("/admin", middleware.ServiceTokenMiddleware(d.ServiceToken, d.Log)), d)
}
