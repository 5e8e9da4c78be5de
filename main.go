package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"seikatsu-backend/config"
	"seikatsu-backend/database"
	"seikatsu-backend/handlers"
	"seikatsu-backend/metrics"
	"seikatsu-backend/middleware"
	"seikatsu-backend/services"
	"seikatsu-backend/utils"
	"seikatsu-backend/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBDriver, cfg.DatabaseURL, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		log.WithError(err).Fatal("failed to migrate database")
	}
	if err := database.Seed(db); err != nil {
		log.WithError(err).Fatal("failed to seed database")
	}

	// --- notifications: RabbitMQ when configured, log-only otherwise ---
	var notifier services.Notifier = services.LogNotifier{Log: log}
	var dispatcher *workers.Dispatcher
	if cfg.AMQPURL != "" {
		pub, err := workers.DialAMQP(cfg.AMQPURL, cfg.NotificationQueue)
		if err != nil {
			log.WithError(err).Warn("⚠️  RabbitMQ unavailable, falling back to log notifications")
		} else {
			dispatcher = workers.NewDispatcher(pub, cfg.NotificationBuffer, log)
			dispatcher.Start(ctx)
			notifier = dispatcher
		}
	}

	// --- export storage: R2 when configured, inline JSON otherwise ---
	var exportStore services.ExportStore
	if cfg.R2.Enabled() {
		store, err := utils.NewR2Store(ctx, cfg.R2.AccountID, cfg.R2.AccessKeyID, cfg.R2.AccessKeySecret, cfg.R2.Bucket, cfg.R2.CDNBaseURL)
		if err != nil {
			log.WithError(err).Fatal("failed to initialize R2 client")
		}
		exportStore = store
	}

	rewards := services.XPRewards{
		JournalEntryXP:    cfg.JournalXP,
		DefaultTaskXP:     cfg.TaskXP,
		DefaultCategoryID: cfg.DefaultCategoryID,
	}
	ledger := services.NewXPLedger(db, log)
	streaks := services.NewStreakCalculator(services.GormActivityDates{DB: db})

	deps := &handlers.Deps{
		Users:        services.NewUserService(db, ledger, cfg.JWTSecret, cfg.AccessTokenTTL, log),
		Journals:     services.NewJournalService(db),
		Tasks:        services.NewTaskService(db),
		Activity:     services.NewActivityOrchestrator(ledger, streaks, notifier, rewards, log),
		Insights:     services.NewInsightsService(db, streaks),
		Market:       services.NewMarketService(db, ledger, cfg.DefaultCategoryID, log),
		Export:       services.NewExportService(db, exportStore, log),
		Ledger:       ledger,
		Log:          log,
		JWTSecret:    cfg.JWTSecret,
		ServiceToken: cfg.ServiceToken,
	}

	scheduler := services.NewScheduler(ledger, cfg.RecalcInterval, log)
	if err := scheduler.Start(ctx); err != nil {
		log.WithError(err).Fatal("failed to start scheduler")
	}

	app := fiber.New(fiber.Config{
		AppName:      "seikatsu-backend",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))
	app.Use(middleware.RequestLogger(log))
	app.Use(metrics.Middleware())

	handlers.Setup(app, deps)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.WithError(err).Error("server error")
			stop()
		}
	}()

	log.WithFields(logrus.Fields{
		"port":          cfg.Port,
		"env":           cfg.Env,
		"db_driver":     cfg.DBDriver,
		"amqp":          dispatcher != nil,
		"r2":            exportStore != nil,
		"allow_origins": cfg.AllowedOrigins,
	}).Info("✅ Server running")

	<-ctx.Done()
	log.Info("Shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.WithError(err).Warn("server shutdown")
	}
	if err := scheduler.Shutdown(); err != nil {
		log.WithError(err).Warn("scheduler shutdown")
	}
	if dispatcher != nil {
		dispatcher.Wait()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	if strings.EqualFold(cfg.LogFormat, "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("log_level", cfg.LogLevel).Warn("unknown LOG_LEVEL, using info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}
