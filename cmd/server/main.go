package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/medicothink/medicothink-backend/internal/ai"
	"github.com/medicothink/medicothink-backend/internal/auth"
	"github.com/medicothink/medicothink-backend/internal/cache"
	"github.com/medicothink/medicothink-backend/internal/config"
	"github.com/medicothink/medicothink-backend/internal/conversation"
	"github.com/medicothink/medicothink-backend/internal/database"
	"github.com/medicothink/medicothink-backend/internal/handlers"
	"github.com/medicothink/medicothink-backend/internal/logging"
	"github.com/medicothink/medicothink-backend/internal/middleware"
	"github.com/medicothink/medicothink-backend/internal/orchestrator"
	"github.com/medicothink/medicothink-backend/internal/payment"
	"github.com/medicothink/medicothink-backend/internal/quota"
	"github.com/medicothink/medicothink-backend/internal/repository/postgres"
	"github.com/medicothink/medicothink-backend/internal/routes"
	"github.com/medicothink/medicothink-backend/internal/sms"
	"github.com/medicothink/medicothink-backend/internal/storage"
	"github.com/medicothink/medicothink-backend/internal/subscription"
)

func main() {
	_ = godotenv.Load()

	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}
	if err := database.SeedPlans(); err != nil {
		slog.Error("plan seeding failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		pgLogHandler,
	)))

	// Log cleanup (30-day retention)
	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cleanupDone)

	// Repositories
	userRepo := postgres.NewUserRepo(database.DB)
	planRepo := postgres.NewPlanRepo(database.DB)
	subRepo := postgres.NewSubscriptionRepo(database.DB)
	convRepo := postgres.NewConversationRepo(database.DB)
	msgRepo := postgres.NewMessageRepo(database.DB)
	otpRepo := postgres.NewOtpRepo(database.DB)
	paymentRepo := postgres.NewPaymentRepo(database.DB)
	tokenRepo := postgres.NewRefreshTokenRepo(database.DB)

	// Infrastructure
	redisClient := cache.NewRedisClient(cfg)
	cooldown := cache.NewCooldown(redisClient)
	store := storage.NewDiskStore(cfg.StorageDir, cfg.StorageBaseURL)
	smsSender := sms.FromConfig(cfg)
	payClient := payment.NewPayClickClient(cfg.PayClickAPIKey, cfg.PayClickSecretKey, cfg.PayClickBaseURL, cfg.PayClickWebhookSecret)

	// Services
	subService := subscription.NewService(subRepo, planRepo)
	ledger := quota.NewLedger(subRepo)
	convService := conversation.NewService(convRepo, msgRepo)
	gateway := ai.FromConfig(cfg, store)
	orch := orchestrator.New(subService, ledger, convService, gateway, cfg.RefundOnProviderFailure)
	authService := auth.NewService(userRepo, tokenRepo, otpRepo, smsSender, cooldown, cfg)
	payService := payment.NewService(paymentRepo, planRepo, subService, payClient, cfg.AppBaseURL)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	aiHandler := handlers.NewAIHandler(orch)
	convHandler := handlers.NewConversationHandler(convService)
	subHandler := handlers.NewSubscriptionHandler(subService, payService, planRepo)
	webhookHandler := handlers.NewWebhookHandler(payService)
	healthHandler := handlers.NewHealthHandler()

	// Hourly expiry sweep demotes lapsed subscriptions.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@hourly", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := subService.Sweep(ctx); err != nil {
			slog.Error("expiry sweep failed", "error", err)
		}
	}); err != nil {
		slog.Error("failed to schedule expiry sweep", "error", err)
		os.Exit(1)
	}
	scheduler.Start()

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      os.Getenv("APP_ENV"),
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    16 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Generated media is served from local disk.
	app.Static("/media", cfg.StorageDir)

	// Routes
	routes.Setup(app, cfg, authHandler, aiHandler, convHandler, subHandler, webhookHandler, healthHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	scheduler.Stop()
	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	if err := redisClient.Close(); err != nil {
		slog.Error("redis close error", "error", err)
	}

	// Close database connections
	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
