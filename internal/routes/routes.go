package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/medicothink/medicothink-backend/internal/config"
	"github.com/medicothink/medicothink-backend/internal/handlers"
	"github.com/medicothink/medicothink-backend/internal/middleware"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	aiHandler *handlers.AIHandler,
	convHandler *handlers.ConversationHandler,
	subHandler *handlers.SubscriptionHandler,
	webhookHandler *handlers.WebhookHandler,
	healthHandler *handlers.HealthHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Plan catalog is public so the paywall can render before login.
	api.Get("/plans", subHandler.ListPlans)

	// Auth-specific rate limit: 10 req/min per IP (stricter)
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)
	auth.Post("/otp/request", authHandler.RequestOtp)
	auth.Post("/otp/verify", authHandler.VerifyOtp)

	// Protected routes (JWT required) - apply middleware to individual
	// groups so it never affects the public routes above.
	api.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)
	api.Get("/auth/me", middleware.JWTProtected(cfg), authHandler.Me)
	api.Put("/auth/profile", middleware.JWTProtected(cfg), authHandler.UpdateProfile)

	aiGroup := api.Group("/ai", middleware.JWTProtected(cfg))
	aiGroup.Post("/chat", aiHandler.Chat)
	aiGroup.Post("/analyze-image", aiHandler.AnalyzeImage)
	aiGroup.Post("/generate-image", aiHandler.GenerateImage)
	aiGroup.Post("/generate-video", aiHandler.GenerateVideo)
	aiGroup.Post("/flashcards", aiHandler.GenerateFlashcards)

	convs := api.Group("/conversations", middleware.JWTProtected(cfg))
	convs.Get("/", convHandler.List)
	convs.Post("/", convHandler.Create)
	convs.Get("/:id/messages", convHandler.Messages)
	convs.Put("/:id/archive", convHandler.Archive)
	convs.Put("/:id/unarchive", convHandler.Unarchive)
	convs.Delete("/:id", convHandler.Delete)

	subs := api.Group("/subscription", middleware.JWTProtected(cfg))
	subs.Get("/status", subHandler.Status)
	subs.Post("/subscribe", subHandler.Subscribe)
	subs.Post("/cancel", subHandler.Cancel)

	// Webhooks authenticate by signature, not JWT.
	webhooks := api.Group("/webhooks")
	webhooks.Post("/payclick", webhookHandler.HandlePayClick)
}
