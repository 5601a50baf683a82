package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/voicebank/internal/config"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	Health    *handlers.HealthHandler
	Account   *handlers.AccountHandler
	Admin     *handlers.AdminHandler
	Recording *handlers.RecordingHandler
}

func Setup(app *fiber.App, cfg *config.Config, accounts middleware.AccountFinder, h Handlers) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", h.Health.Check)

	// Auth-specific rate limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Get("/oauth/:provider/start", h.Auth.OAuthStart)
	auth.Post("/oauth/:provider", h.Auth.OAuthSignIn)
	auth.Post("/admin/login", h.Auth.AdminLogin)
	auth.Post("/refresh", h.Auth.Refresh)
	auth.Post("/logout", middleware.JWTProtected(cfg), h.Auth.Logout)

	// Any signed-in account, including pending reviewers finishing onboarding
	api.Get("/me", middleware.JWTProtected(cfg), h.Account.Me)
	api.Put("/me/profile", middleware.JWTProtected(cfg), h.Account.CompleteProfile)

	reviewer := api.Group("/recordings", middleware.JWTProtected(cfg), middleware.ApprovedReviewer(accounts))
	reviewer.Get("/next", h.Recording.Next)
	reviewer.Put("/:id/review", h.Recording.Review)

	admin := api.Group("/admin", middleware.JWTProtected(cfg), middleware.AdminRequired(accounts))
	admin.Get("/accounts", h.Admin.ListAccounts)
	admin.Put("/accounts/:id/status", h.Admin.SetStatus)
	admin.Put("/accounts/:id/active", h.Admin.SetActive)
	admin.Post("/recordings/import", h.Recording.Import)
	admin.Post("/recordings/cleanup", h.Recording.Cleanup)
	admin.Post("/recordings/upload", h.Recording.Upload)
}
