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

	"github.com/ahmetcoskunkizilkaya/voicebank/internal/config"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/database"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/logging"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/oauth"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/repository"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/routes"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/services"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/storage"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	cfg := config.Load()
	level := logging.ParseLevel(cfg.LogLevel)
	logging.Setup(level)

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

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	logging.Setup(level, pgLogHandler)

	accounts := repository.NewAccountRepository(database.DB)
	tokens := repository.NewTokenRepository(database.DB)

	cleanupDone := make(chan struct{})
	logging.NewCleanup(database.DB, tokens, cfg.LogRetentionDays).Start(cleanupDone)

	// OAuth
	adapters := providerAdapters(cfg)
	if len(adapters) == 0 {
		slog.Warn("no OAuth provider configured, reviewer sign-in is disabled")
	}
	states, closeStates := stateStore(cfg)
	defer closeStates()

	// Common Voice bucket (optional)
	var uploader services.Uploader
	if cfg.CommonVoiceBucket != "" {
		bucket, err := storage.NewBucketStore(context.Background(), storage.BucketConfig{
			Bucket:   cfg.CommonVoiceBucket,
			Region:   cfg.CommonVoiceRegion,
			Endpoint: cfg.CommonVoiceEndpoint,
			Prefix:   cfg.CommonVoicePrefix,
		})
		if err != nil {
			slog.Error("bucket setup failed", "error", err)
			os.Exit(1)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := bucket.Check(ctx); err != nil {
			slog.Warn("common voice bucket not reachable", "bucket", cfg.CommonVoiceBucket, "error", err.Error())
		}
		cancel()
		uploader = bucket
	}

	// Services
	notifier := services.NewNotificationServiceFromConfig(cfg)
	authService := services.NewAuthService(cfg, adapters, states, accounts, tokens)
	adminService := services.NewAdminService(accounts, tokens, notifier)
	profileService := services.NewProfileService(accounts)
	recordingService := services.NewRecordingService(database.DB, uploader)

	if cfg.AdminBootstrapEmail != "" {
		created, err := adminService.EnsureAdmin(context.Background(), cfg.AdminBootstrapEmail, cfg.AdminBootstrapPassword)
		if err != nil {
			slog.Error("admin bootstrap failed", "error", err)
			os.Exit(1)
		}
		if created {
			slog.Info("admin account created", "email", cfg.AdminBootstrapEmail)
		}
	}

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

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:requestid}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	routes.Setup(app, cfg, accounts, routes.Handlers{
		Auth:      handlers.NewAuthHandler(authService),
		Health:    handlers.NewHealthHandler(database.Ping),
		Account:   handlers.NewAccountHandler(profileService),
		Admin:     handlers.NewAdminHandler(adminService),
		Recording: handlers.NewRecordingHandler(recordingService, cfg.UploadBatchSize),
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "providers", len(adapters))
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	close(cleanupDone)
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

// providerAdapters registers every provider that has client credentials.
func providerAdapters(cfg *config.Config) oauth.Registry {
	var adapters []oauth.Adapter
	if cfg.GoogleClientID != "" {
		adapters = append(adapters, oauth.NewGoogleAdapter(oauth.GoogleConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Timeout:      cfg.OAuthHTTPTimeout,
		}))
	}
	if cfg.GitHubClientID != "" {
		adapters = append(adapters, oauth.NewGitHubAdapter(oauth.GitHubConfig{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			RedirectURL:  cfg.GitHubRedirectURL,
			Timeout:      cfg.OAuthHTTPTimeout,
		}))
	}
	return oauth.NewRegistry(adapters...)
}

// stateStore uses Redis when REDIS_URL is set so state survives restarts and
// is shared across instances.
func stateStore(cfg *config.Config) (oauth.StateStore, func()) {
	if cfg.RedisURL == "" {
		return oauth.NewMemoryStateStore(cfg.OAuthStateTTL), func() {}
	}

	store, err := oauth.NewRedisStateStore(cfg.RedisURL, cfg.OAuthStateTTL)
	if err != nil {
		slog.Error("redis state store setup failed", "error", err)
		os.Exit(1)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		slog.Warn("redis not reachable at startup", "error", err.Error())
	}
	return store, func() {
		if err := store.Close(); err != nil {
			slog.Error("redis close error", "error", err)
		}
	}
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
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "request_id", c.Locals("requestid"), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
