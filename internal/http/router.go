package http

import (
	"time"

	"github.com/dynamic-capital/backend/internal/config"
	"github.com/dynamic-capital/backend/internal/http/handlers"
	"github.com/dynamic-capital/backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	authHandler *handlers.AuthHandler,
	tonConnectHandler *handlers.TonConnectHandler,
	walletHandler *handlers.WalletHandler,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	// Auth (public)
	api.Post("/auth/telegram", authHandler.TelegramAuth)

	// TON Connect handshake (public, rate-limited)
	if rdb != nil {
		api.Use("/ton-connect", middleware.RateLimitMiddleware(rdb, 30, time.Minute))
	}
	api.Post("/ton-connect/session", tonConnectHandler.HandleSession)

	// Protected endpoints
	protected := api.Group("", middleware.AuthMiddleware(cfg, log))
	protected.Get("/me/wallet", walletHandler.GetWallet)
}
