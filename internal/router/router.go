package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/edumesh/campus-api/internal/config"
	"github.com/edumesh/campus-api/internal/handler"
	"github.com/edumesh/campus-api/internal/middleware"
	"github.com/edumesh/campus-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ChatHandler     *handler.ChatHandler
	RoomHandler     *handler.RoomHandler
	ReminderHandler *handler.ReminderHandler
	DeviceHandler   *handler.DeviceHandler
	JWTMiddleware   fiber.Handler
	DB              *gorm.DB
	Redis           *redis.Client
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.DB, deps.Redis))
	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.ChatHandler != nil {
		chat := api.Group("/chat", jwtMiddleware)
		deps.ChatHandler.Register(chat)
	}

	if deps.RoomHandler != nil {
		rooms := api.Group("/rooms", jwtMiddleware,
			middleware.RateLimit("rooms", cfg.ChatRateLimit, cfg.ChatRateWindow))
		deps.RoomHandler.Register(rooms)
	}

	if deps.ReminderHandler != nil {
		reminders := api.Group("/reminders", jwtMiddleware,
			middleware.RateLimit("reminders", cfg.ChatRateLimit, cfg.ChatRateWindow))
		deps.ReminderHandler.Register(reminders)

		admin := api.Group("/admin/reminders", jwtMiddleware, middleware.RequireRole("admin"))
		deps.ReminderHandler.RegisterAdmin(admin)
	}

	if deps.DeviceHandler != nil {
		devices := api.Group("/devices", jwtMiddleware)
		deps.DeviceHandler.Register(devices)
	}
}
