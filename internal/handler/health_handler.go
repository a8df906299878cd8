package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/edumesh/campus-api/internal/config"
	"github.com/edumesh/campus-api/internal/utils"
)

var startedAt = time.Now().UTC()

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status      string            `json:"status"`
	Timestamp   time.Time         `json:"timestamp"`
	Service     string            `json:"service"`
	Environment string            `json:"environment"`
	UptimeSec   int64             `json:"uptime_sec"`
	Components  map[string]string `json:"components,omitempty"`
}

// HealthCheck returns a handler that reports application health plus the
// reachability of the backing stores. Either dependency may be nil.
func HealthCheck(cfg config.Config, db *gorm.DB, redisClient *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		baseCtx := c.UserContext()
		if baseCtx == nil {
			baseCtx = context.Background()
		}
		ctx, cancel := context.WithTimeout(baseCtx, 2*time.Second)
		defer cancel()

		status := "ok"
		components := make(map[string]string)

		if db != nil {
			components["database"] = "ok"
			if sqlDB, err := db.DB(); err != nil {
				components["database"] = "error"
			} else if err := sqlDB.PingContext(ctx); err != nil {
				components["database"] = "error"
			}
			if components["database"] != "ok" {
				status = "degraded"
			}
		}

		if redisClient != nil {
			components["redis"] = "ok"
			if err := redisClient.Ping(ctx).Err(); err != nil {
				components["redis"] = "error"
				status = "degraded"
			}
		}

		payload := HealthResponse{
			Status:      status,
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
			UptimeSec:   int64(time.Since(startedAt).Seconds()),
			Components:  components,
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}
