package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/h2brasil/delivery-backend/database"
	"github.com/h2brasil/delivery-backend/internal/realtime"
)

// Health reports liveness of the service, its realtime store, and the
// history archive.
func Health(channel realtime.Channel) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
		defer cancel()

		realtimeOK := channel.Ping(ctx) == nil
		archiveOK := archiveHealthy(ctx)

		status := "healthy"
		statusCode := fiber.StatusOK
		if !realtimeOK || !archiveOK {
			status = "unhealthy"
			statusCode = fiber.StatusServiceUnavailable
		}

		return c.Status(statusCode).JSON(fiber.Map{
			"status": status,
			"services": fiber.Map{
				"realtime": realtimeOK,
				"archive":  archiveOK,
			},
		})
	}
}

// archiveHealthy pings the database when one is connected. The in-memory
// archive has nothing to ping.
func archiveHealthy(ctx context.Context) bool {
	if database.DB == nil {
		return true
	}
	sqlDB, err := database.DB.DB()
	if err != nil {
		return false
	}
	return sqlDB.PingContext(ctx) == nil
}
