package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/h2brasil/delivery-backend/internal/catalog"
)

// ListPoints returns the fixed delivery-point catalog.
func ListPoints(c *fiber.Ctx) error {
	points := catalog.All()
	return c.JSON(fiber.Map{
		"points": points,
		"count":  len(points),
	})
}
