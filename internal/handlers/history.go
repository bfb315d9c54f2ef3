package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/h2brasil/delivery-backend/internal/services"
)

// HistoryHandler serves the delivery history view
type HistoryHandler struct {
	Progress *services.ProgressService
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(progress *services.ProgressService) *HistoryHandler {
	return &HistoryHandler{Progress: progress}
}

// List returns the delivery records for one calendar date (today when no
// date is given), newest first.
func (h *HistoryHandler) List(c *fiber.Ctx) error {
	date := c.Query("date")
	if date != "" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "date must be YYYY-MM-DD",
			})
		}
	}

	records, err := h.Progress.HistoryForDate(date)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read delivery history",
		})
	}

	return c.JSON(fiber.Map{
		"records": records,
		"count":   len(records),
	})
}
