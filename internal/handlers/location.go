package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/h2brasil/delivery-backend/internal/middleware"
	"github.com/h2brasil/delivery-backend/internal/models"
	"github.com/h2brasil/delivery-backend/internal/services"
)

// LocationHandler ingests driver position reports
type LocationHandler struct {
	Tracker *services.TrackerService
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(tracker *services.TrackerService) *LocationHandler {
	return &LocationHandler{Tracker: tracker}
}

// Report receives one position sample from the driver device and
// broadcasts it. A failed broadcast is a soft warning — the next sample
// supersedes it and nothing is retried.
func (h *LocationHandler) Report(c *fiber.Ctx) error {
	session := middleware.SessionFrom(c)

	var req models.LocationReport
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	update, err := h.Tracker.Report(c.Context(), session, req)
	if errors.Is(err, services.ErrNotDriver) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only drivers publish their position",
		})
	}

	resp := fiber.Map{
		"status": update.Status,
		"coords": update.Coords,
	}
	if err != nil {
		resp["warning"] = "position accepted, but broadcasting it failed"
	}
	return c.JSON(resp)
}
