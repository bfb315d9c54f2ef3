package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/h2brasil/delivery-backend/internal/middleware"
	"github.com/h2brasil/delivery-backend/internal/services"
	"github.com/h2brasil/delivery-backend/internal/storage"
)

// FleetHandler serves the admin monitoring view
type FleetHandler struct {
	Tracker *services.TrackerService
	Store   storage.Store
}

// NewFleetHandler creates a new fleet handler
func NewFleetHandler(tracker *services.TrackerService, store storage.Store) *FleetHandler {
	return &FleetHandler{
		Tracker: tracker,
		Store:   store,
	}
}

// List returns the currently broadcasting drivers. Records older than the
// staleness cutoff are already discarded, whatever their stored status.
func (h *FleetHandler) List(c *fiber.Ctx) error {
	session := middleware.SessionFrom(c)

	drivers, err := h.Tracker.Fleet(c.Context(), session)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read the fleet",
		})
	}

	return c.JSON(fiber.Map{
		"drivers": drivers,
		"count":   len(drivers),
	})
}

// Roster lists every driver identity that has ever signed in, for the
// admin console's driver directory.
func (h *FleetHandler) Roster(c *fiber.Ctx) error {
	accounts, err := h.Store.GetAllDrivers()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read the driver roster",
		})
	}

	return c.JSON(fiber.Map{
		"drivers": accounts,
		"count":   len(accounts),
	})
}
