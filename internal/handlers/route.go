package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/h2brasil/delivery-backend/internal/catalog"
	"github.com/h2brasil/delivery-backend/internal/geo"
	"github.com/h2brasil/delivery-backend/internal/middleware"
	"github.com/h2brasil/delivery-backend/internal/models"
	"github.com/h2brasil/delivery-backend/internal/services"
)

// RouteHandler handles route optimization and delivery confirmation
type RouteHandler struct {
	Optimizer *services.OptimizerService
	Progress  *services.ProgressService
	Sessions  *services.SessionManager
}

// NewRouteHandler creates a new route handler
func NewRouteHandler(optimizer *services.OptimizerService, progress *services.ProgressService, sessions *services.SessionManager) *RouteHandler {
	return &RouteHandler{
		Optimizer: optimizer,
		Progress:  progress,
		Sessions:  sessions,
	}
}

// Optimize requests an ordered route for the selected points from the
// driver's current position.
func (h *RouteHandler) Optimize(c *fiber.Ctx) error {
	session := middleware.SessionFrom(c)

	var req models.OptimizeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if len(req.PointIDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Select at least one delivery point",
		})
	}

	var start *models.Coordinate
	if req.Lat != nil && req.Lng != nil {
		start = &models.Coordinate{Lat: *req.Lat, Lng: *req.Lng}
	} else if update := session.Watcher().Current(); update.Status != geo.StatusSearching {
		// Fall back to the last position the device reported (which is the
		// city-center substitute when the GPS fix failed).
		coords := update.Coords
		start = &coords
	}
	if start == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Waiting for a GPS fix",
		})
	}

	selected, unknown := catalog.Select(req.PointIDs)
	if len(unknown) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Unknown delivery point ids",
			"unknown": unknown,
		})
	}

	result, err := h.Optimizer.Optimize(c.Context(), session, start, selected)
	if err != nil {
		return optimizeError(c, err)
	}

	return c.JSON(result)
}

// Current returns the session's route as it stands.
func (h *RouteHandler) Current(c *fiber.Ctx) error {
	session := middleware.SessionFrom(c)

	route := h.Sessions.Route(session)
	if route == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No active route",
		})
	}
	return c.JSON(route)
}

// Confirm marks one stop delivered, with an optional free-text note. A
// failed remote append comes back as a warning, not an error: the local
// route has already advanced.
func (h *RouteHandler) Confirm(c *fiber.Ctx) error {
	session := middleware.SessionFrom(c)

	var req models.ConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.StopID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "stopId is required",
		})
	}

	stop, warning, err := h.Progress.Confirm(c.Context(), session, req.StopID, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoActiveRoute):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "No active route"})
		case errors.Is(err, services.ErrStopNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Stop not in current route"})
		case errors.Is(err, services.ErrAlreadyCompleted):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Stop already confirmed"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to confirm delivery"})
		}
	}

	resp := fiber.Map{"stop": stop}
	if warning != "" {
		resp["warning"] = warning
	}
	return c.JSON(resp)
}

// Reset discards the current route and returns the driver to selection.
func (h *RouteHandler) Reset(c *fiber.Ctx) error {
	session := middleware.SessionFrom(c)

	if err := h.Sessions.ResetRoute(session); err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only drivers own a route",
		})
	}
	return c.JSON(fiber.Map{
		"message": "Route cleared",
	})
}

func optimizeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrGenerationNotConfigured):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Route optimization is not configured (missing API credential)",
		})
	case errors.Is(err, services.ErrOptimizationInFlight):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "An optimization request is already in flight",
		})
	case errors.Is(err, services.ErrNoSelection), errors.Is(err, services.ErrNoStartCoordinate):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, services.ErrBadOptimizationResponse):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "The optimization service returned an unusable answer; try again",
		})
	default:
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Route optimization failed; try again",
		})
	}
}
