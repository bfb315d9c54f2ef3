package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/h2brasil/delivery-backend/internal/middleware"
	"github.com/h2brasil/delivery-backend/internal/models"
	"github.com/h2brasil/delivery-backend/internal/services"
)

// AuthHandler handles driver and admin sign-in
type AuthHandler struct {
	Sessions *services.SessionManager
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(sessions *services.SessionManager) *AuthHandler {
	return &AuthHandler{Sessions: sessions}
}

// DriverLogin signs a driver in by display name and returns the bearer
// token the device persists across restarts.
func (h *AuthHandler) DriverLogin(c *fiber.Ctx) error {
	var req models.DriverLogin
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	token, session, err := h.Sessions.LoginDriver(req.Name)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "A driver name is required",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token":       token,
		"driver_id":   session.DriverID,
		"driver_name": session.DriverName,
	})
}

// AdminLogin unlocks the administrator role with the shared secret.
func (h *AuthHandler) AdminLogin(c *fiber.Ctx) error {
	var req models.AdminLogin
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	token, _, err := h.Sessions.LoginAdmin(req.Secret)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
		"role":  services.RoleAdmin,
	})
}

// Logout ends the session. Driver logout also converges the driver's live
// record to offline.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	session := middleware.SessionFrom(c)

	if err := h.Sessions.Logout(c.Context(), session); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to end session",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Logged out",
	})
}
