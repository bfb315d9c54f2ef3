package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/h2brasil/delivery-backend/internal/services"
)

// SessionKey is the fiber.Ctx locals key holding the resolved session.
const SessionKey = "session"

// RequireSession validates the bearer token and stores the session on the
// request context.
func RequireSession(sessions *services.SessionManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing Authorization header",
			})
		}

		token := strings.TrimPrefix(header, "Bearer ")
		if token == header || token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization header must be a bearer token",
			})
		}

		session, err := sessions.Resolve(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired session",
			})
		}

		c.Locals(SessionKey, session)
		return c.Next()
	}
}

// RequireRole gates a route group to one session role. Must run after
// RequireSession.
func RequireRole(role services.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session := SessionFrom(c)
		if session == nil || session.Role != role {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions for this operation",
			})
		}
		return c.Next()
	}
}

// SessionFrom extracts the resolved session from the request context.
func SessionFrom(c *fiber.Ctx) *services.Session {
	session, _ := c.Locals(SessionKey).(*services.Session)
	return session
}
