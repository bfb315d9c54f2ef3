package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/h2brasil/delivery-backend/internal/handlers"
	"github.com/h2brasil/delivery-backend/internal/middleware"
	"github.com/h2brasil/delivery-backend/internal/realtime"
	"github.com/h2brasil/delivery-backend/internal/services"
	"github.com/h2brasil/delivery-backend/internal/storage"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Store     storage.Store
	Channel   realtime.Channel
	Sessions  *services.SessionManager
	Optimizer *services.OptimizerService
	Progress  *services.ProgressService
	Tracker   *services.TrackerService
}

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, deps Deps) {
	authHandler := handlers.NewAuthHandler(deps.Sessions)
	routeHandler := handlers.NewRouteHandler(deps.Optimizer, deps.Progress, deps.Sessions)
	locationHandler := handlers.NewLocationHandler(deps.Tracker)
	fleetHandler := handlers.NewFleetHandler(deps.Tracker, deps.Store)
	historyHandler := handlers.NewHistoryHandler(deps.Progress)

	app.Get("/health", handlers.Health(deps.Channel))

	api := app.Group("/api")

	// Public routes
	api.Get("/points", handlers.ListPoints)
	auth := api.Group("/auth")
	auth.Post("/driver", authHandler.DriverLogin)
	auth.Post("/admin", authHandler.AdminLogin)

	// Everything below needs a session
	authed := api.Group("", middleware.RequireSession(deps.Sessions))
	authed.Post("/auth/logout", authHandler.Logout)
	authed.Get("/history", historyHandler.List)

	// Driver-only routes: route ownership and position publishing.
	// RequireRole is attached per route: a group middleware with an empty
	// prefix would be mounted on the whole /api prefix and gate the other
	// role's routes too.
	driverOnly := middleware.RequireRole(services.RoleDriver)
	authed.Post("/routes/optimize", driverOnly, routeHandler.Optimize)
	authed.Get("/routes/current", driverOnly, routeHandler.Current)
	authed.Post("/routes/confirm", driverOnly, routeHandler.Confirm)
	authed.Post("/routes/reset", driverOnly, routeHandler.Reset)
	authed.Post("/drivers/location", driverOnly, locationHandler.Report)

	// Admin-only routes: fleet monitoring
	adminOnly := middleware.RequireRole(services.RoleAdmin)
	authed.Get("/fleet", adminOnly, fleetHandler.List)
	authed.Get("/fleet/roster", adminOnly, fleetHandler.Roster)
}
