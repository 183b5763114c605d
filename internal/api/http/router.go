package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/registration-service/internal/api/http/handlers"
	"github.com/spec-kit/registration-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health          *handlers.HealthHandler
	Registrations   *handlers.RegistrationsHandler
	Approvals       *handlers.ApprovalsHandler
	Recovery        *handlers.RecoveryHandler
	Admin           *handlers.AdminHandler
	AdminMiddleware *auth.AdminMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/registrations", cfg.Registrations.Submit)

	// Link-token endpoints; the token is always a path segment.
	app.Get("/approvals/:token", cfg.Approvals.Status)
	app.Post("/approvals/:token", cfg.Approvals.Decide)

	app.Post("/recovery/request", cfg.Recovery.Request)
	app.Post("/recovery/reset/:token", cfg.Recovery.Reset)

	app.Post("/auth/admin/login", cfg.Admin.Login)

	adminGroup := app.Group("/admin", cfg.AdminMiddleware.Handle)
	adminGroup.Get("/registrations", cfg.Registrations.List)
}
