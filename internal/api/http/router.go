package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/organization-service/internal/api/http/handlers"
	"github.com/spec-kit/organization-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Departments    *handlers.DepartmentsHandler
	Specialties    *handlers.SpecialtiesHandler
	Affiliations   *handlers.AffiliationsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Everything except the health probes sits
// behind the token-verification middleware.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health", cfg.Health.Check)
	app.Get("/health/ready", cfg.Health.Ready)

	departments := app.Group("/departments", cfg.AuthMiddleware.Handle)
	departments.Post("/", cfg.Departments.Create)
	departments.Get("/", cfg.Departments.List)

	specialties := app.Group("/specialties", cfg.AuthMiddleware.Handle)
	specialties.Post("/", cfg.Specialties.Create)
	specialties.Get("/", cfg.Specialties.List)
	specialties.Get("/department/:departmentId", cfg.Specialties.ListByDepartment)
	specialties.Put("/:id", cfg.Specialties.Update)

	affiliations := app.Group("/affiliations", cfg.AuthMiddleware.Handle)
	affiliations.Get("/by-specialty", cfg.Affiliations.PhysiciansBySpecialty)
	affiliations.Post("/", cfg.Affiliations.Create)
	affiliations.Get("/", cfg.Affiliations.List)
}
