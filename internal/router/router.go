package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/estate-crm-api/internal/config"
	"github.com/noah-isme/estate-crm-api/internal/handler"
	"github.com/noah-isme/estate-crm-api/internal/middleware"
	"github.com/noah-isme/estate-crm-api/internal/models"
	"github.com/noah-isme/estate-crm-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	RecordHandler   *handler.RecordHandler
	EntityHandlers  map[models.EntityKind]*handler.EntityHandler
	JWTMiddleware   fiber.Handler
	WriteRateLimit  fiber.Handler
	TeamManagerOnly fiber.Handler
}

var entityPaths = map[models.EntityKind]string{
	models.EntityUser:     "/users",
	models.EntityCompany:  "/companies",
	models.EntityLead:     "/leads",
	models.EntityProperty: "/properties",
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = middleware.JWTProtected(cfg.JWTSecret)
	}
	guarded := []fiber.Handler{jwtMiddleware}
	if deps.WriteRateLimit != nil {
		guarded = append(guarded, deps.WriteRateLimit)
	}

	if deps.RecordHandler != nil {
		deps.RecordHandler.Register(api.Group("/records", jwtMiddleware))
	}

	for _, kind := range models.EntityKinds {
		h, ok := deps.EntityHandlers[kind]
		if !ok || h == nil {
			continue
		}
		group := api.Group(entityPaths[kind], guarded...)
		h.Register(group)

		if kind == models.EntityUser {
			teamGuard := deps.TeamManagerOnly
			if teamGuard == nil {
				teamGuard = middleware.RequireRole(middleware.RoleAdmin, middleware.RoleManager)
			}
			h.RegisterTeamRoutes(group, teamGuard)
		}
	}
}
