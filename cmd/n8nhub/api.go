// Package main provides the n8nhub command line and API server.
package main

import (
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/n8nhub/n8nhub/pkg/hub"
	"github.com/n8nhub/n8nhub/pkg/web"
)

type API struct {
	logger   *slog.Logger
	hub      *hub.Hub
	validate *validator.Validate
}

func NewAPI(logger *slog.Logger, h *hub.Hub) *API {
	return &API{
		logger:   logger,
		hub:      h,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.hub, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("n8nhub API")
	})

	i := app.Group("/instances")
	i.Get("/", handlers.GetInstances)
	i.Post("/", handlers.CreateInstance)
	i.Get("/:id", handlers.GetInstance)
	i.Patch("/:id", handlers.UpdateInstance)
	i.Delete("/:id", handlers.DeleteInstance)
	i.Get("/:id/status", handlers.GetInstanceStatus)

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/refresh", handlers.RefreshWorkflows)
	w.Get("/search", handlers.SearchWorkflows)
	w.Post("/:key/toggle", handlers.ToggleWorkflow)

	app.Get("/health", handlers.HealthCheck)

	return app
}
