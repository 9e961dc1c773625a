// Package main provides the Renoflow API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"go.opentelemetry.io/otel/trace"

	"github.com/renoflow/renoflow/pkg/eventbus"
	"github.com/renoflow/renoflow/pkg/persistence"
	"github.com/renoflow/renoflow/pkg/registry"
	"github.com/renoflow/renoflow/pkg/services"
	"github.com/renoflow/renoflow/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	validate    *validator.Validate
	tracer      trace.Tracer
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		registry:    registry,
		eventBus:    eventBus,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

// WithTracer enables spans on the draft service operations.
func (a *API) WithTracer(tracer trace.Tracer) *API {
	a.tracer = tracer

	return a
}

func (a *API) App() *fiber.App {
	draftService := services.NewDrafts(a.persistence, a.registry, a.eventBus)
	if a.tracer != nil {
		draftService.WithTracer(a.tracer)
	}

	handlers := web.NewAPIHandlers(draftService, a.validate, a.registry)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Renoflow API")
	})

	d := app.Group("/drafts")
	d.Get("/", handlers.GetDrafts)
	d.Post("/", handlers.CreateDraft)
	d.Get("/:id", handlers.GetDraft)
	d.Patch("/:id", handlers.UpdateDraft)
	d.Post("/:id/archive", handlers.ArchiveDraft)
	d.Post("/:id/finalize", handlers.FinalizeDraft)

	app.Get("/folders/:id", handlers.GetFolder)

	m := app.Group("/modules")
	m.Get("/", handlers.GetModules)
	m.Get("/:code/steps/:step/schema", handlers.GetStepSchema)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
