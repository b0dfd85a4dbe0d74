// Package main provides the Canvasflow API server.
package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	cli "github.com/urfave/cli/v3"

	"github.com/canvasflow/canvasflow/pkg/cmd"
	"github.com/canvasflow/canvasflow/pkg/config"
	"github.com/canvasflow/canvasflow/pkg/eventbus"
	"github.com/canvasflow/canvasflow/pkg/log"
	"github.com/canvasflow/canvasflow/pkg/otelhelper"
	"github.com/canvasflow/canvasflow/pkg/persistence"
	"github.com/canvasflow/canvasflow/pkg/registry"
	"github.com/canvasflow/canvasflow/pkg/services"
	"github.com/canvasflow/canvasflow/pkg/web"
	"github.com/canvasflow/canvasflow/pkg/workflow"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	apiKeys     map[string]string
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
	apiKeys map[string]string,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		registry:    registry,
		eventBus:    eventBus,
		apiKeys:     apiKeys,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App(ctx context.Context) *fiber.App {
	runs := services.NewActiveRuns()
	workflowService := services.NewWorkflow(a.persistence, a.registry, runs)

	executionOpts := []services.ExecutionOption{
		services.WithEventBus(a.eventBus),
	}

	if len(a.apiKeys) > 0 {
		executionOpts = append(executionOpts, services.WithAPIKeys(a.apiKeys))
	}

	if tracer, err := otelhelper.NewTracer(ctx, "canvasflow-api"); err == nil {
		executionOpts = append(executionOpts, services.WithTracer(tracer))
	} else {
		a.logger.Warn("Tracing disabled", "error", err)
	}

	executionService := services.NewExecution(
		a.persistence,
		workflow.NewExecutor(a.registry, a.logger),
		runs,
		a.logger,
		executionOpts...,
	)

	handlers := web.NewAPIHandlers(workflowService, executionService, a.validate, a.registry)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Canvasflow API")
	})

	handlers.Register(app)

	return app
}

func (a *API) Start(ctx context.Context, port int) error {
	return a.App(ctx).Listen(":" + strconv.Itoa(port))
}

func runAPI(ctx context.Context, logger *slog.Logger, command *cli.Command) error {
	fileCfg, err := config.Load(command.String("config"))
	if err != nil {
		return err
	}

	if !command.IsSet("log-level") && fileCfg.LogLevel != "" {
		log.Setup(fileCfg.LogLevel)
	}

	gatewayURL := command.String("gateway-url")
	if !command.IsSet("gateway-url") && fileCfg.GatewayURL != "" {
		gatewayURL = fileCfg.GatewayURL
	}

	databaseURL := command.String("database-url")
	if !command.IsSet("database-url") && fileCfg.DatabaseURL != "" {
		databaseURL = fileCfg.DatabaseURL
	}

	busProvider := command.String("event-bus")
	if !command.IsSet("event-bus") && fileCfg.EventBus != "" {
		busProvider = fileCfg.EventBus
	}

	registry := cmd.NewRegistry(logger, gatewayURL)

	persistence := cmd.NewPersistence(ctx, logger, databaseURL)
	defer func() {
		if err := persistence.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	eventBus := cmd.NewEventBus(busProvider, "canvasflow-api", logger)
	defer func() {
		if err := eventBus.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	api := NewAPI(logger, persistence, registry, eventBus, fileCfg.APIKeys)

	return api.Start(ctx, command.Int("port"))
}
