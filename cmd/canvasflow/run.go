package main

import (
	"context"
	"fmt"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/canvasflow/canvasflow/pkg/cmd"
	"github.com/canvasflow/canvasflow/pkg/config"
	"github.com/canvasflow/canvasflow/pkg/eventbus"
	"github.com/canvasflow/canvasflow/pkg/events"
	"github.com/canvasflow/canvasflow/pkg/log"
	"github.com/canvasflow/canvasflow/pkg/models"
	"github.com/canvasflow/canvasflow/pkg/services"
	"github.com/canvasflow/canvasflow/pkg/workflow"
)

func runFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "workflow-id",
			Aliases:  []string{"w"},
			Usage:    "ID of the workflow to run",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "config",
			Usage:   "Path to a canvasflow.yaml config file",
			Sources: cli.EnvVars("CANVASFLOW_CONFIG"),
		},
		&cli.StringFlag{
			Name:    "database-url",
			Usage:   "Database connection URL (postgres://, redis://, or a directory path)",
			Value:   "./data",
			Sources: cli.EnvVars("DATABASE_URL"),
		},
		&cli.StringFlag{
			Name:    "gateway-url",
			Usage:   "Generation gateway endpoint",
			Value:   "http://localhost:8787",
			Sources: cli.EnvVars("GATEWAY_URL"),
		},
		&cli.StringFlag{
			Name:  "provider",
			Usage: "Generation provider override",
		},
		&cli.StringFlag{
			Name:  "model",
			Usage: "Model override",
		},
		&cli.StringFlag{
			Name:  "voice",
			Usage: "Voice override for audio generation",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Bound the whole run (0 means no timeout)",
		},
	}
}

// RunCommand runs one workflow to completion, printing per-node progress.
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Run a workflow once",
		Flags:   runFlags(),
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			execution, err := runOnce(ctx, command)
			if err != nil {
				return err
			}

			printSummary(execution)

			return nil
		},
	}
}

func runOnce(ctx context.Context, command *cli.Command) (*models.Execution, error) {
	slogger := log.WithModule("cli")

	fileCfg, err := config.Load(command.String("config"))
	if err != nil {
		return nil, err
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

	registry := cmd.NewRegistry(slogger, gatewayURL)

	persistence := cmd.NewPersistence(ctx, slogger, databaseURL)
	defer func() {
		if err := persistence.Close(ctx); err != nil {
			slogger.Error("Failed to close persistence", "error", err)
		}
	}()

	eventBus := cmd.NewEventBus("gochannel", "canvasflow-cli", slogger)
	defer func() {
		if err := eventBus.Close(); err != nil {
			slogger.Error("Failed to close event bus", "error", err)
		}
	}()

	registerProgressHandlers(eventBus)

	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := eventBus.Subscribe(subCtx); err != nil {
		return nil, fmt.Errorf("failed to subscribe to execution events: %w", err)
	}

	executionService := services.NewExecution(
		persistence,
		workflow.NewExecutor(registry, slogger),
		services.NewActiveRuns(),
		slogger,
		services.WithEventBus(eventBus),
	)

	cfg := fileCfg.RunConfig()
	if provider := command.String("provider"); provider != "" {
		cfg.Provider = provider
	}

	if model := command.String("model"); model != "" {
		cfg.Model = model
	}

	if voice := command.String("voice"); voice != "" {
		cfg.Voice = voice
	}

	if command.IsSet("timeout") {
		cfg.Timeout = command.Duration("timeout")
	}

	execution, err := executionService.Start(ctx, command.String("workflow-id"), cfg)

	// Give the in-process bus a moment to drain before tearing down.
	time.Sleep(100 * time.Millisecond)

	return execution, err
}

func registerProgressHandlers(bus eventbus.EventBus) {
	_ = bus.Handle(events.ExecutionStartedEvent, func(_ context.Context, event any) error {
		if e, ok := event.(*events.ExecutionStarted); ok {
			fmt.Printf("execution %s started (%d nodes)\n", e.ExecutionID, e.NodeCount)
		}

		return nil
	})

	_ = bus.Handle(events.NodeExecutionStartedEvent, func(_ context.Context, event any) error {
		if e, ok := event.(*events.NodeExecutionStarted); ok {
			fmt.Printf("  -> %s [%s] running\n", e.NodeID, e.NodeKind)
		}

		return nil
	})

	_ = bus.Handle(events.NodeExecutionFinishedEvent, func(_ context.Context, event any) error {
		if e, ok := event.(*events.NodeExecutionFinished); ok {
			fmt.Printf("  <- %s done: %s\n", e.NodeID, e.Preview)
		}

		return nil
	})

	_ = bus.Handle(events.NodeExecutionFailedEvent, func(_ context.Context, event any) error {
		if e, ok := event.(*events.NodeExecutionFailed); ok {
			fmt.Printf("  !! %s failed: %s\n", e.NodeID, e.Error)
		}

		return nil
	})
}

func printSummary(execution *models.Execution) {
	if execution == nil {
		return
	}

	fmt.Printf("\nexecution %s finished with status %s\n", execution.ID, execution.Status)

	for _, record := range execution.Records {
		line := fmt.Sprintf("  %-10s %s", record.Status, record.NodeID)
		if record.Error != "" {
			line += " (" + record.Error + ")"
		}

		fmt.Println(line)
	}
}
