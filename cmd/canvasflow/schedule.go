package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	cli "github.com/urfave/cli/v3"

	"github.com/canvasflow/canvasflow/pkg/log"
)

// ScheduleCommand runs a workflow on a recurring cron schedule until
// interrupted.
func ScheduleCommand() *cli.Command {
	flags := append(runFlags(), &cli.StringFlag{
		Name:     "cron",
		Aliases:  []string{"c"},
		Usage:    "Cron expression (standard 5-field format)",
		Required: true,
	})

	return &cli.Command{
		Name:    "schedule",
		Aliases: []string{"s"},
		Usage:   "Run a workflow on a cron schedule",
		Flags:   flags,
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			expr := command.String("cron")
			if _, err := cron.ParseStandard(expr); err != nil {
				return fmt.Errorf("invalid cron expression %q: %w", expr, err)
			}

			logger := log.WithModule("scheduler")

			scheduler := cron.New()

			_, err := scheduler.AddFunc(expr, func() {
				execution, runErr := runOnce(ctx, command)
				if runErr != nil {
					logger.Error("Scheduled run failed", "error", runErr)

					return
				}

				printSummary(execution)
			})
			if err != nil {
				return fmt.Errorf("failed to schedule workflow: %w", err)
			}

			scheduler.Start()
			defer scheduler.Stop()

			logger.Info("Scheduler started",
				"workflow_id", command.String("workflow-id"), "cron", expr)

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

			select {
			case <-stop:
			case <-ctx.Done():
			}

			logger.Info("Scheduler stopping")

			return nil
		},
	}
}
