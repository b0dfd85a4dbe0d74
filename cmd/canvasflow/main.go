// Package main provides the canvasflow CLI for running, validating and
// scheduling workflows from the terminal.
package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/canvasflow/canvasflow/pkg/log"
)

func main() {
	cmd := &cli.Command{
		Name:                  "canvasflow",
		Usage:                 "Run and manage canvas workflows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			RunCommand(),
			ValidateCommand(),
			ScheduleCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.WithModule("cli").Error("Command failed", "error", err)
		os.Exit(1)
	}
}
