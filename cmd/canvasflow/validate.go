package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/canvasflow/canvasflow/pkg/cmd"
	"github.com/canvasflow/canvasflow/pkg/log"
	"github.com/canvasflow/canvasflow/pkg/models"
	"github.com/canvasflow/canvasflow/pkg/workflow"
)

// ValidateCommand checks a workflow's graph without running it.
func ValidateCommand() *cli.Command {
	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate a workflow graph",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "workflow-id",
				Aliases: []string{"w"},
				Usage:   "ID of a stored workflow to validate",
			},
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Path to an exported workflow file to validate",
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Database connection URL (postgres://, redis://, or a directory path)",
				Value:   "./data",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			wf, err := loadWorkflow(ctx, command)
			if err != nil {
				return err
			}

			if err := workflow.Validate(wf); err != nil {
				return fmt.Errorf("workflow is invalid: %w", err)
			}

			order, err := workflow.TopologicalOrder(wf)
			if err != nil {
				return fmt.Errorf("workflow is invalid: %w", err)
			}

			fmt.Printf("workflow %q is valid (%d nodes, %d connections)\n",
				wf.Name, len(wf.Nodes), len(wf.Connections))
			fmt.Println("execution order:")

			for i, nodeID := range order {
				node := wf.Node(nodeID)
				fmt.Printf("  %2d. %s [%s]\n", i+1, nodeID, node.Kind)
			}

			return nil
		},
	}
}

func loadWorkflow(ctx context.Context, command *cli.Command) (*models.Workflow, error) {
	if path := command.String("file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read workflow file: %w", err)
		}

		var file models.WorkflowFile
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse workflow file: %w", err)
		}

		return &models.Workflow{
			ID:          "file",
			Name:        file.Metadata.Name,
			Nodes:       file.Nodes,
			Connections: file.Connections,
			Metadata:    file.Metadata,
		}, nil
	}

	workflowID := command.String("workflow-id")
	if workflowID == "" {
		return nil, fmt.Errorf("either --workflow-id or --file is required")
	}

	slogger := log.WithModule("cli")

	persistence := cmd.NewPersistence(ctx, slogger, command.String("database-url"))
	defer func() {
		if err := persistence.Close(ctx); err != nil {
			slogger.Error("Failed to close persistence", "error", err)
		}
	}()

	wf, err := persistence.WorkflowRepository().WorkflowByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if wf == nil {
		return nil, fmt.Errorf("workflow %s not found", workflowID)
	}

	return wf, nil
}
