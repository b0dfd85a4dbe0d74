// Package persistence provides the storage abstraction for workflows and
// execution history.
package persistence

import (
	"context"

	"github.com/canvasflow/canvasflow/pkg/models"
)

// WorkflowRepository stores workflow documents.
type WorkflowRepository interface {
	Workflows(ctx context.Context) ([]*models.Workflow, error)
	WorkflowByID(ctx context.Context, id string) (*models.Workflow, error)
	SaveWorkflow(ctx context.Context, workflow *models.Workflow) error
	DeleteWorkflow(ctx context.Context, id string) error
}

// ExecutionRepository stores finished and in-flight run aggregates.
type ExecutionRepository interface {
	Executions(ctx context.Context, workflowID string) ([]*models.Execution, error)
	ExecutionByID(ctx context.Context, id string) (*models.Execution, error)
	SaveExecution(ctx context.Context, execution *models.Execution) error
}

type Persistence interface {
	WorkflowRepository() WorkflowRepository
	ExecutionRepository() ExecutionRepository
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
