package workflow

import (
	"context"
	"log/slog"

	"github.com/canvasflow/canvasflow/pkg/models"
	"github.com/canvasflow/canvasflow/pkg/protocol"
)

// Executor runs a workflow sequentially in topological order. Only
// graph-structural problems abort a run; per-node failures are recorded and
// the remaining nodes still execute, so every run yields a complete record
// list.
type Executor struct {
	registry protocol.ExecutorRegistry
	logger   *slog.Logger
}

// NewExecutor creates an executor dispatching through the given registry.
func NewExecutor(registry protocol.ExecutorRegistry, logger *slog.Logger) *Executor {
	return &Executor{
		registry: registry,
		logger:   logger.With("module", "workflow_executor"),
	}
}

// Execute runs one workflow. The workflow is deep-copied first, so mutations
// made to wf while the run is in flight do not affect it. Records and events
// are written through runLog; the returned execution is the sealed snapshot.
func (e *Executor) Execute(ctx context.Context, wf *models.Workflow, cfg models.RunConfig, runLog *RunLog) (*models.Execution, error) {
	logger := e.logger.With("workflow_id", wf.ID)
	logger.Info("Starting workflow execution", "nodes", len(wf.Nodes), "connections", len(wf.Connections))

	snapshot := wf.Clone()

	if err := Validate(snapshot); err != nil {
		logger.Error("Workflow failed validation", "error", err)
		runLog.Finish(models.StatusError, err.Error())

		return runLog.Snapshot(), err
	}

	// Order is computed before any record is seeded, so a cyclic graph
	// produces zero records.
	order, err := TopologicalOrder(snapshot)
	if err != nil {
		logger.Error("Workflow has a circular dependency", "error", err)
		runLog.Finish(models.StatusError, err.Error())

		return runLog.Snapshot(), err
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	runLog.Begin(order)

	execution := runLog.Snapshot()
	ec := &models.ExecutionContext{
		ExecutionID: execution.ID,
		WorkflowID:  snapshot.ID,
		Config:      cfg,
		Connections: snapshot.Connections,
		Results:     make(map[string]any, len(order)),
	}

	for i, nodeID := range order {
		if ctxErr := ctx.Err(); ctxErr != nil {
			logger.Warn("Workflow execution interrupted", "node_id", nodeID, "error", ctxErr)

			for _, remaining := range order[i:] {
				runLog.RecordCancelled(remaining)
			}

			runLog.Finish(models.StatusCancelled, ctxErr.Error())

			return runLog.Snapshot(), ctxErr
		}

		e.executeNode(ctx, snapshot, nodeID, ec, runLog, logger)
	}

	runLog.Finish(models.StatusCompleted, "")
	logger.Info("Workflow execution finished", "nodes_executed", len(order))

	return runLog.Snapshot(), nil
}

func (e *Executor) executeNode(ctx context.Context, wf *models.Workflow, nodeID string, ec *models.ExecutionContext, runLog *RunLog, logger *slog.Logger) {
	node := wf.Node(nodeID)
	if node == nil {
		return
	}

	logger = logger.With("node_id", nodeID, "node_kind", node.Kind)
	logger.Info("Executing node")

	node.Data.IsExecuting = true
	runLog.RecordStart(nodeID)

	result, err := e.dispatch(ctx, node, ec)

	node.Data.IsExecuting = false

	if err != nil {
		logger.Error("Node execution failed", "error", err)
		runLog.RecordFailure(nodeID, err)

		return
	}

	ec.Results[nodeID] = result
	node.Data.Result = result
	node.Data.Preview = models.Preview(result)

	if content := models.ExtractContent(result); content != "" {
		node.Data.Content = content
	}

	runLog.RecordSuccess(nodeID, result)
	logger.Info("Node execution completed")
}

func (e *Executor) dispatch(ctx context.Context, node *models.WorkflowNode, ec *models.ExecutionContext) (any, error) {
	executor, err := e.registry.CreateExecutor(node)
	if err != nil {
		return nil, err
	}

	return executor.Execute(ctx, node, ec)
}
