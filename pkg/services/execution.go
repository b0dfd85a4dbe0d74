package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/canvasflow/canvasflow/pkg/eventbus"
	"github.com/canvasflow/canvasflow/pkg/events"
	"github.com/canvasflow/canvasflow/pkg/models"
	"github.com/canvasflow/canvasflow/pkg/otelhelper"
	"github.com/canvasflow/canvasflow/pkg/persistence"
	"github.com/canvasflow/canvasflow/pkg/workflow"
)

// ErrExecutionNotFound is returned when an execution is not found.
var ErrExecutionNotFound = persistence.ErrExecutionNotFound

// Execution orchestrates workflow runs: it locks the workflow, drives the
// engine, bridges run-log events onto the event bus and persists the final
// record set.
type Execution struct {
	persistence persistence.Persistence
	executor    *workflow.Executor
	runs        *ActiveRuns
	eventBus    eventbus.EventPublisher
	tracer      trace.Tracer
	apiKeys     map[string]string
	logger      *slog.Logger
}

// ExecutionOption configures optional collaborators of the execution
// service.
type ExecutionOption func(*Execution)

// WithEventBus publishes run lifecycle events to the given bus.
func WithEventBus(bus eventbus.EventPublisher) ExecutionOption {
	return func(e *Execution) {
		e.eventBus = bus
	}
}

// WithTracer wraps each run in a trace span.
func WithTracer(tracer trace.Tracer) ExecutionOption {
	return func(e *Execution) {
		e.tracer = tracer
	}
}

// WithAPIKeys supplies provider credentials applied to runs that carry none.
func WithAPIKeys(keys map[string]string) ExecutionOption {
	return func(e *Execution) {
		e.apiKeys = keys
	}
}

// NewExecution creates a new execution service.
func NewExecution(
	persistence persistence.Persistence,
	executor *workflow.Executor,
	runs *ActiveRuns,
	logger *slog.Logger,
	opts ...ExecutionOption,
) *Execution {
	e := &Execution{
		persistence: persistence,
		executor:    executor,
		runs:        runs,
		logger:      logger.With("module", "execution_service"),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// List retrieves executions, optionally filtered by workflow. An empty
// workflowID returns all executions.
func (e *Execution) List(ctx context.Context, workflowID string) ([]*models.Execution, error) {
	executions, err := e.persistence.ExecutionRepository().Executions(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}

	return executions, nil
}

// FetchByID retrieves an execution by its ID.
func (e *Execution) FetchByID(ctx context.Context, id string) (*models.Execution, error) {
	execution, err := e.persistence.ExecutionRepository().ExecutionByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if execution == nil {
		return nil, ErrExecutionNotFound
	}

	return execution, nil
}

// Start runs a workflow synchronously and returns the sealed execution. Only
// one run per workflow may be in flight; concurrent starts are refused with
// ErrWorkflowBusy. Graph-structural problems surface as validation errors
// with an empty record set; per-node failures do not fail the run.
func (e *Execution) Start(ctx context.Context, workflowID string, cfg models.RunConfig) (*models.Execution, error) {
	wf, err := e.persistence.WorkflowRepository().WorkflowByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if wf == nil {
		return nil, ErrWorkflowNotFound
	}

	if len(cfg.APIKeys) == 0 {
		cfg.APIKeys = e.apiKeys
	}

	executionID := uuid.New().String()
	if !e.runs.TryAcquire(workflowID, executionID) {
		inFlight, _ := e.runs.ExecutionFor(workflowID)

		return nil, &ServiceError{
			Op:      "Start",
			Message: fmt.Sprintf("execution %s is in flight", inFlight),
			Err:     ErrWorkflowBusy,
		}
	}
	defer e.runs.Release(workflowID)

	logger := e.logger.With("workflow_id", workflowID, "execution_id", executionID)

	runLog := workflow.NewRunLog(executionID, workflowID, logger)
	if e.eventBus != nil {
		runLog.Subscribe(e.publishEvent(ctx, wf))
	}

	if e.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, e.tracer, "workflow.execute",
			attribute.String(otelhelper.WorkflowIDKey, workflowID),
			attribute.String(otelhelper.WorkflowNameKey, wf.Name),
			attribute.String(otelhelper.ExecutionIDKey, executionID),
		)
		defer span.End()

		defer func() {
			if err != nil {
				otelhelper.SetError(span, err)
			}
		}()
	}

	execution, err := e.executor.Execute(ctx, wf, cfg, runLog)

	if saveErr := e.persistence.ExecutionRepository().SaveExecution(ctx, execution); saveErr != nil {
		logger.Error("Failed to persist execution", "error", saveErr)

		if err == nil {
			err = fmt.Errorf("failed to persist execution: %w", saveErr)
		}
	}

	e.writeBackResults(ctx, workflowID, execution, logger)

	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return execution, NewValidationError("Start", err.Error(), ErrInvalidRequest)
	}

	return execution, err
}

// publishEvent bridges run-log events onto the event bus. Publish failures
// are logged and dropped; eventing never breaks a run.
func (e *Execution) publishEvent(ctx context.Context, wf *models.Workflow) workflow.Listener {
	started := time.Now().UTC()

	return func(ev workflow.Event) {
		event := e.translate(ev, wf, started)
		if event == nil {
			return
		}

		if err := e.eventBus.Publish(ctx, ev.WorkflowID, event); err != nil {
			e.logger.Warn("Failed to publish execution event",
				"event_type", ev.Type, "workflow_id", ev.WorkflowID, "error", err)
		}
	}
}

func (e *Execution) translate(ev workflow.Event, wf *models.Workflow, started time.Time) eventbus.Event {
	base := func(eventType events.EventType) events.BaseEvent {
		return events.NewBaseEvent(eventType, ev.WorkflowID, ev.ExecutionID)
	}

	switch ev.Type {
	case workflow.EventExecutionStarted:
		return events.ExecutionStarted{
			BaseEvent: base(events.ExecutionStartedEvent),
			NodeCount: len(wf.Nodes),
		}
	case workflow.EventNodeStarted:
		event := events.NodeExecutionStarted{
			BaseEvent: base(events.NodeExecutionStartedEvent),
			NodeID:    ev.NodeID,
		}

		if node := wf.Node(ev.NodeID); node != nil {
			event.NodeKind = node.Kind
		}

		return event
	case workflow.EventNodeFinished:
		return events.NodeExecutionFinished{
			BaseEvent: base(events.NodeExecutionFinishedEvent),
			NodeID:    ev.NodeID,
			Result:    ev.Result,
			Preview:   models.Preview(ev.Result),
		}
	case workflow.EventNodeFailed:
		return events.NodeExecutionFailed{
			BaseEvent: base(events.NodeExecutionFailedEvent),
			NodeID:    ev.NodeID,
			Error:     ev.Error,
		}
	case workflow.EventExecutionCompleted:
		return events.ExecutionCompleted{
			BaseEvent: base(events.ExecutionCompletedEvent),
			Duration:  ev.Timestamp.Sub(started),
		}
	case workflow.EventExecutionFailed:
		return events.ExecutionFailed{
			BaseEvent: base(events.ExecutionFailedEvent),
			Status:    ev.Status,
			Error:     ev.Error,
		}
	}

	return nil
}

// writeBackResults copies node results from the sealed execution into the
// stored workflow so the canvas shows them on next load. The run itself is
// already persisted; a write-back failure is logged, not returned.
func (e *Execution) writeBackResults(ctx context.Context, workflowID string, execution *models.Execution, logger *slog.Logger) {
	if execution == nil || len(execution.Records) == 0 {
		return
	}

	stored, err := e.persistence.WorkflowRepository().WorkflowByID(ctx, workflowID)
	if err != nil || stored == nil {
		logger.Warn("Failed to reload workflow for result write-back", "error", err)

		return
	}

	var dirty bool

	for _, record := range execution.Records {
		if record.Status != models.StatusCompleted {
			continue
		}

		node := stored.Node(record.NodeID)
		if node == nil {
			continue
		}

		node.Data.Result = record.Result
		node.Data.Preview = models.Preview(record.Result)
		dirty = true
	}

	if !dirty {
		return
	}

	if err := e.persistence.WorkflowRepository().SaveWorkflow(ctx, stored); err != nil {
		logger.Warn("Failed to write node results back to workflow", "error", err)
	}
}
