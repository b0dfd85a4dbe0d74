package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/canvasflow/canvasflow/pkg/eventbus"
	"github.com/canvasflow/canvasflow/pkg/events"
	"github.com/canvasflow/canvasflow/pkg/mocks"
	"github.com/canvasflow/canvasflow/pkg/models"
	"github.com/canvasflow/canvasflow/pkg/persistence/file"
	"github.com/canvasflow/canvasflow/pkg/registry"
	"github.com/canvasflow/canvasflow/pkg/workflow"
)

type capturingBus struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (b *capturingBus) Publish(_ context.Context, _ string, event eventbus.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events = append(b.events, event)

	return nil
}

func (b *capturingBus) types() []events.EventType {
	b.mu.Lock()
	defer b.mu.Unlock()

	types := make([]events.EventType, len(b.events))
	for i, event := range b.events {
		types[i] = event.GetType()
	}

	return types
}

type executionFixture struct {
	workflows  *Workflow
	executions *Execution
	runs       *ActiveRuns
	bus        *capturingBus
}

func newExecutionFixture(t *testing.T) *executionFixture {
	t.Helper()

	logger := slog.Default()
	reg := registry.NewRegistry(logger)
	reg.RegisterDefaultNodes(nullGateway{})

	persistence := file.NewPersistence(t.TempDir())
	runs := NewActiveRuns()
	bus := &capturingBus{}

	return &executionFixture{
		workflows: NewWorkflow(persistence, reg, runs),
		executions: NewExecution(
			persistence,
			workflow.NewExecutor(reg, logger),
			runs,
			logger,
			WithEventBus(bus),
		),
		runs: runs,
		bus:  bus,
	}
}

func (f *executionFixture) buildPipeline(t *testing.T) *models.Workflow {
	t.Helper()

	wf, err := f.workflows.Create(t.Context(), CreateWorkflowRequest{Name: "Pipeline"})
	require.NoError(t, err)

	input, err := f.workflows.AddNode(t.Context(), wf.ID, AddNodeRequest{
		Kind:    models.KindTextInput,
		Content: "a haiku about rivers",
	})
	require.NoError(t, err)

	gen, err := f.workflows.AddNode(t.Context(), wf.ID, AddNodeRequest{
		Kind: models.KindTextGenerator,
	})
	require.NoError(t, err)

	out, err := f.workflows.AddNode(t.Context(), wf.ID, AddNodeRequest{
		Kind: models.KindOutput,
	})
	require.NoError(t, err)

	for _, pair := range [][2]string{{input.ID, gen.ID}, {gen.ID, out.ID}} {
		_, err = f.workflows.AddConnection(t.Context(), wf.ID, AddConnectionRequest{
			Source: pair[0],
			Target: pair[1],
		})
		require.NoError(t, err)
	}

	current, err := f.workflows.FetchByID(t.Context(), wf.ID)
	require.NoError(t, err)

	return current
}

func TestExecution_Start(t *testing.T) {
	fixture := newExecutionFixture(t)
	wf := fixture.buildPipeline(t)

	execution, err := fixture.executions.Start(t.Context(), wf.ID, models.DefaultRunConfig())
	require.NoError(t, err)
	require.NotNil(t, execution)

	assert.Equal(t, models.StatusCompleted, execution.Status)
	assert.Len(t, execution.Records, 3)

	for _, record := range execution.Records {
		assert.Equal(t, models.StatusCompleted, record.Status)
	}

	stored, err := fixture.executions.FetchByID(t.Context(), execution.ID)
	require.NoError(t, err)
	assert.Equal(t, execution.ID, stored.ID)
	assert.Equal(t, models.StatusCompleted, stored.Status)

	// The lock is released once the run finishes.
	_, busy := fixture.runs.ExecutionFor(wf.ID)
	assert.False(t, busy)
}

func TestExecution_Start_PublishesLifecycleEvents(t *testing.T) {
	fixture := newExecutionFixture(t)
	wf := fixture.buildPipeline(t)

	_, err := fixture.executions.Start(t.Context(), wf.ID, models.DefaultRunConfig())
	require.NoError(t, err)

	types := fixture.bus.types()
	require.NotEmpty(t, types)
	assert.Equal(t, events.ExecutionStartedEvent, types[0])
	assert.Equal(t, events.ExecutionCompletedEvent, types[len(types)-1])

	var started, finished int

	for _, eventType := range types {
		switch eventType {
		case events.NodeExecutionStartedEvent:
			started++
		case events.NodeExecutionFinishedEvent:
			finished++
		}
	}

	assert.Equal(t, 3, started)
	assert.Equal(t, 3, finished)
}

func TestExecution_Start_WritesResultsBack(t *testing.T) {
	fixture := newExecutionFixture(t)
	wf := fixture.buildPipeline(t)

	_, err := fixture.executions.Start(t.Context(), wf.ID, models.DefaultRunConfig())
	require.NoError(t, err)

	reloaded, err := fixture.workflows.FetchByID(t.Context(), wf.ID)
	require.NoError(t, err)

	for _, node := range reloaded.Nodes {
		assert.NotNil(t, node.Data.Result, "node %s should carry its result", node.ID)
		assert.NotEmpty(t, node.Data.Preview)
	}
}

func TestExecution_Start_WorkflowNotFound(t *testing.T) {
	fixture := newExecutionFixture(t)

	_, err := fixture.executions.Start(t.Context(), "missing", models.DefaultRunConfig())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWorkflowNotFound)
}

func TestExecution_Start_RefusedWhileBusy(t *testing.T) {
	fixture := newExecutionFixture(t)
	wf := fixture.buildPipeline(t)

	require.True(t, fixture.runs.TryAcquire(wf.ID, "exec-other"))
	defer fixture.runs.Release(wf.ID)

	_, err := fixture.executions.Start(t.Context(), wf.ID, models.DefaultRunConfig())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWorkflowBusy)
	assert.True(t, IsConflictError(err))
}

func TestExecution_Start_InvalidGraph(t *testing.T) {
	fixture := newExecutionFixture(t)

	wf, err := fixture.workflows.Create(t.Context(), CreateWorkflowRequest{Name: "Cyclic"})
	require.NoError(t, err)

	a, err := fixture.workflows.AddNode(t.Context(), wf.ID, AddNodeRequest{Kind: models.KindTextGenerator})
	require.NoError(t, err)
	b, err := fixture.workflows.AddNode(t.Context(), wf.ID, AddNodeRequest{Kind: models.KindTextGenerator})
	require.NoError(t, err)

	for _, pair := range [][2]string{{a.ID, b.ID}, {b.ID, a.ID}} {
		_, err = fixture.workflows.AddConnection(t.Context(), wf.ID, AddConnectionRequest{
			Source: pair[0],
			Target: pair[1],
		})
		require.NoError(t, err)
	}

	execution, err := fixture.executions.Start(t.Context(), wf.ID, models.DefaultRunConfig())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.True(t, IsValidationError(err))

	require.NotNil(t, execution)
	assert.Equal(t, models.StatusError, execution.Status)
	assert.Empty(t, execution.Records)
}

func TestExecution_List(t *testing.T) {
	fixture := newExecutionFixture(t)
	wf := fixture.buildPipeline(t)
	other := fixture.buildPipeline(t)

	_, err := fixture.executions.Start(t.Context(), wf.ID, models.DefaultRunConfig())
	require.NoError(t, err)
	_, err = fixture.executions.Start(t.Context(), other.ID, models.DefaultRunConfig())
	require.NoError(t, err)

	all, err := fixture.executions.List(t.Context(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := fixture.executions.List(t.Context(), wf.ID)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, wf.ID, filtered[0].WorkflowID)
}

func TestExecution_Start_PersistFailure(t *testing.T) {
	logger := slog.Default()
	reg := registry.NewRegistry(logger)
	reg.RegisterDefaultNodes(nullGateway{})

	wf := &models.Workflow{
		ID:   "wf-1",
		Name: "Persist Failure",
		Nodes: []*models.WorkflowNode{
			{ID: "in", Kind: models.KindTextInput, Data: models.NodeData{Content: "hello"}},
		},
		Connections: []*models.Connection{},
	}

	persistence := mocks.NewMockPersistence()
	persistence.WorkflowRepo.On("WorkflowByID", mock.Anything, "wf-1").Return(wf, nil)
	persistence.WorkflowRepo.On("SaveWorkflow", mock.Anything, mock.Anything).Return(nil)
	persistence.ExecutionRepo.On("SaveExecution", mock.Anything, mock.Anything).
		Return(errors.New("disk full"))

	service := NewExecution(persistence, workflow.NewExecutor(reg, logger), NewActiveRuns(), logger)

	execution, err := service.Start(t.Context(), "wf-1", models.DefaultRunConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	// The run itself still completed; only persisting it failed.
	require.NotNil(t, execution)
	assert.Equal(t, models.StatusCompleted, execution.Status)

	persistence.ExecutionRepo.AssertExpectations(t)
}

func TestExecution_Start_PublishFailureDoesNotBreakRun(t *testing.T) {
	fixture := newExecutionFixture(t)
	wf := fixture.buildPipeline(t)

	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, wf.ID, mock.Anything).Return(errors.New("broker down"))

	service := NewExecution(
		fixture.executions.persistence,
		fixture.executions.executor,
		NewActiveRuns(),
		slog.Default(),
		WithEventBus(bus),
	)

	execution, err := service.Start(t.Context(), wf.ID, models.DefaultRunConfig())
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, execution.Status)

	bus.AssertExpectations(t)
}

func TestExecution_FetchByID_NotFound(t *testing.T) {
	fixture := newExecutionFixture(t)

	_, err := fixture.executions.FetchByID(t.Context(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExecutionNotFound)
}
