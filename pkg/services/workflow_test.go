package services

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvasflow/canvasflow/pkg/gateway"
	"github.com/canvasflow/canvasflow/pkg/models"
	"github.com/canvasflow/canvasflow/pkg/persistence/file"
	"github.com/canvasflow/canvasflow/pkg/registry"
)

type nullGateway struct{}

func (nullGateway) Generate(_ context.Context, req *gateway.Request) (*gateway.Response, error) {
	return &gateway.Response{Result: "ok", Type: string(req.Type)}, nil
}

func newTestWorkflowService(t *testing.T) *Workflow {
	t.Helper()

	reg := registry.NewRegistry(slog.Default())
	reg.RegisterDefaultNodes(nullGateway{})

	return NewWorkflow(file.NewPersistence(t.TempDir()), reg, NewActiveRuns())
}

func TestWorkflow_Create(t *testing.T) {
	service := newTestWorkflowService(t)

	created, err := service.Create(t.Context(), CreateWorkflowRequest{
		Name:        "Logo Pipeline",
		Description: "Generates a logo from a brief",
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Logo Pipeline", created.Name)
	assert.False(t, created.CreatedAt.IsZero())
	assert.False(t, created.UpdatedAt.IsZero())
	assert.Empty(t, created.Nodes)
	assert.Empty(t, created.Connections)

	fetched, err := service.FetchByID(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)
}

func TestWorkflow_Create_RequiresName(t *testing.T) {
	service := newTestWorkflowService(t)

	_, err := service.Create(t.Context(), CreateWorkflowRequest{Name: "   "})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWorkflowNameRequired)
	assert.True(t, IsValidationError(err))
}

func TestWorkflow_Update(t *testing.T) {
	service := newTestWorkflowService(t)

	created, err := service.Create(t.Context(), CreateWorkflowRequest{Name: "Draft"})
	require.NoError(t, err)

	updated, err := service.Update(t.Context(), created.ID, UpdateWorkflowRequest{
		Name:        "Renamed",
		Description: "now with a description",
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, "now with a description", updated.Description)
	assert.Equal(t, "Renamed", updated.Metadata.Name)
}

func TestWorkflow_Update_NotFound(t *testing.T) {
	service := newTestWorkflowService(t)

	_, err := service.Update(t.Context(), "missing", UpdateWorkflowRequest{Name: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWorkflowNotFound)
}

func TestWorkflow_Delete(t *testing.T) {
	service := newTestWorkflowService(t)

	created, err := service.Create(t.Context(), CreateWorkflowRequest{Name: "Short-lived"})
	require.NoError(t, err)

	require.NoError(t, service.Delete(t.Context(), created.ID))

	_, err = service.FetchByID(t.Context(), created.ID)
	assert.ErrorIs(t, err, ErrWorkflowNotFound)
}

func TestWorkflow_AddNode(t *testing.T) {
	service := newTestWorkflowService(t)

	created, err := service.Create(t.Context(), CreateWorkflowRequest{Name: "Canvas"})
	require.NoError(t, err)

	node, err := service.AddNode(t.Context(), created.ID, AddNodeRequest{
		Kind:     models.KindTextInput,
		Label:    "Brief",
		Content:  "a minimal fox logo",
		Position: models.Position{X: 100, Y: 200},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, node.ID)
	assert.Equal(t, models.KindTextInput, node.Kind)
	assert.Equal(t, "Brief", node.Data.Label)

	fetched, err := service.FetchByID(t.Context(), created.ID)
	require.NoError(t, err)
	require.Len(t, fetched.Nodes, 1)
	assert.Equal(t, node.ID, fetched.Nodes[0].ID)
}

func TestWorkflow_AddNode_UnknownKind(t *testing.T) {
	service := newTestWorkflowService(t)

	created, err := service.Create(t.Context(), CreateWorkflowRequest{Name: "Canvas"})
	require.NoError(t, err)

	_, err = service.AddNode(t.Context(), created.ID, AddNodeRequest{Kind: "hologram"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownNodeKind)
	assert.True(t, IsValidationError(err))
}

func TestWorkflow_AddNode_InvalidConfig(t *testing.T) {
	service := newTestWorkflowService(t)

	created, err := service.Create(t.Context(), CreateWorkflowRequest{Name: "Canvas"})
	require.NoError(t, err)

	_, err = service.AddNode(t.Context(), created.ID, AddNodeRequest{
		Kind:   models.KindTextGenerator,
		Config: map[string]any{"temperature": "hot"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestWorkflow_UpdateNode(t *testing.T) {
	service := newTestWorkflowService(t)

	created, err := service.Create(t.Context(), CreateWorkflowRequest{Name: "Canvas"})
	require.NoError(t, err)

	node, err := service.AddNode(t.Context(), created.ID, AddNodeRequest{
		Kind:    models.KindTextInput,
		Content: "first draft",
	})
	require.NoError(t, err)

	content := "second draft"
	position := models.Position{X: 10, Y: 20}

	updated, err := service.UpdateNode(t.Context(), created.ID, node.ID, UpdateNodeRequest{
		Content:  &content,
		Position: &position,
	})
	require.NoError(t, err)
	assert.Equal(t, "second draft", updated.Data.Content)
	assert.InDelta(t, 10.0, updated.Position.X, 0.0001)
	assert.Equal(t, models.KindTextInput, updated.Kind)
}

func TestWorkflow_UpdateNode_NotFound(t *testing.T) {
	service := newTestWorkflowService(t)

	created, err := service.Create(t.Context(), CreateWorkflowRequest{Name: "Canvas"})
	require.NoError(t, err)

	_, err = service.UpdateNode(t.Context(), created.ID, "missing", UpdateNodeRequest{})
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestWorkflow_DeleteNode_CascadesConnections(t *testing.T) {
	service := newTestWorkflowService(t)

	created, err := service.Create(t.Context(), CreateWorkflowRequest{Name: "Canvas"})
	require.NoError(t, err)

	input, err := service.AddNode(t.Context(), created.ID, AddNodeRequest{Kind: models.KindTextInput})
	require.NoError(t, err)
	output, err := service.AddNode(t.Context(), created.ID, AddNodeRequest{Kind: models.KindOutput})
	require.NoError(t, err)

	_, err = service.AddConnection(t.Context(), created.ID, AddConnectionRequest{
		Source: input.ID,
		Target: output.ID,
	})
	require.NoError(t, err)

	require.NoError(t, service.DeleteNode(t.Context(), created.ID, input.ID))

	fetched, err := service.FetchByID(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Len(t, fetched.Nodes, 1)
	assert.Empty(t, fetched.Connections)
}

func TestWorkflow_AddConnection_Validation(t *testing.T) {
	service := newTestWorkflowService(t)

	created, err := service.Create(t.Context(), CreateWorkflowRequest{Name: "Canvas"})
	require.NoError(t, err)

	input, err := service.AddNode(t.Context(), created.ID, AddNodeRequest{Kind: models.KindTextInput})
	require.NoError(t, err)
	output, err := service.AddNode(t.Context(), created.ID, AddNodeRequest{Kind: models.KindOutput})
	require.NoError(t, err)

	t.Run("self loop", func(t *testing.T) {
		_, err := service.AddConnection(t.Context(), created.ID, AddConnectionRequest{
			Source: input.ID,
			Target: input.ID,
		})
		assert.ErrorIs(t, err, ErrSelfConnection)
	})

	t.Run("dangling", func(t *testing.T) {
		_, err := service.AddConnection(t.Context(), created.ID, AddConnectionRequest{
			Source: input.ID,
			Target: "ghost",
		})
		assert.ErrorIs(t, err, ErrDanglingConnection)
	})

	t.Run("duplicate", func(t *testing.T) {
		_, err := service.AddConnection(t.Context(), created.ID, AddConnectionRequest{
			Source: input.ID,
			Target: output.ID,
		})
		require.NoError(t, err)

		_, err = service.AddConnection(t.Context(), created.ID, AddConnectionRequest{
			Source: input.ID,
			Target: output.ID,
		})
		assert.ErrorIs(t, err, ErrDuplicateConnection)
	})
}

func TestWorkflow_DeleteConnection(t *testing.T) {
	service := newTestWorkflowService(t)

	created, err := service.Create(t.Context(), CreateWorkflowRequest{Name: "Canvas"})
	require.NoError(t, err)

	input, err := service.AddNode(t.Context(), created.ID, AddNodeRequest{Kind: models.KindTextInput})
	require.NoError(t, err)
	output, err := service.AddNode(t.Context(), created.ID, AddNodeRequest{Kind: models.KindOutput})
	require.NoError(t, err)

	conn, err := service.AddConnection(t.Context(), created.ID, AddConnectionRequest{
		Source: input.ID,
		Target: output.ID,
	})
	require.NoError(t, err)

	require.NoError(t, service.DeleteConnection(t.Context(), created.ID, conn.ID))

	err = service.DeleteConnection(t.Context(), created.ID, conn.ID)
	assert.ErrorIs(t, err, ErrConnectionNotFound)
}

func TestWorkflow_MutationRefusedWhileRunning(t *testing.T) {
	reg := registry.NewRegistry(slog.Default())
	reg.RegisterDefaultNodes(nullGateway{})

	runs := NewActiveRuns()
	service := NewWorkflow(file.NewPersistence(t.TempDir()), reg, runs)

	created, err := service.Create(t.Context(), CreateWorkflowRequest{Name: "Busy"})
	require.NoError(t, err)

	require.True(t, runs.TryAcquire(created.ID, "exec-1"))
	defer runs.Release(created.ID)

	_, err = service.Update(t.Context(), created.ID, UpdateWorkflowRequest{Name: "Nope"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWorkflowBusy)
	assert.True(t, IsConflictError(err))

	_, err = service.AddNode(t.Context(), created.ID, AddNodeRequest{Kind: models.KindTextInput})
	assert.ErrorIs(t, err, ErrWorkflowBusy)

	err = service.Delete(t.Context(), created.ID)
	assert.ErrorIs(t, err, ErrWorkflowBusy)
}

func TestWorkflow_ExportImport(t *testing.T) {
	service := newTestWorkflowService(t)

	created, err := service.Create(t.Context(), CreateWorkflowRequest{
		Name:        "Exportable",
		Description: "round trip",
	})
	require.NoError(t, err)

	input, err := service.AddNode(t.Context(), created.ID, AddNodeRequest{
		Kind:    models.KindTextInput,
		Content: "a brief",
	})
	require.NoError(t, err)
	output, err := service.AddNode(t.Context(), created.ID, AddNodeRequest{Kind: models.KindOutput})
	require.NoError(t, err)

	_, err = service.AddConnection(t.Context(), created.ID, AddConnectionRequest{
		Source: input.ID,
		Target: output.ID,
	})
	require.NoError(t, err)

	exported, err := service.Export(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Exportable", exported.Metadata.Name)
	assert.Equal(t, models.WorkflowFileVersion, exported.Metadata.Version)
	assert.Len(t, exported.Nodes, 2)
	assert.Len(t, exported.Connections, 1)

	imported, err := service.Import(t.Context(), exported)
	require.NoError(t, err)
	assert.NotEqual(t, created.ID, imported.ID)
	assert.Equal(t, "Exportable", imported.Name)
	assert.Len(t, imported.Nodes, 2)
}

func TestWorkflow_Import_RejectsInvalidGraph(t *testing.T) {
	service := newTestWorkflowService(t)

	doc := &models.WorkflowFile{
		Metadata: models.Metadata{Name: "Broken"},
		Nodes: []*models.WorkflowNode{
			{ID: "a", Kind: models.KindTextInput},
		},
		Connections: []*models.Connection{
			{ID: "c1", Source: "a", Target: "ghost"},
		},
	}

	_, err := service.Import(t.Context(), doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestWorkflow_List(t *testing.T) {
	service := newTestWorkflowService(t)

	for _, name := range []string{"First", "Second"} {
		_, err := service.Create(t.Context(), CreateWorkflowRequest{Name: name})
		require.NoError(t, err)
	}

	workflows, err := service.List(t.Context())
	require.NoError(t, err)
	assert.Len(t, workflows, 2)
}
