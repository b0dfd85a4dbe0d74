package output

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvasflow/canvasflow/pkg/models"
)

func TestOutputExecutePassesUpstreamResult(t *testing.T) {
	node := &models.WorkflowNode{ID: "out-1", Kind: models.KindOutput}
	ec := &models.ExecutionContext{
		Config:      models.DefaultRunConfig(),
		Connections: []*models.Connection{{ID: "c1", Source: "gen-1", Target: "out-1"}},
		Results: map[string]any{
			"gen-1": map[string]any{"imageUrl": "https://cdn/art.png", "type": "image"},
		},
	}

	executor, err := NewOutputFactory().Create(node)
	require.NoError(t, err)

	result, err := executor.Execute(context.Background(), node, ec)
	require.NoError(t, err)
	assert.Equal(t, ec.Results["gen-1"], result)
}

func TestOutputExecuteNoConnection(t *testing.T) {
	node := &models.WorkflowNode{ID: "out-2", Kind: models.KindOutput}
	ec := &models.ExecutionContext{Config: models.DefaultRunConfig(), Results: map[string]any{}}

	executor, err := NewOutputFactory().Create(node)
	require.NoError(t, err)

	_, err = executor.Execute(context.Background(), node, ec)
	require.Error(t, err)

	var noInput *models.NoInputError

	require.ErrorAs(t, err, &noInput)
	assert.Contains(t, noInput.Error(), "no input connected to output node")
}

func TestOutputExecuteUpstreamFailed(t *testing.T) {
	// Upstream node failed so no result entry exists for it.
	node := &models.WorkflowNode{ID: "out-3", Kind: models.KindOutput}
	ec := &models.ExecutionContext{
		Config:      models.DefaultRunConfig(),
		Connections: []*models.Connection{{ID: "c1", Source: "gen-1", Target: "out-3"}},
		Results:     map[string]any{},
	}

	executor, err := NewOutputFactory().Create(node)
	require.NoError(t, err)

	_, err = executor.Execute(context.Background(), node, ec)
	require.Error(t, err)
}
