package input

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvasflow/canvasflow/pkg/models"
)

func newContext(connections []*models.Connection, results map[string]any) *models.ExecutionContext {
	if results == nil {
		results = map[string]any{}
	}

	return &models.ExecutionContext{
		ExecutionID: "exec-1",
		WorkflowID:  "wf-1",
		Config:      models.DefaultRunConfig(),
		Connections: connections,
		Results:     results,
	}
}

func TestTextInputExecuteAuthoredContent(t *testing.T) {
	node := &models.WorkflowNode{
		ID:   "text-1",
		Kind: models.KindTextInput,
		Data: models.NodeData{Content: "a red panda"},
	}

	executor, err := NewTextInputFactory().Create(node)
	require.NoError(t, err)

	result, err := executor.Execute(context.Background(), node, newContext(nil, nil))
	require.NoError(t, err)
	assert.Equal(t, "a red panda", result)
}

func TestTextInputExecuteRelaysUpstreamContent(t *testing.T) {
	node := &models.WorkflowNode{ID: "text-2", Kind: models.KindTextInput}
	ec := newContext(
		[]*models.Connection{{ID: "c1", Source: "gen-1", Target: "text-2"}},
		map[string]any{"gen-1": "upstream story"},
	)

	executor, err := NewTextInputFactory().Create(node)
	require.NoError(t, err)

	result, err := executor.Execute(context.Background(), node, ec)
	require.NoError(t, err)
	assert.Equal(t, "upstream story", result)
}

func TestTextInputExecuteEmpty(t *testing.T) {
	node := &models.WorkflowNode{ID: "text-3", Kind: models.KindTextInput, Data: models.NodeData{Content: "   "}}

	executor, err := NewTextInputFactory().Create(node)
	require.NoError(t, err)

	_, err = executor.Execute(context.Background(), node, newContext(nil, nil))
	require.Error(t, err)

	var emptyErr *models.EmptyInputError

	require.ErrorAs(t, err, &emptyErr)
	assert.Contains(t, emptyErr.Error(), "no text content provided")
}

func TestImageInputExecute(t *testing.T) {
	node := &models.WorkflowNode{
		ID:   "image-1",
		Kind: models.KindImageInput,
		Data: models.NodeData{Content: "data:image/png;base64,iVBORw0KGgo="},
	}

	executor, err := NewImageInputFactory().Create(node)
	require.NoError(t, err)

	result, err := executor.Execute(context.Background(), node, newContext(nil, nil))
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,iVBORw0KGgo=", result)
}

func TestImageInputExecuteMissingUpload(t *testing.T) {
	node := &models.WorkflowNode{ID: "image-2", Kind: models.KindImageInput}

	executor, err := NewImageInputFactory().Create(node)
	require.NoError(t, err)

	_, err = executor.Execute(context.Background(), node, newContext(nil, nil))
	require.Error(t, err)

	var emptyErr *models.EmptyInputError

	require.ErrorAs(t, err, &emptyErr)
	assert.Contains(t, emptyErr.Error(), "no image uploaded")
}
