package registry

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvasflow/canvasflow/pkg/gateway"
	"github.com/canvasflow/canvasflow/pkg/models"
)

type nullGateway struct{}

func (nullGateway) Generate(_ context.Context, _ *gateway.Request) (*gateway.Response, error) {
	return &gateway.Response{Result: "ok", Type: "text"}, nil
}

func newTestRegistry() *Registry {
	r := NewRegistry(slog.Default())
	r.RegisterDefaultNodes(nullGateway{})

	return r
}

func TestRegistryCreateExecutor(t *testing.T) {
	r := newTestRegistry()

	for _, kind := range models.Kinds() {
		t.Run(string(kind), func(t *testing.T) {
			executor, err := r.CreateExecutor(&models.WorkflowNode{ID: "n1", Kind: kind})
			require.NoError(t, err)
			assert.NotNil(t, executor)
		})
	}
}

func TestRegistryCreateExecutorUnknownKind(t *testing.T) {
	r := newTestRegistry()

	_, err := r.CreateExecutor(&models.WorkflowNode{ID: "n1", Kind: "teleporter"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestRegistryValidateNodeConfig(t *testing.T) {
	r := newTestRegistry()

	err := r.ValidateNodeConfig(models.KindTextGenerator, map[string]any{
		"model":       "llama-3.3-70b-versatile",
		"temperature": 0.4,
		"maxTokens":   256,
	})
	require.NoError(t, err)

	err = r.ValidateNodeConfig(models.KindTextGenerator, map[string]any{"temperature": "hot"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestRegistryCreateExecutorRejectsInvalidConfig(t *testing.T) {
	r := newTestRegistry()

	_, err := r.CreateExecutor(&models.WorkflowNode{
		ID:   "gen-1",
		Kind: models.KindTextGenerator,
		Data: models.NodeData{Config: map[string]any{"maxTokens": -5}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config for node gen-1")
}

func TestRegistrySchema(t *testing.T) {
	r := newTestRegistry()

	schema, err := r.Schema(models.KindAudioGenerator)
	require.NoError(t, err)

	properties, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, properties, "voice")

	_, err = r.Schema("teleporter")
	require.Error(t, err)
}

func TestRegistryDescriptors(t *testing.T) {
	r := newTestRegistry()

	descriptors := r.Descriptors()
	require.Len(t, descriptors, len(models.Kinds()))

	for i := 1; i < len(descriptors); i++ {
		assert.Less(t, string(descriptors[i-1].Kind), string(descriptors[i].Kind))
	}
}
