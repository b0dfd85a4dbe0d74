package generator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvasflow/canvasflow/pkg/gateway"
	"github.com/canvasflow/canvasflow/pkg/models"
)

type fakeGateway struct {
	lastRequest *gateway.Request
	response    *gateway.Response
	err         error
}

func (g *fakeGateway) Generate(_ context.Context, req *gateway.Request) (*gateway.Response, error) {
	g.lastRequest = req

	if g.err != nil {
		return nil, g.err
	}

	return g.response, nil
}

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

func TestGeneratorExecuteWithConnectedPrompt(t *testing.T) {
	gw := &fakeGateway{response: &gateway.Response{Result: "a short story", Type: "text"}}
	node := &models.WorkflowNode{ID: "gen-1", Kind: models.KindTextGenerator}

	executor, err := NewTextGeneratorFactory(gw).Create(node)
	require.NoError(t, err)

	ec := newContext(
		[]*models.Connection{{ID: "c1", Source: "text-1", Target: "gen-1"}},
		map[string]any{"text-1": "write a story about rain"},
	)

	result, err := executor.Execute(context.Background(), node, ec)
	require.NoError(t, err)
	assert.Equal(t, "a short story", result)

	require.NotNil(t, gw.lastRequest)
	assert.Equal(t, models.GenerationText, gw.lastRequest.Type)
	assert.Equal(t, "write a story about rain", gw.lastRequest.Prompt)
	assert.Equal(t, "write a story about rain", gw.lastRequest.InputData)
	assert.Equal(t, models.DefaultModel, gw.lastRequest.Config["model"])
	assert.Equal(t, models.DefaultProvider, gw.lastRequest.Config["provider"])
}

func TestGeneratorExecuteFallsBackToOwnContent(t *testing.T) {
	gw := &fakeGateway{response: &gateway.Response{Result: "standalone", Type: "text"}}
	node := &models.WorkflowNode{
		ID:   "gen-2",
		Kind: models.KindTextGenerator,
		Data: models.NodeData{Content: "describe the ocean"},
	}

	executor, err := NewTextGeneratorFactory(gw).Create(node)
	require.NoError(t, err)

	_, err = executor.Execute(context.Background(), node, newContext(nil, nil))
	require.NoError(t, err)
	assert.Equal(t, "describe the ocean", gw.lastRequest.Prompt)
	assert.Nil(t, gw.lastRequest.InputData)
}

func TestGeneratorExecuteMissingPrompt(t *testing.T) {
	tests := []struct {
		name        string
		connections []*models.Connection
		wantMessage string
	}{
		{
			name:        "unconnected",
			wantMessage: "no input prompt provided",
		},
		{
			name:        "connected without upstream result",
			connections: []*models.Connection{{ID: "c1", Source: "text-1", Target: "gen-3"}},
			wantMessage: "no input received from connected node",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{}
			node := &models.WorkflowNode{ID: "gen-3", Kind: models.KindTextGenerator}

			executor, err := NewTextGeneratorFactory(gw).Create(node)
			require.NoError(t, err)

			_, err = executor.Execute(context.Background(), node, newContext(tt.connections, nil))
			require.Error(t, err)

			var missingErr *models.MissingPromptError

			require.ErrorAs(t, err, &missingErr)
			assert.Contains(t, missingErr.Error(), tt.wantMessage)
			assert.Nil(t, gw.lastRequest)
		})
	}
}

func TestGeneratorExecuteGatewayFailure(t *testing.T) {
	gw := &fakeGateway{err: errors.New("rate limit exceeded")}
	node := &models.WorkflowNode{
		ID:   "gen-4",
		Kind: models.KindImageGenerator,
		Data: models.NodeData{Content: "a sunset"},
	}

	executor, err := NewImageGeneratorFactory(gw).Create(node)
	require.NoError(t, err)

	_, err = executor.Execute(context.Background(), node, newContext(nil, nil))
	require.Error(t, err)

	var genErr *models.GenerationFailedError

	require.ErrorAs(t, err, &genErr)
	assert.Contains(t, genErr.Error(), "rate limit exceeded")
}

func TestGeneratorLogoUsesImageGeneration(t *testing.T) {
	gw := &fakeGateway{response: &gateway.Response{Result: map[string]any{"imageUrl": "https://cdn/logo.png"}, Type: "image"}}
	node := &models.WorkflowNode{
		ID:   "logo-1",
		Kind: models.KindLogoGenerator,
		Data: models.NodeData{Content: "minimalist fox logo"},
	}

	executor, err := NewLogoGeneratorFactory(gw).Create(node)
	require.NoError(t, err)

	_, err = executor.Execute(context.Background(), node, newContext(nil, nil))
	require.NoError(t, err)
	assert.Equal(t, models.GenerationImage, gw.lastRequest.Type)
}

func TestMergeConfig(t *testing.T) {
	run := models.DefaultRunConfig()

	t.Run("defaults", func(t *testing.T) {
		merged := MergeConfig(models.KindTextGenerator, run, nil)
		assert.Equal(t, models.DefaultModel, merged["model"])
		assert.Equal(t, models.DefaultProvider, merged["provider"])
		assert.InDelta(t, models.DefaultTemperature, merged["temperature"], 0.001)
		assert.Equal(t, models.DefaultMaxTokens, merged["maxTokens"])
	})

	t.Run("node overrides win", func(t *testing.T) {
		merged := MergeConfig(models.KindTextGenerator, run, map[string]any{
			"model":       "llama-3.3-70b-versatile",
			"temperature": 0.2,
		})
		assert.Equal(t, "llama-3.3-70b-versatile", merged["model"])
		assert.InDelta(t, 0.2, merged["temperature"], 0.001)
	})

	t.Run("blank overrides ignored", func(t *testing.T) {
		merged := MergeConfig(models.KindTextGenerator, run, map[string]any{"model": "  "})
		assert.Equal(t, models.DefaultModel, merged["model"])
	})

	t.Run("audio defaults", func(t *testing.T) {
		merged := MergeConfig(models.KindAudioGenerator, run, nil)
		assert.Equal(t, models.DefaultAudioModel, merged["model"])
		assert.Equal(t, models.DefaultVoice, merged["voice"])
	})
}
