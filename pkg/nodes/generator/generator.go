// Package generator provides the node executors that call the generation
// gateway: text, image, video, audio and logo generators. The gateway call is
// the only suspension point of a workflow run.
package generator

import (
	"context"
	"strings"

	"github.com/canvasflow/canvasflow/pkg/gateway"
	"github.com/canvasflow/canvasflow/pkg/models"
)

// Executor runs one generator node of a fixed kind against the gateway.
type Executor struct {
	kind    models.NodeKind
	gateway gateway.Gateway
}

// Execute resolves the node's prompt, merges its generation settings and
// performs the gateway call.
func (e *Executor) Execute(ctx context.Context, node *models.WorkflowNode, ec *models.ExecutionContext) (any, error) {
	resolved := ec.ResolveInput(node.ID)

	prompt := resolved.Content
	if prompt == "" {
		prompt = strings.TrimSpace(node.Data.Content)
	}

	if prompt == "" {
		return nil, &models.MissingPromptError{NodeID: node.ID, Connected: resolved.Connected}
	}

	req := &gateway.Request{
		Type:   e.kind.GenerationType(),
		Prompt: prompt,
		NodeID: node.ID,
		Config: MergeConfig(e.kind, ec.Config, node.Data.Config),
	}

	if resolved.Connected {
		req.InputData = resolved.Raw
	}

	resp, err := e.gateway.Generate(ctx, req)
	if err != nil {
		return nil, &models.GenerationFailedError{NodeID: node.ID, Message: err.Error()}
	}

	return resp.Result, nil
}

// MergeConfig builds the generation settings for one node call. Run-level
// settings provide the base, node-level config overrides field by field.
// Audio nodes get the audio model and voice defaults instead of the text
// model.
func MergeConfig(kind models.NodeKind, run models.RunConfig, nodeConfig map[string]any) map[string]any {
	merged := map[string]any{
		"provider":    run.Provider,
		"model":       run.Model,
		"temperature": run.Temperature,
		"maxTokens":   run.MaxTokens,
	}

	if kind.GenerationType() == models.GenerationAudio {
		merged["model"] = models.DefaultAudioModel
		merged["voice"] = run.Voice
	}

	for key, value := range nodeConfig {
		if value == nil {
			continue
		}

		if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}

		merged[key] = value
	}

	return merged
}
