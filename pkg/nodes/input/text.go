// Package input provides the source node executors that feed content into a
// workflow run: authored text and uploaded images.
package input

import (
	"context"
	"strings"

	"github.com/canvasflow/canvasflow/pkg/models"
	"github.com/canvasflow/canvasflow/pkg/protocol"
)

// TextInputExecutor emits the node's authored text. When the node has no
// authored content but is wired to an upstream node, the upstream content is
// passed through instead, so text inputs can relay generated text.
type TextInputExecutor struct {
	node *models.WorkflowNode
}

// Execute returns the text this node contributes to the run.
func (e *TextInputExecutor) Execute(_ context.Context, node *models.WorkflowNode, ec *models.ExecutionContext) (any, error) {
	content := strings.TrimSpace(node.Data.Content)
	if content != "" {
		return node.Data.Content, nil
	}

	resolved := ec.ResolveInput(node.ID)
	if resolved.Connected && resolved.Content != "" {
		return resolved.Content, nil
	}

	return nil, &models.EmptyInputError{NodeID: node.ID, Kind: node.Kind}
}

// TextInputFactory creates TextInputExecutor instances.
type TextInputFactory struct{}

// NewTextInputFactory creates a new factory instance.
func NewTextInputFactory() protocol.NodeFactory {
	return &TextInputFactory{}
}

// Kind returns the node kind this factory serves.
func (f *TextInputFactory) Kind() models.NodeKind {
	return models.KindTextInput
}

// Create creates a new TextInputExecutor instance.
func (f *TextInputFactory) Create(node *models.WorkflowNode) (protocol.NodeExecutor, error) {
	return &TextInputExecutor{node: node}, nil
}

// Name returns the factory name.
func (f *TextInputFactory) Name() string {
	return "Text Input"
}

// Description returns the factory description.
func (f *TextInputFactory) Description() string {
	return "Provides authored text as the starting content for downstream nodes"
}

// Schema returns the JSON schema for text input node configuration.
func (f *TextInputFactory) Schema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"properties":           map[string]any{},
		"additionalProperties": false,
	}
}
