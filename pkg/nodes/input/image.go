package input

import (
	"context"
	"strings"

	"github.com/canvasflow/canvasflow/pkg/models"
	"github.com/canvasflow/canvasflow/pkg/protocol"
)

// ImageInputExecutor emits the node's uploaded image as a data URL so that
// downstream generators can use it as visual context.
type ImageInputExecutor struct {
	node *models.WorkflowNode
}

// Execute returns the uploaded image payload.
func (e *ImageInputExecutor) Execute(_ context.Context, node *models.WorkflowNode, _ *models.ExecutionContext) (any, error) {
	if strings.TrimSpace(node.Data.Content) == "" {
		return nil, &models.EmptyInputError{NodeID: node.ID, Kind: node.Kind}
	}

	return node.Data.Content, nil
}

// ImageInputFactory creates ImageInputExecutor instances.
type ImageInputFactory struct{}

// NewImageInputFactory creates a new factory instance.
func NewImageInputFactory() protocol.NodeFactory {
	return &ImageInputFactory{}
}

// Kind returns the node kind this factory serves.
func (f *ImageInputFactory) Kind() models.NodeKind {
	return models.KindImageInput
}

// Create creates a new ImageInputExecutor instance.
func (f *ImageInputFactory) Create(node *models.WorkflowNode) (protocol.NodeExecutor, error) {
	return &ImageInputExecutor{node: node}, nil
}

// Name returns the factory name.
func (f *ImageInputFactory) Name() string {
	return "Image Input"
}

// Description returns the factory description.
func (f *ImageInputFactory) Description() string {
	return "Provides an uploaded PNG or JPG image as input for downstream nodes"
}

// Schema returns the JSON schema for image input node configuration.
func (f *ImageInputFactory) Schema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"properties":           map[string]any{},
		"additionalProperties": false,
	}
}
