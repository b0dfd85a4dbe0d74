// Package output provides the sink node executor that surfaces a run's final
// payload on the canvas.
package output

import (
	"context"

	"github.com/canvasflow/canvasflow/pkg/models"
	"github.com/canvasflow/canvasflow/pkg/protocol"
)

// OutputExecutor passes the connected upstream result through unchanged so
// the canvas can render it.
type OutputExecutor struct {
	node *models.WorkflowNode
}

// Execute returns the upstream node's result as the final payload.
func (e *OutputExecutor) Execute(_ context.Context, node *models.WorkflowNode, ec *models.ExecutionContext) (any, error) {
	resolved := ec.ResolveInput(node.ID)
	if !resolved.Connected || resolved.Raw == nil {
		return nil, &models.NoInputError{NodeID: node.ID}
	}

	return resolved.Raw, nil
}

// OutputFactory creates OutputExecutor instances.
type OutputFactory struct{}

// NewOutputFactory creates a new factory instance.
func NewOutputFactory() protocol.NodeFactory {
	return &OutputFactory{}
}

// Kind returns the node kind this factory serves.
func (f *OutputFactory) Kind() models.NodeKind {
	return models.KindOutput
}

// Create creates a new OutputExecutor instance.
func (f *OutputFactory) Create(node *models.WorkflowNode) (protocol.NodeExecutor, error) {
	return &OutputExecutor{node: node}, nil
}

// Name returns the factory name.
func (f *OutputFactory) Name() string {
	return "Output"
}

// Description returns the factory description.
func (f *OutputFactory) Description() string {
	return "Displays the final result of the connected upstream node"
}

// Schema returns the JSON schema for output node configuration.
func (f *OutputFactory) Schema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"properties":           map[string]any{},
		"additionalProperties": false,
	}
}
