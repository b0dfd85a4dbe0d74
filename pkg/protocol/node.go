// Package protocol defines the contracts between the execution engine and
// pluggable node implementations.
package protocol

import (
	"context"

	"github.com/canvasflow/canvasflow/pkg/models"
)

// NodeExecutor executes one node of a given kind. Implementations resolve the
// node's input from the execution context, perform the node's work (which for
// generator kinds means a generation-gateway call, the only suspension point
// of a run) and return the node's output payload.
type NodeExecutor interface {
	// Execute runs the node. The returned payload becomes the node's
	// recorded result and is visible to downstream nodes through the
	// execution context. A returned error is recorded as the node's
	// failure and never aborts the rest of the run.
	Execute(ctx context.Context, node *models.WorkflowNode, ec *models.ExecutionContext) (any, error)
}

// NodeFactory creates executors for one node kind and describes the kind to
// the outside (config schema for the canvas settings dialog).
type NodeFactory interface {
	// Kind returns the node kind this factory serves.
	Kind() models.NodeKind

	// Create builds the executor for a node of this kind.
	Create(node *models.WorkflowNode) (NodeExecutor, error)

	// Name returns the human-readable name for this node kind.
	Name() string

	// Description returns a description of what this node kind does.
	Description() string

	// Schema returns the JSON schema for this kind's node config.
	Schema() map[string]any
}

// ExecutorRegistry resolves node kinds to executors. Implemented by
// pkg/registry; the engine depends only on this interface.
type ExecutorRegistry interface {
	CreateExecutor(node *models.WorkflowNode) (NodeExecutor, error)
}
