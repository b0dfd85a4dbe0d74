// Package registry maps node kinds to their executor factories and validates
// node configuration against each kind's JSON schema.
package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/canvasflow/canvasflow/pkg/models"
	"github.com/canvasflow/canvasflow/pkg/protocol"
)

type Registry struct {
	logger    *slog.Logger
	factories map[models.NodeKind]protocol.NodeFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger.With("module", "registry"),
		factories: make(map[models.NodeKind]protocol.NodeFactory),
	}
}

// RegisterNode registers a node factory, replacing any previous factory for
// the same kind.
func (r *Registry) RegisterNode(factory protocol.NodeFactory) {
	r.factories[factory.Kind()] = factory
}

// CreateExecutor builds the executor for a node. The node's config is
// validated against the kind's schema first.
func (r *Registry) CreateExecutor(node *models.WorkflowNode) (protocol.NodeExecutor, error) {
	factory, ok := r.factories[node.Kind]
	if !ok {
		return nil, fmt.Errorf("node kind '%s' not registered", node.Kind)
	}

	if err := r.ValidateNodeConfig(node.Kind, node.Data.Config); err != nil {
		return nil, fmt.Errorf("invalid config for node %s: %w", node.ID, err)
	}

	return factory.Create(node)
}

// ValidateNodeConfig checks a node config against the kind's JSON schema.
// A nil config is treated as an empty object.
func (r *Registry) ValidateNodeConfig(kind models.NodeKind, config map[string]any) error {
	factory, ok := r.factories[kind]
	if !ok {
		return fmt.Errorf("node kind '%s' not registered", kind)
	}

	if config == nil {
		config = map[string]any{}
	}

	schemaLoader := gojsonschema.NewGoLoader(factory.Schema())
	dataLoader := gojsonschema.NewGoLoader(config)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return err
	}

	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, resultErr := range result.Errors() {
			messages = append(messages, resultErr.String())
		}

		return fmt.Errorf("config validation failed: %s", strings.Join(messages, "; "))
	}

	return nil
}

// Schema returns the JSON schema for a node kind's config.
func (r *Registry) Schema(kind models.NodeKind) (map[string]any, error) {
	factory, ok := r.factories[kind]
	if !ok {
		return nil, fmt.Errorf("node kind '%s' not registered", kind)
	}

	return factory.Schema(), nil
}

// HealthCheck reports whether node factories are registered.
func (r *Registry) HealthCheck() (string, bool) {
	if len(r.factories) == 0 {
		return "No node factories registered", false
	}

	return fmt.Sprintf("%d node factories registered", len(r.factories)), true
}

// NodeDescriptor describes one registered node kind for API consumers.
type NodeDescriptor struct {
	Kind        models.NodeKind `json:"kind"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Schema      map[string]any  `json:"schema"`
}

// Descriptors lists all registered node kinds sorted by kind.
func (r *Registry) Descriptors() []NodeDescriptor {
	descriptors := make([]NodeDescriptor, 0, len(r.factories))
	for _, factory := range r.factories {
		descriptors = append(descriptors, NodeDescriptor{
			Kind:        factory.Kind(),
			Name:        factory.Name(),
			Description: factory.Description(),
			Schema:      factory.Schema(),
		})
	}

	sort.Slice(descriptors, func(i, j int) bool {
		return descriptors[i].Kind < descriptors[j].Kind
	})

	return descriptors
}
