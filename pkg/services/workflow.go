package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/canvasflow/canvasflow/pkg/models"
	"github.com/canvasflow/canvasflow/pkg/persistence"
	"github.com/canvasflow/canvasflow/pkg/registry"
	"github.com/canvasflow/canvasflow/pkg/workflow"
)

// ErrWorkflowNotFound is returned when a workflow is not found.
var ErrWorkflowNotFound = persistence.ErrWorkflowNotFound

// Workflow handles workflow and graph mutation operations. Mutations are
// refused while the workflow has a run in flight.
type Workflow struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	runs        *ActiveRuns
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(persistence persistence.Persistence, registry *registry.Registry, runs *ActiveRuns) *Workflow {
	return &Workflow{
		persistence: persistence,
		registry:    registry,
		runs:        runs,
	}
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// List retrieves all workflows.
func (w *Workflow) List(ctx context.Context) ([]*models.Workflow, error) {
	workflows, err := w.persistence.WorkflowRepository().Workflows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	return workflows, nil
}

// FetchByID retrieves a workflow by its ID.
func (w *Workflow) FetchByID(ctx context.Context, id string) (*models.Workflow, error) {
	wf, err := w.persistence.WorkflowRepository().WorkflowByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if wf == nil {
		return nil, ErrWorkflowNotFound
	}

	return wf, nil
}

// CreateWorkflowRequest carries the fields for a new, empty workflow.
type CreateWorkflowRequest struct {
	Name        string `json:"name"        validate:"required,min=1"`
	Description string `json:"description"`
}

// Create adds a new empty workflow to the repository.
func (w *Workflow) Create(ctx context.Context, req CreateWorkflowRequest) (*models.Workflow, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, NewValidationError("Create", "workflow name must not be empty", ErrWorkflowNameRequired)
	}

	now := time.Now().UTC()
	wf := &models.Workflow{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		Nodes:       []*models.WorkflowNode{},
		Connections: []*models.Connection{},
		Metadata: models.Metadata{
			Name:        req.Name,
			Description: req.Description,
			CreatedAt:   now,
			UpdatedAt:   now,
			Version:     models.WorkflowFileVersion,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := w.persistence.WorkflowRepository().SaveWorkflow(ctx, wf); err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	return wf, nil
}

// UpdateWorkflowRequest carries the mutable top-level workflow fields.
type UpdateWorkflowRequest struct {
	Name        string `json:"name"        validate:"required,min=1"`
	Description string `json:"description"`
}

// Update modifies a workflow's name and description.
func (w *Workflow) Update(ctx context.Context, workflowID string, req UpdateWorkflowRequest) (*models.Workflow, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, NewValidationError("Update", "workflow name must not be empty", ErrWorkflowNameRequired)
	}

	wf, err := w.lockedWorkflow(ctx, "Update", workflowID)
	if err != nil {
		return nil, err
	}

	wf.Name = req.Name
	wf.Description = req.Description
	wf.Metadata.Name = req.Name
	wf.Metadata.Description = req.Description

	if err := w.save(ctx, wf); err != nil {
		return nil, fmt.Errorf("failed to update workflow: %w", err)
	}

	return wf, nil
}

// Delete removes a workflow by its ID.
func (w *Workflow) Delete(ctx context.Context, workflowID string) error {
	if _, err := w.lockedWorkflow(ctx, "Delete", workflowID); err != nil {
		return err
	}

	if err := w.persistence.WorkflowRepository().DeleteWorkflow(ctx, workflowID); err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	return nil
}

// AddNodeRequest carries the fields for a new canvas node. Kind is fixed at
// creation; a node never changes kind afterwards.
type AddNodeRequest struct {
	Kind     models.NodeKind `json:"kind"  validate:"required"`
	Label    string          `json:"label"`
	Content  string          `json:"content"`
	Config   map[string]any  `json:"config"`
	Position models.Position `json:"position"`
}

// AddNode appends a node to the workflow graph.
func (w *Workflow) AddNode(ctx context.Context, workflowID string, req AddNodeRequest) (*models.WorkflowNode, error) {
	if !req.Kind.Valid() {
		return nil, NewValidationError("AddNode", fmt.Sprintf("unknown node kind %q", req.Kind), ErrUnknownNodeKind)
	}

	if req.Config != nil {
		if err := w.registry.ValidateNodeConfig(req.Kind, req.Config); err != nil {
			return nil, NewValidationError("AddNode", err.Error(), ErrInvalidRequest)
		}
	}

	wf, err := w.lockedWorkflow(ctx, "AddNode", workflowID)
	if err != nil {
		return nil, err
	}

	node := &models.WorkflowNode{
		ID:       uuid.New().String(),
		Kind:     req.Kind,
		Position: req.Position,
		Data: models.NodeData{
			Label:   req.Label,
			Content: req.Content,
			Config:  req.Config,
		},
	}
	wf.Nodes = append(wf.Nodes, node)

	if err := w.save(ctx, wf); err != nil {
		return nil, fmt.Errorf("failed to add node: %w", err)
	}

	return node, nil
}

// UpdateNodeRequest carries the mutable node fields. Nil fields are left
// unchanged. Kind is immutable and therefore absent.
type UpdateNodeRequest struct {
	Label    *string          `json:"label"`
	Content  *string          `json:"content"`
	Config   map[string]any   `json:"config"`
	Position *models.Position `json:"position"`
}

// UpdateNode modifies a node's content, config, label or position.
func (w *Workflow) UpdateNode(ctx context.Context, workflowID, nodeID string, req UpdateNodeRequest) (*models.WorkflowNode, error) {
	wf, err := w.lockedWorkflow(ctx, "UpdateNode", workflowID)
	if err != nil {
		return nil, err
	}

	node := wf.Node(nodeID)
	if node == nil {
		return nil, ErrNodeNotFound
	}

	if req.Config != nil {
		if err := w.registry.ValidateNodeConfig(node.Kind, req.Config); err != nil {
			return nil, NewValidationError("UpdateNode", err.Error(), ErrInvalidRequest)
		}

		node.Data.Config = req.Config
	}

	if req.Label != nil {
		node.Data.Label = *req.Label
	}

	if req.Content != nil {
		node.Data.Content = *req.Content
	}

	if req.Position != nil {
		node.Position = *req.Position
	}

	if err := w.save(ctx, wf); err != nil {
		return nil, fmt.Errorf("failed to update node: %w", err)
	}

	return node, nil
}

// DeleteNode removes a node and every connection touching it.
func (w *Workflow) DeleteNode(ctx context.Context, workflowID, nodeID string) error {
	wf, err := w.lockedWorkflow(ctx, "DeleteNode", workflowID)
	if err != nil {
		return err
	}

	if wf.Node(nodeID) == nil {
		return ErrNodeNotFound
	}

	nodes := wf.Nodes[:0]
	for _, node := range wf.Nodes {
		if node.ID != nodeID {
			nodes = append(nodes, node)
		}
	}

	wf.Nodes = nodes

	conns := wf.Connections[:0]
	for _, conn := range wf.Connections {
		if conn.Source != nodeID && conn.Target != nodeID {
			conns = append(conns, conn)
		}
	}

	wf.Connections = conns

	if err := w.save(ctx, wf); err != nil {
		return fmt.Errorf("failed to delete node: %w", err)
	}

	return nil
}

// AddConnectionRequest carries the endpoints for a new edge.
type AddConnectionRequest struct {
	Source       string `json:"source" validate:"required"`
	Target       string `json:"target" validate:"required"`
	SourceHandle string `json:"sourceHandle"`
	TargetHandle string `json:"targetHandle"`
}

// AddConnection links two nodes. Self-loops, edges referencing missing nodes
// and duplicate source/target pairs are rejected.
func (w *Workflow) AddConnection(ctx context.Context, workflowID string, req AddConnectionRequest) (*models.Connection, error) {
	if req.Source == req.Target {
		return nil, NewValidationError("AddConnection",
			fmt.Sprintf("node %q cannot connect to itself", req.Source), ErrSelfConnection)
	}

	wf, err := w.lockedWorkflow(ctx, "AddConnection", workflowID)
	if err != nil {
		return nil, err
	}

	for _, id := range []string{req.Source, req.Target} {
		if wf.Node(id) == nil {
			return nil, NewValidationError("AddConnection",
				fmt.Sprintf("node %q does not exist", id), ErrDanglingConnection)
		}
	}

	for _, conn := range wf.Connections {
		if conn.Source == req.Source && conn.Target == req.Target {
			return nil, NewValidationError("AddConnection",
				fmt.Sprintf("nodes %q and %q are already connected", req.Source, req.Target), ErrDuplicateConnection)
		}
	}

	conn := &models.Connection{
		ID:           uuid.New().String(),
		Source:       req.Source,
		Target:       req.Target,
		SourceHandle: req.SourceHandle,
		TargetHandle: req.TargetHandle,
	}
	wf.Connections = append(wf.Connections, conn)

	if err := w.save(ctx, wf); err != nil {
		return nil, fmt.Errorf("failed to add connection: %w", err)
	}

	return conn, nil
}

// DeleteConnection removes a connection by its ID.
func (w *Workflow) DeleteConnection(ctx context.Context, workflowID, connectionID string) error {
	wf, err := w.lockedWorkflow(ctx, "DeleteConnection", workflowID)
	if err != nil {
		return err
	}

	if wf.Connection(connectionID) == nil {
		return ErrConnectionNotFound
	}

	conns := wf.Connections[:0]
	for _, conn := range wf.Connections {
		if conn.ID != connectionID {
			conns = append(conns, conn)
		}
	}

	wf.Connections = conns

	if err := w.save(ctx, wf); err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}

	return nil
}

// Export produces the import/export document for a workflow.
func (w *Workflow) Export(ctx context.Context, workflowID string) (*models.WorkflowFile, error) {
	wf, err := w.FetchByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	return wf.Export(), nil
}

// Import creates a new workflow from an exported document. The graph is
// validated before anything is stored.
func (w *Workflow) Import(ctx context.Context, file *models.WorkflowFile) (*models.Workflow, error) {
	if file == nil {
		return nil, NewValidationError("Import", "workflow file is required", ErrInvalidRequest)
	}

	if strings.TrimSpace(file.Metadata.Name) == "" {
		return nil, NewValidationError("Import", "workflow name is required", ErrWorkflowNameRequired)
	}

	now := time.Now().UTC()
	wf := &models.Workflow{
		ID:          uuid.New().String(),
		Name:        file.Metadata.Name,
		Description: file.Metadata.Description,
		Nodes:       file.Nodes,
		Connections: file.Connections,
		Metadata:    file.Metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if wf.Nodes == nil {
		wf.Nodes = []*models.WorkflowNode{}
	}

	if wf.Connections == nil {
		wf.Connections = []*models.Connection{}
	}

	wf.Metadata.CreatedAt = now
	wf.Metadata.UpdatedAt = now

	if wf.Metadata.Version == "" {
		wf.Metadata.Version = models.WorkflowFileVersion
	}

	if err := workflow.Validate(wf); err != nil {
		return nil, NewValidationError("Import", err.Error(), ErrInvalidRequest)
	}

	if err := w.persistence.WorkflowRepository().SaveWorkflow(ctx, wf); err != nil {
		return nil, fmt.Errorf("failed to import workflow: %w", err)
	}

	return wf, nil
}

// lockedWorkflow fetches a workflow for mutation, refusing when a run is in
// flight.
func (w *Workflow) lockedWorkflow(ctx context.Context, op, workflowID string) (*models.Workflow, error) {
	if executionID, busy := w.runs.ExecutionFor(workflowID); busy {
		return nil, &ServiceError{
			Op:      op,
			Message: fmt.Sprintf("execution %s is in flight", executionID),
			Err:     ErrWorkflowBusy,
		}
	}

	return w.FetchByID(ctx, workflowID)
}

func (w *Workflow) save(ctx context.Context, wf *models.Workflow) error {
	now := time.Now().UTC()
	wf.UpdatedAt = now
	wf.Metadata.UpdatedAt = now

	return w.persistence.WorkflowRepository().SaveWorkflow(ctx, wf)
}
