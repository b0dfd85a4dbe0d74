package models

import "time"

// WorkflowFileVersion is the version written into exported workflow files.
const WorkflowFileVersion = "1.0.0"

// Metadata describes a workflow in its persisted/exported form.
type Metadata struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Version     string    `json:"version"`
}

// Workflow is the aggregate of nodes and connections forming one canvas.
// A run operates on a snapshot taken when execution starts; mutations made
// while a run is in flight do not affect it.
type Workflow struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"        validate:"required,min=1"`
	Description string          `json:"description,omitempty"`
	Nodes       []*WorkflowNode `json:"nodes"`
	Connections []*Connection   `json:"connections"`
	Metadata    Metadata        `json:"metadata"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// WorkflowFile is the import/export document shape consumed and produced by
// the canvas UI and the CLI.
type WorkflowFile struct {
	Nodes       []*WorkflowNode `json:"nodes"`
	Connections []*Connection   `json:"connections"`
	Metadata    Metadata        `json:"metadata"`
}

// Node returns the node with the given id, or nil.
func (w *Workflow) Node(id string) *WorkflowNode {
	for _, node := range w.Nodes {
		if node.ID == id {
			return node
		}
	}

	return nil
}

// Connection returns the connection with the given id, or nil.
func (w *Workflow) Connection(id string) *Connection {
	for _, conn := range w.Connections {
		if conn.ID == id {
			return conn
		}
	}

	return nil
}

// Clone deep-copies the workflow. Executions clone the workflow at run start
// so the canvas can keep mutating while a run is in flight.
func (w *Workflow) Clone() *Workflow {
	clone := *w

	clone.Nodes = make([]*WorkflowNode, len(w.Nodes))
	for i, node := range w.Nodes {
		clone.Nodes[i] = node.Clone()
	}

	clone.Connections = make([]*Connection, len(w.Connections))
	for i, conn := range w.Connections {
		c := *conn
		clone.Connections[i] = &c
	}

	return &clone
}

// Export produces the workflow file document for this workflow.
func (w *Workflow) Export() *WorkflowFile {
	meta := w.Metadata
	if meta.Name == "" {
		meta.Name = w.Name
	}

	if meta.Version == "" {
		meta.Version = WorkflowFileVersion
	}

	return &WorkflowFile{
		Nodes:       w.Nodes,
		Connections: w.Connections,
		Metadata:    meta,
	}
}
