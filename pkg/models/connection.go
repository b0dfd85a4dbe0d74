package models

// Connection is a directed edge from one node's output to another node's
// input. Source and Target must reference existing node ids; self-loops are
// rejected at creation time. Handles exist for future multi-port nodes; the
// engine currently consults at most the first connection targeting a node.
type Connection struct {
	ID           string `json:"id"`
	Source       string `json:"source" validate:"required"`
	Target       string `json:"target" validate:"required"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}
