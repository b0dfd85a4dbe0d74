// Package web provides HTTP request and response types for the canvas API.
package web

import (
	"time"

	"github.com/canvasflow/canvasflow/pkg/models"
)

// CreateWorkflowRequest is the request body for creating a new workflow.
type CreateWorkflowRequest struct {
	Name        string `json:"name"        validate:"required,min=1"`
	Description string `json:"description"`
}

// UpdateWorkflowRequest is the request body for updating workflow metadata.
// Nil fields are left unchanged; nodes and connections are managed through
// their own endpoints.
type UpdateWorkflowRequest struct {
	Name        *string `json:"name,omitempty"        validate:"omitempty,min=1"`
	Description *string `json:"description,omitempty"`
}

// CreateNodeRequest is the request body for adding a node to the canvas.
type CreateNodeRequest struct {
	Kind     string          `json:"kind"     validate:"required"`
	Label    string          `json:"label"`
	Content  string          `json:"content"`
	Config   map[string]any  `json:"config"`
	Position models.Position `json:"position"`
}

// UpdateNodeRequest is the request body for updating a node. Kind is
// immutable; nil fields are left unchanged.
type UpdateNodeRequest struct {
	Label    *string          `json:"label,omitempty"`
	Content  *string          `json:"content,omitempty"`
	Config   map[string]any   `json:"config,omitempty"`
	Position *models.Position `json:"position,omitempty"`
}

// CreateConnectionRequest is the request body for linking two nodes.
type CreateConnectionRequest struct {
	Source       string `json:"source"       validate:"required"`
	Target       string `json:"target"       validate:"required"`
	SourceHandle string `json:"sourceHandle"`
	TargetHandle string `json:"targetHandle"`
}

// ExecuteWorkflowRequest is the request body for starting a run. Omitted
// fields fall back to the run defaults.
type ExecuteWorkflowRequest struct {
	Provider       string   `json:"provider"`
	Model          string   `json:"model"`
	Temperature    *float64 `json:"temperature"     validate:"omitempty,min=0,max=2"`
	MaxTokens      int      `json:"max_tokens"      validate:"omitempty,min=1"`
	Voice          string   `json:"voice"`
	TimeoutSeconds int      `json:"timeout_seconds" validate:"omitempty,min=1"`
}

// RunConfig converts the request into a run configuration, filling omitted
// fields from the defaults.
func (r ExecuteWorkflowRequest) RunConfig() models.RunConfig {
	cfg := models.DefaultRunConfig()

	if r.Provider != "" {
		cfg.Provider = r.Provider
	}

	if r.Model != "" {
		cfg.Model = r.Model
	}

	if r.Temperature != nil {
		cfg.Temperature = *r.Temperature
	}

	if r.MaxTokens > 0 {
		cfg.MaxTokens = r.MaxTokens
	}

	if r.Voice != "" {
		cfg.Voice = r.Voice
	}

	if r.TimeoutSeconds > 0 {
		cfg.Timeout = time.Duration(r.TimeoutSeconds) * time.Second
	}

	return cfg
}
