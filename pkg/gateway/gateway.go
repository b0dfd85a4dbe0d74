// Package gateway defines the contract to the external generation service
// and provides the HTTP adapter for it. Which provider the service calls and
// how it shapes provider requests is the service's business, not ours.
package gateway

import (
	"context"

	"github.com/canvasflow/canvasflow/pkg/models"
)

// Request is the generation request sent for one node.
type Request struct {
	Type      models.GenerationType `json:"type"`
	Prompt    string                `json:"prompt"`
	NodeID    string                `json:"nodeId"`
	InputData any                   `json:"inputData,omitempty"`
	Config    map[string]any        `json:"config"`
}

// Response is the generation result. Result is a plain string for text or a
// structured object for audio/image/video (audioUrl, voice, type, ...).
type Response struct {
	Result any            `json:"result"`
	Type   string         `json:"type"`
	Log    map[string]any `json:"log,omitempty"`
}

// errorResponse is the non-2xx body shape.
type errorResponse struct {
	Error string `json:"error"`
}

// Gateway turns a prompt and config into generated content.
type Gateway interface {
	Generate(ctx context.Context, req *Request) (*Response, error)
}
