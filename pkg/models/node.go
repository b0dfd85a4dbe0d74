// Package models defines the core domain models for canvas-based workflow execution.
package models

// NodeKind identifies the behavior of a workflow node. It is immutable after
// node creation; changing a node's semantics means creating a new node.
type NodeKind string

const (
	KindTextInput      NodeKind = "text-input"
	KindImageInput     NodeKind = "image-input"
	KindTextGenerator  NodeKind = "text-generator"
	KindImageGenerator NodeKind = "image-generator"
	KindVideoGenerator NodeKind = "video-generator"
	KindAudioGenerator NodeKind = "audio-generator"
	KindLogoGenerator  NodeKind = "logo-generator"
	KindOutput         NodeKind = "output"
)

// Kinds lists every valid node kind.
func Kinds() []NodeKind {
	return []NodeKind{
		KindTextInput,
		KindImageInput,
		KindTextGenerator,
		KindImageGenerator,
		KindVideoGenerator,
		KindAudioGenerator,
		KindLogoGenerator,
		KindOutput,
	}
}

// Valid reports whether k is one of the closed set of node kinds.
func (k NodeKind) Valid() bool {
	switch k {
	case KindTextInput, KindImageInput,
		KindTextGenerator, KindImageGenerator, KindVideoGenerator,
		KindAudioGenerator, KindLogoGenerator,
		KindOutput:
		return true
	}

	return false
}

// IsSource reports whether the kind is a pure source (no upstream required).
func (k NodeKind) IsSource() bool {
	return k == KindTextInput || k == KindImageInput
}

// IsGenerator reports whether the kind dispatches a generation call.
func (k NodeKind) IsGenerator() bool {
	switch k {
	case KindTextGenerator, KindImageGenerator, KindVideoGenerator,
		KindAudioGenerator, KindLogoGenerator:
		return true
	}

	return false
}

// IsSink reports whether the kind is a pure sink.
func (k NodeKind) IsSink() bool {
	return k == KindOutput
}

// GenerationType is the content type requested from the generation gateway.
type GenerationType string

const (
	GenerationText  GenerationType = "text"
	GenerationImage GenerationType = "image"
	GenerationVideo GenerationType = "video"
	GenerationAudio GenerationType = "audio"
)

// GenerationType maps a generator kind to the gateway content type.
// Logo generation rides the image pipeline. Non-generator kinds return
// the empty string.
func (k NodeKind) GenerationType() GenerationType {
	switch k {
	case KindTextGenerator:
		return GenerationText
	case KindImageGenerator, KindLogoGenerator:
		return GenerationImage
	case KindVideoGenerator:
		return GenerationVideo
	case KindAudioGenerator:
		return GenerationAudio
	}

	return ""
}

// NodeData is the mutable payload of a node. Content holds the text or URI
// authored by the user; Result/Preview are written back by the executor.
type NodeData struct {
	Label       string         `json:"label"`
	Content     string         `json:"content,omitempty"`
	Config      map[string]any `json:"config,omitempty"`
	Result      any            `json:"result,omitempty"`
	Preview     string         `json:"preview,omitempty"`
	IsExecuting bool           `json:"isExecuting,omitempty"`
}

// WorkflowNode is a vertex in the workflow graph. Position is presentation
// state only; it is persisted but never consulted during execution.
type WorkflowNode struct {
	ID       string   `json:"id"       validate:"required"`
	Kind     NodeKind `json:"kind"     validate:"required"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
}

// Position is a 2D canvas coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Clone returns a deep copy of the node.
func (n *WorkflowNode) Clone() *WorkflowNode {
	clone := *n
	clone.Data.Config = cloneMap(n.Data.Config)

	return &clone
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}

	out := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			out[k] = cloneMap(nested)

			continue
		}

		out[k] = v
	}

	return out
}
