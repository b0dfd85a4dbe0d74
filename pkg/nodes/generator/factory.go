package generator

import (
	"github.com/canvasflow/canvasflow/pkg/gateway"
	"github.com/canvasflow/canvasflow/pkg/models"
	"github.com/canvasflow/canvasflow/pkg/protocol"
)

// Factory creates generator executors for one node kind.
type Factory struct {
	kind        models.NodeKind
	name        string
	description string
	gateway     gateway.Gateway
}

// NewTextGeneratorFactory creates the factory for text generator nodes.
func NewTextGeneratorFactory(gw gateway.Gateway) protocol.NodeFactory {
	return &Factory{
		kind:        models.KindTextGenerator,
		name:        "Text Generator",
		description: "Generates text from a prompt using the configured language model",
		gateway:     gw,
	}
}

// NewImageGeneratorFactory creates the factory for image generator nodes.
func NewImageGeneratorFactory(gw gateway.Gateway) protocol.NodeFactory {
	return &Factory{
		kind:        models.KindImageGenerator,
		name:        "Image Generator",
		description: "Generates an image from a prompt",
		gateway:     gw,
	}
}

// NewVideoGeneratorFactory creates the factory for video generator nodes.
func NewVideoGeneratorFactory(gw gateway.Gateway) protocol.NodeFactory {
	return &Factory{
		kind:        models.KindVideoGenerator,
		name:        "Video Generator",
		description: "Generates a video clip from a prompt",
		gateway:     gw,
	}
}

// NewAudioGeneratorFactory creates the factory for audio generator nodes.
func NewAudioGeneratorFactory(gw gateway.Gateway) protocol.NodeFactory {
	return &Factory{
		kind:        models.KindAudioGenerator,
		name:        "Audio Generator",
		description: "Generates speech audio from text using the configured voice",
		gateway:     gw,
	}
}

// NewLogoGeneratorFactory creates the factory for logo generator nodes.
func NewLogoGeneratorFactory(gw gateway.Gateway) protocol.NodeFactory {
	return &Factory{
		kind:        models.KindLogoGenerator,
		name:        "Logo Generator",
		description: "Generates a logo image from a brand description",
		gateway:     gw,
	}
}

// Kind returns the node kind this factory serves.
func (f *Factory) Kind() models.NodeKind {
	return f.kind
}

// Create creates a generator executor bound to this factory's kind.
func (f *Factory) Create(_ *models.WorkflowNode) (protocol.NodeExecutor, error) {
	return &Executor{kind: f.kind, gateway: f.gateway}, nil
}

// Name returns the factory name.
func (f *Factory) Name() string {
	return f.name
}

// Description returns the factory description.
func (f *Factory) Description() string {
	return f.description
}

// Schema returns the JSON schema for generator node configuration.
func (f *Factory) Schema() map[string]any {
	properties := map[string]any{
		"provider": map[string]any{
			"type":        "string",
			"description": "Generation provider to use for this node",
		},
		"model": map[string]any{
			"type":        "string",
			"description": "Model identifier, overrides the run-level model",
		},
		"temperature": map[string]any{
			"type":        "number",
			"minimum":     0,
			"maximum":     2,
			"description": "Sampling temperature",
		},
		"maxTokens": map[string]any{
			"type":        "integer",
			"minimum":     1,
			"description": "Maximum tokens to generate",
		},
	}

	if f.kind.GenerationType() == models.GenerationAudio {
		properties["voice"] = map[string]any{
			"type":        "string",
			"description": "Voice to synthesize speech with",
		}
	}

	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": true,
	}
}
