package registry

import (
	"github.com/canvasflow/canvasflow/pkg/gateway"
	"github.com/canvasflow/canvasflow/pkg/nodes/generator"
	"github.com/canvasflow/canvasflow/pkg/nodes/input"
	"github.com/canvasflow/canvasflow/pkg/nodes/output"
)

// RegisterDefaultNodes registers all built-in node factories. Generator
// factories share the given gateway.
func (r *Registry) RegisterDefaultNodes(gw gateway.Gateway) {
	r.RegisterNode(input.NewTextInputFactory())
	r.RegisterNode(input.NewImageInputFactory())

	r.RegisterNode(generator.NewTextGeneratorFactory(gw))
	r.RegisterNode(generator.NewImageGeneratorFactory(gw))
	r.RegisterNode(generator.NewVideoGeneratorFactory(gw))
	r.RegisterNode(generator.NewAudioGeneratorFactory(gw))
	r.RegisterNode(generator.NewLogoGeneratorFactory(gw))

	r.RegisterNode(output.NewOutputFactory())
}
