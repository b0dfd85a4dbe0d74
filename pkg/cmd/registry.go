// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"log/slog"

	"github.com/canvasflow/canvasflow/pkg/gateway"
	"github.com/canvasflow/canvasflow/pkg/registry"
)

// NewRegistry builds a node registry with every built-in node kind, wired to
// the generation gateway at the given endpoint.
func NewRegistry(logger *slog.Logger, gatewayURL string) *registry.Registry {
	gw := gateway.NewHTTPGateway(gatewayURL, logger)

	reg := registry.NewRegistry(logger)
	reg.RegisterDefaultNodes(gw)

	return reg
}
