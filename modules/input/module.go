// Package input provides the "input" node type, which feeds run inputs and
// literal values into a graph.
package input

import (
	"context"
	"fmt"

	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Config selects where the emitted value comes from. A run input named Name
// wins over Value.
type Config struct {
	Name  string `json:"name,omitempty" jsonschema:"Name of the run input to emit."`
	Value any    `json:"value,omitempty" jsonschema:"Literal value emitted when the run input is absent."`
}

// OnRunInput is the handler for the 'input' node type.
func OnRunInput(ctx context.Context, _ map[string]any, cfg Config) (map[string]any, error) {
	logger := ctxlog.FromContext(ctx)

	if cfg.Name != "" {
		if v, ok := registry.RunInputs(ctx)[cfg.Name]; ok {
			logger.Debug("Emitting run input.", "name", cfg.Name)
			return map[string]any{"result": v}, nil
		}
	}
	if cfg.Value != nil {
		logger.Debug("Emitting literal value.")
		return map[string]any{"result": cfg.Value}, nil
	}
	if cfg.Name != "" {
		return nil, fmt.Errorf("run input '%s' was not provided and no value is configured", cfg.Name)
	}
	return nil, fmt.Errorf("either 'name' or 'value' must be configured")
}

// Register registers the handler with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.Register("input", registry.MustTyped(OnRunInput, nil))
}
