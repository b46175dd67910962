// Package output provides the "output" node type, which marks a value as a
// result of the run.
package output

import (
	"context"

	"github.com/vk/flowgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// OnRunOutput passes its "in" input through to "result".
func OnRunOutput(_ context.Context, inputs, _ map[string]any) (map[string]any, error) {
	v, ok := inputs["in"]
	if !ok {
		return map[string]any{}, nil
	}
	return map[string]any{"result": v}, nil
}

// Register registers the handler with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterFunc("output", OnRunOutput)
}
