package testutil

import "github.com/vk/flowgrid/internal/registry"

// SimpleModule is a test helper for easily creating a mock module that
// registers a single node type.
type SimpleModule struct {
	Type         string
	Registration *registry.Registration
}

// Register implements the registry.Module interface.
func (m *SimpleModule) Register(r *registry.Registry) {
	if m.Type != "" && m.Registration != nil {
		r.Register(m.Type, m.Registration)
	}
}

// FuncModule wraps a plain handler function as a SimpleModule.
func FuncModule(nodeType string, fn registry.HandlerFunc) *SimpleModule {
	return &SimpleModule{Type: nodeType, Registration: &registry.Registration{Handler: fn}}
}
