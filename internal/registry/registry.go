package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

// ErrHandlerNotFound is returned by Resolve when no handler is registered for
// a node type.
var ErrHandlerNotFound = errors.New("handler not found")

// Module is the interface that all handler modules must implement to be
// registered.
type Module interface {
	Register(r *Registry)
}

// Registration describes how a node type is executed.
type Registration struct {
	Handler Handler
	// Defaults supplies values for inputs that arrive without a value.
	Defaults map[string]any
	// ConfigSchema, when set, is checked against the node config at dispatch.
	ConfigSchema *jsonschema.Schema

	resolved *jsonschema.Resolved
}

// Default returns the default value registered for an input handle.
func (reg *Registration) Default(handle string) (any, bool) {
	v, ok := reg.Defaults[handle]
	return v, ok
}

// ValidateConfig checks config against the registered schema. It is a no-op
// when no schema is registered.
func (reg *Registration) ValidateConfig(config map[string]any) error {
	if reg.ConfigSchema == nil {
		return nil
	}
	resolved := reg.resolved
	if resolved == nil {
		var err error
		if resolved, err = reg.ConfigSchema.Resolve(nil); err != nil {
			return fmt.Errorf("config schema cannot be resolved: %w", err)
		}
	}
	instance, err := jsonInstance(config)
	if err != nil {
		return err
	}
	return resolved.Validate(instance)
}

// jsonInstance normalises config into the shapes produced by encoding/json so
// that numbers decoded from HCL and JSON validate the same way.
func jsonInstance(config map[string]any) (any, error) {
	if config == nil {
		return map[string]any{}, nil
	}
	raw, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("config is not JSON-representable: %w", err)
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return nil, fmt.Errorf("config is not JSON-representable: %w", err)
	}
	return instance, nil
}

// Registry holds the registered handlers for a single application instance.
type Registry struct {
	mu         sync.RWMutex
	handlers   map[string]*Registration
	middleware []Middleware
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		handlers: make(map[string]*Registration),
	}
}

// Register registers the handler for a node type. Registering the same type
// twice is a programming error and panics.
func (r *Registry) Register(nodeType string, reg *Registration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[nodeType]; exists {
		panic(fmt.Sprintf("handler for node type '%s' already registered", nodeType))
	}
	slog.Debug("Registering handler.", "type", nodeType)
	r.handlers[nodeType] = reg
}

// RegisterFunc registers a plain function with no defaults and no schema.
func (r *Registry) RegisterFunc(nodeType string, fn HandlerFunc) {
	r.Register(nodeType, &Registration{Handler: fn})
}

// Use appends middleware applied to every handler returned by Resolve.
func (r *Registry) Use(mws ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middleware = append(r.middleware, mws...)
}

// Resolve returns the registration for nodeType with middleware applied to
// its handler. The error wraps ErrHandlerNotFound when nothing is registered.
func (r *Registry) Resolve(nodeType string) (*Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.handlers[nodeType]
	if !ok || reg == nil || reg.Handler == nil {
		return nil, fmt.Errorf("node type '%s': %w", nodeType, ErrHandlerNotFound)
	}
	resolved := *reg
	if len(r.middleware) > 0 {
		resolved.Handler = Chain(r.middleware...)(reg.Handler)
	}
	return &resolved, nil
}

// HasDefault reports whether the handler for nodeType supplies a default for
// the named input.
func (r *Registry) HasDefault(nodeType, handle string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.handlers[nodeType]
	if !ok || reg == nil {
		return false
	}
	_, ok = reg.Defaults[handle]
	return ok
}

// Types returns the registered node types in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.handlers)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
