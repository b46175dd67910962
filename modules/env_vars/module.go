// Package env_vars provides the "env_vars" node type, which exposes the
// process environment to a graph.
package env_vars

import (
	"context"
	"os"
	"strings"

	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Config optionally narrows the exported variables.
type Config struct {
	Prefix     string `json:"prefix,omitempty" jsonschema:"Only variables starting with this prefix are exported."`
	TrimPrefix bool   `json:"trim_prefix,omitempty" jsonschema:"Remove the prefix from exported names."`
}

// OnRunEnvVars is the handler for the 'env_vars' node type. The "all" output
// maps variable names to values.
func OnRunEnvVars(ctx context.Context, _ map[string]any, cfg Config) (map[string]any, error) {
	envMap := make(map[string]any)
	for _, e := range os.Environ() {
		name, value, ok := strings.Cut(e, "=")
		if !ok || !strings.HasPrefix(name, cfg.Prefix) {
			continue
		}
		if cfg.TrimPrefix {
			name = strings.TrimPrefix(name, cfg.Prefix)
		}
		envMap[name] = value
	}

	ctxlog.FromContext(ctx).Debug("Collected environment variables.", "count", len(envMap), "prefix", cfg.Prefix)
	return map[string]any{"all": envMap}, nil
}

// Register registers the handler with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.Register("env_vars", registry.MustTyped(OnRunEnvVars, nil))
}
