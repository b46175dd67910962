// Package template provides the "template" node type, which renders a Go
// text/template with the node inputs as data.
package template

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Config holds the template source.
type Config struct {
	Template string `json:"template" jsonschema:"Go text/template rendered with the node inputs as data."`
}

var funcs = template.FuncMap{
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
	"trim":  strings.TrimSpace,
}

// OnRunTemplate is the handler for the 'template' node type. Referencing an
// input that did not arrive is an error.
func OnRunTemplate(ctx context.Context, inputs map[string]any, cfg Config) (map[string]any, error) {
	tmpl, err := template.New(registry.NodeID(ctx)).Funcs(funcs).Option("missingkey=error").Parse(cfg.Template)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, inputs); err != nil {
		return nil, fmt.Errorf("failed to render template: %w", err)
	}

	ctxlog.FromContext(ctx).Debug("Template rendered.", "length", sb.Len())
	return map[string]any{"result": sb.String()}, nil
}

// Register registers the handler with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.Register("template", registry.MustTyped(OnRunTemplate, nil))
}
