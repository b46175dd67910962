package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/ctyconv"
)

// Validate performs a startup check of every registration: a handler must be
// present, config schemas must resolve, and defaults must be representable as
// typed values. Resolved schemas are cached for dispatch.
func (r *Registry) Validate(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []string
	for _, nodeType := range sortedKeys(r.handlers) {
		reg := r.handlers[nodeType]
		if reg == nil || reg.Handler == nil {
			errs = append(errs, fmt.Sprintf("node type '%s': registration has no handler", nodeType))
			continue
		}

		if reg.ConfigSchema != nil {
			resolved, err := reg.ConfigSchema.Resolve(nil)
			if err != nil {
				errs = append(errs, fmt.Sprintf("node type '%s': config schema cannot be resolved: %v", nodeType, err))
			} else {
				reg.resolved = resolved
			}
		} else {
			logger.Debug("Handler has no config schema, config is passed through unchecked.", "type", nodeType)
		}

		for _, handle := range sortedKeys(reg.Defaults) {
			if _, err := ctyconv.FromGo(reg.Defaults[handle]); err != nil {
				errs = append(errs, fmt.Sprintf("node type '%s', input '%s': default cannot be represented: %v", nodeType, handle, err))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	logger.Debug("Registry validated.", "handlers", len(r.handlers))
	return nil
}
