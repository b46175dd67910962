// Package print provides the "print" node type, which writes its inputs to
// an output stream and passes "in" through.
package print

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/registry"
)

// Module implements the registry.Module interface for this package. Out
// defaults to os.Stdout.
type Module struct {
	Out io.Writer

	mu sync.Mutex
}

// Config tweaks what is printed.
type Config struct {
	Label string `json:"label,omitempty" jsonschema:"Heading printed before the inputs. Defaults to the node id."`
}

func (m *Module) onRunPrint(ctx context.Context, inputs map[string]any, cfg Config) (map[string]any, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Info("Printing input.", "inputs", len(inputs))

	label := cfg.Label
	if label == "" {
		label = registry.NodeID(ctx)
	}

	// Sort keys for consistent output
	keys := make([]string, 0, len(inputs))
	for k := range inputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	m.mu.Lock()
	defer m.mu.Unlock()
	w := m.Out
	if w == nil {
		w = os.Stdout
	}
	fmt.Fprintf(w, "[%s]\n", label)
	if len(keys) == 0 {
		fmt.Fprintln(w, "      (null)")
	}
	for _, k := range keys {
		fmt.Fprintf(w, "      %s = %#v\n", k, inputs[k])
	}

	out := map[string]any{}
	if v, ok := inputs["in"]; ok {
		out["result"] = v
	}
	return out, nil
}

// Register registers the handler with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.Register("print", registry.MustTyped(m.onRunPrint, nil))
}
