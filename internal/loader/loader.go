package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/graph"
)

// Load reads the graph at path, which may be a single file or a directory.
func Load(ctx context.Context, path string) (*graph.Graph, error) {
	files, err := ResolvePath(ctx, path)
	if err != nil {
		return nil, err
	}
	return LoadFiles(ctx, files)
}

// LoadFiles decodes every file and merges them into one graph, keeping the
// declaration order of nodes and edges file by file.
func LoadFiles(ctx context.Context, files []string) (*graph.Graph, error) {
	logger := ctxlog.FromContext(ctx)
	merged := &graph.Graph{Nodes: []graph.Node{}, Edges: []graph.Edge{}}

	for _, file := range files {
		g, err := DecodeFile(file)
		if err != nil {
			return nil, err
		}
		logger.Debug("Decoded graph file.", "path", file, "nodes", len(g.Nodes), "edges", len(g.Edges))
		merged.Nodes = append(merged.Nodes, g.Nodes...)
		merged.Edges = append(merged.Edges, g.Edges...)
	}

	logger.Info("Graph loaded.", "files", len(files), "nodes", len(merged.Nodes), "edges", len(merged.Edges))
	return merged, nil
}

// DecodeFile decodes one graph file, choosing the format by extension.
func DecodeFile(path string) (*graph.Graph, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading graph file: %w", err)
	}
	switch filepath.Ext(path) {
	case extHCL:
		return DecodeHCL(src, path)
	case extJSON:
		return DecodeJSON(src, path)
	default:
		return nil, fmt.Errorf("unsupported graph file extension %q: %s", filepath.Ext(path), path)
	}
}
