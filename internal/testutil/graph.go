package testutil

import (
	"fmt"
	"strings"

	"github.com/vk/flowgrid/internal/graph"
)

// HandleOption declares a handle on a node built by GraphBuilder.
type HandleOption func(n *graph.Node)

// In declares an input handle.
func In(name string, required bool) HandleOption {
	return func(n *graph.Node) {
		n.Inputs = append(n.Inputs, graph.Input{Name: name, Required: required})
	}
}

// TypedIn declares a typed input handle.
func TypedIn(name, typ string, required bool) HandleOption {
	return func(n *graph.Node) {
		n.Inputs = append(n.Inputs, graph.Input{Name: name, Required: required, Type: typ})
	}
}

// Out declares an output handle.
func Out(name string) HandleOption {
	return func(n *graph.Node) {
		n.Outputs = append(n.Outputs, graph.Output{Name: name})
	}
}

// TypedOut declares a typed output handle.
func TypedOut(name, typ string) HandleOption {
	return func(n *graph.Node) {
		n.Outputs = append(n.Outputs, graph.Output{Name: name, Type: typ})
	}
}

// Config sets the node config.
func Config(config map[string]any) HandleOption {
	return func(n *graph.Node) {
		n.Config = config
	}
}

// GraphBuilder assembles graphs for tests.
type GraphBuilder struct {
	g graph.Graph
}

// NewGraph starts an empty graph.
func NewGraph() *GraphBuilder {
	return &GraphBuilder{}
}

// Node adds a node of the given type.
func (b *GraphBuilder) Node(id, nodeType string, opts ...HandleOption) *GraphBuilder {
	n := graph.Node{ID: id, Type: nodeType}
	for _, opt := range opts {
		opt(&n)
	}
	b.g.Nodes = append(b.g.Nodes, n)
	return b
}

// Edge adds an edge between two "node.handle" references. The edge id is
// derived from both ends.
func (b *GraphBuilder) Edge(from, to string) *GraphBuilder {
	src, srcHandle := splitRef(from)
	dst, dstHandle := splitRef(to)
	b.g.Edges = append(b.g.Edges, graph.Edge{
		ID:           fmt.Sprintf("%s->%s", from, to),
		Source:       src,
		SourceHandle: srcHandle,
		Target:       dst,
		TargetHandle: dstHandle,
	})
	return b
}

// Build returns the assembled graph.
func (b *GraphBuilder) Build() *graph.Graph {
	g := b.g
	return &g
}

func splitRef(ref string) (string, string) {
	node, handle, _ := strings.Cut(ref, ".")
	return node, handle
}
