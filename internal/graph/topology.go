package graph

// Topology is a read-only index over a validated Graph. It is built once per
// run and is safe for concurrent reads.
type Topology struct {
	nodes    map[string]*Node
	order    []string
	incoming map[string][]Edge
	outgoing map[string][]Edge
}

// NewTopology indexes g. Edges that reference unknown nodes are ignored;
// callers are expected to have run Validate first.
func NewTopology(g *Graph) *Topology {
	t := &Topology{
		nodes:    make(map[string]*Node),
		incoming: make(map[string][]Edge),
		outgoing: make(map[string][]Edge),
	}
	if g == nil {
		return t
	}
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if _, exists := t.nodes[n.ID]; exists {
			continue
		}
		t.nodes[n.ID] = n
		t.order = append(t.order, n.ID)
	}
	for _, e := range g.Edges {
		if _, ok := t.nodes[e.Source]; !ok {
			continue
		}
		if _, ok := t.nodes[e.Target]; !ok {
			continue
		}
		t.outgoing[e.Source] = append(t.outgoing[e.Source], e)
		t.incoming[e.Target] = append(t.incoming[e.Target], e)
	}
	return t
}

// Len returns the number of nodes.
func (t *Topology) Len() int {
	return len(t.order)
}

// Node returns the node with the given id.
func (t *Topology) Node(id string) (*Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Order returns node ids in declaration order.
func (t *Topology) Order() []string {
	return append([]string(nil), t.order...)
}

// Incoming returns the edges whose target is id, in declaration order.
func (t *Topology) Incoming(id string) []Edge {
	return t.incoming[id]
}

// Outgoing returns the edges whose source is id, in declaration order.
func (t *Topology) Outgoing(id string) []Edge {
	return t.outgoing[id]
}

// IsSink reports whether id has no outgoing edges.
func (t *Topology) IsSink(id string) bool {
	return len(t.outgoing[id]) == 0
}

// Sinks returns the ids of all nodes without outgoing edges, in declaration order.
func (t *Topology) Sinks() []string {
	var sinks []string
	for _, id := range t.order {
		if t.IsSink(id) {
			sinks = append(sinks, id)
		}
	}
	return sinks
}
