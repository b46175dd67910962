package graph

// Input declares a named input slot on a node.
type Input struct {
	Name     string `json:"name"`
	Required bool   `json:"required,omitempty"`
	// Type is an optional type expression such as "string" or "list(number)".
	// An empty Type accepts any value.
	Type string `json:"type,omitempty"`
}

// Output declares a named output slot on a node.
type Output struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// Node is a single typed processing step.
type Node struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	// Config is handed to the node's handler untouched.
	Config  map[string]any `json:"config,omitempty"`
	Inputs  []Input        `json:"inputs,omitempty"`
	Outputs []Output       `json:"outputs,omitempty"`
	// Metadata carries authoring data (positions, labels) through storage
	// round-trips. The engine never reads it.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Input returns the declared input with the given name.
func (n *Node) Input(name string) (Input, bool) {
	for _, in := range n.Inputs {
		if in.Name == name {
			return in, true
		}
	}
	return Input{}, false
}

// Output returns the declared output with the given name.
func (n *Node) Output(name string) (Output, bool) {
	for _, out := range n.Outputs {
		if out.Name == name {
			return out, true
		}
	}
	return Output{}, false
}

// Edge is a directed data binding from Source.SourceHandle to
// Target.TargetHandle.
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	SourceHandle string `json:"sourceHandle"`
	Target       string `json:"target"`
	TargetHandle string `json:"targetHandle"`
}

// Graph is the full description of a workflow. An execution never mutates it.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}
