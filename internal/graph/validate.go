package graph

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Defaults reports whether a handler supplies a default value for one of a
// node type's inputs. The handler registry implements it.
type Defaults interface {
	HasDefault(nodeType, handle string) bool
}

// Validate checks g class by class and returns a *ValidationError naming
// every offending instance of the first class that fails. Classes are checked
// in this order: identifiers, references, fan-in, cycles, required inputs,
// handle types. A nil defaults means no handler supplies defaults.
func Validate(g *Graph, defaults Defaults) error {
	if g == nil {
		return nil
	}
	checks := []struct {
		kind Kind
		run  func(*Graph, Defaults) []Issue
	}{
		{DuplicateIdentifier, checkIdentifiers},
		{DanglingReference, checkReferences},
		{DuplicateInputBinding, checkFanIn},
		{CycleDetected, checkCycles},
		{MissingRequiredInput, checkRequiredInputs},
		{TypeMismatch, checkTypes},
	}
	for _, check := range checks {
		if issues := check.run(g, defaults); len(issues) > 0 {
			return &ValidationError{Kind: check.kind, Issues: issues}
		}
	}
	return nil
}

func checkIdentifiers(g *Graph, _ Defaults) []Issue {
	var issues []Issue
	seenNodes := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID == "" {
			issues = append(issues, Issue{Kind: DuplicateIdentifier, Message: "node with empty id"})
			continue
		}
		if seenNodes[n.ID] {
			issues = append(issues, Issue{Kind: DuplicateIdentifier, NodeID: n.ID, Message: fmt.Sprintf("duplicate node id '%s'", n.ID)})
		}
		seenNodes[n.ID] = true

		seenInputs := make(map[string]bool, len(n.Inputs))
		for _, in := range n.Inputs {
			if seenInputs[in.Name] {
				issues = append(issues, Issue{Kind: DuplicateIdentifier, NodeID: n.ID, Handle: in.Name, Message: fmt.Sprintf("node '%s' declares input '%s' more than once", n.ID, in.Name)})
			}
			seenInputs[in.Name] = true
		}
		seenOutputs := make(map[string]bool, len(n.Outputs))
		for _, out := range n.Outputs {
			if seenOutputs[out.Name] {
				issues = append(issues, Issue{Kind: DuplicateIdentifier, NodeID: n.ID, Handle: out.Name, Message: fmt.Sprintf("node '%s' declares output '%s' more than once", n.ID, out.Name)})
			}
			seenOutputs[out.Name] = true
		}
	}

	seenEdges := make(map[string]bool, len(g.Edges))
	for _, e := range g.Edges {
		if e.ID == "" {
			continue
		}
		if seenEdges[e.ID] {
			issues = append(issues, Issue{Kind: DuplicateIdentifier, EdgeID: e.ID, Message: fmt.Sprintf("duplicate edge id '%s'", e.ID)})
		}
		seenEdges[e.ID] = true
	}
	return issues
}

func checkReferences(g *Graph, _ Defaults) []Issue {
	nodes := nodeIndex(g)
	var issues []Issue
	for _, e := range g.Edges {
		src, ok := nodes[e.Source]
		if !ok {
			issues = append(issues, Issue{Kind: DanglingReference, EdgeID: e.ID, NodeID: e.Source, Message: fmt.Sprintf("edge '%s' references unknown source node '%s'", e.ID, e.Source)})
		} else if _, ok := src.Output(e.SourceHandle); !ok {
			issues = append(issues, Issue{Kind: DanglingReference, EdgeID: e.ID, NodeID: e.Source, Handle: e.SourceHandle, Message: fmt.Sprintf("edge '%s' references undeclared output '%s' on node '%s'", e.ID, e.SourceHandle, e.Source)})
		}

		dst, ok := nodes[e.Target]
		if !ok {
			issues = append(issues, Issue{Kind: DanglingReference, EdgeID: e.ID, NodeID: e.Target, Message: fmt.Sprintf("edge '%s' references unknown target node '%s'", e.ID, e.Target)})
		} else if _, ok := dst.Input(e.TargetHandle); !ok {
			issues = append(issues, Issue{Kind: DanglingReference, EdgeID: e.ID, NodeID: e.Target, Handle: e.TargetHandle, Message: fmt.Sprintf("edge '%s' references undeclared input '%s' on node '%s'", e.ID, e.TargetHandle, e.Target)})
		}
	}
	return issues
}

func checkFanIn(g *Graph, _ Defaults) []Issue {
	type binding struct{ node, handle string }
	first := make(map[binding]string, len(g.Edges))
	reported := make(map[binding]bool)
	var issues []Issue
	for _, e := range g.Edges {
		b := binding{e.Target, e.TargetHandle}
		prev, ok := first[b]
		if !ok {
			first[b] = e.ID
			continue
		}
		if reported[b] {
			issues = append(issues, Issue{Kind: DuplicateInputBinding, EdgeID: e.ID, NodeID: e.Target, Handle: e.TargetHandle, Message: fmt.Sprintf("input '%s' of node '%s' is also bound by edge '%s'", e.TargetHandle, e.Target, e.ID)})
			continue
		}
		reported[b] = true
		issues = append(issues, Issue{Kind: DuplicateInputBinding, EdgeID: e.ID, NodeID: e.Target, Handle: e.TargetHandle, Message: fmt.Sprintf("input '%s' of node '%s' is bound by both edge '%s' and edge '%s'", e.TargetHandle, e.Target, prev, e.ID)})
	}
	return issues
}

// checkCycles runs a three-colour depth-first search in declaration order and
// reports one cycle per back-edge found.
func checkCycles(g *Graph, _ Defaults) []Issue {
	const (
		unvisited = iota
		visiting
		visited
	)

	adjacency := make(map[string][]string, len(g.Nodes))
	for _, e := range g.Edges {
		adjacency[e.Source] = append(adjacency[e.Source], e.Target)
	}

	states := make(map[string]int, len(g.Nodes))
	stack := make([]string, 0, len(g.Nodes))
	var issues []Issue

	var visit func(id string)
	visit = func(id string) {
		states[id] = visiting
		stack = append(stack, id)
		for _, next := range adjacency[id] {
			switch states[next] {
			case unvisited:
				visit(next)
			case visiting:
				cycle := cycleFrom(stack, next)
				issues = append(issues, Issue{
					Kind:    CycleDetected,
					NodeID:  next,
					Cycle:   cycle,
					Message: fmt.Sprintf("cycle detected: %s", strings.Join(append(cycle, next), " -> ")),
				})
			}
		}
		stack = stack[:len(stack)-1]
		states[id] = visited
	}

	for _, n := range g.Nodes {
		if states[n.ID] == unvisited {
			visit(n.ID)
		}
	}
	return issues
}

func cycleFrom(stack []string, start string) []string {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == start {
			return append([]string(nil), stack[i:]...)
		}
	}
	return []string{start}
}

func checkRequiredInputs(g *Graph, defaults Defaults) []Issue {
	bound := make(map[string]map[string]bool, len(g.Nodes))
	for _, e := range g.Edges {
		if bound[e.Target] == nil {
			bound[e.Target] = make(map[string]bool)
		}
		bound[e.Target][e.TargetHandle] = true
	}

	var issues []Issue
	for _, n := range g.Nodes {
		for _, in := range n.Inputs {
			if !in.Required || bound[n.ID][in.Name] {
				continue
			}
			if defaults != nil && defaults.HasDefault(n.Type, in.Name) {
				continue
			}
			issues = append(issues, Issue{Kind: MissingRequiredInput, NodeID: n.ID, Handle: in.Name, Message: fmt.Sprintf("required input '%s' of node '%s' has no incoming edge and no default", in.Name, n.ID)})
		}
	}
	return issues
}

func checkTypes(g *Graph, _ Defaults) []Issue {
	var issues []Issue
	inputTypes := make(map[string]map[string]cty.Type, len(g.Nodes))
	outputTypes := make(map[string]map[string]cty.Type, len(g.Nodes))

	for _, n := range g.Nodes {
		inputTypes[n.ID] = make(map[string]cty.Type, len(n.Inputs))
		for _, in := range n.Inputs {
			ty, err := ParseType(in.Type)
			if err != nil {
				issues = append(issues, Issue{Kind: TypeMismatch, NodeID: n.ID, Handle: in.Name, Message: fmt.Sprintf("input '%s' of node '%s': %v", in.Name, n.ID, err)})
				continue
			}
			inputTypes[n.ID][in.Name] = ty
		}
		outputTypes[n.ID] = make(map[string]cty.Type, len(n.Outputs))
		for _, out := range n.Outputs {
			ty, err := ParseType(out.Type)
			if err != nil {
				issues = append(issues, Issue{Kind: TypeMismatch, NodeID: n.ID, Handle: out.Name, Message: fmt.Sprintf("output '%s' of node '%s': %v", out.Name, n.ID, err)})
				continue
			}
			outputTypes[n.ID][out.Name] = ty
		}
	}

	for _, e := range g.Edges {
		from, okFrom := outputTypes[e.Source][e.SourceHandle]
		to, okTo := inputTypes[e.Target][e.TargetHandle]
		if !okFrom || !okTo {
			continue
		}
		if !Assignable(from, to) {
			issues = append(issues, Issue{
				Kind:    TypeMismatch,
				EdgeID:  e.ID,
				NodeID:  e.Target,
				Handle:  e.TargetHandle,
				Message: fmt.Sprintf("edge '%s' delivers %s from '%s.%s' to %s input '%s.%s'", e.ID, from.FriendlyName(), e.Source, e.SourceHandle, to.FriendlyName(), e.Target, e.TargetHandle),
			})
		}
	}
	return issues
}

func nodeIndex(g *Graph) map[string]*Node {
	nodes := make(map[string]*Node, len(g.Nodes))
	for i := range g.Nodes {
		nodes[g.Nodes[i].ID] = &g.Nodes[i]
	}
	return nodes
}
