package loader

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/ext/typeexpr"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/flowgrid/internal/ctyconv"
	"github.com/vk/flowgrid/internal/graph"
	"github.com/zclconf/go-cty/cty"
)

// graphFile is the top-level structure of an HCL graph file.
type graphFile struct {
	Nodes []*nodeBlock `hcl:"node,block"`
	Edges []*edgeBlock `hcl:"edge,block"`
}

type nodeBlock struct {
	ID       string         `hcl:"id,label"`
	Type     string         `hcl:"type"`
	Config   *cty.Value     `hcl:"config,optional"`
	Metadata *cty.Value     `hcl:"metadata,optional"`
	Inputs   []*inputBlock  `hcl:"input,block"`
	Outputs  []*outputBlock `hcl:"output,block"`
}

type inputBlock struct {
	Name     string         `hcl:"name,label"`
	Required bool           `hcl:"required,optional"`
	Type     hcl.Expression `hcl:"type,optional"`
}

type outputBlock struct {
	Name string         `hcl:"name,label"`
	Type hcl.Expression `hcl:"type,optional"`
}

type edgeBlock struct {
	ID   string         `hcl:"id,label"`
	From hcl.Expression `hcl:"from"`
	To   hcl.Expression `hcl:"to"`
}

// DecodeHCL parses and decodes an HCL graph. filename is used in diagnostics.
func DecodeHCL(src []byte, filename string) (*graph.Graph, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %s", filename, diags.Error())
	}

	var cfg graphFile
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %s", filename, diags.Error())
	}

	g := &graph.Graph{
		Nodes: make([]graph.Node, 0, len(cfg.Nodes)),
		Edges: make([]graph.Edge, 0, len(cfg.Edges)),
	}
	for _, nb := range cfg.Nodes {
		n, err := nb.toNode()
		if err != nil {
			return nil, fmt.Errorf("%s: node '%s': %w", filename, nb.ID, err)
		}
		g.Nodes = append(g.Nodes, n)
	}
	for _, eb := range cfg.Edges {
		e, err := eb.toEdge()
		if err != nil {
			return nil, fmt.Errorf("%s: edge '%s': %w", filename, eb.ID, err)
		}
		g.Edges = append(g.Edges, e)
	}
	return g, nil
}

func (nb *nodeBlock) toNode() (graph.Node, error) {
	n := graph.Node{ID: nb.ID, Type: nb.Type}

	config, err := objectValue(nb.Config)
	if err != nil {
		return n, fmt.Errorf("config: %w", err)
	}
	n.Config = config

	metadata, err := objectValue(nb.Metadata)
	if err != nil {
		return n, fmt.Errorf("metadata: %w", err)
	}
	n.Metadata = metadata

	for _, ib := range nb.Inputs {
		typ, err := typeString(ib.Type)
		if err != nil {
			return n, fmt.Errorf("input '%s': %w", ib.Name, err)
		}
		n.Inputs = append(n.Inputs, graph.Input{Name: ib.Name, Required: ib.Required, Type: typ})
	}
	for _, ob := range nb.Outputs {
		typ, err := typeString(ob.Type)
		if err != nil {
			return n, fmt.Errorf("output '%s': %w", ob.Name, err)
		}
		n.Outputs = append(n.Outputs, graph.Output{Name: ob.Name, Type: typ})
	}
	return n, nil
}

func (eb *edgeBlock) toEdge() (graph.Edge, error) {
	e := graph.Edge{ID: eb.ID}
	var err error
	if e.Source, e.SourceHandle, err = handleRef(eb.From); err != nil {
		return e, fmt.Errorf("from: %w", err)
	}
	if e.Target, e.TargetHandle, err = handleRef(eb.To); err != nil {
		return e, fmt.Errorf("to: %w", err)
	}
	return e, nil
}

// objectValue converts an optional HCL object attribute to a Go map.
func objectValue(v *cty.Value) (map[string]any, error) {
	if v == nil || v.IsNull() {
		return nil, nil
	}
	goVal, err := ctyconv.ToGo(*v)
	if err != nil {
		return nil, err
	}
	m, ok := goVal.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("must be an object, got %s", v.Type().FriendlyName())
	}
	return m, nil
}

// typeString turns a type expression into its canonical string form. An
// absent expression means the handle is untyped.
func typeString(expr hcl.Expression) (string, error) {
	if expr == nil {
		return "", nil
	}
	var (
		ty  cty.Type
		err error
	)
	if v, diags := expr.Value(nil); !diags.HasErrors() {
		switch {
		case v.IsNull():
			return "", nil
		case v.Type() == cty.String:
			ty, err = graph.ParseType(v.AsString())
		default:
			return "", fmt.Errorf("type must be a type expression such as string or list(number)")
		}
	} else {
		ty, err = graph.TypeFromExpr(expr)
	}
	if err != nil {
		return "", err
	}
	if ty == cty.DynamicPseudoType {
		return "", nil
	}
	return typeexpr.TypeString(ty), nil
}

// handleRef reads a "node.handle" reference written either as a traversal or
// as a string.
func handleRef(expr hcl.Expression) (string, string, error) {
	if traversal, diags := hcl.AbsTraversalForExpr(expr); !diags.HasErrors() {
		if len(traversal) != 2 {
			return "", "", fmt.Errorf("reference must have the form node.handle")
		}
		attr, ok := traversal[1].(hcl.TraverseAttr)
		if !ok {
			return "", "", fmt.Errorf("reference must have the form node.handle")
		}
		return traversal.RootName(), attr.Name, nil
	}

	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return "", "", fmt.Errorf("invalid reference: %s", diags.Error())
	}
	if v.IsNull() || !v.Type().Equals(cty.String) {
		return "", "", fmt.Errorf("reference must be a string or a traversal like node.handle")
	}
	node, handle, ok := strings.Cut(v.AsString(), ".")
	if !ok || node == "" || handle == "" {
		return "", "", fmt.Errorf("reference %q must have the form node.handle", v.AsString())
	}
	return node, handle, nil
}
