package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/flowgrid/internal/graph"
)

const chainHCL = `
node "A" {
  type   = "input"
  config = {
    value = 21
    tags  = ["x", "y"]
  }
  output "result" { type = number }
}

node "B" {
  type = "template"
  input "in" {
    required = true
    type     = number
  }
  input "extra" {
    type = list(string)
  }
  output "result" {}
}

edge "a_to_b" {
  from = A.result
  to   = "B.in"
}
`

const chainJSON = `{
  "nodes": [
    {"id": "C", "type": "output", "inputs": [{"name": "in", "required": true}], "outputs": [{"name": "result"}]}
  ],
  "edges": [
    {"id": "b_to_c", "source": "B", "sourceHandle": "result", "target": "C", "targetHandle": "in"}
  ]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDecodeHCL(t *testing.T) {
	// Act
	g, err := DecodeHCL([]byte(chainHCL), "chain.hcl")

	// Assert
	require.NoError(t, err)
	want := &graph.Graph{
		Nodes: []graph.Node{
			{
				ID:      "A",
				Type:    "input",
				Config:  map[string]any{"value": int64(21), "tags": []any{"x", "y"}},
				Outputs: []graph.Output{{Name: "result", Type: "number"}},
			},
			{
				ID:   "B",
				Type: "template",
				Inputs: []graph.Input{
					{Name: "in", Required: true, Type: "number"},
					{Name: "extra", Type: "list(string)"},
				},
				Outputs: []graph.Output{{Name: "result"}},
			},
		},
		Edges: []graph.Edge{
			{ID: "a_to_b", Source: "A", SourceHandle: "result", Target: "B", TargetHandle: "in"},
		},
	}
	if diff := cmp.Diff(want, g); diff != "" {
		t.Errorf("decoded graph mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeHCL_Types(t *testing.T) {
	testCases := []struct {
		name string
		expr string
		want string
	}{
		{name: "primitive", expr: "string", want: "string"},
		{name: "quoted", expr: `"map(number)"`, want: "map(number)"},
		{name: "any is untyped", expr: "any", want: ""},
		{name: "object", expr: "object({ name = string })", want: "object({name=string})"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			src := `node "A" {
  type = "t"
  output "result" { type = ` + tc.expr + ` }
}`
			g, err := DecodeHCL([]byte(src), "types.hcl")

			require.NoError(t, err)
			got := g.Nodes[0].Outputs[0].Type
			assert.Equal(t, tc.want, got)
			if got != "" {
				_, err := graph.ParseType(got)
				assert.NoError(t, err, "canonical type string must parse back")
			}
		})
	}
}

func TestDecodeHCL_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		src     string
		wantErr string
	}{
		{name: "syntax error", src: `node "A" {`, wantErr: "failed to parse HCL file"},
		{name: "missing type", src: `node "A" {}`, wantErr: "failed to decode HCL file"},
		{name: "unknown block", src: `step "x" "y" {}`, wantErr: "failed to decode HCL file"},
		{name: "config not an object", src: `node "A" {
  type   = "t"
  config = "nope"
}`, wantErr: "config: must be an object"},
		{name: "bad type constructor", src: `node "A" {
  type = "t"
  input "in" { type = tuple(string) }
}`, wantErr: "input 'in'"},
		{name: "bad edge reference", src: `edge "e" {
  from = "A"
  to   = B.in
}`, wantErr: "must have the form node.handle"},
		{name: "deep traversal", src: `edge "e" {
  from = A.result.x
  to   = B.in
}`, wantErr: "must have the form node.handle"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeHCL([]byte(tc.src), "bad.hcl")

			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	t.Run("decodes nodes and edges", func(t *testing.T) {
		g, err := DecodeJSON([]byte(chainJSON), "chain.json")

		require.NoError(t, err)
		require.Len(t, g.Nodes, 1)
		assert.Equal(t, "C", g.Nodes[0].ID)
		assert.Equal(t, []graph.Input{{Name: "in", Required: true}}, g.Nodes[0].Inputs)
		assert.Equal(t, graph.Edge{ID: "b_to_c", Source: "B", SourceHandle: "result", Target: "C", TargetHandle: "in"}, g.Edges[0])
	})

	t.Run("empty document is an empty graph", func(t *testing.T) {
		g, err := DecodeJSON([]byte("  \n"), "empty.json")

		require.NoError(t, err)
		assert.Empty(t, g.Nodes)
	})

	t.Run("malformed document", func(t *testing.T) {
		_, err := DecodeJSON([]byte(`{"nodes": [`), "bad.json")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad.json")
	})
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("single HCL file", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "chain.hcl", chainHCL)

		g, err := Load(ctx, path)

		require.NoError(t, err)
		assert.Len(t, g.Nodes, 2)
		assert.Len(t, g.Edges, 1)
	})

	t.Run("directory merges files in lexical order", func(t *testing.T) {
		// Arrange
		dir := t.TempDir()
		writeFile(t, dir, "a_chain.hcl", chainHCL)
		writeFile(t, dir, "nested/b_tail.json", chainJSON)
		writeFile(t, dir, "README.md", "ignored")

		// Act
		g, err := Load(ctx, dir)

		// Assert
		require.NoError(t, err)
		ids := make([]string, 0, len(g.Nodes))
		for _, n := range g.Nodes {
			ids = append(ids, n.ID)
		}
		assert.Equal(t, []string{"A", "B", "C"}, ids)
		assert.Equal(t, []string{"a_to_b", "b_to_c"}, []string{g.Edges[0].ID, g.Edges[1].ID})
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := Load(ctx, filepath.Join(t.TempDir(), "missing.hcl"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "graph path not found")
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "graph.yaml", "nodes: []")

		_, err := Load(ctx, path)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported graph file extension")
	})

	t.Run("directory without graph files", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "notes.txt", "nothing here")

		_, err := Load(ctx, dir)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "no .hcl or .json files found")
	})

	t.Run("decode error names the file", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "ok.hcl", chainHCL)
		writeFile(t, dir, "zz_broken.json", "{")

		_, err := Load(ctx, dir)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "zz_broken.json")
	})
}
