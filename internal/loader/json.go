package loader

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vk/flowgrid/internal/graph"
)

// DecodeJSON decodes the JSON form of a graph. filename is used in errors.
func DecodeJSON(src []byte, filename string) (*graph.Graph, error) {
	var g graph.Graph
	if len(bytes.TrimSpace(src)) == 0 {
		return &g, nil
	}
	if err := json.Unmarshal(src, &g); err != nil {
		return nil, fmt.Errorf("failed to decode JSON graph file %s: %w", filename, err)
	}
	return &g, nil
}
