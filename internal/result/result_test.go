package result

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/flowgrid/internal/graph"
	"github.com/vk/flowgrid/internal/nodestore"
	"github.com/vk/flowgrid/internal/scheduler"
	"github.com/vk/flowgrid/internal/testutil"
)

func diamond() *graph.Topology {
	return graph.NewTopology(testutil.NewGraph().
		Node("A", "t", testutil.Out("result")).
		Node("B", "t", testutil.In("in", true), testutil.Out("result")).
		Node("C", "t", testutil.In("in", true), testutil.Out("result")).
		Node("D", "t", testutil.In("left", true), testutil.In("right", true), testutil.Out("result")).
		Node("E", "t", testutil.Out("result")).
		Edge("A.result", "B.in").
		Edge("A.result", "C.in").
		Edge("B.result", "D.left").
		Edge("C.result", "D.right").
		Build())
}

func rec(id string, status nodestore.Status, order int, outputs map[string]any, nodeErr *nodestore.NodeError) nodestore.ExecutionRecord {
	return nodestore.ExecutionRecord{NodeID: id, Type: "t", Status: status, Order: order, Outputs: outputs, Error: nodeErr}
}

func TestAggregate_Success(t *testing.T) {
	records := map[string]nodestore.ExecutionRecord{
		"A": rec("A", nodestore.StatusSucceeded, 1, map[string]any{"result": 1}, nil),
		"B": rec("B", nodestore.StatusSucceeded, 2, map[string]any{"result": 2}, nil),
		"C": rec("C", nodestore.StatusSucceeded, 3, map[string]any{"result": 3}, nil),
		"D": rec("D", nodestore.StatusSucceeded, 5, map[string]any{"result": 5}, nil),
		"E": rec("E", nodestore.StatusSucceeded, 4, nil, nil),
	}

	res := Aggregate(diamond(), records, nil)

	assert.True(t, res.Success)
	assert.Nil(t, res.Error)
	assert.Equal(t, map[string]map[string]any{
		"D": {"result": 5},
		"E": {},
	}, res.Outputs, "only sink nodes contribute outputs")
	assert.Len(t, res.ExecutedNodes, 5)
}

func TestAggregate_FirstFailureByOrder(t *testing.T) {
	records := map[string]nodestore.ExecutionRecord{
		"A": rec("A", nodestore.StatusSucceeded, 1, map[string]any{"result": 1}, nil),
		"B": rec("B", nodestore.StatusFailed, 3, nil, &nodestore.NodeError{Kind: nodestore.KindTimeout, Message: "late"}),
		"C": rec("C", nodestore.StatusFailed, 2, nil, &nodestore.NodeError{Kind: nodestore.KindHandlerFailed, Message: "boom"}),
		"D": rec("D", nodestore.StatusSkipped, 4, nil, &nodestore.NodeError{Kind: nodestore.KindUpstreamFailed, Message: "x"}),
		"E": rec("E", nodestore.StatusSucceeded, 5, map[string]any{"result": "e"}, nil),
	}

	res := Aggregate(diamond(), records, nil)

	assert.False(t, res.Success)
	require.NotNil(t, res.Error)
	assert.Equal(t, "HandlerFailed", res.Error.Kind)
	assert.Equal(t, "C", res.Error.NodeID)
	assert.Equal(t, "boom", res.Error.Message)
	assert.Equal(t, map[string]map[string]any{"E": {"result": "e"}}, res.Outputs)
	assert.Equal(t, []string{"C", "B"}, res.Failed())
	assert.Equal(t, []string{"D"}, res.Skipped())
}

func TestAggregate_RunErrors(t *testing.T) {
	records := map[string]nodestore.ExecutionRecord{
		"E": rec("E", nodestore.StatusCancelled, 1, nil, &nodestore.NodeError{Kind: nodestore.KindCancelled, Message: "c"}),
	}
	topo := graph.NewTopology(testutil.NewGraph().Node("E", "t").Build())

	t.Run("cancelled run", func(t *testing.T) {
		res := Aggregate(topo, records, fmt.Errorf("run cancelled: %w", context.Canceled))
		assert.False(t, res.Success)
		assert.Equal(t, KindCancelled, res.Error.Kind)
		assert.Empty(t, res.Outputs)
	})

	t.Run("engine invariant overrides node failures", func(t *testing.T) {
		failed := map[string]nodestore.ExecutionRecord{
			"E": rec("E", nodestore.StatusFailed, 1, nil, &nodestore.NodeError{Kind: nodestore.KindHandlerFailed, Message: "x"}),
		}
		res := Aggregate(topo, failed, fmt.Errorf("bad state: %w", scheduler.ErrEngineInvariant))
		assert.False(t, res.Success)
		assert.Equal(t, KindEngineInvariant, res.Error.Kind)
		assert.Contains(t, res.Error.Message, "bad state")
	})
}

func TestAggregate_CopiesRecords(t *testing.T) {
	records := map[string]nodestore.ExecutionRecord{
		"E": rec("E", nodestore.StatusSucceeded, 1, map[string]any{"result": []any{1}}, nil),
	}
	topo := graph.NewTopology(testutil.NewGraph().Node("E", "t", testutil.Out("result")).Build())

	res := Aggregate(topo, records, nil)
	records["E"].Outputs["result"].([]any)[0] = "mutated"

	assert.Equal(t, []any{1}, res.Outputs["E"]["result"])
	assert.Equal(t, []any{1}, res.ExecutedNodes["E"].Outputs["result"])
}

func TestAggregate_Empty(t *testing.T) {
	res := Aggregate(graph.NewTopology(&graph.Graph{}), map[string]nodestore.ExecutionRecord{}, nil)

	assert.True(t, res.Success)
	assert.Empty(t, res.Outputs)
	assert.NotNil(t, res.Outputs)
	assert.Empty(t, res.ExecutedNodes)
	assert.NotNil(t, res.ExecutedNodes)
}

func TestFromValidation(t *testing.T) {
	// Arrange
	issue := graph.Issue{Kind: graph.CycleDetected, NodeID: "A", Cycle: []string{"A"}, Message: "cycle detected: A -> A"}
	vErr := &graph.ValidationError{Kind: graph.CycleDetected, Issues: []graph.Issue{issue}}

	// Act
	res := FromValidation(vErr)
	vErr.Issues[0].Cycle[0] = "mutated"

	// Assert
	assert.False(t, res.Success)
	assert.Empty(t, res.ExecutedNodes)
	assert.Equal(t, "CycleDetected", res.Error.Kind)
	assert.Equal(t, []string{"cycle detected: A -> A"}, res.Error.Details)
	assert.Equal(t, []graph.Issue{{Kind: graph.CycleDetected, NodeID: "A", Cycle: []string{"A"}, Message: "cycle detected: A -> A"}}, res.Error.Issues)

	raw, err := json.Marshal(res.Error)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"issues":[{"kind":"CycleDetected","nodeId":"A","cycle":["A"],"message":"cycle detected: A -> A"}]`)
}
