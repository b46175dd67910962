package integration_tests

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vk/flowgrid/internal/testutil"
	"github.com/vk/flowgrid/internal/testutil/harness"
)

// TestDagConcurrency_FanOutExecutionTest validates that nodes in a fan-out
// structure run concurrently.
func TestDagConcurrency_FanOutExecutionTest(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	const nodeCount = 4
	graphHCL := `
        node "A" {
          type = "sleeper"
          output "result" {}
        }
        node "B" {
          type = "sleeper"
          input "in" { required = true }
        }
        node "C" {
          type = "sleeper"
          input "in" { required = true }
        }
        node "D" {
          type = "sleeper"
          input "in" { required = true }
        }
        edge "a_b" {
          from = A.result
          to   = B.in
        }
        edge "a_c" {
          from = A.result
          to   = C.in
        }
        edge "a_d" {
          from = A.result
          to   = D.in
        }
    `
	files := map[string]string{"main.hcl": graphHCL}

	completionChan := make(chan string, nodeCount)
	mockModule := testutil.NewMockSleeperModule(completionChan, 100*time.Millisecond)

	// --- Act ---
	result := harness.RunIntegrationTest(t, files, mockModule)
	require.NoError(t, result.Err, "test run failed unexpectedly")

	// --- Assert ---
	completed := make(map[string]struct{})
	for i := 0; i < nodeCount; i++ {
		select {
		case id := <-completionChan:
			completed[id] = struct{}{}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for nodes to complete. Completed %d of %d nodes. Got: %v", len(completed), nodeCount, completed)
		}
	}

	recordA, _ := mockModule.Record("A")
	recordB, _ := mockModule.Record("B")
	recordC, _ := mockModule.Record("C")
	recordD, _ := mockModule.Record("D")

	for id, rec := range map[string]testutil.ExecutionRecord{"B": recordB, "C": recordC, "D": recordD} {
		if rec.Start.Before(recordA.End) {
			t.Errorf("node %s started before its upstream A finished", id)
		}
	}
	// Assert that the time ranges of parallel nodes B and C overlap.
	if recordB.Start.After(recordC.End) || recordC.Start.After(recordB.End) {
		t.Errorf("nodes B and C did not run in parallel")
	}
	// Assert that the time ranges of parallel nodes C and D overlap.
	if recordC.Start.After(recordD.End) || recordD.Start.After(recordC.End) {
		t.Errorf("nodes C and D did not run in parallel")
	}
}
