package integration_tests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/flowgrid/internal/app"
	"github.com/vk/flowgrid/internal/testutil"
	"github.com/vk/flowgrid/internal/testutil/harness"
)

func TestErrorHandling_NodeTimeoutFailsRun(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	graphHCL := `
		node "slow" {
		  type   = "sleeper"
		  config = { sleep = "5s" }
		  output "result" {}
		}
		node "after" {
		  type = "sleeper"
		  input "in" { required = true }
		}
		edge "slow_after" {
		  from = slow.result
		  to   = after.in
		}
	`
	mockModule := testutil.NewMockSleeperModule(nil, 0)
	cfg := app.Config{MaxParallelism: 2, NodeTimeout: 50 * time.Millisecond}

	// --- Act ---
	start := time.Now()
	result := harness.RunWithConfig(t, cfg, map[string]string{"main.hcl": graphHCL}, mockModule)
	elapsed := time.Since(start)

	// --- Assert ---
	require.ErrorIs(t, result.Err, app.ErrRunFailed)
	assert.Less(t, elapsed, 3*time.Second, "the run must not wait for the slow handler")
	assert.Equal(t, "Timeout", result.Result.Error.Kind)
	assert.Equal(t, "slow", result.Result.Error.NodeID)
	assert.Equal(t, "failed", result.Status(t, "slow"))
	assert.Equal(t, "skipped", result.Status(t, "after"))
}

func TestErrorHandling_HandlerPanicIsContained(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	graphHCL := `
		node "boom" {
		  type = "panicker"
		  output "result" {}
		}
		node "independent" {
		  type = "sleeper"
		}
	`
	panicker := testutil.FuncModule("panicker", func(context.Context, map[string]any, map[string]any) (map[string]any, error) {
		panic("kaboom")
	})
	sleeper := testutil.NewMockSleeperModule(nil, 10*time.Millisecond)

	// --- Act ---
	result := harness.RunIntegrationTest(t, map[string]string{"main.hcl": graphHCL}, panicker, sleeper)

	// --- Assert ---
	require.ErrorIs(t, result.Err, app.ErrRunFailed)
	assert.Equal(t, "HandlerPanic", result.Result.Error.Kind)
	assert.Contains(t, result.Result.Error.Message, "kaboom")
	assert.Equal(t, "succeeded", result.Status(t, "independent"))
}
