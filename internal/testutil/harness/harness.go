// Package harness runs whole graphs through the application for integration
// tests: graph files are written to a temporary directory, loaded, executed
// and the JSON result decoded back.
package harness

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/flowgrid/internal/app"
	"github.com/vk/flowgrid/internal/registry"
	"github.com/vk/flowgrid/internal/result"
	"github.com/vk/flowgrid/internal/testutil"
)

// Result is the outcome of an integration run.
type Result struct {
	// Err is the error returned by App.Run.
	Err error
	// Result is the decoded execution result, nil when none was written.
	Result *result.ExecutionResult
	Logs   *testutil.SafeBuffer
}

// RunIntegrationTest writes files (relative path to content) into a temporary
// directory and runs the directory as one graph with the core modules plus
// the given ones.
func RunIntegrationTest(t *testing.T, files map[string]string, modules ...registry.Module) *Result {
	t.Helper()
	return RunWithConfig(t, app.Config{MaxParallelism: 4}, files, modules...)
}

// RunWithConfig is RunIntegrationTest with explicit application settings.
// GraphPath is always the temporary directory.
func RunWithConfig(t *testing.T, cfg app.Config, files map[string]string, modules ...registry.Module) *Result {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	cfg.GraphPath = dir
	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}
	validated, err := app.NewConfig(cfg)
	require.NoError(t, err)

	logs := &testutil.SafeBuffer{}
	out := &testutil.SafeBuffer{}
	all := append(app.CoreModules(logs), modules...)
	testApp := app.NewApp(logs, out, validated, all...)

	t.Cleanup(func() {
		if os.Getenv("FLOWGRID_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})

	res := &Result{Logs: logs}
	res.Err = testApp.Run(context.Background())
	if raw := out.String(); raw != "" {
		var decoded result.ExecutionResult
		require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
		res.Result = &decoded
	}
	return res
}

// Status returns the recorded status of a node as a plain string.
func (r *Result) Status(t *testing.T, id string) string {
	t.Helper()
	require.NotNil(t, r.Result, "no execution result was written")
	rec, ok := r.Result.ExecutedNodes[id]
	require.True(t, ok, "node %q has no execution record", id)
	return string(rec.Status)
}
