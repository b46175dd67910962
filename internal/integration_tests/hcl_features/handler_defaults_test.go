package integration_tests

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/flowgrid/internal/registry"
	"github.com/vk/flowgrid/internal/testutil"
	"github.com/vk/flowgrid/internal/testutil/harness"
)

// Inputs left unbound in the graph are filled from the handler's defaults,
// including required ones.
func TestHCLFeatures_HandlerDefaultsFillUnboundInputs(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	graphHCL := `
		node "who" {
		  type   = "input"
		  config = { value = "gopher" }
		  output "result" { type = string }
		}
		node "greet" {
		  type = "greeter"
		  input "name" {
		    required = true
		    type     = string
		  }
		  input "greeting" {
		    required = true
		    type     = string
		  }
		  input "punctuation" {}
		  output "result" { type = string }
		}
		edge "who_greet" {
		  from = who.result
		  to   = greet.name
		}
	`
	var seen map[string]any
	greeter := &testutil.SimpleModule{
		Type: "greeter",
		Registration: &registry.Registration{
			Handler: registry.HandlerFunc(func(_ context.Context, inputs, _ map[string]any) (map[string]any, error) {
				seen = inputs
				return map[string]any{"result": fmt.Sprintf("%s, %s%v", inputs["greeting"], inputs["name"], inputs["punctuation"])}, nil
			}),
			Defaults: map[string]any{"greeting": "hello", "punctuation": "!"},
		},
	}

	// --- Act ---
	result := harness.RunIntegrationTest(t, map[string]string{"main.hcl": graphHCL}, greeter)

	// --- Assert ---
	require.NoError(t, result.Err)
	assert.Equal(t, map[string]any{"name": "gopher", "greeting": "hello", "punctuation": "!"}, seen)
	assert.Equal(t, "hello, gopher!", result.Result.Outputs["greet"]["result"])
}

// A required input with neither an edge nor a handler default is rejected
// during validation.
func TestHCLFeatures_MissingRequiredInputWithoutDefault(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	graphHCL := `
		node "lonely" {
		  type = "sleeper"
		  input "in" { required = true }
		}
	`

	// --- Act ---
	result := harness.RunIntegrationTest(t, map[string]string{"main.hcl": graphHCL}, testutil.NewMockSleeperModule(nil, 0))

	// --- Assert ---
	require.Error(t, result.Err)
	assert.Equal(t, "MissingRequiredInput", result.Result.Error.Kind)
	assert.Empty(t, result.Result.ExecutedNodes)
}
