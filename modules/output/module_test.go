package output

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnRunOutput(t *testing.T) {
	t.Run("passes the input through", func(t *testing.T) {
		out, err := OnRunOutput(context.Background(), map[string]any{"in": []any{1, 2}}, nil)

		require.NoError(t, err)
		assert.Equal(t, map[string]any{"result": []any{1, 2}}, out)
	})

	t.Run("absent input produces no result", func(t *testing.T) {
		out, err := OnRunOutput(context.Background(), map[string]any{}, nil)

		require.NoError(t, err)
		assert.Empty(t, out)
	})
}
