package http_request

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/flowgrid/internal/registry"
)

func newHandler(t *testing.T, client *http.Client) *registry.Registration {
	t.Helper()
	r := registry.New()
	(&Module{Client: client}).Register(r)
	reg, err := r.Resolve("http_request")
	require.NoError(t, err)
	return reg
}

func TestHttpRequest(t *testing.T) {
	// Arrange
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/echo":
			body, _ := io.ReadAll(r.Body)
			w.Header().Set("X-Method", r.Method)
			w.Header().Set("X-Content-Type", r.Header.Get("Content-Type"))
			w.Header().Set("X-Token", r.Header.Get("X-Token"))
			_, _ = w.Write(body)
		case "/slow":
			select {
			case <-time.After(2 * time.Second):
			case <-r.Context().Done():
			}
		default:
			http.Error(w, "missing", http.StatusNotFound)
		}
	}))
	defer srv.Close()
	reg := newHandler(t, srv.Client())
	ctx := context.Background()

	t.Run("GET by default", func(t *testing.T) {
		out, err := reg.Handler.Execute(ctx, nil, map[string]any{"url": srv.URL + "/echo"})

		require.NoError(t, err)
		assert.Equal(t, int64(http.StatusOK), out["status_code"])
		assert.Equal(t, "GET", out["headers"].(map[string]any)["X-Method"])
	})

	t.Run("sends a JSON body and headers", func(t *testing.T) {
		config := map[string]any{"url": srv.URL + "/echo", "method": "post", "headers": map[string]any{"X-Token": "secret"}}

		out, err := reg.Handler.Execute(ctx, map[string]any{"body": map[string]any{"id": 7}}, config)

		require.NoError(t, err)
		assert.JSONEq(t, `{"id": 7}`, out["body"].(string))
		headers := out["headers"].(map[string]any)
		assert.Equal(t, "POST", headers["X-Method"])
		assert.Equal(t, "application/json", headers["X-Content-Type"])
		assert.Equal(t, "secret", headers["X-Token"])
	})

	t.Run("error statuses are outputs unless fail_on_error is set", func(t *testing.T) {
		out, err := reg.Handler.Execute(ctx, nil, map[string]any{"url": srv.URL + "/nope"})
		require.NoError(t, err)
		assert.Equal(t, int64(http.StatusNotFound), out["status_code"])

		_, err = reg.Handler.Execute(ctx, nil, map[string]any{"url": srv.URL + "/nope", "fail_on_error": true})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")
	})

	t.Run("request timeout", func(t *testing.T) {
		_, err := reg.Handler.Execute(ctx, nil, map[string]any{"url": srv.URL + "/slow", "timeout": "50ms"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to execute request")
	})

	t.Run("invalid timeout", func(t *testing.T) {
		_, err := reg.Handler.Execute(ctx, nil, map[string]any{"url": srv.URL, "timeout": "soon"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid timeout")
	})

	t.Run("config schema requires url", func(t *testing.T) {
		assert.Error(t, reg.ValidateConfig(map[string]any{"method": "GET"}))
		assert.NoError(t, reg.ValidateConfig(map[string]any{"url": srv.URL}))
	})
}

func TestRegister_CreatesPooledClient(t *testing.T) {
	m := &Module{}

	m.Register(registry.New())

	require.NotNil(t, m.Client)
	assert.IsType(t, &http.Transport{}, m.Client.Transport)
}
