// Package http_request provides the "http_request" node type, which performs
// a single HTTP call and exposes the response to downstream nodes.
package http_request

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/registry"
)

// Module implements the registry.Module interface for this package. Client
// is shared by every node of the type; a pooled client is created when it is
// nil.
type Module struct {
	Client *http.Client
}

// Config defines the request.
type Config struct {
	URL         string            `json:"url" jsonschema:"Absolute URL to call."`
	Method      string            `json:"method,omitempty" jsonschema:"HTTP method. Defaults to GET."`
	Headers     map[string]string `json:"headers,omitempty"`
	Timeout     string            `json:"timeout,omitempty" jsonschema:"Per-request timeout as a Go duration."`
	FailOnError bool              `json:"fail_on_error,omitempty" jsonschema:"Treat 4xx and 5xx responses as node failures."`
}

// newClient mirrors the transport settings used for long-lived clients.
func newClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

func (m *Module) onRunHttpRequest(ctx context.Context, inputs map[string]any, cfg Config) (map[string]any, error) {
	method := strings.ToUpper(cfg.Method)
	if method == "" {
		method = http.MethodGet
	}
	logger := ctxlog.FromContext(ctx).With("method", method, "url", cfg.URL)

	if cfg.Timeout != "" {
		timeout, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", cfg.Timeout, err)
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	body, contentType, err := requestBody(inputs["body"])
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, cfg.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}

	logger.Info("Making HTTP request.")
	resp, err := m.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	logger.Info("Received HTTP response.", "status", resp.Status)
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if cfg.FailOnError && resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("request failed with status %s", resp.Status)
	}

	headers := make(map[string]any, len(resp.Header))
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}
	return map[string]any{
		"status_code": int64(resp.StatusCode),
		"body":        string(bodyBytes),
		"headers":     headers,
	}, nil
}

// requestBody encodes the optional "body" input. Strings are sent verbatim,
// anything else as JSON.
func requestBody(v any) (io.Reader, string, error) {
	switch b := v.(type) {
	case nil:
		return nil, "", nil
	case string:
		return strings.NewReader(b), "text/plain; charset=utf-8", nil
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode request body: %w", err)
		}
		return bytes.NewReader(raw), "application/json", nil
	}
}

// Register registers the handler with the registry.
func (m *Module) Register(r *registry.Registry) {
	if m.Client == nil {
		m.Client = newClient()
	}
	r.Register("http_request", registry.MustTyped(m.onRunHttpRequest, nil))
}
