// Package socketio provides the "socketio" node type: connect to a socket.io
// server, emit one event and wait for a reply event.
package socketio

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/registry"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

const defaultTimeout = 10 * time.Second

// Module implements the registry.Module interface for this package.
type Module struct{}

// Config defines the exchange. The "data" input, when present, replaces
// EmitData.
type Config struct {
	URL                string `json:"url" jsonschema:"Server URL including the socket.io path."`
	Namespace          string `json:"namespace,omitempty"`
	OnEvent            string `json:"on_event" jsonschema:"Event whose first argument becomes the response output."`
	EmitEvent          string `json:"emit_event,omitempty"`
	EmitData           any    `json:"emit_data,omitempty"`
	Timeout            string `json:"timeout,omitempty" jsonschema:"Go duration bounding connect and reply. Defaults to 10s."`
	InsecureSkipVerify bool   `json:"insecure_skip_verify,omitempty"`
}

// opResult is a private struct to safely pass results through the done channel.
type opResult struct {
	value any
	err   error
}

// OnRunSocketIO is the handler for the 'socketio' node type.
func OnRunSocketIO(ctx context.Context, inputs map[string]any, cfg Config) (map[string]any, error) {
	logger := ctxlog.FromContext(ctx).With("url", cfg.URL, "onEvent", cfg.OnEvent, "emitEvent", cfg.EmitEvent)
	logger.Debug("Handler started.")
	defer logger.Debug("Handler finished.")

	timeout := defaultTimeout
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", cfg.Timeout, err)
		}
		timeout = d
	}

	emitData := cfg.EmitData
	if v, ok := inputs["data"]; ok {
		emitData = v
	}

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("URL %q must be absolute", cfg.URL)
	}
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "/"
	}

	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification.")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)
	defer func() {
		logger.Debug("Disconnecting socket client.")
		io.Disconnect()
	}()

	var isConnected atomic.Bool
	done := make(chan opResult, 1)
	report := func(res opResult) {
		select {
		case done <- res:
		default:
		}
	}

	io.On(types.EventName("connect"), func(...any) {
		isConnected.Store(true)
		logger.Info("Successfully connected.", "namespace", namespace, "sid", io.Id())
		if cfg.EmitEvent != "" {
			jsonData, _ := json.Marshal(emitData)
			logger.Debug("Emitting event.", "event", cfg.EmitEvent, "data", string(jsonData))
			io.Emit(cfg.EmitEvent, emitData)
		}
	})

	io.On(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("socket.io connection failed")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = fmt.Errorf("socket.io connection failed: %w", e)
			}
		}
		report(opResult{err: err})
	})

	io.On(types.EventName(cfg.OnEvent), func(data ...any) {
		var response any
		if len(data) > 0 {
			response = data[0]
		}
		report(opResult{value: response})
	})

	io.Connect()

	select {
	case <-opCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if isConnected.Load() {
			return nil, fmt.Errorf("timed out after connecting while waiting for event '%s'", cfg.OnEvent)
		}
		return nil, fmt.Errorf("timed out while waiting for initial connection")
	case res := <-done:
		if res.err != nil {
			return nil, res.err
		}
		logger.Info("Received response event.", "event", cfg.OnEvent)
		return map[string]any{"response": res.value}, nil
	}
}

// Register registers the handler with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.Register("socketio", registry.MustTyped(OnRunSocketIO, nil))
}
