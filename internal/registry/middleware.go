package registry

import (
	"context"
	"time"

	"github.com/vk/flowgrid/internal/ctxlog"
)

// LogCalls logs every handler call at debug level with its duration, and
// handler errors at warn level, using the logger carried by the node context.
func LogCalls() Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, inputs, config map[string]any) (map[string]any, error) {
			logger := ctxlog.FromContext(ctx)
			start := time.Now()
			logger.Debug("Handler started.", "inputs", len(inputs))

			outputs, err := next.Execute(ctx, inputs, config)

			elapsed := time.Since(start)
			if err != nil {
				logger.Warn("Handler returned an error.", "duration", elapsed, "error", err)
				return outputs, err
			}
			logger.Debug("Handler returned.", "duration", elapsed, "outputs", len(outputs))
			return outputs, nil
		})
	}
}
