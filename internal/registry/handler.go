package registry

import "context"

// Handler executes one node. Inputs are keyed by input handle name, outputs
// by output handle name. Handlers must honour ctx cancellation and must not
// mutate inputs or config.
type Handler interface {
	Execute(ctx context.Context, inputs map[string]any, config map[string]any) (map[string]any, error)
}

// HandlerFunc adapts an ordinary function to the Handler interface.
type HandlerFunc func(ctx context.Context, inputs map[string]any, config map[string]any) (map[string]any, error)

// Execute calls f.
func (f HandlerFunc) Execute(ctx context.Context, inputs map[string]any, config map[string]any) (map[string]any, error) {
	return f(ctx, inputs, config)
}

// Middleware wraps a Handler with additional behaviour.
type Middleware func(Handler) Handler

// Chain composes middlewares into one. The first middleware becomes the
// outermost wrapper.
func Chain(mws ...Middleware) Middleware {
	return func(next Handler) Handler {
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			h = mws[i](h)
		}
		return h
	}
}
