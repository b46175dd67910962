package registry

import "context"

type (
	runIDKey     struct{}
	nodeIDKey    struct{}
	runInputsKey struct{}
)

// WithRunID returns a context carrying the id of the current run.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunID returns the id of the run executing the handler, if any.
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// WithNodeID returns a context carrying the id of the node being executed.
func WithNodeID(ctx context.Context, nodeID string) context.Context {
	return context.WithValue(ctx, nodeIDKey{}, nodeID)
}

// NodeID returns the id of the node being executed, if any.
func NodeID(ctx context.Context) string {
	id, _ := ctx.Value(nodeIDKey{}).(string)
	return id
}

// WithRunInputs returns a context carrying the caller-supplied run inputs.
func WithRunInputs(ctx context.Context, inputs map[string]any) context.Context {
	return context.WithValue(ctx, runInputsKey{}, inputs)
}

// RunInputs returns the run inputs supplied by the caller. The map must be
// treated as read-only.
func RunInputs(ctx context.Context) map[string]any {
	inputs, _ := ctx.Value(runInputsKey{}).(map[string]any)
	return inputs
}
