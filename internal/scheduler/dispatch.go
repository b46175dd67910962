package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/ctyconv"
	"github.com/vk/flowgrid/internal/graph"
	"github.com/vk/flowgrid/internal/nodestore"
	"github.com/vk/flowgrid/internal/registry"
)

// completion is the event a handler goroutine sends back to the coordinator.
type completion struct {
	nodeID    string
	outputs   map[string]any
	err       error
	panicked  any
	abandoned bool
	// runCancelled and nodeErr capture the context state at the moment the
	// outcome was observed.
	runCancelled bool
	nodeErr      error
}

// dispatch starts node id. Failures that happen before the handler is
// invoked (unknown type, invalid config, unconvertible inputs) are recorded
// synchronously.
func (s *Scheduler) dispatch(runCtx context.Context, id string) {
	n, _ := s.topo.Node(id)
	logger := ctxlog.FromContext(runCtx).With("node", id, "type", n.Type)

	if !s.transition(id, nodestore.StatusRunning, nil, nil) {
		return
	}

	reg, err := s.resolver.Resolve(n.Type)
	if err != nil {
		kind := nodestore.KindHandlerFailed
		if errors.Is(err, registry.ErrHandlerNotFound) {
			kind = nodestore.KindHandlerNotFound
		}
		s.fail(runCtx, id, kind, err.Error())
		return
	}

	if err := reg.ValidateConfig(n.Config); err != nil {
		s.fail(runCtx, id, nodestore.KindInvalidConfig, fmt.Sprintf("config of node '%s' is invalid: %v", id, err))
		return
	}

	inputs, err := s.prepareInputs(n, reg)
	if err != nil {
		s.fail(runCtx, id, nodestore.KindInputTypeMismatch, err.Error())
		return
	}

	var (
		nodeCtx context.Context
		cancel  context.CancelFunc
	)
	if s.cfg.NodeTimeout > 0 {
		nodeCtx, cancel = context.WithTimeout(runCtx, s.cfg.NodeTimeout)
	} else {
		nodeCtx, cancel = context.WithCancel(runCtx)
	}
	nodeCtx = ctxlog.WithLogger(nodeCtx, logger)
	nodeCtx = registry.WithRunID(nodeCtx, s.cfg.RunID)
	nodeCtx = registry.WithNodeID(nodeCtx, id)
	nodeCtx = registry.WithRunInputs(nodeCtx, s.cfg.RunInputs)
	s.running[id] = cancel

	logger.Debug("Dispatching node.", "inputs", len(inputs), "running", len(s.running))
	go invoke(runCtx, nodeCtx, id, reg.Handler, inputs, nodestore.CloneMap(n.Config), s.done)
}

// invoke runs the handler in its own goroutine and reports exactly one
// completion. If the node context ends first the handler is abandoned.
func invoke(runCtx, nodeCtx context.Context, id string, h registry.Handler, inputs, config map[string]any, done chan<- completion) {
	type outcome struct {
		outputs  map[string]any
		err      error
		panicked any
	}
	results := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ctxlog.FromContext(nodeCtx).Debug("Handler panic stack.", "stack", string(debug.Stack()))
				results <- outcome{panicked: r}
			}
		}()
		out, err := h.Execute(nodeCtx, inputs, config)
		results <- outcome{outputs: out, err: err}
	}()

	c := completion{nodeID: id}
	select {
	case o := <-results:
		c.outputs, c.err, c.panicked = o.outputs, o.err, o.panicked
	case <-nodeCtx.Done():
		c.abandoned = true
	}
	c.runCancelled = runCtx.Err() != nil
	c.nodeErr = nodeCtx.Err()
	done <- c
}

// prepareInputs builds the input map for n from delivered values and handler
// defaults, converting each value to the declared input type.
func (s *Scheduler) prepareInputs(n *graph.Node, reg *registry.Registration) (_ map[string]any, err error) {
	defer recoverConversion(&err)
	delivered := s.inputs[n.ID]
	inputs := make(map[string]any, len(n.Inputs))
	for _, in := range n.Inputs {
		v, ok := delivered[in.Name]
		if !ok {
			if v, ok = reg.Default(in.Name); !ok {
				continue
			}
		}
		ty, err := graph.ParseType(in.Type)
		if err != nil {
			return nil, fmt.Errorf("input '%s' of node '%s': %w", in.Name, n.ID, err)
		}
		converted, err := ctyconv.Conforms(v, ty)
		if err != nil {
			return nil, fmt.Errorf("input '%s' of node '%s': %w", in.Name, n.ID, err)
		}
		inputs[in.Name] = converted
	}
	return nodestore.CloneMap(inputs), nil
}

// complete records the outcome of a handler call and resolves the node's
// outgoing edges.
func (s *Scheduler) complete(ctx context.Context, c completion) {
	logger := ctxlog.FromContext(ctx).With("node", c.nodeID)
	n, _ := s.topo.Node(c.nodeID)

	switch {
	case c.runCancelled:
		logger.Warn("Node cancelled.", "abandoned", c.abandoned)
		s.finish(c.nodeID, nodestore.StatusCancelled, nil, &nodestore.NodeError{
			Kind:    nodestore.KindCancelled,
			Message: "run cancelled while the node was running",
		})
		return
	case c.panicked != nil:
		s.fail(ctx, c.nodeID, nodestore.KindHandlerPanic, fmt.Sprintf("handler panicked: %v", c.panicked))
		return
	case errors.Is(c.nodeErr, context.DeadlineExceeded) && (c.abandoned || c.err != nil):
		s.fail(ctx, c.nodeID, nodestore.KindTimeout, fmt.Sprintf("node exceeded timeout of %s", s.cfg.NodeTimeout))
		return
	case c.abandoned:
		s.finish(c.nodeID, nodestore.StatusCancelled, nil, &nodestore.NodeError{Kind: nodestore.KindCancelled, Message: "node context ended before the handler returned"})
		return
	case c.err != nil:
		s.fail(ctx, c.nodeID, nodestore.KindHandlerFailed, c.err.Error())
		return
	}

	outputs, err := s.conformOutputs(n, c.outputs)
	if err != nil {
		s.fail(ctx, c.nodeID, nodestore.KindOutputTypeMismatch, err.Error())
		return
	}
	if !s.transition(c.nodeID, nodestore.StatusSucceeded, outputs, nil) {
		return
	}
	logger.Debug("Node succeeded.", "outputs", len(outputs))
	for _, e := range s.topo.Outgoing(c.nodeID) {
		s.resolveLive(e, outputs)
	}
}

// conformOutputs keeps the declared outputs of n, converted to their declared
// types. Untyped outputs must still be representable in the run result.
// Every output consumed by a required input must be present.
func (s *Scheduler) conformOutputs(n *graph.Node, raw map[string]any) (_ map[string]any, err error) {
	defer recoverConversion(&err)
	outputs := make(map[string]any, len(n.Outputs))
	for _, out := range n.Outputs {
		v, ok := raw[out.Name]
		if !ok {
			continue
		}
		ty, err := graph.ParseType(out.Type)
		if err != nil {
			return nil, fmt.Errorf("output '%s': %w", out.Name, err)
		}
		converted, err := ctyconv.Conforms(v, ty)
		if err != nil {
			return nil, fmt.Errorf("output '%s': %w", out.Name, err)
		}
		outputs[out.Name] = converted
	}
	for _, e := range s.topo.Outgoing(n.ID) {
		if _, ok := outputs[e.SourceHandle]; ok {
			continue
		}
		target, _ := s.topo.Node(e.Target)
		if in, _ := target.Input(e.TargetHandle); in.Required {
			return nil, fmt.Errorf("output '%s' is consumed by required input '%s.%s' but was not produced", e.SourceHandle, e.Target, e.TargetHandle)
		}
	}
	return outputs, nil
}

// recoverConversion turns a panic raised while converting a node's values
// into an error for that node, keeping the coordinator alive.
func recoverConversion(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("value conversion panicked: %v", r)
	}
}

// fail records a node failure and resolves its outgoing edges dead.
func (s *Scheduler) fail(ctx context.Context, id string, kind nodestore.ErrorKind, message string) {
	ctxlog.FromContext(ctx).Error("Node failed.", "node", id, "kind", kind, "error", message)
	s.finish(id, nodestore.StatusFailed, nil, &nodestore.NodeError{Kind: kind, Message: message})
}

// finish moves a running node to a non-successful terminal state. Once the
// run is cancelled, dependents are left for cancelRemaining.
func (s *Scheduler) finish(id string, status nodestore.Status, outputs map[string]any, nodeErr *nodestore.NodeError) {
	if cancel, ok := s.running[id]; ok {
		cancel()
		delete(s.running, id)
	}
	if !s.transition(id, status, outputs, nodeErr) || s.runCtx.Err() != nil {
		return
	}
	for _, e := range s.topo.Outgoing(id) {
		s.resolveDead(e, id)
	}
}
