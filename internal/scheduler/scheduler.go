package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/graph"
	"github.com/vk/flowgrid/internal/nodestore"
	"github.com/vk/flowgrid/internal/registry"
)

// ErrEngineInvariant marks an internal inconsistency that aborted a run.
var ErrEngineInvariant = errors.New("engine invariant violated")

// Resolver looks up the registration for a node type. *registry.Registry
// implements it.
type Resolver interface {
	Resolve(nodeType string) (*registry.Registration, error)
}

// Config bounds a single run.
type Config struct {
	// MaxParallelism is the maximum number of handlers running at once.
	// Values below 1 are treated as 1.
	MaxParallelism int
	// NodeTimeout bounds every handler call. Zero means unbounded.
	NodeTimeout time.Duration
	// RunID is made available to handlers through registry.RunID.
	RunID string
	// RunInputs is made available to handlers through registry.RunInputs.
	RunInputs map[string]any
}

// Scheduler executes one run of a graph. It is not reusable.
type Scheduler struct {
	topo     *graph.Topology
	resolver Resolver
	store    *nodestore.Store
	cfg      Config
	listener Listener

	// Everything below is owned by the coordinating goroutine.
	unresolved map[string]int
	dead       map[string]int
	inputs     map[string]map[string]any
	queue      []string
	running    map[string]context.CancelFunc
	done       chan completion
	runCtx     context.Context
	invariant  error
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithListener registers a listener for node transitions.
func WithListener(l Listener) Option {
	return func(s *Scheduler) {
		s.listener = l
	}
}

// New creates a scheduler for one run over topo, writing records into store.
func New(topo *graph.Topology, resolver Resolver, store *nodestore.Store, cfg Config, opts ...Option) *Scheduler {
	if cfg.MaxParallelism < 1 {
		cfg.MaxParallelism = 1
	}
	s := &Scheduler{
		topo:       topo,
		resolver:   resolver,
		store:      store,
		cfg:        cfg,
		unresolved: make(map[string]int, topo.Len()),
		dead:       make(map[string]int, topo.Len()),
		inputs:     make(map[string]map[string]any, topo.Len()),
		running:    make(map[string]context.CancelFunc),
		done:       make(chan completion, cfg.MaxParallelism),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes the graph until every node is terminal. It returns nil when the
// run completed, an error wrapping ctx.Err() when it was cancelled, and an
// error wrapping ErrEngineInvariant when it had to abort. Node failures are
// recorded in the store and never returned.
func (s *Scheduler) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	runCtx, abort := context.WithCancel(ctx)
	defer abort()
	s.runCtx = runCtx

	for _, id := range s.topo.Order() {
		s.unresolved[id] = len(s.topo.Incoming(id))
		s.inputs[id] = make(map[string]any)
	}
	for _, id := range s.topo.Order() {
		if s.unresolved[id] == 0 {
			s.markReady(id)
		}
	}

	ctxDone := ctx.Done()
	cancelled := false
	for {
		if s.invariant != nil && !cancelled {
			abort()
		}
		if runCtx.Err() != nil && !cancelled {
			cancelled = true
			s.cancelRemaining(ctx)
		}

		for !cancelled && len(s.running) < s.cfg.MaxParallelism && len(s.queue) > 0 {
			id := s.queue[0]
			s.queue = s.queue[1:]
			s.dispatch(runCtx, id)
		}

		if len(s.running) == 0 && len(s.queue) == 0 {
			break
		}

		select {
		case c := <-s.done:
			if cancel, ok := s.running[c.nodeID]; ok {
				cancel()
				delete(s.running, c.nodeID)
			}
			s.complete(ctx, c)
		case <-ctxDone:
			ctxDone = nil
			logger.Warn("Run cancelled, cancelling remaining nodes.", "running", len(s.running))
		}
	}

	if s.invariant == nil {
		if active := s.store.Active(); len(active) > 0 {
			s.invariant = fmt.Errorf("nodes %v never reached a terminal state: %w", active, ErrEngineInvariant)
		}
	}
	if s.invariant != nil {
		logger.Error("Run aborted.", "error", s.invariant)
		return s.invariant
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run cancelled: %w", err)
	}
	return nil
}

// transition applies a state change and notifies the listener. A rejected
// transition is an engine invariant violation.
func (s *Scheduler) transition(id string, to nodestore.Status, outputs map[string]any, nodeErr *nodestore.NodeError) bool {
	rec, err := s.store.Transition(id, to, outputs, nodeErr)
	if err != nil {
		if s.invariant == nil {
			s.invariant = fmt.Errorf("%v: %w", err, ErrEngineInvariant)
		}
		return false
	}
	if s.listener != nil {
		s.listener.OnTransition(rec)
	}
	return true
}

func (s *Scheduler) markReady(id string) {
	if s.transition(id, nodestore.StatusReady, nil, nil) {
		s.queue = append(s.queue, id)
	}
}

// cancelRemaining marks every node that has not been dispatched as Cancelled.
// Running handlers observe the cancellation through their context.
func (s *Scheduler) cancelRemaining(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	s.queue = nil
	for _, id := range s.topo.Order() {
		status, _ := s.store.Status(id)
		if status != nodestore.StatusPending && status != nodestore.StatusReady {
			continue
		}
		logger.Debug("Cancelling node.", "node", id, "status", status)
		s.transition(id, nodestore.StatusCancelled, nil, &nodestore.NodeError{
			Kind:    nodestore.KindCancelled,
			Message: "run cancelled before the node was dispatched",
		})
	}
	for _, cancel := range s.running {
		cancel()
	}
}
