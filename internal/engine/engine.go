package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/graph"
	"github.com/vk/flowgrid/internal/nodestore"
	"github.com/vk/flowgrid/internal/registry"
	"github.com/vk/flowgrid/internal/result"
	"github.com/vk/flowgrid/internal/scheduler"
)

// Engine validates, schedules and aggregates runs against one registry. It
// is safe to start several runs concurrently.
type Engine struct {
	registry  *registry.Registry
	cfg       Config
	listeners scheduler.Listeners
	newRunID  func() string

	mu           sync.RWMutex
	currentRunID string
	current      *nodestore.Store
}

// Option configures an Engine.
type Option func(*Engine)

// WithListener adds a listener that observes every node transition of every
// run.
func WithListener(l scheduler.Listener) Option {
	return func(e *Engine) {
		e.listeners = append(e.listeners, l)
	}
}

// WithRunIDGenerator replaces the UUID run id generator.
func WithRunIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		e.newRunID = fn
	}
}

// New creates an Engine. The configuration is validated up front.
func New(reg *registry.Registry, cfg Config, opts ...Option) (*Engine, error) {
	if reg == nil {
		return nil, errors.New("engine requires a handler registry")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	e := &Engine{
		registry: reg,
		cfg:      cfg,
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Run executes g and returns its result. inputs are made available to
// handlers through registry.RunInputs. Cancelling ctx cancels the run.
func (e *Engine) Run(ctx context.Context, g *graph.Graph, inputs map[string]any) *result.ExecutionResult {
	if g == nil {
		g = &graph.Graph{}
	}
	runID := e.newRunID()
	logger := ctxlog.FromContext(ctx).With("run_id", runID)
	ctx = ctxlog.WithLogger(ctx, logger)
	startedAt := time.Now()

	logger.Info("🚀 Starting run.", "nodes", len(g.Nodes), "edges", len(g.Edges), "max_parallelism", e.cfg.MaxParallelism)

	var res *result.ExecutionResult
	if err := graph.Validate(g, e.registry); err != nil {
		var vErr *graph.ValidationError
		if errors.As(err, &vErr) {
			logger.Error("Graph validation failed.", "kind", vErr.Kind, "issues", len(vErr.Issues))
			res = result.FromValidation(vErr)
		} else {
			res = result.Aggregate(graph.NewTopology(nil), nil, fmt.Errorf("%v: %w", err, scheduler.ErrEngineInvariant))
		}
	} else {
		res = e.execute(ctx, runID, g, inputs)
	}

	finishedAt := time.Now()
	res.RunID = runID
	res.StartedAt = startedAt
	res.FinishedAt = finishedAt
	res.DurationMs = finishedAt.Sub(startedAt).Milliseconds()

	logger.Info("🏁 Execution finished.", "success", res.Success, "duration_ms", res.DurationMs, "failed", len(res.Failed()), "skipped", len(res.Skipped()))
	return res
}

func (e *Engine) execute(ctx context.Context, runID string, g *graph.Graph, inputs map[string]any) *result.ExecutionResult {
	topo := graph.NewTopology(g)
	store := nodestore.New(topo)
	e.setCurrent(runID, store)

	listeners := append(scheduler.Listeners{logListener{logger: ctxlog.FromContext(ctx)}}, e.listeners...)
	sched := scheduler.New(topo, e.registry, store, scheduler.Config{
		MaxParallelism: e.cfg.MaxParallelism,
		NodeTimeout:    e.cfg.NodeTimeout,
		RunID:          runID,
		RunInputs:      inputs,
	}, scheduler.WithListener(listeners))

	runErr := runScheduler(ctx, sched)
	return result.Aggregate(topo, store.Snapshot(), runErr)
}

// runScheduler converts a panic in the coordinating goroutine into an engine
// invariant error.
func runScheduler(ctx context.Context, sched *scheduler.Scheduler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scheduler panicked: %v: %w", r, scheduler.ErrEngineInvariant)
		}
	}()
	return sched.Run(ctx)
}

func (e *Engine) setCurrent(runID string, store *nodestore.Store) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.currentRunID = runID
	e.current = store
}

// Status is a read-only snapshot of the most recently started run.
type Status struct {
	RunID         string                               `json:"runId,omitempty"`
	ExecutedNodes map[string]nodestore.ExecutionRecord `json:"executedNodes,omitempty"`
}

// Status returns a snapshot of the most recently started run, or the zero
// Status before any graph has been executed.
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.current == nil {
		return Status{}
	}
	return Status{RunID: e.currentRunID, ExecutedNodes: e.current.Snapshot()}
}
