// Package engine is the single entry point for executing a workflow graph.
//
// A run goes through three stages: the graph is validated against the
// handler registry, the scheduler executes it, and the aggregator turns the
// per-node records into an ExecutionResult. Run never returns a Go error;
// validation failures, node failures and cancellation are all reported as
// data in the result.
package engine
