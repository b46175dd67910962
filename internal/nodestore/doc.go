// Package nodestore owns the mutable execution state of one run: a single
// ExecutionRecord per node.
//
// The store isolates mutable state (status, outputs, errors, timings) from the
// immutable graph. It is created once per run with every node Pending, is
// mutated only by the scheduler's coordinating goroutine, and hands out deep
// copies to every reader so that no caller ever holds a live reference.
//
// # State Transitions
//
// Nodes follow this lifecycle:
//
//	Pending → Ready → Running → Succeeded | Failed | Cancelled
//	Pending → Skipped | Cancelled
//	Ready   → Cancelled
//
// Any other transition is rejected with ErrInvalidTransition.
package nodestore
