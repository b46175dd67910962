// Package scheduler drives the execution of a validated graph.
//
// # How It Works
//
// The scheduler is a concurrent variant of Kahn's algorithm. Every node keeps
// a counter of unresolved incoming edges. Nodes without incoming edges start
// Ready, in declaration order; everything else starts Pending.
//
// A single coordinating goroutine (Run) owns all execution state:
//  1. It dispatches Ready nodes from a FIFO queue while fewer than
//     MaxParallelism handlers are running. Excess Ready nodes wait in the
//     queue.
//  2. It waits for the next completion event from a handler goroutine.
//  3. It records the outcome and resolves the node's outgoing edges. A
//     successful node resolves its edges live and delivers its outputs; any
//     other outcome resolves them dead.
//  4. A target whose required input is bound to a dead edge is Skipped at
//     once, and its own edges resolve dead. A target whose counter reaches
//     zero becomes Ready, unless every incoming edge is dead, in which case
//     it is Skipped. Optional inputs on dead edges arrive absent.
//
// The run ends when no node is Pending, Ready or Running.
//
// # Cancellation and Timeouts
//
// Cancelling the run context marks every Pending and Ready node Cancelled and
// cancels the context of every running handler. A handler that ignores its
// context is abandoned; its late result is discarded. Each handler call is
// bounded by NodeTimeout when it is positive.
package scheduler
