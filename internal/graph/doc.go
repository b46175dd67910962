// Package graph is the data model of a workflow: nodes with named input and
// output handles, and edges binding one node's output handle to another node's
// input handle.
//
// A Graph is plain, JSON-serializable data produced by an authoring
// collaborator (an editor, a generator, a file on disk). Nothing in this
// package executes anything. Validate checks the structural and type
// invariants a graph must satisfy before it may be run, and Topology provides
// the read-only index the scheduler walks during a run.
package graph
