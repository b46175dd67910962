// Package result assembles the per-node execution records of a run into the
// ExecutionResult handed back to callers.
package result

import (
	"errors"
	"sort"
	"time"

	"github.com/vk/flowgrid/internal/graph"
	"github.com/vk/flowgrid/internal/nodestore"
	"github.com/vk/flowgrid/internal/scheduler"
)

const (
	// KindCancelled is the top-level error kind of a cancelled run without
	// node failures.
	KindCancelled = string(nodestore.KindCancelled)
	// KindEngineInvariant is the top-level error kind of an aborted run.
	KindEngineInvariant = "EngineInvariant"
)

// Error is the top-level summary of what went wrong in a run.
type Error struct {
	Kind    string   `json:"kind"`
	Message string   `json:"message"`
	NodeID  string   `json:"nodeId,omitempty"`
	Details []string `json:"details,omitempty"`
	// Issues lists the offending nodes, edges and handles of a validation
	// failure.
	Issues []graph.Issue `json:"issues,omitempty"`
}

// ExecutionResult is the immutable outcome of a run.
type ExecutionResult struct {
	RunID         string                               `json:"runId"`
	Success       bool                                 `json:"success"`
	Outputs       map[string]map[string]any            `json:"outputs"`
	Error         *Error                               `json:"error,omitempty"`
	ExecutedNodes map[string]nodestore.ExecutionRecord `json:"executedNodes"`
	StartedAt     time.Time                            `json:"startedAt"`
	FinishedAt    time.Time                            `json:"finishedAt"`
	DurationMs    int64                                `json:"durationMs"`
}

// Aggregate builds the result of a run from its records. runErr is the error
// returned by the scheduler: nil, a cancellation, or an engine invariant
// violation. Outputs are the union of the outputs of succeeded sink nodes.
func Aggregate(topo *graph.Topology, records map[string]nodestore.ExecutionRecord, runErr error) *ExecutionResult {
	res := &ExecutionResult{
		Outputs:       make(map[string]map[string]any),
		ExecutedNodes: make(map[string]nodestore.ExecutionRecord, len(records)),
	}
	for id, rec := range records {
		res.ExecutedNodes[id] = rec.Clone()
	}

	for _, id := range topo.Sinks() {
		rec, ok := records[id]
		if !ok || rec.Status != nodestore.StatusSucceeded {
			continue
		}
		res.Outputs[id] = nodestore.CloneMap(rec.Outputs)
		if res.Outputs[id] == nil {
			res.Outputs[id] = map[string]any{}
		}
	}

	res.Error = firstFailure(records)
	switch {
	case runErr != nil && errors.Is(runErr, scheduler.ErrEngineInvariant):
		res.Error = &Error{Kind: KindEngineInvariant, Message: runErr.Error()}
	case res.Error == nil && runErr != nil:
		res.Error = &Error{Kind: KindCancelled, Message: runErr.Error()}
	}
	res.Success = res.Error == nil
	return res
}

// firstFailure returns the error of the Failed record that terminated first.
func firstFailure(records map[string]nodestore.ExecutionRecord) *Error {
	var first *nodestore.ExecutionRecord
	for id := range records {
		rec := records[id]
		if rec.Status != nodestore.StatusFailed {
			continue
		}
		if first == nil || rec.Order < first.Order {
			first = &rec
		}
	}
	if first == nil {
		return nil
	}
	e := &Error{NodeID: first.NodeID, Kind: string(nodestore.KindHandlerFailed)}
	if first.Error != nil {
		e.Kind = string(first.Error.Kind)
		e.Message = first.Error.Message
	}
	return e
}

// FromValidation builds the result of a run rejected before execution.
func FromValidation(err *graph.ValidationError) *ExecutionResult {
	return &ExecutionResult{
		Success:       false,
		Outputs:       map[string]map[string]any{},
		ExecutedNodes: map[string]nodestore.ExecutionRecord{},
		Error: &Error{
			Kind:    string(err.Kind),
			Message: "graph validation failed",
			Details: err.Details(),
			Issues:  cloneIssues(err.Issues),
		},
	}
}

func cloneIssues(issues []graph.Issue) []graph.Issue {
	out := make([]graph.Issue, len(issues))
	for i, issue := range issues {
		issue.Cycle = append([]string(nil), issue.Cycle...)
		out[i] = issue
	}
	return out
}

// Failed returns the ids of every Failed node ordered by termination.
func (r *ExecutionResult) Failed() []string {
	return r.withStatus(nodestore.StatusFailed)
}

// Skipped returns the ids of every Skipped node ordered by termination.
func (r *ExecutionResult) Skipped() []string {
	return r.withStatus(nodestore.StatusSkipped)
}

func (r *ExecutionResult) withStatus(status nodestore.Status) []string {
	var recs []nodestore.ExecutionRecord
	for _, rec := range r.ExecutedNodes {
		if rec.Status == status {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Order < recs[j].Order })
	ids := make([]string, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, rec.NodeID)
	}
	return ids
}
