package nodestore

import (
	"fmt"
	"time"
)

// Status is the execution state of a single node.
type Status string

const (
	StatusPending   Status = "pending"
	StatusReady     Status = "ready"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
	StatusCancelled Status = "cancelled"
)

// IsTerminal reports whether the status is final.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusSkipped, StatusCancelled:
		return true
	default:
		return false
	}
}

// ErrorKind classifies a node-level error.
type ErrorKind string

const (
	KindHandlerNotFound    ErrorKind = "HandlerNotFound"
	KindHandlerFailed      ErrorKind = "HandlerFailed"
	KindTimeout            ErrorKind = "Timeout"
	KindHandlerPanic       ErrorKind = "HandlerPanic"
	KindInvalidConfig      ErrorKind = "InvalidConfig"
	KindInputTypeMismatch  ErrorKind = "InputTypeMismatch"
	KindOutputTypeMismatch ErrorKind = "OutputTypeMismatch"
	KindUpstreamFailed     ErrorKind = "UpstreamFailed"
	KindCancelled          ErrorKind = "Cancelled"
)

// NodeError is the error recorded on a node.
type NodeError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// Error implements the error interface.
func (e *NodeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// ExecutionRecord is the state of one node within one run.
type ExecutionRecord struct {
	NodeID     string         `json:"nodeId"`
	Type       string         `json:"type"`
	Status     Status         `json:"status"`
	StartedAt  *time.Time     `json:"startedAt,omitempty"`
	FinishedAt *time.Time     `json:"finishedAt,omitempty"`
	DurationMs int64          `json:"durationMs,omitempty"`
	Outputs    map[string]any `json:"outputs,omitempty"`
	Error      *NodeError     `json:"error,omitempty"`
	// Order is the 1-based position at which the node reached a terminal
	// state. It is zero while the node is still active.
	Order int `json:"order,omitempty"`
}

// Clone returns a deep copy of r.
func (r ExecutionRecord) Clone() ExecutionRecord {
	c := r
	if r.StartedAt != nil {
		t := *r.StartedAt
		c.StartedAt = &t
	}
	if r.FinishedAt != nil {
		t := *r.FinishedAt
		c.FinishedAt = &t
	}
	c.Outputs = CloneMap(r.Outputs)
	if r.Error != nil {
		e := *r.Error
		c.Error = &e
	}
	return c
}

// CloneMap deep-copies nested maps and slices of m. Other values are shared.
func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return CloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(val))
		for k, s := range val {
			out[k] = s
		}
		return out
	case []string:
		return append([]string(nil), val...)
	case []byte:
		return append([]byte(nil), val...)
	default:
		return v
	}
}
