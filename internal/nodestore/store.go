package nodestore

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vk/flowgrid/internal/graph"
)

var (
	// ErrUnknownNode is returned for a node id the store was not created with.
	ErrUnknownNode = errors.New("unknown node")
	// ErrInvalidTransition is returned for a transition the lifecycle forbids.
	ErrInvalidTransition = errors.New("invalid transition")
)

// Store holds the execution records of one run. Writes are expected from a
// single goroutine; reads may happen concurrently from any goroutine.
type Store struct {
	mu       sync.RWMutex
	records  map[string]*ExecutionRecord
	order    []string
	terminal int
	now      func() time.Time
}

// New creates a store with a Pending record for every node of topo.
func New(topo *graph.Topology) *Store {
	s := &Store{
		records: make(map[string]*ExecutionRecord, topo.Len()),
		order:   topo.Order(),
		now:     time.Now,
	}
	for _, id := range s.order {
		n, _ := topo.Node(id)
		s.records[id] = &ExecutionRecord{NodeID: id, Type: n.Type, Status: StatusPending}
	}
	return s
}

func allowed(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusReady || to == StatusSkipped || to == StatusCancelled
	case StatusReady:
		return to == StatusRunning || to == StatusCancelled
	case StatusRunning:
		return to == StatusSucceeded || to == StatusFailed || to == StatusCancelled
	default:
		return false
	}
}

// Transition moves node id to status to, recording outputs and nodeErr when
// given, and returns a snapshot of the updated record. Entering Running stamps
// the start time; entering a terminal state stamps the finish time and the
// terminal order.
func (s *Store) Transition(id string, to Status, outputs map[string]any, nodeErr *NodeError) (ExecutionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return ExecutionRecord{}, fmt.Errorf("node '%s': %w", id, ErrUnknownNode)
	}
	if !allowed(rec.Status, to) {
		return rec.Clone(), fmt.Errorf("node '%s' %s -> %s: %w", id, rec.Status, to, ErrInvalidTransition)
	}

	now := s.now()
	rec.Status = to
	if to == StatusRunning {
		rec.StartedAt = &now
	}
	if to.IsTerminal() {
		rec.FinishedAt = &now
		if rec.StartedAt != nil {
			rec.DurationMs = now.Sub(*rec.StartedAt).Milliseconds()
		}
		s.terminal++
		rec.Order = s.terminal
	}
	if outputs != nil {
		rec.Outputs = CloneMap(outputs)
	}
	if nodeErr != nil {
		e := *nodeErr
		rec.Error = &e
	}
	return rec.Clone(), nil
}

// Status returns the current status of node id.
func (s *Store) Status(id string) (Status, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return "", false
	}
	return rec.Status, true
}

// Snapshot returns a deep copy of every record keyed by node id.
func (s *Store) Snapshot() map[string]ExecutionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]ExecutionRecord, len(s.records))
	for id, rec := range s.records {
		out[id] = rec.Clone()
	}
	return out
}

// Active returns the ids of nodes that have not reached a terminal state, in
// declaration order.
func (s *Store) Active() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for _, id := range s.order {
		if !s.records[id].Status.IsTerminal() {
			ids = append(ids, id)
		}
	}
	return ids
}
