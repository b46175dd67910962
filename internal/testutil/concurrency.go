package testutil

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vk/flowgrid/internal/registry"
)

// MockSleeperModule is a shared, self-contained module for concurrency tests.
// Its "sleeper" node type sleeps for the configured duration (or for the
// node's "sleep" config, a Go duration string), records start and end times,
// and passes its "in" input through to "result". A node whose config sets
// "fail" to true returns an error instead.
type MockSleeperModule struct {
	ExecutionTimes map[string]*ExecutionRecord
	mu             sync.Mutex
	sleepDuration  time.Duration
	completionChan chan<- string
	startOrder     []string
	calls          map[string]int
	active         int
	maxActive      int
}

// NewMockSleeperModule creates a new sleeper module for testing.
func NewMockSleeperModule(completionChan chan<- string, sleep time.Duration) *MockSleeperModule {
	return &MockSleeperModule{
		ExecutionTimes: make(map[string]*ExecutionRecord),
		sleepDuration:  sleep,
		completionChan: completionChan,
		calls:          make(map[string]int),
	}
}

// Register registers the "sleeper" node type.
func (m *MockSleeperModule) Register(r *registry.Registry) {
	r.RegisterFunc("sleeper", m.run)
}

func (m *MockSleeperModule) run(ctx context.Context, inputs, config map[string]any) (map[string]any, error) {
	id := registry.NodeID(ctx)
	sleep := m.sleepDuration
	if raw, ok := config["sleep"].(string); ok {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid sleep: %w", err)
		}
		sleep = d
	}

	startTime := time.Now()
	m.mu.Lock()
	m.startOrder = append(m.startOrder, id)
	m.calls[id]++
	m.active++
	if m.active > m.maxActive {
		m.maxActive = m.active
	}
	m.mu.Unlock()

	var err error
	select {
	case <-time.After(sleep):
	case <-ctx.Done():
		err = ctx.Err()
	}

	endTime := time.Now()
	m.mu.Lock()
	m.active--
	m.ExecutionTimes[id] = &ExecutionRecord{Start: startTime, End: endTime}
	m.mu.Unlock()

	if m.completionChan != nil {
		m.completionChan <- id
	}
	if err != nil {
		return nil, err
	}
	if fail, _ := config["fail"].(bool); fail {
		return nil, errors.New("sleeper configured to fail")
	}
	return map[string]any{"result": inputs["in"]}, nil
}

// Record returns the execution record of a node, if it ran.
func (m *MockSleeperModule) Record(id string) (ExecutionRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.ExecutionTimes[id]
	if !ok {
		return ExecutionRecord{}, false
	}
	return *rec, true
}

// StartOrder returns node ids in the order their handlers started.
func (m *MockSleeperModule) StartOrder() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.startOrder...)
}

// Calls returns how many times the handler ran for a node.
func (m *MockSleeperModule) Calls(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[id]
}

// Invoked returns the sorted ids of every node whose handler ran.
func (m *MockSleeperModule) Invoked() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.calls))
	for id := range m.calls {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// MaxConcurrent returns the highest number of handlers observed running at
// the same time.
func (m *MockSleeperModule) MaxConcurrent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxActive
}
