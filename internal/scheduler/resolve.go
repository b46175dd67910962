package scheduler

import (
	"fmt"

	"github.com/vk/flowgrid/internal/graph"
	"github.com/vk/flowgrid/internal/nodestore"
)

// resolveLive delivers the value of e's source handle to its target and
// decrements the target's counter.
func (s *Scheduler) resolveLive(e graph.Edge, outputs map[string]any) {
	if v, ok := outputs[e.SourceHandle]; ok {
		s.inputs[e.Target][e.TargetHandle] = v
	}
	s.unresolved[e.Target]--
	s.settle(e.Target)
}

// resolveDead marks e as dead. A target whose required input is bound to a
// dead edge is skipped at once.
func (s *Scheduler) resolveDead(e graph.Edge, source string) {
	s.unresolved[e.Target]--
	s.dead[e.Target]++

	status, _ := s.store.Status(e.Target)
	if status != nodestore.StatusPending {
		return
	}
	target, _ := s.topo.Node(e.Target)
	if in, _ := target.Input(e.TargetHandle); in.Required {
		s.skip(e.Target, fmt.Sprintf("required input '%s' is bound to '%s.%s', which did not succeed", e.TargetHandle, source, e.SourceHandle))
		return
	}
	s.settle(e.Target)
}

// settle promotes a Pending node whose incoming edges are all resolved. It is
// skipped when none of them delivered a value.
func (s *Scheduler) settle(id string) {
	if s.unresolved[id] > 0 {
		return
	}
	if status, _ := s.store.Status(id); status != nodestore.StatusPending {
		return
	}
	if s.dead[id] == len(s.topo.Incoming(id)) {
		s.skip(id, "every upstream node failed or was skipped")
		return
	}
	s.markReady(id)
}

func (s *Scheduler) skip(id, reason string) {
	if !s.transition(id, nodestore.StatusSkipped, nil, &nodestore.NodeError{Kind: nodestore.KindUpstreamFailed, Message: reason}) {
		return
	}
	for _, e := range s.topo.Outgoing(id) {
		s.resolveDead(e, id)
	}
}
