package scheduler

import "github.com/vk/flowgrid/internal/nodestore"

// Listener observes node state transitions. It receives a snapshot of the
// record after every transition and is called from the coordinating
// goroutine, so it must return quickly.
type Listener interface {
	OnTransition(rec nodestore.ExecutionRecord)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(rec nodestore.ExecutionRecord)

// OnTransition calls f.
func (f ListenerFunc) OnTransition(rec nodestore.ExecutionRecord) {
	f(rec)
}

// Listeners fans a transition out to several listeners in order.
type Listeners []Listener

// OnTransition calls every listener.
func (ls Listeners) OnTransition(rec nodestore.ExecutionRecord) {
	for _, l := range ls {
		if l != nil {
			l.OnTransition(rec)
		}
	}
}
