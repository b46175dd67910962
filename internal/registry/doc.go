// Package registry maps a node's declared type to the handler that executes
// it.
//
// Handler modules populate the Registry at startup through the Module
// interface. The registry is then validated once, so that broken
// registrations (nil handlers, unresolvable config schemas, defaults that
// cannot be represented as values) are caught before any graph runs. During a
// run the scheduler calls Resolve once per node at dispatch time.
package registry
