package flow

import (
	"slices"
	"sync/atomic"
)

// Flow is a validated, acyclic stage graph. It cannot be modified.
type Flow struct {
	nodes []*Node
	links []*Link
	roots []*Node

	started atomic.Bool
}

// Stages returns every stage in discovery order.
func (f *Flow) Stages() []*Node { return slices.Clone(f.nodes) }

// Links returns every link in creation order.
func (f *Flow) Links() []*Link { return slices.Clone(f.links) }

// Roots returns the stages without incoming links, in discovery order. They
// are driven in this order by Start.
func (f *Flow) Roots() []*Node { return slices.Clone(f.roots) }

// Stage returns the stage with the given key.
func (f *Flow) Stage(key string) (*Node, bool) {
	for _, n := range f.nodes {
		if n.Key == key {
			return n, true
		}
	}
	return nil, false
}
