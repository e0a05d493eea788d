// Package stage defines the contract between the flow runtime and the
// processing units it wires together.
//
// A stage declares typed ports and implements one or more of the optional
// capabilities below. A stage with no inputs must be a Generator to produce
// anything; a stage with inputs receives values through Process.
package stage

import (
	"context"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Stage is an instantiated processing unit.
type Stage interface {
	Ports() Ports
}

// Emitter delivers values to everything linked to one of the stage's output
// ports. An empty port name selects the default output.
type Emitter interface {
	Emit(ctx context.Context, port string, v cty.Value) error
}

// Generator is implemented by stages that produce values on their own.
// Generate is called once, when the stage is driven as a root.
type Generator interface {
	Generate(ctx context.Context, out Emitter) error
}

// Processor receives values arriving on an input port.
type Processor interface {
	Process(ctx context.Context, port string, v cty.Value, out Emitter) error
}

// Finisher is called once every upstream stage has finished, before the
// finish signal moves downstream. Stages release resources and flush
// buffered output here.
type Finisher interface {
	Finish(ctx context.Context, out Emitter) error
}

// Closer is implemented by stages that hold resources past Finish or that
// must give them back when a run is aborted. The runtime calls Close on
// every stage once the run ends, whether or not it succeeded.
type Closer interface {
	Close() error
}

// Locatable stages are told where in the script they were declared.
type Locatable interface {
	SetSourceLocation(rng hcl.Range)
}

// Factory builds a stage from its script arguments.
type Factory func(args Args) (Stage, error)
