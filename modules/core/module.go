// Package core provides the structural components every script can use.
package core

import (
	"context"

	"github.com/vk/fluxflow/internal/registry"
	"github.com/vk/fluxflow/internal/stage"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the module's components with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStage("merge", "Joins several pipelines into one stream.", newMerge)
}

// merge forwards values from any number of upstream stages. It finishes once
// all of them have.
type merge struct{}

func newMerge(args stage.Args) (stage.Stage, error) {
	if err := args.Allow(0); err != nil {
		return nil, err
	}
	return &merge{}, nil
}

func (m *merge) Ports() stage.Ports {
	return stage.Ports{
		Inputs:  []stage.Port{{Name: "in", Type: stage.Any, Multi: true}},
		Outputs: stage.Out("out", stage.Any),
	}
}

func (m *merge) Process(ctx context.Context, _ string, v cty.Value, out stage.Emitter) error {
	return out.Emit(ctx, "", v)
}
