package registry

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/vk/fluxflow/internal/stage"
	"github.com/vk/fluxflow/internal/vars"
)

// Descriptor is a resolved command: the component plus the arguments it was
// called with.
type Descriptor struct {
	Component *Component
	Args      stage.Args
	Range     hcl.Range
}

// Name returns the component name.
func (d *Descriptor) Name() string {
	return d.Component.Name
}

// IsComposite reports whether the component expands into a pipeline.
func (d *Descriptor) IsComposite() bool {
	return d.Component.Composite != nil
}

// Instantiate builds the stage of a built-in component.
func (d *Descriptor) Instantiate() (stage.Stage, error) {
	if d.IsComposite() {
		return nil, d.argError(errCompositeInstantiate)
	}
	s, err := d.Component.New(d.Args)
	if err != nil {
		return nil, d.argError(err)
	}
	return s, nil
}

// Bindings maps the arguments of a composite call onto its declared inputs.
// Positional arguments fill inputs in declaration order; named ones match by
// name. Inputs without a value fall back to their default.
func (d *Descriptor) Bindings() (vars.Bindings, error) {
	comp := d.Component.Composite
	if comp == nil {
		return nil, d.argError(errNotComposite)
	}
	if len(d.Args.Positional) > len(comp.Inputs) {
		return nil, d.argError(errTooManyArgs(len(comp.Inputs), len(d.Args.Positional)))
	}

	names := make([]string, len(comp.Inputs))
	for i, in := range comp.Inputs {
		names[i] = in.Name
	}
	if err := d.Args.Allow(len(comp.Inputs), names...); err != nil {
		return nil, d.argError(err)
	}

	out := vars.Bindings{vars.ModuleDir: vars.DirValue(comp.Dir)}
	for i, in := range comp.Inputs {
		if v, ok := d.Args.Lookup(in.Name, i); ok {
			out[in.Name] = v
			continue
		}
		if in.Default != nil {
			out[in.Name] = *in.Default
			continue
		}
		return nil, d.argError(errMissingInput(in.Name))
	}
	return out, nil
}

func (d *Descriptor) argError(err error) error {
	return &ArgumentError{Component: d.Component.Name, Range: d.Range, Err: err}
}
