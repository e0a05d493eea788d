package manifest

import "github.com/hashicorp/hcl/v2"

// fileRoot decodes every top-level block of a manifest file.
type fileRoot struct {
	Components []*componentBlock `hcl:"component,block"`
	Remain     hcl.Body          `hcl:",remain"`
}

// componentBlock is a `component "name" { ... }` block.
type componentBlock struct {
	Name        string         `hcl:"name,label"`
	Description string         `hcl:"description,optional"`
	Inputs      []*inputBlock  `hcl:"input,block"`
	Pipeline    hcl.Expression `hcl:"pipeline"`
}

// inputBlock is an `input "name" { ... }` block inside a component.
type inputBlock struct {
	Name        string         `hcl:"name,label"`
	Description string         `hcl:"description,optional"`
	Default     hcl.Expression `hcl:"default,optional"`
}
