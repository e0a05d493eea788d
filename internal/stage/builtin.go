package stage

import (
	"context"

	"github.com/zclconf/go-cty/cty"
)

// Literal emits one string when driven. It backs script pipelines that start
// with an expression instead of a component.
type Literal struct {
	Value string
}

// NewLiteral returns a Literal stage for value.
func NewLiteral(value string) *Literal {
	return &Literal{Value: value}
}

func (l *Literal) Ports() Ports {
	return Ports{Outputs: Out("out", cty.String)}
}

func (l *Literal) Generate(ctx context.Context, out Emitter) error {
	return out.Emit(ctx, "", cty.StringVal(l.Value))
}

// Tee forwards every value to all of its outgoing links. The port type is
// taken from the upstream stage it is attached to. Streams are buffered by
// the runtime so that every branch reads the whole of them.
type Tee struct {
	Type cty.Type
}

// NewTee returns a Tee stage carrying values of type ty.
func NewTee(ty cty.Type) *Tee {
	return &Tee{Type: ty}
}

func (t *Tee) Ports() Ports {
	return Ports{
		Inputs:  In("in", t.Type),
		Outputs: []Port{{Name: "out", Type: t.Type, Multi: true}},
	}
}

func (t *Tee) Process(ctx context.Context, _ string, v cty.Value, out Emitter) error {
	return out.Emit(ctx, "", v)
}
