package flow

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/fluxflow/internal/stage"
	"github.com/zclconf/go-cty/cty"
)

// journal records what stages observed, in order, across a whole run.
type journal struct {
	events []string
}

func (j *journal) add(format string, args ...any) {
	j.events = append(j.events, fmt.Sprintf(format, args...))
}

type source struct {
	name   string
	values []cty.Value
	out    cty.Type
	j      *journal
}

func (s *source) Ports() stage.Ports {
	return stage.Ports{Outputs: []stage.Port{{Name: "out", Type: s.out, Multi: true}}}
}

func (s *source) Generate(ctx context.Context, out stage.Emitter) error {
	s.j.add("%s:generate", s.name)
	for _, v := range s.values {
		if err := out.Emit(ctx, "", v); err != nil {
			return err
		}
	}
	return nil
}

type sink struct {
	name  string
	in    cty.Type
	multi bool
	fail  error
	j     *journal
}

func (s *sink) Ports() stage.Ports {
	return stage.Ports{
		Inputs:  []stage.Port{{Name: "in", Type: s.in, Multi: s.multi}},
		Outputs: []stage.Port{{Name: "out", Type: s.in}},
	}
}

func (s *sink) Process(ctx context.Context, _ string, v cty.Value, out stage.Emitter) error {
	if s.fail != nil {
		return s.fail
	}
	s.j.add("%s:%s", s.name, v.GoString())
	return out.Emit(ctx, "", v)
}

func (s *sink) Finish(context.Context, stage.Emitter) error {
	s.j.add("%s:finish", s.name)
	return nil
}

// located remembers the range the graph assigned to it.
type located struct {
	sink
	rng hcl.Range
}

func (l *located) SetSourceLocation(rng hcl.Range) { l.rng = rng }

// drain reads every stream it receives to the end.
type drain struct {
	name string
	j    *journal
}

func (d *drain) Ports() stage.Ports { return stage.Ports{Inputs: stage.In("in", stage.Reader)} }

func (d *drain) Process(_ context.Context, _ string, v cty.Value, _ stage.Emitter) error {
	r, err := stage.AsReader(v)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	d.j.add("%s:%q", d.name, data)
	return nil
}

// holder is a sink that owns a resource until it is closed.
type holder struct {
	sink
	closeErr error
	closed   int
}

func (h *holder) Close() error {
	h.closed++
	h.j.add("%s:close", h.name)
	return h.closeErr
}

type inert struct{}

func (inert) Ports() stage.Ports { return stage.Ports{Inputs: stage.In("in", cty.String)} }

var errBoom = errors.New("boom")

func line(n int) hcl.Range {
	return hcl.Range{Filename: "t.flux", Start: hcl.Pos{Line: n, Column: 1}}
}

func strVals(vals ...string) []cty.Value {
	out := make([]cty.Value, len(vals))
	for i, v := range vals {
		out[i] = cty.StringVal(v)
	}
	return out
}
