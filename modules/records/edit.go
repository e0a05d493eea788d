package records

import (
	"context"
	"fmt"
	"maps"
	"strconv"

	"github.com/vk/fluxflow/internal/stage"
	"github.com/zclconf/go-cty/cty"
)

func newRename(args stage.Args) (stage.Stage, error) {
	if err := args.Allow(2, "from", "to"); err != nil {
		return nil, err
	}
	from, err := args.Required("from", 0)
	if err != nil {
		return nil, err
	}
	to, err := args.Required("to", 1)
	if err != nil {
		return nil, err
	}
	return &editor{fn: func(rec map[string]string) (map[string]string, error) {
		if v, ok := rec[from]; ok {
			delete(rec, from)
			rec[to] = v
		}
		return rec, nil
	}}, nil
}

func newRetain(args stage.Args) (stage.Stage, error) {
	if len(args.Named) > 0 {
		return nil, args.Allow(len(args.Positional))
	}
	if len(args.Positional) == 0 {
		return nil, fmt.Errorf("at least one field name is required")
	}
	keep := make(map[string]bool, len(args.Positional))
	for _, name := range args.Positional {
		keep[name] = true
	}
	return &editor{fn: func(rec map[string]string) (map[string]string, error) {
		maps.DeleteFunc(rec, func(k, _ string) bool { return !keep[k] })
		return rec, nil
	}}, nil
}

func newAddField(args stage.Args) (stage.Stage, error) {
	if err := args.Allow(2, "name", "value"); err != nil {
		return nil, err
	}
	name, err := args.Required("name", 0)
	if err != nil {
		return nil, err
	}
	value, err := args.Required("value", 1)
	if err != nil {
		return nil, err
	}
	return &editor{fn: func(rec map[string]string) (map[string]string, error) {
		rec[name] = value
		return rec, nil
	}}, nil
}

func newFilter(args stage.Args) (stage.Stage, error) {
	if err := args.Allow(2, "field", "value", "invert"); err != nil {
		return nil, err
	}
	field, err := args.Required("field", 0)
	if err != nil {
		return nil, err
	}
	value, hasValue := args.Lookup("value", 1)
	invert, err := args.Bool("invert", -1, false)
	if err != nil {
		return nil, err
	}
	return &editor{fn: func(rec map[string]string) (map[string]string, error) {
		got, ok := rec[field]
		keep := ok && (!hasValue || got == value)
		if keep == invert {
			return nil, nil
		}
		return rec, nil
	}}, nil
}

// count emits how many values it received when its input finishes.
type count struct {
	n int
}

func newCount(args stage.Args) (stage.Stage, error) {
	if err := args.Allow(0); err != nil {
		return nil, err
	}
	return &count{}, nil
}

func (c *count) Ports() stage.Ports {
	return stage.Ports{
		Inputs:  stage.In("in", stage.Any),
		Outputs: stage.Out("out", cty.String),
	}
}

func (c *count) Process(context.Context, string, cty.Value, stage.Emitter) error {
	c.n++
	return nil
}

func (c *count) Finish(ctx context.Context, out stage.Emitter) error {
	return out.Emit(ctx, "", cty.StringVal(strconv.Itoa(c.n)))
}
