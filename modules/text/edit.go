package text

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/vk/fluxflow/internal/stage"
	"github.com/zclconf/go-cty/cty"
)

type match struct {
	re          *regexp.Regexp
	replacement *string
	invert      bool
}

func newMatch(args stage.Args) (stage.Stage, error) {
	if err := args.Allow(2, "pattern", "replacement", "invert"); err != nil {
		return nil, err
	}
	pattern, err := args.Required("pattern", 0)
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("argument %q: %w", "pattern", err)
	}
	invert, err := args.Bool("invert", -1, false)
	if err != nil {
		return nil, err
	}
	m := &match{re: re, invert: invert}
	if repl, ok := args.Lookup("replacement", 1); ok {
		if invert {
			return nil, fmt.Errorf("%q and %q cannot be combined", "replacement", "invert")
		}
		m.replacement = &repl
	}
	return m, nil
}

func (m *match) Ports() stage.Ports {
	return stage.Ports{
		Inputs:  stage.In("in", cty.String),
		Outputs: stage.Out("out", cty.String),
	}
}

func (m *match) Process(ctx context.Context, _ string, v cty.Value, out stage.Emitter) error {
	s, err := stage.AsString(v)
	if err != nil {
		return err
	}
	if m.re.MatchString(s) == m.invert {
		return nil
	}
	if m.replacement != nil {
		s = m.re.ReplaceAllString(s, *m.replacement)
	}
	return out.Emit(ctx, "", cty.StringVal(s))
}

type trim struct {
	cutset string
}

func newTrim(args stage.Args) (stage.Stage, error) {
	if err := args.Allow(1, "cutset"); err != nil {
		return nil, err
	}
	return &trim{cutset: args.String("cutset", 0, "")}, nil
}

func (t *trim) Ports() stage.Ports {
	return stage.Ports{
		Inputs:  stage.In("in", cty.String),
		Outputs: stage.Out("out", cty.String),
	}
}

func (t *trim) Process(ctx context.Context, _ string, v cty.Value, out stage.Emitter) error {
	s, err := stage.AsString(v)
	if err != nil {
		return err
	}
	if t.cutset == "" {
		s = strings.TrimSpace(s)
	} else {
		s = strings.Trim(s, t.cutset)
	}
	return out.Emit(ctx, "", cty.StringVal(s))
}
