package text

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/vk/fluxflow/internal/stage"
	"github.com/zclconf/go-cty/cty"
)

// maxLineSize caps the length of one line read by as-lines.
const maxLineSize = 1 << 20

type asLines struct {
	skipEmpty bool
}

func newAsLines(args stage.Args) (stage.Stage, error) {
	if err := args.Allow(0, "skip-empty"); err != nil {
		return nil, err
	}
	skip, err := args.Bool("skip-empty", -1, false)
	if err != nil {
		return nil, err
	}
	return &asLines{skipEmpty: skip}, nil
}

func (a *asLines) Ports() stage.Ports {
	return stage.Ports{
		Inputs:  stage.In("in", stage.Reader),
		Outputs: stage.Out("out", cty.String),
	}
}

func (a *asLines) Process(ctx context.Context, _ string, v cty.Value, out stage.Emitter) error {
	r, err := stage.AsReader(v)
	if err != nil {
		return err
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		line := sc.Text()
		if a.skipEmpty && line == "" {
			continue
		}
		if err := out.Emit(ctx, "", cty.StringVal(line)); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("failed to read lines: %w", err)
	}
	return nil
}

type asText struct{}

func newAsText(args stage.Args) (stage.Stage, error) {
	if err := args.Allow(0); err != nil {
		return nil, err
	}
	return &asText{}, nil
}

func (a *asText) Ports() stage.Ports {
	return stage.Ports{
		Inputs:  stage.In("in", stage.Reader),
		Outputs: stage.Out("out", cty.String),
	}
}

func (a *asText) Process(ctx context.Context, _ string, v cty.Value, out stage.Emitter) error {
	r, err := stage.AsReader(v)
	if err != nil {
		return err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read text: %w", err)
	}
	return out.Emit(ctx, "", cty.StringVal(string(b)))
}
