package records

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/fluxflow/internal/stage"
	"github.com/zclconf/go-cty/cty"
)

type decodeKV struct {
	separator string
	delimiter string
}

func newDecodeKV(args stage.Args) (stage.Stage, error) {
	if err := args.Allow(1, "separator", "delimiter"); err != nil {
		return nil, err
	}
	d := &decodeKV{
		separator: args.String("separator", 0, "="),
		delimiter: args.String("delimiter", -1, ""),
	}
	if d.separator == "" {
		return nil, fmt.Errorf("argument %q must not be empty", "separator")
	}
	return d, nil
}

func (d *decodeKV) Ports() stage.Ports {
	return stage.Ports{
		Inputs:  stage.In("in", cty.String),
		Outputs: stage.Out("out", stage.Record),
	}
}

// Process splits the line into fields on the delimiter, or on whitespace when
// none is set, and each field into key and value at the first separator.
func (d *decodeKV) Process(ctx context.Context, _ string, v cty.Value, out stage.Emitter) error {
	s, err := stage.AsString(v)
	if err != nil {
		return err
	}
	var fields []string
	if d.delimiter == "" {
		fields = strings.Fields(s)
	} else {
		fields = strings.Split(s, d.delimiter)
	}

	rec := make(map[string]string, len(fields))
	for _, field := range fields {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		key, val, ok := strings.Cut(field, d.separator)
		if !ok || key == "" {
			return fmt.Errorf("field %q is not of the form key%svalue", field, d.separator)
		}
		rec[key] = val
	}
	return out.Emit(ctx, "", stage.RecordVal(rec))
}
