package records

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/vk/fluxflow/internal/stage"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

type decodeJSON struct{}

func newDecodeJSON(args stage.Args) (stage.Stage, error) {
	if err := args.Allow(0); err != nil {
		return nil, err
	}
	return &decodeJSON{}, nil
}

func (d *decodeJSON) Ports() stage.Ports {
	return stage.Ports{
		Inputs:  stage.In("in", cty.String),
		Outputs: stage.Out("out", stage.Record),
	}
}

func (d *decodeJSON) Process(ctx context.Context, _ string, v cty.Value, out stage.Emitter) error {
	s, err := stage.AsString(v)
	if err != nil {
		return err
	}
	rec, err := decodeJSONObject([]byte(s))
	if err != nil {
		return err
	}
	return out.Emit(ctx, "", stage.RecordVal(rec))
}

// decodeJSONObject accepts a JSON object of scalar members. Numbers and
// booleans become their string forms; nulls are dropped.
func decodeJSONObject(src []byte) (map[string]string, error) {
	ty, err := ctyjson.ImpliedType(src)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if !ty.IsObjectType() {
		return nil, fmt.Errorf("expected a JSON object, found %s", ty.FriendlyName())
	}
	val, err := ctyjson.Unmarshal(src, ty)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	rec := make(map[string]string, len(ty.AttributeTypes()))
	for name, attr := range val.AsValueMap() {
		if attr.IsNull() {
			continue
		}
		if !attr.Type().IsPrimitiveType() {
			return nil, fmt.Errorf("field %q must be a string, number or boolean, found %s", name, attr.Type().FriendlyName())
		}
		str, err := convert.Convert(attr, cty.String)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		rec[name] = str.AsString()
	}
	return rec, nil
}

type encodeJSON struct {
	pretty bool
}

func newEncodeJSON(args stage.Args) (stage.Stage, error) {
	if err := args.Allow(1, "pretty"); err != nil {
		return nil, err
	}
	pretty, err := args.Bool("pretty", 0, false)
	if err != nil {
		return nil, err
	}
	return &encodeJSON{pretty: pretty}, nil
}

func (e *encodeJSON) Ports() stage.Ports {
	return stage.Ports{
		Inputs:  stage.In("in", stage.Record),
		Outputs: stage.Out("out", cty.String),
	}
}

func (e *encodeJSON) Process(ctx context.Context, _ string, v cty.Value, out stage.Emitter) error {
	b, err := ctyjson.Marshal(v, stage.Record)
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	if e.pretty {
		var buf bytes.Buffer
		if err := json.Indent(&buf, b, "", "  "); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		b = buf.Bytes()
	}
	return out.Emit(ctx, "", cty.StringVal(string(b)))
}
