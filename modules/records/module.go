// Package records decodes text into flat records, edits them and encodes
// them back to text.
package records

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
	r.RegisterStage("decode-json", "Decodes each JSON object into a record.", newDecodeJSON)
	r.RegisterStage("encode-json", "Encodes each record as a JSON object.", newEncodeJSON)
	r.RegisterStage("decode-yaml", "Decodes each YAML mapping document into a record.", newDecodeYAML)
	r.RegisterStage("encode-yaml", "Encodes each record as a YAML mapping.", newEncodeYAML)
	r.RegisterStage("decode-kv", "Decodes 'key=value' fields into a record.", newDecodeKV)
	r.RegisterStage("rename", "Renames a record field.", newRename)
	r.RegisterStage("retain", "Drops every record field not listed.", newRetain)
	r.RegisterStage("add-field", "Sets a field to a fixed value.", newAddField)
	r.RegisterStage("filter", "Keeps records whose field has the given value.", newFilter)
	r.RegisterStage("count", "Emits the number of values received once the input is finished.", newCount)
}

// editor adapts a per-record function into a Record to Record stage. A nil
// map from fn drops the record.
type editor struct {
	fn func(map[string]string) (map[string]string, error)
}

func (e *editor) Ports() stage.Ports {
	return stage.Ports{
		Inputs:  stage.In("in", stage.Record),
		Outputs: stage.Out("out", stage.Record),
	}
}

func (e *editor) Process(ctx context.Context, _ string, v cty.Value, out stage.Emitter) error {
	rec, err := stage.AsRecord(v)
	if err != nil {
		return err
	}
	rec, err = e.fn(rec)
	if err != nil || rec == nil {
		return err
	}
	return out.Emit(ctx, "", stage.RecordVal(rec))
}
