// Package print writes values to the run's standard output.
package print

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/vk/fluxflow/internal/ctxlog"
	"github.com/vk/fluxflow/internal/registry"
	"github.com/vk/fluxflow/internal/stage"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the module's components with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStage("print", "Prints every value, each line starting with an optional prefix.", newPrint)
}

type printer struct {
	prefix string
}

func newPrint(args stage.Args) (stage.Stage, error) {
	if err := args.Allow(1, "prefix"); err != nil {
		return nil, err
	}
	return &printer{prefix: args.String("prefix", 0, "")}, nil
}

func (p *printer) Ports() stage.Ports {
	return stage.Ports{Inputs: stage.In("in", stage.Any)}
}

func (p *printer) Process(ctx context.Context, _ string, v cty.Value, _ stage.Emitter) error {
	ctxlog.FromContext(ctx).Debug("Printing value", "type", stage.TypeName(v.Type()))
	w := stage.Stdout(ctx)

	if v.IsNull() {
		_, err := fmt.Fprintf(w, "%s(null)\n", p.prefix)
		return err
	}

	switch ty := v.Type(); {
	case ty.Equals(stage.Reader):
		r, err := stage.AsReader(v)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, p.prefix); err != nil {
			return err
		}
		_, err = io.Copy(w, r)
		return err
	case ty.IsMapType() || ty.IsObjectType():
		return p.printRecord(w, v)
	default:
		s, err := convert.Convert(v, cty.String)
		if err != nil {
			_, err = fmt.Fprintf(w, "%s%s\n", p.prefix, v.GoString())
			return err
		}
		_, err = fmt.Fprintf(w, "%s%s\n", p.prefix, s.AsString())
		return err
	}
}

func (p *printer) printRecord(w io.Writer, v cty.Value) error {
	rec, err := stage.AsRecord(v)
	if err != nil {
		return err
	}
	if len(rec) == 0 {
		_, err := fmt.Fprintf(w, "%s(empty)\n", p.prefix)
		return err
	}

	// Sort keys for consistent output
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, err := fmt.Fprintf(w, "%s%s = %q\n", p.prefix, k, rec[k]); err != nil {
			return err
		}
	}
	return nil
}
