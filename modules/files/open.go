package files

import (
	"context"
	"fmt"
	"os"

	"github.com/vk/fluxflow/internal/ctxlog"
	"github.com/vk/fluxflow/internal/stage"
	"github.com/zclconf/go-cty/cty"
)

type openFile struct{}

func newOpenFile(args stage.Args) (stage.Stage, error) {
	if err := args.Allow(0); err != nil {
		return nil, err
	}
	return &openFile{}, nil
}

func (o *openFile) Ports() stage.Ports {
	return stage.Ports{
		Inputs:  stage.In("path", cty.String),
		Outputs: stage.Out("out", stage.Reader),
	}
}

// Process opens the file and keeps it open only while downstream stages
// consume the reader.
func (o *openFile) Process(ctx context.Context, _ string, v cty.Value, out stage.Emitter) error {
	path, err := stage.AsString(v)
	if err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Opening file.", "path", path)

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return out.Emit(ctx, "", stage.ReaderVal(f))
}
