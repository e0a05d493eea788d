package files

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/vk/fluxflow/internal/ctxlog"
	"github.com/vk/fluxflow/internal/stage"
	"github.com/zclconf/go-cty/cty"
)

// Stdout is the write target naming the run's standard output.
const Stdout = "-"

type write struct {
	path   string
	append bool

	w      *bufio.Writer
	closer io.Closer
}

func newWrite(args stage.Args) (stage.Stage, error) {
	if err := args.Allow(1, "path", "append"); err != nil {
		return nil, err
	}
	appendMode, err := args.Bool("append", -1, false)
	if err != nil {
		return nil, err
	}
	return &write{path: args.String("path", 0, Stdout), append: appendMode}, nil
}

func (s *write) Ports() stage.Ports {
	return stage.Ports{Inputs: stage.In("in", cty.String)}
}

func (s *write) Process(ctx context.Context, _ string, v cty.Value, _ stage.Emitter) error {
	text, err := stage.AsString(v)
	if err != nil {
		return err
	}
	if err := s.open(ctx); err != nil {
		return err
	}
	if _, err := s.w.WriteString(text); err != nil {
		return fmt.Errorf("failed to write to %s: %w", s.path, err)
	}
	return s.w.WriteByte('\n')
}

// Finish flushes buffered output. A file that never received a value is
// still created, so the output always reflects the run.
func (s *write) Finish(ctx context.Context, _ stage.Emitter) error {
	if err := s.open(ctx); err != nil {
		return err
	}
	return s.release()
}

// Close keeps what was written so far when the run fails before Finish.
func (s *write) Close() error {
	if s.w == nil {
		return nil
	}
	return s.release()
}

func (s *write) release() error {
	err := s.w.Flush()
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	s.w, s.closer = nil, nil
	if err != nil {
		return fmt.Errorf("failed to write to %s: %w", s.path, err)
	}
	return nil
}

func (s *write) open(ctx context.Context) error {
	if s.w != nil {
		return nil
	}
	if s.path == Stdout {
		s.w = bufio.NewWriter(stage.Stdout(ctx))
		return nil
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if s.append {
		flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}
	ctxlog.FromContext(ctx).Debug("Opening output file.", "path", s.path, "append", s.append)
	f, err := os.OpenFile(s.path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}
	s.w = bufio.NewWriter(f)
	s.closer = f
	return nil
}
