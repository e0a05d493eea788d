// Package testutil holds helpers shared by stage and application tests.
package testutil

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/fluxflow/internal/stage"
	"github.com/zclconf/go-cty/cty"
)

// SafeBuffer is a thread-safe buffer for capturing output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// Emitted is one value a stage handed to its emitter.
type Emitted struct {
	Port  string
	Value cty.Value
}

// Collector is a stage.Emitter that records everything it is given.
type Collector struct {
	Values []Emitted
}

// Emit implements stage.Emitter.
func (c *Collector) Emit(ctx context.Context, port string, v cty.Value) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.Values = append(c.Values, Emitted{Port: port, Value: v})
	return nil
}

// Strings returns the collected values as Go strings.
func (c *Collector) Strings(t *testing.T) []string {
	t.Helper()
	out := make([]string, 0, len(c.Values))
	for _, e := range c.Values {
		s, err := stage.AsString(e.Value)
		require.NoError(t, err)
		out = append(out, s)
	}
	return out
}

// Records returns the collected values as Go maps.
func (c *Collector) Records(t *testing.T) []map[string]string {
	t.Helper()
	out := make([]map[string]string, 0, len(c.Values))
	for _, e := range c.Values {
		m, err := stage.AsRecord(e.Value)
		require.NoError(t, err)
		out = append(out, m)
	}
	return out
}

// Feed pushes values into the default input of a processing stage, then
// finishes it. It returns what the stage emitted and the first error.
// Stages holding resources are closed afterwards, as the runtime does.
func Feed(ctx context.Context, s stage.Stage, values ...cty.Value) (c *Collector, err error) {
	c = &Collector{}
	defer closeStage(s, &err)
	if len(values) > 0 {
		proc := s.(stage.Processor)
		port, _ := s.Ports().Input("")
		for _, v := range values {
			if err := proc.Process(ctx, port.Name, v, c); err != nil {
				return c, err
			}
		}
	}
	if f, ok := s.(stage.Finisher); ok {
		if err := f.Finish(ctx, c); err != nil {
			return c, err
		}
	}
	return c, nil
}

// Generate drives a generator stage once and finishes it.
func Generate(ctx context.Context, s stage.Stage) (c *Collector, err error) {
	c = &Collector{}
	defer closeStage(s, &err)
	if err := s.(stage.Generator).Generate(ctx, c); err != nil {
		return c, err
	}
	if f, ok := s.(stage.Finisher); ok {
		if err := f.Finish(ctx, c); err != nil {
			return c, err
		}
	}
	return c, nil
}

func closeStage(s stage.Stage, err *error) {
	if cl, ok := s.(stage.Closer); ok {
		if cerr := cl.Close(); *err == nil {
			*err = cerr
		}
	}
}

// Strings wraps Go strings as String values.
func Strings(values ...string) []cty.Value {
	out := make([]cty.Value, len(values))
	for i, v := range values {
		out[i] = cty.StringVal(v)
	}
	return out
}

// Records wraps Go maps as Record values.
func Records(values ...map[string]string) []cty.Value {
	out := make([]cty.Value, len(values))
	for i, v := range values {
		out[i] = stage.RecordVal(v)
	}
	return out
}

// Named builds stage arguments from options only.
func Named(kv ...string) stage.Args {
	args := stage.Args{Named: map[string]string{}}
	for i := 0; i+1 < len(kv); i += 2 {
		args.Named[kv[i]] = kv[i+1]
	}
	return args
}

// Positional builds stage arguments from positional values only.
func Positional(values ...string) stage.Args {
	return stage.Args{Positional: values}
}
