package flow

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/vk/fluxflow/internal/ctxlog"
	"github.com/vk/fluxflow/internal/stage"
	"github.com/zclconf/go-cty/cty"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Start drives the flow to completion. Roots run one at a time in discovery
// order; Start returns once every reachable stage has finished, or with the
// first stage failure as a *StageError. Every stage implementing
// stage.Closer is closed before Start returns. A flow can only be started
// once.
func (f *Flow) Start(ctx context.Context) (err error) {
	if !f.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	runID := uuid.NewString()
	ctx, span := tracer.Start(ctx, "flux.flow.start",
		trace.WithAttributes(
			attribute.String("flux.run_id", runID),
			attribute.Int("flux.stage_count", len(f.nodes)),
			attribute.Int("flux.root_count", len(f.roots)),
		),
	)
	defer span.End()

	ctx = ctxlog.With(ctx, "run_id", runID)
	logger := ctxlog.FromContext(ctx)
	logger.Info("Flow started.", "stages", len(f.nodes), "links", len(f.links), "roots", len(f.roots))
	started := time.Now()
	defer func() {
		if cerr := f.release(ctx); err == nil {
			err = cerr
		}
	}()

	r := &run{pending: make(map[*Node]int, len(f.nodes))}
	for _, n := range f.nodes {
		r.pending[n] = len(n.in)
	}

	for _, root := range f.roots {
		if err := r.drive(ctx, root); err != nil {
			var se *StageError
			if errors.As(err, &se) {
				stageFailures.WithLabelValues(se.Type).Inc()
			}
			flowRuns.WithLabelValues("failure").Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.Error("Flow failed.", "error", err, "duration", time.Since(started))
			return err
		}
	}

	flowRuns.WithLabelValues("success").Inc()
	span.SetStatus(codes.Ok, "")
	logger.Info("Flow finished.", "duration", time.Since(started))
	return nil
}

// release closes every stage holding resources. Close errors are logged and
// the first one is returned.
func (f *Flow) release(ctx context.Context) error {
	var first error
	for _, n := range f.nodes {
		c, ok := n.Stage.(stage.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			ctxlog.FromContext(ctx).Warn("Failed to release stage.", "stage", n.Key, "error", err)
			if first == nil {
				first = &StageError{Key: n.Key, Type: n.Type, Range: n.Range, Err: err}
			}
		}
	}
	return first
}

type run struct {
	// pending counts the links into each node whose source has not
	// finished yet.
	pending map[*Node]int
}

func (r *run) drive(ctx context.Context, n *Node) error {
	logger := ctxlog.FromContext(ctx)
	if g, ok := n.Stage.(stage.Generator); ok {
		logger.Debug("Driving root stage.", "stage", n.Key)
		trace.SpanFromContext(ctx).AddEvent("stage.generate", trace.WithAttributes(attribute.String("flux.stage", n.Key)))
		if err := g.Generate(ctx, r.emitter(n)); err != nil {
			return r.fail(n, err)
		}
	} else {
		logger.Debug("Root stage produces nothing on its own.", "stage", n.Key)
	}
	return r.finish(ctx, n)
}

func (r *run) finish(ctx context.Context, n *Node) error {
	if f, ok := n.Stage.(stage.Finisher); ok {
		if err := f.Finish(ctx, r.emitter(n)); err != nil {
			return r.fail(n, err)
		}
	}
	ctxlog.FromContext(ctx).Debug("Stage finished.", "stage", n.Key)
	trace.SpanFromContext(ctx).AddEvent("stage.finish", trace.WithAttributes(attribute.String("flux.stage", n.Key)))

	for _, l := range n.out {
		r.pending[l.To]--
		if r.pending[l.To] == 0 {
			if err := r.finish(ctx, l.To); err != nil {
				return err
			}
		}
	}
	return nil
}

// fail attributes err to n unless a downstream stage already claimed it.
func (r *run) fail(n *Node, err error) error {
	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return &StageError{Key: n.Key, Type: n.Type, Range: n.Range, Err: err}
}

func (r *run) emitter(n *Node) stage.Emitter {
	return &emitter{run: r, node: n}
}

type emitter struct {
	run  *run
	node *Node
}

func (e *emitter) Emit(ctx context.Context, port string, v cty.Value) error {
	out, ok := e.node.ports.Output(port)
	if !ok {
		return fmt.Errorf("no output port %q", port)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	stageValues.WithLabelValues(e.node.Type).Inc()

	var links []*Link
	for _, l := range e.node.out {
		if l.FromPort == out.Name {
			links = append(links, l)
		}
	}
	vals, err := fanOut(v, len(links))
	if err != nil {
		return e.run.fail(e.node, err)
	}

	for i, l := range links {
		converted, err := l.conv(vals[i])
		if err != nil {
			return e.run.fail(l.To, fmt.Errorf("value from %s does not fit input %q: %w", e.node, l.ToPort, err))
		}
		proc := l.To.Stage.(stage.Processor)
		if err := proc.Process(ctx, l.ToPort, converted, e.run.emitter(l.To)); err != nil {
			return e.run.fail(l.To, err)
		}
	}
	return nil
}

// fanOut returns one value per receiving link. A stream can only be read
// once, so a reader going to several links is buffered and every link gets
// its own copy.
func fanOut(v cty.Value, n int) ([]cty.Value, error) {
	vals := make([]cty.Value, n)
	if n < 2 || !v.IsKnown() || v.IsNull() || !v.Type().Equals(stage.Reader) {
		for i := range vals {
			vals[i] = v
		}
		return vals, nil
	}

	r, err := stage.AsReader(v)
	if err != nil {
		return nil, err
	}
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to buffer stream for %d links: %w", n, err)
	}
	for i := range vals {
		vals[i] = stage.ReaderVal(bytes.NewReader(buf))
	}
	return vals, nil
}
