package socketio

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/fluxflow/internal/ctxlog"
	"github.com/vk/fluxflow/internal/stage"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zishang520/socket.io-client-go/socket"
)

// DefaultTimeout bounds the wait for the initial connection.
const DefaultTimeout = 15 * time.Second

type emit struct {
	endpoint Endpoint
	event    string

	client *socket.Socket
	sent   int
}

func newEmit(args stage.Args) (stage.Stage, error) {
	if err := args.Allow(2, "url", "event", "namespace", "timeout", "insecure"); err != nil {
		return nil, err
	}
	rawURL, err := args.Required("url", 0)
	if err != nil {
		return nil, err
	}
	timeout, err := args.Duration("timeout", -1, DefaultTimeout)
	if err != nil {
		return nil, err
	}
	insecure, err := args.Bool("insecure", -1, false)
	if err != nil {
		return nil, err
	}
	return &emit{
		endpoint: Endpoint{
			URL:                rawURL,
			Namespace:          args.String("namespace", -1, "/"),
			InsecureSkipVerify: insecure,
			Timeout:            timeout,
		},
		event: args.String("event", 1, "message"),
	}, nil
}

func (e *emit) Ports() stage.Ports {
	return stage.Ports{Inputs: stage.In("in", stage.Any)}
}

// Process connects on the first value, so a run that emits nothing never
// touches the network.
func (e *emit) Process(ctx context.Context, _ string, v cty.Value, _ stage.Emitter) error {
	data, err := payload(v)
	if err != nil {
		return err
	}
	if e.client == nil {
		client, err := dial(ctx, e.endpoint)
		if err != nil {
			return err
		}
		e.client = client
	}
	if !e.client.Connected() {
		return fmt.Errorf("socket.io client is no longer connected")
	}
	ctxlog.FromContext(ctx).Debug("Emitting event", "event", e.event, "sid", e.client.Id())
	e.client.Emit(e.event, data)
	e.sent++
	return nil
}

func (e *emit) Finish(ctx context.Context, _ stage.Emitter) error {
	if e.client == nil {
		return nil
	}
	ctxlog.FromContext(ctx).Info("Closing socket.io client", "sid", e.client.Id(), "sent", e.sent)
	return e.Close()
}

// Close disconnects a client left open by a failed run.
func (e *emit) Close() error {
	if e.client != nil {
		e.client.Disconnect()
		e.client = nil
	}
	return nil
}

// payload converts a flow value to what the socket.io encoder accepts.
func payload(v cty.Value) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	ty := v.Type()
	switch {
	case ty.Equals(stage.Reader):
		return nil, fmt.Errorf("cannot emit a %s; decode it first", stage.TypeName(ty))
	case ty.IsMapType() || ty.IsObjectType():
		return stage.AsRecord(v)
	default:
		s, err := convert.Convert(v, cty.String)
		if err != nil {
			return nil, fmt.Errorf("cannot emit a %s", stage.TypeName(ty))
		}
		return s.AsString(), nil
	}
}
