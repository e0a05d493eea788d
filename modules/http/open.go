package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/vk/fluxflow/internal/ctxlog"
	"github.com/vk/fluxflow/internal/stage"
	"github.com/zclconf/go-cty/cty"
)

type openHTTP struct {
	method string
	accept string
	client *http.Client
}

func newOpenHTTP(args stage.Args) (stage.Stage, error) {
	if err := args.Allow(0, "timeout", "method", "accept"); err != nil {
		return nil, err
	}
	timeout, err := args.Duration("timeout", -1, DefaultTimeout)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("argument %q must be positive", "timeout")
	}
	method := strings.ToUpper(args.String("method", -1, http.MethodGet))
	if method != http.MethodGet && method != http.MethodPost {
		return nil, fmt.Errorf("argument %q must be GET or POST, got %q", "method", method)
	}
	return &openHTTP{
		method: method,
		accept: args.String("accept", -1, ""),
		client: newClient(timeout),
	}, nil
}

func (o *openHTTP) Ports() stage.Ports {
	return stage.Ports{
		Inputs:  stage.In("url", cty.String),
		Outputs: stage.Out("out", stage.Reader),
	}
}

func (o *openHTTP) Process(ctx context.Context, _ string, v cty.Value, out stage.Emitter) error {
	url, err := stage.AsString(v)
	if err != nil {
		return err
	}
	logger := ctxlog.FromContext(ctx)
	logger.Info("Making HTTP request", "method", o.method, "url", url)

	req, err := http.NewRequestWithContext(ctx, o.method, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if o.accept != "" {
		req.Header.Set("Accept", o.accept)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	logger.Debug("Received HTTP response", "status", resp.Status)
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%s %s: unexpected status %s", o.method, url, resp.Status)
	}
	return out.Emit(ctx, "", stage.ReaderVal(resp.Body))
}

// Close drops the idle connections of the stage's client.
func (o *openHTTP) Close() error {
	o.client.CloseIdleConnections()
	return nil
}
