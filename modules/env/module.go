// Package env exposes the process environment to scripts.
package env

import (
	"context"
	"os"
	"strings"

	"github.com/vk/fluxflow/internal/registry"
	"github.com/vk/fluxflow/internal/stage"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the module's components with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStage("env", "Emits the environment variables as one record, optionally only those with a name prefix.", newEnv)
}

type envStage struct {
	prefix string
	strip  bool
	// environ is os.Environ outside of tests.
	environ func() []string
}

func newEnv(args stage.Args) (stage.Stage, error) {
	if err := args.Allow(1, "prefix", "strip"); err != nil {
		return nil, err
	}
	strip, err := args.Bool("strip", -1, false)
	if err != nil {
		return nil, err
	}
	return &envStage{prefix: args.String("prefix", 0, ""), strip: strip, environ: os.Environ}, nil
}

func (e *envStage) Ports() stage.Ports {
	return stage.Ports{Outputs: stage.Out("out", stage.Record)}
}

func (e *envStage) Generate(ctx context.Context, out stage.Emitter) error {
	envMap := make(map[string]string)
	for _, kv := range e.environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, e.prefix) {
			continue
		}
		if e.strip {
			name = strings.TrimPrefix(name, e.prefix)
		}
		if name == "" {
			continue
		}
		envMap[name] = value
	}
	return out.Emit(ctx, "", stage.RecordVal(envMap))
}
