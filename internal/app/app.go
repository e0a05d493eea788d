package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"text/tabwriter"

	"github.com/vk/fluxflow/internal/compiler"
	"github.com/vk/fluxflow/internal/ctxlog"
	"github.com/vk/fluxflow/internal/manifest"
	"github.com/vk/fluxflow/internal/registry"
	"github.com/vk/fluxflow/internal/stage"
)

// ReportedError marks a failure whose details have already been written to
// the error stream.
type ReportedError struct {
	Err error
}

func (e *ReportedError) Error() string { return e.Err.Error() }

func (e *ReportedError) Unwrap() error { return e.Err }

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	errW   io.Writer
	logger *slog.Logger
	config *Config

	registry *registry.Registry
	loader   *manifest.Loader
	compiler *compiler.Compiler

	ctx        context.Context
	httpServer *http.Server
}

// NewApp is the constructor for the main application. Flow output goes to
// outW; logs and diagnostics go to errW. Without explicit modules the
// built-in set is registered.
func NewApp(outW, errW io.Writer, cfg *Config, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, errW)
	logger.Debug("Logger configured successfully.")

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules))

	return &App{
		outW:     outW,
		errW:     errW,
		logger:   logger,
		config:   cfg,
		registry: reg,
		loader:   manifest.NewLoader(),
		compiler: compiler.New(reg),
		ctx:      context.Background(),
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Run executes one invocation: load manifests, compile the script, then
// list, print or start the flow.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.ctx = ctx
	a.logger.Debug("App.Run method started.")

	a.startHealthcheckServer()
	defer a.closeHealthcheckServer()

	err := a.loader.Load(ctx, a.config.ModulesPath, a.registry)
	a.compiler.AddFiles(a.loader.Files())
	if err != nil {
		return a.report(err)
	}

	if a.config.List {
		return a.listComponents()
	}

	f, err := a.compiler.CompileFile(ctx, a.config.ScriptPath, a.config.Variables)
	if err != nil {
		var notFound *compiler.ScriptNotFoundError
		if errors.As(err, &notFound) {
			fmt.Fprintln(a.errW, notFound.Error())
			return &ReportedError{Err: err}
		}
		return a.report(err)
	}
	a.logger.Debug("Flow compiled.", "stages", len(f.Stages()), "links", len(f.Links()))

	if a.config.Graph {
		return f.WriteDot(a.outW)
	}

	if err := f.Start(stage.WithStdout(ctx, a.outW)); err != nil {
		return a.report(err)
	}
	a.logger.Debug("App.Run method finished.")
	return nil
}

func (a *App) report(err error) error {
	if werr := a.compiler.WriteDiagnostics(a.errW, err); werr != nil {
		a.logger.Error("Failed to write diagnostics.", "error", werr)
		fmt.Fprintln(a.errW, err)
	}
	return &ReportedError{Err: err}
}

func (a *App) listComponents() error {
	tw := tabwriter.NewWriter(a.outW, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tORIGIN\tDESCRIPTION")
	for _, c := range a.registry.Components() {
		desc := c.Description
		if c.Composite != nil && len(c.Composite.Inputs) > 0 {
			names := make([]string, len(c.Composite.Inputs))
			for i, in := range c.Composite.Inputs {
				names[i] = in.Name
			}
			desc = strings.TrimSpace(fmt.Sprintf("%s (inputs: %s)", desc, strings.Join(names, ", ")))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Name, c.Origin, desc)
	}
	return tw.Flush()
}
