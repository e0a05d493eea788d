// Package compiler runs the whole pipeline from script text to a flow:
// parse, resolve variables, then build against a registry.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/fluxflow/internal/builder"
	"github.com/vk/fluxflow/internal/ctxlog"
	"github.com/vk/fluxflow/internal/flow"
	"github.com/vk/fluxflow/internal/parser"
	"github.com/vk/fluxflow/internal/registry"
	"github.com/vk/fluxflow/internal/vars"
)

// ErrScriptNotFound is wrapped by ScriptNotFoundError.
var ErrScriptNotFound = errors.New("script not found")

// ScriptNotFoundError reports a script path that cannot be opened. It is
// distinct from every compile error because no compilation was attempted.
type ScriptNotFoundError struct {
	Path string
	Err  error
}

func (e *ScriptNotFoundError) Error() string {
	return fmt.Sprintf("File not found: %s", e.Path)
}

func (e *ScriptNotFoundError) Unwrap() []error { return []error{ErrScriptNotFound, e.Err} }

// Compiler compiles scripts against one registry and remembers the source
// of every file it has seen so that errors can be shown with snippets.
type Compiler struct {
	reg   *registry.Registry
	files map[string]*hcl.File
}

// New creates a Compiler for reg.
func New(reg *registry.Registry) *Compiler {
	return &Compiler{reg: reg, files: make(map[string]*hcl.File)}
}

// AddFiles makes additional sources, such as loaded manifests, available
// for diagnostics.
func (c *Compiler) AddFiles(files map[string]*hcl.File) {
	for name, f := range files {
		c.files[name] = f
	}
}

// CompileFile reads and compiles the script at path. The SCRIPT_DIR binding
// is derived from path; user bindings take precedence over it.
func (c *Compiler) CompileFile(ctx context.Context, path string, user vars.Bindings) (*flow.Flow, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return nil, &ScriptNotFoundError{Path: path, Err: err}
		}
		return nil, fmt.Errorf("failed to read script %s: %w", path, err)
	}
	return c.Compile(ctx, path, src, vars.WithScriptDir(path, user))
}

// Compile compiles script text. bindings are used as given.
func (c *Compiler) Compile(ctx context.Context, filename string, src []byte, bindings vars.Bindings) (*flow.Flow, error) {
	c.files[filename] = &hcl.File{Bytes: src}
	return Compile(ctx, filename, src, c.reg, bindings)
}

// Compile parses, resolves and builds a script in one call.
func Compile(ctx context.Context, filename string, src []byte, reg *registry.Registry, bindings vars.Bindings) (*flow.Flow, error) {
	logger := ctxlog.FromContext(ctx).With("script", filename)
	ctx = ctxlog.WithLogger(ctx, logger)

	tree, err := parser.Parse(filename, src)
	if err != nil {
		return nil, err
	}
	logger.Debug("Script parsed.", "statements", len(tree.Statements()))

	resolved, env, err := vars.Resolve(tree, bindings)
	if err != nil {
		return nil, err
	}
	logger.Debug("Variables resolved.", "bindings", len(env))

	f, err := builder.Build(ctx, resolved, reg)
	if err != nil {
		return nil, err
	}
	logger.Debug("Flow compiled.", "stages", len(f.Stages()), "links", len(f.Links()), "roots", len(f.Roots()))
	return f, nil
}
