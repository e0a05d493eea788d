// Package manifest loads composite component definitions from HCL files.
//
// A manifest declares components built from other components:
//
//	component "read-lines" {
//	  description = "Reads a text file line by line."
//	  input "path" {}
//	  pipeline = "open-file(\"${path}\") | as-lines"
//	}
//
// Inside the pipeline string, ${name} refers to a declared input or to
// MODULE_DIR. SCRIPT_DIR is not available. Every file directly inside the modules directory whose name
// ends in .hcl is loaded in lexicographic order.
package manifest

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/fluxflow/internal/ast"
	"github.com/vk/fluxflow/internal/ctxlog"
	"github.com/vk/fluxflow/internal/fsutil"
	"github.com/vk/fluxflow/internal/parser"
	"github.com/vk/fluxflow/internal/registry"
	"github.com/vk/fluxflow/internal/vars"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Extension selects manifest files inside the modules directory.
const Extension = ".hcl"

// Loader reads manifests and registers their components.
type Loader struct {
	parser *hclparse.Parser
}

// NewLoader creates a new manifest loader.
func NewLoader() *Loader {
	return &Loader{parser: hclparse.NewParser()}
}

// Files returns the source of every file parsed so far, keyed by name. It
// lets diagnostics print snippets from manifests.
func (l *Loader) Files() map[string]*hcl.File {
	return l.parser.Files()
}

// Load registers every component declared in dir. A missing directory is
// not an error.
func (l *Loader) Load(ctx context.Context, dir string, reg *registry.Registry) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Manifest loader started.", "path", dir)

	files, err := fsutil.ListFilesByExtension(dir, Extension)
	if err != nil {
		return fmt.Errorf("failed to list modules directory %s: %w", dir, err)
	}
	if len(files) == 0 {
		logger.Debug("No manifest files found, using built-in components only.", "path", dir)
		return nil
	}
	logger.Debug("Discovered manifest files.", "files", files)

	count := 0
	for _, file := range files {
		comps, err := l.loadFile(ctx, file)
		if err != nil {
			return err
		}
		for _, c := range comps {
			reg.AddExternal(ctx, c)
		}
		count += len(comps)
		logger.Debug("Loaded manifest file.", "file", file, "components", len(comps))
	}

	if err := reg.Validate(ctx); err != nil {
		return fmt.Errorf("invalid modules in %s: %w", dir, err)
	}
	logger.Info("Modules loaded.", "path", dir, "files", len(files), "components", count)
	return nil
}

func (l *Loader) loadFile(ctx context.Context, path string) ([]*registry.Component, error) {
	hclFile, diags := l.parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, diags)
	}

	var root fileRoot
	if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", path, diags)
	}

	seen := make(map[string]hcl.Range)
	comps := make([]*registry.Component, 0, len(root.Components))
	for _, block := range root.Components {
		rng := block.Pipeline.Range()
		if prev, dup := seen[block.Name]; dup {
			return nil, fmt.Errorf("failed to decode manifest %s: %w", path, hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  "Duplicate component",
				Detail:   fmt.Sprintf("Component %q was already declared at %s.", block.Name, prev),
				Subject:  rng.Ptr(),
			}})
		}
		seen[block.Name] = rng

		c, err := translateComponent(ctx, block, path, hclFile.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to decode manifest %s: %w", path, err)
		}
		comps = append(comps, c)
	}
	return comps, nil
}

// translateComponent converts a decoded block into a registry component.
func translateComponent(ctx context.Context, b *componentBlock, path string, src []byte) (*registry.Component, error) {
	logger := ctxlog.FromContext(ctx).With("component", b.Name)
	ctx = ctxlog.WithLogger(ctx, logger)

	inputs := make([]registry.Input, 0, len(b.Inputs))
	known := map[string]bool{vars.ModuleDir: true, vars.ScriptDir: true}
	for _, in := range b.Inputs {
		if known[in.Name] {
			return nil, fmt.Errorf("component %q: input %q is declared twice or uses a reserved name", b.Name, in.Name)
		}
		known[in.Name] = true

		def, err := translateDefault(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("component %q: %w", b.Name, err)
		}
		inputs = append(inputs, registry.Input{Name: in.Name, Description: in.Description, Default: def})
	}

	tree, err := parsePipeline(b, known, path, src)
	if err != nil {
		return nil, err
	}
	logger.Debug("Translated component manifest.", "inputs", len(inputs))

	return &registry.Component{
		Name:        b.Name,
		Description: b.Description,
		Origin:      path,
		Composite: &registry.Composite{
			Inputs:   inputs,
			Pipeline: tree,
			Dir:      filepath.Dir(path),
		},
	}, nil
}

func translateDefault(ctx context.Context, in *inputBlock) (*string, error) {
	if !isExprDefined(ctx, in.Default, "default") {
		return nil, nil
	}
	val, diags := in.Default.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid default value for input %q: %w", in.Name, diags)
	}
	if val.IsNull() {
		return nil, nil
	}
	str, err := convert.Convert(val, cty.String)
	if err != nil {
		return nil, fmt.Errorf("default value for input %q must be a string: %w", in.Name, err)
	}
	s := str.AsString()
	return &s, nil
}

// parsePipeline evaluates the pipeline attribute and parses it as a script
// fragment. HCL interpolations of declared inputs are passed through
// unchanged so that the flow script resolver substitutes them when the
// component is expanded. SCRIPT_DIR is rejected: a component is expanded
// with its own bindings only.
func parsePipeline(b *componentBlock, inputs map[string]bool, path string, src []byte) (*ast.Tree, error) {
	for _, traversal := range b.Pipeline.Variables() {
		if traversal.RootName() == vars.ScriptDir {
			return nil, scriptDirDiagnostics(b.Name, traversal.SourceRange())
		}
	}

	passthrough := make(map[string]cty.Value, len(inputs))
	for name := range inputs {
		if name == vars.ScriptDir {
			continue
		}
		passthrough[name] = cty.StringVal("${" + name + "}")
	}
	val, diags := b.Pipeline.Value(&hcl.EvalContext{Variables: passthrough})
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() || !val.Type().Equals(cty.String) {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid pipeline",
			Detail:   fmt.Sprintf("The pipeline of component %q must be a string.", b.Name),
			Subject:  b.Pipeline.Range().Ptr(),
		}}
	}

	tree, err := parser.ParseAt(path, []byte(val.AsString()), contentStart(b.Pipeline.Range(), src))
	if err != nil {
		return nil, fmt.Errorf("component %q: %w", b.Name, err)
	}

	stmts := tree.Statements()
	if len(stmts) != 1 || tree.Node(stmts[0]).Kind != ast.KindPipeline {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid pipeline",
			Detail:   fmt.Sprintf("The pipeline of component %q must contain exactly one pipeline.", b.Name),
			Subject:  b.Pipeline.Range().Ptr(),
		}}
	}
	err = tree.Walk(tree.Root, func(_ ast.NodeID, n *ast.Node) error {
		if n.Kind == ast.KindVarRef && n.Value == vars.ScriptDir {
			return scriptDirDiagnostics(b.Name, n.Range)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if head := tree.Children(stmts[0])[0]; head.Kind != ast.KindCommand {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid pipeline",
			Detail:   fmt.Sprintf("The pipeline of component %q must start with a component, not a %s.", b.Name, head.Kind),
			Subject:  head.Range.Ptr(),
		}}
	}
	return tree, nil
}

func scriptDirDiagnostics(component string, rng hcl.Range) hcl.Diagnostics {
	return hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  "Unavailable variable",
		Detail: fmt.Sprintf("The pipeline of component %q refers to %s, which is not bound inside components. Use %s for files next to the manifest, or declare an input.",
			component, vars.ScriptDir, vars.ModuleDir),
		Subject: rng.Ptr(),
	}}
}
