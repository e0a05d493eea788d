package compiler

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/fluxflow/internal/builder"
	"github.com/vk/fluxflow/internal/flow"
	"github.com/vk/fluxflow/internal/parser"
	"github.com/vk/fluxflow/internal/registry"
	"github.com/vk/fluxflow/internal/vars"
)

// Diagnostics converts an error returned by this module into HCL
// diagnostics. Joined errors yield one diagnostic each; errors of unknown
// type yield a diagnostic without a source location.
func Diagnostics(err error) hcl.Diagnostics {
	if err == nil {
		return nil
	}

	var diags hcl.Diagnostics
	if errors.As(err, &diags) {
		return diags
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok && isJoin(err) {
		for _, e := range joined.Unwrap() {
			diags = append(diags, Diagnostics(e)...)
		}
		return diags
	}
	return hcl.Diagnostics{diagnostic(err)}
}

// isJoin tells errors.Join results apart from typed errors that also
// unwrap to several errors.
func isJoin(err error) bool {
	switch err.(type) {
	case *registry.ArgumentError, *ScriptNotFoundError:
		return false
	}
	return true
}

func diagnostic(err error) *hcl.Diagnostic {
	var (
		syntaxErr  *parser.SyntaxError
		varErr     *vars.UnresolvedVariableError
		unknownErr *registry.UnknownComponentError
		argErr     *registry.ArgumentError
		linkErr    *flow.IncompatibleLinkError
		cycleErr   *flow.CycleError
		dupErr     *builder.DuplicateStageError
		recErr     *builder.RecursiveCompositeError
		stageErr   *flow.StageError
	)

	d := &hcl.Diagnostic{Severity: hcl.DiagError}
	switch {
	case errors.As(err, &syntaxErr):
		d.Summary, d.Detail, d.Subject = "Syntax error", capitalize(syntaxErr.Message)+".", syntaxErr.Range.Ptr()
	case errors.As(err, &varErr):
		d.Summary = "Unresolved variable"
		d.Detail = fmt.Sprintf("There is no variable named %q. Pass it as %s=VALUE or assign it in the script.", varErr.Name, varErr.Name)
		d.Subject = varErr.Range.Ptr()
	case errors.As(err, &unknownErr):
		d.Summary = "Unknown component"
		d.Detail = fmt.Sprintf("No built-in or loaded component is named %q.", unknownErr.Name)
		if unknownErr.Suggestion != "" {
			d.Detail += fmt.Sprintf(" Did you mean %q?", unknownErr.Suggestion)
		}
		d.Subject = unknownErr.Range.Ptr()
	case errors.As(err, &argErr):
		d.Summary = "Invalid arguments"
		d.Detail = fmt.Sprintf("Component %q: %s.", argErr.Component, argErr.Err)
		d.Subject = argErr.Range.Ptr()
	case errors.As(err, &linkErr):
		d.Summary = "Incompatible link"
		d.Detail = fmt.Sprintf("Cannot link %s to %s: %s.", linkErr.From, linkErr.To, linkErr.Reason)
		d.Subject = linkErr.Range.Ptr()
	case errors.As(err, &cycleErr):
		d.Summary = "Cyclic flow"
		d.Detail = fmt.Sprintf("The stages form a cycle: %s.", strings.Join(cycleErr.Path, " -> "))
		d.Subject = cycleErr.Range.Ptr()
	case errors.As(err, &dupErr):
		d.Summary = "Duplicate stage"
		d.Detail = fmt.Sprintf("Stage %q was already declared at line %d; %s.", dupErr.Key, dupErr.First.Start.Line, dupErr.Reason)
		d.Subject = dupErr.Range.Ptr()
	case errors.As(err, &recErr):
		d.Summary = "Recursive composite component"
		d.Detail = fmt.Sprintf("Expansion does not terminate: %s.", strings.Join(recErr.Chain, " -> "))
		d.Subject = recErr.Range.Ptr()
	case errors.As(err, &stageErr):
		d.Summary = "Stage failed"
		d.Detail = fmt.Sprintf("Stage %s (%s): %s.", stageErr.Key, stageErr.Type, stageErr.Err)
		d.Subject = stageErr.Range.Ptr()
	default:
		d.Summary = capitalize(err.Error())
	}
	return d
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// WriteDiagnostics prints err in HCL's diagnostic format, with a source
// snippet for every location the compiler has the file for.
func (c *Compiler) WriteDiagnostics(w io.Writer, err error) error {
	wr := hcl.NewDiagnosticTextWriter(w, c.files, 78, false)
	return wr.WriteDiagnostics(Diagnostics(err))
}
