// Package vars resolves variable references in a parsed flow script.
//
// Resolution never touches the caller's tree or bindings. It returns a
// derived tree in which every expression has collapsed into one literal, and
// the bindings as they stood after the script's own assignments.
package vars

import (
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/fluxflow/internal/ast"
)

// ScriptDir is the reserved name bound to the directory of the running
// script, including a trailing separator.
const ScriptDir = "SCRIPT_DIR"

// ModuleDir is bound inside composite components to the directory of the
// manifest that declared them.
const ModuleDir = "MODULE_DIR"

// ErrUnresolvedVariable is wrapped by UnresolvedVariableError.
var ErrUnresolvedVariable = errors.New("unresolved variable")

// UnresolvedVariableError names a reference without a binding.
type UnresolvedVariableError struct {
	Name  string
	Range hcl.Range
}

func (e *UnresolvedVariableError) Error() string {
	return fmt.Sprintf("%s:%d,%d: variable %q is not defined", e.Range.Filename, e.Range.Start.Line, e.Range.Start.Column, e.Name)
}

func (e *UnresolvedVariableError) Unwrap() error { return ErrUnresolvedVariable }

// Bindings maps variable names to values.
type Bindings map[string]string

// DirValue formats a directory as a binding value: absolute when possible and
// always ending in a path separator, so scripts can write "${SCRIPT_DIR}file".
func DirValue(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	if !strings.HasSuffix(dir, string(filepath.Separator)) {
		dir += string(filepath.Separator)
	}
	return dir
}

// WithScriptDir returns a new map holding SCRIPT_DIR for scriptPath followed
// by the user bindings, which win on conflict.
func WithScriptDir(scriptPath string, user Bindings) Bindings {
	out := make(Bindings, len(user)+1)
	out[ScriptDir] = DirValue(filepath.Dir(scriptPath))
	maps.Copy(out, user)
	return out
}

// Resolve substitutes every variable reference in tree.
//
// Assignments are applied in document order. A plain assignment overwrites
// the binding; a default assignment only binds an unset name. Each
// expression is evaluated with the bindings in effect at its position.
func Resolve(tree *ast.Tree, bindings Bindings) (*ast.Tree, Bindings, error) {
	out := tree.Clone()
	env := maps.Clone(bindings)
	if env == nil {
		env = Bindings{}
	}

	r := &resolver{tree: out, env: env}
	for _, stmt := range out.Statements() {
		if err := r.statement(stmt); err != nil {
			return nil, nil, err
		}
	}
	return out, env, nil
}

type resolver struct {
	tree *ast.Tree
	env  Bindings
}

func (r *resolver) statement(id ast.NodeID) error {
	n := r.tree.Node(id)
	switch n.Kind {
	case ast.KindAssign, ast.KindDefaultAssign:
		value, err := r.eval(n.Children[0])
		if err != nil {
			return err
		}
		if _, bound := r.env[n.Value]; n.Kind == ast.KindDefaultAssign && bound {
			return nil
		}
		r.env[n.Value] = value
		return nil
	default:
		return r.tree.Walk(id, func(child ast.NodeID, c *ast.Node) error {
			if !c.Kind.IsExpr() || child == id {
				return nil
			}
			_, err := r.eval(child)
			return err
		})
	}
}

// eval resolves an expression node and replaces it with a literal. The
// replaced node keeps its children slice empty so the enclosing walk does not
// descend into parts that were already folded.
func (r *resolver) eval(id ast.NodeID) (string, error) {
	n := r.tree.Node(id)
	var value string
	switch n.Kind {
	case ast.KindLiteral:
		return n.Value, nil
	case ast.KindVarRef:
		v, ok := r.env[n.Value]
		if !ok {
			return "", &UnresolvedVariableError{Name: n.Value, Range: n.Range}
		}
		value = v
	case ast.KindConcat:
		var sb strings.Builder
		for _, c := range n.Children {
			v, err := r.eval(c)
			if err != nil {
				return "", err
			}
			sb.WriteString(v)
		}
		value = sb.String()
	default:
		return "", fmt.Errorf("node of kind %s is not an expression", n.Kind)
	}
	r.tree.Replace(id, ast.Node{Kind: ast.KindLiteral, Range: n.Range, Value: value})
	return value, nil
}
