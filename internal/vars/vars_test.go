package vars

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/fluxflow/internal/ast"
	"github.com/vk/fluxflow/internal/parser"
)

func parse(t *testing.T, src string) *ast.Tree {
	t.Helper()
	tree, err := parser.Parse("vars.flux", []byte(src))
	require.NoError(t, err)
	return tree
}

// commandArg returns the literal value of the first argument of the command
// at position idx of statement stmt.
func commandArg(t *testing.T, tree *ast.Tree, stmt, idx int) string {
	t.Helper()
	pipe := tree.Node(tree.Statements()[stmt])
	cmd := tree.Node(pipe.Children[idx])
	require.Equal(t, ast.KindCommand, cmd.Kind)
	expr := tree.Node(tree.Node(cmd.Children[0]).Children[0])
	require.Equal(t, ast.KindLiteral, expr.Kind)
	return expr.Value
}

func TestResolve_SubstitutesCallerBinding(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	tree := parse(t, `"x" | A("${FOO}")`)

	// --- Act ---
	resolved, _, err := Resolve(tree, Bindings{"FOO": "bar"})

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "bar", commandArg(t, resolved, 0, 1))
}

func TestResolve_DoesNotMutateInputs(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	tree := parse(t, "name = 'n'\n\"${name}\" | A")
	before := tree.String()
	user := Bindings{"other": "o"}

	// --- Act ---
	resolved, env, err := Resolve(tree, user)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, before, tree.String())
	assert.Equal(t, Bindings{"other": "o"}, user)
	assert.Equal(t, Bindings{"other": "o", "name": "n"}, env)

	head := resolved.Node(resolved.Node(resolved.Statements()[1]).Children[0])
	assert.Equal(t, ast.KindLiteral, head.Kind)
	assert.Equal(t, "n", head.Value)
}

func TestResolve_AssignmentSemantics(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		src      string
		bindings Bindings
		want     string
	}{
		{
			name: "assignments see earlier bindings",
			src:  "a = 'x'\nb = a + '-' + a\n\"\" | A(b)",
			want: "x-x",
		},
		{
			name:     "plain assignment overwrites caller binding",
			src:      "a = 'script'\n\"\" | A(a)",
			bindings: Bindings{"a": "caller"},
			want:     "script",
		},
		{
			name:     "default keeps caller binding",
			src:      "default a = 'script'\n\"\" | A(a)",
			bindings: Bindings{"a": "caller"},
			want:     "caller",
		},
		{
			name: "default binds unset name",
			src:  "default a = 'script'\n\"\" | A(a)",
			want: "script",
		},
		{
			name: "last write wins",
			src:  "a = '1'\na = '2'\n\"\" | A(a)",
			want: "2",
		},
		{
			name: "reference evaluated at its position",
			src:  "a = '1'\n\"\" | A(a)\na = '2'",
			want: "1",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			resolved, _, err := Resolve(parse(t, tc.src), tc.bindings)

			require.NoError(t, err)
			var stmt int
			for i, id := range resolved.Statements() {
				if resolved.Node(id).Kind == ast.KindPipeline {
					stmt = i
				}
			}
			assert.Equal(t, tc.want, commandArg(t, resolved, stmt, 1))
		})
	}
}

func TestResolve_Unresolved(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	tree := parse(t, "known = 'k'\n\"${known}\" | A(\"${missing}\", \"${alsoMissing}\")")

	// --- Act ---
	_, _, err := Resolve(tree, nil)

	// --- Assert ---
	require.ErrorIs(t, err, ErrUnresolvedVariable)
	var unresolved *UnresolvedVariableError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, "missing", unresolved.Name)
	assert.Equal(t, 2, unresolved.Range.Start.Line)
	assert.Equal(t, 17, unresolved.Range.Start.Column)
	assert.Contains(t, err.Error(), `variable "missing" is not defined`)
}

func TestWithScriptDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	script := filepath.Join(dir, "main.flux")
	sep := string(os.PathSeparator)

	t.Run("implicit binding", func(t *testing.T) {
		t.Parallel()
		b := WithScriptDir(script, nil)
		assert.Equal(t, dir+sep, b[ScriptDir])
	})

	t.Run("user binding overrides", func(t *testing.T) {
		t.Parallel()
		user := Bindings{ScriptDir: "/elsewhere/", "FOO": "bar"}
		b := WithScriptDir(script, user)
		assert.Equal(t, "/elsewhere/", b[ScriptDir])
		assert.Equal(t, "bar", b["FOO"])
		assert.Len(t, user, 2)
	})

	t.Run("script without caller bindings resolves", func(t *testing.T) {
		t.Parallel()
		tree := parse(t, `"${SCRIPT_DIR}in.txt" | A`)
		resolved, _, err := Resolve(tree, WithScriptDir(script, nil))
		require.NoError(t, err)
		head := resolved.Node(resolved.Node(resolved.Statements()[0]).Children[0])
		assert.Equal(t, filepath.Join(dir, "in.txt"), head.Value)
	})
}
