package records

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/fluxflow/internal/registry"
	"github.com/vk/fluxflow/internal/stage"
	"github.com/vk/fluxflow/internal/testutil"
	"github.com/zclconf/go-cty/cty"
)

func TestModule_RegistersAll(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	(&Module{}).Register(reg)

	for _, name := range []string{
		"decode-json", "encode-json", "decode-yaml", "encode-yaml", "decode-kv",
		"rename", "retain", "add-field", "filter", "count",
	} {
		_, ok := reg.Lookup(name)
		assert.True(t, ok, "component %q is not registered", name)
	}
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		input   string
		want    map[string]string
		wantErr string
	}{
		{
			name:  "scalars",
			input: `{"name":"ada","age":36,"admin":true,"gone":null}`,
			want:  map[string]string{"name": "ada", "age": "36", "admin": "true"},
		},
		{name: "empty object", input: `{}`, want: map[string]string{}},
		{name: "not an object", input: `[1,2]`, wantErr: "expected a JSON object"},
		{name: "nested", input: `{"a":{"b":"c"}}`, wantErr: `field "a" must be a string, number or boolean`},
		{name: "malformed", input: `{"a":`, wantErr: "invalid JSON"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// --- Arrange ---
			s, err := newDecodeJSON(testutil.Positional())
			require.NoError(t, err)

			// --- Act ---
			out, err := testutil.Feed(context.Background(), s, cty.StringVal(tc.input))

			// --- Assert ---
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []map[string]string{tc.want}, out.Records(t))
		})
	}
}

func TestEncodeJSON(t *testing.T) {
	t.Parallel()

	compact, err := newEncodeJSON(testutil.Positional())
	require.NoError(t, err)
	pretty, err := newEncodeJSON(testutil.Positional("true"))
	require.NoError(t, err)
	in := testutil.Records(map[string]string{"b": "2", "a": "1"})

	out, err := testutil.Feed(context.Background(), compact, in...)
	require.NoError(t, err)
	assert.Equal(t, []string{`{"a":"1","b":"2"}`}, out.Strings(t))

	out, err = testutil.Feed(context.Background(), pretty, in...)
	require.NoError(t, err)
	assert.Equal(t, []string{"{\n  \"a\": \"1\",\n  \"b\": \"2\"\n}"}, out.Strings(t))
}

func TestDecodeYAML(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	s, err := newDecodeYAML(testutil.Positional())
	require.NoError(t, err)
	doc := "name: ada\nversion: 1.10\nempty: ~\n---\nname: bob\n"

	// --- Act ---
	out, err := testutil.Feed(context.Background(), s, cty.StringVal(doc))

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, []map[string]string{
		{"name": "ada", "version": "1.10"},
		{"name": "bob"},
	}, out.Records(t))
}

func TestDecodeYAML_Errors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		input   string
		wantErr string
	}{
		{name: "sequence", input: "- a\n- b\n", wantErr: "line 1: expected a YAML mapping"},
		{name: "nested", input: "a:\n  b: c\n", wantErr: `line 2: field "a" must hold a scalar value`},
		{name: "malformed", input: "a: [", wantErr: "invalid YAML"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s, err := newDecodeYAML(testutil.Positional())
			require.NoError(t, err)

			_, err = testutil.Feed(context.Background(), s, cty.StringVal(tc.input))

			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestEncodeYAML(t *testing.T) {
	t.Parallel()

	s, err := newEncodeYAML(testutil.Positional())
	require.NoError(t, err)

	out, err := testutil.Feed(context.Background(), s, testutil.Records(map[string]string{"b": "true", "a": "x"})...)

	require.NoError(t, err)
	assert.Equal(t, []string{"---\na: x\nb: \"true\""}, out.Strings(t))
}

func TestDecodeKV(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		args    stage.Args
		input   string
		want    map[string]string
		wantErr string
	}{
		{name: "whitespace", args: testutil.Positional(), input: "a=1  b=x=y", want: map[string]string{"a": "1", "b": "x=y"}},
		{name: "custom", args: testutil.Named("separator", ":", "delimiter", ";"), input: "a:1; b:2;", want: map[string]string{"a": "1", "b": "2"}},
		{name: "empty line", args: testutil.Positional(), input: "", want: map[string]string{}},
		{name: "no separator", args: testutil.Positional(), input: "a=1 b", wantErr: `field "b" is not of the form key=value`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s, err := newDecodeKV(tc.args)
			require.NoError(t, err)

			out, err := testutil.Feed(context.Background(), s, cty.StringVal(tc.input))

			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []map[string]string{tc.want}, out.Records(t))
		})
	}
}

func TestEditors(t *testing.T) {
	t.Parallel()

	input := []map[string]string{
		{"id": "1", "kind": "book", "title": "Dune"},
		{"id": "2", "kind": "film"},
	}

	testCases := []struct {
		name    string
		factory stage.Factory
		args    stage.Args
		want    []map[string]string
	}{
		{
			name:    "rename",
			factory: newRename,
			args:    testutil.Positional("title", "name"),
			want: []map[string]string{
				{"id": "1", "kind": "book", "name": "Dune"},
				{"id": "2", "kind": "film"},
			},
		},
		{
			name:    "retain",
			factory: newRetain,
			args:    testutil.Positional("id", "title"),
			want:    []map[string]string{{"id": "1", "title": "Dune"}, {"id": "2"}},
		},
		{
			name:    "add-field",
			factory: newAddField,
			args:    testutil.Named("name", "src", "value", "lib"),
			want: []map[string]string{
				{"id": "1", "kind": "book", "title": "Dune", "src": "lib"},
				{"id": "2", "kind": "film", "src": "lib"},
			},
		},
		{
			name:    "filter by value",
			factory: newFilter,
			args:    testutil.Positional("kind", "film"),
			want:    []map[string]string{{"id": "2", "kind": "film"}},
		},
		{
			name:    "filter by presence",
			factory: newFilter,
			args:    testutil.Positional("title"),
			want:    []map[string]string{{"id": "1", "kind": "book", "title": "Dune"}},
		},
		{
			name:    "filter inverted",
			factory: newFilter,
			args:    testutil.Named("field", "title", "invert", "true"),
			want:    []map[string]string{{"id": "2", "kind": "film"}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// --- Arrange ---
			s, err := tc.factory(tc.args)
			require.NoError(t, err)

			// --- Act ---
			out, err := testutil.Feed(context.Background(), s, testutil.Records(input...)...)

			// --- Assert ---
			require.NoError(t, err)
			assert.Equal(t, tc.want, out.Records(t))
		})
	}
}

func TestEditors_ArgumentErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		factory stage.Factory
		args    stage.Args
		wantErr string
	}{
		{name: "rename without target", factory: newRename, args: testutil.Positional("a"), wantErr: `missing required argument "to"`},
		{name: "retain without fields", factory: newRetain, args: testutil.Positional(), wantErr: "at least one field"},
		{name: "retain with option", factory: newRetain, args: testutil.Named("field", "a"), wantErr: `unknown option "field"`},
		{name: "add-field without value", factory: newAddField, args: testutil.Named("name", "a"), wantErr: `missing required argument "value"`},
		{name: "filter without field", factory: newFilter, args: testutil.Positional(), wantErr: `missing required argument "field"`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := tc.factory(tc.args)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestCount(t *testing.T) {
	t.Parallel()

	s, err := newCount(testutil.Positional())
	require.NoError(t, err)

	out, err := testutil.Feed(context.Background(), s, testutil.Strings("a", "b", "c")...)

	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, out.Strings(t))
}
