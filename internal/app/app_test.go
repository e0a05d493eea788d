package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/fluxflow/internal/testutil"
)

const adminsManifest = `
component "admins" {
  description = "Reads key=value lines and keeps one role."
  input "role" {
    default = "admin"
  }
  pipeline = "open-file | as-lines | decode-kv | filter(field=\"role\", value=role)"
}
`

// setupAppTest lays out a script, its data and a modules directory, and
// returns an App wired to buffers.
func setupAppTest(t *testing.T, script string, cfg Config) (*App, *testutil.SafeBuffer, *testutil.SafeBuffer) {
	t.Helper()

	dir := t.TempDir()
	modulesDir := filepath.Join(dir, "modules")
	require.NoError(t, os.Mkdir(modulesDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(modulesDir, "people.hcl"), []byte(adminsManifest), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "people.txt"), []byte("name=ada role=admin\nname=bob role=user\n"), 0o644))
	scriptPath := filepath.Join(dir, "main.flux")
	require.NoError(t, os.WriteFile(scriptPath, []byte(script), 0o644))

	if cfg.ScriptPath == "" {
		cfg.ScriptPath = scriptPath
	}
	cfg.ModulesPath = modulesDir
	cfg.LogLevel = "debug"
	cfg.LogFormat = "text"
	config, err := NewConfig(cfg)
	require.NoError(t, err)

	outW, errW := &testutil.SafeBuffer{}, &testutil.SafeBuffer{}
	t.Cleanup(func() {
		if os.Getenv("FLUX_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), errW.String())
		}
	})
	return NewApp(outW, errW, config), outW, errW
}

func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	a, outW, _ := setupAppTest(t, `
# keep admins only
data = "${SCRIPT_DIR}people.txt"
"${data}" | admins | encode-json | print
`, Config{})

	// --- Act ---
	err := a.Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "{\"name\":\"ada\",\"role\":\"admin\"}\n", outW.String())
}

func TestRun_CompositeInputFromScript(t *testing.T) {
	t.Parallel()

	a, outW, _ := setupAppTest(t, `"${SCRIPT_DIR}people.txt" | admins("user") | retain("name") | print`, Config{})

	err := a.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "name = \"bob\"\n", outW.String())
}

func TestRun_UserVariablesOverrideDefaults(t *testing.T) {
	t.Parallel()

	a, outW, _ := setupAppTest(t, `default greeting = "hello"; "${greeting}, world" | print`, Config{
		Variables: map[string]string{"greeting": "bye"},
	})

	err := a.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "bye, world\n", outW.String())
}

func TestRun_TeeOverStream(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	a, outW, _ := setupAppTest(t,
		`"${SCRIPT_DIR}people.txt" | open-file | { as-lines | l:print(prefix="L:") } { as-text | t:print(prefix="T:") }`,
		Config{})

	// --- Act ---
	err := a.Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t,
		"L:name=ada role=admin\nL:name=bob role=user\nT:name=ada role=admin\nname=bob role=user\n\n",
		outW.String())
}

func TestRun_FailedRunReleasesOutputFile(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	a, _, errW := setupAppTest(t,
		`"${SCRIPT_DIR}missing.txt" | { write("${SCRIPT_DIR}out.txt") } { open-file | as-lines | print }`,
		Config{})
	dir := filepath.Dir(a.config.ScriptPath)
	outPath := filepath.Join(dir, "out.txt")

	// --- Act ---
	err := a.Run(context.Background())

	// --- Assert ---
	require.Error(t, err)
	assert.Contains(t, errW.String(), "failed to open file")
	got, readErr := os.ReadFile(outPath)
	require.NoError(t, readErr)
	assert.Equal(t, filepath.Join(dir, "missing.txt")+"\n", string(got))
	assert.False(t, fileHeldOpen(t, outPath), "output file is still open")
}

// fileHeldOpen reports whether this process still has path open.
func fileHeldOpen(t *testing.T, path string) bool {
	t.Helper()
	entries, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		t.Skip("open descriptors cannot be listed on this platform")
	}
	for _, e := range entries {
		target, err := os.Readlink(filepath.Join("/proc/self/fd", e.Name()))
		if err == nil && target == path {
			return true
		}
	}
	return false
}

func TestRun_Graph(t *testing.T) {
	t.Parallel()

	a, outW, _ := setupAppTest(t, `"${SCRIPT_DIR}people.txt" | admins | print`, Config{Graph: true})

	err := a.Run(context.Background())

	require.NoError(t, err)
	assert.Contains(t, outW.String(), "digraph flow {")
	assert.Contains(t, outW.String(), `"admins/open-file"`)
	assert.NotContains(t, outW.String(), "name =")
}

func TestRun_List(t *testing.T) {
	t.Parallel()

	a, outW, _ := setupAppTest(t, "", Config{List: true, ScriptPath: "unused"})

	err := a.Run(context.Background())

	require.NoError(t, err)
	assert.Regexp(t, `(?m)^merge\s+builtin\s+Joins several pipelines`, outW.String())
	assert.Regexp(t, `(?m)^admins\s+\S+people\.hcl\s+Reads key=value lines and keeps one role\. \(inputs: role\)$`, outW.String())
}

func TestRun_Failures(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		script    string
		path      string
		wantInErr []string
	}{
		{
			name:      "missing script",
			path:      filepath.Join(os.TempDir(), "definitely-missing.flux"),
			wantInErr: []string{"File not found: " + filepath.Join(os.TempDir(), "definitely-missing.flux")},
		},
		{
			name:      "unknown component",
			script:    `"x" | prnt`,
			wantInErr: []string{"Unknown component", `did you mean "print"?`, "main.flux line 1"},
		},
		{
			name:      "incompatible link",
			script:    `"x" | as-lines`,
			wantInErr: []string{"Incompatible link"},
		},
		{
			name:      "stage failure",
			script:    `"${SCRIPT_DIR}missing.txt" | open-file | as-lines | print`,
			wantInErr: []string{"Stage failed", "failed to open file"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// --- Arrange ---
			a, outW, errW := setupAppTest(t, tc.script, Config{ScriptPath: tc.path})

			// --- Act ---
			err := a.Run(context.Background())

			// --- Assert ---
			require.Error(t, err)
			var reported *ReportedError
			require.ErrorAs(t, err, &reported)
			for _, want := range tc.wantInErr {
				assert.Contains(t, errW.String(), want)
			}
			assert.Empty(t, outW.String())
		})
	}
}

func TestRoutes(t *testing.T) {
	t.Parallel()

	a, _, _ := setupAppTest(t, "", Config{List: true})
	srv := httptest.NewServer(a.routes())
	t.Cleanup(srv.Close)

	for _, path := range []string{"/health", "/metrics"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestNewConfig(t *testing.T) {
	t.Parallel()

	base := Config{ScriptPath: "s.flux", LogLevel: "info", LogFormat: "text"}

	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "list without script", mutate: func(c *Config) { c.ScriptPath = ""; c.List = true }},
		{name: "no script", mutate: func(c *Config) { c.ScriptPath = "" }, wantErr: "ScriptPath is a required"},
		{name: "bad level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: "invalid log-level"},
		{name: "bad format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: "invalid log-format"},
		{name: "bad port", mutate: func(c *Config) { c.HealthcheckPort = 70000 }, wantErr: "invalid healthcheck-port"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := base
			tc.mutate(&cfg)
			got, err := NewConfig(cfg)

			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, got.Variables)
		})
	}
}
