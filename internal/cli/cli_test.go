package cli

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/vk/fluxflow/internal/app"
)

func TestParse(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name           string
		args           []string
		expectExit     bool
		expectCode     int
		expectedConfig *app.Config
		checkOutput    func(t *testing.T, output string)
	}{
		{
			name: "Happy path with all flags",
			args: []string{
				"--modules-path=/test/modules",
				"--log-level=DEBUG",
				"--log-format", "json",
				"--healthcheck-port=8080",
				"--graph",
				"flow.flux", "in=data.txt", "sep==",
			},
			expectedConfig: &app.Config{
				ScriptPath:      "flow.flux",
				Variables:       map[string]string{"in": "data.txt", "sep": "="},
				ModulesPath:     "/test/modules",
				LogLevel:        "debug",
				LogFormat:       "json",
				HealthcheckPort: 8080,
				Graph:           true,
			},
		},
		{
			name: "Defaults",
			args: []string{"flow.flux"},
			expectedConfig: &app.Config{
				ScriptPath:  "flow.flux",
				Variables:   map[string]string{},
				ModulesPath: "modules",
				LogLevel:    "info",
				LogFormat:   "text",
			},
		},
		{
			name:       "Flags after the script are variables",
			args:       []string{"flow.flux", "--graph"},
			expectCode: UsageCode,
		},
		{
			name: "List needs no script",
			args: []string{"--list"},
			expectedConfig: &app.Config{
				Variables:   map[string]string{},
				ModulesPath: "modules",
				LogLevel:    "info",
				LogFormat:   "text",
				List:        true,
			},
		},
		{
			name:       "Help flag triggers clean exit",
			args:       []string{"-h"},
			expectExit: true,
			checkOutput: func(t *testing.T, output string) {
				require.Contains(t, output, "Usage:")
				require.Contains(t, output, "name=value")
			},
		},
		{
			name:       "No script is a usage error",
			args:       []string{},
			expectCode: UsageCode,
			checkOutput: func(t *testing.T, output string) {
				require.Contains(t, output, "Usage:")
			},
		},
		{
			name:       "Malformed variable",
			args:       []string{"flow.flux", "=x"},
			expectCode: UsageCode,
		},
		{
			name:       "Unknown flag",
			args:       []string{"--nope", "flow.flux"},
			expectCode: UsageCode,
		},
		{
			name:       "Invalid log level",
			args:       []string{"--log-level=foo", "flow.flux"},
			expectCode: UsageCode,
		},
		{
			name:       "Invalid log format",
			args:       []string{"--log-format=yaml", "flow.flux"},
			expectCode: UsageCode,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// --- Arrange ---
			out := &bytes.Buffer{}

			// --- Act ---
			cfg, shouldExit, err := Parse(tc.args, out)

			// --- Assert ---
			if tc.checkOutput != nil {
				tc.checkOutput(t, out.String())
			}
			if tc.expectCode != 0 {
				require.Error(t, err)
				exitErr, ok := err.(*ExitError)
				require.True(t, ok, "Expected error to be of type ExitError")
				require.Equal(t, tc.expectCode, exitErr.Code)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expectExit, shouldExit)
			if tc.expectedConfig != nil {
				if diff := cmp.Diff(tc.expectedConfig, cfg); diff != "" {
					t.Errorf("Parse() config mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}
