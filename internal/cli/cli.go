package cli

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vk/fluxflow/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// UsageCode is the exit status for command-line mistakes.
const UsageCode = 2

var assignment = regexp.MustCompile(`^([^=]+)=(.*)$`)

const long = `flux compiles a flow script into a graph of stages and runs it.

Arguments:
  SCRIPT        Path to the flow script.
  name=value    Binds a script variable before the script's own assignments run.`

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")

	var (
		cfg    app.Config
		parsed bool
	)
	cmd := &cobra.Command{
		Use:           "flux [flags] SCRIPT [name=value ...]",
		Short:         "Run a flow script",
		Long:          long,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, positional []string) error {
			parsed = true
			if len(positional) == 0 {
				if cfg.List {
					return nil
				}
				cmd.SetOut(output)
				_ = cmd.Usage()
				return &ExitError{Code: UsageCode, Message: "missing script path"}
			}
			cfg.ScriptPath = positional[0]
			vars, err := parseVariables(positional[1:])
			if err != nil {
				return err
			}
			cfg.Variables = vars
			return nil
		},
	}
	cmd.SetArgs(args)
	cmd.SetOut(output)
	cmd.SetErr(output)
	// Everything after the script path is a variable binding.
	cmd.Flags().SetInterspersed(false)

	flags := cmd.Flags()
	flags.StringVar(&cfg.ModulesPath, "modules-path", "modules", "Directory containing component manifests (*.hcl).")
	flags.StringVar(&cfg.LogLevel, "log-level", "info", "Logging level: 'debug', 'info', 'warn' or 'error'.")
	flags.StringVar(&cfg.LogFormat, "log-format", "text", "Log output format: 'text' or 'json'.")
	flags.IntVar(&cfg.HealthcheckPort, "healthcheck-port", 0, "Port for the /health and /metrics server. 0 disables it.")
	flags.BoolVar(&cfg.Graph, "graph", false, "Print the compiled flow as a Graphviz DOT graph instead of running it.")
	flags.BoolVar(&cfg.List, "list", false, "List the known components and exit.")

	if err := cmd.Execute(); err != nil {
		if exitErr, ok := err.(*ExitError); ok {
			return nil, false, exitErr
		}
		return nil, false, &ExitError{Code: UsageCode, Message: err.Error()}
	}
	if !parsed {
		// --help was handled by cobra.
		return nil, true, nil
	}
	slog.Debug("Arguments parsed successfully.", "script", cfg.ScriptPath)

	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	config, err := app.NewConfig(cfg)
	if err != nil {
		return nil, false, &ExitError{Code: UsageCode, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

func parseVariables(args []string) (map[string]string, error) {
	vars := make(map[string]string, len(args))
	for _, arg := range args {
		m := assignment.FindStringSubmatch(arg)
		if m == nil {
			return nil, &ExitError{
				Code:    UsageCode,
				Message: fmt.Sprintf("invalid argument %q: variables must be given as name=value", arg),
			}
		}
		vars[m[1]] = m[2]
	}
	return vars, nil
}
