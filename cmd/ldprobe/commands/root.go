package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/ldprobe/internal/cli"
	"github.com/TimurManjosov/ldprobe/internal/config"
	"github.com/TimurManjosov/ldprobe/internal/jsonlog"
	"github.com/TimurManjosov/ldprobe/internal/probe"
)

var (
	// Evaluation flags
	sdkKey       string
	project      string
	flagKey      string
	userKey      string
	defaultValue string
	simulateDown bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ldprobe",
	Short: "Evaluate a LaunchDarkly flag and log the lifecycle as JSON",
	Long: `ldprobe evaluates a single feature flag against LaunchDarkly and writes
newline-delimited JSON to stdout describing the evaluation lifecycle:
before/after hook events, data-source health, and a result summary.
The output is meant for ingestion by an external log pipeline.

The SDK key and project can come from flags, from the LDPROBE_SDK_KEY and
LDPROBE_PROJECT environment variables, or from ~/.ldprobe/config.yaml.

Examples:
  ldprobe --sdk-key sdk-xxx --project my-proj --flag-key my-flag
  ldprobe --flag-key my-flag --user-key alice --default true
  ldprobe --flag-key my-flag --simulate-down`,
	RunE: func(cmd *cobra.Command, args []string) error {
		def, err := parseDefaultValue(defaultValue)
		if err != nil {
			return err
		}

		resolvedProject, resolvedSDKKey, err := cli.ResolveCredentials(project, sdkKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		settings, err := config.Load()
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		emitter := jsonlog.NewEmitter(os.Stdout)

		return probe.Run(probe.Params{
			SDKKey:       resolvedSDKKey,
			Project:      resolvedProject,
			FlagKey:      flagKey,
			UserKey:      userKey,
			DefaultValue: def,
			SimulateDown: simulateDown,
		}, settings, emitter)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// parseDefaultValue accepts only the exact literals "true" and "false",
// matching the documented flag contract rather than the looser
// strconv.ParseBool forms.
func parseDefaultValue(s string) (bool, error) {
	switch s {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("invalid --default value '%s', expected 'true' or 'false'", s)
	}
}

func init() {
	rootCmd.Flags().StringVar(&sdkKey, "sdk-key", "", "LaunchDarkly server-side SDK key (environment-specific)")
	rootCmd.Flags().StringVar(&project, "project", "", "Project name for tagging log lines (not used by the SDK)")
	rootCmd.Flags().StringVar(&flagKey, "flag-key", "", "Flag key to evaluate")
	rootCmd.Flags().StringVar(&userKey, "user-key", "demo-user-1", "Context key to evaluate against")
	rootCmd.Flags().StringVar(&defaultValue, "default", "false", "Default value if the flag cannot be resolved (true or false)")
	rootCmd.Flags().BoolVar(&simulateDown, "simulate-down", false, "Point the client at unreachable endpoints to exercise failure reporting")
	_ = rootCmd.MarkFlagRequired("flag-key")
}
