package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/stepper"
	"github.com/aretw0/stepper/internal/cli"
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/runner"
)

var traceCmd = &cobra.Command{
	Use:   "trace [kind]",
	Short: "Print every step of a scenario at once",
	Long: `Generates the full execution trace of a scenario and prints each frame in order,
without timers. The scenario comes from a kind and --param pairs, or from a YAML
file given with --file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		spec, err := scenarioFromFlags(cmd, args)
		if err != nil {
			return err
		}
		hide, _ := cmd.Flags().GetStringSlice("hide")
		format, _ := cmd.Flags().GetString("format")
		jsonMode, _ := cmd.Flags().GetBool("json")

		debug, _ := cmd.Flags().GetBool("debug")
		eng := stepper.New(stepper.WithLogger(cli.NewLogger(cfg.Log, debug, false)))
		return cli.Trace(eng, spec, hide, runner.ParseFormat(format), jsonMode, cmd.OutOrStdout())
	},
}

// addScenarioFlags registers the flags read by scenarioFromFlags.
func addScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("file", "f", "", "Read the scenario from a YAML file")
	cmd.Flags().StringArrayP("param", "p", nil, "Scenario parameter as key=value (repeatable)")
	cmd.Flags().StringSlice("hide", nil, "Hide panels: variables, output, lanes")
}

func scenarioFromFlags(cmd *cobra.Command, args []string) (domain.ScenarioSpec, error) {
	file, _ := cmd.Flags().GetString("file")
	pairs, _ := cmd.Flags().GetStringArray("param")
	return cli.ResolveSpec(file, args, pairs)
}

func init() {
	rootCmd.AddCommand(traceCmd)
	addScenarioFlags(traceCmd)
	traceCmd.Flags().String("format", "plain", "Output format: plain or markdown")
	traceCmd.Flags().Bool("json", false, "Print frames as NDJSON")
}
