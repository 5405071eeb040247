package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/stepper"
	"github.com/aretw0/stepper/internal/presentation/graph"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [kind]",
	Short: "Export the step sequence as a Mermaid diagram",
	Long: `Generates a scenario and outputs a Mermaid diagram (graph TD) with one node per step.
With --at the steps already played and the current one are highlighted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := scenarioFromFlags(cmd, args)
		if err != nil {
			return err
		}
		steps := stepper.New().Generate(spec)

		var overlay *graph.Overlay
		if cmd.Flags().Changed("at") {
			at, _ := cmd.Flags().GetInt("at")
			// --at is 1-based like the rendered positions.
			overlay = &graph.Overlay{Current: at - 1}
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(steps, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	addScenarioFlags(graphCmd)
	graphCmd.Flags().Int("at", 0, "Highlight progress up to this step (1-based)")
}
