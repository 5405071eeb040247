package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/stepper"
)

var scenariosCmd = &cobra.Command{
	Use:     "scenarios",
	Aliases: []string{"kinds"},
	Short:   "List the scenario kinds and their default parameters",
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonMode, _ := cmd.Flags().GetBool("json")
		kinds := stepper.New().Kinds()
		w := cmd.OutOrStdout()

		if jsonMode {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(kinds)
		}

		for _, k := range kinds {
			fmt.Fprintf(w, "%-15s %s\n", k.Kind, k.Title)
			fmt.Fprintf(w, "%-15s %s\n", "", k.Description)
			if len(k.Defaults) > 0 {
				fmt.Fprintf(w, "%-15s defaults: %s\n", "", formatDefaults(k.Defaults))
			}
		}
		return nil
	},
}

func formatDefaults(params map[string]any) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v, _ := json.Marshal(params[k])
		parts = append(parts, k+"="+string(v))
	}
	return strings.Join(parts, " ")
}

func init() {
	rootCmd.AddCommand(scenariosCmd)
	scenariosCmd.Flags().Bool("json", false, "Print the catalog as JSON")
}
