package main

import (
	"fmt"
	"os"

	"github.com/aretw0/flowplan/internal/cli"
	"github.com/aretw0/flowplan/internal/presentation/graph"
	"github.com/aretw0/flowplan/pkg/options"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph <flow>",
	Short: "Print the flow's dataflow as a Mermaid diagram",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := runtimeFor(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		flow, err := cli.LoadFlow(args[0], rt.Catalog, cmd.InOrStdin())
		if err != nil {
			return err
		}

		var overlay *graph.PlanOverlay
		if rawPath, _ := cmd.Flags().GetString("plan"); rawPath != "" {
			raw, err := os.ReadFile(rawPath)
			if err != nil {
				return fmt.Errorf("failed to read plan: %w", err)
			}
			// The registry maps planner tokens back to names; code-like plans decode without it.
			comp, _ := rt.Service.Compile(flow, options.Defaults(), 0)
			res := rt.Service.Reconstruct(string(raw), comp, flow, false)
			overlay = &graph.PlanOverlay{Plan: res.Plan}
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(flow, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("plan", "", "Highlight the operators of this raw or code-like plan")
}
