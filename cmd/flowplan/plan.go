package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/flowplan"
	"github.com/aretw0/flowplan/internal/cli"
	"github.com/aretw0/flowplan/internal/presentation/codelike"
	"github.com/aretw0/flowplan/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan <flow>",
	Short: "Plan a flow with the configured planner",
	Long: `Compiles the flow, sends it to the planner and prints the plan in the flow's
own names. With --raw, an existing planner output is decoded instead and no
planner is called.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := runtimeFor(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		set, lookahead, err := compileOptions(cmd, rt.Config)
		if err != nil {
			return err
		}
		flow, err := cli.LoadFlow(args[0], rt.Catalog, cmd.InOrStdin())
		if err != nil {
			return err
		}
		collapse, _ := cmd.Flags().GetBool("collapse-maps")

		var res *flowplan.PlanResult
		if rawPath, _ := cmd.Flags().GetString("raw"); rawPath != "" {
			raw, err := os.ReadFile(rawPath)
			if err != nil {
				return fmt.Errorf("failed to read raw plan: %w", err)
			}
			comp, err := rt.Service.Compile(flow, set, lookahead)
			if err != nil {
				return err
			}
			res = rt.Service.Reconstruct(string(raw), comp, flow, collapse)
		} else {
			res, err = rt.Service.Plan(cmd.Context(), flowplan.PlanRequest{
				Flow:         flow,
				Options:      set,
				Lookahead:    lookahead,
				CollapseMaps: collapse,
			})
			if err != nil {
				return err
			}
		}

		return printPlan(cmd, res)
	},
}

func printPlan(cmd *cobra.Command, res *flowplan.PlanResult) error {
	format, _ := cmd.Flags().GetString("format")
	opts := codelike.DefaultOptions()
	opts.ShowOutput, _ = cmd.Flags().GetBool("show-output")
	opts.LineNumbers, _ = cmd.Flags().GetBool("line-numbers")
	opts.StartAt, _ = cmd.Flags().GetInt("start-at")

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "markdown":
		fmt.Fprint(out, tui.Markdown(tui.PlanMarkdown(res, opts)))
	case "text", "":
		fmt.Fprintln(out, codelike.Format(res.Plan, opts))
		for _, w := range res.Warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: line %d: %s (%s)\n", w.Line, w.Text, w.Reason)
		}
	default:
		return fmt.Errorf("unknown format %q: expected text, json or markdown", format)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(planCmd)
	addOptionFlags(planCmd)
	planCmd.Flags().Bool("collapse-maps", false, "Fold map steps into the inputs of later steps")
	planCmd.Flags().String("raw", "", "Decode this raw planner output instead of calling the planner")
	planCmd.Flags().StringP("format", "f", "text", "Output format: text, json or markdown")
	planCmd.Flags().Bool("show-output", true, "Prefix steps with their outputs")
	planCmd.Flags().Bool("line-numbers", true, "Number the steps")
	planCmd.Flags().Int("start-at", 0, "First step number")
}
