package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/flowplan"
	"github.com/aretw0/flowplan/internal/cli"
	"github.com/aretw0/flowplan/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <flow>...",
	Short: "Run the validation checks on flow documents",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := runtimeFor(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		asJSON, _ := cmd.Flags().GetBool("json")
		color := !asJSON && tui.IsTerminal(os.Stdout)
		report := tui.NewReport(cmd.OutOrStdout(), color)

		var results []flowplan.ValidationResult
		invalid := 0
		for _, path := range args {
			flow, err := cli.LoadFlow(path, rt.Catalog, cmd.InOrStdin())
			if err != nil {
				return err
			}
			res := rt.Service.Validate(flow)
			if !res.Valid() {
				invalid++
			}
			if asJSON {
				results = append(results, res)
				continue
			}
			fmt.Fprint(cmd.OutOrStdout(), report.Render(res))
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(results); err != nil {
				return err
			}
		}
		if invalid > 0 {
			return fmt.Errorf("%d of %d flows are invalid", invalid, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("json", false, "Print results as JSON")
}
