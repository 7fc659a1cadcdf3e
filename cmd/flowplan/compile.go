package main

import (
	"fmt"
	"runtime"

	"github.com/aretw0/flowplan/internal/cli"
	"github.com/spf13/cobra"
)

var compileCmd = &cobra.Command{
	Use:   "compile <flow>...",
	Short: "Compile flow documents to PDDL",
	Long: `Compiles flows into a PDDL domain and problem.

With a single flow and no --out, both are printed to stdout. Otherwise each flow
is written to <out>/<name>.domain.pddl and <out>/<name>.problem.pddl, compiling
up to --jobs flows at a time.`,
	Args: cobra.MinimumNArgs(1),
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
		out, _ := cmd.Flags().GetString("out")

		if len(args) == 1 && out == "" {
			flow, err := cli.LoadFlow(args[0], rt.Catalog, cmd.InOrStdin())
			if err != nil {
				return err
			}
			comp, err := rt.Service.Compile(flow, set, lookahead)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), comp.PDDL.Domain)
			fmt.Fprintln(cmd.OutOrStdout(), comp.PDDL.Problem)
			return nil
		}

		jobs, _ := cmd.Flags().GetInt("jobs")
		outcomes, err := cli.CompileAll(cmd.Context(), rt.Service, cli.Jobs(args, out), rt.Catalog, set, lookahead, jobs)
		for _, o := range outcomes {
			if o.Err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "FAIL %s: %v\n", o.Job.Path, o.Err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok   %s -> %s, %s\n", o.Job.Path, o.Job.Domain, o.Job.Problem)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(compileCmd)
	addOptionFlags(compileCmd)
	compileCmd.Flags().StringP("out", "o", "", "Directory for the PDDL files")
	compileCmd.Flags().IntP("jobs", "j", runtime.NumCPU(), "Flows compiled concurrently")
}
