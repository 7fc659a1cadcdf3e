package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/flowplan"
	"github.com/aretw0/flowplan/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of flowplan",
	Run: func(cmd *cobra.Command, args []string) {
		if banner, _ := cmd.Flags().GetBool("banner"); banner {
			tui.PrintBanner(cmd.OutOrStdout(), strings.TrimSpace(flowplan.Version))
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "flowplan version %s\n", strings.TrimSpace(flowplan.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().Bool("banner", false, "Print the banner instead of the bare version")
}
