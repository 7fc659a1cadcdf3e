package main

import (
	"fmt"
	"log"

	"github.com/aretw0/flowplan/internal/cli"
	"github.com/aretw0/flowplan/internal/logging"
	"github.com/aretw0/flowplan/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes validate_flow, compile_flow and plan_flow as MCP tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		rt, err := runtimeFor(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		srv := mcp.NewServer(rt.Service, logging.WithComponent(rt.Logger, "mcp"))

		switch transport {
		case "stdio":
			// Ensure logs don't corrupt JSON-RPC on Stdout
			log.SetOutput(cmd.ErrOrStderr())
			rt.Logger.Info("starting flowplan MCP server (stdio)")
			return srv.ServeStdio()
		case "sse":
			ctx := cli.NewSignalContext(cmd.Context())
			defer ctx.Cancel()
			return srv.ServeSSE(ctx, port)
		default:
			return fmt.Errorf("unknown transport %q: expected stdio or sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringP("transport", "t", "stdio", "Transport: stdio or sse")
	mcpCmd.Flags().IntP("port", "p", 8080, "Port for the sse transport")
}
