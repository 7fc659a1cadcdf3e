package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/flowplan/internal/cli"
	"github.com/aretw0/flowplan/internal/logging"
	httpAdapter "github.com/aretw0/flowplan/pkg/adapters/http"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  `Serves /validate, /compile, /plan and /metrics as a JSON API over HTTP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetString("port")

		rt, err := runtimeFor(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		handler := httpAdapter.NewHandler(rt.Service,
			httpAdapter.WithLogger(logging.WithComponent(rt.Logger, "http")),
			httpAdapter.WithMetrics(rt.Metrics.Registry()),
		)

		srv := &http.Server{
			Addr:              ":" + port,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			rt.Logger.Info("starting flowplan server", "addr", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			rt.Logger.Info("shutting down", "signal", ctx.Signal())

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				rt.Logger.Warn("graceful shutdown did not complete", "timeout", 5*time.Second, "err", err)
				return srv.Close()
			}
			rt.Logger.Info("flowplan server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
}
