package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd(g *globalFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the HTTP API:

  POST   /v1/orchestrate            stream a pipeline run as server-sent events
  GET    /v1/runs                   list active runs
  DELETE /v1/runs/{id}              cancel a run
  GET    /v1/router/model           route one agent invocation
  GET    /v1/projects/{id}/state    final state of the last run
  GET    /v1/audit                  recent audit events
  GET    /metrics                   Prometheus metrics
  GET    /healthz                   health check`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server().Addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(ctx, cfg, os.Stderr)
			if err != nil {
				return err
			}
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := a.Close(closeCtx); err != nil {
					a.logger.ErrorWithStack(err, "Draining sinks failed")
				}
			}()

			a.logger.Info("Starting server",
				"addr", addr,
				"environment", cfg.Settings().Environment,
				"provider", cfg.Provider().Name,
			)
			return a.platform.Server().ListenAndServe(ctx, addr, shutdownTimeout)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default server.addr)")
	return cmd
}
