package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"loadtest-db/config"
	"loadtest-db/logging"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "   [ERROR] %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loadtest-db",
		Short: "Load test a Postgres or MySQL server and measure replica lag",
		Long: `Runs a fixed sequence of concurrent load scenarios against the primary,
prints per-scenario throughput and latency, then optionally measures how long
writes take to become visible on a streaming replica.

Connection settings come from DB_HOST/DB_PORT/DB_USER/DB_PASSWORD/DB_NAME
(PRIMARY_* as fallback). Set ENABLE_REPLICATION_TEST=true and REPLICA_HOST
to run the replication lag test.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			palette := logging.NewPalette(!logging.ColorsDisabledByEnv())
			log, err := logging.New(cmd.OutOrStdout(), cfg.LogLevel, palette)
			if err != nil {
				return err
			}

			h := &harness{
				cfg:     cfg,
				log:     log,
				out:     cmd.OutOrStdout(),
				palette: palette,
				connect: connectorFor(cfg),
				runID:   uuid.NewString(),
			}
			return h.run(cmd.Context())
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}
