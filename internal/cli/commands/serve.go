package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/contractlint/internal/cache"
	"github.com/leapstack-labs/contractlint/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the linter over HTTP",
		Long: `Start an HTTP server exposing the linter.

Endpoints:
  POST /v1/lint          lint {"code": "..."} and return the report
  GET  /v1/rules         list rules, optionally ?group=orm
  GET  /v1/rules/{code}  show one rule
  GET  /healthz          liveness check

With --cache, reports are stored in the cache database and reused for
identical code under identical settings.`,
		Example: `  # Serve on the default port
  contractlint serve

  # Serve on a custom port with a persistent report cache
  contractlint serve --port 9000 --cache`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().Int("port", 0, "Port to serve on (default: 8787)")
	cmd.Flags().String("policy", "", "Policy file (.yaml or .star)")
	cmd.Flags().Bool("cache", false, "Cache reports in the cache database")
	cmd.Flags().String("cache-path", "", "Report cache database")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store *cache.Store
	if cc.Cfg.Cache.Enabled {
		if store, err = openStore(ctx, cc); err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
	}

	srv, err := server.New(server.Config{
		Port:       cc.Cfg.Server.Port,
		Linter:     cc.Linter,
		Store:      store,
		ConfigHash: cc.ConfigHash,
		Logger:     cc.Logger,
	})
	if err != nil {
		return err
	}

	cc.Renderer.Printf("Serving contractlint on http://localhost:%d\n", cc.Cfg.Server.Port)
	cc.Renderer.Println("Press Ctrl+C to stop")
	return srv.Serve(ctx)
}

// commandContext returns the context of cmd, which is nil when the command
// is executed without a parent context.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
