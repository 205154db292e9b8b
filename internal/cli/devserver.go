package cli

import (
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/needle/internal/devserver"
	"github.com/rshade/needle/internal/logging"
)

// NewDevServerCmd creates the devserver command serving a fixture-backed search API.
func NewDevServerCmd() *cobra.Command {
	var (
		addr     string
		fixtures string
		latency  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "devserver",
		Short: "Run a local fixture-backed search service",
		Long: `Serves /search, /metadata and /healthz from a YAML fixture file so the CLI
and TUI can be exercised without the real retrieval service.`,
		Example: `  # Serve the built-in fixtures
  needle devserver

  # Serve custom fixtures with simulated latency
  needle devserver --fixtures ./fixtures.yaml --latency 800ms`,
		Annotations: map[string]string{annotationTolerateConfig: "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := devserver.DefaultFixtures()
			if fixtures != "" {
				loaded, err := devserver.LoadFixtures(fixtures)
				if err != nil {
					return err
				}
				f = loaded
			}

			log := logging.ComponentLogger(*logging.FromContext(cmd.Context()), "devserver")
			srv := devserver.New(f, devserver.WithLogger(log), devserver.WithLatency(latency))

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return srv.ListenAndServe(ctx, addr, func(a net.Addr) {
				cmd.Printf("Serving %d documents on http://%s (Ctrl+C to stop)\n", len(f.Documents), a)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8000", "listen address")
	cmd.Flags().StringVar(&fixtures, "fixtures", "", "YAML fixture file (default: built-in fixtures)")
	cmd.Flags().DurationVar(&latency, "latency", 0, "artificial delay added to /search responses")
	return cmd
}
