package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rshade/needle/internal/config"
	"github.com/rshade/needle/internal/engine/cache"
	"github.com/rshade/needle/internal/logging"
)

// logger is the package-level logger for CLI operations.
var logger = zerolog.Nop() //nolint:gochecknoglobals // Required for zerolog context integration

// annotationTolerateConfig marks commands that must run even when the
// configuration is invalid, such as config init.
const annotationTolerateConfig = "needle/tolerate-config"

// Persistent flag names.
const (
	flagDebug    = "debug"
	flagConfig   = "config"
	flagEndpoint = "endpoint"
	flagCacheTTL = "cache-ttl"
	flagNoCache  = "no-cache"
	flagStorage  = "storage"
)

// NewRootCmd creates the root command for the needle CLI.
func NewRootCmd(ver string) *cobra.Command {
	var logResult *logging.LogPathResult

	cmd := &cobra.Command{
		Use:   "needle",
		Short: "Semantic search over earnings call transcripts",
		Long: `needle answers natural-language questions about public-company earnings calls.

Answers come from the needle search service and are cached locally for a short
time, so repeating a question with the same filters is instant.`,
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				if cmd.Annotations[annotationTolerateConfig] != "true" {
					return err
				}
				cmd.PrintErrf("Warning: %v; using defaults\n", err)
				cfg = config.Default()
				cmd.SetContext(withConfig(cmd.Context(), cfg))
			}
			result := setupLogging(cmd, cfg)
			logResult = &result
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return cleanupLogging(cmd, logResult)
		},
	}

	cmd.PersistentFlags().Bool(flagDebug, false, "enable debug logging")
	cmd.PersistentFlags().String(flagConfig, "", "config file (default $NEEDLE_HOME/config.yaml)")
	cmd.PersistentFlags().String(flagEndpoint, "", "search service URL (overrides config and NEEDLE_ENDPOINT)")
	cmd.PersistentFlags().
		Int(flagCacheTTL, 0, "cache TTL in seconds (0 = use config default, overrides config file and env var)")
	cmd.PersistentFlags().Bool(flagNoCache, false, "bypass the local answer cache")
	cmd.PersistentFlags().String(flagStorage, "", "cache storage backend: file, sqlite or memory")

	// cmd.Print* falls back to stderr when no output is set; results belong on stdout.
	cmd.SetOut(os.Stdout)

	cmd.AddCommand(
		NewSearchCmd(),
		NewTUICmd(),
		newCacheCmd(),
		NewMetadataCmd(),
		newConfigCmd(),
		NewDoctorCmd(),
		NewSetupCmd(),
		NewDevServerCmd(),
		NewVersionCmd(ver),
	)

	return cmd
}

// loadConfig builds the effective config, applies persistent flag overrides
// and validates the result. The config is stored on the command context.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	if path, _ := cmd.Flags().GetString(flagConfig); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		if envErr := config.ApplyEnvOverrides(loaded); envErr != nil {
			cmd.PrintErrf("Warning: %v\n", envErr)
		}
		cfg = loaded
	} else {
		global := *config.GetGlobalConfig()
		cfg = &global
	}

	if endpoint, _ := cmd.Flags().GetString(flagEndpoint); endpoint != "" {
		cfg.Service.Endpoint = endpoint
	}
	ttl, _ := cmd.Flags().GetInt(flagCacheTTL)
	if ttl < 0 {
		return nil, fmt.Errorf("cache-ttl must be >= 0, got %d", ttl)
	}
	if ttl > 0 {
		if err := cache.ValidateTTLSeconds(ttl); err != nil {
			return nil, fmt.Errorf("cache-ttl: %w", err)
		}
		cfg.Cache.TTLSeconds = ttl
	}
	if noCache, _ := cmd.Flags().GetBool(flagNoCache); noCache {
		cfg.Cache.Enabled = false
	}
	if backend, _ := cmd.Flags().GetString(flagStorage); backend != "" {
		cfg.Storage.Backend = backend
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	cmd.SetContext(withConfig(cmd.Context(), cfg))
	return cfg, nil
}

var errNoConfig = errors.New("configuration not loaded")

// newConfigCmd creates the config command group.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management commands"}
	cmd.AddCommand(NewConfigInitCmd(), NewConfigShowCmd(), NewConfigPathCmd(), NewConfigValidateCmd())
	return cmd
}

// newCacheCmd creates the cache command group.
func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "cache", Short: "Inspect and manage the local answer cache"}
	cmd.AddCommand(NewCacheClearCmd(), NewCacheStatsCmd(), NewCachePruneCmd())
	return cmd
}

const rootCmdExample = `  # Ask a question
  needle search "how did gross margin trend"

  # Narrow to a company, quarter and section
  needle search "guidance for next quarter" --company NVDA --quarter "Q4 2023" --section qa

  # Interactive search
  needle tui

  # Machine-readable output, bypassing the cache
  needle search "buybacks" --output json --no-cache

  # Run a local fixture-backed search service
  needle devserver --addr 127.0.0.1:8000

  # Check that the service is reachable and compatible
  needle doctor`
