package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rshade/needle/internal/config"
)

// NewConfigValidateCmd creates the config validate command for validating configuration.
func NewConfigValidateCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		Long: `Validates the configuration file for syntax and semantic correctness.

This includes:
- YAML syntax
- Service endpoint and timeout
- Cache TTL bounds
- Storage backend, log settings and output format`,
		Example: `  # Validate current configuration
  needle config validate

  # Validate a specific file and show the parsed values
  needle config validate --config ./ci.yaml --verbose`,
		Annotations: map[string]string{annotationTolerateConfig: "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigValidate(cmd, verbose)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed validation information")
	return cmd
}

func runConfigValidate(cmd *cobra.Command, verbose bool) error {
	path, _ := cmd.Flags().GetString(flagConfig)
	if path == "" {
		path = config.ConfigPath()
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		cmd.Printf("No configuration file at %s; defaults apply.\n", path)
		return nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	cmd.Printf("Configuration is valid: %s\n", path)
	if verbose {
		cmd.Printf("  endpoint:  %s\n", cfg.Service.Endpoint)
		cmd.Printf("  timeout:   %s\n", cfg.Service.Timeout)
		cmd.Printf("  cache:     enabled=%t ttl=%ds\n", cfg.Cache.Enabled, cfg.Cache.TTLSeconds)
		cmd.Printf("  storage:   %s\n", cfg.Storage.Backend)
		cmd.Printf("  logging:   %s/%s\n", cfg.Logging.Level, cfg.Logging.Format)
		cmd.Printf("  output:    %s\n", cfg.Output.DefaultFormat)
	}
	return nil
}
