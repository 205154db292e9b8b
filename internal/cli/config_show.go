package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rshade/needle/internal/config"
)

// NewConfigShowCmd creates the config show command printing the effective configuration.
func NewConfigShowCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Prints the configuration after merging defaults, the config file, the
project .needle.yaml overlay, environment variables and command-line flags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := configFromContext(cmd.Context())
			if err != nil {
				return err
			}
			switch output {
			case "", "yaml":
				data, marshalErr := yaml.Marshal(cfg)
				if marshalErr != nil {
					return fmt.Errorf("marshalling config: %w", marshalErr)
				}
				cmd.Print(string(data))
				return nil
			case config.FormatJSON:
				return writeJSON(cmd.OutOrStdout(), cfg)
			default:
				return fmt.Errorf("unsupported output %q: use yaml or json", output)
			}
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "output format: yaml or json")
	return cmd
}

// NewConfigPathCmd creates the config path command.
func NewConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "path",
		Short:       "Print the configuration file location",
		Annotations: map[string]string{annotationTolerateConfig: "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.Println(config.ConfigPath())
			wd, err := os.Getwd()
			if err != nil {
				return nil //nolint:nilerr // overlay lookup is best effort
			}
			if overlay := config.FindProjectOverlay(wd); overlay != "" {
				cmd.Printf("project overlay: %s\n", overlay)
			}
			return nil
		},
	}
}
