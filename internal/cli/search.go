package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rshade/needle/internal/engine"
	"github.com/rshade/needle/internal/logging"
	"github.com/rshade/needle/internal/tui"
)

// searchFlags holds the filter and output flags shared by search and tui.
type searchFlags struct {
	company string
	quarter string
	section string
	output  string
}

func (f *searchFlags) register(cmd *cobra.Command, withOutput bool) {
	cmd.Flags().StringVar(&f.company, "company", "", "company ticker or name, e.g. AAPL or \"Apple Inc.\"")
	cmd.Flags().StringVar(&f.quarter, "quarter", "", "fiscal quarter, e.g. \"Q1 2024\"")
	cmd.Flags().StringVar(&f.section, "section", "", "transcript section: prepared_remarks or qa")
	if withOutput {
		cmd.Flags().StringVarP(&f.output, "output", "o", "", "output format: table, json or plain")
	}
}

func (f *searchFlags) input() engine.FilterInput {
	return engine.FilterInput{Company: f.company, Quarter: f.quarter, Section: f.section}
}

// NewSearchCmd creates the one-shot search command.
func NewSearchCmd() *cobra.Command {
	var flags searchFlags

	cmd := &cobra.Command{
		Use:   "search <question>",
		Short: "Ask a question and print the answer with its supporting snippets",
		Example: `  needle search "how did gross margin trend"
  needle search "data center demand" --company NVDA --section qa
  needle search "capital returns" --quarter "Q1 2024" --output json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, strings.Join(args, " "), flags)
		},
	}
	flags.register(cmd, true)
	return cmd
}

func runSearch(cmd *cobra.Command, text string, flags searchFlags) error {
	ctx := cmd.Context()
	log := logging.FromContext(ctx)

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("closing app")
		}
	}()

	format, err := resolveFormat(flags.output, a.cfg)
	if err != nil {
		return err
	}

	filters, err := engine.ResolveFilters(ctx, a.metadata, flags.input())
	if err != nil {
		return err
	}

	st, err := a.orchestrator.Submit(ctx, engine.Query{Text: text, Filters: filters})
	if err != nil {
		return err
	}
	log.Debug().Ctx(ctx).
		Str("state", st.Kind.String()).
		Bool("cached", st.FromCache).
		Str("cache", st.CacheStatus.String()).
		Msg("search finished")

	if st.Kind == engine.StateError {
		return st.Err
	}
	return renderSearch(cmd.OutOrStdout(), format, tui.DetectOutputMode(false, false, true), st)
}

// NewTUICmd creates the interactive search command.
func NewTUICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui [question]",
		Short: "Interactive search",
		Long: `Opens an interactive search screen.

Filters cycle through the companies and quarters reported by the service:
ctrl+t company, ctrl+p quarter, ctrl+s section. ctrl+x clears the cache.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if tui.DetectOutputMode(false, false, false) != tui.OutputModeInteractive {
				return errors.New("tui requires an interactive terminal; use `needle search` instead")
			}
			relay := tui.NewStateRelay()
			a, err := newApp(cmd, engine.WithObserver(relay.Observe))
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			return tui.Run(ctx, tui.Callbacks{
				Submit:     a.orchestrator.Submit,
				Vocabulary: a.metadata.Load,
				ClearCache: a.cache.Clear,
				Relay:      relay,
			}, strings.Join(args, " "))
		},
	}
	return cmd
}
