package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rshade/needle/internal/cli/pagination"
	"github.com/rshade/needle/internal/config"
	"github.com/rshade/needle/internal/engine"
)

// metadataOutput is the JSON shape of the metadata command.
type metadataOutput struct {
	Companies  []engine.Company `json:"companies"`
	Quarters   []string         `json:"quarters"`
	Pagination pagination.Meta  `json:"pagination"`
}

// NewMetadataCmd creates the metadata command listing the filter vocabulary.
func NewMetadataCmd() *cobra.Command {
	var (
		output  string
		sortStr string
		params  = pagination.NewParams()
	)

	cmd := &cobra.Command{
		Use:   "metadata",
		Short: "List the companies and quarters the service can filter on",
		Example: `  # All companies, sorted by name
  needle metadata

  # First ten companies by ticker, descending
  needle metadata --sort ticker:desc --limit 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := params.Validate(); err != nil {
				return err
			}
			field, order, err := pagination.ParseSort(sortStr)
			if err != nil {
				return err
			}
			sorter := pagination.NewCompanySorter()
			if field == "" {
				field = pagination.FieldName
			}
			if !sorter.IsValidField(field) {
				return fmt.Errorf("%w: %q (valid: %v)", pagination.ErrInvalidSortField, field, sorter.GetValidFields())
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			format, err := resolveFormat(output, a.cfg)
			if err != nil {
				return err
			}

			vocab, err := a.metadata.Load(cmd.Context())
			if err != nil {
				return err
			}

			sorted := sorter.Sort(vocab.Companies, field, order)
			page := pagination.Apply(*params, sorted)
			out := metadataOutput{
				Companies:  page,
				Quarters:   vocab.Quarters,
				Pagination: pagination.NewMeta(*params, len(sorted), len(page)),
			}
			if out.Quarters == nil {
				out.Quarters = []string{}
			}

			switch format {
			case config.FormatJSON:
				return writeJSON(cmd.OutOrStdout(), out)
			case config.FormatPlain:
				for _, c := range out.Companies {
					cmd.Printf("%s\t%s\n", c.Ticker, c.Name)
				}
				return nil
			default:
				return renderMetadataTable(cmd, out)
			}
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output format: table, json or plain")
	cmd.Flags().StringVar(&sortStr, "sort", "", "sort companies by name or ticker, optionally with :asc or :desc")
	cmd.Flags().IntVar(&params.Limit, "limit", pagination.DefaultLimit, "maximum companies to list (0 = all)")
	cmd.Flags().IntVar(&params.Offset, "offset", pagination.DefaultOffset, "companies to skip")
	return cmd
}

func renderMetadataTable(cmd *cobra.Command, out metadataOutput) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, tabPadding, ' ', 0)
	fmt.Fprintln(w, "TICKER\tCOMPANY")
	for _, c := range out.Companies {
		fmt.Fprintf(w, "%s\t%s\n", c.Ticker, c.Name)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if out.Pagination.HasNext {
		cmd.Printf("\nShowing %d of %d companies (use --offset %d for more)\n",
			out.Pagination.Returned, out.Pagination.TotalItems, out.Pagination.Offset+out.Pagination.Returned)
	}
	if len(out.Quarters) > 0 {
		cmd.Printf("\nQuarters: %s\n", strings.Join(out.Quarters, ", "))
	}
	return nil
}
