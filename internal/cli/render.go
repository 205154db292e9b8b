package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rshade/needle/internal/config"
	"github.com/rshade/needle/internal/engine"
	"github.com/rshade/needle/internal/engine/cache"
	"github.com/rshade/needle/internal/transcript"
	"github.com/rshade/needle/internal/tui"
)

const (
	tabPadding     = 2
	excerptPreview = 96
)

// searchOutput is the JSON shape of a search result.
type searchOutput struct {
	Query       string               `json:"query"`
	Filters     cache.Filters        `json:"filters"`
	Answer      string               `json:"answer"`
	Snippets    []transcript.Snippet `json:"snippets"`
	Cached      bool                 `json:"cached"`
	CacheStatus string               `json:"cache_status"`
}

func newSearchOutput(st engine.SearchState) searchOutput {
	snippets := st.Snippets
	if snippets == nil {
		snippets = []transcript.Snippet{}
	}
	return searchOutput{
		Query:       st.Query.Text,
		Filters:     st.Query.Filters,
		Answer:      st.Answer,
		Snippets:    snippets,
		Cached:      st.FromCache,
		CacheStatus: st.CacheStatus.String(),
	}
}

// renderSearch writes a successful search state in format.
func renderSearch(w io.Writer, format string, mode tui.OutputMode, st engine.SearchState) error {
	switch format {
	case config.FormatJSON:
		return writeJSON(w, newSearchOutput(st))
	case config.FormatPlain:
		return renderSearchPlain(w, st)
	default:
		if mode != tui.OutputModePlain {
			_, err := fmt.Fprint(w, tui.RenderResult(st, tui.TerminalWidth()))
			return err
		}
		return renderSearchTable(w, st)
	}
}

func renderSearchPlain(w io.Writer, st engine.SearchState) error {
	var b strings.Builder
	b.WriteString(st.Answer)
	b.WriteString("\n")
	for i, s := range st.Snippets {
		fmt.Fprintf(&b, "\n[%d] %s\n", i+1, tui.SnippetHeading(s))
		if sp := tui.SpeakerLine(s); sp != "" {
			fmt.Fprintf(&b, "    %s\n", sp)
		}
		fmt.Fprintf(&b, "    %s\n", s.Text)
		if s.SourceURL != "" {
			fmt.Fprintf(&b, "    %s\n", s.SourceURL)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func renderSearchTable(w io.Writer, st engine.SearchState) error {
	if _, err := fmt.Fprintf(w, "%s\n\n", st.Answer); err != nil {
		return err
	}
	if len(st.Snippets) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, tabPadding, ' ', 0)
	fmt.Fprintln(tw, "#\tCompany\tPeriod\tSection\tExcerpt")
	fmt.Fprintln(tw, "-\t-------\t------\t-------\t-------")
	for i, s := range st.Snippets {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			i+1, s.Company, s.Period(), s.Section.Label(), preview(s.Text, excerptPreview))
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// preview collapses whitespace and shortens s to maxLen runes.
func preview(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

// resolveFormat picks --output, falling back to the configured default.
func resolveFormat(flagValue string, cfg *config.Config) (string, error) {
	format := strings.ToLower(strings.TrimSpace(flagValue))
	if format == "" {
		format = cfg.Output.DefaultFormat
	}
	if !config.IsValidOutputFormat(format) {
		return "", fmt.Errorf("%w: got %q", config.ErrInvalidOutputFormat, format)
	}
	return format, nil
}
