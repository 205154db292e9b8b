package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/needle/internal/config"
	"github.com/rshade/needle/internal/engine/cache"
	"github.com/rshade/needle/internal/storage"
	"github.com/rshade/needle/internal/tui"
)

var errConfirmationRequired = errors.New("refusing to clear the cache without confirmation; pass --yes")

// NewCacheClearCmd creates the cache clear command.
func NewCacheClearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every cached answer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if !a.cache.IsEnabled() {
				cmd.Println("Cache is disabled; nothing to clear.")
				return nil
			}

			if !yes {
				if !tui.IsTTY() {
					return errConfirmationRequired
				}
				stats, _ := a.cache.Stats()
				question := fmt.Sprintf("Clear %d cached answer(s)?", stats.Entries)
				if res := Confirm(cmd.OutOrStdout(), cmd.InOrStdin(), question); !res.Accepted {
					cmd.Println("Aborted.")
					return nil
				}
			}

			if err := a.cache.Clear(); err != nil {
				return err
			}
			cmd.Println("Cache cleared.")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

// NewCachePruneCmd creates the cache prune command.
func NewCachePruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove expired answers from the cache",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			removed, status := a.cache.Prune()
			switch status {
			case cache.StatusDisabled:
				cmd.Println("Cache is disabled; nothing to prune.")
			case cache.StatusDegraded:
				return errors.New("cache storage is unavailable or corrupt; run `needle cache clear`")
			default:
				cmd.Printf("Removed %d expired answer(s).\n", removed)
			}
			return nil
		},
	}
}

// cacheStatsOutput is the JSON shape of cache stats.
type cacheStatsOutput struct {
	Enabled    bool       `json:"enabled"`
	Backend    string     `json:"backend"`
	Directory  string     `json:"directory,omitempty"`
	StorageKey string     `json:"storage_key"`
	TTLSeconds int        `json:"ttl_seconds"`
	Entries    int        `json:"entries"`
	Fresh      int        `json:"fresh"`
	Expired    int        `json:"expired"`
	Bytes      int        `json:"bytes"`
	Corrupt    bool       `json:"corrupt"`
	Oldest     *time.Time `json:"oldest,omitempty"`
	Newest     *time.Time `json:"newest,omitempty"`
}

// NewCacheStatsCmd creates the cache stats command.
func NewCacheStatsCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show what the cache holds",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			format, err := resolveFormat(output, a.cfg)
			if err != nil {
				return err
			}
			stats, err := a.cache.Stats()
			if err != nil {
				return err
			}

			out := cacheStatsOutput{
				Enabled:    a.cache.IsEnabled(),
				Backend:    a.cfg.Storage.Backend,
				StorageKey: a.cache.StorageKey(),
				TTLSeconds: int(a.cache.TTL() / time.Second),
				Entries:    stats.Entries,
				Fresh:      stats.Fresh,
				Expired:    stats.Expired,
				Bytes:      stats.Bytes,
				Corrupt:    stats.Corrupt,
			}
			if a.cfg.Storage.Backend != storage.BackendMemory {
				out.Directory = a.cfg.StorageOptions().Directory
			}
			if !stats.Oldest.IsZero() {
				out.Oldest, out.Newest = &stats.Oldest, &stats.Newest
			}

			if format == config.FormatJSON {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			return renderCacheStats(cmd, out)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output format: table, json or plain")
	return cmd
}

func renderCacheStats(cmd *cobra.Command, s cacheStatsOutput) error {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Enabled:     %t\n", s.Enabled)
	fmt.Fprintf(w, "Backend:     %s\n", s.Backend)
	if s.Directory != "" {
		fmt.Fprintf(w, "Directory:   %s\n", s.Directory)
	}
	fmt.Fprintf(w, "Storage key: %s\n", s.StorageKey)
	fmt.Fprintf(w, "TTL:         %s\n", cache.FormatDuration(time.Duration(s.TTLSeconds)*time.Second))
	fmt.Fprintf(w, "Entries:     %d (%d fresh, %d expired)\n", s.Entries, s.Fresh, s.Expired)
	fmt.Fprintf(w, "Size:        %d bytes\n", s.Bytes)
	if s.Oldest != nil {
		fmt.Fprintf(w, "Oldest:      %s\n", s.Oldest.Local().Format(time.RFC3339))
		fmt.Fprintf(w, "Newest:      %s\n", s.Newest.Local().Format(time.RFC3339))
	}
	if s.Corrupt {
		fmt.Fprintln(w, "Warning: the cache table is corrupt and will be rewritten on the next search.")
	}
	return nil
}
