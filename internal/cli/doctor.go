package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/needle/internal/client"
)

const doctorTimeout = 10 * time.Second

var errDoctorFailed = errors.New("one or more checks failed")

// doctorCheck is the outcome of one doctor probe.
type doctorCheck struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail"`
}

// NewDoctorCmd creates the doctor command checking service and cache health.
func NewDoctorCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that the search service and local cache are usable",
		Long: `Checks that:
- the search service answers /healthz
- the service version satisfies ` + client.SupportedServiceVersions + `
- the cache storage can be read`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), doctorTimeout)
			defer cancel()
			checks := runDoctorChecks(ctx, a)

			if output == "json" {
				if err := writeJSON(cmd.OutOrStdout(), checks); err != nil {
					return err
				}
			} else {
				for _, c := range checks {
					mark := "ok  "
					if !c.OK {
						mark = "FAIL"
					}
					cmd.Printf("[%s] %-10s %s\n", mark, c.Name, c.Detail)
				}
			}

			for _, c := range checks {
				if !c.OK {
					return errDoctorFailed
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output format: json for machine-readable results")
	return cmd
}

func runDoctorChecks(ctx context.Context, a *app) []doctorCheck {
	checks := []doctorCheck{{Name: "config", OK: true, Detail: "endpoint " + a.cfg.Service.Endpoint}}

	health, err := a.client.Health(ctx)
	if err != nil {
		checks = append(checks,
			doctorCheck{Name: "service", Detail: err.Error()},
			doctorCheck{Name: "version", Detail: "skipped: service unreachable"},
		)
	} else {
		checks = append(checks, doctorCheck{Name: "service", OK: true, Detail: "status " + health.Status})
		if compatErr := client.CheckCompatibility(health.Version); compatErr != nil {
			checks = append(checks, doctorCheck{Name: "version", Detail: compatErr.Error()})
		} else {
			detail := health.Version
			if detail == "" {
				detail = "not reported"
			}
			checks = append(checks, doctorCheck{Name: "version", OK: true, Detail: detail})
		}
	}

	checks = append(checks, cacheCheck(a))
	return checks
}

func cacheCheck(a *app) doctorCheck {
	if !a.cache.IsEnabled() {
		return doctorCheck{Name: "cache", OK: true, Detail: "disabled"}
	}
	if a.kv == nil {
		return doctorCheck{Name: "cache", Detail: "storage backend " + a.cfg.Storage.Backend + " could not be opened"}
	}
	stats, err := a.cache.Stats()
	if err != nil {
		return doctorCheck{Name: "cache", Detail: err.Error()}
	}
	if stats.Corrupt {
		return doctorCheck{Name: "cache", Detail: "table is corrupt; run `needle cache clear`"}
	}
	return doctorCheck{
		Name:   "cache",
		OK:     true,
		Detail: fmt.Sprintf("%s backend, %d entries", a.cfg.Storage.Backend, stats.Entries),
	}
}
