package cli

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/rshade/needle/pkg/version"
)

// NewVersionCmd creates the version command.
func NewVersionCmd(ver string) *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Annotations: map[string]string{annotationTolerateConfig: "true"},
		Args:        cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			if short {
				cmd.Println(ver)
				return
			}
			cmd.Printf("needle %s\n", ver)
			cmd.Printf("  commit:  %s\n", version.GetGitCommit())
			cmd.Printf("  built:   %s\n", version.GetBuildDate())
			cmd.Printf("  go:      %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}

	cmd.Flags().BoolVar(&short, "short", false, "print only the version number")
	return cmd
}
