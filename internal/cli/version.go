package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func versionCmd(build BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("geonate %s\n", build.Version)
			fmt.Printf("  Build time: %s\n", build.BuildTime)
			fmt.Printf("  Git commit: %s\n", build.GitCommit)
		},
	}
}
