package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/contractlint/pkg/lint"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display contractlint version and build information.`,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "contractlint v%s\n", version)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Smart contract linter with %d rules\n", lint.Count())
		},
	}
}
