package commands

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/contractlint/internal/cli/config"
)

// execute runs cmd in dir the way the root command does: configuration is
// loaded from dir, the environment and the command's flags first.
func execute(t *testing.T, dir string, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)
	t.Chdir(dir)

	cmd.PreRunE = func(c *cobra.Command, _ []string) error {
		_, err := config.LoadConfig("", c.Flags())
		return err
	}
	cmd.SilenceUsage, cmd.SilenceErrors = true, true
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}
