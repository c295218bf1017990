package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/contractlint/internal/cli/commands"
	"github.com/leapstack-labs/contractlint/internal/cli/config"
	"github.com/leapstack-labs/contractlint/internal/cli/output"
)

func run(t *testing.T, dir string, args ...string) (string, string, error) {
	t.Helper()
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)
	t.Chdir(dir)
	cfgFile = ""

	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := NewRootCmd()
	names := make(map[string]bool)
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"version", "lint", "rules", "serve", "watch", "completion"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestRootCmd_LintWithConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "contractlint.yaml"),
		[]byte("output: json\nlint:\n  disabled: [UNUSED_IMPORT]\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "token.py"), []byte("import currency\n"), 0o644))

	out, _, err := run(t, dir, "lint")
	require.NoError(t, err)
	assert.Contains(t, out, `"total_issues": 0`)

	out, _, err = run(t, dir, "lint", "-o", "markdown", "--config", filepath.Join(dir, "contractlint.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "No lint issues found")
}

func TestRootCmd_LintFailure(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.py"), []byte("def f(:\n"), 0o644))

	out, errOut, err := run(t, dir, "lint", "-o", "json")
	require.ErrorIs(t, err, commands.ErrLintFailed)
	assert.Contains(t, out, "PARSE_ERROR")
	assert.NotContains(t, out, "Usage:")
	assert.NotContains(t, errOut, "Usage:")

	var got output.LintOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got), out)
	assert.Equal(t, 1, got.Summary.FilesFailed)
}

func TestRootCmd_VerboseLogs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "token.py"), []byte("x = 1\n"), 0o644))

	_, errOut, err := run(t, dir, "-v", "lint")
	require.NoError(t, err)
	assert.Contains(t, errOut, "collected contracts")
}

func TestRootCmd_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "contractlint.yaml"), []byte("output: yaml\n"), 0o644))

	_, _, err := run(t, dir, "rules")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestRootCmd_Completion(t *testing.T) {
	out, _, err := run(t, t.TempDir(), "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "contractlint")
}

func TestGetConfigAndRenderer_Defaults(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, config.DefaultPort, GetConfig(ctx).Server.Port)

	r := output.NewRendererWithTTY(&bytes.Buffer{}, &bytes.Buffer{}, false, output.ModeJSON)
	ctx = context.WithValue(ctx, rendererKey{}, r)
	assert.Same(t, r, GetRenderer(ctx))
}
