package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/contractlint/pkg/lint"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "contractlint.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func lintFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("lint", pflag.ContinueOnError)
	fs.StringP("output", "o", "", "")
	fs.String("format", "", "")
	fs.StringSlice("disable", nil, "")
	fs.StringSlice("rule", nil, "")
	fs.String("severity", "hint", "")
	fs.Int("jobs", 0, "")
	fs.Bool("cache", false, "")
	fs.String("cache-path", "", "")
	fs.String("policy", "", "")
	fs.Int("port", 0, "")
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, DefaultCacheSize, cfg.Cache.Size)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, lint.SeverityHint, cfg.Lint.MinSeverity)
	assert.Empty(t, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())

	wantRoot, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	gotRoot, err := filepath.EvalSymlinks(cfg.ProjectRoot)
	require.NoError(t, err)
	assert.Equal(t, wantRoot, gotRoot)
}

func TestLoadConfig_File(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	path := writeConfig(t, dir, `output: json
jobs: 4
policy: policy.yaml
cache:
  enabled: true
  path: cache/reports.db
lint:
  disabled: [SYNTAX_NESTED_FUNCTION]
  min_severity: warning
  severity:
    UNUSED_IMPORT: error
  rules:
    EXPORT_UNKNOWN_DECORATOR:
      allowed_decorators: [view]
`)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, path, GetConfigFileUsed())
	assert.Equal(t, "json", cfg.OutputFormat)
	assert.Equal(t, 4, cfg.Jobs)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, filepath.Join(dir, "cache", "reports.db"), cfg.Cache.Path)
	assert.Equal(t, filepath.Join(dir, "policy.yaml"), cfg.Policy)
	assert.Equal(t, lint.SeverityWarning, cfg.Lint.MinSeverity)
	assert.Equal(t, map[string]lint.Severity{"UNUSED_IMPORT": lint.SeverityError}, cfg.Lint.Severity)

	rc := cfg.RuleConfig()
	assert.True(t, rc.IsDisabled("SYNTAX_NESTED_FUNCTION"))
	assert.Equal(t, lint.SeverityError, rc.GetSeverity("UNUSED_IMPORT", lint.SeverityWarning))
	assert.Equal(t, []string{"view"},
		lint.GetStringSliceOption(rc.GetRuleOptions("EXPORT_UNKNOWN_DECORATOR"), "allowed_decorators", nil))
}

func TestLoadConfig_FoundUpward(t *testing.T) {
	ResetConfig()
	root := t.TempDir()
	writeConfig(t, root, "jobs: 2\n")
	nested := filepath.Join(root, "contracts", "tokens")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	t.Chdir(nested)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Jobs)
	assert.Equal(t, "contractlint.yaml", filepath.Base(GetConfigFileUsed()))
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	path := writeConfig(t, dir, "output: text\n")
	t.Setenv("CONTRACTLINT_OUTPUT", "markdown")
	t.Setenv("CONTRACTLINT_LINT__DISABLED", "unused_import,unused_variable")
	t.Setenv("CONTRACTLINT_SERVER__PORT", "9000")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "markdown", cfg.OutputFormat)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, []string{"unused_import", "unused_variable"}, cfg.Lint.Disabled)
	assert.True(t, cfg.RuleConfig().IsDisabled("UNUSED_VARIABLE"))
}

func TestLoadConfig_FlagsOverrideEverything(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	path := writeConfig(t, dir, "output: text\nlint:\n  min_severity: info\n")
	t.Setenv("CONTRACTLINT_OUTPUT", "markdown")
	t.Chdir(dir)

	flags := lintFlags(t,
		"--format", "json",
		"--rule", "EXPORT_NESTED",
		"--rule", "SECURITY_DENYLIST",
		"--severity", "error",
		"--cache",
		"--cache-path", ":memory:",
		"--port", "9100",
	)
	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.OutputFormat)
	assert.Equal(t, []string{"EXPORT_NESTED", "SECURITY_DENYLIST"}, cfg.Lint.Only)
	assert.Equal(t, lint.SeverityError, cfg.Lint.MinSeverity)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, ":memory:", cfg.Cache.Path)
	assert.Equal(t, 9100, cfg.Server.Port)

	rc := cfg.RuleConfig()
	assert.False(t, rc.IsDisabled("EXPORT_NESTED"))
	assert.True(t, rc.IsDisabled("UNUSED_IMPORT"))
}

func TestLoadConfig_UnchangedFlagsIgnored(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	path := writeConfig(t, dir, "jobs: 3\n")

	cfg, err := LoadConfig(path, lintFlags(t))
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Jobs)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		errSubstr string
	}{
		{"unknown output", "output: yaml\n", "unknown output format"},
		{"bad severity", "lint:\n  min_severity: fatal\n", "unable to decode config"},
		{"negative jobs", "jobs: -1\n", "jobs must not be negative"},
		{"port range", "server:\n  port: 70000\n", "server.port out of range"},
		{"docs url", "docs_url: ftp://docs\n", "docs_url must be an http(s) URL"},
		{"only and disabled", "lint:\n  only: [A]\n  disabled: [A]\n", "rule A is both selected and disabled"},
		{"malformed yaml", "lint: [\n", "error reading config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetConfig()
			path := writeConfig(t, t.TempDir(), tt.content)
			_, err := LoadConfig(path, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	ResetConfig()
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))

	logger := slog.New(slog.DiscardHandler)
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, GetLogger(ctx))
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.False(t, cfg.RuleConfig().IsDisabled("EXPORT_NESTED"))
}
