package commands

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/contractlint/internal/cli/output"
	"github.com/leapstack-labs/contractlint/internal/cli/testutil"
	"github.com/leapstack-labs/contractlint/pkg/lint"
)

func decodeLint(t *testing.T, out string) output.LintOutput {
	t.Helper()
	var got output.LintOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got), out)
	return got
}

func TestNewLintCommand(t *testing.T) {
	cmd := NewLintCommand()

	assert.Equal(t, "lint [path...]", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Example)
	for _, flag := range []string{"format", "disable", "severity", "rule", "jobs", "policy", "cache", "cache-path"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestLintCommand_JSON(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	out, err := execute(t, dir, NewLintCommand(), "--format", "json", "contracts")
	require.ErrorIs(t, err, ErrLintFailed)

	got := decodeLint(t, out)
	assert.Equal(t, output.LintSummary{
		FilesAnalyzed: 2,
		FilesFailed:   1,
		TotalIssues:   3,
		Errors:        2,
		Warnings:      1,
	}, got.Summary)

	require.Len(t, got.Files, 2)
	dirty := got.Files[0]
	assert.Equal(t, filepath.Join("contracts", "dirty.py"), dirty.Path)
	assert.False(t, dirty.Pass)
	require.Len(t, dirty.Diagnostics, 3)
	assert.Equal(t, "SECURITY_DENYLIST", dirty.Diagnostics[0].RuleID)
	assert.Equal(t, 1, dirty.Diagnostics[0].Line)
	assert.Equal(t, lint.BuildDocURL("SECURITY_DENYLIST"), dirty.Diagnostics[0].DocURL)

	clean := got.Files[1]
	assert.True(t, clean.Pass)
	assert.Empty(t, clean.Diagnostics)
}

func TestLintCommand_Filters(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		wantErr      bool
		wantErrors   int
		wantWarnings int
	}{
		{"severity error", []string{"--severity", "error"}, true, 2, 0},
		{"disable denylist", []string{"--disable", "SECURITY_DENYLIST"}, false, 0, 1},
		{"only unused import", []string{"--rule", "UNUSED_IMPORT"}, false, 0, 1},
		{"only denylist", []string{"--rule", "SECURITY_DENYLIST"}, true, 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := testutil.SetupTestProject(t)
			args := append([]string{"-f", "json", "contracts/dirty.py"}, tt.args...)

			out, err := execute(t, dir, NewLintCommand(), args...)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrLintFailed)
			} else {
				require.NoError(t, err)
			}
			got := decodeLint(t, out)
			assert.Equal(t, tt.wantErrors, got.Summary.Errors)
			assert.Equal(t, tt.wantWarnings, got.Summary.Warnings)
		})
	}
}

func TestLintCommand_UnknownRule(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	_, err := execute(t, dir, NewLintCommand(), "--disable", "NOPE", "contracts")
	require.Error(t, err)
	assert.Equal(t, "unknown rule codes: NOPE", err.Error())
}

func TestLintCommand_MissingPath(t *testing.T) {
	_, err := execute(t, t.TempDir(), NewLintCommand(), "missing.py")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot lint missing.py")
}

func TestLintCommand_CleanMarkdown(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	out, err := execute(t, dir, NewLintCommand(), "contracts/tokens")
	require.NoError(t, err)
	assert.Equal(t, "**No lint issues found in 1 files**\n", out)
}

func TestLintCommand_Policy(t *testing.T) {
	dir := t.TempDir()
	src := "@export\ndef balance_of(account: str) -> float:\n    return 0.0\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "token.py"), []byte(src), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "policy.yaml"),
		[]byte("export:\n  allow_return_annotation: true\n"), 0o644))

	_, err := execute(t, dir, NewLintCommand(), "token.py")
	require.ErrorIs(t, err, ErrLintFailed)

	_, err = execute(t, dir, NewLintCommand(), "--policy", "policy.yaml", "token.py")
	require.NoError(t, err)
}

func TestLintCommand_Cache(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	args := []string{"-f", "json", "--cache", "--cache-path", ".contractlint/reports.db", "contracts"}

	out, err := execute(t, dir, NewLintCommand(), args...)
	require.ErrorIs(t, err, ErrLintFailed)
	first := decodeLint(t, out)
	for _, f := range first.Files {
		assert.False(t, f.Cached, f.Path)
	}
	assert.FileExists(t, filepath.Join(dir, ".contractlint", "reports.db"))

	out, err = execute(t, dir, NewLintCommand(), args...)
	require.ErrorIs(t, err, ErrLintFailed)
	second := decodeLint(t, out)
	for _, f := range second.Files {
		assert.True(t, f.Cached, f.Path)
	}
	assert.Equal(t, first.Summary, second.Summary)

	// A different configuration misses the cache.
	out, err = execute(t, dir, NewLintCommand(), append(args, "--disable", "UNUSED_IMPORT")...)
	require.ErrorIs(t, err, ErrLintFailed)
	third := decodeLint(t, out)
	assert.False(t, third.Files[0].Cached)
	assert.Equal(t, 0, third.Summary.Warnings)
}

func TestCollectContracts(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	hidden := filepath.Join(dir, "contracts", ".venv")
	require.NoError(t, os.MkdirAll(hidden, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(hidden, "lib.py"), []byte("x = 1\n"), 0o644))
	t.Chdir(dir)

	files, err := collectContracts([]string{"contracts", "contracts/dirty.py", "contracts/README"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join("contracts", "README"),
		filepath.Join("contracts", "dirty.py"),
		filepath.Join("contracts", "tokens", "token.py"),
	}, files)
}

func TestRenderLintResults_Text(t *testing.T) {
	tr := testutil.NewTestRendererText()
	failed := renderLintResults(tr.Renderer, []lintFileResult{
		{Path: "dirty.py", Report: lintSource(t, testutil.DirtyContract)},
		{Path: "token.py", Report: lintSource(t, testutil.CleanContract)},
	})

	assert.True(t, failed)
	out := tr.Output()
	assert.Contains(t, out, "dirty.py")
	assert.NotContains(t, out, "token.py")
	assert.Contains(t, out, "SECURITY_DENYLIST")
	assert.Contains(t, out, "Summary: 3 issues, 2 errors, 1 warnings in 2 files")
}

func TestRenderLintResults_Markdown(t *testing.T) {
	tr := testutil.NewTestRendererMarkdown()
	renderLintResults(tr.Renderer, []lintFileResult{
		{Path: "dirty.py", Report: lintSource(t, testutil.DirtyContract)},
	})

	out := tr.Output()
	testutil.AssertNoANSI(t, out)
	testutil.AssertValidMarkdown(t, out)
	assert.Contains(t, out, "### dirty.py")
	assert.Contains(t, out, "- `2:8` **warning** `UNUSED_IMPORT`")
}
