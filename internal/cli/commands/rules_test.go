package commands

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/contractlint/internal/cli/testutil"
	"github.com/leapstack-labs/contractlint/pkg/lint"
)

func TestNewRulesCommand(t *testing.T) {
	cmd := NewRulesCommand()

	assert.Equal(t, "rules [rule-id]", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Example)
	for _, flag := range []string{"group", "type", "verbose", "format"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestRulesCommand_ListMarkdown(t *testing.T) {
	out, err := execute(t, t.TempDir(), NewRulesCommand())
	require.NoError(t, err)

	testutil.AssertValidMarkdown(t, out)
	assert.Contains(t, out, "# Lint Rules")
	for _, group := range []string{"## Export", "## Orm", "## Security", "## Structure", "## Check"} {
		assert.Contains(t, out, group)
	}
	assert.Contains(t, out, "- **EXPORT_NESTED** - export.nested (`error`)")
}

func TestRulesCommand_ListText(t *testing.T) {
	tr := testutil.NewTestRendererText()
	require.NoError(t, listRulesText(tr.Renderer, filterRulesByOptions(lint.AllRules(), &RulesOptions{Group: "security"}), true))

	out := tr.Output()
	assert.Contains(t, out, "Lint Rules (2 node, 0 validator)")
	assert.Contains(t, out, "Security")
	assert.Contains(t, out, "SECURITY_DENYLIST")
	assert.Contains(t, out, "SECURITY_DUNDER")
	assert.Contains(t, out, "┌", "rendered as a table")
	assert.NotContains(t, out, "EXPORT_NESTED")
}

func TestRulesCommand_Filters(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantGroup string
		wantType  string
	}{
		{"group", []string{"--group", "orm"}, "orm", ""},
		{"validator type", []string{"--type", "validator"}, "", "validator"},
		{"node type", []string{"--type", "node"}, "", "node"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, t.TempDir(), NewRulesCommand(), append(tt.args, "-f", "json")...)
			require.NoError(t, err)

			var got RulesJSONOutput
			require.NoError(t, json.Unmarshal([]byte(out), &got))
			require.NotEmpty(t, got.Rules)
			assert.Equal(t, len(got.Rules), got.Count.Total)
			for _, r := range got.Rules {
				if tt.wantGroup != "" {
					assert.Equal(t, tt.wantGroup, r.Group, r.ID)
				}
				if tt.wantType != "" {
					assert.Equal(t, tt.wantType, r.Type, r.ID)
				}
			}
		})
	}
}

func TestRulesCommand_JSONCounts(t *testing.T) {
	out, err := execute(t, t.TempDir(), NewRulesCommand(), "--format", "json")
	require.NoError(t, err)

	var got RulesJSONOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, lint.Count(), got.Count.Total)
	assert.Equal(t, got.Count.Total, got.Count.Node+got.Count.Validator)
	assert.Positive(t, got.Count.Validator)
}

func TestRulesCommand_UnknownGroup(t *testing.T) {
	_, err := execute(t, t.TempDir(), NewRulesCommand(), "--group", "sql")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no rules in group "sql"`)
}

func TestRulesCommand_ShowRule(t *testing.T) {
	t.Run("markdown", func(t *testing.T) {
		out, err := execute(t, t.TempDir(), NewRulesCommand(), "SECURITY_DENYLIST")
		require.NoError(t, err)
		testutil.AssertValidMarkdown(t, out)
		assert.Contains(t, out, "# SECURITY_DENYLIST - security.denylist")
		assert.Contains(t, out, "```python")
		assert.Contains(t, out, "Options: `ignore`")
		assert.Contains(t, out, lint.BuildDocURL("SECURITY_DENYLIST"))
	})

	t.Run("lower case id", func(t *testing.T) {
		out, err := execute(t, t.TempDir(), NewRulesCommand(), "-f", "json", "orm_key_arity")
		require.NoError(t, err)
		var got lint.RuleInfo
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, "ORM_KEY_ARITY", got.ID)
		assert.Equal(t, "orm", got.Group)
	})

	t.Run("text", func(t *testing.T) {
		tr := testutil.NewTestRendererText()
		rule, ok := lint.GetByID("UNUSED_IMPORT")
		require.True(t, ok)
		info := lint.GetRuleInfo(rule)
		require.NoError(t, showRuleText(tr.Renderer, &info))
		assert.Contains(t, tr.Output(), "UNUSED_IMPORT")
		assert.Contains(t, tr.Output(), "validator")
	})

	t.Run("not found", func(t *testing.T) {
		_, err := execute(t, t.TempDir(), NewRulesCommand(), "AM01")
		require.Error(t, err)
		assert.Equal(t, `rule "AM01" not found`, err.Error())
	})
}

func TestRulesCommand_BadFormat(t *testing.T) {
	_, err := execute(t, t.TempDir(), NewRulesCommand(), "--format", "yaml")
	require.Error(t, err)
}

func TestTruncateOneLine(t *testing.T) {
	assert.Equal(t, "a b c", truncateOneLine("a\n  b\tc", 10))
	assert.Equal(t, "abcdefg...", truncateOneLine("abcdefghijklmnop", 10))
}

func TestGroupTitle(t *testing.T) {
	assert.Equal(t, "Security", groupTitle("security"))
	assert.Equal(t, "Orm", groupTitle("orm"))
}
