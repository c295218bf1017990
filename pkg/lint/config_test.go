package lint_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/contractlint/pkg/lint"
	"github.com/leapstack-labs/contractlint/pkg/token"
)

func TestConfig_IsDisabled(t *testing.T) {
	var nilConfig *lint.Config
	assert.False(t, nilConfig.IsDisabled("ANY"))
	assert.Equal(t, lint.SeverityHint, nilConfig.GetSeverity("ANY", lint.SeverityHint))

	cfg := lint.NewConfig().Disable("A")
	assert.True(t, cfg.IsDisabled("A"))
	assert.False(t, cfg.IsDisabled("B"))

	cfg = lint.NewConfig().Only("A", "B").Disable("B")
	assert.False(t, cfg.IsDisabled("A"))
	assert.True(t, cfg.IsDisabled("B"))
	assert.True(t, cfg.IsDisabled("C"))
}

func TestConfig_Apply(t *testing.T) {
	cfg := lint.NewConfig().
		Disable("UNUSED_VARIABLE").
		SetSeverity("UNUSED_IMPORT", lint.SeverityError)

	in := []lint.Diagnostic{
		{RuleID: "UNUSED_VARIABLE", Severity: lint.SeverityWarning, Pos: token.Position{Line: 1, Column: 1}},
		{RuleID: "UNUSED_IMPORT", Severity: lint.SeverityWarning, Pos: token.Position{Line: 2, Column: 1}},
		{RuleID: "UNDEFINED_NAME", Severity: lint.SeverityError, Pos: token.Position{Line: 3, Column: 1}},
	}
	out := cfg.Apply(in)
	require.Len(t, out, 2)
	assert.Equal(t, "UNUSED_IMPORT", out[0].RuleID)
	assert.Equal(t, lint.SeverityError, out[0].Severity)
	assert.Equal(t, lint.SeverityWarning, in[1].Severity, "input is not modified")
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in   string
		want lint.Severity
		ok   bool
	}{
		{"error", lint.SeverityError, true},
		{"Warning", lint.SeverityWarning, true},
		{"warn", lint.SeverityWarning, true},
		{" info ", lint.SeverityInfo, true},
		{"hint", lint.SeverityHint, true},
		{"fatal", lint.SeverityWarning, false},
	}
	for _, tt := range tests {
		got, ok := lint.ParseSeverity(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}

func TestSeverity_Text(t *testing.T) {
	var s lint.Severity
	require.NoError(t, s.UnmarshalText([]byte("hint")))
	assert.Equal(t, lint.SeverityHint, s)
	assert.Error(t, s.UnmarshalText([]byte("loud")))

	assert.True(t, lint.SeverityError.AtLeast(lint.SeverityWarning))
	assert.False(t, lint.SeverityInfo.AtLeast(lint.SeverityWarning))
	assert.Equal(t, "unknown", lint.Severity(42).String())
}

func TestOptions(t *testing.T) {
	opts := map[string]any{
		"count":   float64(3),
		"big":     int64(7),
		"enabled": true,
		"names":   []any{"a", 1, "b"},
		"list":    []string{"x"},
	}
	assert.Equal(t, 3, lint.GetIntOption(opts, "count", 0))
	assert.Equal(t, 7, lint.GetIntOption(opts, "big", 0))
	assert.Equal(t, 9, lint.GetIntOption(opts, "missing", 9))
	assert.True(t, lint.GetBoolOption(opts, "enabled", false))
	assert.False(t, lint.GetBoolOption(nil, "enabled", false))
	assert.Equal(t, []string{"a", "b"}, lint.GetStringSliceOption(opts, "names", nil))
	assert.Equal(t, []string{"x"}, lint.GetStringSliceOption(opts, "list", nil))
	assert.Equal(t, "fallback", lint.GetOption(opts, "count", "fallback"))
}

func TestDocURL(t *testing.T) {
	t.Cleanup(lint.ResetDocsBaseURL)

	assert.Equal(t, "https://contractlint.dev/rules/export_nested", lint.BuildDocURL("EXPORT_NESTED"))
	lint.SetDocsBaseURL("http://localhost:8080/docs/")
	assert.Equal(t, "http://localhost:8080/docs/orm_reassign", lint.BuildDocURL("ORM_REASSIGN"))
}
