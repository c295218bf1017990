package lint_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/contractlint/pkg/lint"
	"github.com/leapstack-labs/contractlint/pkg/parser"
	"github.com/leapstack-labs/contractlint/pkg/token"
)

func diag(code string, line, col int, sev lint.Severity, msg string) lint.Diagnostic {
	return lint.Diagnostic{
		RuleID:   code,
		Severity: sev,
		Message:  msg,
		Pos:      token.Position{Line: line, Column: col},
	}
}

func TestAggregate(t *testing.T) {
	rules := []lint.Diagnostic{
		diag("ORM_REASSIGN", 3, 1, lint.SeverityError, "b"),
		diag("EXPORT_NESTED", 1, 5, lint.SeverityError, "a"),
		diag("EXPORT_NESTED", 1, 5, lint.SeverityError, "a"),
	}
	validator := []lint.Diagnostic{
		diag("UNUSED_IMPORT", 1, 1, lint.SeverityWarning, "c"),
		diag("EXPORT_NESTED", 1, 5, lint.SeverityError, "a"),
		diag("DUPLICATE_CONSTRUCTOR", 1, 5, lint.SeverityError, "d"),
	}
	report := lint.Aggregate(rules, validator)

	var got []string
	for _, d := range report.Diagnostics {
		got = append(got, d.Pos.String()+" "+d.RuleID)
	}
	assert.Equal(t, []string{
		"1:1 UNUSED_IMPORT",
		"1:5 DUPLICATE_CONSTRUCTOR",
		"1:5 EXPORT_NESTED",
		"3:1 ORM_REASSIGN",
	}, got)
	assert.False(t, report.Pass)
	assert.Equal(t, 3, report.Count(lint.SeverityError))
	assert.Equal(t, 1, report.Count(lint.SeverityWarning))
}

func TestAggregate_SameCodeDifferentMessage(t *testing.T) {
	report := lint.Aggregate([]lint.Diagnostic{
		diag("ORM_RESERVED_KWARG", 1, 1, lint.SeverityError, "keyword 'name'"),
		diag("ORM_RESERVED_KWARG", 1, 1, lint.SeverityError, "keyword 'contract'"),
	})
	require.Len(t, report.Diagnostics, 2)
	assert.Equal(t, "keyword 'contract'", report.Diagnostics[0].Message)
}

func TestAggregate_Empty(t *testing.T) {
	report := lint.Aggregate()
	assert.True(t, report.Pass)
	assert.NotNil(t, report.Diagnostics)

	data, err := report.JSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"pass": true, "diagnostics": []}`, string(data))
}

func TestAggregate_WarningsPass(t *testing.T) {
	report := lint.Aggregate([]lint.Diagnostic{diag("UNUSED_IMPORT", 1, 1, lint.SeverityWarning, "x")})
	assert.True(t, report.Pass)
}

func TestReport_Filter(t *testing.T) {
	report := lint.Aggregate([]lint.Diagnostic{
		diag("A", 1, 1, lint.SeverityError, ""),
		diag("B", 2, 1, lint.SeverityWarning, ""),
		diag("C", 3, 1, lint.SeverityHint, ""),
	})
	filtered := report.Filter(lint.SeverityWarning)
	require.Len(t, filtered.Diagnostics, 2)
	assert.False(t, filtered.Pass)

	assert.True(t, report.Filter(lint.SeverityError).Diagnostics[0].Severity == lint.SeverityError)
	assert.Len(t, report.Filter(lint.SeverityHint).Diagnostics, 3)
}

func TestParseErrorReport(t *testing.T) {
	_, err := parser.Parse("def f(:\n    pass\n")
	require.Error(t, err)

	report := lint.ParseErrorReport(err)
	require.Len(t, report.Diagnostics, 1)
	d := report.Diagnostics[0]
	assert.Equal(t, lint.CodeParseError, d.RuleID)
	assert.Equal(t, lint.SourceParser, d.Source)
	assert.Equal(t, 1, d.Pos.Line)
	assert.False(t, report.Pass)
}

func TestDiagnostic_JSON(t *testing.T) {
	d := lint.Diagnostic{
		RuleID:   "EXPORT_NESTED",
		Severity: lint.SeverityError,
		Message:  "function 'f' marked @export must be defined at module level",
		Pos:      token.Position{Line: 2, Column: 5},
		Source:   lint.SourceRule,
	}
	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"severity": "error",
		"code": "EXPORT_NESTED",
		"message": "function 'f' marked @export must be defined at module level",
		"line": 2,
		"column": 5,
		"source": "rule"
	}`, string(data))

	var back lint.Diagnostic
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, d.RuleID, back.RuleID)
	assert.Equal(t, d.Pos.Line, back.Pos.Line)
	assert.Equal(t, d.Severity, back.Severity)
}
