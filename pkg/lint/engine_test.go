package lint_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/contractlint/internal/testutil"
	"github.com/leapstack-labs/contractlint/pkg/lint"
	"github.com/leapstack-labs/contractlint/pkg/parser"
)

func nameRule(id string, check lint.CheckFunc) lint.NodeRule {
	return lint.WrapRuleDef(lint.RuleDef{
		ID:       id,
		Name:     "test." + id,
		Group:    "testing",
		Severity: lint.SeverityWarning,
		Kinds:    []parser.NodeKind{parser.KindName},
		Check:    check,
	})
}

func reportNames(node parser.Node, _ *lint.Pass) []lint.Diagnostic {
	return []lint.Diagnostic{lint.NewDiagnostic("", node, node.(*parser.Name).ID)}
}

func run(t *testing.T, cfg *lint.Config, src string, rules ...lint.Rule) []lint.Diagnostic {
	t.Helper()
	mod, err := parser.Parse(src)
	require.NoError(t, err)
	return lint.NewEngine(cfg, nil, testutil.NewTestLogger(t), rules...).Run(mod, src)
}

func TestEngine_DispatchByKind(t *testing.T) {
	diags := run(t, nil, "a = b\nc(d)\n", nameRule("TEST_NAMES", reportNames))

	var got []string
	for _, d := range diags {
		got = append(got, d.Message+"@"+d.Pos.String())
		assert.Equal(t, "TEST_NAMES", d.RuleID)
		assert.Equal(t, lint.SeverityWarning, d.Severity)
		assert.Equal(t, lint.SourceRule, d.Source)
		assert.Equal(t, lint.BuildDocURL("TEST_NAMES"), d.DocumentationURL)
	}
	assert.Equal(t, []string{"a@1:1", "b@1:5", "c@2:1", "d@2:3"}, got)
}

func TestEngine_PanicBecomesInternalError(t *testing.T) {
	panicky := nameRule("TEST_PANIC", func(parser.Node, *lint.Pass) []lint.Diagnostic {
		panic("boom")
	})
	diags := run(t, nil, "x\n", panicky, nameRule("TEST_NAMES", reportNames))

	require.Len(t, diags, 2)
	assert.Equal(t, lint.CodeInternalError, diags[0].RuleID)
	assert.Equal(t, "rule TEST_PANIC failed: boom", diags[0].Message)
	assert.Equal(t, "1:1", diags[0].Pos.String())
	assert.Equal(t, lint.SeverityError, diags[0].Severity)
	assert.Equal(t, "TEST_NAMES", diags[1].RuleID, "other rules keep running")
}

func TestEngine_Config(t *testing.T) {
	rule := nameRule("TEST_NAMES", reportNames)

	cfg := lint.NewConfig().Disable("TEST_NAMES")
	assert.Empty(t, run(t, cfg, "x\n", rule))

	cfg = lint.NewConfig().SetSeverity("TEST_NAMES", lint.SeverityError)
	diags := run(t, cfg, "x\n", rule)
	require.Len(t, diags, 1)
	assert.Equal(t, lint.SeverityError, diags[0].Severity)

	cfg = lint.NewConfig().Only("OTHER")
	assert.Empty(t, run(t, cfg, "x\n", rule))
}

func TestEngine_PassContext(t *testing.T) {
	var got []string
	rule := nameRule("TEST_CONTEXT", func(node parser.Node, pass *lint.Pass) []lint.Diagnostic {
		where := "module"
		if fn := pass.EnclosingFunction(); fn != nil {
			where = fn.Name
		}
		stmt := pass.EnclosingStatement(node)
		got = append(got, node.(*parser.Name).ID+" in "+where+" stmt "+stmt.Kind().String()+" text "+pass.Text(node))
		return nil
	})
	run(t, nil, "x = 1\n\ndef f():\n    return y\n", rule)
	assert.Equal(t, []string{
		"x in module stmt Assign text x",
		"y in f stmt Return text y",
	}, got)
}

func TestEngine_Accessors(t *testing.T) {
	rule := nameRule("TEST_NAMES", reportNames)
	meta := lint.WrapRuleDef(lint.RuleDef{ID: "TEST_META", Group: "testing"})

	e := lint.NewEngine(nil, nil, nil, rule, meta)
	require.Len(t, e.Rules(), 1, "rules without kinds are not dispatched")
	assert.Equal(t, "TEST_NAMES", e.Rules()[0].ID())
	assert.NotNil(t, e.Policy())
}
