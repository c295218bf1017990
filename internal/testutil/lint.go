package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/contractlint/pkg/lint"
	"github.com/leapstack-labs/contractlint/pkg/lint/policy"
	"github.com/leapstack-labs/contractlint/pkg/parser"
)

// RunRule parses src, runs every registered rule over it and returns the
// diagnostics reported under ruleID.
func RunRule(t testing.TB, src, ruleID string) []lint.Diagnostic {
	t.Helper()
	return RunRuleWithConfig(t, src, ruleID, lint.NewConfig())
}

// RunRuleWithConfig is RunRule with an explicit configuration.
func RunRuleWithConfig(t testing.TB, src, ruleID string, cfg *lint.Config) []lint.Diagnostic {
	t.Helper()
	return runRule(t, src, ruleID, cfg, nil)
}

// RunRuleWithPolicy is RunRule with explicit policy tables.
func RunRuleWithPolicy(t testing.TB, src, ruleID string, pol *policy.Policy) []lint.Diagnostic {
	t.Helper()
	return runRule(t, src, ruleID, lint.NewConfig(), pol)
}

func runRule(t testing.TB, src, ruleID string, cfg *lint.Config, pol *policy.Policy) []lint.Diagnostic {
	t.Helper()
	mod, err := parser.Parse(src)
	require.NoError(t, err)

	engine := lint.NewEngine(cfg, pol, NewTestLogger(t))
	var filtered []lint.Diagnostic
	for _, d := range engine.Run(mod, src) {
		if d.RuleID == ruleID {
			filtered = append(filtered, d)
		}
	}
	return filtered
}

// Positions renders the start positions of diags as "line:column".
func Positions(diags []lint.Diagnostic) []string {
	out := make([]string, len(diags))
	for i, d := range diags {
		out[i] = d.Pos.String()
	}
	return out
}
