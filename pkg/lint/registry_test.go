package lint_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/contractlint/pkg/lint"
	"github.com/leapstack-labs/contractlint/pkg/parser"
)

func TestRegistry(t *testing.T) {
	lint.Register(lint.RuleDef{
		ID:          "TEST_REGISTERED",
		Name:        "testing.registered",
		Group:       "testing",
		Description: "registered from a test",
		Severity:    lint.SeverityInfo,
		Kinds:       []parser.NodeKind{parser.KindCall},
		Check:       func(parser.Node, *lint.Pass) []lint.Diagnostic { return nil },
		Rationale:   "why",
	})

	r, ok := lint.GetByID("TEST_REGISTERED")
	require.True(t, ok)
	assert.Equal(t, "testing", r.Group())
	assert.Equal(t, lint.SeverityInfo, r.DefaultSeverity())

	info := lint.GetRuleInfo(r)
	assert.Equal(t, "node", info.Type)
	assert.Equal(t, "why", info.Rationale)
	assert.Equal(t, lint.BuildDocURL("TEST_REGISTERED"), info.DocURL)

	assert.Contains(t, lint.Groups(), "testing")
	assert.Contains(t, lint.Groups(), "engine")

	group := lint.GetByGroup("testing")
	require.NotEmpty(t, group)
	assert.Equal(t, "TEST_REGISTERED", group[0].ID())

	all := lint.GetAll()
	assert.Len(t, all, lint.Count())
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].ID(), all[i].ID())
	}

	_, ok = lint.GetByID("NOPE")
	assert.False(t, ok)
}

func TestBuiltinCodes(t *testing.T) {
	for _, id := range []string{lint.CodeParseError, lint.CodeInternalError} {
		r, ok := lint.GetByID(id)
		require.True(t, ok, id)
		assert.Equal(t, "engine", r.Group())
		assert.Equal(t, "validator", lint.GetRuleInfo(r).Type)
	}
}

func TestAllRules_Ordered(t *testing.T) {
	infos := lint.AllRules()
	require.Len(t, infos, lint.Count())
	for i := 1; i < len(infos); i++ {
		prev, cur := infos[i-1], infos[i]
		ordered := prev.Group < cur.Group || (prev.Group == cur.Group && prev.ID < cur.ID)
		assert.True(t, ordered, "%s/%s before %s/%s", prev.Group, prev.ID, cur.Group, cur.ID)
	}
}
