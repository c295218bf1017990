package security

import (
	"github.com/leapstack-labs/contractlint/pkg/lint"
	"github.com/leapstack-labs/contractlint/pkg/lint/classify"
	"github.com/leapstack-labs/contractlint/pkg/parser"
)

func init() {
	lint.Register(Denylist)
}

// Denylist reports every node the classification pass tagged as
// denylisted. The policy decides what is denied; this rule only positions
// and words the finding.
var Denylist = lint.RuleDef{
	ID:          "SECURITY_DENYLIST",
	Name:        "security.denylist",
	Group:       "security",
	Description: "Imports, calls and references outside the sandbox are rejected.",
	Severity:    lint.SeverityError,
	Kinds: []parser.NodeKind{
		parser.KindAlias, parser.KindCall, parser.KindAttribute, parser.KindName,
	},
	Check:      checkDenylist,
	ConfigKeys: []string{"ignore"},

	Rationale: `Contracts run inside a deterministic sandbox. Standard library modules,
most builtins and the runtime internals give access to the host, the clock or
other contracts' state, and the runtime refuses to load code that uses them.`,

	BadExample: `import os

@export
def f():
    os.system("ls")
    return eval("1 + 1")`,

	GoodExample: `import currency

@export
def f(amount: float):
    currency.transfer(amount=amount, to=ctx.caller)`,
}

func checkDenylist(node parser.Node, pass *lint.Pass) []lint.Diagnostic {
	if pass.Info.Shape(node) != classify.ShapeDenylisted {
		return nil
	}
	if ignored := lint.GetStringSliceOption(pass.Options, "ignore", nil); len(ignored) > 0 {
		q, _ := pass.Info.Qualified(node)
		for _, target := range ignored {
			if q != "" && q == target {
				return nil
			}
		}
	}
	return []lint.Diagnostic{
		lint.NewDiagnostic("SECURITY_DENYLIST", node, pass.Info.DenyReason(node)),
	}
}
