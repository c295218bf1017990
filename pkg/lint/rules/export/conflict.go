package export

import (
	"fmt"

	"github.com/leapstack-labs/contractlint/pkg/lint"
	"github.com/leapstack-labs/contractlint/pkg/parser"
)

func init() {
	lint.Register(Conflict)
}

// Conflict flags functions carrying conflicting or repeated markers.
var Conflict = lint.RuleDef{
	ID:          "EXPORT_CONFLICT",
	Name:        "export.conflict",
	Group:       "export",
	Description: "A function may not carry conflicting or repeated markers.",
	Severity:    lint.SeverityError,
	Kinds:       []parser.NodeKind{parser.KindFunctionDef},
	Check:       checkConflict,

	Rationale: `A constructor runs once when the contract is submitted, while an exported
function is callable by anyone afterwards. Marking one function as both would let any
caller re-run initialization.`,

	BadExample: `@export
@construct
def seed():
    owner.set(ctx.caller)`,

	GoodExample: `@construct
def seed():
    owner.set(ctx.caller)`,

	Fix: "Keep a single marker per function.",
}

func checkConflict(node parser.Node, pass *lint.Pass) []lint.Diagnostic {
	fn, ok := node.(*parser.FunctionDef)
	if !ok || pass.Info.MarkedFunc(fn) == nil {
		return nil
	}

	var diags []lint.Diagnostic
	var seen []string
	for _, d := range fn.Decorators {
		m, ok := pass.Info.MarkerName(d)
		if !ok {
			continue
		}
		for _, prev := range seen {
			switch {
			case prev == m:
				diags = append(diags, lint.NewDiagnostic("EXPORT_CONFLICT", d,
					fmt.Sprintf("marker @%s is repeated on function '%s'", m, fn.Name)))
			case pass.Policy.Conflicting(prev, m):
				diags = append(diags, lint.NewDiagnostic("EXPORT_CONFLICT", d,
					fmt.Sprintf("marker @%s conflicts with @%s on function '%s'", m, prev, fn.Name)))
			default:
				continue
			}
			break
		}
		seen = append(seen, m)
	}
	return diags
}
