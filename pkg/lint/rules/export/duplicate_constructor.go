package export

import (
	"fmt"

	"github.com/leapstack-labs/contractlint/pkg/lint"
	"github.com/leapstack-labs/contractlint/pkg/parser"
)

func init() {
	lint.Register(DuplicateConstructor)
}

// DuplicateConstructor flags every module-level constructor after the first.
var DuplicateConstructor = lint.RuleDef{
	ID:          "DUPLICATE_CONSTRUCTOR",
	Name:        "export.duplicate_constructor",
	Group:       "export",
	Description: "A contract may define at most one constructor.",
	Severity:    lint.SeverityError,
	Kinds:       []parser.NodeKind{parser.KindFunctionDef},
	Check:       checkDuplicateConstructor,

	Rationale: `The runtime calls exactly one constructor when the contract is submitted.
With several, all but one would silently never run.`,

	BadExample: `@construct
def seed():
    owner.set(ctx.caller)

@construct
def init():
    supply.set(100)`,

	GoodExample: `@construct
def seed():
    owner.set(ctx.caller)
    supply.set(100)`,

	Fix: "Merge the constructors into one function.",
}

func checkDuplicateConstructor(node parser.Node, pass *lint.Pass) []lint.Diagnostic {
	fn, ok := node.(*parser.FunctionDef)
	if !ok {
		return nil
	}
	ctors := pass.Info.Constructors
	for i, c := range ctors {
		if c != fn || i == 0 {
			continue
		}
		first := ctors[0]
		return []lint.Diagnostic{
			lint.NewDiagnostic("DUPLICATE_CONSTRUCTOR", fn, fmt.Sprintf(
				"duplicate constructor '%s'; constructor '%s' is already defined at line %d",
				fn.Name, first.Name, first.Pos().Line)),
		}
	}
	return nil
}
