package export

import (
	"fmt"

	"github.com/leapstack-labs/contractlint/pkg/lint"
	"github.com/leapstack-labs/contractlint/pkg/parser"
)

func init() {
	lint.Register(Nested)
}

// Nested flags marker-decorated functions that are not defined at module
// top level.
var Nested = lint.RuleDef{
	ID:          "EXPORT_NESTED",
	Name:        "export.nested",
	Group:       "export",
	Description: "Exported functions and constructors must be defined at module top level.",
	Severity:    lint.SeverityError,
	Kinds:       []parser.NodeKind{parser.KindFunctionDef},
	Check:       checkNested,

	Rationale: `The runtime discovers entry points by scanning the top level of the contract
module. A marked function nested inside another function is never registered, so callers
can not reach it even though it looks public.`,

	BadExample: `def outer():
    @export
    def transfer(amount: int):
        pass`,

	GoodExample: `@export
def transfer(amount: int):
    pass`,

	Fix: "Move the function to module level, or drop the marker if it is a private helper.",
}

func checkNested(node parser.Node, pass *lint.Pass) []lint.Diagnostic {
	fn, ok := node.(*parser.FunctionDef)
	if !ok {
		return nil
	}
	mf := pass.Info.MarkedFunc(fn)
	if mf == nil || mf.TopLevel || pass.Policy.IsNestedWhitelisted(fn.Name) {
		return nil
	}
	return []lint.Diagnostic{
		lint.NewDiagnostic("EXPORT_NESTED", fn, fmt.Sprintf("function '%s' marked @%s must be defined at module level", fn.Name, mf.Markers[0])),
	}
}
