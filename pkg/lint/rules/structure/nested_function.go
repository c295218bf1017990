package structure

import (
	"fmt"

	"github.com/leapstack-labs/contractlint/pkg/lint"
	"github.com/leapstack-labs/contractlint/pkg/parser"
)

func init() {
	lint.Register(NestedFunction)
}

// NestedFunction flags unmarked functions defined inside another function.
// Marked ones are reported by EXPORT_NESTED.
var NestedFunction = lint.RuleDef{
	ID:          "SYNTAX_NESTED_FUNCTION",
	Name:        "structure.nested_function",
	Group:       "structure",
	Description: "Functions must not be defined inside other functions.",
	Severity:    lint.SeverityError,
	Kinds:       []parser.NodeKind{parser.KindFunctionDef},
	Check:       checkNestedFunction,

	Rationale: `Closures capture state the runtime cannot meter or persist. Module-level
helpers behave the same and are private to the contract.`,

	BadExample: `@export
def total(values: list):
    def add(a, b):
        return a + b
    return add(values[0], values[1])`,

	GoodExample: `def add(a, b):
    return a + b

@export
def total(values: list):
    return add(values[0], values[1])`,
}

func checkNestedFunction(node parser.Node, pass *lint.Pass) []lint.Diagnostic {
	fn, ok := node.(*parser.FunctionDef)
	if !ok || pass.Info.MarkedFunc(fn) != nil {
		return nil
	}
	outer := pass.EnclosingFunction()
	if outer == nil {
		return nil
	}
	return []lint.Diagnostic{
		lint.NewDiagnostic("SYNTAX_NESTED_FUNCTION", fn, fmt.Sprintf(
			"function '%s' is defined inside '%s'; define it at module level", fn.Name, outer.Name)),
	}
}
