package orm

import (
	"fmt"

	"github.com/leapstack-labs/contractlint/pkg/lint"
	"github.com/leapstack-labs/contractlint/pkg/parser"
)

func init() {
	lint.Register(NameShadowed)
}

// NameShadowed flags parameters named after a storage handle.
var NameShadowed = lint.RuleDef{
	ID:          "ORM_NAME_SHADOWED",
	Name:        "orm.name_shadowed",
	Group:       "orm",
	Description: "Function parameters must not reuse the name of a storage handle.",
	Severity:    lint.SeverityError,
	Kinds:       []parser.NodeKind{parser.KindArg},
	Check:       checkNameShadowed,

	Rationale: `Inside the function the parameter hides the handle, so writes meant for
storage land on the argument instead.`,

	BadExample: `balances = Hash()

@export
def reset(balances: dict):
    balances["x"] = 0`,

	GoodExample: `balances = Hash()

@export
def reset(values: dict):
    balances["x"] = 0`,
}

func checkNameShadowed(node parser.Node, pass *lint.Pass) []lint.Diagnostic {
	arg, ok := node.(*parser.Arg)
	if !ok {
		return nil
	}
	d, ok := pass.Info.Storage[arg.Name]
	if !ok {
		return nil
	}
	return []lint.Diagnostic{
		lint.NewDiagnostic("ORM_NAME_SHADOWED", arg, fmt.Sprintf(
			"parameter '%s' shadows storage '%s' declared at line %d", arg.Name, d.Name, d.Stmt.Pos().Line)),
	}
}
