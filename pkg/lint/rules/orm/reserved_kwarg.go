package orm

import (
	"fmt"
	"slices"

	"github.com/leapstack-labs/contractlint/pkg/lint"
	"github.com/leapstack-labs/contractlint/pkg/lint/classify"
	"github.com/leapstack-labs/contractlint/pkg/parser"
)

func init() {
	lint.Register(ReservedKwarg)
}

// ReservedKwarg flags constructor keywords that the runtime fills in.
var ReservedKwarg = lint.RuleDef{
	ID:          "ORM_RESERVED_KWARG",
	Name:        "orm.reserved_kwarg",
	Group:       "orm",
	Description: "Storage constructors must not be passed the runtime-reserved keywords.",
	Severity:    lint.SeverityError,
	Kinds:       []parser.NodeKind{parser.KindCall},
	Check:       checkReservedKwarg,

	Rationale: `The contract and name of a handle are injected when the module is loaded.
Passing them explicitly lets a contract address storage of another contract.`,

	BadExample: `balances = Hash(contract="currency", name="balances")`,

	GoodExample: `balances = Hash(default_value=0)`,

	Fix: "Remove the keyword; use ForeignHash or ForeignVariable to read another contract's state.",
}

func checkReservedKwarg(node parser.Node, pass *lint.Pass) []lint.Diagnostic {
	call, ok := node.(*parser.Call)
	if !ok || pass.Info.Shape(call) != classify.ShapeStorageConstructor {
		return nil
	}
	fn := call.Func.(*parser.Name)
	spec, _ := pass.Policy.StorageType(fn.ID)

	var diags []lint.Diagnostic
	for _, kw := range call.Keywords {
		if kw.Arg != "" && slices.Contains(spec.ReservedKwargs, kw.Arg) {
			diags = append(diags, atStatement("ORM_RESERVED_KWARG", call, pass, fmt.Sprintf(
				"keyword '%s' of %s() is reserved and set by the runtime", kw.Arg, fn.ID)))
		}
	}
	return diags
}
