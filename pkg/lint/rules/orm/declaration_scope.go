package orm

import (
	"fmt"

	"github.com/leapstack-labs/contractlint/pkg/lint"
	"github.com/leapstack-labs/contractlint/pkg/lint/classify"
	"github.com/leapstack-labs/contractlint/pkg/parser"
)

func init() {
	lint.Register(DeclarationScope)
}

// DeclarationScope flags storage constructors used anywhere except as the
// value of a module-level assignment.
var DeclarationScope = lint.RuleDef{
	ID:          "ORM_DECLARATION_SCOPE",
	Name:        "orm.declaration_scope",
	Group:       "orm",
	Description: "Storage handles must be declared by a module-level assignment.",
	Severity:    lint.SeverityError,
	Kinds:       []parser.NodeKind{parser.KindCall},
	Check:       checkDeclarationScope,

	Rationale: `The runtime derives the storage key from the assigned name when the
module is loaded. A handle created in a function or an expression has no name
and its writes cannot be addressed.`,

	BadExample: `@export
def f():
    Variable().set(1)`,

	GoodExample: `counter = Variable()

@export
def f():
    counter.set(1)`,
}

func checkDeclarationScope(node parser.Node, pass *lint.Pass) []lint.Diagnostic {
	call, ok := node.(*parser.Call)
	if !ok || pass.Info.Shape(call) != classify.ShapeStorageConstructor || declared(call, pass.Info) {
		return nil
	}
	fn, _ := call.Func.(*parser.Name)
	return []lint.Diagnostic{
		atStatement("ORM_DECLARATION_SCOPE", call, pass, fmt.Sprintf(
			"storage constructor '%s()' must be the value of a module-level assignment", fn.ID)),
	}
}
