package orm

import (
	"fmt"

	"github.com/leapstack-labs/contractlint/pkg/lint"
	"github.com/leapstack-labs/contractlint/pkg/lint/classify"
	"github.com/leapstack-labs/contractlint/pkg/parser"
)

func init() {
	lint.Register(Reassign)
}

// Reassign flags writes to the name of a declared storage handle.
var Reassign = lint.RuleDef{
	ID:          "ORM_REASSIGN",
	Name:        "orm.reassign",
	Group:       "orm",
	Description: "A storage handle name must not be rebound after its declaration.",
	Severity:    lint.SeverityError,
	Kinds: []parser.NodeKind{
		parser.KindAssign, parser.KindAugAssign, parser.KindAnnAssign,
		parser.KindDelete, parser.KindFor,
	},
	Check: checkReassign,

	Rationale: `Rebinding the name drops the handle. Later reads and writes then operate
on a plain value that is never persisted.`,

	BadExample: `owner = Variable()

@export
def change(new: str):
    owner = new`,

	GoodExample: `owner = Variable()

@export
def change(new: str):
    owner.set(new)`,

	Fix: "Write through the handle with .set() or a subscript.",
}

func checkReassign(node parser.Node, pass *lint.Pass) []lint.Diagnostic {
	var diags []lint.Diagnostic
	for _, t := range assignTargets(node) {
		for _, name := range classify.TargetNames(t) {
			d, ok := pass.Info.Storage[name.ID]
			if !ok || d.Stmt == node {
				continue
			}
			diags = append(diags, lint.NewDiagnostic("ORM_REASSIGN", node, fmt.Sprintf(
				"storage '%s' is reassigned; it was declared at line %d", name.ID, d.Stmt.Pos().Line)))
		}
	}
	return diags
}
