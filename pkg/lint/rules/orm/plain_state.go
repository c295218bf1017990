package orm

import (
	"fmt"

	"github.com/leapstack-labs/contractlint/pkg/lint"
	"github.com/leapstack-labs/contractlint/pkg/lint/classify"
	"github.com/leapstack-labs/contractlint/pkg/parser"
)

func init() {
	lint.Register(PlainState)
}

// PlainState flags module-level mutable containers.
var PlainState = lint.RuleDef{
	ID:          "ORM_PLAIN_STATE",
	Name:        "orm.plain_state",
	Group:       "orm",
	Description: "Module-level mutable containers do not persist; contract state must live in storage handles.",
	Severity:    lint.SeverityError,
	Kinds:       []parser.NodeKind{parser.KindAssign, parser.KindAnnAssign},
	Check:       checkPlainState,

	Rationale: `The module body runs once per call. A list or dict assigned at module level
is rebuilt empty on every transaction, so writes to it are silently lost.`,

	BadExample: `balances = {}

@export
def deposit(amount: int):
    balances[ctx.caller] = amount`,

	GoodExample: `balances = Hash(default_value=0)

@export
def deposit(amount: int):
    balances[ctx.caller] = amount`,

	Fix: "Declare the state with Variable() or Hash().",
}

func checkPlainState(node parser.Node, pass *lint.Pass) []lint.Diagnostic {
	if !pass.AtModuleLevel() {
		return nil
	}
	var value parser.Expr
	var targets []parser.Expr
	switch s := node.(type) {
	case *parser.Assign:
		value, targets = s.Value, s.Targets
	case *parser.AnnAssign:
		value, targets = s.Value, []parser.Expr{s.Target}
	}
	what := mutableKind(value, pass)
	if what == "" {
		return nil
	}
	name := "<target>"
	for _, t := range targets {
		if names := classify.TargetNames(t); len(names) > 0 {
			name = names[0].ID
			break
		}
	}
	return []lint.Diagnostic{
		lint.NewDiagnostic("ORM_PLAIN_STATE", node, fmt.Sprintf(
			"module-level variable '%s' holds a mutable %s; use Variable or Hash for contract state", name, what)),
	}
}

// mutableKind describes the mutable container e builds, or "".
func mutableKind(e parser.Expr, pass *lint.Pass) string {
	switch e := e.(type) {
	case *parser.List:
		return "list"
	case *parser.Dict:
		return "dict"
	case *parser.Set:
		return "set"
	case *parser.ListComp:
		return "list comprehension"
	case *parser.DictComp:
		return "dict comprehension"
	case *parser.SetComp:
		return "set comprehension"
	case *parser.Call:
		fn, ok := e.Func.(*parser.Name)
		if ok && pass.Policy.IsMutableFactory(fn.ID) {
			if _, imported := pass.Info.Imports[fn.ID]; !imported {
				return fn.ID + "()"
			}
		}
	}
	return ""
}
