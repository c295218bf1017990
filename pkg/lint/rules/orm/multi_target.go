package orm

import (
	"github.com/leapstack-labs/contractlint/pkg/lint"
	"github.com/leapstack-labs/contractlint/pkg/lint/classify"
	"github.com/leapstack-labs/contractlint/pkg/parser"
)

func init() {
	lint.Register(MultiTarget)
}

// MultiTarget flags storage declarations that bind more than one name.
var MultiTarget = lint.RuleDef{
	ID:          "ORM_MULTI_TARGET",
	Name:        "orm.multi_target",
	Group:       "orm",
	Description: "A storage declaration must assign exactly one name.",
	Severity:    lint.SeverityError,
	Kinds:       []parser.NodeKind{parser.KindAssign},
	Check:       checkMultiTarget,

	Rationale: `The storage key is derived from the single assigned name. Chained or
unpacking assignments leave the key ambiguous.`,

	BadExample: `owner, supply = Variable(), Variable()`,

	GoodExample: `owner = Variable()
supply = Variable()`,
}

func checkMultiTarget(node parser.Node, pass *lint.Pass) []lint.Diagnostic {
	assign, ok := node.(*parser.Assign)
	if !ok || !pass.AtModuleLevel() || !holdsConstructor(assign.Value, pass.Info) {
		return nil
	}
	multi := len(assign.Targets) > 1
	if !multi {
		switch assign.Targets[0].(type) {
		case *parser.Tuple, *parser.List, *parser.Starred:
			multi = true
		}
	}
	if !multi {
		if _, isTuple := assign.Value.(*parser.Tuple); isTuple {
			multi = true
		}
	}
	if !multi {
		return nil
	}
	return []lint.Diagnostic{
		lint.NewDiagnostic("ORM_MULTI_TARGET", assign, "storage declaration must assign exactly one name"),
	}
}

func holdsConstructor(e parser.Expr, info *classify.Info) bool {
	if info.Shape(e) == classify.ShapeStorageConstructor {
		return true
	}
	if t, ok := e.(*parser.Tuple); ok {
		for _, elt := range t.Elts {
			if info.Shape(elt) == classify.ShapeStorageConstructor {
				return true
			}
		}
	}
	return false
}
