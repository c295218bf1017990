package orm

import (
	"fmt"

	"github.com/leapstack-labs/contractlint/pkg/lint"
	"github.com/leapstack-labs/contractlint/pkg/lint/classify"
	"github.com/leapstack-labs/contractlint/pkg/parser"
)

func init() {
	lint.Register(ReadOnly)
}

// ReadOnly flags writes through handles of read-only storage types.
var ReadOnly = lint.RuleDef{
	ID:          "ORM_READ_ONLY",
	Name:        "orm.read_only",
	Group:       "orm",
	Description: "Foreign storage handles are read-only.",
	Severity:    lint.SeverityError,
	Kinds: []parser.NodeKind{
		parser.KindAssign, parser.KindAugAssign, parser.KindAnnAssign,
		parser.KindDelete, parser.KindCall,
	},
	Check: checkReadOnly,

	Rationale: `A foreign handle reads the state of another contract. Only the owning
contract may write it; the runtime raises on any write.`,

	BadExample: `supply = ForeignVariable(foreign_contract="currency", foreign_name="supply")

@export
def inflate():
    supply.set(supply.get() * 2)`,

	GoodExample: `supply = ForeignVariable(foreign_contract="currency", foreign_name="supply")

@export
def total():
    return supply.get()`,
}

func checkReadOnly(node parser.Node, pass *lint.Pass) []lint.Diagnostic {
	if call, ok := node.(*parser.Call); ok {
		if pass.Info.Shape(call) != classify.ShapeStorageAccess {
			return nil
		}
		attr, ok := call.Func.(*parser.Attribute)
		if !ok || !pass.Policy.IsWriteMethod(attr.Attr) {
			return nil
		}
		d, ok := pass.Info.StorageHandle(attr.Value)
		if !ok || !d.Spec.ReadOnly {
			return nil
		}
		return []lint.Diagnostic{atStatement("ORM_READ_ONLY", call, pass, fmt.Sprintf(
			"cannot call %s() on read-only %s '%s'", attr.Attr, d.Type, d.Name))}
	}

	var diags []lint.Diagnostic
	for _, t := range assignTargets(node) {
		sub, ok := t.(*parser.Subscript)
		if !ok {
			continue
		}
		d, ok := pass.Info.StorageHandle(sub.Value)
		if !ok || !d.Spec.ReadOnly {
			continue
		}
		diags = append(diags, lint.NewDiagnostic("ORM_READ_ONLY", node, fmt.Sprintf(
			"cannot write to read-only %s '%s'", d.Type, d.Name)))
	}
	return diags
}
