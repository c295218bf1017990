package export

import (
	"fmt"
	"slices"

	"github.com/leapstack-labs/contractlint/pkg/lint"
	"github.com/leapstack-labs/contractlint/pkg/lint/classify"
	"github.com/leapstack-labs/contractlint/pkg/parser"
)

func init() {
	lint.Register(UnknownDecorator)
}

// UnknownDecorator flags decorators other than the recognized markers.
var UnknownDecorator = lint.RuleDef{
	ID:          "EXPORT_UNKNOWN_DECORATOR",
	Name:        "export.unknown_decorator",
	Group:       "export",
	Description: "Only the export and constructor markers may be used as decorators.",
	Severity:    lint.SeverityError,
	Kinds:       []parser.NodeKind{parser.KindDecorator},
	Check:       checkUnknownDecorator,
	ConfigKeys:  []string{"allowed_decorators"},

	Rationale: `Arbitrary decorators wrap functions in code the runtime does not control
and are rejected when the contract is submitted.`,

	BadExample: `@cached
def price():
    return 1`,

	GoodExample: `@export
def price():
    return 1`,

	Fix: "Remove the decorator, or list it under allowed_decorators if the runtime provides it.",
}

func checkUnknownDecorator(node parser.Node, pass *lint.Pass) []lint.Diagnostic {
	d, ok := node.(*parser.Decorator)
	if !ok || pass.Info.Shape(d) != classify.ShapeDecorator {
		return nil
	}
	allowed := lint.GetStringSliceOption(pass.Options, "allowed_decorators", nil)
	if name, ok := parser.DottedName(d.Expr); ok && slices.Contains(allowed, name) {
		return nil
	}
	return []lint.Diagnostic{
		lint.NewDiagnostic("EXPORT_UNKNOWN_DECORATOR", d, fmt.Sprintf(
			"unknown decorator '@%s'; expected @%s or @%s",
			pass.Text(d.Expr), pass.Policy.Export.Marker, pass.Policy.Export.Constructor)),
	}
}
