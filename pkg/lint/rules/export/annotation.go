package export

import (
	"fmt"

	"github.com/leapstack-labs/contractlint/pkg/lint"
	"github.com/leapstack-labs/contractlint/pkg/parser"
)

func init() {
	lint.Register(Annotation)
	lint.Register(ReturnAnnotation)
}

// Annotation checks the parameter annotations of exported functions.
var Annotation = lint.RuleDef{
	ID:          "EXPORT_ANNOTATION",
	Name:        "export.annotation",
	Group:       "export",
	Description: "Parameters of exported functions must be annotated with an allowed type.",
	Severity:    lint.SeverityError,
	Kinds:       []parser.NodeKind{parser.KindFunctionDef},
	Check:       checkAnnotation,
	ConfigKeys:  []string{"require_annotations"},

	Rationale: `Arguments of exported functions arrive from transactions as JSON. The
runtime uses the annotations to decode and type-check them, and only supports a
fixed set of types.`,

	BadExample: `@export
def transfer(amount, to: tuple):
    pass`,

	GoodExample: `@export
def transfer(amount: float, to: str):
    pass`,

	Fix: "Annotate each parameter with one of: dict, list, str, int, float, bool, datetime.datetime, datetime.timedelta, Any.",
}

// ReturnAnnotation flags return annotations on exported functions.
var ReturnAnnotation = lint.RuleDef{
	ID:          "EXPORT_RETURN_ANNOTATION",
	Name:        "export.return_annotation",
	Group:       "export",
	Description: "Exported functions must not declare a return annotation.",
	Severity:    lint.SeverityError,
	Kinds:       []parser.NodeKind{parser.KindFunctionDef},
	Check:       checkReturnAnnotation,

	Rationale: `Return values are serialized by the runtime regardless of their declared
type; return annotations are rejected when the contract is submitted.`,

	BadExample: `@export
def balance_of(account: str) -> float:
    return balances[account]`,

	GoodExample: `@export
def balance_of(account: str):
    return balances[account]`,
}

func exported(fn *parser.FunctionDef, pass *lint.Pass) bool {
	mf := pass.Info.MarkedFunc(fn)
	return mf != nil && mf.HasMarker(pass.Policy.Export.Marker)
}

func checkAnnotation(node parser.Node, pass *lint.Pass) []lint.Diagnostic {
	fn, ok := node.(*parser.FunctionDef)
	if !ok || fn.Args == nil || !exported(fn, pass) {
		return nil
	}
	require := lint.GetBoolOption(pass.Options, "require_annotations", true)

	var diags []lint.Diagnostic
	for _, arg := range fn.Args.Args {
		if arg.Annotation == nil {
			if require {
				diags = append(diags, lint.NewDiagnostic("EXPORT_ANNOTATION", arg, fmt.Sprintf(
					"parameter '%s' of exported function '%s' has no type annotation", arg.Name, fn.Name)))
			}
			continue
		}
		if name, ok := parser.DottedName(arg.Annotation); ok && pass.Policy.IsAllowedAnnotation(name) {
			continue
		}
		diags = append(diags, lint.NewDiagnostic("EXPORT_ANNOTATION", arg.Annotation, fmt.Sprintf(
			"parameter '%s' of exported function '%s' has unsupported annotation '%s'",
			arg.Name, fn.Name, pass.Text(arg.Annotation))))
	}
	return diags
}

func checkReturnAnnotation(node parser.Node, pass *lint.Pass) []lint.Diagnostic {
	fn, ok := node.(*parser.FunctionDef)
	if !ok || fn.Returns == nil || pass.Policy.Export.AllowReturnAnnotation || !exported(fn, pass) {
		return nil
	}
	return []lint.Diagnostic{
		lint.NewDiagnostic("EXPORT_RETURN_ANNOTATION", fn.Returns, fmt.Sprintf(
			"exported function '%s' must not declare a return annotation", fn.Name)),
	}
}
