package structure

import (
	"github.com/leapstack-labs/contractlint/pkg/lint"
	"github.com/leapstack-labs/contractlint/pkg/parser"
)

func init() {
	lint.Register(ImportFrom)
	lint.Register(NestedImport)
}

// ImportFrom flags from-imports.
var ImportFrom = lint.RuleDef{
	ID:          "SYNTAX_IMPORT_FROM",
	Name:        "structure.import_from",
	Group:       "structure",
	Description: "from ... import statements are not supported.",
	Severity:    lint.SeverityError,
	Kinds:       []parser.NodeKind{parser.KindImportFrom},
	Check:       checkImportFrom,

	Rationale: `Imported contracts are resolved as whole modules. The runtime has no way
to bind a single attribute of another contract at import time.`,

	BadExample:  `from currency import transfer`,
	GoodExample: `import currency`,
	Fix:         "Import the contract and call currency.transfer(...).",
}

// NestedImport flags imports inside function bodies.
var NestedImport = lint.RuleDef{
	ID:          "SYNTAX_NESTED_IMPORT",
	Name:        "structure.nested_import",
	Group:       "structure",
	Description: "Imports must be at module level.",
	Severity:    lint.SeverityError,
	Kinds:       []parser.NodeKind{parser.KindImport, parser.KindImportFrom},
	Check:       checkNestedImport,

	Rationale: `Contract dependencies are resolved once, when the module is loaded. An
import inside a function would be resolved on every call.`,

	BadExample: `@export
def f():
    import currency
    currency.transfer(amount=1, to="x")`,

	GoodExample: `import currency

@export
def f():
    currency.transfer(amount=1, to="x")`,
}

func checkImportFrom(node parser.Node, pass *lint.Pass) []lint.Diagnostic {
	if _, ok := node.(*parser.ImportFrom); !ok {
		return nil
	}
	return []lint.Diagnostic{
		lint.NewDiagnostic("SYNTAX_IMPORT_FROM", node, "'from ... import' is not supported; import the module instead"),
	}
}

func checkNestedImport(node parser.Node, pass *lint.Pass) []lint.Diagnostic {
	fn := pass.EnclosingFunction()
	if fn == nil {
		return nil
	}
	return []lint.Diagnostic{
		lint.NewDiagnostic("SYNTAX_NESTED_IMPORT", node, "import inside function '"+fn.Name+"'; imports must be at module level"),
	}
}
