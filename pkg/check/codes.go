package check

import (
	"github.com/leapstack-labs/contractlint/pkg/lint"
)

// Diagnostic codes reported by the validator.
const (
	CodeUndefinedName         = "UNDEFINED_NAME"
	CodeUnusedImport          = "UNUSED_IMPORT"
	CodeUnusedVariable        = "UNUSED_VARIABLE"
	CodeUnreachableCode       = "UNREACHABLE_CODE"
	CodeMisplacedStatement    = "MISPLACED_STATEMENT"
	CodeFStringNoPlaceholders = "FSTRING_NO_PLACEHOLDERS"
	CodeDuplicateDictKey      = "DUPLICATE_DICT_KEY"
	CodeIsLiteral             = "IS_LITERAL"
)

// The validator's checks are registered as metadata so they show up in
// rule listings and accept configuration like tree rules. They carry no
// node kinds and are never dispatched by the engine.
var checks = []lint.RuleDef{
	{
		ID:          CodeUndefinedName,
		Name:        "check.undefined_name",
		Description: "Name is not defined in any enclosing scope, as a builtin or as a runtime global.",
		Severity:    lint.SeverityError,
		Rationale:   "The name raises NameError when the code runs.",
		BadExample:  "@export\ndef f():\n    return totl",
		GoodExample: "total = Variable()\n\n@export\ndef f():\n    return total.get()",
	},
	{
		ID:          CodeUnusedImport,
		Name:        "check.unused_import",
		Description: "Imported name is never used.",
		Severity:    lint.SeverityWarning,
		Rationale:   "Every imported contract is loaded and metered even when it is not called.",
		BadExample:  "import currency\n\n@export\ndef f():\n    return 1",
		Fix:         "Remove the import.",
	},
	{
		ID:          CodeUnusedVariable,
		Name:        "check.unused_variable",
		Description: "Local variable is assigned but never read.",
		Severity:    lint.SeverityWarning,
		BadExample:  "@export\ndef f(x: int):\n    y = x * 2\n    return x",
	},
	{
		ID:          CodeUnreachableCode,
		Name:        "check.unreachable_code",
		Description: "Statement follows a return, raise, break or continue in the same block.",
		Severity:    lint.SeverityWarning,
		BadExample:  "@export\ndef f():\n    return 1\n    owner.set(2)",
	},
	{
		ID:          CodeMisplacedStatement,
		Name:        "check.misplaced_statement",
		Description: "return or yield outside a function, or break or continue outside a loop.",
		Severity:    lint.SeverityError,
		Rationale:   "The runtime compiler rejects these statements with a SyntaxError.",
		BadExample:  "owner = Variable()\nreturn owner",
	},
	{
		ID:          CodeFStringNoPlaceholders,
		Name:        "check.fstring_no_placeholders",
		Description: "f-string without replacement fields.",
		Severity:    lint.SeverityWarning,
		BadExample:  `message = f"transfer complete"`,
		GoodExample: `message = "transfer complete"`,
	},
	{
		ID:          CodeDuplicateDictKey,
		Name:        "check.duplicate_dict_key",
		Description: "Dictionary literal repeats a key; only the last value is kept.",
		Severity:    lint.SeverityWarning,
		BadExample:  `params = {"amount": int, "amount": float}`,
	},
	{
		ID:          CodeIsLiteral,
		Name:        "check.is_literal",
		Description: "Comparison with 'is' against a str, bytes or number literal.",
		Severity:    lint.SeverityWarning,
		Rationale:   "Identity of literals is an interpreter detail; use == or != to compare values.",
		BadExample:  `if symbol is "TAU":`,
		GoodExample: `if symbol == "TAU":`,
	},
}

func init() {
	for _, def := range checks {
		def.Group = "check"
		lint.Register(def)
	}
}

func severityOf(code string) lint.Severity {
	for _, def := range checks {
		if def.ID == code {
			return def.Severity
		}
	}
	return lint.SeverityWarning
}
