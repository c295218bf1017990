package structure

import (
	"fmt"

	"github.com/leapstack-labs/contractlint/pkg/lint"
	"github.com/leapstack-labs/contractlint/pkg/parser"
	"github.com/leapstack-labs/contractlint/pkg/token"
)

func init() {
	lint.Register(IllegalConstruct)
}

// IllegalConstruct flags the constructs listed in
// structure.illegal_constructs.
var IllegalConstruct = lint.RuleDef{
	ID:          "SYNTAX_ILLEGAL_CONSTRUCT",
	Name:        "structure.illegal_construct",
	Group:       "structure",
	Description: "The contract uses a language construct the runtime does not support.",
	Severity:    lint.SeverityError,
	Kinds: []parser.NodeKind{
		parser.KindFunctionDef, parser.KindClassDef, parser.KindFor, parser.KindWith,
		parser.KindTry, parser.KindGlobal, parser.KindNonlocal, parser.KindLambda,
		parser.KindGeneratorExp, parser.KindAwait, parser.KindYield, parser.KindBinOp,
		parser.KindAugAssign, parser.KindConstant,
	},
	Check: checkIllegalConstruct,

	Rationale: `Contracts are compiled by a restricted compiler that only understands a
subset of the language. Classes, exception handling, context managers,
generators, async code and closures are rejected when the contract is
submitted.`,

	BadExample: `class Token:
    pass

@export
def f(values: list):
    return sum(v for v in values)`,

	GoodExample: `@export
def f(values: list):
    return sum([v for v in values])`,
}

var constructLabels = map[string]string{
	"AsyncFor":         "async for loop",
	"AsyncFunctionDef": "async function",
	"AsyncWith":        "async with statement",
	"Await":            "await expression",
	"ClassDef":         "class definition",
	"Ellipsis":         "ellipsis literal",
	"GeneratorExp":     "generator expression",
	"Global":           "global statement",
	"Lambda":           "lambda expression",
	"MatMult":          "matrix multiplication operator",
	"Nonlocal":         "nonlocal statement",
	"Try":              "try statement",
	"With":             "with statement",
	"Yield":            "yield expression",
	"YieldFrom":        "yield from expression",
}

// constructOf maps a node to its construct name, or "" for nodes that are
// never illegal constructs.
func constructOf(n parser.Node) string {
	switch n := n.(type) {
	case *parser.FunctionDef:
		if n.Async {
			return "AsyncFunctionDef"
		}
		return ""
	case *parser.For:
		if n.Async {
			return "AsyncFor"
		}
		return ""
	case *parser.With:
		if n.Async {
			return "AsyncWith"
		}
	case *parser.Yield:
		if n.From {
			return "YieldFrom"
		}
	case *parser.BinOp:
		if n.Op == token.AT {
			return "MatMult"
		}
		return ""
	case *parser.AugAssign:
		if n.Op == token.ATEQ {
			return "MatMult"
		}
		return ""
	case *parser.Constant:
		if n.ConstKind == parser.ConstEllipsis {
			return "Ellipsis"
		}
		return ""
	}
	return n.Kind().String()
}

func checkIllegalConstruct(node parser.Node, pass *lint.Pass) []lint.Diagnostic {
	construct := constructOf(node)
	if construct == "" || !pass.Policy.IsIllegalConstruct(construct) {
		return nil
	}
	label := constructLabels[construct]
	if label == "" {
		label = construct
	}
	return []lint.Diagnostic{
		lint.NewDiagnostic("SYNTAX_ILLEGAL_CONSTRUCT", node, fmt.Sprintf("%s is not supported in contracts", label)),
	}
}
