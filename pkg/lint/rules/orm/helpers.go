package orm

import (
	"github.com/leapstack-labs/contractlint/pkg/lint"
	"github.com/leapstack-labs/contractlint/pkg/lint/classify"
	"github.com/leapstack-labs/contractlint/pkg/parser"
)

// atStatement builds a diagnostic positioned at the statement enclosing n.
func atStatement(id string, n parser.Node, pass *lint.Pass, msg string) lint.Diagnostic {
	return lint.NewDiagnostic(id, pass.EnclosingStatement(n), msg)
}

// declared reports whether call is the constructor of a recorded
// declaration.
func declared(call *parser.Call, info *classify.Info) bool {
	for _, d := range info.Declarations {
		if d.Call == call {
			return true
		}
	}
	return false
}

// assignTargets returns the targets written by an assignment-like statement.
func assignTargets(n parser.Node) []parser.Expr {
	switch s := n.(type) {
	case *parser.Assign:
		return s.Targets
	case *parser.AugAssign:
		return []parser.Expr{s.Target}
	case *parser.AnnAssign:
		if s.Value == nil {
			return nil
		}
		return []parser.Expr{s.Target}
	case *parser.Delete:
		return s.Targets
	case *parser.For:
		return []parser.Expr{s.Target}
	}
	return nil
}
