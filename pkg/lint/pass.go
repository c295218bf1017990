package lint

import (
	"github.com/leapstack-labs/contractlint/pkg/lint/classify"
	"github.com/leapstack-labs/contractlint/pkg/lint/policy"
	"github.com/leapstack-labs/contractlint/pkg/parser"
)

// Pass is the read-only context handed to every rule check. It exposes the
// module, the classification results and the ancestors of the node being
// checked.
type Pass struct {
	Module  *parser.Module
	Source  string
	Policy  *policy.Policy
	Info    *classify.Info
	Options map[string]any // options of the rule being run

	stack []parser.Node // ancestors of the current node, outermost first
}

// Parent returns the direct parent of the current node, or nil at the root.
func (p *Pass) Parent() parser.Node {
	if len(p.stack) == 0 {
		return nil
	}
	return p.stack[len(p.stack)-1]
}

// Ancestors returns the ancestors of the current node, outermost first.
// The slice must not be modified.
func (p *Pass) Ancestors() []parser.Node {
	return p.stack
}

// AtModuleLevel reports whether the current node is a direct child of the
// module.
func (p *Pass) AtModuleLevel() bool {
	_, ok := p.Parent().(*parser.Module)
	return ok
}

// EnclosingFunction returns the innermost function containing the current
// node, or nil.
func (p *Pass) EnclosingFunction() *parser.FunctionDef {
	for i := len(p.stack) - 1; i >= 0; i-- {
		if fn, ok := p.stack[i].(*parser.FunctionDef); ok {
			return fn
		}
	}
	return nil
}

// EnclosingStatement returns n if it is a statement, else the innermost
// statement containing the current node.
func (p *Pass) EnclosingStatement(n parser.Node) parser.Node {
	if _, ok := n.(parser.Stmt); ok {
		return n
	}
	for i := len(p.stack) - 1; i >= 0; i-- {
		if s, ok := p.stack[i].(parser.Stmt); ok {
			return s
		}
	}
	return n
}

// Text returns the source text spanned by n.
func (p *Pass) Text(n parser.Node) string {
	start, end := n.Pos().Offset, n.End().Offset
	if start < 0 || end > len(p.Source) || start >= end {
		return ""
	}
	return p.Source[start:end]
}
