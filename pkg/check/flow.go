package check

import (
	"fmt"

	"github.com/leapstack-labs/contractlint/pkg/lint"
	"github.com/leapstack-labs/contractlint/pkg/parser"
)

// flowVisitor runs the checks that depend only on the statement structure
// and on single expressions.
type flowVisitor struct {
	stack []parser.Node
	diags []lint.Diagnostic
}

func (f *flowVisitor) Visit(n parser.Node) parser.Visitor {
	if n == nil {
		f.stack = f.stack[:len(f.stack)-1]
		return nil
	}
	f.check(n)
	f.stack = append(f.stack, n)
	return f
}

func (f *flowVisitor) add(code string, n parser.Node, msg string) {
	f.diags = append(f.diags, newDiagnostic(code, n, msg))
}

func (f *flowVisitor) inFunction() bool {
	for _, n := range f.stack {
		switch n.(type) {
		case *parser.FunctionDef, *parser.Lambda:
			return true
		}
	}
	return false
}

func (f *flowVisitor) inLoop() bool {
	for i := len(f.stack) - 1; i >= 0; i-- {
		switch f.stack[i].(type) {
		case *parser.For, *parser.While:
			return true
		case *parser.FunctionDef, *parser.Lambda, *parser.ClassDef:
			return false
		}
	}
	return false
}

func (f *flowVisitor) check(n parser.Node) {
	switch n := n.(type) {
	case *parser.Return:
		if !f.inFunction() {
			f.add(CodeMisplacedStatement, n, "'return' outside function")
		}
	case *parser.Yield:
		if !f.inFunction() {
			f.add(CodeMisplacedStatement, n, "'yield' outside function")
		}
	case *parser.Break:
		if !f.inLoop() {
			f.add(CodeMisplacedStatement, n, "'break' outside loop")
		}
	case *parser.Continue:
		if !f.inLoop() {
			f.add(CodeMisplacedStatement, n, "'continue' not properly in loop")
		}
	case *parser.FString:
		if len(n.Values) == 0 {
			f.add(CodeFStringNoPlaceholders, n, "f-string is missing placeholders")
		}
	case *parser.Dict:
		f.checkDictKeys(n)
	case *parser.Compare:
		f.checkIsLiteral(n)
	}
	for _, block := range blocks(n) {
		f.checkUnreachable(block)
	}
}

// blocks returns the statement lists directly owned by n.
func blocks(n parser.Node) [][]parser.Stmt {
	switch n := n.(type) {
	case *parser.Module:
		return [][]parser.Stmt{n.Body}
	case *parser.FunctionDef:
		return [][]parser.Stmt{n.Body}
	case *parser.ClassDef:
		return [][]parser.Stmt{n.Body}
	case *parser.For:
		return [][]parser.Stmt{n.Body, n.Else}
	case *parser.While:
		return [][]parser.Stmt{n.Body, n.Else}
	case *parser.If:
		return [][]parser.Stmt{n.Body, n.Else}
	case *parser.With:
		return [][]parser.Stmt{n.Body}
	case *parser.Try:
		return [][]parser.Stmt{n.Body, n.Else, n.Finally}
	case *parser.ExceptHandler:
		return [][]parser.Stmt{n.Body}
	}
	return nil
}

func terminator(s parser.Stmt) string {
	switch s.(type) {
	case *parser.Return:
		return "return"
	case *parser.Raise:
		return "raise"
	case *parser.Break:
		return "break"
	case *parser.Continue:
		return "continue"
	}
	return ""
}

func (f *flowVisitor) checkUnreachable(block []parser.Stmt) {
	for i := 0; i+1 < len(block); i++ {
		if kw := terminator(block[i]); kw != "" {
			f.add(CodeUnreachableCode, block[i+1], fmt.Sprintf("unreachable code after '%s'", kw))
			return
		}
	}
}

func (f *flowVisitor) checkDictKeys(d *parser.Dict) {
	seen := make(map[string]bool)
	for _, key := range d.Keys {
		id, label := dictKey(key)
		if id == "" {
			continue
		}
		if seen[id] {
			f.add(CodeDuplicateDictKey, key, fmt.Sprintf("dictionary key %s repeated", label))
			continue
		}
		seen[id] = true
	}
}

// dictKey identifies constant and name keys. Other keys cannot be compared
// statically.
func dictKey(e parser.Expr) (id, label string) {
	switch e := e.(type) {
	case *parser.Constant:
		label = e.Value
		if e.ConstKind == parser.ConstStr {
			label = "'" + e.Value + "'"
		}
		return fmt.Sprintf("%d:%s", e.ConstKind, e.Value), label
	case *parser.Name:
		return "name:" + e.ID, e.ID
	}
	return "", ""
}

func (f *flowVisitor) checkIsLiteral(c *parser.Compare) {
	operands := append([]parser.Expr{c.Left}, c.Comparators...)
	for i, op := range c.Ops {
		if op != parser.CmpIs && op != parser.CmpIsNot {
			continue
		}
		if isLiteral(operands[i]) || isLiteral(operands[i+1]) {
			f.add(CodeIsLiteral, c, "use ==/!= to compare constant literals (str, bytes, int, float, tuple)")
			return
		}
	}
}

func isLiteral(e parser.Expr) bool {
	switch e := e.(type) {
	case *parser.Constant:
		switch e.ConstKind {
		case parser.ConstStr, parser.ConstBytes, parser.ConstInt, parser.ConstFloat, parser.ConstComplex:
			return true
		}
	case *parser.Tuple:
		return true
	}
	return false
}
