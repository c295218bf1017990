package parser

// Visitor's Visit method is invoked for each node encountered by Walk.
// If the result visitor w is not nil, Walk visits each of the children
// of node with the visitor w, followed by a call of w.Visit(nil).
type Visitor interface {
	Visit(node Node) (w Visitor)
}

// Walk traverses a syntax tree in depth-first, source order.
func Walk(v Visitor, node Node) {
	if v = v.Visit(node); v == nil {
		return
	}
	for _, child := range Children(node) {
		Walk(v, child)
	}
	v.Visit(nil)
}

type inspector func(Node) bool

func (f inspector) Visit(node Node) Visitor {
	if f(node) {
		return f
	}
	return nil
}

// Inspect traverses a syntax tree in depth-first order: it starts by calling
// f(node); if f returns true, Inspect invokes f recursively for each of the
// children of node, followed by a call of f(nil).
func Inspect(node Node, f func(Node) bool) {
	Walk(inspector(f), node)
}

// Children returns the direct children of n in source order.
// Unknown node types have no children.
func Children(n Node) []Node {
	var out []Node
	addExpr := func(e Expr) {
		if e != nil {
			out = append(out, e)
		}
	}
	addExprs := func(es []Expr) {
		for _, e := range es {
			addExpr(e)
		}
	}
	addStmts := func(ss []Stmt) {
		for _, s := range ss {
			if s != nil {
				out = append(out, s)
			}
		}
	}
	addDecorators := func(ds []*Decorator) {
		for _, d := range ds {
			out = append(out, d)
		}
	}
	addKeywords := func(ks []*Keyword) {
		for _, k := range ks {
			out = append(out, k)
		}
	}
	addGenerators := func(gs []*Comprehension) {
		for _, g := range gs {
			out = append(out, g)
		}
	}

	switch n := n.(type) {
	case *Module:
		addStmts(n.Body)
	case *FunctionDef:
		addDecorators(n.Decorators)
		if n.Args != nil {
			out = append(out, n.Args)
		}
		addExpr(n.Returns)
		addStmts(n.Body)
	case *ClassDef:
		addDecorators(n.Decorators)
		addExprs(n.Bases)
		addKeywords(n.Keywords)
		addStmts(n.Body)
	case *Return:
		addExpr(n.Value)
	case *Delete:
		addExprs(n.Targets)
	case *Assign:
		addExprs(n.Targets)
		addExpr(n.Value)
	case *AugAssign:
		addExpr(n.Target)
		addExpr(n.Value)
	case *AnnAssign:
		addExpr(n.Target)
		addExpr(n.Annotation)
		addExpr(n.Value)
	case *For:
		addExpr(n.Target)
		addExpr(n.Iter)
		addStmts(n.Body)
		addStmts(n.Else)
	case *While:
		addExpr(n.Test)
		addStmts(n.Body)
		addStmts(n.Else)
	case *If:
		addExpr(n.Test)
		addStmts(n.Body)
		addStmts(n.Else)
	case *With:
		for _, item := range n.Items {
			out = append(out, item)
		}
		addStmts(n.Body)
	case *Raise:
		addExpr(n.Exc)
		addExpr(n.Cause)
	case *Try:
		addStmts(n.Body)
		for _, h := range n.Handlers {
			out = append(out, h)
		}
		addStmts(n.Else)
		addStmts(n.Finally)
	case *Assert:
		addExpr(n.Test)
		addExpr(n.Msg)
	case *Import:
		for _, a := range n.Names {
			out = append(out, a)
		}
	case *ImportFrom:
		for _, a := range n.Names {
			out = append(out, a)
		}
	case *ExprStmt:
		addExpr(n.Value)
	case *Decorator:
		addExpr(n.Expr)
	case *Arguments:
		for _, a := range n.Args {
			out = append(out, a)
		}
	case *Arg:
		addExpr(n.Annotation)
		addExpr(n.Default)
	case *Keyword:
		addExpr(n.Value)
	case *WithItem:
		addExpr(n.Context)
		addExpr(n.Vars)
	case *ExceptHandler:
		addExpr(n.Type)
		addStmts(n.Body)
	case *Comprehension:
		addExpr(n.Target)
		addExpr(n.Iter)
		addExprs(n.Ifs)
	case *BoolOp:
		addExprs(n.Values)
	case *NamedExpr:
		if n.Target != nil {
			out = append(out, n.Target)
		}
		addExpr(n.Value)
	case *BinOp:
		addExpr(n.Left)
		addExpr(n.Right)
	case *UnaryOp:
		addExpr(n.Operand)
	case *Lambda:
		if n.Args != nil {
			out = append(out, n.Args)
		}
		addExpr(n.Body)
	case *IfExp:
		// Source order is body, test, else.
		addExpr(n.Body)
		addExpr(n.Test)
		addExpr(n.Else)
	case *Dict:
		for i := range n.Values {
			addExpr(n.Keys[i])
			addExpr(n.Values[i])
		}
	case *Set:
		addExprs(n.Elts)
	case *List:
		addExprs(n.Elts)
	case *Tuple:
		addExprs(n.Elts)
	case *ListComp:
		addExpr(n.Elt)
		addGenerators(n.Generators)
	case *SetComp:
		addExpr(n.Elt)
		addGenerators(n.Generators)
	case *DictComp:
		addExpr(n.Key)
		addExpr(n.Value)
		addGenerators(n.Generators)
	case *GeneratorExp:
		addExpr(n.Elt)
		addGenerators(n.Generators)
	case *Await:
		addExpr(n.Value)
	case *Yield:
		addExpr(n.Value)
	case *Compare:
		addExpr(n.Left)
		addExprs(n.Comparators)
	case *Call:
		addExpr(n.Func)
		addExprs(n.Args)
		addKeywords(n.Keywords)
	case *FString:
		addExprs(n.Values)
	case *Attribute:
		addExpr(n.Value)
	case *Subscript:
		addExpr(n.Value)
		addExpr(n.Index)
	case *Starred:
		addExpr(n.Value)
	case *Slice:
		addExpr(n.Lower)
		addExpr(n.Upper)
		addExpr(n.Step)
	}
	return out
}

// DottedName renders a name or attribute chain such as datetime.datetime.
// It reports false for any other expression.
func DottedName(e Expr) (string, bool) {
	switch e := e.(type) {
	case *Name:
		return e.ID, true
	case *Attribute:
		base, ok := DottedName(e.Value)
		if !ok {
			return "", false
		}
		return base + "." + e.Attr, true
	}
	return "", false
}
