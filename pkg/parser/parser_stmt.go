package parser

import (
	"strings"

	"github.com/leapstack-labs/contractlint/pkg/token"
)

// Statement grammar:
//
//	decorated   → ('@' namedexpr NEWLINE)+ (def | async def | class)
//	def         → 'def' NAME '(' params? ')' ('->' test)? ':' block
//	class       → 'class' NAME ('(' arglist? ')')? ':' block
//	if          → 'if' namedexpr ':' block ('elif' namedexpr ':' block)* ('else' ':' block)?
//	while       → 'while' namedexpr ':' block ('else' ':' block)?
//	for         → 'for' exprlist 'in' testlist ':' block ('else' ':' block)?
//	try         → 'try' ':' block (handlers else? finally? | finally)
//	with        → 'with' item (',' item)* ':' block
//	simple      → expr_stmt | del | pass | break | continue | return | raise
//	            | global | nonlocal | import | from_import | assert

func (p *Parser) parseModule() Node {
	start := p.token.Pos
	mod := &Module{}
	for !p.check(token.EOF) {
		if p.check(token.INDENT) {
			p.errorf(p.token.Pos, "unexpected indent")
		}
		mod.Body = append(mod.Body, p.parseStatement()...)
	}
	mod.Span = token.Span{Start: start, End: p.token.End}
	if len(mod.Body) > 0 {
		mod.Span.Start = mod.Body[0].Pos()
	}
	return mod
}

// parseStatement parses one logical line or one compound statement.
func (p *Parser) parseStatement() []Stmt {
	p.enter()
	defer p.leave()

	switch p.token.Type {
	case token.AT:
		return []Stmt{p.parseDecorated()}
	case token.DEF:
		return []Stmt{p.parseFunctionDef(p.token.Pos, nil, false)}
	case token.CLASS:
		return []Stmt{p.parseClassDef(p.token.Pos, nil)}
	case token.IF:
		return []Stmt{p.parseIf()}
	case token.WHILE:
		return []Stmt{p.parseWhile()}
	case token.FOR:
		return []Stmt{p.parseFor(p.token.Pos, false)}
	case token.TRY:
		return []Stmt{p.parseTry()}
	case token.WITH:
		return []Stmt{p.parseWith(p.token.Pos, false)}
	case token.ASYNC:
		return []Stmt{p.parseAsync()}
	case token.DEDENT, token.INDENT:
		p.errorf(p.token.Pos, "unexpected %s", describe(p.token))
	}
	return p.parseSimpleStatements()
}

// parseSimpleStatements parses simple_stmt (';' simple_stmt)* ';'? NEWLINE.
func (p *Parser) parseSimpleStatements() []Stmt {
	stmts := []Stmt{p.parseSimpleStatement()}
	for p.match(token.SEMICOLON) {
		if p.check(token.NEWLINE) || p.check(token.EOF) {
			break
		}
		stmts = append(stmts, p.parseSimpleStatement())
	}
	if !p.match(token.NEWLINE) && !p.check(token.EOF) {
		p.errorf(p.token.Pos, "invalid syntax: unexpected %s", describe(p.token))
	}
	return stmts
}

// parseBlock parses the suite following a ':'.
func (p *Parser) parseBlock() []Stmt {
	p.expect(token.COLON, "':'")
	if !p.check(token.NEWLINE) {
		return p.parseSimpleStatements()
	}
	p.nextToken()
	if !p.check(token.INDENT) {
		p.errorf(p.token.Pos, "expected an indented block")
	}
	p.nextToken()
	var body []Stmt
	for !p.check(token.DEDENT) && !p.check(token.EOF) {
		body = append(body, p.parseStatement()...)
	}
	p.match(token.DEDENT)
	return body
}

// ---------- Compound Statements ----------

func (p *Parser) parseDecorated() Stmt {
	start := p.token.Pos
	var decorators []*Decorator
	for p.check(token.AT) {
		at := p.token.Pos
		p.nextToken()
		expr := p.parseNamedExprTest()
		decorators = append(decorators, &Decorator{node: p.span(at), Expr: expr})
		p.expect(token.NEWLINE, "newline after decorator")
	}
	switch p.token.Type {
	case token.DEF:
		return p.parseFunctionDef(start, decorators, false)
	case token.CLASS:
		return p.parseClassDef(start, decorators)
	case token.ASYNC:
		if p.peek(1).Type == token.DEF {
			p.nextToken()
			return p.parseFunctionDef(start, decorators, true)
		}
	}
	p.errorExpected("function or class definition after decorator")
	return nil
}

func (p *Parser) parseAsync() Stmt {
	start := p.token.Pos
	p.nextToken()
	switch p.token.Type {
	case token.DEF:
		return p.parseFunctionDef(start, nil, true)
	case token.FOR:
		return p.parseFor(start, true)
	case token.WITH:
		return p.parseWith(start, true)
	}
	p.errorExpected("'def', 'for' or 'with' after 'async'")
	return nil
}

func (p *Parser) parseFunctionDef(start token.Position, decorators []*Decorator, async bool) Stmt {
	p.expect(token.DEF, "'def'")
	name := p.expect(token.NAME, "function name")
	fn := &FunctionDef{
		Name:       name.Literal,
		NamePos:    name.Pos,
		Decorators: decorators,
		Async:      async,
	}
	lparen := p.expect(token.LPAREN, "'('")
	fn.Args = p.parseParameters(lparen.Pos, token.RPAREN, true)
	p.expect(token.RPAREN, "')'")
	if p.match(token.ARROW) {
		fn.Returns = p.parseTest()
	}
	fn.Body = p.parseBlock()
	fn.node = p.span(start)
	return fn
}

// parseParameters parses a def or lambda parameter list up to (not
// including) the closing token.
func (p *Parser) parseParameters(start token.Position, closing token.TokenType, annotations bool) *Arguments {
	args := &Arguments{}
	seen := map[string]bool{}
	kind := ArgPositional
	sawDefault, sawVarArgs, sawKwArgs := false, false, false

	for !p.check(closing) {
		if sawKwArgs {
			p.errorf(p.token.Pos, "arguments cannot follow var-keyword argument")
		}
		argStart := p.token.Pos
		var added *Arg
		switch {
		case p.match(token.SLASH):
			// Positional-only marker; parameters keep their positional kind.
		case p.match(token.DSTAR):
			added = p.parseParam(argStart, ArgKwArgs, annotations)
			sawKwArgs = true
		case p.match(token.STAR):
			if sawVarArgs {
				p.errorf(argStart, "* argument may appear only once")
			}
			sawVarArgs = true
			if p.check(token.NAME) {
				added = p.parseParam(argStart, ArgVarArgs, annotations)
			} else if p.check(closing) || (p.check(token.COMMA) && p.peek(1).Type == closing) {
				p.errorf(argStart, "named arguments must follow bare *")
			}
			kind = ArgKwOnly
		default:
			added = p.parseParam(argStart, kind, annotations)
			if p.match(token.ASSIGN) {
				added.Default = p.parseTest()
				added.node = p.span(argStart)
				sawDefault = true
			} else if sawDefault && kind == ArgPositional {
				p.errorf(argStart, "non-default argument follows default argument")
			}
		}
		if added != nil {
			if seen[added.Name] {
				p.errorf(argStart, "duplicate argument '%s' in function definition", added.Name)
			}
			seen[added.Name] = true
			args.Args = append(args.Args, added)
		}
		if !p.match(token.COMMA) {
			break
		}
	}
	args.node = p.span(start)
	return args
}

func (p *Parser) parseParam(start token.Position, kind ArgKind, annotations bool) *Arg {
	name := p.expect(token.NAME, "parameter name")
	arg := &Arg{Name: name.Literal, ArgKind: kind}
	if annotations && p.match(token.COLON) {
		arg.Annotation = p.parseTest()
	}
	arg.node = p.span(start)
	return arg
}

func (p *Parser) parseClassDef(start token.Position, decorators []*Decorator) Stmt {
	p.expect(token.CLASS, "'class'")
	name := p.expect(token.NAME, "class name")
	cls := &ClassDef{Name: name.Literal, Decorators: decorators}
	if p.match(token.LPAREN) {
		cls.Bases, cls.Keywords = p.parseArgList(token.RPAREN)
		p.expect(token.RPAREN, "')'")
	}
	cls.Body = p.parseBlock()
	cls.node = p.span(start)
	return cls
}

func (p *Parser) parseIf() Stmt {
	start := p.token.Pos
	p.nextToken() // 'if' or 'elif'
	stmt := &If{Test: p.parseNamedExprTest()}
	stmt.Body = p.parseBlock()
	switch {
	case p.check(token.ELIF):
		stmt.Else = []Stmt{p.parseIf()}
	case p.match(token.ELSE):
		stmt.Else = p.parseBlock()
	}
	stmt.node = p.span(start)
	return stmt
}

func (p *Parser) parseWhile() Stmt {
	start := p.token.Pos
	p.expect(token.WHILE, "'while'")
	stmt := &While{Test: p.parseNamedExprTest()}
	stmt.Body = p.parseBlock()
	if p.match(token.ELSE) {
		stmt.Else = p.parseBlock()
	}
	stmt.node = p.span(start)
	return stmt
}

func (p *Parser) parseFor(start token.Position, async bool) Stmt {
	p.expect(token.FOR, "'for'")
	stmt := &For{Async: async}
	stmt.Target = p.parseExprList()
	p.checkTarget(stmt.Target, "for loop")
	p.expect(token.IN, "'in'")
	stmt.Iter = p.parseTestList()
	stmt.Body = p.parseBlock()
	if p.match(token.ELSE) {
		stmt.Else = p.parseBlock()
	}
	stmt.node = p.span(start)
	return stmt
}

func (p *Parser) parseTry() Stmt {
	start := p.token.Pos
	p.expect(token.TRY, "'try'")
	stmt := &Try{Body: p.parseBlock()}
	for p.check(token.EXCEPT) {
		hStart := p.token.Pos
		p.nextToken()
		p.match(token.STAR) // except*
		h := &ExceptHandler{}
		if !p.check(token.COLON) {
			h.Type = p.parseTest()
			if p.match(token.AS) {
				h.Name = p.expect(token.NAME, "exception name").Literal
			}
		}
		h.Body = p.parseBlock()
		h.node = p.span(hStart)
		stmt.Handlers = append(stmt.Handlers, h)
	}
	if len(stmt.Handlers) > 0 && p.match(token.ELSE) {
		stmt.Else = p.parseBlock()
	}
	if p.match(token.FINALLY) {
		stmt.Finally = p.parseBlock()
	}
	if len(stmt.Handlers) == 0 && stmt.Finally == nil {
		p.errorf(p.token.Pos, "expected 'except' or 'finally' block")
	}
	stmt.node = p.span(start)
	return stmt
}

func (p *Parser) parseWith(start token.Position, async bool) Stmt {
	p.expect(token.WITH, "'with'")
	stmt := &With{Async: async}
	for {
		itemStart := p.token.Pos
		item := &WithItem{Context: p.parseTest()}
		if p.match(token.AS) {
			item.Vars = p.parseExpr()
			p.checkTarget(item.Vars, "with statement")
		}
		item.node = p.span(itemStart)
		stmt.Items = append(stmt.Items, item)
		if !p.match(token.COMMA) {
			break
		}
	}
	stmt.Body = p.parseBlock()
	stmt.node = p.span(start)
	return stmt
}

// ---------- Simple Statements ----------

func (p *Parser) parseSimpleStatement() Stmt {
	start := p.token.Pos
	switch p.token.Type {
	case token.PASS:
		p.nextToken()
		return &Pass{node: p.span(start)}
	case token.BREAK:
		p.nextToken()
		return &Break{node: p.span(start)}
	case token.CONTINUE:
		p.nextToken()
		return &Continue{node: p.span(start)}
	case token.RETURN:
		p.nextToken()
		stmt := &Return{}
		if !p.atStatementEnd() {
			stmt.Value = p.parseTestListStarExpr()
		}
		stmt.node = p.span(start)
		return stmt
	case token.RAISE:
		p.nextToken()
		stmt := &Raise{}
		if !p.atStatementEnd() {
			stmt.Exc = p.parseTest()
			if p.match(token.FROM) {
				stmt.Cause = p.parseTest()
			}
		}
		stmt.node = p.span(start)
		return stmt
	case token.GLOBAL, token.NONLOCAL:
		global := p.token.Type == token.GLOBAL
		p.nextToken()
		var names []string
		for {
			names = append(names, p.expect(token.NAME, "name").Literal)
			if !p.match(token.COMMA) {
				break
			}
		}
		if global {
			return &Global{node: p.span(start), Names: names}
		}
		return &Nonlocal{node: p.span(start), Names: names}
	case token.DEL:
		p.nextToken()
		stmt := &Delete{}
		target := p.parseExprList()
		if tup, ok := target.(*Tuple); ok && !isParenthesized(tup) {
			stmt.Targets = tup.Elts
		} else {
			stmt.Targets = []Expr{target}
		}
		for _, t := range stmt.Targets {
			p.checkTarget(t, "del")
		}
		stmt.node = p.span(start)
		return stmt
	case token.ASSERT:
		p.nextToken()
		stmt := &Assert{Test: p.parseTest()}
		if p.match(token.COMMA) {
			stmt.Msg = p.parseTest()
		}
		stmt.node = p.span(start)
		return stmt
	case token.IMPORT:
		return p.parseImport()
	case token.FROM:
		return p.parseImportFrom()
	}
	return p.parseExprStatement()
}

func (p *Parser) atStatementEnd() bool {
	switch p.token.Type {
	case token.NEWLINE, token.SEMICOLON, token.EOF:
		return true
	}
	return false
}

func (p *Parser) parseImport() Stmt {
	start := p.token.Pos
	p.expect(token.IMPORT, "'import'")
	stmt := &Import{}
	for {
		aliasStart := p.token.Pos
		alias := &Alias{Name: p.parseDottedName()}
		if p.match(token.AS) {
			alias.AsName = p.expect(token.NAME, "name after 'as'").Literal
		}
		alias.node = p.span(aliasStart)
		stmt.Names = append(stmt.Names, alias)
		if !p.match(token.COMMA) {
			break
		}
	}
	stmt.node = p.span(start)
	return stmt
}

func (p *Parser) parseImportFrom() Stmt {
	start := p.token.Pos
	p.expect(token.FROM, "'from'")
	stmt := &ImportFrom{}
	for {
		if p.match(token.DOT) {
			stmt.Level++
		} else if p.match(token.ELLIPSIS) {
			stmt.Level += 3
		} else {
			break
		}
	}
	if p.check(token.NAME) {
		stmt.Module = p.parseDottedName()
	} else if stmt.Level == 0 {
		p.errorExpected("module name")
	}
	p.expect(token.IMPORT, "'import'")

	if p.check(token.STAR) {
		tok := p.token
		p.nextToken()
		stmt.Names = []*Alias{{node: node{Span: token.Span{Start: tok.Pos, End: tok.End}}, Name: "*"}}
		stmt.node = p.span(start)
		return stmt
	}
	paren := p.match(token.LPAREN)
	for {
		aliasStart := p.token.Pos
		alias := &Alias{Name: p.expect(token.NAME, "imported name").Literal}
		if p.match(token.AS) {
			alias.AsName = p.expect(token.NAME, "name after 'as'").Literal
		}
		alias.node = p.span(aliasStart)
		stmt.Names = append(stmt.Names, alias)
		if !p.match(token.COMMA) {
			break
		}
		if paren && p.check(token.RPAREN) {
			break
		}
	}
	if paren {
		p.expect(token.RPAREN, "')'")
	}
	stmt.node = p.span(start)
	return stmt
}

func (p *Parser) parseDottedName() string {
	var b strings.Builder
	b.WriteString(p.expect(token.NAME, "name").Literal)
	for p.match(token.DOT) {
		b.WriteByte('.')
		b.WriteString(p.expect(token.NAME, "name").Literal)
	}
	return b.String()
}

// parseExprStatement parses assignments and bare expressions.
func (p *Parser) parseExprStatement() Stmt {
	start := p.token.Pos
	first := p.parseTestListStarExprOrYield()

	switch {
	case p.check(token.COLON):
		p.nextToken()
		if _, ok := first.(*Tuple); ok {
			p.errorf(first.Pos(), "only single target (not tuple) can be annotated")
		}
		p.checkTarget(first, "annotated assignment")
		stmt := &AnnAssign{Target: first, Annotation: p.parseTest()}
		if p.match(token.ASSIGN) {
			stmt.Value = p.parseTestListStarExprOrYield()
		}
		stmt.node = p.span(start)
		return stmt

	case token.IsAugAssign(p.token.Type):
		op := p.token.Type
		if _, ok := first.(*Tuple); ok {
			p.errorf(first.Pos(), "'tuple' is an illegal expression for augmented assignment")
		}
		p.checkTarget(first, "augmented assignment")
		p.nextToken()
		stmt := &AugAssign{Target: first, Op: op}
		stmt.Value = p.parseTestListStarExprOrYield()
		stmt.node = p.span(start)
		return stmt

	case p.check(token.ASSIGN):
		stmt := &Assign{}
		value := first
		for p.match(token.ASSIGN) {
			p.checkTarget(value, "assignment")
			stmt.Targets = append(stmt.Targets, value)
			value = p.parseTestListStarExprOrYield()
		}
		stmt.Value = value
		stmt.node = p.span(start)
		return stmt
	}

	return &ExprStmt{node: p.span(start), Value: first}
}

// isParenthesized reports whether a tuple was written inside parentheses.
func isParenthesized(t *Tuple) bool {
	return len(t.Elts) == 0 || t.Pos() != t.Elts[0].Pos()
}

// checkTarget reports an error if e cannot be assigned to.
func (p *Parser) checkTarget(e Expr, context string) {
	switch e := e.(type) {
	case *Name, *Attribute, *Subscript:
		return
	case *Starred:
		p.checkTarget(e.Value, context)
		return
	case *Tuple:
		for _, elt := range e.Elts {
			p.checkTarget(elt, context)
		}
		return
	case *List:
		for _, elt := range e.Elts {
			p.checkTarget(elt, context)
		}
		return
	}
	p.errorf(e.Pos(), "cannot assign to %s in %s", targetDescription(e), context)
}

func targetDescription(e Expr) string {
	switch e := e.(type) {
	case *Call:
		return "function call"
	case *Constant:
		if e.ConstKind == ConstTrue || e.ConstKind == ConstFalse || e.ConstKind == ConstNone {
			return e.Value
		}
		return "literal"
	case *FString:
		return "f-string expression"
	case *Compare:
		return "comparison"
	case *BoolOp, *BinOp, *UnaryOp:
		return "expression"
	case *Lambda:
		return "lambda"
	case *IfExp:
		return "conditional expression"
	case *NamedExpr:
		return "named expression"
	case *Dict, *DictComp:
		return "dict literal"
	case *Set, *SetComp:
		return "set display"
	case *ListComp:
		return "list comprehension"
	case *GeneratorExp:
		return "generator expression"
	case *Await:
		return "await expression"
	case *Yield:
		return "yield expression"
	}
	return "expression"
}
