package parser

import (
	"strings"

	"github.com/leapstack-labs/contractlint/pkg/token"
)

// Expression grammar, lowest precedence first:
//
//	namedexpr   → test (':=' test)?
//	test        → or_test ('if' or_test 'else' test)? | lambda
//	or_test     → and_test ('or' and_test)*
//	and_test    → not_test ('and' not_test)*
//	not_test    → 'not' not_test | comparison
//	comparison  → expr (comp_op expr)*
//	expr        → xor ('|' xor)*   ... down through ^ & << >> + - * @ / // %
//	factor      → ('+' | '-' | '~') factor | power
//	power       → 'await'? atom trailer* ('**' factor)?
//	trailer     → '(' arglist? ')' | '[' subscripts ']' | '.' NAME

// binaryLevels lists binary operators from loosest to tightest binding.
var binaryLevels = [][]token.TokenType{
	{token.PIPE},
	{token.CARET},
	{token.AMP},
	{token.LSHIFT, token.RSHIFT},
	{token.PLUS, token.MINUS},
	{token.STAR, token.AT, token.SLASH, token.PERCENT, token.DSLASH},
}

// canStartExpr reports whether t may begin an expression.
func canStartExpr(t token.TokenType) bool {
	switch t {
	case token.NAME, token.NUMBER, token.STRING, token.FSTRING,
		token.LPAREN, token.LBRACKET, token.LBRACE,
		token.MINUS, token.PLUS, token.TILDE, token.STAR,
		token.NOT, token.LAMBDA, token.AWAIT, token.ELLIPSIS,
		token.TRUE, token.FALSE, token.NONE:
		return true
	}
	return false
}

// ---------- Lists ----------

func (p *Parser) parseTestListStarExprOrYield() Expr {
	if p.check(token.YIELD) {
		return p.parseYield()
	}
	return p.parseTestListStarExpr()
}

// parseTestListStarExpr parses (test|star_expr) (',' (test|star_expr))* ','?.
func (p *Parser) parseTestListStarExpr() Expr {
	return p.parseSequence(p.parseTestOrStar)
}

// parseTestList parses test (',' test)* ','?.
func (p *Parser) parseTestList() Expr {
	return p.parseSequence(p.parseTestOrStar)
}

// parseExprList parses loop and del targets: (expr|star_expr) (',' ...)*.
func (p *Parser) parseExprList() Expr {
	return p.parseSequence(p.parseExprOrStar)
}

// parseSequence parses elem (',' elem)* ','? and returns a bare Tuple when
// a comma is present.
func (p *Parser) parseSequence(elem func() Expr) Expr {
	start := p.token.Pos
	first := elem()
	if !p.check(token.COMMA) {
		return first
	}
	elts := []Expr{first}
	for p.match(token.COMMA) {
		if !canStartExpr(p.token.Type) {
			break
		}
		elts = append(elts, elem())
	}
	return &Tuple{node: p.span(start), Elts: elts}
}

func (p *Parser) parseTestOrStar() Expr {
	if p.check(token.STAR) {
		return p.parseStarExpr()
	}
	return p.parseTest()
}

func (p *Parser) parseExprOrStar() Expr {
	if p.check(token.STAR) {
		return p.parseStarExpr()
	}
	return p.parseExpr()
}

func (p *Parser) parseNamedExprOrStar() Expr {
	if p.check(token.STAR) {
		return p.parseStarExpr()
	}
	return p.parseNamedExprTest()
}

func (p *Parser) parseStarExpr() Expr {
	start := p.token.Pos
	p.expect(token.STAR, "'*'")
	value := p.parseExpr()
	return &Starred{node: p.span(start), Value: value}
}

// ---------- Tests ----------

func (p *Parser) parseNamedExprTest() Expr {
	e := p.parseTest()
	if !p.check(token.WALRUS) {
		return e
	}
	name, ok := e.(*Name)
	if !ok {
		p.errorf(e.Pos(), "cannot use assignment expressions with %s", targetDescription(e))
	}
	p.nextToken()
	value := p.parseTest()
	return &NamedExpr{node: p.span(e.Pos()), Target: name, Value: value}
}

func (p *Parser) parseTest() Expr {
	p.enter()
	defer p.leave()

	if p.check(token.LAMBDA) {
		return p.parseLambda(false)
	}
	body := p.parseOrTest()
	if !p.match(token.IF) {
		return body
	}
	test := p.parseOrTest()
	p.expect(token.ELSE, "'else' in conditional expression")
	orElse := p.parseTest()
	return &IfExp{node: p.span(body.Pos()), Test: test, Body: body, Else: orElse}
}

// parseTestNoCond parses a comprehension condition, which cannot itself be
// an unparenthesized conditional expression.
func (p *Parser) parseTestNoCond() Expr {
	if p.check(token.LAMBDA) {
		return p.parseLambda(true)
	}
	return p.parseOrTest()
}

func (p *Parser) parseLambda(noCond bool) Expr {
	start := p.token.Pos
	p.expect(token.LAMBDA, "'lambda'")
	args := p.parseParameters(p.token.Pos, token.COLON, false)
	p.expect(token.COLON, "':'")
	var body Expr
	if noCond {
		body = p.parseTestNoCond()
	} else {
		body = p.parseTest()
	}
	return &Lambda{node: p.span(start), Args: args, Body: body}
}

func (p *Parser) parseOrTest() Expr {
	return p.parseBoolOp(token.OR, p.parseAndTest)
}

func (p *Parser) parseAndTest() Expr {
	return p.parseBoolOp(token.AND, p.parseNotTest)
}

func (p *Parser) parseBoolOp(op token.TokenType, operand func() Expr) Expr {
	first := operand()
	if !p.check(op) {
		return first
	}
	values := []Expr{first}
	for p.match(op) {
		values = append(values, operand())
	}
	return &BoolOp{node: p.span(first.Pos()), Op: op, Values: values}
}

func (p *Parser) parseNotTest() Expr {
	if !p.check(token.NOT) {
		return p.parseComparison()
	}
	p.enter()
	defer p.leave()
	start := p.token.Pos
	p.nextToken()
	operand := p.parseNotTest()
	return &UnaryOp{node: p.span(start), Op: token.NOT, Operand: operand}
}

func (p *Parser) parseComparison() Expr {
	left := p.parseExpr()
	var cmp *Compare
	for {
		op, ok := p.comparisonOp()
		if !ok {
			break
		}
		if cmp == nil {
			cmp = &Compare{Left: left}
		}
		cmp.Ops = append(cmp.Ops, op)
		cmp.Comparators = append(cmp.Comparators, p.parseExpr())
	}
	if cmp == nil {
		return left
	}
	cmp.node = p.span(left.Pos())
	return cmp
}

// comparisonOp consumes a comparison operator if one is present.
func (p *Parser) comparisonOp() (CmpOp, bool) {
	var op CmpOp
	switch p.token.Type {
	case token.EQ:
		op = CmpEq
	case token.NE:
		op = CmpNotEq
	case token.LT:
		op = CmpLt
	case token.LE:
		op = CmpLtE
	case token.GT:
		op = CmpGt
	case token.GE:
		op = CmpGtE
	case token.IN:
		op = CmpIn
	case token.NOT:
		if p.peek(1).Type != token.IN {
			return "", false
		}
		p.nextToken()
		op = CmpNotIn
	case token.IS:
		if p.peek(1).Type == token.NOT {
			p.nextToken()
			op = CmpIsNot
		} else {
			op = CmpIs
		}
	default:
		return "", false
	}
	p.nextToken()
	return op, true
}

// ---------- Arithmetic ----------

func (p *Parser) parseExpr() Expr {
	return p.parseBinary(0)
}

func (p *Parser) parseBinary(level int) Expr {
	if level == len(binaryLevels) {
		return p.parseFactor()
	}
	left := p.parseBinary(level + 1)
	for p.atBinaryOp(level) {
		op := p.token.Type
		p.nextToken()
		right := p.parseBinary(level + 1)
		left = &BinOp{node: p.span(left.Pos()), Left: left, Op: op, Right: right}
	}
	return left
}

func (p *Parser) atBinaryOp(level int) bool {
	for _, t := range binaryLevels[level] {
		if p.token.Type == t {
			return true
		}
	}
	return false
}

func (p *Parser) parseFactor() Expr {
	switch p.token.Type {
	case token.PLUS, token.MINUS, token.TILDE:
		p.enter()
		defer p.leave()
		start, op := p.token.Pos, p.token.Type
		p.nextToken()
		operand := p.parseFactor()
		return &UnaryOp{node: p.span(start), Op: op, Operand: operand}
	}
	return p.parsePower()
}

func (p *Parser) parsePower() Expr {
	base := p.parseAwaitPrimary()
	if !p.match(token.DSTAR) {
		return base
	}
	exp := p.parseFactor()
	return &BinOp{node: p.span(base.Pos()), Left: base, Op: token.DSTAR, Right: exp}
}

func (p *Parser) parseAwaitPrimary() Expr {
	if !p.check(token.AWAIT) {
		return p.parseAtomExpr()
	}
	start := p.token.Pos
	p.nextToken()
	value := p.parseAtomExpr()
	return &Await{node: p.span(start), Value: value}
}

// parseAtomExpr parses an atom followed by call, subscript and attribute
// trailers.
func (p *Parser) parseAtomExpr() Expr {
	e := p.parseAtom()
	for {
		switch p.token.Type {
		case token.LPAREN:
			p.nextToken()
			args, keywords := p.parseArgList(token.RPAREN)
			p.expect(token.RPAREN, "')'")
			e = &Call{node: p.span(e.Pos()), Func: e, Args: args, Keywords: keywords}
		case token.LBRACKET:
			p.nextToken()
			index := p.parseSubscriptList()
			p.expect(token.RBRACKET, "']'")
			e = &Subscript{node: p.span(e.Pos()), Value: e, Index: index}
		case token.DOT:
			p.nextToken()
			attr := p.expect(token.NAME, "attribute name")
			e = &Attribute{node: p.span(e.Pos()), Value: e, Attr: attr.Literal, AttrPos: attr.Pos}
		default:
			return e
		}
	}
}

// ---------- Calls and Subscripts ----------

// parseArgList parses call arguments up to (not including) closing.
func (p *Parser) parseArgList(closing token.TokenType) ([]Expr, []*Keyword) {
	var args []Expr
	var keywords []*Keyword
	seen := map[string]bool{}
	sawKwUnpack := false

	for !p.check(closing) {
		start := p.token.Pos
		switch {
		case p.match(token.STAR):
			if sawKwUnpack {
				p.errorf(start, "iterable argument unpacking follows keyword argument unpacking")
			}
			value := p.parseTest()
			args = append(args, &Starred{node: p.span(start), Value: value})
		case p.match(token.DSTAR):
			value := p.parseTest()
			keywords = append(keywords, &Keyword{node: p.span(start), Value: value})
			sawKwUnpack = true
		default:
			e := p.parseTest()
			switch {
			case p.check(token.ASSIGN):
				name, ok := e.(*Name)
				if !ok {
					p.errorf(e.Pos(), "expression cannot contain assignment, perhaps you meant \"==\"?")
				}
				p.nextToken()
				if seen[name.ID] {
					p.errorf(start, "keyword argument repeated: %s", name.ID)
				}
				seen[name.ID] = true
				value := p.parseTest()
				keywords = append(keywords, &Keyword{node: p.span(start), Arg: name.ID, Value: value})
				e = nil
			case p.check(token.WALRUS):
				name, ok := e.(*Name)
				if !ok {
					p.errorf(e.Pos(), "cannot use assignment expressions with %s", targetDescription(e))
				}
				p.nextToken()
				value := p.parseTest()
				e = &NamedExpr{node: p.span(start), Target: name, Value: value}
			case p.check(token.FOR) || (p.check(token.ASYNC) && p.peek(1).Type == token.FOR):
				gens := p.parseComprehensions()
				e = &GeneratorExp{node: p.span(start), Elt: e, Generators: gens}
			}
			if e == nil {
				break
			}
			if len(keywords) > 0 {
				if sawKwUnpack {
					p.errorf(start, "positional argument follows keyword argument unpacking")
				}
				p.errorf(start, "positional argument follows keyword argument")
			}
			args = append(args, e)
		}
		if !p.match(token.COMMA) {
			break
		}
	}
	return args, keywords
}

// parseSubscriptList parses the index of a subscription; several
// comma-separated subscripts form a Tuple.
func (p *Parser) parseSubscriptList() Expr {
	start := p.token.Pos
	first := p.parseSubscript()
	if !p.check(token.COMMA) {
		return first
	}
	elts := []Expr{first}
	for p.match(token.COMMA) {
		if p.check(token.RBRACKET) {
			break
		}
		elts = append(elts, p.parseSubscript())
	}
	return &Tuple{node: p.span(start), Elts: elts}
}

func (p *Parser) parseSubscript() Expr {
	start := p.token.Pos
	var lower Expr
	if !p.check(token.COLON) {
		if p.check(token.STAR) {
			return p.parseStarExpr()
		}
		lower = p.parseNamedExprTest()
		if !p.check(token.COLON) {
			return lower
		}
	}
	p.expect(token.COLON, "':'")
	s := &Slice{Lower: lower}
	if !p.sliceBoundEnd() {
		s.Upper = p.parseTest()
	}
	if p.match(token.COLON) && !p.sliceBoundEnd() {
		s.Step = p.parseTest()
	}
	s.node = p.span(start)
	return s
}

func (p *Parser) sliceBoundEnd() bool {
	switch p.token.Type {
	case token.RBRACKET, token.COMMA, token.COLON:
		return true
	}
	return false
}

// ---------- Atoms ----------

func (p *Parser) parseAtom() Expr {
	tok := p.token
	switch tok.Type {
	case token.NAME:
		p.nextToken()
		return &Name{node: p.span(tok.Pos), ID: tok.Literal}
	case token.NUMBER:
		p.nextToken()
		kind := numberKind(tok.Literal)
		if kind == ConstInt && hasLeadingZero(tok.Literal) {
			p.errorf(tok.Pos, "leading zeros in decimal integer literals are not permitted")
		}
		return &Constant{node: p.span(tok.Pos), ConstKind: kind, Value: tok.Literal}
	case token.STRING, token.FSTRING:
		return p.parseStrings()
	case token.ELLIPSIS:
		p.nextToken()
		return &Constant{node: p.span(tok.Pos), ConstKind: ConstEllipsis, Value: "..."}
	case token.TRUE:
		p.nextToken()
		return &Constant{node: p.span(tok.Pos), ConstKind: ConstTrue, Value: "True"}
	case token.FALSE:
		p.nextToken()
		return &Constant{node: p.span(tok.Pos), ConstKind: ConstFalse, Value: "False"}
	case token.NONE:
		p.nextToken()
		return &Constant{node: p.span(tok.Pos), ConstKind: ConstNone, Value: "None"}
	case token.LPAREN:
		return p.parseParenthesized()
	case token.LBRACKET:
		return p.parseListDisplay()
	case token.LBRACE:
		return p.parseBraceDisplay()
	}
	p.errorf(tok.Pos, "invalid syntax: expected expression, found %s", describe(tok))
	return nil
}

func (p *Parser) parseParenthesized() Expr {
	start := p.token.Pos
	p.expect(token.LPAREN, "'('")
	if p.match(token.RPAREN) {
		return &Tuple{node: p.span(start)}
	}
	if p.check(token.YIELD) {
		y := p.parseYield()
		p.expect(token.RPAREN, "')'")
		return y
	}
	first := p.parseNamedExprOrStar()
	switch {
	case p.atComprehension():
		gens := p.parseComprehensions()
		p.expect(token.RPAREN, "')'")
		return &GeneratorExp{node: p.span(start), Elt: first, Generators: gens}
	case p.check(token.COMMA):
		elts := p.parseDisplayTail(first, token.RPAREN)
		p.expect(token.RPAREN, "')'")
		return &Tuple{node: p.span(start), Elts: elts}
	}
	p.expect(token.RPAREN, "')'")
	return first
}

func (p *Parser) parseListDisplay() Expr {
	start := p.token.Pos
	p.expect(token.LBRACKET, "'['")
	if p.match(token.RBRACKET) {
		return &List{node: p.span(start)}
	}
	first := p.parseNamedExprOrStar()
	if p.atComprehension() {
		gens := p.parseComprehensions()
		p.expect(token.RBRACKET, "']'")
		return &ListComp{node: p.span(start), Elt: first, Generators: gens}
	}
	elts := p.parseDisplayTail(first, token.RBRACKET)
	p.expect(token.RBRACKET, "']'")
	return &List{node: p.span(start), Elts: elts}
}

// parseBraceDisplay parses dict and set displays and comprehensions.
func (p *Parser) parseBraceDisplay() Expr {
	start := p.token.Pos
	p.expect(token.LBRACE, "'{'")
	if p.match(token.RBRACE) {
		return &Dict{node: p.span(start)}
	}

	if p.check(token.STAR) {
		elts := p.parseDisplayTail(p.parseStarExpr(), token.RBRACE)
		p.expect(token.RBRACE, "'}'")
		return &Set{node: p.span(start), Elts: elts}
	}

	var key Expr
	if !p.match(token.DSTAR) {
		key = p.parseNamedExprTest()
		if !p.check(token.COLON) {
			if p.atComprehension() {
				gens := p.parseComprehensions()
				p.expect(token.RBRACE, "'}'")
				return &SetComp{node: p.span(start), Elt: key, Generators: gens}
			}
			elts := p.parseDisplayTail(key, token.RBRACE)
			p.expect(token.RBRACE, "'}'")
			return &Set{node: p.span(start), Elts: elts}
		}
		p.nextToken()
	}
	value := p.parseDictValue(key)
	if key != nil && p.atComprehension() {
		gens := p.parseComprehensions()
		p.expect(token.RBRACE, "'}'")
		return &DictComp{node: p.span(start), Key: key, Value: value, Generators: gens}
	}

	d := &Dict{Keys: []Expr{key}, Values: []Expr{value}}
	for p.match(token.COMMA) {
		if p.check(token.RBRACE) {
			break
		}
		var k Expr
		if !p.match(token.DSTAR) {
			k = p.parseTest()
			p.expect(token.COLON, "':'")
		}
		d.Keys = append(d.Keys, k)
		d.Values = append(d.Values, p.parseDictValue(k))
	}
	p.expect(token.RBRACE, "'}'")
	d.node = p.span(start)
	return d
}

// parseDictValue parses the value of a key: value entry, or the mapping of
// a ** entry when key is nil.
func (p *Parser) parseDictValue(key Expr) Expr {
	if key == nil {
		return p.parseExpr()
	}
	return p.parseTest()
}

// parseDisplayTail parses the remaining comma-separated elements of a
// display whose first element has been parsed.
func (p *Parser) parseDisplayTail(first Expr, closing token.TokenType) []Expr {
	elts := []Expr{first}
	for p.match(token.COMMA) {
		if p.check(closing) {
			break
		}
		elts = append(elts, p.parseNamedExprOrStar())
	}
	return elts
}

// ---------- Comprehensions ----------

func (p *Parser) atComprehension() bool {
	return p.check(token.FOR) || (p.check(token.ASYNC) && p.peek(1).Type == token.FOR)
}

func (p *Parser) parseComprehensions() []*Comprehension {
	var gens []*Comprehension
	for p.atComprehension() {
		start := p.token.Pos
		c := &Comprehension{Async: p.match(token.ASYNC)}
		p.expect(token.FOR, "'for'")
		c.Target = p.parseExprList()
		p.checkTarget(c.Target, "comprehension")
		p.expect(token.IN, "'in'")
		c.Iter = p.parseOrTest()
		for p.match(token.IF) {
			c.Ifs = append(c.Ifs, p.parseTestNoCond())
		}
		c.node = p.span(start)
		gens = append(gens, c)
	}
	return gens
}

func (p *Parser) parseYield() Expr {
	start := p.token.Pos
	p.expect(token.YIELD, "'yield'")
	y := &Yield{}
	switch {
	case p.match(token.FROM):
		y.From = true
		y.Value = p.parseTest()
	case canStartExpr(p.token.Type):
		y.Value = p.parseTestListStarExpr()
	}
	y.node = p.span(start)
	return y
}

// ---------- Literals ----------

func numberKind(lit string) ConstKind {
	l := strings.ToLower(lit)
	switch {
	case strings.HasSuffix(l, "j"):
		return ConstComplex
	case strings.HasPrefix(l, "0x"), strings.HasPrefix(l, "0o"), strings.HasPrefix(l, "0b"):
		return ConstInt
	case strings.ContainsAny(l, ".e"):
		return ConstFloat
	}
	return ConstInt
}

// hasLeadingZero reports a decimal integer such as 0123.
func hasLeadingZero(lit string) bool {
	if len(lit) < 2 || lit[0] != '0' || strings.ContainsRune("xXoObB", rune(lit[1])) {
		return false
	}
	return strings.Trim(lit, "0_") != ""
}
