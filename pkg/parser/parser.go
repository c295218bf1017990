// Package parser builds syntax trees for contract source code.
//
// # Usage
//
//	mod, err := parser.Parse(src)
//	if err != nil {
//	    var perr *parser.Error
//	    errors.As(err, &perr) // position of the first syntax error
//	}
//
// # Grammar Overview
//
// The parser is a recursive descent parser for the Python 3 statement and
// expression grammar, minus pattern matching and type-parameter syntax:
//
//	file        → statement* EOF
//	statement   → compound_stmt | simple_stmt (';' simple_stmt)* NEWLINE
//	compound    → decorated | def | class | if | while | for | try | with
//	block       → NEWLINE INDENT statement+ DEDENT | simple_stmts
//
// Constructs the contract runtime rejects (classes, lambdas, try, async, ...)
// are still parsed so that rules can report them with a precise position.
// See parser_stmt.go and parser_expr.go for the detailed grammar.
package parser

import (
	"fmt"

	"github.com/leapstack-labs/contractlint/pkg/token"
)

// MaxDepth bounds syntactic nesting. Deeper input is rejected with an Error
// rather than exhausting the stack.
const MaxDepth = 1024

// Parser parses a token stream into a syntax tree.
type Parser struct {
	tokens  []token.Token
	pos     int
	token   token.Token // current token
	prevEnd token.Position
	depth   int
	err     *Error
}

// bailout is used to unwind the parser on the first error.
type bailout struct{}

// Parse parses a complete module.
func Parse(src string) (*Module, error) {
	toks, lexErr := NewLexer(src).Run()
	if lexErr != nil {
		return nil, lexErr
	}
	p := newParser(toks, 0)
	mod := p.parse(p.parseModule)
	if p.err != nil {
		return nil, p.err
	}
	return mod.(*Module), nil
}

// ParseExpr parses a single expression, e.g. a dotted name from a policy table.
func ParseExpr(src string) (Expr, error) {
	toks, lexErr := NewLexer(src).Run()
	if lexErr != nil {
		return nil, lexErr
	}
	p := newParser(toks, 0)
	n := p.parse(func() Node {
		e := p.parseTestListStarExpr()
		p.match(token.NEWLINE)
		p.expect(token.EOF, "end of expression")
		return e
	})
	if p.err != nil {
		return nil, p.err
	}
	return n.(Expr), nil
}

func newParser(toks []token.Token, depth int) *Parser {
	p := &Parser{tokens: toks, depth: depth}
	p.token = toks[0]
	return p
}

// parse runs fn, converting a bailout into p.err.
func (p *Parser) parse(fn func() Node) (n Node) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			n = nil
		}
	}()
	return fn()
}

// ---------- Token Helpers ----------

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	switch p.token.Type {
	case token.NEWLINE, token.INDENT, token.DEDENT, token.EOF:
		// Layout tokens never extend a node's span.
	default:
		p.prevEnd = p.token.End
	}
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	p.token = p.tokens[p.pos]
}

// peek returns the token n positions ahead of the current one.
func (p *Parser) peek(n int) token.Token {
	if p.pos+n < len(p.tokens) {
		return p.tokens[p.pos+n]
	}
	return p.tokens[len(p.tokens)-1]
}

// check returns true if the current token is of the given type.
func (p *Parser) check(t token.TokenType) bool {
	return p.token.Type == t
}

// match consumes the current token if it matches and returns true.
func (p *Parser) match(t token.TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	return false
}

// expect consumes a token of type t or fails.
func (p *Parser) expect(t token.TokenType, what string) token.Token {
	tok := p.token
	if tok.Type != t {
		p.errorExpected(what)
	}
	p.nextToken()
	return tok
}

func (p *Parser) errorExpected(what string) {
	p.errorf(p.token.Pos, "expected %s, found %s", what, describe(p.token))
}

func (p *Parser) errorf(pos token.Position, format string, args ...any) {
	if p.err == nil {
		p.err = &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
	}
	panic(bailout{})
}

// enter guards recursion depth; pair every call with leave.
func (p *Parser) enter() {
	p.depth++
	if p.depth > MaxDepth {
		p.errorf(p.token.Pos, "too many nested levels (limit %d)", MaxDepth)
	}
}

func (p *Parser) leave() {
	p.depth--
}

// span returns the span from start to the end of the last consumed token.
func (p *Parser) span(start token.Position) node {
	return node{Span: token.Span{Start: start, End: p.prevEnd}}
}

func describe(tok token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of input"
	case token.NEWLINE:
		return "newline"
	case token.INDENT:
		return "indent"
	case token.DEDENT:
		return "dedent"
	case token.NAME, token.NUMBER:
		return fmt.Sprintf("%q", tok.Literal)
	case token.STRING, token.FSTRING:
		return "string literal"
	}
	return fmt.Sprintf("'%s'", tok.Type)
}
