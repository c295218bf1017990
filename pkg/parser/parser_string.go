package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/leapstack-labs/contractlint/pkg/token"
)

// parseStrings parses one or more adjacent string literals, which the
// language concatenates into a single constant or f-string.
func (p *Parser) parseStrings() Expr {
	start := p.token.Pos
	var (
		toks     []token.Token
		body     strings.Builder
		hasF     bool
		hasBytes bool
		hasText  bool
	)
	for p.check(token.STRING) || p.check(token.FSTRING) {
		tok := p.token
		prefix, text, _ := splitString(tok.Literal)
		if strings.ContainsAny(prefix, "bB") {
			hasBytes = true
		} else {
			hasText = true
		}
		if hasBytes && hasText {
			p.errorf(tok.Pos, "cannot mix bytes and nonbytes literals")
		}
		hasF = hasF || tok.Type == token.FSTRING
		body.WriteString(text)
		toks = append(toks, tok)
		p.nextToken()
	}

	if !hasF {
		kind := ConstStr
		if hasBytes {
			kind = ConstBytes
		}
		return &Constant{node: p.span(start), ConstKind: kind, Value: body.String()}
	}

	fs := &FString{}
	raws := make([]string, 0, len(toks))
	for _, tok := range toks {
		raws = append(raws, tok.Literal)
		if tok.Type == token.FSTRING {
			fs.Values = append(fs.Values, p.parseFStringFields(tok)...)
		}
	}
	fs.Raw = strings.Join(raws, " ")
	fs.node = p.span(start)
	return fs
}

// splitString splits a string literal into its prefix and body. offset is
// the byte offset of the body within lit.
func splitString(lit string) (prefix, body string, offset int) {
	i := 0
	for i < len(lit) && lit[i] != '\'' && lit[i] != '"' {
		i++
	}
	prefix = lit[:i]
	q := 1
	if len(lit)-i >= 6 && lit[i+1] == lit[i] && lit[i+2] == lit[i] {
		q = 3
	}
	if len(lit) < i+2*q {
		return prefix, "", i
	}
	return prefix, lit[i+q : len(lit)-q], i + q
}

// ---------- F-strings ----------

// parseFStringFields parses the replacement fields of an f-string token and
// returns their expressions, positioned within the original source.
func (p *Parser) parseFStringFields(tok token.Token) []Expr {
	prefix, body, offset := splitString(tok.Literal)
	f := &fstringScanner{
		p:    p,
		tok:  tok,
		body: body,
		base: offset,
		raw:  strings.ContainsAny(prefix, "rR"),
	}
	f.scanLiteral(0, false)
	return f.values
}

type fstringScanner struct {
	p      *Parser
	tok    token.Token
	body   string
	base   int // offset of body within tok.Literal
	raw    bool
	values []Expr
}

func (f *fstringScanner) fail(msg string) {
	f.p.errorf(f.tok.Pos, "f-string: %s", msg)
}

// scanLiteral scans literal text starting at i until the end of the body,
// or until the closing brace of a format spec when inSpec is set. It
// returns the index of the stopping position.
func (f *fstringScanner) scanLiteral(i int, inSpec bool) int {
	body := f.body
	for i < len(body) {
		c := body[i]
		switch {
		case c == '\\' && !f.raw:
			if i+2 < len(body) && body[i+1] == 'N' && body[i+2] == '{' {
				end := strings.IndexByte(body[i:], '}')
				if end < 0 {
					f.fail("malformed \\N character escape")
				}
				i += end + 1
				continue
			}
			i += 2
		case c == '{':
			if !inSpec && i+1 < len(body) && body[i+1] == '{' {
				i += 2
				continue
			}
			i = f.scanField(i)
		case c == '}':
			if inSpec {
				return i
			}
			if i+1 < len(body) && body[i+1] == '}' {
				i += 2
				continue
			}
			f.fail("single '}' is not allowed")
		default:
			i++
		}
	}
	return i
}

// scanField parses the replacement field opening at body[open] and returns
// the index just past its closing brace.
func (f *fstringScanner) scanField(open int) int {
	body := f.body
	end := -1
	depth := 0
	var quote byte
scan:
	for j := open + 1; j < len(body); j++ {
		c := body[j]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']':
			depth--
		case '}':
			if depth == 0 {
				end = j
				break scan
			}
			depth--
		case '!':
			if depth == 0 && (j+1 >= len(body) || body[j+1] != '=') {
				end = j
				break scan
			}
		case ':':
			if depth == 0 {
				end = j
				break scan
			}
		}
	}
	if end < 0 {
		f.fail("expecting '}'")
	}

	text := body[open+1 : end]
	if trimmed := strings.TrimRight(text, " \t"); strings.HasSuffix(trimmed, "=") && !isComparisonSuffix(trimmed) {
		text = trimmed[:len(trimmed)-1]
	}
	if strings.TrimSpace(text) == "" {
		f.fail("valid expression required before '}'")
	}
	f.values = append(f.values, f.p.parseSubExpr(f.tok, text, f.base+open+1))

	j := end
	if body[j] == '!' {
		j++
		if j >= len(body) || !strings.ContainsRune("sra", rune(body[j])) {
			f.fail("invalid conversion character: expected 's', 'r', or 'a'")
		}
		j++
	}
	if j < len(body) && body[j] == ':' {
		j = f.scanLiteral(j+1, true)
	}
	if j >= len(body) || body[j] != '}' {
		f.fail("expecting '}'")
	}
	return j + 1
}

func isComparisonSuffix(s string) bool {
	for _, op := range []string{"==", "!=", "<=", ">="} {
		if strings.HasSuffix(s, op) {
			return true
		}
	}
	return false
}

// parseSubExpr parses the expression text of a replacement field found at
// byte offset litOffset of tok.Literal. Token positions are translated back
// into the enclosing source.
func (p *Parser) parseSubExpr(tok token.Token, text string, litOffset int) Expr {
	base := positionIn(tok, litOffset)
	toks, lexErr := NewLexer("(" + text + ")").Run()
	if lexErr != nil {
		p.errorf(mapFieldPos(base, lexErr.Pos), "f-string: %s", lexErr.Msg)
	}
	for i := range toks {
		toks[i].Pos = mapFieldPos(base, toks[i].Pos)
		toks[i].End = mapFieldPos(base, toks[i].End)
	}

	sub := newParser(toks, p.depth)
	n := sub.parse(func() Node {
		e := sub.parseParenthesized()
		if !sub.check(token.NEWLINE) && !sub.check(token.EOF) {
			sub.errorf(sub.token.Pos, "f-string: invalid syntax")
		}
		return e
	})
	if sub.err != nil {
		if p.err == nil {
			p.err = sub.err
		}
		panic(bailout{})
	}
	return n.(Expr)
}

// positionIn returns the source position of byte offset off within tok.
func positionIn(tok token.Token, off int) token.Position {
	pos := tok.Pos
	lit := tok.Literal
	for i := 0; i < off && i < len(lit); {
		r, size := rune(lit[i]), 1
		if r >= 0x80 {
			r, size = utf8.DecodeRuneInString(lit[i:])
		}
		switch {
		case r == '\n', r == '\r' && (i+1 >= len(lit) || lit[i+1] != '\n'):
			pos.Line++
			pos.Column = 1
		default:
			pos.Column++
		}
		i += size
	}
	pos.Offset = tok.Pos.Offset + off
	return pos
}

// mapFieldPos translates a position in "(" + text + ")" to the source,
// where base is the position of text[0].
func mapFieldPos(base, q token.Position) token.Position {
	off := q.Offset - 1
	if off < 0 {
		off = 0
	}
	if q.Line == 1 {
		col := base.Column + q.Column - 2
		if col < 1 {
			col = 1
		}
		return token.Position{Line: base.Line, Column: col, Offset: base.Offset + off}
	}
	return token.Position{Line: base.Line + q.Line - 1, Column: q.Column, Offset: base.Offset + off}
}
