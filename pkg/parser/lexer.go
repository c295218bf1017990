package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/leapstack-labs/contractlint/pkg/token"
	"golang.org/x/text/unicode/norm"
)

// tabSize is the indentation width a tab advances to, as in CPython.
const tabSize = 8

// Lexer tokenizes contract source, synthesizing NEWLINE, INDENT and DEDENT
// tokens from the physical layout of the text.
type Lexer struct {
	input string
	pos   int  // byte offset of ch
	ch    rune // current char under examination, -1 at EOF
	size  int  // byte width of ch
	line  int  // current line number (1-based)
	col   int  // current column number (1-based, runes)

	indents     []int // indentation stack, always starts with 0
	parenDepth  int
	atLineStart bool

	tokens []token.Token
	err    *Error
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input:       input,
		line:        1,
		col:         1,
		indents:     []int{0},
		atLineStart: true,
	}
	l.decode()
	return l
}

// Tokenize scans the whole input. It returns the token stream terminated by
// EOF, or the first lexical error.
func Tokenize(input string) ([]token.Token, error) {
	l := NewLexer(input)
	toks, err := l.Run()
	if err != nil {
		return nil, err
	}
	return toks, nil
}

// Run scans the input to completion.
func (l *Lexer) Run() ([]token.Token, *Error) {
	if pos, bad := invalidUTF8(l.input); bad {
		l.fail(pos, "source is not valid UTF-8")
	}
	for l.err == nil {
		if l.atLineStart && l.parenDepth == 0 {
			if !l.scanIndentation() {
				break
			}
		}
		l.skipBlanks()
		switch {
		case l.ch < 0:
			l.finish()
			return l.tokens, l.err
		case l.ch == '#':
			l.skipComment()
		case l.ch == '\\' && l.isNewlineAt(l.pos+1):
			l.advance()
			l.consumeNewline()
		case l.isNewline():
			pos := l.currentPos()
			l.consumeNewline()
			if l.parenDepth == 0 {
				l.emit(token.NEWLINE, "", pos)
				l.atLineStart = true
			}
		default:
			l.scanToken()
		}
	}
	if l.err != nil {
		return nil, l.err
	}
	l.finish()
	return l.tokens, l.err
}

// invalidUTF8 returns the position of the first byte of s that does not
// start a valid UTF-8 sequence.
func invalidUTF8(s string) (token.Position, bool) {
	line, lineStart := 1, 0
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			col := utf8.RuneCountInString(s[lineStart:i]) + 1
			return token.Position{Line: line, Column: col, Offset: i}, true
		}
		i += size
		if r == '\n' || (r == '\r' && (i == len(s) || s[i] != '\n')) {
			line++
			lineStart = i
		}
	}
	return token.Position{}, false
}

// decode loads the rune at pos into ch.
func (l *Lexer) decode() {
	if l.pos >= len(l.input) {
		l.ch, l.size = -1, 0
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.pos:])
	l.ch, l.size = r, size
}

// advance moves past the current rune.
func (l *Lexer) advance() {
	if l.ch < 0 {
		return
	}
	r := l.ch
	l.pos += l.size
	if r == '\n' || (r == '\r' && l.peekByte(0) != '\n') {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	l.decode()
}

// peekByte returns the byte at pos+n without advancing, or 0 past the end.
func (l *Lexer) peekByte(n int) byte {
	if l.pos+n >= len(l.input) || l.pos+n < 0 {
		return 0
	}
	return l.input[l.pos+n]
}

func (l *Lexer) isNewline() bool {
	return l.ch == '\n' || l.ch == '\r'
}

func (l *Lexer) isNewlineAt(off int) bool {
	if off >= len(l.input) {
		return false
	}
	return l.input[off] == '\n' || l.input[off] == '\r'
}

func (l *Lexer) consumeNewline() {
	if l.ch == '\r' && l.peekByte(1) == '\n' {
		l.advance()
	}
	l.advance()
}

// currentPos returns the current position.
func (l *Lexer) currentPos() token.Position {
	return token.Position{Line: l.line, Column: l.col, Offset: l.pos}
}

func (l *Lexer) emit(t token.TokenType, lit string, pos token.Position) {
	l.tokens = append(l.tokens, token.Token{Type: t, Literal: lit, Pos: pos, End: l.currentPos()})
}

func (l *Lexer) fail(pos token.Position, msg string) {
	if l.err == nil {
		l.err = &Error{Pos: pos, Msg: msg}
	}
}

// scanIndentation measures the leading whitespace of a logical line and emits
// INDENT/DEDENT tokens. Blank and comment-only lines are consumed silently.
// It returns false once the input is exhausted.
func (l *Lexer) scanIndentation() bool {
	for {
		width := l.measureIndent()
		switch {
		case l.ch < 0:
			return false
		case l.ch == '#':
			l.skipComment()
			if l.ch < 0 {
				return false
			}
			l.consumeNewline()
			continue
		case l.isNewline():
			l.consumeNewline()
			continue
		case l.ch == '\\' && l.isNewlineAt(l.pos+1):
			// A continuation on an otherwise empty line joins with the next one.
			l.advance()
			l.consumeNewline()
			continue
		}

		l.atLineStart = false
		pos := l.currentPos()
		top := l.indents[len(l.indents)-1]
		switch {
		case width > top:
			l.indents = append(l.indents, width)
			l.emit(token.INDENT, "", pos)
		case width < top:
			for len(l.indents) > 1 && l.indents[len(l.indents)-1] > width {
				l.indents = l.indents[:len(l.indents)-1]
				l.emit(token.DEDENT, "", pos)
			}
			if l.indents[len(l.indents)-1] != width {
				l.fail(pos, "unindent does not match any outer indentation level")
			}
		}
		return true
	}
}

// measureIndent consumes leading whitespace and returns its width.
func (l *Lexer) measureIndent() int {
	width := 0
	for {
		switch l.ch {
		case ' ':
			width++
		case '\t':
			width = (width/tabSize + 1) * tabSize
		case '\f':
			width = 0
		default:
			return width
		}
		l.advance()
	}
}

// finish closes the token stream at EOF.
func (l *Lexer) finish() {
	pos := l.currentPos()
	if n := len(l.tokens); n > 0 {
		last := l.tokens[n-1].Type
		if last != token.NEWLINE && last != token.DEDENT {
			l.emit(token.NEWLINE, "", pos)
		}
	}
	for len(l.indents) > 1 {
		l.indents = l.indents[:len(l.indents)-1]
		l.emit(token.DEDENT, "", pos)
	}
	l.emit(token.EOF, "", pos)
}

func (l *Lexer) skipBlanks() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\f' {
		l.advance()
	}
}

func (l *Lexer) skipComment() {
	for l.ch >= 0 && !l.isNewline() {
		l.advance()
	}
}

// scanToken scans one non-layout token.
func (l *Lexer) scanToken() {
	pos := l.currentPos()
	switch {
	case isIdentStart(l.ch):
		start := l.pos
		for isIdentPart(l.ch) {
			l.advance()
		}
		lit := l.input[start:l.pos]
		if (l.ch == '\'' || l.ch == '"') && isStringPrefix(lit) {
			l.scanString(pos, start, lit)
			return
		}
		if !isASCII(lit) {
			// Identifiers are compared after NFKC normalization.
			lit = norm.NFKC.String(lit)
		}
		l.emit(token.LookupIdent(lit), lit, pos)
	case isDigit(l.ch) || (l.ch == '.' && isDigitByte(l.peekByte(1))):
		l.scanNumber(pos)
	case l.ch == '\'' || l.ch == '"':
		l.scanString(pos, l.pos, "")
	default:
		l.scanOperator(pos)
	}
}

// scanNumber scans integer, float and imaginary literals.
func (l *Lexer) scanNumber(pos token.Position) {
	start := l.pos
	if l.ch == '0' && strings.ContainsRune("xXoObB", rune(l.peekByte(1))) {
		l.advance()
		l.advance()
		for isHexDigit(l.ch) || l.ch == '_' {
			l.advance()
		}
	} else {
		l.scanDigits()
		if l.ch == '.' {
			l.advance()
			l.scanDigits()
		}
		if l.ch == 'e' || l.ch == 'E' {
			next := l.peekByte(1)
			if isDigitByte(next) || ((next == '+' || next == '-') && isDigitByte(l.peekByte(2))) {
				l.advance()
				if l.ch == '+' || l.ch == '-' {
					l.advance()
				}
				l.scanDigits()
			}
		}
		if l.ch == 'j' || l.ch == 'J' {
			l.advance()
		}
	}
	if isIdentStart(l.ch) {
		l.fail(pos, "invalid decimal literal")
		return
	}
	l.emit(token.NUMBER, l.input[start:l.pos], pos)
}

func (l *Lexer) scanDigits() {
	for isDigit(l.ch) || l.ch == '_' {
		l.advance()
	}
}

// scanString scans a string literal whose prefix (if any) started at start.
func (l *Lexer) scanString(pos token.Position, start int, prefix string) {
	isF := strings.ContainsAny(prefix, "fF")
	quote := l.ch
	triple := l.peekByte(1) == byte(quote) && l.peekByte(2) == byte(quote)
	if triple {
		l.advance()
		l.advance()
	}
	l.advance()

	if !l.scanStringBody(pos, quote, triple) {
		return
	}
	t := token.STRING
	if isF {
		t = token.FSTRING
	}
	l.emit(t, l.input[start:l.pos], pos)
}

// scanStringBody consumes up to and including the closing quote. It reports
// false after recording an error.
func (l *Lexer) scanStringBody(pos token.Position, quote rune, triple bool) bool {
	for {
		switch {
		case l.ch < 0:
			if triple {
				l.fail(pos, "unterminated triple-quoted string literal")
			} else {
				l.fail(pos, "unterminated string literal")
			}
			return false
		case l.ch == '\\':
			l.advance()
			if l.ch == '\r' && l.peekByte(1) == '\n' {
				l.advance()
			}
			l.advance()
			continue
		case !triple && l.isNewline():
			l.fail(pos, "unterminated string literal")
			return false
		case l.ch == quote:
			if !triple {
				l.advance()
				return true
			}
			if l.peekByte(1) == byte(quote) && l.peekByte(2) == byte(quote) {
				l.advance()
				l.advance()
				l.advance()
				return true
			}
		}
		l.advance()
	}
}

// operators lists operator spellings, longest first within each leading byte.
var operators = []struct {
	lit string
	typ token.TokenType
}{
	{"**=", token.DSTAREQ}, {"//=", token.DSLASHEQ}, {">>=", token.RSHIFTEQ}, {"<<=", token.LSHIFTEQ},
	{"...", token.ELLIPSIS},
	{"**", token.DSTAR}, {"//", token.DSLASH}, {"<<", token.LSHIFT}, {">>", token.RSHIFT},
	{"<=", token.LE}, {">=", token.GE}, {"==", token.EQ}, {"!=", token.NE}, {"->", token.ARROW},
	{":=", token.WALRUS}, {"+=", token.PLUSEQ}, {"-=", token.MINUSEQ}, {"*=", token.STAREQ},
	{"/=", token.SLASHEQ}, {"%=", token.PERCENTEQ}, {"@=", token.ATEQ}, {"&=", token.AMPEQ},
	{"|=", token.PIPEEQ}, {"^=", token.CARETEQ},
	{"+", token.PLUS}, {"-", token.MINUS}, {"*", token.STAR}, {"/", token.SLASH}, {"%", token.PERCENT},
	{"@", token.AT}, {"&", token.AMP}, {"|", token.PIPE}, {"^", token.CARET}, {"~", token.TILDE},
	{"<", token.LT}, {">", token.GT}, {"(", token.LPAREN}, {")", token.RPAREN}, {"[", token.LBRACKET},
	{"]", token.RBRACKET}, {"{", token.LBRACE}, {"}", token.RBRACE}, {",", token.COMMA},
	{":", token.COLON}, {".", token.DOT}, {";", token.SEMICOLON}, {"=", token.ASSIGN},
}

func (l *Lexer) scanOperator(pos token.Position) {
	rest := l.input[l.pos:]
	for _, op := range operators {
		if !strings.HasPrefix(rest, op.lit) {
			continue
		}
		for range op.lit {
			l.advance()
		}
		switch op.typ {
		case token.LPAREN, token.LBRACKET, token.LBRACE:
			l.parenDepth++
		case token.RPAREN, token.RBRACKET, token.RBRACE:
			if l.parenDepth > 0 {
				l.parenDepth--
			}
		}
		l.emit(op.typ, op.lit, pos)
		return
	}
	l.fail(pos, "invalid character '"+string(l.ch)+"'")
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= utf8.RuneSelf && unicode.IsLetter(r))
}

func isIdentPart(r rune) bool {
	if isIdentStart(r) || isDigit(r) {
		return true
	}
	return r >= utf8.RuneSelf && (unicode.IsDigit(r) || unicode.In(r, unicode.Mn, unicode.Mc, unicode.Pc))
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isDigitByte(b byte) bool { return b >= '0' && b <= '9' }

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isStringPrefix(s string) bool {
	switch strings.ToLower(s) {
	case "r", "u", "b", "f", "br", "rb", "fr", "rf":
		return true
	}
	return false
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
