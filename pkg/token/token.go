// Package token defines the lexical tokens of the contract language, a
// restricted dialect of Python.
package token

// TokenType represents the type of a lexical token.
//
//nolint:revive // Accept stutter as token.TokenType is clear and widely used
type TokenType int32

const (
	// Special tokens
	EOF TokenType = iota
	ILLEGAL
	NEWLINE
	INDENT
	DEDENT

	// Literals
	NAME   // identifier
	NUMBER // 123, 0x1f, 1.5e3, 2j
	STRING // 'a', """b""", b'c', r'd'
	FSTRING

	// Operators and delimiters
	PLUS        // +
	MINUS       // -
	STAR        // *
	DSTAR       // **
	SLASH       // /
	DSLASH      // //
	PERCENT     // %
	AT          // @
	AMP         // &
	PIPE        // |
	CARET       // ^
	TILDE       // ~
	LSHIFT      // <<
	RSHIFT      // >>
	LT          // <
	GT          // >
	LE          // <=
	GE          // >=
	EQ          // ==
	NE          // !=
	LPAREN      // (
	RPAREN      // )
	LBRACKET    // [
	RBRACKET    // ]
	LBRACE      // {
	RBRACE      // }
	COMMA       // ,
	COLON       // :
	DOT         // .
	SEMICOLON   // ;
	ASSIGN      // =
	ARROW       // ->
	WALRUS      // :=
	ELLIPSIS    // ...
	PLUSEQ      // +=
	MINUSEQ     // -=
	STAREQ      // *=
	SLASHEQ     // /=
	DSLASHEQ    // //=
	PERCENTEQ   // %=
	ATEQ        // @=
	AMPEQ       // &=
	PIPEEQ      // |=
	CARETEQ     // ^=
	LSHIFTEQ    // <<=
	RSHIFTEQ    // >>=
	DSTAREQ     // **=
	operatorEnd // sentinel

	// Keywords (alphabetical)
	AND
	AS
	ASSERT
	ASYNC
	AWAIT
	BREAK
	CLASS
	CONTINUE
	DEF
	DEL
	ELIF
	ELSE
	EXCEPT
	FALSE
	FINALLY
	FOR
	FROM
	GLOBAL
	IF
	IMPORT
	IN
	IS
	LAMBDA
	NONE
	NONLOCAL
	NOT
	OR
	PASS
	RAISE
	RETURN
	TRUE
	TRY
	WHILE
	WITH
	YIELD
)

var names = map[TokenType]string{
	EOF:       "EOF",
	ILLEGAL:   "ILLEGAL",
	NEWLINE:   "NEWLINE",
	INDENT:    "INDENT",
	DEDENT:    "DEDENT",
	NAME:      "NAME",
	NUMBER:    "NUMBER",
	STRING:    "STRING",
	FSTRING:   "FSTRING",
	PLUS:      "+",
	MINUS:     "-",
	STAR:      "*",
	DSTAR:     "**",
	SLASH:     "/",
	DSLASH:    "//",
	PERCENT:   "%",
	AT:        "@",
	AMP:       "&",
	PIPE:      "|",
	CARET:     "^",
	TILDE:     "~",
	LSHIFT:    "<<",
	RSHIFT:    ">>",
	LT:        "<",
	GT:        ">",
	LE:        "<=",
	GE:        ">=",
	EQ:        "==",
	NE:        "!=",
	LPAREN:    "(",
	RPAREN:    ")",
	LBRACKET:  "[",
	RBRACKET:  "]",
	LBRACE:    "{",
	RBRACE:    "}",
	COMMA:     ",",
	COLON:     ":",
	DOT:       ".",
	SEMICOLON: ";",
	ASSIGN:    "=",
	ARROW:     "->",
	WALRUS:    ":=",
	ELLIPSIS:  "...",
	PLUSEQ:    "+=",
	MINUSEQ:   "-=",
	STAREQ:    "*=",
	SLASHEQ:   "/=",
	DSLASHEQ:  "//=",
	PERCENTEQ: "%=",
	ATEQ:      "@=",
	AMPEQ:     "&=",
	PIPEEQ:    "|=",
	CARETEQ:   "^=",
	LSHIFTEQ:  "<<=",
	RSHIFTEQ:  ">>=",
	DSTAREQ:   "**=",
}

// keywords maps keyword spellings to their token types.
var keywords = map[string]TokenType{
	"and":      AND,
	"as":       AS,
	"assert":   ASSERT,
	"async":    ASYNC,
	"await":    AWAIT,
	"break":    BREAK,
	"class":    CLASS,
	"continue": CONTINUE,
	"def":      DEF,
	"del":      DEL,
	"elif":     ELIF,
	"else":     ELSE,
	"except":   EXCEPT,
	"False":    FALSE,
	"finally":  FINALLY,
	"for":      FOR,
	"from":     FROM,
	"global":   GLOBAL,
	"if":       IF,
	"import":   IMPORT,
	"in":       IN,
	"is":       IS,
	"lambda":   LAMBDA,
	"None":     NONE,
	"nonlocal": NONLOCAL,
	"not":      NOT,
	"or":       OR,
	"pass":     PASS,
	"raise":    RAISE,
	"return":   RETURN,
	"True":     TRUE,
	"try":      TRY,
	"while":    WHILE,
	"with":     WITH,
	"yield":    YIELD,
}

func init() {
	for word, t := range keywords {
		names[t] = word
	}
}

// String returns the spelling of the token type.
func (t TokenType) String() string {
	if s, ok := names[t]; ok {
		return s
	}
	return "UNKNOWN"
}

// LookupIdent returns the keyword token type for ident, or NAME.
// Keywords are case-sensitive.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return NAME
}

// IsKeyword returns true if the token type is a keyword.
func IsKeyword(t TokenType) bool {
	return t >= AND && t <= YIELD
}

// IsOperator returns true if the token type is an operator or delimiter.
func IsOperator(t TokenType) bool {
	return t >= PLUS && t < operatorEnd
}

// IsAugAssign returns true for augmented assignment operators such as +=.
func IsAugAssign(t TokenType) bool {
	return t >= PLUSEQ && t <= DSTAREQ
}

// Token represents a lexical token with position information.
type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
	End     Position
}
