package parser

import "github.com/leapstack-labs/contractlint/pkg/token"

// NodeKind identifies the concrete type of a Node. Rules subscribe to the
// kinds they handle, so adding a kind never breaks existing rules.
type NodeKind int

// Node kinds.
const (
	KindInvalid NodeKind = iota

	KindModule

	// Statements
	KindFunctionDef
	KindClassDef
	KindReturn
	KindDelete
	KindAssign
	KindAugAssign
	KindAnnAssign
	KindFor
	KindWhile
	KindIf
	KindWith
	KindRaise
	KindTry
	KindAssert
	KindImport
	KindImportFrom
	KindGlobal
	KindNonlocal
	KindExprStmt
	KindPass
	KindBreak
	KindContinue

	// Statement parts
	KindDecorator
	KindArguments
	KindArg
	KindKeyword
	KindAlias
	KindWithItem
	KindExceptHandler
	KindComprehension

	// Expressions
	KindBoolOp
	KindNamedExpr
	KindBinOp
	KindUnaryOp
	KindLambda
	KindIfExp
	KindDict
	KindSet
	KindList
	KindTuple
	KindListComp
	KindSetComp
	KindDictComp
	KindGeneratorExp
	KindAwait
	KindYield
	KindCompare
	KindCall
	KindFString
	KindConstant
	KindAttribute
	KindSubscript
	KindStarred
	KindName
	KindSlice

	kindCount
)

var kindNames = [...]string{
	KindInvalid:       "Invalid",
	KindModule:        "Module",
	KindFunctionDef:   "FunctionDef",
	KindClassDef:      "ClassDef",
	KindReturn:        "Return",
	KindDelete:        "Delete",
	KindAssign:        "Assign",
	KindAugAssign:     "AugAssign",
	KindAnnAssign:     "AnnAssign",
	KindFor:           "For",
	KindWhile:         "While",
	KindIf:            "If",
	KindWith:          "With",
	KindRaise:         "Raise",
	KindTry:           "Try",
	KindAssert:        "Assert",
	KindImport:        "Import",
	KindImportFrom:    "ImportFrom",
	KindGlobal:        "Global",
	KindNonlocal:      "Nonlocal",
	KindExprStmt:      "Expr",
	KindPass:          "Pass",
	KindBreak:         "Break",
	KindContinue:      "Continue",
	KindDecorator:     "Decorator",
	KindArguments:     "Arguments",
	KindArg:           "Arg",
	KindKeyword:       "Keyword",
	KindAlias:         "Alias",
	KindWithItem:      "WithItem",
	KindExceptHandler: "ExceptHandler",
	KindComprehension: "Comprehension",
	KindBoolOp:        "BoolOp",
	KindNamedExpr:     "NamedExpr",
	KindBinOp:         "BinOp",
	KindUnaryOp:       "UnaryOp",
	KindLambda:        "Lambda",
	KindIfExp:         "IfExp",
	KindDict:          "Dict",
	KindSet:           "Set",
	KindList:          "List",
	KindTuple:         "Tuple",
	KindListComp:      "ListComp",
	KindSetComp:       "SetComp",
	KindDictComp:      "DictComp",
	KindGeneratorExp:  "GeneratorExp",
	KindAwait:         "Await",
	KindYield:         "Yield",
	KindCompare:       "Compare",
	KindCall:          "Call",
	KindFString:       "JoinedStr",
	KindConstant:      "Constant",
	KindAttribute:     "Attribute",
	KindSubscript:     "Subscript",
	KindStarred:       "Starred",
	KindName:          "Name",
	KindSlice:         "Slice",
}

// String returns the Python ast class name of the kind.
func (k NodeKind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// KindByName returns the kind with the given name (as printed by String).
func KindByName(name string) (NodeKind, bool) {
	for k, n := range kindNames {
		if n == name && NodeKind(k) != KindInvalid {
			return NodeKind(k), true
		}
	}
	return KindInvalid, false
}

// NumKinds returns the number of node kinds, for dispatch tables.
func NumKinds() int {
	return int(kindCount)
}

// Node is implemented by every syntax tree node.
type Node interface {
	Kind() NodeKind
	Pos() token.Position
	End() token.Position
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// node carries the source span shared by all nodes.
type node struct {
	Span token.Span
}

func (n *node) Pos() token.Position { return n.Span.Start }
func (n *node) End() token.Position { return n.Span.End }

// ---------- Module ----------

// Module is the root of a parsed source unit.
type Module struct {
	node
	Body []Stmt
}

// ---------- Statements ----------

// FunctionDef is a def (or async def) statement.
type FunctionDef struct {
	node
	Name       string
	NamePos    token.Position
	Decorators []*Decorator
	Args       *Arguments
	Returns    Expr // nil if no return annotation
	Body       []Stmt
	Async      bool
}

// ClassDef is a class statement.
type ClassDef struct {
	node
	Name       string
	Decorators []*Decorator
	Bases      []Expr
	Keywords   []*Keyword
	Body       []Stmt
}

// Return is a return statement.
type Return struct {
	node
	Value Expr // nil for a bare return
}

// Delete is a del statement.
type Delete struct {
	node
	Targets []Expr
}

// Assign is a (possibly chained) assignment: a = b = value.
type Assign struct {
	node
	Targets []Expr
	Value   Expr
}

// AugAssign is an augmented assignment such as x += 1.
type AugAssign struct {
	node
	Target Expr
	Op     token.TokenType
	Value  Expr
}

// AnnAssign is an annotated assignment: x: int = 1.
type AnnAssign struct {
	node
	Target     Expr
	Annotation Expr
	Value      Expr // nil without initializer
}

// For is a for loop.
type For struct {
	node
	Target Expr
	Iter   Expr
	Body   []Stmt
	Else   []Stmt
	Async  bool
}

// While is a while loop.
type While struct {
	node
	Test Expr
	Body []Stmt
	Else []Stmt
}

// If is an if statement. An elif chain is represented as a nested If in Else.
type If struct {
	node
	Test Expr
	Body []Stmt
	Else []Stmt
}

// With is a with (or async with) statement.
type With struct {
	node
	Items []*WithItem
	Body  []Stmt
	Async bool
}

// Raise is a raise statement.
type Raise struct {
	node
	Exc   Expr
	Cause Expr
}

// Try is a try statement.
type Try struct {
	node
	Body     []Stmt
	Handlers []*ExceptHandler
	Else     []Stmt
	Finally  []Stmt
}

// Assert is an assert statement.
type Assert struct {
	node
	Test Expr
	Msg  Expr
}

// Import is an import statement.
type Import struct {
	node
	Names []*Alias
}

// ImportFrom is a from ... import statement.
type ImportFrom struct {
	node
	Module string
	Level  int // number of leading dots
	Names  []*Alias
}

// Global is a global statement.
type Global struct {
	node
	Names []string
}

// Nonlocal is a nonlocal statement.
type Nonlocal struct {
	node
	Names []string
}

// ExprStmt is an expression used as a statement.
type ExprStmt struct {
	node
	Value Expr
}

// Pass is a pass statement.
type Pass struct{ node }

// Break is a break statement.
type Break struct{ node }

// Continue is a continue statement.
type Continue struct{ node }

// ---------- Statement parts ----------

// Decorator is one @expr line attached to a definition.
type Decorator struct {
	node
	Expr Expr
}

// ArgKind distinguishes parameter flavours.
type ArgKind int

// Parameter kinds.
const (
	ArgPositional ArgKind = iota
	ArgVarArgs            // *args
	ArgKwOnly             // after * or *args
	ArgKwArgs             // **kwargs
)

// Arguments is a function or lambda parameter list.
type Arguments struct {
	node
	Args []*Arg
}

// Arg is a single parameter.
type Arg struct {
	node
	Name       string
	ArgKind    ArgKind
	Annotation Expr
	Default    Expr
}

// Keyword is a keyword argument in a call. Arg is empty for **value.
type Keyword struct {
	node
	Arg   string
	Value Expr
}

// Alias is one name in an import statement.
type Alias struct {
	node
	Name   string // dotted module or imported name
	AsName string
}

// Bound returns the name the alias binds in the importing scope.
func (a *Alias) Bound() string {
	if a.AsName != "" {
		return a.AsName
	}
	for i := 0; i < len(a.Name); i++ {
		if a.Name[i] == '.' {
			return a.Name[:i]
		}
	}
	return a.Name
}

// WithItem is one context manager in a with statement.
type WithItem struct {
	node
	Context Expr
	Vars    Expr
}

// ExceptHandler is an except clause.
type ExceptHandler struct {
	node
	Type Expr
	Name string
	Body []Stmt
}

// Comprehension is one for/if clause of a comprehension.
type Comprehension struct {
	node
	Target Expr
	Iter   Expr
	Ifs    []Expr
	Async  bool
}

// ---------- Expressions ----------

// BoolOp is a chain of and/or.
type BoolOp struct {
	node
	Op     token.TokenType // AND or OR
	Values []Expr
}

// NamedExpr is an assignment expression: (x := value).
type NamedExpr struct {
	node
	Target *Name
	Value  Expr
}

// BinOp is a binary operation.
type BinOp struct {
	node
	Left  Expr
	Op    token.TokenType
	Right Expr
}

// UnaryOp is a unary operation: not, -, +, ~.
type UnaryOp struct {
	node
	Op      token.TokenType
	Operand Expr
}

// Lambda is a lambda expression.
type Lambda struct {
	node
	Args *Arguments
	Body Expr
}

// IfExp is a conditional expression: body if test else orelse.
type IfExp struct {
	node
	Test Expr
	Body Expr
	Else Expr
}

// Dict is a dict display. A nil key marks a **mapping entry.
type Dict struct {
	node
	Keys   []Expr
	Values []Expr
}

// Set is a set display.
type Set struct {
	node
	Elts []Expr
}

// List is a list display.
type List struct {
	node
	Elts []Expr
}

// Tuple is a tuple display, parenthesized or not.
type Tuple struct {
	node
	Elts []Expr
}

// ListComp is a list comprehension.
type ListComp struct {
	node
	Elt        Expr
	Generators []*Comprehension
}

// SetComp is a set comprehension.
type SetComp struct {
	node
	Elt        Expr
	Generators []*Comprehension
}

// DictComp is a dict comprehension.
type DictComp struct {
	node
	Key        Expr
	Value      Expr
	Generators []*Comprehension
}

// GeneratorExp is a generator expression.
type GeneratorExp struct {
	node
	Elt        Expr
	Generators []*Comprehension
}

// Await is an await expression.
type Await struct {
	node
	Value Expr
}

// Yield is a yield or yield from expression.
type Yield struct {
	node
	Value Expr
	From  bool
}

// CmpOp is a comparison operator.
type CmpOp string

// Comparison operators.
const (
	CmpEq    CmpOp = "=="
	CmpNotEq CmpOp = "!="
	CmpLt    CmpOp = "<"
	CmpLtE   CmpOp = "<="
	CmpGt    CmpOp = ">"
	CmpGtE   CmpOp = ">="
	CmpIn    CmpOp = "in"
	CmpNotIn CmpOp = "not in"
	CmpIs    CmpOp = "is"
	CmpIsNot CmpOp = "is not"
)

// Compare is a comparison chain: left op1 c1 op2 c2 ...
type Compare struct {
	node
	Left        Expr
	Ops         []CmpOp
	Comparators []Expr
}

// Call is a call expression.
type Call struct {
	node
	Func     Expr
	Args     []Expr
	Keywords []*Keyword
}

// FString is an f-string; Values holds the parsed replacement fields.
type FString struct {
	node
	Raw    string
	Values []Expr
}

// ConstKind classifies literal constants.
type ConstKind int

// Constant kinds.
const (
	ConstInt ConstKind = iota
	ConstFloat
	ConstComplex
	ConstStr
	ConstBytes
	ConstTrue
	ConstFalse
	ConstNone
	ConstEllipsis
)

// Constant is a literal.
type Constant struct {
	node
	ConstKind ConstKind
	Value     string // source spelling; for strings the unquoted body
}

// Attribute is an attribute access: value.attr.
type Attribute struct {
	node
	Value   Expr
	Attr    string
	AttrPos token.Position
}

// Subscript is a subscription: value[index].
type Subscript struct {
	node
	Value Expr
	Index Expr
}

// Starred is *value in a call, display or assignment target.
type Starred struct {
	node
	Value Expr
}

// Name is an identifier reference.
type Name struct {
	node
	ID string
}

// Slice is lower:upper:step inside a subscript.
type Slice struct {
	node
	Lower Expr
	Upper Expr
	Step  Expr
}

// ---------- Kind / marker methods ----------

func (*Module) Kind() NodeKind        { return KindModule }
func (*FunctionDef) Kind() NodeKind   { return KindFunctionDef }
func (*ClassDef) Kind() NodeKind      { return KindClassDef }
func (*Return) Kind() NodeKind        { return KindReturn }
func (*Delete) Kind() NodeKind        { return KindDelete }
func (*Assign) Kind() NodeKind        { return KindAssign }
func (*AugAssign) Kind() NodeKind     { return KindAugAssign }
func (*AnnAssign) Kind() NodeKind     { return KindAnnAssign }
func (*For) Kind() NodeKind           { return KindFor }
func (*While) Kind() NodeKind         { return KindWhile }
func (*If) Kind() NodeKind            { return KindIf }
func (*With) Kind() NodeKind          { return KindWith }
func (*Raise) Kind() NodeKind         { return KindRaise }
func (*Try) Kind() NodeKind           { return KindTry }
func (*Assert) Kind() NodeKind        { return KindAssert }
func (*Import) Kind() NodeKind        { return KindImport }
func (*ImportFrom) Kind() NodeKind    { return KindImportFrom }
func (*Global) Kind() NodeKind        { return KindGlobal }
func (*Nonlocal) Kind() NodeKind      { return KindNonlocal }
func (*ExprStmt) Kind() NodeKind      { return KindExprStmt }
func (*Pass) Kind() NodeKind          { return KindPass }
func (*Break) Kind() NodeKind         { return KindBreak }
func (*Continue) Kind() NodeKind      { return KindContinue }
func (*Decorator) Kind() NodeKind     { return KindDecorator }
func (*Arguments) Kind() NodeKind     { return KindArguments }
func (*Arg) Kind() NodeKind           { return KindArg }
func (*Keyword) Kind() NodeKind       { return KindKeyword }
func (*Alias) Kind() NodeKind         { return KindAlias }
func (*WithItem) Kind() NodeKind      { return KindWithItem }
func (*ExceptHandler) Kind() NodeKind { return KindExceptHandler }
func (*Comprehension) Kind() NodeKind { return KindComprehension }
func (*BoolOp) Kind() NodeKind        { return KindBoolOp }
func (*NamedExpr) Kind() NodeKind     { return KindNamedExpr }
func (*BinOp) Kind() NodeKind         { return KindBinOp }
func (*UnaryOp) Kind() NodeKind       { return KindUnaryOp }
func (*Lambda) Kind() NodeKind        { return KindLambda }
func (*IfExp) Kind() NodeKind         { return KindIfExp }
func (*Dict) Kind() NodeKind          { return KindDict }
func (*Set) Kind() NodeKind           { return KindSet }
func (*List) Kind() NodeKind          { return KindList }
func (*Tuple) Kind() NodeKind         { return KindTuple }
func (*ListComp) Kind() NodeKind      { return KindListComp }
func (*SetComp) Kind() NodeKind       { return KindSetComp }
func (*DictComp) Kind() NodeKind      { return KindDictComp }
func (*GeneratorExp) Kind() NodeKind  { return KindGeneratorExp }
func (*Await) Kind() NodeKind         { return KindAwait }
func (*Yield) Kind() NodeKind         { return KindYield }
func (*Compare) Kind() NodeKind       { return KindCompare }
func (*Call) Kind() NodeKind          { return KindCall }
func (*FString) Kind() NodeKind       { return KindFString }
func (*Constant) Kind() NodeKind      { return KindConstant }
func (*Attribute) Kind() NodeKind     { return KindAttribute }
func (*Subscript) Kind() NodeKind     { return KindSubscript }
func (*Starred) Kind() NodeKind       { return KindStarred }
func (*Name) Kind() NodeKind          { return KindName }
func (*Slice) Kind() NodeKind         { return KindSlice }

func (*FunctionDef) stmtNode() {}
func (*ClassDef) stmtNode()    {}
func (*Return) stmtNode()      {}
func (*Delete) stmtNode()      {}
func (*Assign) stmtNode()      {}
func (*AugAssign) stmtNode()   {}
func (*AnnAssign) stmtNode()   {}
func (*For) stmtNode()         {}
func (*While) stmtNode()       {}
func (*If) stmtNode()          {}
func (*With) stmtNode()        {}
func (*Raise) stmtNode()       {}
func (*Try) stmtNode()         {}
func (*Assert) stmtNode()      {}
func (*Import) stmtNode()      {}
func (*ImportFrom) stmtNode()  {}
func (*Global) stmtNode()      {}
func (*Nonlocal) stmtNode()    {}
func (*ExprStmt) stmtNode()    {}
func (*Pass) stmtNode()        {}
func (*Break) stmtNode()       {}
func (*Continue) stmtNode()    {}

func (*BoolOp) exprNode()       {}
func (*NamedExpr) exprNode()    {}
func (*BinOp) exprNode()        {}
func (*UnaryOp) exprNode()      {}
func (*Lambda) exprNode()       {}
func (*IfExp) exprNode()        {}
func (*Dict) exprNode()         {}
func (*Set) exprNode()          {}
func (*List) exprNode()         {}
func (*Tuple) exprNode()        {}
func (*ListComp) exprNode()     {}
func (*SetComp) exprNode()      {}
func (*DictComp) exprNode()     {}
func (*GeneratorExp) exprNode() {}
func (*Await) exprNode()        {}
func (*Yield) exprNode()        {}
func (*Compare) exprNode()      {}
func (*Call) exprNode()         {}
func (*FString) exprNode()      {}
func (*Constant) exprNode()     {}
func (*Attribute) exprNode()    {}
func (*Subscript) exprNode()    {}
func (*Starred) exprNode()      {}
func (*Name) exprNode()         {}
func (*Slice) exprNode()        {}
