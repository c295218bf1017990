package check

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/leapstack-labs/contractlint/pkg/lint"
	"github.com/leapstack-labs/contractlint/pkg/lint/policy"
	"github.com/leapstack-labs/contractlint/pkg/parser"
)

type scopeKind int

const (
	scopeModule scopeKind = iota
	scopeFunction
	scopeClass
	scopeComprehension
)

type bindKind int

const (
	bindAssign bindKind = iota
	bindUnpack
	bindAugmented
	bindAnnotation // x: int without a value binds nothing at runtime
	bindLoop
	bindWith
	bindImport
	bindArgument
	bindFunction
	bindClass
	bindExcept
	bindGlobal
)

type binding struct {
	name  string
	kind  bindKind
	node  parser.Node
	label string // import label for messages
	// definedAt is the source offset from which a module-level binding is
	// visible to module-level code.
	definedAt int
	used      bool
}

type scope struct {
	kind      scopeKind
	parent    *scope
	bindings  map[string][]*binding
	order     []*binding
	globals   map[string]bool
	nonlocals map[string]bool
	// deletions holds the offsets of unconditional del statements per name.
	deletions map[string][]int
}

func (s *scope) add(b *binding) {
	s.bindings[b.name] = append(s.bindings[b.name], b)
	s.order = append(s.order, b)
}

// lookup marks the bindings of name visible at offset as used. Sequential
// lookups only see bindings made earlier in the source. skip is the
// binding an augmented assignment creates, which its own load can not see.
func (s *scope) lookup(name string, sequential bool, offset int, skip *binding) bool {
	found := false
	for _, b := range s.bindings[name] {
		if b == skip || b.kind == bindAnnotation || (sequential && b.definedAt > offset) || s.deleted(b, offset) {
			continue
		}
		b.used = true
		found = true
	}
	return found
}

// deleted reports whether b was removed by a del between its definition
// and offset.
func (s *scope) deleted(b *binding, offset int) bool {
	for _, at := range s.deletions[b.name] {
		if b.definedAt <= at && at < offset {
			return true
		}
	}
	return false
}

type use struct {
	name  string
	node  *parser.Name
	scope *scope
	self  *binding
}

type store struct {
	kind      bindKind
	definedAt int
}

// moduleNames are set by the interpreter for every module.
var moduleNames = map[string]bool{
	"__name__": true, "__doc__": true, "__file__": true, "__builtins__": true,
	"__package__": true, "__spec__": true, "__loader__": true, "__annotations__": true,
}

// analyzer resolves every name load of a module against the scopes that
// are visible to it.
type analyzer struct {
	pol    *policy.Policy
	module *scope
	scopes []*scope
	uses   []use
	stores map[*parser.Name]store
}

func newAnalyzer(pol *policy.Policy) *analyzer {
	return &analyzer{pol: pol, stores: make(map[*parser.Name]store)}
}

func (a *analyzer) newScope(kind scopeKind, parent *scope) *scope {
	s := &scope{
		kind:      kind,
		parent:    parent,
		bindings:  make(map[string][]*binding),
		globals:   make(map[string]bool),
		nonlocals: make(map[string]bool),
		deletions: make(map[string][]int),
	}
	a.scopes = append(a.scopes, s)
	return s
}

func (a *analyzer) run(mod *parser.Module) {
	a.collectStores(mod)
	a.module = a.newScope(scopeModule, nil)
	v := &scopeVisitor{a: a, sc: a.module}
	for _, stmt := range mod.Body {
		parser.Walk(v, stmt)
	}
}

// normalize applies the NFKC normalization the interpreter applies to
// identifiers.
func normalize(name string) string {
	for i := 0; i < len(name); i++ {
		if name[i] >= utf8.RuneSelf {
			return norm.NFKC.String(name)
		}
	}
	return name
}

func (a *analyzer) bind(sc *scope, name string, kind bindKind, node parser.Node, at int) *binding {
	name = normalize(name)
	if sc.nonlocals[name] {
		return nil
	}
	if sc.globals[name] {
		sc, kind, at = a.module, bindGlobal, 0
	}
	b := &binding{name: name, kind: kind, node: node, definedAt: at}
	sc.add(b)
	return b
}

// collectStores records the names written by assignment-like statements,
// so the scope walk can tell stores from loads.
func (a *analyzer) collectStores(mod *parser.Module) {
	var mark func(e parser.Expr, kind bindKind, at int, nested bool)
	mark = func(e parser.Expr, kind bindKind, at int, nested bool) {
		switch e := e.(type) {
		case *parser.Name:
			if nested && kind == bindAssign {
				kind = bindUnpack
			}
			a.stores[e] = store{kind: kind, definedAt: at}
		case *parser.Tuple:
			for _, elt := range e.Elts {
				mark(elt, kind, at, true)
			}
		case *parser.List:
			for _, elt := range e.Elts {
				mark(elt, kind, at, true)
			}
		case *parser.Starred:
			mark(e.Value, kind, at, nested)
		}
	}

	parser.Inspect(mod, func(n parser.Node) bool {
		switch n := n.(type) {
		case *parser.Assign:
			for _, t := range n.Targets {
				mark(t, bindAssign, n.End().Offset, false)
			}
		case *parser.AnnAssign:
			kind := bindAssign
			if n.Value == nil {
				kind = bindAnnotation
			}
			mark(n.Target, kind, n.End().Offset, false)
		case *parser.AugAssign:
			mark(n.Target, bindAugmented, n.End().Offset, false)
		case *parser.For:
			mark(n.Target, bindLoop, n.Target.Pos().Offset, false)
		case *parser.Comprehension:
			mark(n.Target, bindLoop, n.Target.Pos().Offset, false)
		case *parser.WithItem:
			if n.Vars != nil {
				mark(n.Vars, bindWith, n.Vars.Pos().Offset, false)
			}
		case *parser.NamedExpr:
			a.stores[n.Target] = store{kind: bindAssign, definedAt: n.End().Offset}
		}
		return true
	})
}

// declareGlobals records the global and nonlocal statements of a function
// body, without descending into nested scopes.
func declareGlobals(sc *scope, body []parser.Stmt) {
	for _, stmt := range body {
		parser.Inspect(stmt, func(n parser.Node) bool {
			switch n := n.(type) {
			case *parser.Global:
				for _, name := range n.Names {
					sc.globals[normalize(name)] = true
				}
			case *parser.Nonlocal:
				for _, name := range n.Names {
					sc.nonlocals[normalize(name)] = true
				}
			case *parser.FunctionDef, *parser.ClassDef, *parser.Lambda:
				return false
			}
			return true
		})
	}
}

// ---------- Scope walk ----------

type scopeVisitor struct {
	a  *analyzer
	sc *scope
	// conditional is set below an if or while statement of the scope.
	conditional bool
}

func (v *scopeVisitor) walk(n parser.Node) {
	if n != nil {
		parser.Walk(v, n)
	}
}

func (v *scopeVisitor) walkExpr(e parser.Expr) {
	if e != nil {
		parser.Walk(v, e)
	}
}

func (v *scopeVisitor) Visit(n parser.Node) parser.Visitor {
	a := v.a
	switch n := n.(type) {
	case nil:
		return nil

	case *parser.FunctionDef:
		for _, d := range n.Decorators {
			v.walk(d)
		}
		v.walkParameters(n.Args)
		v.walkExpr(n.Returns)
		a.bind(v.sc, n.Name, bindFunction, n, n.Pos().Offset)

		fs := a.newScope(scopeFunction, v.sc)
		declareGlobals(fs, n.Body)
		a.bindArguments(fs, n.Args)
		inner := &scopeVisitor{a: a, sc: fs}
		for _, stmt := range n.Body {
			inner.walk(stmt)
		}
		return nil

	case *parser.Lambda:
		v.walkParameters(n.Args)
		fs := a.newScope(scopeFunction, v.sc)
		a.bindArguments(fs, n.Args)
		(&scopeVisitor{a: a, sc: fs}).walkExpr(n.Body)
		return nil

	case *parser.ClassDef:
		for _, d := range n.Decorators {
			v.walk(d)
		}
		for _, base := range n.Bases {
			v.walkExpr(base)
		}
		for _, kw := range n.Keywords {
			v.walkExpr(kw.Value)
		}
		a.bind(v.sc, n.Name, bindClass, n, n.Pos().Offset)
		cs := a.newScope(scopeClass, v.sc)
		inner := &scopeVisitor{a: a, sc: cs}
		for _, stmt := range n.Body {
			inner.walk(stmt)
		}
		return nil

	case *parser.ListComp:
		v.comprehension(n.Generators, n.Elt)
		return nil
	case *parser.SetComp:
		v.comprehension(n.Generators, n.Elt)
		return nil
	case *parser.GeneratorExp:
		v.comprehension(n.Generators, n.Elt)
		return nil
	case *parser.DictComp:
		v.comprehension(n.Generators, n.Key, n.Value)
		return nil

	case *parser.Import:
		for _, alias := range n.Names {
			b := a.bind(v.sc, alias.Bound(), bindImport, alias, alias.Pos().Offset)
			if b != nil {
				b.label = importLabel(alias.Name, alias.AsName)
			}
		}
		return nil

	case *parser.ImportFrom:
		for _, alias := range n.Names {
			if alias.Name == "*" {
				continue
			}
			bound := alias.Name
			if alias.AsName != "" {
				bound = alias.AsName
			}
			b := a.bind(v.sc, bound, bindImport, alias, alias.Pos().Offset)
			if b != nil {
				b.label = importLabel(fromModule(n)+"."+alias.Name, alias.AsName)
			}
		}
		return nil

	case *parser.ExceptHandler:
		if n.Name != "" {
			a.bind(v.sc, n.Name, bindExcept, n, n.Pos().Offset)
		}
		return v

	case *parser.If, *parser.While:
		if !v.conditional {
			parser.Walk(&scopeVisitor{a: a, sc: v.sc, conditional: true}, n)
			return nil
		}
		return v

	case *parser.Delete:
		for _, t := range n.Targets {
			v.walkExpr(t)
			if !v.conditional {
				v.recordDeletes(t)
			}
		}
		return nil

	case *parser.Name:
		u := use{name: normalize(n.ID), node: n, scope: v.sc}
		if st, ok := a.stores[n]; ok {
			b := a.bind(v.sc, n.ID, st.kind, n, st.definedAt)
			if st.kind != bindAugmented {
				return nil
			}
			u.self = b
		}
		a.uses = append(a.uses, u)
		return nil
	}
	return v
}

// recordDeletes notes the names removed by a del target. A del on a
// conditional branch may not run, so it keeps the binding.
func (v *scopeVisitor) recordDeletes(e parser.Expr) {
	switch e := e.(type) {
	case *parser.Name:
		name := normalize(e.ID)
		if v.sc.globals[name] || v.sc.nonlocals[name] {
			return
		}
		v.sc.deletions[name] = append(v.sc.deletions[name], e.End().Offset)
	case *parser.Tuple:
		for _, elt := range e.Elts {
			v.recordDeletes(elt)
		}
	case *parser.List:
		for _, elt := range e.Elts {
			v.recordDeletes(elt)
		}
	}
}

// walkParameters walks defaults and annotations, which are evaluated in
// the enclosing scope.
func (v *scopeVisitor) walkParameters(args *parser.Arguments) {
	if args == nil {
		return
	}
	for _, arg := range args.Args {
		v.walkExpr(arg.Default)
		v.walkExpr(arg.Annotation)
	}
}

func (a *analyzer) bindArguments(sc *scope, args *parser.Arguments) {
	if args == nil {
		return
	}
	for _, arg := range args.Args {
		a.bind(sc, arg.Name, bindArgument, arg, arg.Pos().Offset)
	}
}

// comprehension walks a comprehension: the first iterable in the enclosing
// scope, everything else in a scope of its own.
func (v *scopeVisitor) comprehension(gens []*parser.Comprehension, elts ...parser.Expr) {
	if len(gens) == 0 {
		return
	}
	v.walkExpr(gens[0].Iter)
	inner := &scopeVisitor{a: v.a, sc: v.a.newScope(scopeComprehension, v.sc)}
	for i, g := range gens {
		if i > 0 {
			inner.walkExpr(g.Iter)
		}
		inner.walkExpr(g.Target)
		for _, cond := range g.Ifs {
			inner.walkExpr(cond)
		}
	}
	for _, e := range elts {
		inner.walkExpr(e)
	}
}

func importLabel(name, as string) string {
	if as != "" {
		return name + " as " + as
	}
	return name
}

func fromModule(n *parser.ImportFrom) string {
	return strings.Repeat(".", n.Level) + n.Module
}

// ---------- Resolution ----------

// resolve looks a use up through its enclosing scopes. Class scopes are
// only visible to code directly in the class body. Module-level code only
// sees module bindings made before it.
func (a *analyzer) resolve(u use) bool {
	offset := u.node.Pos().Offset
	crossed := false
	for s := u.scope; s != nil; s = s.parent {
		if s.kind == scopeFunction && s.globals[u.name] {
			return a.module.lookup(u.name, false, offset, nil)
		}
		if s == u.scope || s.kind != scopeClass {
			if s.lookup(u.name, s.kind == scopeModule && !crossed, offset, u.self) {
				return true
			}
		}
		if s.kind == scopeFunction {
			crossed = true
		}
	}
	return false
}

func (a *analyzer) predefined(name string) bool {
	return a.pol.IsBuiltin(name) || a.pol.IsRuntimeGlobal(name) || moduleNames[name]
}

func (a *analyzer) report() []lint.Diagnostic {
	var diags []lint.Diagnostic
	for _, u := range a.uses {
		if a.resolve(u) || a.predefined(u.name) {
			continue
		}
		diags = append(diags, newDiagnostic(CodeUndefinedName, u.node,
			fmt.Sprintf("undefined name '%s'", u.node.ID)))
	}

	for _, s := range a.scopes {
		reported := make(map[string]bool)
		for _, b := range s.order {
			if b.used || reported[b.name] {
				continue
			}
			switch {
			case b.kind == bindImport:
				diags = append(diags, newDiagnostic(CodeUnusedImport, b.node,
					fmt.Sprintf("'%s' imported but unused", b.label)))
			case b.kind == bindAssign && s.kind == scopeFunction && b.name != "_" && !anyUsed(s.bindings[b.name]):
				reported[b.name] = true
				diags = append(diags, newDiagnostic(CodeUnusedVariable, b.node,
					fmt.Sprintf("local variable '%s' is assigned to but never used", b.name)))
			}
		}
	}
	return diags
}

func anyUsed(bs []*binding) bool {
	for _, b := range bs {
		if b.used {
			return true
		}
	}
	return false
}
