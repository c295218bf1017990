package classify

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/contractlint/pkg/lint/policy"
	"github.com/leapstack-labs/contractlint/pkg/parser"
)

// Classify runs the classification pass over mod. A nil policy means
// policy.Default().
func Classify(mod *parser.Module, pol *policy.Policy) *Info {
	if pol == nil {
		pol = policy.Default()
	}
	info := &Info{
		Policy:      pol,
		Imports:     make(map[string]string),
		Storage:     make(map[string]*StorageDecl),
		shapes:      make(map[parser.Node]Shape),
		reasons:     make(map[parser.Node]string),
		qualified:   make(map[parser.Node]string),
		marked:      make(map[*parser.FunctionDef]*MarkedFunc),
		bound:       make(map[string]bool),
		annotations: make(map[parser.Node]bool),
	}
	if mod == nil {
		return info
	}

	c := &classifier{info: info, pol: pol, covered: make(map[parser.Node]bool)}
	parser.Inspect(mod, c.collectBindings)
	c.collectDeclarations(mod)
	parser.Walk(c, mod)
	return info
}

type classifier struct {
	info    *Info
	pol     *policy.Policy
	stack   []parser.Node
	covered map[parser.Node]bool
	annRoot map[parser.Node]bool
	annDeep int
}

// ---------- Bindings ----------

func (c *classifier) collectBindings(n parser.Node) bool {
	info := c.info
	switch n := n.(type) {
	case *parser.Import:
		for _, a := range n.Names {
			target := a.Bound()
			if a.AsName != "" {
				target = a.Name
			}
			info.Imports[a.Bound()] = target
			info.bound[a.Bound()] = true
		}
	case *parser.ImportFrom:
		for _, a := range n.Names {
			if a.Name == "*" {
				continue
			}
			bound := a.Name
			if a.AsName != "" {
				bound = a.AsName
			}
			target := a.Name
			if n.Module != "" {
				target = n.Module + "." + a.Name
			}
			info.Imports[bound] = target
			info.bound[bound] = true
		}
	case *parser.FunctionDef:
		info.bound[n.Name] = true
	case *parser.ClassDef:
		info.bound[n.Name] = true
	case *parser.Arg:
		info.bound[n.Name] = true
	case *parser.ExceptHandler:
		if n.Name != "" {
			info.bound[n.Name] = true
		}
	case *parser.Assign:
		for _, t := range n.Targets {
			c.bindTarget(t)
		}
	case *parser.AugAssign:
		c.bindTarget(n.Target)
	case *parser.AnnAssign:
		c.bindTarget(n.Target)
	case *parser.For:
		c.bindTarget(n.Target)
	case *parser.Comprehension:
		c.bindTarget(n.Target)
	case *parser.WithItem:
		if n.Vars != nil {
			c.bindTarget(n.Vars)
		}
	case *parser.NamedExpr:
		info.bound[n.Target.ID] = true
	}
	return true
}

func (c *classifier) bindTarget(e parser.Expr) {
	for _, name := range TargetNames(e) {
		c.info.bound[name.ID] = true
	}
}

// TargetNames returns the names bound by an assignment target, descending
// into tuple, list and starred targets.
func TargetNames(e parser.Expr) []*parser.Name {
	var out []*parser.Name
	var walk func(parser.Expr)
	walk = func(e parser.Expr) {
		switch e := e.(type) {
		case *parser.Name:
			out = append(out, e)
		case *parser.Tuple:
			for _, elt := range e.Elts {
				walk(elt)
			}
		case *parser.List:
			for _, elt := range e.Elts {
				walk(elt)
			}
		case *parser.Starred:
			walk(e.Value)
		}
	}
	walk(e)
	return out
}

// ---------- Storage declarations ----------

// collectDeclarations records module-level storage declarations.
func (c *classifier) collectDeclarations(mod *parser.Module) {
	for _, stmt := range mod.Body {
		switch s := stmt.(type) {
		case *parser.Assign:
			if call, typ, ok := c.storageCall(s.Value); ok {
				for _, t := range s.Targets {
					for _, name := range TargetNames(t) {
						c.declare(name.ID, typ, s, call)
					}
				}
				continue
			}
			// a, b = Variable(), Hash()
			vals, ok := s.Value.(*parser.Tuple)
			if !ok || len(s.Targets) != 1 {
				continue
			}
			targets, ok := s.Targets[0].(*parser.Tuple)
			if !ok || len(targets.Elts) != len(vals.Elts) {
				continue
			}
			for i, v := range vals.Elts {
				name, isName := targets.Elts[i].(*parser.Name)
				if call, typ, ok := c.storageCall(v); ok && isName {
					c.declare(name.ID, typ, s, call)
				}
			}
		case *parser.AnnAssign:
			if call, typ, ok := c.storageCall(s.Value); ok {
				if name, isName := s.Target.(*parser.Name); isName {
					c.declare(name.ID, typ, s, call)
				}
			}
		}
	}
}

func (c *classifier) declare(name, typ string, stmt parser.Stmt, call *parser.Call) {
	spec, _ := c.pol.StorageType(typ)
	d := &StorageDecl{Name: name, Type: typ, Spec: spec, Stmt: stmt, Call: call}
	c.info.Declarations = append(c.info.Declarations, d)
	if _, dup := c.info.Storage[name]; !dup {
		c.info.Storage[name] = d
	}
}

// storageCall reports whether e is a call of a storage constructor.
func (c *classifier) storageCall(e parser.Expr) (*parser.Call, string, bool) {
	call, ok := e.(*parser.Call)
	if !ok {
		return nil, "", false
	}
	fn, ok := call.Func.(*parser.Name)
	if !ok {
		return nil, "", false
	}
	if _, imported := c.info.Imports[fn.ID]; imported {
		return nil, "", false
	}
	if _, ok := c.pol.StorageType(fn.ID); !ok {
		return nil, "", false
	}
	return call, fn.ID, true
}

// ---------- Node shapes ----------

// Visit implements parser.Visitor, tracking ancestors and annotation
// subtrees.
func (c *classifier) Visit(n parser.Node) parser.Visitor {
	if n == nil {
		top := c.stack[len(c.stack)-1]
		c.stack = c.stack[:len(c.stack)-1]
		if c.annRoot[top] {
			c.annDeep--
		}
		return nil
	}
	if c.annRoot[n] {
		c.annDeep++
	}
	if c.annDeep > 0 {
		c.info.annotations[n] = true
	}
	c.visit(n)
	c.stack = append(c.stack, n)
	return c
}

func (c *classifier) markAnnotation(e parser.Expr) {
	if e == nil {
		return
	}
	if c.annRoot == nil {
		c.annRoot = make(map[parser.Node]bool)
	}
	c.annRoot[e] = true
}

func (c *classifier) parent() parser.Node {
	if len(c.stack) == 0 {
		return nil
	}
	return c.stack[len(c.stack)-1]
}

func (c *classifier) visit(n parser.Node) {
	info := c.info
	switch n := n.(type) {
	case *parser.FunctionDef:
		if n.Args != nil {
			for _, a := range n.Args.Args {
				c.markAnnotation(a.Annotation)
			}
		}
		c.markAnnotation(n.Returns)
		c.visitFunction(n)

	case *parser.AnnAssign:
		c.markAnnotation(n.Annotation)

	case *parser.Decorator:
		if _, ok := info.MarkerName(n); ok {
			info.shapes[n] = ShapeMarkerDecorator
		} else {
			info.shapes[n] = ShapeDecorator
		}

	case *parser.Import:
		for _, a := range n.Names {
			if reason, denied := c.pol.DeniedImport(a.Name); denied {
				c.deny(a, reason)
			}
		}

	case *parser.ImportFrom:
		if n.Level > 0 || n.Module == "" {
			return
		}
		if reason, denied := c.pol.DeniedImport(n.Module); denied {
			for _, a := range n.Names {
				c.deny(a, reason)
			}
		}

	case *parser.Call:
		if c.covered[n] {
			return
		}
		if _, _, ok := c.storageCall(n); ok {
			info.shapes[n] = ShapeStorageConstructor
			return
		}
		if q := c.qualify(n.Func); q != "" {
			info.qualified[n] = q
			if reason, denied := c.pol.DeniedTarget(q); denied && c.annDeep == 0 {
				c.deny(n, reason)
				c.cover(n.Func)
				return
			}
		}
		switch fn := n.Func.(type) {
		case *parser.Attribute:
			if d, ok := info.StorageHandle(fn.Value); ok {
				if _, known := d.Spec.Methods[fn.Attr]; known {
					info.shapes[n] = ShapeStorageAccess
				}
			}
		case *parser.Name:
			if d, ok := info.Storage[fn.ID]; ok && d.Spec.Call != nil {
				info.shapes[n] = ShapeStorageAccess
			}
		}

	case *parser.Subscript:
		d, ok := info.StorageHandle(n.Value)
		if !ok {
			return
		}
		info.shapes[n] = ShapeStorageAccess
		if d.Spec.Kind == policy.KindHash && d.KeyArity == 0 {
			d.KeyArity = KeyCount(n)
			d.KeyArityPos = n.Pos()
		}

	case *parser.Attribute:
		if c.covered[n] {
			return
		}
		if c.pol.IsDeniedName(n.Attr) {
			c.deny(n, fmt.Sprintf("access to runtime internal '%s'", n.Attr))
			return
		}
		if q := c.qualify(n); q != "" {
			info.qualified[n] = q
			if reason, denied := c.pol.DeniedTarget(q); denied && c.annDeep == 0 {
				c.deny(n, reason)
				c.cover(n.Value)
			}
		}

	case *parser.Name:
		if c.covered[n] {
			return
		}
		if c.pol.IsDeniedName(n.ID) {
			c.deny(n, fmt.Sprintf("reference to runtime internal '%s'", n.ID))
			return
		}
		if q := c.qualify(n); q != "" {
			info.qualified[n] = q
			if q == "builtins."+n.ID && c.pol.IsReferenceOnlyBuiltin(n.ID) {
				return
			}
			if reason, denied := c.pol.DeniedTarget(q); denied && c.annDeep == 0 {
				c.deny(n, reason)
			}
		}
	}
}

func (c *classifier) visitFunction(fn *parser.FunctionDef) {
	var markers []string
	for _, d := range fn.Decorators {
		if m, ok := c.info.MarkerName(d); ok {
			markers = append(markers, m)
		}
	}
	if len(markers) == 0 {
		return
	}
	_, topLevel := c.parent().(*parser.Module)
	mf := &MarkedFunc{Func: fn, Markers: markers, TopLevel: topLevel}
	c.info.Marked = append(c.info.Marked, mf)
	c.info.marked[fn] = mf
	if topLevel && mf.HasMarker(c.pol.Export.Constructor) {
		c.info.Constructors = append(c.info.Constructors, fn)
	}
}

func (c *classifier) deny(n parser.Node, reason string) {
	c.info.shapes[n] = ShapeDenylisted
	c.info.reasons[n] = reason
}

// cover marks the name/attribute chain of a denied expression so that its
// parts are not reported again.
func (c *classifier) cover(e parser.Expr) {
	switch e := e.(type) {
	case *parser.Attribute:
		c.covered[e] = true
		c.cover(e.Value)
	case *parser.Name:
		c.covered[e] = true
	}
}

// qualify resolves a name or attribute chain to its fully-qualified target,
// or "" if it does not resolve to an import or builtin.
func (c *classifier) qualify(e parser.Expr) string {
	switch e := e.(type) {
	case *parser.Name:
		if q, ok := c.info.Imports[e.ID]; ok {
			return q
		}
		if !c.info.bound[e.ID] && c.pol.IsBuiltin(e.ID) && !c.pol.IsRuntimeGlobal(e.ID) {
			return "builtins." + e.ID
		}
	case *parser.Attribute:
		base := c.qualify(e.Value)
		if base != "" && !strings.HasPrefix(base, "builtins.") {
			return base + "." + e.Attr
		}
	}
	return ""
}

// KeyCount returns the number of keys in a storage subscript: h[a, b] has
// two.
func KeyCount(s *parser.Subscript) int {
	if t, ok := s.Index.(*parser.Tuple); ok && len(t.Elts) > 0 {
		return len(t.Elts)
	}
	return 1
}
