// Package classify tags syntax tree nodes with the shape the lint rules
// care about, so rules match on an explicit classification instead of
// re-deriving it from the tree.
package classify

import (
	"github.com/leapstack-labs/contractlint/pkg/lint/policy"
	"github.com/leapstack-labs/contractlint/pkg/parser"
	"github.com/leapstack-labs/contractlint/pkg/token"
)

// Shape is the closed set of node classifications.
type Shape uint8

// Node shapes.
const (
	ShapeOther Shape = iota
	// ShapeDecorator is a decorator that is not a recognized marker.
	ShapeDecorator
	// ShapeMarkerDecorator is an export or constructor marker.
	ShapeMarkerDecorator
	// ShapeStorageConstructor is a call such as Variable() or Hash().
	ShapeStorageConstructor
	// ShapeStorageAccess is a subscript or method call on a declared
	// storage handle, or a call of an event handle.
	ShapeStorageAccess
	// ShapeDenylisted is an import, call or reference the denylist rejects.
	ShapeDenylisted
)

var shapeNames = [...]string{
	ShapeOther:              "other",
	ShapeDecorator:          "decorator",
	ShapeMarkerDecorator:    "marker-decorator",
	ShapeStorageConstructor: "storage-constructor",
	ShapeStorageAccess:      "storage-access",
	ShapeDenylisted:         "denylisted",
}

func (s Shape) String() string {
	if int(s) < len(shapeNames) {
		return shapeNames[s]
	}
	return "unknown"
}

// StorageDecl is a module-level storage declaration: name = Hash(...).
type StorageDecl struct {
	Name string
	Type string
	Spec policy.StorageType
	Stmt parser.Stmt
	Call *parser.Call
	// KeyArity is the key count of the first subscript access of a hash
	// handle, or 0 if it is never subscripted.
	KeyArity    int
	KeyArityPos token.Position
}

// MarkedFunc is a function carrying at least one marker decorator.
type MarkedFunc struct {
	Func     *parser.FunctionDef
	Markers  []string
	TopLevel bool
}

// HasMarker reports whether the function carries marker.
func (m *MarkedFunc) HasMarker(marker string) bool {
	for _, mk := range m.Markers {
		if mk == marker {
			return true
		}
	}
	return false
}

// Info is the result of classifying a module.
type Info struct {
	Policy *policy.Policy

	// Imports maps each name bound by an import to its qualified target.
	Imports map[string]string
	// Declarations lists storage declarations in source order. Storage
	// indexes the first declaration of each name.
	Declarations []*StorageDecl
	Storage      map[string]*StorageDecl
	// Marked lists marker-decorated functions in source order.
	Marked []*MarkedFunc
	// Constructors lists the module-level constructor functions in source
	// order.
	Constructors []*parser.FunctionDef

	shapes      map[parser.Node]Shape
	reasons     map[parser.Node]string
	qualified   map[parser.Node]string
	marked      map[*parser.FunctionDef]*MarkedFunc
	bound       map[string]bool
	annotations map[parser.Node]bool
}

// Shape returns the classification of n.
func (info *Info) Shape(n parser.Node) Shape {
	return info.shapes[n]
}

// DenyReason returns why a ShapeDenylisted node is rejected.
func (info *Info) DenyReason(n parser.Node) string {
	return info.reasons[n]
}

// Qualified returns the fully-qualified target of a name, attribute chain
// or call resolved through import aliases ("builtins.<name>" for builtins).
func (info *Info) Qualified(n parser.Node) (string, bool) {
	q, ok := info.qualified[n]
	return q, ok
}

// MarkedFunc returns the marker information of fn, or nil.
func (info *Info) MarkedFunc(fn *parser.FunctionDef) *MarkedFunc {
	return info.marked[fn]
}

// StorageHandle returns the declaration a handle expression refers to.
func (info *Info) StorageHandle(e parser.Expr) (*StorageDecl, bool) {
	name, ok := e.(*parser.Name)
	if !ok {
		return nil, false
	}
	d, ok := info.Storage[name.ID]
	return d, ok
}

// IsBound reports whether name is bound anywhere in the module by an
// assignment, definition, parameter or import.
func (info *Info) IsBound(name string) bool {
	return info.bound[name]
}

// InAnnotation reports whether n is, or is inside, a type annotation.
func (info *Info) InAnnotation(n parser.Node) bool {
	return info.annotations[n]
}

// MarkerName returns the marker a decorator applies, if any.
func (info *Info) MarkerName(d *parser.Decorator) (string, bool) {
	if n, ok := d.Expr.(*parser.Name); ok && info.Policy.IsMarker(n.ID) {
		return n.ID, true
	}
	return "", false
}
