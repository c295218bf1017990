package orm

import (
	"fmt"

	"github.com/leapstack-labs/contractlint/pkg/lint"
	"github.com/leapstack-labs/contractlint/pkg/lint/classify"
	"github.com/leapstack-labs/contractlint/pkg/lint/policy"
	"github.com/leapstack-labs/contractlint/pkg/parser"
)

func init() {
	lint.Register(KeyArity)
}

// KeyArity checks subscripts and method calls on storage handles against
// the schema of their storage type.
var KeyArity = lint.RuleDef{
	ID:          "ORM_KEY_ARITY",
	Name:        "orm.key_arity",
	Group:       "orm",
	Description: "Storage accesses must match the key and argument counts of the handle type.",
	Severity:    lint.SeverityError,
	Kinds:       []parser.NodeKind{parser.KindSubscript, parser.KindCall},
	Check:       checkKeyArity,
	ConfigKeys:  []string{"max_key_arity"},

	Rationale: `A hash stores each value under the tuple of its keys. Accessing the same
hash with a different number of keys reads a different slot, and the runtime
rejects more keys than it can encode.`,

	BadExample: `balances = Hash()

@export
def move(a: str, b: str):
    balances[a, b] = balances[a]`,

	GoodExample: `balances = Hash()

@export
def move(a: str, b: str):
    balances[a, b] = balances[a, b]`,
}

func checkKeyArity(node parser.Node, pass *lint.Pass) []lint.Diagnostic {
	if pass.Info.Shape(node) != classify.ShapeStorageAccess {
		return nil
	}
	var msg string
	switch n := node.(type) {
	case *parser.Subscript:
		msg = subscriptArity(n, pass)
	case *parser.Call:
		msg = callArity(n, pass)
	}
	if msg == "" {
		return nil
	}
	return []lint.Diagnostic{atStatement("ORM_KEY_ARITY", node, pass, msg)}
}

func subscriptArity(sub *parser.Subscript, pass *lint.Pass) string {
	d, ok := pass.Info.StorageHandle(sub.Value)
	if !ok {
		return ""
	}
	if d.Spec.Kind != policy.KindHash {
		return fmt.Sprintf("%s '%s' cannot be subscripted", d.Type, d.Name)
	}
	keys := classify.KeyCount(sub)
	limit := lint.GetIntOption(pass.Options, "max_key_arity", pass.Policy.Storage.MaxKeyArity)
	switch {
	case keys > limit:
		return fmt.Sprintf("%s '%s' accessed with %d keys; at most %d are allowed", d.Type, d.Name, keys, limit)
	case d.KeyArity != 0 && keys != d.KeyArity && sub.Pos() != d.KeyArityPos:
		return fmt.Sprintf("%s '%s' accessed with %d keys; first access at line %d uses %d",
			d.Type, d.Name, keys, d.KeyArityPos.Line, d.KeyArity)
	}
	return ""
}

func callArity(call *parser.Call, pass *lint.Pass) string {
	n, known := argCount(call)
	if !known {
		return ""
	}
	switch fn := call.Func.(type) {
	case *parser.Attribute:
		d, ok := pass.Info.StorageHandle(fn.Value)
		if !ok {
			return ""
		}
		if want := d.Spec.Methods[fn.Attr]; !want.Accepts(n) {
			return fmt.Sprintf("method '%s' of %s '%s' expects %s argument(s), got %d",
				fn.Attr, d.Type, d.Name, want, n)
		}
	case *parser.Name:
		d, ok := pass.Info.Storage[fn.ID]
		if !ok || d.Spec.Call == nil {
			return ""
		}
		if !d.Spec.Call.Accepts(n) {
			return fmt.Sprintf("%s '%s' expects %s argument(s), got %d", d.Type, d.Name, d.Spec.Call, n)
		}
	}
	return ""
}

// argCount counts the arguments of call. It is unknown when the call
// unpacks *args or **kwargs.
func argCount(call *parser.Call) (int, bool) {
	for _, a := range call.Args {
		if _, ok := a.(*parser.Starred); ok {
			return 0, false
		}
	}
	for _, kw := range call.Keywords {
		if kw.Arg == "" {
			return 0, false
		}
	}
	return len(call.Args) + len(call.Keywords), true
}
