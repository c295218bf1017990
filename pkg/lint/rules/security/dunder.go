package security

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/contractlint/pkg/lint"
	"github.com/leapstack-labs/contractlint/pkg/parser"
)

func init() {
	lint.Register(Dunder)
}

// Dunder flags reflection through private attributes and dunder names, and
// identifiers that carry the reserved private prefix or suffix.
var Dunder = lint.RuleDef{
	ID:          "SECURITY_DUNDER",
	Name:        "security.dunder",
	Group:       "security",
	Description: "Private attributes, dunder names and identifiers starting or ending with '_' are not allowed.",
	Severity:    lint.SeverityError,
	Kinds: []parser.NodeKind{
		parser.KindAttribute, parser.KindName, parser.KindArg, parser.KindFunctionDef,
	},
	Check: checkDunder,

	Rationale: `Attributes such as __class__, __globals__ or a handle's _driver lead from
any object back to the interpreter and the storage driver, bypassing the
sandbox. The runtime reserves every identifier starting or ending with an
underscore for itself and rejects contracts that define or use one.`,

	BadExample: `_owner = Variable()

@export
def f():
    return balances._driver`,

	GoodExample: `owner = Variable()

@export
def f(key: str):
    return balances[key]`,

	Fix: "Rename the identifier without the leading or trailing underscore.",
}

func checkDunder(node parser.Node, pass *lint.Pass) []lint.Diagnostic {
	pol := pass.Policy
	var msg string
	switch n := node.(type) {
	case *parser.Attribute:
		switch {
		case pol.Security.PrivatePrefix != "" && strings.HasPrefix(n.Attr, pol.Security.PrivatePrefix):
			msg = fmt.Sprintf("access to private attribute '%s'", n.Attr)
		case pol.IsPrivateName(n.Attr):
			msg = reserved("attribute", n.Attr)
		}
	case *parser.Name:
		switch {
		case isDunder(n.ID):
			msg = fmt.Sprintf("reference to dunder name '%s'", n.ID)
		case pol.IsPrivateName(n.ID):
			msg = reserved("name", n.ID)
		}
	case *parser.Arg:
		if pol.IsPrivateName(n.Name) {
			msg = reserved("parameter", n.Name)
		}
	case *parser.FunctionDef:
		if pol.IsPrivateName(n.Name) {
			msg = reserved("function", n.Name)
		}
	}
	if msg == "" {
		return nil
	}
	return []lint.Diagnostic{lint.NewDiagnostic("SECURITY_DUNDER", node, msg)}
}

func reserved(what, name string) string {
	return fmt.Sprintf("%s '%s' starts or ends with a reserved underscore", what, name)
}

func isDunder(name string) bool {
	return len(name) > 4 && strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__")
}
