// Package lint provides the rule framework for contract linting.
//
// # Architecture
//
// Linting a parsed module happens in three steps:
//
//  1. Classification (pkg/lint/classify): every node is tagged with a shape
//     such as marker decorator, storage constructor, storage access or
//     denylisted reference, driven by the tables in pkg/lint/policy.
//  2. Dispatch (Engine): one depth-first traversal hands each node to the
//     rules subscribed to its kind, together with a Pass exposing the
//     classification and the node's ancestors.
//  3. Aggregation (Aggregate): rule and validator diagnostics are merged,
//     deduplicated and ordered into a Report.
//
// # Rule Registration
//
// Rules are registered via init() functions when their packages are imported:
//
//	import _ "github.com/leapstack-labs/contractlint/pkg/lint/rules"
//
// # Rule Groups
//
//   - export: decorator markers on entry points and constructors
//   - orm: declaration and use of persistent storage handles
//   - security: denylisted imports, calls and reflective access
//   - structure: language constructs the contract runtime rejects
//   - check: generic checks of the syntax validator (pkg/check)
//   - engine: parse and internal failures
//
// # Configuration
//
// Use Config to control which rules are enabled and their severity:
//
//	config := lint.NewConfig()
//	config.Disable("SYNTAX_NESTED_FUNCTION")
//	config.SetSeverity("UNUSED_IMPORT", lint.SeverityError)
//	config.SetRuleOptions("EXPORT_UNKNOWN_DECORATOR", map[string]any{
//		"allowed_decorators": []string{"view"},
//	})
//
// # Creating Custom Rules
//
// Implement the NodeRule interface or use RuleDef:
//
//	var MyRule = lint.RuleDef{
//		ID:          "MY_RULE",
//		Name:        "custom.my_rule",
//		Group:       "custom",
//		Description: "My custom rule description",
//		Severity:    lint.SeverityWarning,
//		Kinds:       []parser.NodeKind{parser.KindCall},
//		Check:       checkMyRule,
//	}
//
//	func init() {
//		lint.Register(MyRule)
//	}
package lint
