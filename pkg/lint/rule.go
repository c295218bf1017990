package lint

import "github.com/leapstack-labs/contractlint/pkg/parser"

// Rule is the base interface all lint rules implement. It carries the
// metadata shared by tree rules and the syntax validator's checks.
type Rule interface {
	// ID returns the unique identifier, e.g., "EXPORT_NESTED"
	ID() string

	// Name returns the human-readable name, e.g., "export.nested"
	Name() string

	// Group returns the category, e.g., "export", "orm", "security"
	Group() string

	// Description returns a human-readable description
	Description() string

	// DefaultSeverity returns the default severity for this rule
	DefaultSeverity() Severity

	// ConfigKeys returns configuration keys this rule accepts
	ConfigKeys() []string

	// Documentation methods for richer rule documentation
	Rationale() string   // Why this rule exists, what problems it prevents
	BadExample() string  // Code showing the anti-pattern
	GoodExample() string // Code showing the correct pattern
	Fix() string         // How to fix violations (when not obvious)
}

// NodeRule inspects syntax tree nodes during the engine traversal.
type NodeRule interface {
	Rule

	// Kinds returns the node kinds the rule is dispatched on.
	Kinds() []parser.NodeKind

	// Check analyzes a node and returns diagnostics.
	Check(node parser.Node, pass *Pass) []Diagnostic
}

// RuleInfo provides metadata about a rule for documentation/tooling.
type RuleInfo struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Group           string   `json:"group"`
	Description     string   `json:"description"`
	DefaultSeverity Severity `json:"default_severity"`
	ConfigKeys      []string `json:"config_keys,omitempty"`
	Type            string   `json:"type"` // "node" or "validator"

	Rationale   string `json:"rationale,omitempty"`
	BadExample  string `json:"bad_example,omitempty"`
	GoodExample string `json:"good_example,omitempty"`
	Fix         string `json:"fix,omitempty"`
	DocURL      string `json:"doc_url"`
}

// GetRuleInfo extracts metadata from a Rule for documentation/tooling.
func GetRuleInfo(r Rule) RuleInfo {
	info := RuleInfo{
		ID:              r.ID(),
		Name:            r.Name(),
		Group:           r.Group(),
		Description:     r.Description(),
		DefaultSeverity: r.DefaultSeverity(),
		ConfigKeys:      r.ConfigKeys(),
		Type:            "validator",
		Rationale:       r.Rationale(),
		BadExample:      r.BadExample(),
		GoodExample:     r.GoodExample(),
		Fix:             r.Fix(),
		DocURL:          BuildDocURL(r.ID()),
	}
	if nr, ok := r.(NodeRule); ok && len(nr.Kinds()) > 0 {
		info.Type = "node"
	}
	return info
}

// wrappedRuleDef wraps a RuleDef to implement NodeRule.
type wrappedRuleDef struct {
	def RuleDef
}

// WrapRuleDef wraps a RuleDef to implement the NodeRule interface.
func WrapRuleDef(def RuleDef) NodeRule {
	return &wrappedRuleDef{def: def}
}

func (w *wrappedRuleDef) ID() string                { return w.def.ID }
func (w *wrappedRuleDef) Name() string              { return w.def.Name }
func (w *wrappedRuleDef) Group() string             { return w.def.Group }
func (w *wrappedRuleDef) Description() string       { return w.def.Description }
func (w *wrappedRuleDef) DefaultSeverity() Severity { return w.def.Severity }
func (w *wrappedRuleDef) ConfigKeys() []string      { return w.def.ConfigKeys }
func (w *wrappedRuleDef) Kinds() []parser.NodeKind  { return w.def.Kinds }

// Documentation methods
func (w *wrappedRuleDef) Rationale() string   { return w.def.Rationale }
func (w *wrappedRuleDef) BadExample() string  { return w.def.BadExample }
func (w *wrappedRuleDef) GoodExample() string { return w.def.GoodExample }
func (w *wrappedRuleDef) Fix() string         { return w.def.Fix }

func (w *wrappedRuleDef) Check(node parser.Node, pass *Pass) []Diagnostic {
	if w.def.Check == nil {
		return nil
	}
	return w.def.Check(node, pass)
}

// Unwrap returns the underlying RuleDef.
func (w *wrappedRuleDef) Unwrap() RuleDef {
	return w.def
}
