package lint

import (
	"encoding/json"

	"github.com/leapstack-labs/contractlint/pkg/parser"
	"github.com/leapstack-labs/contractlint/pkg/token"
)

// =============================================================================
// Rule Definitions
// =============================================================================

// RuleDef is a data-driven rule definition. Rules are stateless; all context
// comes via the Check function parameters.
type RuleDef struct {
	ID          string            // Unique identifier, e.g., "EXPORT_NESTED"
	Name        string            // Human-readable name, e.g., "export.nested"
	Group       string            // Category, e.g., "export", "orm", "security"
	Description string            // Human-readable description
	Severity    Severity          // Default severity
	Kinds       []parser.NodeKind // Node kinds the check subscribes to
	Check       CheckFunc         // The check function; nil for metadata-only entries
	ConfigKeys  []string          // Configuration keys this rule accepts

	// Documentation fields for richer rule documentation
	Rationale   string // Why this rule exists, what problems it prevents
	BadExample  string // Code showing the anti-pattern
	GoodExample string // Code showing the correct pattern
	Fix         string // How to fix violations (when not obvious)
}

// CheckFunc inspects one node and returns diagnostics. Severity and
// documentation fields are filled in by the engine.
type CheckFunc func(node parser.Node, pass *Pass) []Diagnostic

// =============================================================================
// Diagnostics
// =============================================================================

// Diagnostic sources.
const (
	SourceRule   = "rule"
	SourceCheck  = "check"
	SourceParser = "parser"
	SourceEngine = "engine"
)

// Diagnostic represents a lint finding.
type Diagnostic struct {
	RuleID   string
	Severity Severity
	Message  string
	Pos      token.Position
	EndPos   token.Position // Optional: end of the problematic range
	Source   string

	DocumentationURL string
}

// NewDiagnostic builds a diagnostic spanning node.
func NewDiagnostic(ruleID string, node parser.Node, message string) Diagnostic {
	return Diagnostic{RuleID: ruleID, Message: message, Pos: node.Pos(), EndPos: node.End()}
}

// diagnosticJSON is the wire form of a Diagnostic.
type diagnosticJSON struct {
	Severity  Severity `json:"severity"`
	Code      string   `json:"code"`
	Message   string   `json:"message"`
	Line      int      `json:"line"`
	Column    int      `json:"column"`
	EndLine   int      `json:"end_line,omitempty"`
	EndColumn int      `json:"end_column,omitempty"`
	Source    string   `json:"source,omitempty"`
	DocURL    string   `json:"doc_url,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (d Diagnostic) MarshalJSON() ([]byte, error) {
	return json.Marshal(diagnosticJSON{
		Severity:  d.Severity,
		Code:      d.RuleID,
		Message:   d.Message,
		Line:      d.Pos.Line,
		Column:    d.Pos.Column,
		EndLine:   d.EndPos.Line,
		EndColumn: d.EndPos.Column,
		Source:    d.Source,
		DocURL:    d.DocumentationURL,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Diagnostic) UnmarshalJSON(data []byte) error {
	var w diagnosticJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*d = Diagnostic{
		RuleID:           w.Code,
		Severity:         w.Severity,
		Message:          w.Message,
		Pos:              token.Position{Line: w.Line, Column: w.Column},
		EndPos:           token.Position{Line: w.EndLine, Column: w.EndColumn},
		Source:           w.Source,
		DocumentationURL: w.DocURL,
	}
	return nil
}
