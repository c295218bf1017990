package lint

import (
	"cmp"
	"encoding/json"
	"errors"
	"slices"

	"github.com/leapstack-labs/contractlint/pkg/parser"
	"github.com/leapstack-labs/contractlint/pkg/token"
)

// Report is the result of linting one source unit.
type Report struct {
	Pass        bool         `json:"pass"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

type dedupKey struct {
	line, column  int
	code, message string
}

// Aggregate merges diagnostic sets into a report: duplicates (same line,
// column, code and message) are dropped, the rest are ordered by line,
// column, code and message, and the report passes when no diagnostic is an
// error.
func Aggregate(sets ...[]Diagnostic) Report {
	seen := make(map[dedupKey]bool)
	out := make([]Diagnostic, 0)
	for _, set := range sets {
		for _, d := range set {
			k := dedupKey{d.Pos.Line, d.Pos.Column, d.RuleID, d.Message}
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, d)
		}
	}
	slices.SortStableFunc(out, compareDiagnostics)
	return Report{Pass: !hasErrors(out), Diagnostics: out}
}

func compareDiagnostics(a, b Diagnostic) int {
	if c := cmp.Compare(a.Pos.Line, b.Pos.Line); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Pos.Column, b.Pos.Column); c != 0 {
		return c
	}
	if c := cmp.Compare(a.RuleID, b.RuleID); c != 0 {
		return c
	}
	return cmp.Compare(a.Message, b.Message)
}

func hasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ParseErrorReport converts a parse failure into a report holding a single
// PARSE_ERROR diagnostic.
func ParseErrorReport(err error) Report {
	d := Diagnostic{
		RuleID:           CodeParseError,
		Severity:         SeverityError,
		Message:          err.Error(),
		Pos:              token.Position{Line: 1, Column: 1},
		Source:           SourceParser,
		DocumentationURL: BuildDocURL(CodeParseError),
	}
	var perr *parser.Error
	if errors.As(err, &perr) {
		d.Message = perr.Msg
		if perr.Pos.IsValid() {
			d.Pos = perr.Pos
		}
	}
	return Aggregate([]Diagnostic{d})
}

// Count returns the number of diagnostics with the given severity.
func (r Report) Count(sev Severity) int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Severity == sev {
			n++
		}
	}
	return n
}

// Filter returns a report keeping only diagnostics at least as severe as min.
func (r Report) Filter(min Severity) Report {
	out := make([]Diagnostic, 0, len(r.Diagnostics))
	for _, d := range r.Diagnostics {
		if d.Severity.AtLeast(min) {
			out = append(out, d)
		}
	}
	return Report{Pass: !hasErrors(out), Diagnostics: out}
}

// JSON encodes the report.
func (r Report) JSON() ([]byte, error) {
	if r.Diagnostics == nil {
		r.Diagnostics = []Diagnostic{}
	}
	return json.Marshal(r)
}
