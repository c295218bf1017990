// Package check is the syntax validator: a pyflakes-style scope analysis
// that reports undefined and unused names, plus a handful of structural
// checks on statements and literals.
//
// Runtime-provided globals, markers and storage constructors come from the
// lint policy and are never reported as undefined.
package check

import (
	"cmp"
	"log/slog"
	"slices"

	"github.com/leapstack-labs/contractlint/pkg/lint"
	"github.com/leapstack-labs/contractlint/pkg/lint/policy"
	"github.com/leapstack-labs/contractlint/pkg/parser"
)

// Check runs every validator check over mod. A nil policy means
// policy.Default(). The result is ordered by position.
func Check(mod *parser.Module, pol *policy.Policy) []lint.Diagnostic {
	if pol == nil {
		pol = policy.Default()
	}
	diags := make([]lint.Diagnostic, 0)
	if mod == nil {
		return diags
	}

	a := newAnalyzer(pol)
	a.run(mod)
	diags = append(diags, a.report()...)

	flow := &flowVisitor{}
	parser.Walk(flow, mod)
	diags = append(diags, flow.diags...)

	slices.SortStableFunc(diags, func(x, y lint.Diagnostic) int {
		if c := cmp.Compare(x.Pos.Line, y.Pos.Line); c != 0 {
			return c
		}
		if c := cmp.Compare(x.Pos.Column, y.Pos.Column); c != 0 {
			return c
		}
		return cmp.Compare(x.RuleID, y.RuleID)
	})
	return diags
}

func newDiagnostic(code string, n parser.Node, msg string) lint.Diagnostic {
	d := lint.NewDiagnostic(code, n, msg)
	d.Severity = severityOf(code)
	d.Source = lint.SourceCheck
	d.DocumentationURL = lint.BuildDocURL(code)
	return d
}

// Validator runs Check with an optional result cache.
type Validator struct {
	policy *policy.Policy
	cache  *Cache
	logger *slog.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithCache reuses results for identical source text.
func WithCache(c *Cache) Option {
	return func(v *Validator) { v.cache = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(v *Validator) { v.logger = l }
}

// New creates a validator for pol (nil means policy.Default()).
func New(pol *policy.Policy, opts ...Option) *Validator {
	if pol == nil {
		pol = policy.Default()
	}
	v := &Validator{policy: pol, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks mod, the parsed form of src. With a cache, results are
// keyed by the hash of src.
func (v *Validator) Validate(mod *parser.Module, src string) []lint.Diagnostic {
	if v.cache == nil {
		return Check(mod, v.policy)
	}
	key := Hash(src)
	if diags, ok := v.cache.Get(key); ok {
		v.logger.Debug("validator cache hit", "hash", key[:12])
		return diags
	}
	diags := Check(mod, v.policy)
	v.cache.Add(key, diags)
	return slices.Clone(diags)
}
