// Package contractlint statically analyzes smart contracts written in a
// constrained Python-like language.
//
// A source unit is parsed once; the rule engine and the syntax validator
// then run independently over the tree and their diagnostics are merged
// into a single ordered Report:
//
//	report := contractlint.Lint(src)
//	if !report.Pass {
//		for _, d := range report.Diagnostics {
//			fmt.Println(d)
//		}
//	}
//
// Use New to lint with a custom rule configuration, policy tables or a
// validator cache.
package contractlint

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/leapstack-labs/contractlint/pkg/check"
	"github.com/leapstack-labs/contractlint/pkg/lint"
	"github.com/leapstack-labs/contractlint/pkg/lint/policy"
	_ "github.com/leapstack-labs/contractlint/pkg/lint/rules" // register rules
	"github.com/leapstack-labs/contractlint/pkg/parser"
	"github.com/leapstack-labs/contractlint/pkg/token"
)

// Linter lints source units with a fixed configuration. It is safe for
// concurrent use.
type Linter struct {
	config    *lint.Config
	policy    *policy.Policy
	cache     *check.Cache
	logger    *slog.Logger
	engine    *lint.Engine
	validator *check.Validator
}

// Option configures a Linter.
type Option func(*Linter)

// WithConfig sets the rule configuration.
func WithConfig(cfg *lint.Config) Option {
	return func(l *Linter) { l.config = cfg }
}

// WithPolicy sets the policy tables rules and validator consult.
func WithPolicy(pol *policy.Policy) Option {
	return func(l *Linter) { l.policy = pol }
}

// WithCache reuses validator results for identical sources.
func WithCache(c *check.Cache) Option {
	return func(l *Linter) { l.cache = c }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Linter) { l.logger = logger }
}

// New creates a linter. It fails when the configuration names rule codes
// that are not registered.
func New(opts ...Option) (*Linter, error) {
	l := &Linter{
		config: lint.NewConfig(),
		policy: policy.Default(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(l)
	}
	if err := validateConfig(l.config); err != nil {
		return nil, err
	}

	l.engine = lint.NewEngine(l.config, l.policy, l.logger)
	vopts := []check.Option{check.WithLogger(l.logger)}
	if l.cache != nil {
		vopts = append(vopts, check.WithCache(l.cache))
	}
	l.validator = check.New(l.policy, vopts...)
	return l, nil
}

func validateConfig(cfg *lint.Config) error {
	var unknown []string
	note := func(id string) {
		if _, ok := lint.GetByID(id); !ok && !slices.Contains(unknown, id) {
			unknown = append(unknown, id)
		}
	}
	for id := range cfg.DisabledRules {
		note(id)
	}
	for id := range cfg.EnabledRules {
		note(id)
	}
	for id := range cfg.SeverityOverrides {
		note(id)
	}
	for id := range cfg.RuleOptions {
		note(id)
	}
	if len(unknown) == 0 {
		return nil
	}
	slices.Sort(unknown)
	return fmt.Errorf("unknown rule codes: %s", strings.Join(unknown, ", "))
}

var defaultLinter *Linter

func init() {
	l, err := New()
	if err != nil {
		panic(err)
	}
	defaultLinter = l
}

// Lint analyzes source with the default configuration and policy.
func Lint(source string) lint.Report {
	return defaultLinter.Lint(source)
}

// Lint analyzes source. A source that does not parse yields a report
// holding a single PARSE_ERROR.
func (l *Linter) Lint(source string) lint.Report {
	mod, err := parser.Parse(source)
	if err != nil {
		l.logger.Debug("parse failed", "error", err)
		return lint.ParseErrorReport(err)
	}

	ruleDiags := l.engine.Run(mod, source)
	checkDiags := l.config.Apply(l.validate(mod, source))
	report := lint.Aggregate(ruleDiags, checkDiags)

	l.logger.Debug("lint finished",
		"rules", len(ruleDiags),
		"checks", len(checkDiags),
		"diagnostics", len(report.Diagnostics),
		"pass", report.Pass)
	return report
}

func (l *Linter) validate(mod *parser.Module, source string) (diags []lint.Diagnostic) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("syntax validator panicked", "panic", r)
			diags = []lint.Diagnostic{{
				RuleID:           lint.CodeInternalError,
				Severity:         lint.SeverityError,
				Message:          fmt.Sprintf("syntax validator failed: %v", r),
				Pos:              token.Position{Line: 1, Column: 1},
				Source:           lint.SourceEngine,
				DocumentationURL: lint.BuildDocURL(lint.CodeInternalError),
			}}
		}
	}()
	return l.validator.Validate(mod, source)
}

// Config returns the rule configuration of the linter.
func (l *Linter) Config() *lint.Config {
	return l.config
}

// Policy returns the policy tables of the linter.
func (l *Linter) Policy() *policy.Policy {
	return l.policy
}
