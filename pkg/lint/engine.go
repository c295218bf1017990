package lint

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/contractlint/pkg/lint/classify"
	"github.com/leapstack-labs/contractlint/pkg/lint/policy"
	"github.com/leapstack-labs/contractlint/pkg/parser"
	"github.com/leapstack-labs/contractlint/pkg/token"
)

// Engine runs node rules over a syntax tree in a single traversal.
type Engine struct {
	config *Config
	policy *policy.Policy
	logger *slog.Logger
	rules  []NodeRule
	byKind [][]NodeRule
}

// NewEngine creates an engine for the enabled rules among rules, or among
// all registered rules when none are given. Nil arguments select defaults.
func NewEngine(config *Config, pol *policy.Policy, logger *slog.Logger, rules ...Rule) *Engine {
	if config == nil {
		config = NewConfig()
	}
	if pol == nil {
		pol = policy.Default()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if len(rules) == 0 {
		rules = GetAll()
	}

	e := &Engine{
		config: config,
		policy: pol,
		logger: logger,
		byKind: make([][]NodeRule, parser.NumKinds()),
	}
	for _, r := range rules {
		nr, ok := r.(NodeRule)
		if !ok || len(nr.Kinds()) == 0 || config.IsDisabled(r.ID()) {
			continue
		}
		e.rules = append(e.rules, nr)
		for _, k := range nr.Kinds() {
			if int(k) > 0 && int(k) < len(e.byKind) {
				e.byKind[k] = append(e.byKind[k], nr)
			}
		}
	}
	return e
}

// Rules returns the rules the engine dispatches to.
func (e *Engine) Rules() []NodeRule {
	return e.rules
}

// Policy returns the policy tables the engine classifies against.
func (e *Engine) Policy() *policy.Policy {
	return e.policy
}

// Run classifies mod and dispatches every node to the rules subscribed to
// its kind. A panicking rule is reported as INTERNAL_ERROR instead of
// aborting the run.
func (e *Engine) Run(mod *parser.Module, src string) (diags []Diagnostic) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("lint engine failed", "panic", r)
			diags = append(diags, internalError(fmt.Sprintf("lint engine failed: %v", r)))
		}
	}()

	info := classify.Classify(mod, e.policy)
	w := &walker{
		engine: e,
		pass: &Pass{
			Module: mod,
			Source: src,
			Policy: e.policy,
			Info:   info,
		},
	}
	parser.Walk(w, mod)

	e.logger.Debug("lint rules finished",
		"rules", len(e.rules),
		"declarations", len(info.Declarations),
		"diagnostics", len(w.diags))
	return w.diags
}

type walker struct {
	engine *Engine
	pass   *Pass
	diags  []Diagnostic
}

func (w *walker) Visit(n parser.Node) parser.Visitor {
	if n == nil {
		w.pass.stack = w.pass.stack[:len(w.pass.stack)-1]
		return nil
	}
	if k := int(n.Kind()); k > 0 && k < len(w.engine.byKind) {
		for _, r := range w.engine.byKind[k] {
			w.diags = append(w.diags, w.engine.check(r, n, w.pass)...)
		}
	}
	w.pass.stack = append(w.pass.stack, n)
	return w
}

func (e *Engine) check(r NodeRule, n parser.Node, pass *Pass) (diags []Diagnostic) {
	defer func() {
		if rec := recover(); rec != nil {
			e.logger.Error("lint rule panicked", "rule", r.ID(), "node", n.Kind().String(), "pos", n.Pos().String(), "panic", rec)
			diags = []Diagnostic{internalError(fmt.Sprintf("rule %s failed: %v", r.ID(), rec))}
		}
	}()

	pass.Options = e.config.GetRuleOptions(r.ID())
	diags = r.Check(n, pass)
	for i := range diags {
		if diags[i].RuleID == "" {
			diags[i].RuleID = r.ID()
		}
		diags[i].Severity = e.config.GetSeverity(diags[i].RuleID, r.DefaultSeverity())
		diags[i].Source = SourceRule
		diags[i].DocumentationURL = BuildDocURL(diags[i].RuleID)
	}
	return diags
}

func internalError(msg string) Diagnostic {
	return Diagnostic{
		RuleID:           CodeInternalError,
		Severity:         SeverityError,
		Message:          msg,
		Pos:              token.Position{Line: 1, Column: 1},
		Source:           SourceEngine,
		DocumentationURL: BuildDocURL(CodeInternalError),
	}
}
