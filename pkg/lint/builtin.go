package lint

// Codes produced by the framework itself rather than by a rule.
const (
	CodeParseError    = "PARSE_ERROR"
	CodeInternalError = "INTERNAL_ERROR"
)

func init() {
	Register(RuleDef{
		ID:          CodeParseError,
		Name:        "engine.parse_error",
		Group:       "engine",
		Description: "The source could not be parsed; no other checks run.",
		Severity:    SeverityError,
		Rationale:   "Rules and the syntax validator operate on the syntax tree, so a source that does not parse cannot be analyzed further.",
		Fix:         "Fix the syntax error at the reported position.",
	})
	Register(RuleDef{
		ID:          CodeInternalError,
		Name:        "engine.internal_error",
		Group:       "engine",
		Description: "A rule failed while analyzing the source.",
		Severity:    SeverityError,
		Rationale:   "A failing rule must not silently pass a contract, so its failure is reported as an error.",
	})
}
