package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	_ "github.com/leapstack-labs/contractlint/pkg/check" // register validator checks
	"github.com/leapstack-labs/contractlint/pkg/lint"
	_ "github.com/leapstack-labs/contractlint/pkg/lint/rules" // register rules
)

// groupDescriptions provides human-readable descriptions for rule groups.
var groupDescriptions = map[string]string{
	"export":    "Rules about the @export and @construct markers on entry points and constructors.",
	"orm":       "Rules about declaring and using persistent storage handles.",
	"security":  "Rules rejecting imports, calls and attribute access outside the sandbox.",
	"structure": "Rules about language constructs the contract runtime does not accept.",
	"check":     "Generic checks of the syntax validator, such as undefined names and unused imports.",
	"engine":    "Diagnostics emitted when a contract cannot be parsed or analysis fails.",
}

var titleCaser = cases.Title(language.English)

// generateLintDocs writes an index page and one page per rule group.
func generateLintDocs(outDir string) error {
	log.Printf("Generating lint docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	groups := lint.Groups()
	if err := generateLintIndex(outDir, groups); err != nil {
		return err
	}
	log.Printf("  Generated index.md")

	for _, group := range groups {
		if err := generateGroupPage(outDir, group, lint.GetByGroup(group)); err != nil {
			return err
		}
		log.Printf("  Generated %s.md", group)
	}
	return nil
}

func generateLintIndex(outDir string, groups []string) error {
	w := NewMarkdownWriter()

	w.Frontmatter("Rules", "Lint rules of contractlint")
	w.GeneratedMarker()

	w.Header(1, "Rules")
	w.Paragraph(fmt.Sprintf("contractlint ships **%d rules** in %d groups.", lint.Count(), len(groups)))

	w.Header(2, "Severity Levels")
	w.Table(
		[]string{"Severity", "Description"},
		[][]string{
			{InlineCode("error"), "The contract runtime rejects the contract; the report fails"},
			{InlineCode("warning"), "Potential issue that should be reviewed"},
			{InlineCode("info"), "Informational feedback"},
			{InlineCode("hint"), "Suggestion for improvement"},
		},
	)

	w.Header(2, "Configuration")
	w.Paragraph("Rules can be configured in `contractlint.yaml`:")
	w.CodeBlock("yaml", `lint:
  disabled: [UNUSED_VARIABLE]
  severity:
    UNUSED_IMPORT: error
  rules:
    EXPORT_UNKNOWN_DECORATOR:
      allowed_decorators: [view]`)

	w.Header(2, "Groups")
	var rows [][]string
	for _, g := range groups {
		rows = append(rows, []string{
			fmt.Sprintf("[%s](/rules/%s)", titleCaser.String(g), g),
			fmt.Sprintf("%d", len(lint.GetByGroup(g))),
			groupDescriptions[g],
		})
	}
	w.Table([]string{"Group", "Rules", "Description"}, rows)

	return os.WriteFile(filepath.Join(outDir, "index.md"), w.Bytes(), 0600)
}

func generateGroupPage(outDir, group string, rules []lint.Rule) error {
	w := NewMarkdownWriter()
	title := titleCaser.String(group) + " Rules"

	w.Frontmatter(title, groupDescriptions[group])
	w.GeneratedMarker()

	w.Header(1, title)
	if desc, ok := groupDescriptions[group]; ok {
		w.Paragraph(desc)
	}
	for _, rule := range rules {
		writeRuleDoc(w, lint.GetRuleInfo(rule))
	}

	return os.WriteFile(filepath.Join(outDir, group+".md"), w.Bytes(), 0600)
}

// writeRuleDoc writes detailed documentation for a single rule.
func writeRuleDoc(w *MarkdownWriter, rule lint.RuleInfo) {
	// ### EXPORT_NESTED - export.nested {#export_nested}
	w.Line(fmt.Sprintf("### %s - %s {#%s}", rule.ID, rule.Name, strings.ToLower(rule.ID)))
	w.Newline()

	w.Line(fmt.Sprintf("**Severity:** %s", InlineCode(rule.DefaultSeverity.String())))
	w.Newline()

	w.Paragraph(cleanDescription(rule.Description))

	if rule.Rationale != "" {
		w.Header(4, "Why This Matters")
		w.Paragraph(strings.TrimSpace(rule.Rationale))
	}
	if rule.BadExample != "" {
		w.Header(4, "Bad")
		w.CodeBlock("python", rule.BadExample)
	}
	if rule.GoodExample != "" {
		w.Header(4, "Good")
		w.CodeBlock("python", rule.GoodExample)
	}
	if rule.Fix != "" {
		w.Header(4, "How to Fix")
		w.Paragraph(strings.TrimSpace(rule.Fix))
	}
	if len(rule.ConfigKeys) > 0 {
		w.Header(4, "Configuration")
		w.Paragraph(fmt.Sprintf("This rule accepts the following configuration options: %s",
			InlineCode(strings.Join(rule.ConfigKeys, ", "))))
	}

	w.Line("---")
	w.Newline()
}
