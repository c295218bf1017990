package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/contractlint/internal/cli"
	"github.com/leapstack-labs/contractlint/internal/cli/config"
)

// configKey documents one key of contractlint.yaml.
type configKey struct {
	Key     string
	Default string
	Desc    string
}

func configKeys() []configKey {
	def := config.Default()
	return []configKey{
		{"output", def.OutputFormat, "Output format: auto, text, markdown or json"},
		{"policy", "", "Policy tables (.yaml, .yml, .star or .bzl)"},
		{"jobs", "0", "Files linted in parallel; 0 uses one per CPU"},
		{"docs_url", "", "Base URL of rule documentation links"},
		{"cache.enabled", strconv.FormatBool(def.Cache.Enabled), "Reuse reports of unchanged contracts"},
		{"cache.path", def.Cache.Path, "Report cache database, or :memory:"},
		{"cache.size", strconv.Itoa(def.Cache.Size), "Entries of the in-process validator cache"},
		{"server.port", strconv.Itoa(def.Server.Port), "Port of the serve command"},
		{"lint.disabled", "", "Rule codes never reported"},
		{"lint.only", "", "When set, the only rule codes reported"},
		{"lint.min_severity", def.Lint.MinSeverity.String(), "Lowest severity printed"},
	}
}

// envName returns the environment variable the loader maps onto key.
func envName(key string) string {
	return config.EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "__"))
}

const sampleConfig = `output: text
policy: policy.star
cache:
  enabled: true
lint:
  disabled: [SYNTAX_NESTED_FUNCTION]
  severity:
    UNUSED_IMPORT: error
  rules:
    EXPORT_UNKNOWN_DECORATOR:
      allowed_decorators: [view]`

// generateCLIDocs writes an overview page and one page per command.
func generateCLIDocs(outDir string) error {
	log.Printf("Generating CLI docs to %s", outDir)
	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	root := cli.NewRootCmd()
	pages := map[string][]byte{"index.md": cliIndex(root)}
	for _, cmd := range documented(root) {
		pages[cmd.Name()+".md"] = commandPage(cmd)
	}
	for name, content := range pages {
		if err := os.WriteFile(filepath.Join(outDir, name), content, 0600); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		log.Printf("  Generated %s", name)
	}
	return nil
}

func documented(root *cobra.Command) []*cobra.Command {
	var cmds []*cobra.Command
	for _, cmd := range root.Commands() {
		if cmd.Hidden || cmd.Name() == "help" || cmd.Name() == "__complete" {
			continue
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}

func cliIndex(root *cobra.Command) []byte {
	w := NewMarkdownWriter()
	w.Frontmatter("CLI Reference", "Command-line interface reference for contractlint")
	w.GeneratedMarker()

	w.Header(1, "CLI Reference")
	w.Paragraph("contractlint lints smart contracts from the command line, re-lints them on change, serves the linter over HTTP and documents its rules.")
	w.Header(2, "Installation")
	w.CodeBlock("bash", "go install github.com/leapstack-labs/contractlint/cmd/contractlint@latest")

	w.Header(2, "Commands")
	var rows [][]string
	for _, cmd := range documented(root) {
		link := fmt.Sprintf("[%s](/cli/%s)", InlineCode(cmd.Name()), cmd.Name())
		rows = append(rows, []string{link, cleanDescription(cmd.Short)})
	}
	w.Table([]string{"Command", "Description"}, rows)

	w.Header(2, "Global Options")
	w.Table(flagHeaders, flagRows(root.PersistentFlags()))

	w.Header(2, "Configuration")
	w.Paragraph(fmt.Sprintf("Settings are read from %s, searched upward from the working directory, or from the file given with %s. Every key can also be set from the environment; nested keys are joined by a double underscore.",
		InlineCode("contractlint.yaml"), InlineCode("--config")))
	rows = nil
	for _, k := range configKeys() {
		def := ""
		if k.Default != "" {
			def = InlineCode(k.Default)
		}
		rows = append(rows, []string{InlineCode(k.Key), InlineCode(envName(k.Key)), def, k.Desc})
	}
	w.Table([]string{"Key", "Environment", "Default", "Description"}, rows)
	w.CodeBlock("yaml", sampleConfig)
	w.Paragraph("Flags take precedence over environment variables, which take precedence over the config file.")

	w.Header(2, "Exit Codes")
	w.Table([]string{"Code", "Meaning"}, [][]string{
		{InlineCode("0"), "No contract has an error-severity diagnostic"},
		{InlineCode("1"), "A contract has errors, or the command failed (see stderr)"},
	})
	return w.Bytes()
}

func commandPage(cmd *cobra.Command) []byte {
	w := NewMarkdownWriter()
	w.Frontmatter(cmd.Name(), cmd.Short)
	w.GeneratedMarker()

	w.Header(1, cmd.Name())
	if cmd.Long != "" {
		w.Paragraph(cmd.Long)
	} else {
		w.Paragraph(cmd.Short)
	}

	w.Header(2, "Usage")
	use := cmd.UseLine()
	if !strings.HasPrefix(use, "contractlint") {
		use = "contractlint " + use
	}
	w.CodeBlock("bash", use)

	if len(cmd.Aliases) > 0 {
		w.Header(2, "Aliases")
		aliases := make([]string, len(cmd.Aliases))
		for i, a := range cmd.Aliases {
			aliases[i] = InlineCode(a)
		}
		w.BulletList(aliases)
	}
	if cmd.HasLocalFlags() {
		w.Header(2, "Options")
		w.Table(flagHeaders, flagRows(cmd.LocalFlags()))
	}
	if cmd.HasInheritedFlags() {
		w.Header(2, "Global Options")
		w.Table(flagHeaders, flagRows(cmd.InheritedFlags()))
	}
	if cmd.Example != "" {
		w.Header(2, "Examples")
		w.CodeBlock("bash", cleanExample(cmd.Example))
	}
	return w.Bytes()
}

var flagHeaders = []string{"Option", "Short", "Default", "Description"}

func flagRows(flags *pflag.FlagSet) [][]string {
	var rows [][]string
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		short := ""
		if f.Shorthand != "" {
			short = "-" + f.Shorthand
		}
		def := f.DefValue
		if f.Value.Type() == "string" && def != "" {
			def = InlineCode(def)
		}
		rows = append(rows, []string{InlineCode("--" + f.Name), short, def, cleanDescription(f.Usage)})
	})
	return rows
}

// cleanExample strips the indentation shared by all non-blank lines.
func cleanExample(example string) string {
	lines := strings.Split(example, "\n")
	indent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if indent == -1 || n < indent {
			indent = n
		}
	}
	if indent <= 0 {
		return strings.TrimSpace(example)
	}
	for i, line := range lines {
		if len(line) >= indent {
			lines[i] = line[indent:]
		} else {
			lines[i] = strings.TrimLeft(line, " \t")
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
