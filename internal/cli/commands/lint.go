package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/contractlint/internal/cache"
	"github.com/leapstack-labs/contractlint/internal/cli/output"
	"github.com/leapstack-labs/contractlint/pkg/check"
	"github.com/leapstack-labs/contractlint/pkg/lint"
)

// ErrLintFailed is returned when at least one contract fails linting.
var ErrLintFailed = errors.New("lint issues found")

// contractExt is the extension of contract source files.
const contractExt = ".py"

// NewLintCommand creates the lint command.
func NewLintCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lint [path...]",
		Short: "Lint contract source files",
		Long: `Analyze contracts for constructs the contract runtime rejects.

Directories are searched recursively for .py files. Each file is checked by
the export, orm, security and structure rules and by the syntax validator.
Rules can be configured in contractlint.yaml.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Lint every contract below the current directory
  contractlint lint

  # Lint specific files
  contractlint lint token.py exchange.py

  # Output as JSON
  contractlint lint --format json

  # Disable specific rules
  contractlint lint --disable UNUSED_IMPORT,UNUSED_VARIABLE

  # Only report errors
  contractlint lint --severity error

  # Reuse reports of unchanged files
  contractlint lint --cache`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"."}
			}
			return runLint(cmd, args)
		},
	}

	cmd.Flags().StringP("format", "f", "", "Output format: text, markdown, json")
	cmd.Flags().StringSlice("disable", nil, "Rule IDs to disable")
	cmd.Flags().String("severity", "hint", "Minimum severity: error, warning, info, hint")
	cmd.Flags().StringSlice("rule", nil, "Run only specific rules")
	cmd.Flags().IntP("jobs", "j", 0, "Files linted in parallel (default: number of CPUs)")
	cmd.Flags().String("policy", "", "Policy file (.yaml or .star)")
	cmd.Flags().Bool("cache", false, "Cache reports of unchanged files")
	cmd.Flags().String("cache-path", "", "Report cache database")

	return cmd
}

// lintFileResult holds lint results for a single file.
type lintFileResult struct {
	Path   string
	Report lint.Report
	Cached bool
}

func runLint(cmd *cobra.Command, paths []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	files, err := collectContracts(paths)
	if err != nil {
		return err
	}
	cc.Logger.Debug("collected contracts", "files", len(files))

	var store *cache.Store
	if cc.Cfg.Cache.Enabled {
		store, err = openStore(ctx, cc)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
	}

	results, err := lintFiles(ctx, cc, store, files)
	if err != nil {
		return err
	}
	for i := range results {
		results[i].Report = results[i].Report.Filter(cc.Cfg.Lint.MinSeverity)
	}

	if renderLintResults(cc.Renderer, results) {
		return ErrLintFailed
	}
	return nil
}

// collectContracts expands directories into the contract files below them.
// Files named explicitly are linted whatever their extension.
func collectContracts(paths []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("cannot lint %s: %w", root, err)
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				name := d.Name()
				if path != root && (strings.HasPrefix(name, ".") || name == "__pycache__") {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(path) == contractExt {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", root, err)
		}
	}
	slices.Sort(files)
	return files, nil
}

func openStore(ctx context.Context, cc *CommandContext) (*cache.Store, error) {
	path := cc.Cfg.Cache.Path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}
	return cache.Open(ctx, path, cc.Logger)
}

func lintFiles(ctx context.Context, cc *CommandContext, store *cache.Store, files []string) ([]lintFileResult, error) {
	jobs := cc.Cfg.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	results := make([]lintFileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := lintFile(gctx, cc, store, path)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func lintFile(ctx context.Context, cc *CommandContext, store *cache.Store, path string) (lintFileResult, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return lintFileResult{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	code := string(src)

	var contentHash string
	if store != nil {
		contentHash = check.Hash(code)
		report, ok, err := store.Get(ctx, contentHash, cc.ConfigHash)
		if err != nil {
			cc.Logger.Warn("cache lookup failed", "path", path, "error", err)
		} else if ok {
			return lintFileResult{Path: path, Report: report, Cached: true}, nil
		}
	}

	report := cc.Linter.Lint(code)
	cc.Logger.Debug("linted", "path", path, "diagnostics", len(report.Diagnostics), "pass", report.Pass)

	if store != nil {
		if err := store.Put(ctx, contentHash, cc.ConfigHash, report); err != nil {
			cc.Logger.Warn("cache write failed", "path", path, "error", err)
		}
	}
	return lintFileResult{Path: path, Report: report}, nil
}

func summarize(results []lintFileResult) output.LintSummary {
	summary := output.LintSummary{FilesAnalyzed: len(results)}
	for _, res := range results {
		if !res.Report.Pass {
			summary.FilesFailed++
		}
		summary.TotalIssues += len(res.Report.Diagnostics)
		summary.Errors += res.Report.Count(lint.SeverityError)
		summary.Warnings += res.Report.Count(lint.SeverityWarning)
		summary.Info += res.Report.Count(lint.SeverityInfo)
		summary.Hints += res.Report.Count(lint.SeverityHint)
	}
	return summary
}

// renderLintResults prints the results and reports whether any file failed.
func renderLintResults(r *output.Renderer, results []lintFileResult) bool {
	summary := summarize(results)
	failed := summary.FilesFailed > 0

	if r.EffectiveMode() == output.ModeJSON {
		jsonOutput := output.LintOutput{Summary: summary, Files: []output.LintFileResult{}}
		for _, res := range results {
			fileResult := output.LintFileResult{
				Path:        res.Path,
				Pass:        res.Report.Pass,
				Cached:      res.Cached,
				Diagnostics: []output.LintDiagnostic{},
			}
			for _, d := range res.Report.Diagnostics {
				fileResult.Diagnostics = append(fileResult.Diagnostics, output.LintDiagnostic{
					RuleID:   d.RuleID,
					Severity: d.Severity.String(),
					Message:  d.Message,
					Line:     d.Pos.Line,
					Column:   d.Pos.Column,
					DocURL:   d.DocumentationURL,
				})
			}
			jsonOutput.Files = append(jsonOutput.Files, fileResult)
		}
		_ = r.JSON(jsonOutput)
		return failed
	}

	if summary.TotalIssues == 0 {
		r.Success(fmt.Sprintf("No lint issues found in %d files", summary.FilesAnalyzed))
		return failed
	}

	markdown := r.EffectiveMode() == output.ModeMarkdown
	for _, res := range results {
		if len(res.Report.Diagnostics) == 0 {
			continue
		}
		if markdown {
			r.Printf("### %s\n\n", res.Path)
		} else {
			r.Println(r.Styles().FilePath.Render(res.Path))
		}
		for _, d := range res.Report.Diagnostics {
			loc := d.Pos.String()
			if markdown {
				r.Printf("- `%s` **%s** `%s` %s\n", loc, d.Severity, d.RuleID, d.Message)
				continue
			}
			r.Printf("  %s  %s  %s  %s\n",
				r.Styles().Muted.Render(fmt.Sprintf("%-7s", loc)),
				severityStyle(r, d.Severity),
				r.Styles().Bold.Render(d.RuleID),
				d.Message,
			)
		}
		r.Println("")
	}

	summaryParts := []string{fmt.Sprintf("%d issues", summary.TotalIssues)}
	if summary.Errors > 0 {
		summaryParts = append(summaryParts, fmt.Sprintf("%d errors", summary.Errors))
	}
	if summary.Warnings > 0 {
		summaryParts = append(summaryParts, fmt.Sprintf("%d warnings", summary.Warnings))
	}
	if summary.Info > 0 {
		summaryParts = append(summaryParts, fmt.Sprintf("%d info", summary.Info))
	}
	if summary.Hints > 0 {
		summaryParts = append(summaryParts, fmt.Sprintf("%d hints", summary.Hints))
	}
	r.Printf("Summary: %s in %d files\n", strings.Join(summaryParts, ", "), summary.FilesAnalyzed)

	return failed
}

func severityStyle(r *output.Renderer, sev lint.Severity) string {
	switch sev {
	case lint.SeverityError:
		return r.Styles().Error.Render("error  ")
	case lint.SeverityWarning:
		return r.Styles().Warning.Render("warning")
	case lint.SeverityInfo:
		return r.Styles().Info.Render("info   ")
	case lint.SeverityHint:
		return r.Styles().Muted.Render("hint   ")
	default:
		return r.Styles().Muted.Render("unknown")
	}
}
