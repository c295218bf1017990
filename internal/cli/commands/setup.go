package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/contractlint"
	"github.com/leapstack-labs/contractlint/internal/cli/config"
	"github.com/leapstack-labs/contractlint/internal/cli/output"
	"github.com/leapstack-labs/contractlint/pkg/check"
	"github.com/leapstack-labs/contractlint/pkg/lint"
	"github.com/leapstack-labs/contractlint/pkg/lint/policy"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Linter   *contractlint.Linter
	Renderer *output.Renderer

	// ConfigHash identifies the rule configuration and policy, so cached
	// reports are only reused under identical settings.
	ConfigHash string
}

// NewCommandContext creates a CommandContext with a linter built from the
// loaded configuration.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cc := NewCommandContextWithoutLinter(cmd)

	l, hash, err := createLinter(cc.Cfg, cc.Logger)
	if err != nil {
		return nil, err
	}
	cc.Linter = l
	cc.ConfigHash = hash
	return cc, nil
}

// NewCommandContextWithoutLinter creates a CommandContext for commands that
// only need configuration and output.
func NewCommandContextWithoutLinter(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode, err := output.ParseMode(cfg.OutputFormat)
	if err != nil {
		mode = output.ModeAuto
	}
	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode),
	}
}

// getConfig returns the current configuration, or the defaults when the
// command runs without the root command's config loading.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}

func createLinter(cfg *config.Config, logger *slog.Logger) (*contractlint.Linter, string, error) {
	if cfg.DocsURL != "" {
		lint.SetDocsBaseURL(cfg.DocsURL)
	}

	pol := policy.Default()
	var policySrc []byte
	if cfg.Policy != "" {
		var err error
		if policySrc, err = os.ReadFile(cfg.Policy); err != nil {
			return nil, "", fmt.Errorf("failed to read policy: %w", err)
		}
		if pol, err = policy.LoadFile(cfg.Policy); err != nil {
			return nil, "", err
		}
		logger.Debug("loaded policy", "path", cfg.Policy)
	}

	opts := []contractlint.Option{
		contractlint.WithConfig(cfg.RuleConfig()),
		contractlint.WithPolicy(pol),
		contractlint.WithLogger(logger),
	}
	if cfg.Cache.Size > 0 {
		c, err := check.NewCache(cfg.Cache.Size)
		if err != nil {
			return nil, "", err
		}
		opts = append(opts, contractlint.WithCache(c))
	}

	l, err := contractlint.New(opts...)
	if err != nil {
		return nil, "", err
	}

	hash, err := configHash(cfg, policySrc)
	if err != nil {
		return nil, "", err
	}
	return l, hash, nil
}

func configHash(cfg *config.Config, policySrc []byte) (string, error) {
	data, err := json.Marshal(struct {
		Lint    config.LintConfig `json:"lint"`
		DocsURL string            `json:"docs_url"`
		Policy  string            `json:"policy"`
	}{cfg.Lint, cfg.DocsURL, string(policySrc)})
	if err != nil {
		return "", fmt.Errorf("failed to hash config: %w", err)
	}
	return check.Hash(string(data)), nil
}
