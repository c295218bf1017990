// Package config loads the contractlint CLI configuration.
//
// Values are layered, lowest precedence first: built-in defaults, the
// contractlint.yaml project file, CONTRACTLINT_* environment variables and
// command-line flags.
package config

import (
	"strings"

	"github.com/leapstack-labs/contractlint/pkg/lint"
)

// Default values.
const (
	DefaultOutput    = "auto"
	DefaultCachePath = ".contractlint/cache.db"
	DefaultCacheSize = 1024
	DefaultPort      = 8787
)

// Config is the CLI configuration.
type Config struct {
	Verbose      bool         `koanf:"verbose"`
	OutputFormat string       `koanf:"output"`
	Policy       string       `koanf:"policy"`
	Jobs         int          `koanf:"jobs"`
	DocsURL      string       `koanf:"docs_url"`
	Cache        CacheConfig  `koanf:"cache"`
	Server       ServerConfig `koanf:"server"`
	Lint         LintConfig   `koanf:"lint"`

	// ProjectRoot is the directory holding the config file, or the working
	// directory when none was found.
	ProjectRoot string `koanf:"-"`
}

// CacheConfig controls report caching.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
	// Size bounds the in-process validator cache.
	Size int `koanf:"size"`
}

// ServerConfig holds settings for the serve command.
type ServerConfig struct {
	Port int `koanf:"port"`
}

// LintConfig selects rules and their severities.
type LintConfig struct {
	Disabled    []string                  `koanf:"disabled"`
	Only        []string                  `koanf:"only"`
	Severity    map[string]lint.Severity  `koanf:"severity"`
	MinSeverity lint.Severity             `koanf:"min_severity"`
	Rules       map[string]map[string]any `koanf:"rules"`
}

// RuleConfig converts the lint section into a rule configuration. Rule
// codes are upper-cased since environment keys arrive lower-case.
func (c *Config) RuleConfig() *lint.Config {
	cfg := lint.NewConfig()
	for _, id := range c.Lint.Disabled {
		cfg.Disable(strings.ToUpper(id))
	}
	if len(c.Lint.Only) > 0 {
		only := make([]string, len(c.Lint.Only))
		for i, id := range c.Lint.Only {
			only[i] = strings.ToUpper(id)
		}
		cfg.Only(only...)
	}
	for id, sev := range c.Lint.Severity {
		cfg.SetSeverity(strings.ToUpper(id), sev)
	}
	for id, opts := range c.Lint.Rules {
		cfg.SetRuleOptions(strings.ToUpper(id), opts)
	}
	return cfg
}

// Default returns the configuration used when nothing was loaded.
func Default() *Config {
	return &Config{
		OutputFormat: DefaultOutput,
		Cache:        CacheConfig{Path: DefaultCachePath, Size: DefaultCacheSize},
		Server:       ServerConfig{Port: DefaultPort},
		Lint:         LintConfig{MinSeverity: lint.SeverityHint},
	}
}
