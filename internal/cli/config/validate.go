package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/contractlint/internal/cli/output"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error
	if _, err := output.ParseMode(c.OutputFormat); err != nil {
		errs = append(errs, err)
	}
	if c.Jobs < 0 {
		errs = append(errs, fmt.Errorf("jobs must not be negative, got %d", c.Jobs))
	}
	if c.Cache.Size < 0 {
		errs = append(errs, fmt.Errorf("cache.size must not be negative, got %d", c.Cache.Size))
	}
	if c.Cache.Enabled && c.Cache.Path == "" {
		errs = append(errs, errors.New("cache.path is required when the cache is enabled"))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.DocsURL != "" && !strings.HasPrefix(c.DocsURL, "http://") && !strings.HasPrefix(c.DocsURL, "https://") {
		errs = append(errs, fmt.Errorf("docs_url must be an http(s) URL: %s", c.DocsURL))
	}
	for _, id := range c.Lint.Only {
		for _, d := range c.Lint.Disabled {
			if id == d {
				errs = append(errs, fmt.Errorf("rule %s is both selected and disabled", id))
			}
		}
	}
	return errors.Join(errs...)
}
