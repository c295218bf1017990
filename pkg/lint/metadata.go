package lint

import (
	"fmt"
	"strings"
	"sync"
)

// DefaultDocsBaseURL is the hosted documentation site.
const DefaultDocsBaseURL = "https://contractlint.dev/rules"

var (
	docsMu      sync.RWMutex
	docsBaseURL = DefaultDocsBaseURL
)

// BuildDocURL constructs a documentation URL for a rule.
func BuildDocURL(ruleID string) string {
	docsMu.RLock()
	defer docsMu.RUnlock()
	return fmt.Sprintf("%s/%s", docsBaseURL, strings.ToLower(ruleID))
}

// SetDocsBaseURL overrides the default documentation base URL.
// Useful for offline mode or self-hosted documentation.
func SetDocsBaseURL(url string) {
	docsMu.Lock()
	defer docsMu.Unlock()
	docsBaseURL = strings.TrimSuffix(url, "/")
}

// ResetDocsBaseURL resets to the default documentation URL.
func ResetDocsBaseURL() {
	SetDocsBaseURL(DefaultDocsBaseURL)
}
