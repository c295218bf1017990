package output_test

import (
	"bytes"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/contractlint/internal/cli/output"
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    output.Mode
		wantErr bool
	}{
		{"", output.ModeAuto, false},
		{"auto", output.ModeAuto, false},
		{"text", output.ModeText, false},
		{"markdown", output.ModeMarkdown, false},
		{"md", output.ModeMarkdown, false},
		{"json", output.ModeJSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := output.ParseMode(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		name  string
		mode  output.Mode
		isTTY bool
		want  output.Mode
	}{
		{"auto on terminal", output.ModeAuto, true, output.ModeText},
		{"auto piped", output.ModeAuto, false, output.ModeMarkdown},
		{"empty piped", "", false, output.ModeMarkdown},
		{"explicit json", output.ModeJSON, true, output.ModeJSON},
		{"explicit text piped", output.ModeText, false, output.ModeText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := output.NewRendererWithTTY(&bytes.Buffer{}, &bytes.Buffer{}, tt.isTTY, tt.mode)
			assert.Equal(t, tt.want, r.EffectiveMode())
		})
	}
}

func TestRenderer_NoColorWhenPiped(t *testing.T) {
	var out bytes.Buffer
	r := output.NewRendererWithTTY(&out, &bytes.Buffer{}, false, output.ModeText)
	r.Println(r.Styles().Error.Render("error"))
	r.Success("done")

	assert.False(t, ansiPattern.MatchString(out.String()), "got %q", out.String())
	assert.Contains(t, out.String(), "✓ done")
}

func TestRenderer_MarkdownSuccess(t *testing.T) {
	var out bytes.Buffer
	r := output.NewRendererWithTTY(&out, &bytes.Buffer{}, false, output.ModeAuto)
	r.Success("No lint issues found")
	assert.Equal(t, "**No lint issues found**\n", out.String())
}

func TestRenderer_JSONAndWarn(t *testing.T) {
	var out, errOut bytes.Buffer
	r := output.NewRendererWithTTY(&out, &errOut, false, output.ModeJSON)

	require.NoError(t, r.JSON(output.LintSummary{FilesAnalyzed: 2, Errors: 1}))
	assert.Contains(t, out.String(), `"files_analyzed": 2`)

	r.Warn("cache disabled")
	assert.Equal(t, "warning: cache disabled\n", errOut.String())
}
