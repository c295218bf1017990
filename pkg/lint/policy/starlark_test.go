package policy_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/contractlint/pkg/lint/policy"
)

func TestLoadStarlark(t *testing.T) {
	src := `
_extra = ["socket", "ssl"]

security = {
    "denied_imports": ["os", "sys"] + _extra,
    "denied_calls": ["currency.seed"],
}

storage = {"max_key_arity": 3}

export = {"nested_whitelist": ("helper",)}
`
	p, err := policy.LoadStarlark("policy.star", []byte(src))
	require.NoError(t, err)

	assert.Equal(t, []string{"os", "sys", "socket", "ssl"}, p.Security.DeniedImports)
	assert.Equal(t, 3, p.Storage.MaxKeyArity)
	assert.True(t, p.IsNestedWhitelisted("helper"))
	assert.Equal(t, "export", p.Export.Marker)

	_, denied := p.DeniedImport("random")
	assert.False(t, denied, "the list replaces the default")
	_, denied = p.DeniedTarget("currency.seed")
	assert.True(t, denied)
}

func TestLoadStarlark_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "syntax error",
			src:  "security = {",
			want: "starlark execution error",
		},
		{
			name: "unknown global",
			src:  "denylist = []",
			want: `unknown global "denylist"`,
		},
		{
			name: "non-string key",
			src:  "storage = {1: 2}",
			want: "dict key must be string",
		},
		{
			name: "unsupported value",
			src:  "security = {\"denied_calls\": [1.5]}",
			want: "unsupported value of type float",
		},
		{
			name: "invalid tables",
			src:  "storage = {\"max_key_arity\": -1}",
			want: "max_key_arity must be positive",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := policy.LoadStarlark("bad.star", []byte(tt.src))
			require.Error(t, err)

			var lerr *policy.LoadError
			require.ErrorAs(t, err, &lerr)
			assert.Equal(t, "bad.star", lerr.File)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFile_Starlark(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contract_policy.star")
	require.NoError(t, os.WriteFile(path, []byte(`runtime = {"globals": ["ctx", "now"]}`), 0o600))

	p, err := policy.LoadFile(path)
	require.NoError(t, err)
	assert.True(t, p.IsRuntimeGlobal("now"))
	assert.False(t, p.IsRuntimeGlobal("block_num"))
}
