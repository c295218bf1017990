package check_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/contractlint/internal/testutil"
	"github.com/leapstack-labs/contractlint/pkg/check"
	"github.com/leapstack-labs/contractlint/pkg/lint"
	"github.com/leapstack-labs/contractlint/pkg/parser"
)

func checkSource(t *testing.T, src string) []lint.Diagnostic {
	t.Helper()
	mod, err := parser.Parse(src)
	require.NoError(t, err)
	return check.Check(mod, nil)
}

// findings renders the diagnostics with code as "message@line:column".
func findings(diags []lint.Diagnostic, code string) []string {
	var out []string
	for _, d := range diags {
		if d.RuleID == code {
			out = append(out, d.Message+"@"+d.Pos.String())
		}
	}
	return out
}

func TestUndefinedName(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "function uses later helper and unknown global",
			src: `import currency

balances = Hash()

@export
def transfer(amount: float, to: str):
    sender = ctx.caller
    balances[sender] -= amount
    currency.transfer(amount=amount, to=to)
    return helper(amount)

def helper(x):
    return x * rate
`,
			want: []string{"undefined name 'rate'@13:16"},
		},
		{
			name: "module level use before assignment",
			src:  "print_total = total + 1\ntotal = 5\n",
			want: []string{"undefined name 'total'@1:15"},
		},
		{
			name: "comprehension variable does not leak",
			src:  "def f():\n    x = [i for i in range(3)]\n    return x, i\n",
			want: []string{"undefined name 'i'@3:15"},
		},
		{
			name: "comprehension with condition",
			src:  "def f(items):\n    return [i * 2 for i in items if i]\n",
		},
		{
			name: "class body is not visible to methods",
			src:  "class A:\n    limit = 1\n    def f(self):\n        return limit\n",
			want: []string{"undefined name 'limit'@4:16"},
		},
		{
			name: "global statement",
			src:  "def f():\n    global counter\n    counter = 1\n\ndef g():\n    return counter\n",
		},
		{
			name: "runtime globals and builtins",
			src:  "def f():\n    return ctx.caller, now, block_num, random.randint(1, 2), Variable, export, eval\n",
		},
		{
			name: "annotation without value binds nothing",
			src:  "x: int\ny = x\n",
			want: []string{"undefined name 'x'@2:5"},
		},
		{
			name: "lambda default evaluated outside",
			src:  "f = lambda a, b=c: a + b\n",
			want: []string{"undefined name 'c'@1:17"},
		},
		{
			name: "augmented assignment needs a binding",
			src:  "count += 1\n",
			want: []string{"undefined name 'count'@1:1"},
		},
		{
			name: "except handler name",
			src:  "def f():\n    try:\n        pass\n    except Exception as e:\n        return e\n",
		},
		{
			name: "augmented assignment of unbound local",
			src:  "def f():\n    total += 1\n",
			want: []string{"undefined name 'total'@2:5"},
		},
		{
			name: "augmented assignment after binding",
			src:  "def f():\n    total = 0\n    total += 1\n    return total\n",
		},
		{
			name: "use after del",
			src:  "def f():\n    a = 1\n    del a\n    return a\n",
			want: []string{"undefined name 'a'@4:12"},
		},
		{
			name: "module use after del",
			src:  "a = 1\ndel a\nb = a\n",
			want: []string{"undefined name 'a'@3:5"},
		},
		{
			name: "del of unbound name",
			src:  "def f():\n    del a\n",
			want: []string{"undefined name 'a'@2:9"},
		},
		{
			name: "rebound after del",
			src:  "def f():\n    a = 1\n    del a\n    a = 2\n    return a\n",
		},
		{
			name: "conditional del keeps binding",
			src:  "def f(c):\n    a = 1\n    if c:\n        del a\n    return a\n",
		},
		{
			name: "del of tuple targets",
			src:  "def f():\n    a, b = 1, 2\n    del a, b\n    return b\n",
			want: []string{"undefined name 'b'@4:12"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := findings(checkSource(t, tt.src), check.CodeUndefinedName)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnusedImport(t *testing.T) {
	src := `import currency
import os.path
import hashlib as h
from decimal import Decimal

def f():
    return currency.x
`
	assert.Equal(t, []string{
		"'os.path' imported but unused@2:8",
		"'hashlib as h' imported but unused@3:8",
		"'decimal.Decimal' imported but unused@4:21",
	}, findings(checkSource(t, src), check.CodeUnusedImport))
}

func TestUnusedVariable(t *testing.T) {
	src := `unused = 1

def f(x):
    y = x * 2
    z = 1
    z += 1
    a, b = x, x
    _ = x
    w = 0
    for i in range(3):
        w = i
    return w
`
	diags := checkSource(t, src)
	assert.Equal(t, []string{"local variable 'y' is assigned to but never used@4:5"},
		findings(diags, check.CodeUnusedVariable))
}

func TestUnreachableCode(t *testing.T) {
	src := `def f(x):
    return x
    x = 1
    y = 2

def g(items):
    for i in items:
        if i:
            break
            print(i)
        continue
    raise ValueError("x")
`
	assert.Equal(t, []string{
		"unreachable code after 'return'@3:5",
		"unreachable code after 'break'@10:13",
	}, findings(checkSource(t, src), check.CodeUnreachableCode))
}

func TestMisplacedStatement(t *testing.T) {
	tests := []struct {
		src  string
		want []string
	}{
		{"return 1\n", []string{"'return' outside function@1:1"}},
		{"yield 1\n", []string{"'yield' outside function@1:1"}},
		{"for i in range(3):\n    pass\nbreak\n", []string{"'break' outside loop@3:1"}},
		{"def f():\n    continue\n", []string{"'continue' not properly in loop@2:5"}},
		{"while True:\n    def f():\n        break\n", []string{"'break' outside loop@3:9"}},
		{"def f():\n    for i in range(2):\n        if i:\n            continue\n    return 1\n", nil},
	}
	for _, tt := range tests {
		diags := checkSource(t, tt.src)
		assert.Equal(t, tt.want, findings(diags, check.CodeMisplacedStatement), tt.src)
		for _, d := range diags {
			if d.RuleID == check.CodeMisplacedStatement {
				assert.Equal(t, lint.SeverityError, d.Severity)
			}
		}
	}
}

func TestLiteralChecks(t *testing.T) {
	src := `def f(x):
    a = f"total"
    b = f"{x}"
    return a + b
`
	assert.Equal(t, []string{"f-string is missing placeholders@2:9"},
		findings(checkSource(t, src), check.CodeFStringNoPlaceholders))

	src = `params = {"a": 1, "b": 2, "a": 3, 1: 0, 1: 1, k: 1, k: 2}` + "\n"
	assert.Equal(t, []string{
		"dictionary key 'a' repeated@1:27",
		"dictionary key 1 repeated@1:41",
		"dictionary key k repeated@1:53",
	}, findings(checkSource(t, src), check.CodeDuplicateDictKey))

	src = "def f(x):\n    return x is 'a' or x is None or x is not 1\n"
	got := findings(checkSource(t, src), check.CodeIsLiteral)
	require.Len(t, got, 2)
	assert.Equal(t, "use ==/!= to compare constant literals (str, bytes, int, float, tuple)@2:12", got[0])
	assert.Equal(t, "use ==/!= to compare constant literals (str, bytes, int, float, tuple)@2:37", got[1])
}

func TestCheck_CleanContract(t *testing.T) {
	src := `import currency

balances = Hash(default_value=0)
owner = Variable()

@construct
def seed():
    owner.set(ctx.caller)

@export
def deposit(amount: float):
    assert amount > 0, "amount must be positive"
    balances[ctx.caller] += amount
    currency.transfer_from(amount=amount, to=ctx.this, main_account=ctx.caller)
`
	assert.Empty(t, checkSource(t, src))
}

func TestCheck_OrderedAndAttributed(t *testing.T) {
	diags := checkSource(t, "import os\nreturn missing\n")
	require.Len(t, diags, 3)
	for i := 1; i < len(diags); i++ {
		assert.LessOrEqual(t, diags[i-1].Pos.Line, diags[i].Pos.Line)
	}
	for _, d := range diags {
		assert.Equal(t, lint.SourceCheck, d.Source)
		assert.Equal(t, lint.BuildDocURL(d.RuleID), d.DocumentationURL)
	}
}

func TestCheck_Registered(t *testing.T) {
	for _, code := range []string{
		check.CodeUndefinedName, check.CodeUnusedImport, check.CodeUnusedVariable,
		check.CodeUnreachableCode, check.CodeMisplacedStatement,
		check.CodeFStringNoPlaceholders, check.CodeDuplicateDictKey, check.CodeIsLiteral,
	} {
		r, ok := lint.GetByID(code)
		require.True(t, ok, code)
		assert.Equal(t, "check", r.Group())
	}
}

func TestValidator_Cache(t *testing.T) {
	cache, err := check.NewCache(2)
	require.NoError(t, err)
	v := check.New(nil, check.WithCache(cache), check.WithLogger(testutil.NewTestLogger(t)))

	src := "import os\n"
	mod, err := parser.Parse(src)
	require.NoError(t, err)

	first := v.Validate(mod, src)
	require.Len(t, first, 1)
	first[0].Message = "mutated"

	second := v.Validate(mod, src)
	require.Len(t, second, 1)
	assert.Equal(t, "'os' imported but unused", second[0].Message)
	assert.Equal(t, check.CacheStats{Size: 1, Hits: 1, Misses: 1}, cache.Stats())

	assert.True(t, cache.Invalidate(check.Hash(src)))
	assert.False(t, cache.Invalidate(check.Hash(src)))

	for _, s := range []string{"a = 1\n", "b = 2\n", "c = 3\n"} {
		cache.Add(check.Hash(s), nil)
	}
	assert.Equal(t, 2, cache.Len())
	_, ok := cache.Get(check.Hash("a = 1\n"))
	assert.False(t, ok, "least recently used entry is evicted")

	cache.Purge()
	assert.Equal(t, 0, cache.Len())
}

func TestNewCache_DefaultSize(t *testing.T) {
	cache, err := check.NewCache(0)
	require.NoError(t, err)
	for i := range check.DefaultCacheSize + 5 {
		cache.Add(check.Hash(string(rune('a'+i%26))+string(rune(i))), nil)
	}
	assert.Equal(t, check.DefaultCacheSize, cache.Len())
}

func TestHash(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", check.Hash(""))
	assert.NotEqual(t, check.Hash("a"), check.Hash("b"))
}
