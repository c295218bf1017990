package orm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/contractlint/internal/testutil"
	"github.com/leapstack-labs/contractlint/pkg/lint"
	_ "github.com/leapstack-labs/contractlint/pkg/lint/rules/orm" // register rules
)

const validContract = `balances = Hash(default_value=0)
owner = Variable()
transfer_event = LogEvent(event="Transfer", params={"amount": {"type": int}})

@construct
def seed():
    owner.set(ctx.caller)
    balances[ctx.caller] = 1000

@export
def transfer(amount: int, to: str):
    sender = ctx.caller
    assert balances[sender] >= amount, "insufficient"
    balances[sender] -= amount
    balances[to] += amount
    transfer_event({"amount": amount})
`

func TestORM_ValidContract(t *testing.T) {
	for _, id := range []string{
		"ORM_PLAIN_STATE", "ORM_REASSIGN", "ORM_DECLARATION_SCOPE", "ORM_KEY_ARITY",
		"ORM_RESERVED_KWARG", "ORM_MULTI_TARGET", "ORM_NAME_SHADOWED", "ORM_READ_ONLY",
	} {
		assert.Empty(t, testutil.RunRule(t, validContract, id), id)
	}
}

func TestPlainState(t *testing.T) {
	src := `balances = {}
names = [1, 2]
seen = set()
squares = {x: x * x for x in range(3)}
owner = Variable()
limit = 10
conf: dict = dict()

def f():
    local = []
`
	diags := testutil.RunRule(t, src, "ORM_PLAIN_STATE")
	assert.Equal(t, []string{"1:1", "2:1", "3:1", "4:1", "7:1"}, testutil.Positions(diags))
	assert.Equal(t, "module-level variable 'balances' holds a mutable dict; use Variable or Hash for contract state", diags[0].Message)
	assert.Contains(t, diags[2].Message, "mutable set()")
	assert.Contains(t, diags[3].Message, "mutable dict comprehension")
}

func TestReassign(t *testing.T) {
	src := `owner = Variable()
balances = Hash()
owner = Variable()

@export
def change(new: str):
    owner = new
    balances += 1
    del balances
    for owner in range(3):
        pass
    balances[new] = 1
`
	diags := testutil.RunRule(t, src, "ORM_REASSIGN")
	assert.Equal(t, []string{"3:1", "7:5", "8:5", "9:5", "10:5"}, testutil.Positions(diags))
	assert.Equal(t, "storage 'owner' is reassigned; it was declared at line 1", diags[0].Message)
}

func TestDeclarationScope(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "constructor called in exported function",
			src:  "@export\ndef f():\n    Variable().set(1)",
			want: []string{"3:5"},
		},
		{
			name: "local declaration",
			src:  "def f():\n    local = Hash()\n",
			want: []string{"2:5"},
		},
		{
			name: "constructor inside a container",
			src:  "items = [Variable()]\n",
			want: []string{"1:1"},
		},
		{
			name: "module-level declarations",
			src:  "owner = Variable()\nevent: LogEvent = LogEvent(event='E', params={})\n",
		},
		{
			name: "tuple declaration",
			src:  "a, b = Variable(), Hash()\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := testutil.RunRule(t, tt.src, "ORM_DECLARATION_SCOPE")
			if tt.want == nil {
				assert.Empty(t, diags)
				return
			}
			assert.Equal(t, tt.want, testutil.Positions(diags))
		})
	}
}

func TestDeclarationScope_Message(t *testing.T) {
	diags := testutil.RunRule(t, "@export\ndef f():\n    Variable().set(1)\n", "ORM_DECLARATION_SCOPE")
	require.Len(t, diags, 1)
	assert.Equal(t, 3, diags[0].Pos.Line)
	assert.Equal(t, lint.SeverityError, diags[0].Severity)
	assert.Equal(t, "storage constructor 'Variable()' must be the value of a module-level assignment", diags[0].Message)
}

func TestKeyArity(t *testing.T) {
	src := `owner = Variable()
balances = Hash()
allowances = Hash()
transfer = LogEvent(event="Transfer", params={})

@export
def f(a: str, b: str):
    allowances[a, b] = 1
    x = allowances[a]
    owner[a] = 1
    owner.set(a, b)
    balances.get()
    transfer(a, b)
    balances[a] = allowances[a, b]
    owner.set(a)
    transfer({"a": a})
`
	diags := testutil.RunRule(t, src, "ORM_KEY_ARITY")
	require.Len(t, diags, 5)
	assert.Equal(t, []string{"9:5", "10:5", "11:5", "12:5", "13:5"}, testutil.Positions(diags))
	assert.Equal(t, "Hash 'allowances' accessed with 1 keys; first access at line 8 uses 2", diags[0].Message)
	assert.Equal(t, "Variable 'owner' cannot be subscripted", diags[1].Message)
	assert.Equal(t, "method 'set' of Variable 'owner' expects 1 argument(s), got 2", diags[2].Message)
	assert.Equal(t, "method 'get' of Hash 'balances' expects 1 argument(s), got 0", diags[3].Message)
	assert.Equal(t, "LogEvent 'transfer' expects 1 argument(s), got 2", diags[4].Message)
}

func TestKeyArity_MaxOption(t *testing.T) {
	src := "h = Hash()\n\ndef f(a, b, c):\n    h[a, b, c] = 1\n"
	assert.Empty(t, testutil.RunRule(t, src, "ORM_KEY_ARITY"))

	cfg := lint.NewConfig().SetRuleOptions("ORM_KEY_ARITY", map[string]any{"max_key_arity": 2})
	diags := testutil.RunRuleWithConfig(t, src, "ORM_KEY_ARITY", cfg)
	require.Len(t, diags, 1)
	assert.Equal(t, "4:5", diags[0].Pos.String())
	assert.Equal(t, "Hash 'h' accessed with 3 keys; at most 2 are allowed", diags[0].Message)
}

func TestKeyArity_UnpackedArgumentsSkipped(t *testing.T) {
	src := "owner = Variable()\n\ndef f(args):\n    owner.set(*args)\n"
	assert.Empty(t, testutil.RunRule(t, src, "ORM_KEY_ARITY"))
}

func TestReservedKwarg(t *testing.T) {
	src := `balances = Hash(default_value=0, contract="currency", name="balances")
supply = ForeignVariable(foreign_contract="currency", foreign_name="supply", name="x")
`
	diags := testutil.RunRule(t, src, "ORM_RESERVED_KWARG")
	require.Len(t, diags, 2)
	assert.Equal(t, []string{"1:1", "1:1"}, testutil.Positions(diags))
	assert.Equal(t, "keyword 'contract' of Hash() is reserved and set by the runtime", diags[0].Message)
	assert.Equal(t, "keyword 'name' of Hash() is reserved and set by the runtime", diags[1].Message)
}

func TestMultiTarget(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"a, b = Variable(), Hash()\n", true},
		{"a = b = Variable()\n", true},
		{"x = Variable(), 1\n", true},
		{"owner = Variable()\n", false},
		{"a, b = 1, 2\n", false},
	}
	for _, tt := range tests {
		diags := testutil.RunRule(t, tt.src, "ORM_MULTI_TARGET")
		if !tt.want {
			assert.Empty(t, diags, tt.src)
			continue
		}
		require.Len(t, diags, 1, tt.src)
		assert.Equal(t, "1:1", diags[0].Pos.String())
		assert.Equal(t, "storage declaration must assign exactly one name", diags[0].Message)
	}
}

func TestNameShadowed(t *testing.T) {
	src := `balances = Hash()

@export
def reset(balances: dict, other: str):
    pass

def helper(x, balances=1):
    pass
`
	diags := testutil.RunRule(t, src, "ORM_NAME_SHADOWED")
	assert.Equal(t, []string{"4:11", "7:15"}, testutil.Positions(diags))
	assert.Equal(t, "parameter 'balances' shadows storage 'balances' declared at line 1", diags[0].Message)
}

func TestReadOnly(t *testing.T) {
	src := `supply = ForeignVariable(foreign_contract="currency", foreign_name="supply")
balances = ForeignHash(foreign_contract="currency", foreign_name="balances")
mine = Hash()

@export
def f(a: str):
    supply.set(1)
    balances[a] = 1
    balances[a] += 1
    del balances[a]
    x = supply.get()
    mine[a] = balances[a]
`
	diags := testutil.RunRule(t, src, "ORM_READ_ONLY")
	assert.Equal(t, []string{"7:5", "8:5", "9:5", "10:5"}, testutil.Positions(diags))
	assert.Equal(t, "cannot call set() on read-only ForeignVariable 'supply'", diags[0].Message)
	assert.Equal(t, "cannot write to read-only ForeignHash 'balances'", diags[1].Message)
}
