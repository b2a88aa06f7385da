package irfile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/tailopt/compiler/bind"
	"github.com/slowlang/tailopt/compiler/eval"
	"github.com/slowlang/tailopt/compiler/format"
	"github.com/slowlang/tailopt/compiler/front"
	"github.com/slowlang/tailopt/compiler/ir"
	"github.com/slowlang/tailopt/compiler/opt"
	"github.com/slowlang/tailopt/compiler/progs"
)

func TestReadFile(t *testing.T) {
	u, err := ReadFile("testdata/fact.yaml")
	require.NoError(t, err)

	assert.Equal(t, "fact", u.Name)

	main, ok := u.Node(u.Root).(ir.Proc)
	require.True(t, ok)
	assert.Equal(t, "main", main.Name)
	assert.Len(t, main.Params, 2)
	assert.Len(t, main.Locals, 1)

	assert.Equal(t, "(lambda main (n acc) (locals f) (begin "+
		"(define f (create (lambda f (n acc) (if (= n 0) (return acc) (return (invoke f (- n 1) (* acc n))))))) "+
		"(return (invoke f n acc))))", format.String(u, u.Root))
}

func TestReadFileCountdown(t *testing.T) {
	u, err := ReadFile("testdata/countdown.yaml")
	require.NoError(t, err)

	assert.Contains(t, format.String(u, u.Root), "(if (not (< 0 i)) (return #t) (return (invoke (convert callable loop) (- i 1))))")
}

func TestCheckABI(t *testing.T) {
	assert.NoError(t, CheckABI(""))
	assert.NoError(t, CheckABI(ABI))
	assert.NoError(t, CheckABI("1.2.0"))

	err := CheckABI("2.0.0")

	var e ABIError
	require.ErrorAs(t, err, &e)
	assert.Equal(t, ABIError{Version: "2.0.0", Constraint: Compatible}, e)

	assert.Error(t, CheckABI("0.9.0"))
	assert.Error(t, CheckABI("not a version"))
}

func TestDecodeErrors(t *testing.T) {
	for name, data := range map[string]string{
		"abi":      "abi: 2.1.0\nroot: {proc: p, body: {const: 1}}\n",
		"no_root":  "abi: 1.0.0\n",
		"empty":    "root: {proc: p, body: {}}\n",
		"method":   "root: {proc: p, body: {call: frobnicate}}\n",
		"type":     "root: {proc: p, params: [{name: a, type: string}], body: {const: 1}}\n",
		"continue": "root: {proc: p, body: {continue: true}}\n",
		"procref":  "root: {proc: p, body: {procref: {const: 1}}}\n",
		"const":    "root: {proc: p, body: {const: 1.5}}\n",
		"yaml":     "root: [\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	u := progs.Loop{Op: "+", Negate: true, ConvertRecv: true}.Build("loop")

	data, err := Encode(u)
	require.NoError(t, err)

	u2, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, u.Name, u2.Name)
	assert.Equal(t, format.String(u, u.Root), format.String(u2, u2.Root))
}

func TestRoundTripOptimized(t *testing.T) {
	ctx := context.Background()

	u := progs.Fact()

	require.NoError(t, front.Annotate(ctx, u))
	require.NoError(t, opt.New(opt.DefaultConfig()).Run(ctx, u))

	data, err := Encode(u)
	require.NoError(t, err)

	u2, err := Decode(data)
	require.NoError(t, err)

	require.NoError(t, bind.Unit(ctx, u2))

	for _, v := range u2.Vars {
		if v.Param && v.Proc != u2.Root {
			assert.True(t, v.Reassigned, "var %v", v.Name)
		}
	}

	v, st, err := eval.Run(ctx, u2, eval.DefaultConfig(), int64(10), int64(1))
	require.NoError(t, err)

	assert.Equal(t, int64(3628800), v)
	assert.Equal(t, 2, st.MaxDepth)
}
