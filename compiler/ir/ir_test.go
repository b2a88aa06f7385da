package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/tailopt/compiler/tp"
)

func TestVars(t *testing.T) {
	u := NewUnit("t")

	v := u.NewVar("f", nil)
	assert.Equal(t, tp.Any{}, u.Vars[v].Type)
	assert.Equal(t, Nil, u.Vars[v].Proc)
	assert.Equal(t, Nil, u.Vars[v].Assumed)

	init := u.Int(1)

	u.SetAssumed(v, init)
	assert.Equal(t, init, u.Vars[v].Assumed)

	u.MarkReassigned(v)
	assert.True(t, u.Vars[v].Reassigned)
	assert.Equal(t, Nil, u.Vars[v].Assumed)

	u.SetAssumed(v, init)
	assert.Equal(t, Nil, u.Vars[v].Assumed)
}

func TestGensym(t *testing.T) {
	u := NewUnit("t")

	u.NewVar("n.2", tp.Int64)

	assert.Equal(t, "n.1", u.Gensym("n"))
	assert.Equal(t, "n.3", u.Gensym("n"))
	assert.Equal(t, "acc.4", u.Gensym("acc"))
}

func TestNodeBadHandle(t *testing.T) {
	u := NewUnit("t")

	assert.Panics(t, func() { u.Node(Nil) })
	assert.Panics(t, func() { u.Node(0) })

	x := u.Int(1)
	assert.Panics(t, func() { u.Proc(x) })
}

func TestTypeOf(t *testing.T) {
	u := NewUnit("t")

	f := u.NewVar("f", tp.Callable{})
	ref := u.Alloc(Ref{Name: "f", Var: f})

	for _, tc := range []struct {
		id   Expr
		want tp.Type
	}{
		{u.Int(1), tp.Int64},
		{u.Bool(true), tp.Bool{}},
		{u.Bin("+", u.Int(1), u.Int(2)), tp.Int64},
		{u.Bin("<", u.Int(1), u.Int(2)), tp.Bool{}},
		{u.Not(u.Bool(true)), tp.Bool{}},
		{u.Ref("x"), tp.Any{}},
		{ref, tp.Callable{}},
		{u.Convert(u.Ref("x"), tp.Callable{}), tp.Callable{}},
		{u.MakeArgs(u.Int(1)), tp.ArgList{}},
		{u.Create(u.Lambda("p", nil, nil, u.Int(1))), tp.Callable{}},
		{u.Invoke(ref), tp.Any{}},
		{u.Begin(u.Int(1), u.Bool(false)), tp.Bool{}},
		{u.Begin(), tp.Any{}},
	} {
		assert.Equal(t, tc.want, u.TypeOf(tc.id), "expr %d: %T", tc.id, u.Exprs[tc.id])
	}
}

func TestMethods(t *testing.T) {
	for _, m := range []Method{Invoke, InvokeArgs, Create, MakeArgs} {
		p, ok := ParseMethod(m.String())
		require.True(t, ok, "method %v", m)
		assert.Equal(t, m, p)
	}

	_, ok := ParseMethod("call")
	assert.False(t, ok)

	assert.Equal(t, "method?", Method(10).String())
}
