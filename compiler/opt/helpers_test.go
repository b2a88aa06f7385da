package opt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/slowlang/tailopt/compiler/front"
	"github.com/slowlang/tailopt/compiler/ir"
)

func annotated(t *testing.T, u *ir.Unit) *ir.Unit {
	t.Helper()

	err := front.Annotate(context.Background(), u)
	require.NoError(t, err)

	return u
}

func findProc(t *testing.T, u *ir.Unit, name string) (ir.Expr, ir.Proc) {
	t.Helper()

	for id, x := range u.Exprs {
		if p, ok := x.(ir.Proc); ok && p.Name == name {
			return ir.Expr(id), p
		}
	}

	t.Fatalf("no proc %v", name)

	return ir.Nil, ir.Proc{}
}

// selfCall returns the return node of the recursive branch of progs.Loop procs.
func selfCall(t *testing.T, u *ir.Unit, name string) (ret ir.Expr, call ir.Expr) {
	t.Helper()

	_, p := findProc(t, u, name)

	body := p.Body
	if l, ok := u.Node(body).(ir.Labeled); ok {
		body = l.Body
	}

	if s, ok := u.Node(body).(ir.Seq); ok {
		body = s[len(s)-1]
	}

	c, ok := u.Node(body).(ir.Cond)
	require.True(t, ok, "body is %T", u.Exprs[body])

	ret = c.Else
	if _, ok := u.Node(c.Test).(ir.Not); ok {
		ret = c.Then
	}

	r, ok := u.Node(ret).(ir.Return)
	require.True(t, ok, "branch is %T", u.Exprs[ret])

	return ret, r.X
}

func localNames(u *ir.Unit, p ir.Proc) (r []string) {
	for _, v := range p.Locals {
		r = append(r, u.Vars[v].Name)
	}

	return r
}
