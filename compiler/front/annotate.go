package front

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/tailopt/compiler/bind"
	"github.com/slowlang/tailopt/compiler/ir"
	"github.com/slowlang/tailopt/compiler/walk"
)

type (
	// uses collects per variable facts the optimizer relies on.
	uses struct {
		walk.Base

		u *ir.Unit

		lifted  []bool
		inits   []int
		assigns []int
		initX   []ir.Expr
	}
)

// Annotate establishes the facts the optimizer trusts without checking:
// Call.Tail, Variable.Lifted, Variable.Reassigned and Variable.Assumed.
// It binds the unit first.
func Annotate(ctx context.Context, u *ir.Unit) (err error) {
	err = bind.Unit(ctx, u)
	if err != nil {
		return errors.Wrap(err, "bind")
	}

	markTail(u, u.Root, true)

	x := &uses{
		u:       u,
		lifted:  make([]bool, len(u.Vars)),
		inits:   make([]int, len(u.Vars)),
		assigns: make([]int, len(u.Vars)),
		initX:   make([]ir.Expr, len(u.Vars)),
	}

	err = walk.Walk(ctx, u, x, u.Root)
	if err != nil {
		return errors.Wrap(err, "collect uses")
	}

	var lifted, reassigned, assumed int

	tr := tlog.SpanFromContext(ctx).V("vars")

	for i := range u.Vars {
		v := ir.Var(i)
		p := u.Var(v)

		p.Lifted = x.lifted[i]
		p.Reassigned = false
		p.Assumed = ir.Nil

		if x.assigns[i] != 0 || x.inits[i] > 1 || p.Param && x.inits[i] != 0 {
			u.MarkReassigned(v)
		} else if x.inits[i] == 1 {
			u.SetAssumed(v, x.initX[i])
		}

		if p.Lifted {
			lifted++
		}
		if p.Reassigned {
			reassigned++
		}
		if p.Assumed != ir.Nil {
			assumed++
		}

		tr.Printw("var", "id", v, "var", *p)
	}

	tlog.SpanFromContext(ctx).Printw("annotated", "unit", u.Name, "vars", len(u.Vars), "lifted", lifted, "reassigned", reassigned, "assumed", assumed)

	return nil
}

func (x *uses) use(w *walk.Walker, v ir.Var) {
	if x.u.Vars[v].Proc != w.Proc() {
		x.lifted[v] = true
	}
}

func (x *uses) Ref(w *walk.Walker, id ir.Expr, r ir.Ref) (bool, error) {
	x.use(w, r.Var)

	return true, nil
}

func (x *uses) Assign(w *walk.Walker, id ir.Expr, a ir.Assign) (bool, error) {
	x.use(w, a.Var)

	if a.Init {
		x.inits[a.Var]++
		x.initX[a.Var] = a.X
	} else {
		x.assigns[a.Var]++
	}

	return true, nil
}

// markTail sets Call.Tail by syntactic context.
func markTail(u *ir.Unit, id ir.Expr, tail bool) {
	if id == ir.Nil {
		return
	}

	switch x := u.Node(id).(type) {
	case ir.Return:
		markTail(u, x.X, true)
	case ir.Cond:
		markTail(u, x.Test, false)
		markTail(u, x.Then, tail)
		markTail(u, x.Else, tail)
	case ir.Seq:
		for i, e := range x {
			markTail(u, e, tail && i == len(x)-1)
		}
	case ir.Labeled:
		markTail(u, x.Body, tail)
	case ir.Call:
		x.Tail = tail
		u.Set(id, x)

		markTail(u, x.Recv, false)

		for _, a := range x.Args {
			markTail(u, a, false)
		}
	case ir.Proc:
		markTail(u, x.Body, true)
	case ir.ProcRef:
		markTail(u, x.Proc, true)
	case ir.Not:
		markTail(u, x.X, false)
	case ir.Assign:
		markTail(u, x.X, false)
	case ir.BinOp:
		markTail(u, x.L, false)
		markTail(u, x.R, false)
	case ir.Convert:
		markTail(u, x.X, false)
	case ir.Field:
		markTail(u, x.X, false)
	}
}
