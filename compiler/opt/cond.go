package opt

import (
	"context"

	"tlog.app/go/tlog"

	"github.com/slowlang/tailopt/compiler/ir"
	"github.com/slowlang/tailopt/compiler/walk"
)

type (
	// Conditionals rewrites (if (not A) B C) into (if A C B).
	Conditionals struct{}

	conds struct {
		walk.Base

		n int
	}
)

func (Conditionals) Name() string { return "conditionals" }

func (c Conditionals) Run(ctx context.Context, u *ir.Unit) error {
	_, err := c.Normalize(ctx, u)
	return err
}

// Normalize returns the number of negations removed.
func (Conditionals) Normalize(ctx context.Context, u *ir.Unit) (n int, err error) {
	v := &conds{}

	err = walk.Walk(ctx, u, v, u.Root)
	if err != nil {
		return v.n, err
	}

	tlog.SpanFromContext(ctx).Printw("conditionals normalized", "unit", u.Name, "rewritten", v.n)

	return v.n, nil
}

func (v *conds) Cond(w *walk.Walker, id ir.Expr, x ir.Cond) (bool, error) {
	changed := false

	for {
		not, ok := w.Unit.Node(x.Test).(ir.Not)
		if !ok {
			break
		}

		x.Test = not.X
		x.Then, x.Else = x.Else, x.Then

		changed = true
		v.n++
	}

	if changed {
		w.Unit.Set(id, x)
	}

	return true, nil
}
