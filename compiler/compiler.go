package compiler

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/tailopt/compiler/front"
	"github.com/slowlang/tailopt/compiler/ir"
	"github.com/slowlang/tailopt/compiler/irfile"
	"github.com/slowlang/tailopt/compiler/opt"
)

func LoadFile(ctx context.Context, name string) (u *ir.Unit, err error) {
	u, err = irfile.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "load")
	}

	tlog.SpanFromContext(ctx).Printw("loaded unit", "name", name, "exprs", len(u.Exprs), "vars", len(u.Vars))

	err = front.Annotate(ctx, u)
	if err != nil {
		return nil, errors.Wrap(err, "annotate")
	}

	return u, nil
}

func OptimizeFile(ctx context.Context, name string, cfg opt.Config) (u *ir.Unit, err error) {
	u, err = LoadFile(ctx, name)
	if err != nil {
		return nil, err
	}

	err = Optimize(ctx, u, cfg)
	if err != nil {
		return nil, err
	}

	return u, nil
}

// Optimize runs the pass pipeline over an annotated unit.
func Optimize(ctx context.Context, u *ir.Unit, cfg opt.Config) (err error) {
	err = opt.New(cfg).Run(ctx, u)
	if err != nil {
		return errors.Wrap(err, "optimize %v", u.Name)
	}

	return nil
}

// OptimizeUnits runs the pass pipeline over independent annotated units in parallel.
func OptimizeUnits(ctx context.Context, units []*ir.Unit, cfg opt.Config) (err error) {
	err = opt.RunUnits(ctx, opt.New(cfg), units)
	if err != nil {
		return errors.Wrap(err, "optimize")
	}

	tlog.SpanFromContext(ctx).Printw("units optimized", "units", len(units))

	return nil
}
