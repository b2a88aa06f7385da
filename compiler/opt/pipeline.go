package opt

import (
	"context"

	"golang.org/x/sync/errgroup"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/tailopt/compiler/bind"
	"github.com/slowlang/tailopt/compiler/ir"
)

type (
	Pass interface {
		Name() string
		Run(ctx context.Context, u *ir.Unit) error
	}

	// Pipeline runs passes in order, each once over the whole unit.
	// A pass may rely on facts established by the previous ones.
	Pipeline struct {
		Passes []Pass
	}

	Binder struct{}
)

func New(cfg Config) *Pipeline {
	p := &Pipeline{}

	p.Add(Binder{})

	if !cfg.NoConditionals {
		p.Add(Conditionals{})
	}

	if !cfg.NoTailCalls {
		p.Add(TailCalls{MaxArgs: cfg.MaxArgs})
	}

	return p
}

func (p *Pipeline) Add(pass Pass) {
	p.Passes = append(p.Passes, pass)
}

func (p *Pipeline) Run(ctx context.Context, u *ir.Unit) (err error) {
	for _, pass := range p.Passes {
		tr := tlog.SpawnFromContext(ctx, "pass", "pass", pass.Name(), "unit", u.Name)
		pctx := tlog.ContextWithSpan(ctx, tr)

		err = pass.Run(pctx, u)

		tr.Finish("err", err)

		if err != nil {
			return errors.Wrap(err, "pass %v", pass.Name())
		}
	}

	return nil
}

// RunUnits optimizes independent units concurrently.
// Passes must not keep state between units.
func RunUnits(ctx context.Context, p *Pipeline, units []*ir.Unit) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, u := range units {
		u := u

		g.Go(func() error {
			err := p.Run(ctx, u)
			if err != nil {
				return errors.Wrap(err, "unit %v", u.Name)
			}

			return nil
		})
	}

	return g.Wait()
}

func (Binder) Name() string { return "bind" }

func (Binder) Run(ctx context.Context, u *ir.Unit) error {
	return bind.Unit(ctx, u)
}
