package bind

import (
	"context"
	"fmt"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/tailopt/compiler/ir"
	"github.com/slowlang/tailopt/compiler/set"
	"github.com/slowlang/tailopt/compiler/walk"
)

type (
	binder struct {
		walk.Base

		u *ir.Unit

		scopes []scope

		refs int
	}

	scope struct {
		proc  ir.Expr
		names map[string]ir.Var
		free  set.Bits[ir.Var]
	}

	UnresolvedVarError struct {
		Name string
		Proc string
	}

	UnresolvedLabelError struct {
		Label ir.Expr
		Proc  string
	}

	DuplicateVarError struct {
		Name string
		Proc string
	}
)

// Unit binds the whole compilation unit starting from its root.
func Unit(ctx context.Context, u *ir.Unit) error {
	if u.Root == ir.Nil {
		return errors.New("unit %v: no root", u.Name)
	}

	if p, ok := u.Node(u.Root).(ir.Proc); ok && p.Parent != ir.Nil {
		p.Parent = ir.Nil
		u.Set(u.Root, p)
	}

	return Bind(ctx, u, u.Root)
}

// Bind resolves every variable reference in the subtree rooted at proc
// to its declaring variable and registers loop labels.
// Procs enclosing proc must have been bound before.
func Bind(ctx context.Context, u *ir.Unit, proc ir.Expr) (err error) {
	b := &binder{u: u}

	if p, ok := u.Node(proc).(ir.Proc); ok {
		err = b.enclosing(p.Parent)
		if err != nil {
			return err
		}
	}

	err = walk.Walk(ctx, u, b, proc)
	if err != nil {
		return errors.Wrap(err, "bind %v", procName(u, proc))
	}

	tlog.SpanFromContext(ctx).Printw("bound", "unit", u.Name, "proc", procName(u, proc), "refs", b.refs, "vars", len(u.Vars))

	return nil
}

func (b *binder) enclosing(id ir.Expr) error {
	if id == ir.Nil {
		return nil
	}

	p, ok := b.u.Node(id).(ir.Proc)
	if !ok {
		return errors.New("proc parent %d is %T", id, b.u.Exprs[id])
	}

	err := b.enclosing(p.Parent)
	if err != nil {
		return err
	}

	return b.push(id, p)
}

func (b *binder) push(id ir.Expr, p ir.Proc) error {
	s := scope{
		proc:  id,
		names: make(map[string]ir.Var, len(p.Params)+len(p.Locals)),
	}

	declare := func(v ir.Var, param bool) error {
		x := b.u.Var(v)

		if _, ok := s.names[x.Name]; ok {
			return NewDuplicateVar(x.Name, p.Name)
		}

		s.names[x.Name] = v

		x.Proc = id
		x.Param = param

		return nil
	}

	for _, v := range p.Params {
		if err := declare(v, true); err != nil {
			return err
		}
	}

	for _, v := range p.Locals {
		if err := declare(v, false); err != nil {
			return err
		}
	}

	b.scopes = append(b.scopes, s)

	return nil
}

func (b *binder) resolve(name string) (ir.Var, bool) {
	for i := len(b.scopes) - 1; i >= 0; i-- {
		v, ok := b.scopes[i].names[name]
		if !ok {
			continue
		}

		for j := i + 1; j < len(b.scopes); j++ {
			b.scopes[j].free.Set(v)
		}

		return v, true
	}

	return ir.NoVar, false
}

func (b *binder) current() string {
	if len(b.scopes) == 0 {
		return ""
	}

	return b.u.Proc(b.scopes[len(b.scopes)-1].proc).Name
}

func (b *binder) name(name string, v ir.Var) (string, ir.Var, error) {
	if name == "" && v != ir.NoVar {
		name = b.u.Vars[v].Name
	}

	v, ok := b.resolve(name)
	if !ok {
		return name, v, NewUnresolvedVar(name, b.current())
	}

	b.refs++

	return name, v, nil
}

func (b *binder) Proc(w *walk.Walker, id ir.Expr, x ir.Proc) (bool, error) {
	x.Parent = ir.Nil
	if len(b.scopes) != 0 {
		x.Parent = b.scopes[len(b.scopes)-1].proc
	}

	x.Label = ir.Nil
	x.Free = nil

	b.u.Set(id, x)

	err := b.push(id, x)
	if err != nil {
		return false, err
	}

	return true, nil
}

func (b *binder) Leave(w *walk.Walker, id ir.Expr) error {
	x, ok := b.u.Node(id).(ir.Proc)
	if !ok {
		return nil
	}

	last := len(b.scopes) - 1
	s := b.scopes[last]
	b.scopes = b.scopes[:last]

	if s.proc != id {
		panic(fmt.Sprintf("scope mismatch: %d != %d", s.proc, id))
	}

	x.Free = s.free.Slice()

	b.u.Set(id, x)

	tlog.SpanFromContext(w.Context()).V("bind").Printw("proc bound", "proc", x.Name, "free", s.free)

	return nil
}

func (b *binder) Ref(w *walk.Walker, id ir.Expr, x ir.Ref) (_ bool, err error) {
	x.Name, x.Var, err = b.name(x.Name, x.Var)
	if err != nil {
		return false, err
	}

	b.u.Set(id, x)

	return true, nil
}

func (b *binder) Assign(w *walk.Walker, id ir.Expr, x ir.Assign) (_ bool, err error) {
	x.Name, x.Var, err = b.name(x.Name, x.Var)
	if err != nil {
		return false, err
	}

	b.u.Set(id, x)

	return true, nil
}

func (b *binder) Labeled(w *walk.Walker, id ir.Expr, x ir.Labeled) (bool, error) {
	pid := w.Proc()
	if pid == ir.Nil || w.Parent() != pid {
		return true, nil
	}

	p := b.u.Proc(pid)
	if p.Body != id {
		return true, nil
	}

	p.Label = id
	b.u.Set(pid, p)

	return true, nil
}

func (b *binder) Continue(w *walk.Walker, id ir.Expr, x ir.Continue) (bool, error) {
	path := w.Path()

	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == x.Label {
			if _, ok := b.u.Node(x.Label).(ir.Labeled); ok {
				return true, nil
			}

			break
		}

		if _, ok := b.u.Node(path[i]).(ir.Proc); ok {
			break
		}
	}

	return false, NewUnresolvedLabel(x.Label, b.current())
}

func procName(u *ir.Unit, id ir.Expr) string {
	if p, ok := u.Node(id).(ir.Proc); ok {
		return p.Name
	}

	return fmt.Sprintf("expr %d", id)
}

func NewUnresolvedVar(name, proc string) UnresolvedVarError {
	return UnresolvedVarError{Name: name, Proc: proc}
}

func NewUnresolvedLabel(l ir.Expr, proc string) UnresolvedLabelError {
	return UnresolvedLabelError{Label: l, Proc: proc}
}

func NewDuplicateVar(name, proc string) DuplicateVarError {
	return DuplicateVarError{Name: name, Proc: proc}
}

func (e UnresolvedVarError) Error() string {
	return fmt.Sprintf("unresolved variable %q in %v", e.Name, e.Proc)
}

func (e UnresolvedLabelError) Error() string {
	return fmt.Sprintf("continue to label %d outside of it in %v", e.Label, e.Proc)
}

func (e DuplicateVarError) Error() string {
	return fmt.Sprintf("variable %q declared twice in %v", e.Name, e.Proc)
}
