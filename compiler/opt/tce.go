package opt

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/slowlang/tailopt/compiler/bind"
	"github.com/slowlang/tailopt/compiler/ir"
	"github.com/slowlang/tailopt/compiler/tp"
	"github.com/slowlang/tailopt/compiler/walk"
)

type (
	// TailCalls turns provable self tail calls into loop iterations.
	// Calls with more than MaxArgs arguments are kept, so the zero value keeps all but nullary ones.
	TailCalls struct {
		MaxArgs int
	}

	tails struct {
		walk.Base

		maxArgs int

		n int
	}

	// Reason is why a tail call was left as an ordinary call.
	Reason string
)

const (
	NotTail       Reason = "not in tail position"
	StaticCall    Reason = "no receiver"
	NotVar        Reason = "receiver is not a variable"
	NotCallable   Reason = "receiver is not callable"
	NotLifted     Reason = "receiver is not lifted"
	Reassigned    Reason = "receiver is reassigned"
	NoAssumed     Reason = "receiver has no assumed value"
	NotInvoke     Reason = "not a generic invocation"
	ArgList       Reason = "argument array call"
	NotCreate     Reason = "assumed value is not a create call"
	OtherProc     Reason = "receiver holds another procedure"
	TooManyArgs   Reason = "too many arguments"
	ArityMismatch Reason = "arity mismatch"
	CapturedParam Reason = "parameter captured by a closure"
)

func (TailCalls) Name() string { return "tailcalls" }

func (t TailCalls) Run(ctx context.Context, u *ir.Unit) error {
	_, err := t.Eliminate(ctx, u)
	return err
}

// Eliminate returns the number of calls turned into loop iterations.
func (t TailCalls) Eliminate(ctx context.Context, u *ir.Unit) (n int, err error) {
	v := &tails{
		maxArgs: t.MaxArgs,
	}

	err = walk.Walk(ctx, u, v, u.Root)
	if err != nil {
		return v.n, err
	}

	err = bind.Unit(ctx, u)
	if err != nil {
		return v.n, errors.Wrap(err, "rebind unit")
	}

	tlog.SpanFromContext(ctx).Printw("tail calls eliminated", "unit", u.Name, "rewritten", v.n)

	return v.n, nil
}

func (v *tails) Return(w *walk.Walker, id ir.Expr, x ir.Return) (bool, error) {
	if x.X == ir.Nil {
		return true, nil
	}

	call, ok := w.Unit.Node(x.X).(ir.Call)
	if !ok {
		return true, nil
	}

	proc := w.Proc()
	if proc == ir.Nil {
		return true, nil
	}

	if r := v.check(w.Unit, proc, call); r != "" {
		tlog.SpanFromContext(w.Context()).Printw("tail call kept", "proc", w.Unit.Proc(proc).Name, "call", x.X, "reason", r)

		return true, nil
	}

	err := v.rewrite(w, proc, id, x, call)
	if err != nil {
		return false, errors.Wrap(err, "rewrite call %d", x.X)
	}

	return true, nil
}

// Eligible reports whether call made from proc is a self tail call safe to turn into a loop.
// It returns "" in that case or the first failed condition.
func Eligible(u *ir.Unit, proc ir.Expr, call ir.Call, maxArgs int) Reason {
	v := tails{maxArgs: maxArgs}

	return v.check(u, proc, call)
}

func (v *tails) check(u *ir.Unit, proc ir.Expr, call ir.Call) Reason {
	if !call.Tail {
		return NotTail
	}

	if call.Recv == ir.Nil {
		return StaticCall
	}

	ref, ok := u.Node(unwrap(u, call.Recv)).(ir.Ref)
	if !ok || ref.Var == ir.NoVar {
		return NotVar
	}

	rv := u.Vars[ref.Var]

	if !tp.IsCallable(rv.Type) {
		return NotCallable
	}

	switch {
	case !rv.Lifted:
		return NotLifted
	case rv.Reassigned:
		return Reassigned
	case rv.Assumed == ir.Nil:
		return NoAssumed
	}

	if call.Method != ir.Invoke {
		return NotInvoke
	}

	if len(call.Args) == 1 && u.TypeOf(call.Args[0]) == (tp.ArgList{}) {
		return ArgList
	}

	av, ok := u.Node(rv.Assumed).(ir.Call)
	if !ok || av.Method != ir.Create || len(av.Args) == 0 {
		return NotCreate
	}

	pr, ok := u.Node(av.Args[0]).(ir.ProcRef)
	if !ok || pr.Proc != proc {
		return OtherProc
	}

	if len(call.Args) > v.maxArgs {
		return TooManyArgs
	}

	p := u.Proc(proc)

	if len(call.Args) != len(p.Params) {
		return ArityMismatch
	}

	// a loop reuses the param cells, closures from earlier iterations would see later values
	for _, par := range p.Params {
		if u.Vars[par].Lifted {
			return CapturedParam
		}
	}

	return ""
}

// rewrite replaces (return (invoke f a...)) with
// (return (begin (set! t a)... (set! p t)... (continue L)))
// where L labels the proc body.
func (v *tails) rewrite(w *walk.Walker, pid, id ir.Expr, x ir.Return, call ir.Call) error {
	u := w.Unit
	p := u.Proc(pid)

	label := p.Body
	if _, ok := u.Node(p.Body).(ir.Labeled); !ok {
		label = u.Alloc(ir.Labeled{Body: p.Body})
		p.Body = label
	}

	seq := make(ir.Seq, 0, 2*len(p.Params)+1)
	temps := make([]ir.Var, len(p.Params))

	for i, par := range p.Params {
		pv := u.Vars[par]

		t := u.NewVar(u.Gensym(pv.Name), pv.Type)
		u.Var(t).Proc = pid
		temps[i] = t

		p.Locals = append(p.Locals, t)

		seq = append(seq, u.Alloc(ir.Assign{
			Name: u.Vars[t].Name,
			Var:  t,
			X:    call.Args[i],
			Init: true,
		}))
	}

	for i, par := range p.Params {
		t := temps[i]

		ref := u.Alloc(ir.Ref{Name: u.Vars[t].Name, Var: t})

		seq = append(seq, u.Alloc(ir.Assign{
			Name: u.Vars[par].Name,
			Var:  par,
			X:    ref,
		}))

		u.MarkReassigned(par)
	}

	seq = append(seq, u.Alloc(ir.Continue{Label: label}))

	x.X = u.Alloc(seq)

	u.Set(id, x)
	u.Set(pid, p)

	v.n++

	tlog.SpanFromContext(w.Context()).Printw("self tail call", "proc", p.Name, "call", id, "args", len(call.Args), "label", label, "from", loc.Callers(1, 2))

	return bind.Bind(w.Context(), u, pid)
}

// unwrap strips pass-through conversions.
func unwrap(u *ir.Unit, id ir.Expr) ir.Expr {
	for {
		c, ok := u.Node(id).(ir.Convert)
		if !ok {
			return id
		}

		id = c.X
	}
}
