package ir

import "github.com/slowlang/tailopt/compiler/tp"

// Constructors used by the front end and tests.
// Refs and assigns are built by name and resolved by the binder.

func (u *Unit) If(test, then, els Expr) Expr {
	return u.Alloc(Cond{Test: test, Then: then, Else: els})
}

func (u *Unit) Not(x Expr) Expr {
	return u.Alloc(Not{X: x})
}

func (u *Unit) Return(x Expr) Expr {
	return u.Alloc(Return{X: x})
}

func (u *Unit) Ref(name string) Expr {
	return u.Alloc(Ref{Name: name, Var: NoVar})
}

func (u *Unit) Define(name string, x Expr) Expr {
	return u.Alloc(Assign{Name: name, Var: NoVar, X: x, Init: true})
}

func (u *Unit) Assign(name string, x Expr) Expr {
	return u.Alloc(Assign{Name: name, Var: NoVar, X: x})
}

func (u *Unit) Begin(xs ...Expr) Expr {
	return u.Alloc(Seq(xs))
}

func (u *Unit) Int(v int64) Expr {
	return u.Alloc(Const{Value: v})
}

func (u *Unit) Bool(v bool) Expr {
	return u.Alloc(Const{Value: v})
}

func (u *Unit) Bin(op string, l, r Expr) Expr {
	return u.Alloc(BinOp{Op: op, L: l, R: r})
}

func (u *Unit) Convert(x Expr, t tp.Type) Expr {
	return u.Alloc(Convert{X: x, Type: t})
}

func (u *Unit) Field(x Expr, name string) Expr {
	return u.Alloc(Field{X: x, Name: name})
}

func (u *Unit) Invoke(recv Expr, args ...Expr) Expr {
	return u.Alloc(Call{Recv: recv, Method: Invoke, Args: args})
}

func (u *Unit) InvokeArgs(recv, args Expr) Expr {
	return u.Alloc(Call{Recv: recv, Method: InvokeArgs, Args: []Expr{args}})
}

func (u *Unit) MakeArgs(args ...Expr) Expr {
	return u.Alloc(Call{Recv: Nil, Method: MakeArgs, Args: args})
}

// Create builds a Callable of the proc.
func (u *Unit) Create(proc Expr) Expr {
	ref := u.Alloc(ProcRef{Proc: proc})

	return u.Alloc(Call{Recv: Nil, Method: Create, Args: []Expr{ref}})
}

func (u *Unit) Lambda(name string, params, locals []Var, body Expr) Expr {
	return u.Alloc(Proc{
		Name:   name,
		Params: params,
		Locals: locals,
		Body:   body,
		Parent: Nil,
		Label:  Nil,
	})
}
