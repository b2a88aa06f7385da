package progs

import (
	"fmt"

	"github.com/slowlang/tailopt/compiler/ir"
	"github.com/slowlang/tailopt/compiler/tp"
)

type (
	// Loop describes variations of
	//
	//	f(n, acc) = if n = 0 then acc else f(n-1, acc op n)
	//	main(n, acc) = f(n, acc)
	Loop struct {
		Op string

		// Negate tests (not (= n 0)) with swapped branches.
		Negate bool

		// ConvertRecv wraps the self reference into a conversion.
		ConvertRecv bool

		// Reassign assigns f after its definition.
		Reassign bool

		// ReassignInside assigns f to itself at the start of its own body.
		ReassignInside bool

		// NonTail adds 0 to the recursive call result.
		NonTail bool

		// FieldRecv calls through a field of f.
		FieldRecv bool

		// ArgArray passes arguments as one built array.
		ArgArray bool
	}
)

// Fact is f(n, acc) = if n = 0 then acc else f(n-1, acc*n).
func Fact() *ir.Unit {
	return Loop{Op: "*"}.Build("fact")
}

// Sum is f(n, acc) = if not (n = 0) then f(n-1, acc+n) else acc.
func Sum() *ir.Unit {
	return Loop{Op: "+", Negate: true}.Build("sum")
}

func (l Loop) Build(name string) *ir.Unit {
	u := ir.NewUnit(name)

	if l.Op == "" {
		l.Op = "*"
	}

	fproc := l.proc(u, "f", "f")

	return mainProc(u, []string{"n", "acc"}, map[string]ir.Expr{"f": fproc}, []string{"f"}, l.Reassign)
}

func (l Loop) proc(u *ir.Unit, name, callee string) ir.Expr {
	n := u.NewVar("n", tp.Int64)
	acc := u.NewVar("acc", tp.Int64)

	recv := u.Ref(callee)

	switch {
	case l.ConvertRecv:
		recv = u.Convert(recv, tp.Callable{})
	case l.FieldRecv:
		recv = u.Field(recv, "self")
	}

	args := []ir.Expr{
		u.Bin("-", u.Ref("n"), u.Int(1)),
		u.Bin(l.Op, u.Ref("acc"), u.Ref("n")),
	}

	var call ir.Expr
	if l.ArgArray {
		call = u.Invoke(recv, u.MakeArgs(args...))
	} else {
		call = u.Invoke(recv, args...)
	}

	if l.NonTail {
		call = u.Bin("+", u.Int(0), call)
	}

	test := u.Bin("=", u.Ref("n"), u.Int(0))
	base := u.Return(u.Ref("acc"))
	rec := u.Return(call)

	var body ir.Expr
	if l.Negate {
		body = u.If(u.Not(test), rec, base)
	} else {
		body = u.If(test, base, rec)
	}

	if l.ReassignInside {
		body = u.Begin(u.Assign(callee, u.Ref(callee)), body)
	}

	return u.Lambda(name, []ir.Var{n, acc}, nil, body)
}

// Many has k parameters:
//
//	f(a0, a1, ..., ak) = if a0 = 0 then a1 else f(a0-1, a1+1, a2, ..., ak)
func Many(k int) *ir.Unit {
	u := ir.NewUnit(fmt.Sprintf("many%d", k))

	names := make([]string, k)
	params := make([]ir.Var, k)

	for i := range names {
		names[i] = fmt.Sprintf("a%d", i)
		params[i] = u.NewVar(names[i], tp.Int64)
	}

	args := make([]ir.Expr, k)
	for i, a := range names {
		switch i {
		case 0:
			args[i] = u.Bin("-", u.Ref(a), u.Int(1))
		case 1:
			args[i] = u.Bin("+", u.Ref(a), u.Int(1))
		default:
			args[i] = u.Ref(a)
		}
	}

	body := u.If(
		u.Bin("=", u.Ref("a0"), u.Int(0)),
		u.Return(u.Ref("a1")),
		u.Return(u.Invoke(u.Ref("f"), args...)),
	)

	f := u.Lambda("f", params, nil, body)

	return mainProc(u, names, map[string]ir.Expr{"f": f}, []string{"f"}, false)
}

// Capture builds a closure over the loop parameter on each iteration:
//
//	f(n, k) = if n = 0 then k() else f(n-1, lambda() n)
//	main(n) = f(n, lambda() 100)
//
// Every closure must see the n of its own activation.
func Capture() *ir.Unit {
	u := ir.NewUnit("capture")

	n := u.NewVar("n", tp.Int64)
	k := u.NewVar("k", tp.Callable{})

	get := u.Lambda("get", nil, nil, u.Return(u.Ref("n")))

	body := u.If(
		u.Bin("=", u.Ref("n"), u.Int(0)),
		u.Return(u.Invoke(u.Ref("k"))),
		u.Return(u.Invoke(u.Ref("f"), u.Bin("-", u.Ref("n"), u.Int(1)), u.Create(get))),
	)

	f := u.Lambda("f", []ir.Var{n, k}, nil, body)

	mn := u.NewVar("n", tp.Int64)
	fv := u.NewVar("f", tp.Callable{})

	start := u.Lambda("init", nil, nil, u.Return(u.Int(100)))

	u.Root = u.Lambda("main", []ir.Var{mn}, []ir.Var{fv}, u.Begin(
		u.Define("f", u.Create(f)),
		u.Return(u.Invoke(u.Ref("f"), u.Ref("n"), u.Create(start))),
	))

	return u
}

// Twins has two structurally equal procs f and g.
// f calls g in tail position, g calls itself.
func Twins() *ir.Unit {
	u := ir.NewUnit("twins")

	l := Loop{Op: "*"}

	f := l.proc(u, "f", "g")
	g := l.proc(u, "g", "g")

	return mainProc(u, []string{"n", "acc"}, map[string]ir.Expr{"f": f, "g": g}, []string{"f", "g"}, false)
}

// mainProc makes the unit root
//
//	main(params...) = define each proc; return f(params...)
func mainProc(u *ir.Unit, params []string, procs map[string]ir.Expr, order []string, reassign bool) *ir.Unit {
	ps := make([]ir.Var, len(params))
	args := make([]ir.Expr, len(params))

	for i, p := range params {
		ps[i] = u.NewVar(p, tp.Int64)
		args[i] = u.Ref(p)
	}

	var locals []ir.Var
	var forms []ir.Expr

	for _, name := range order {
		locals = append(locals, u.NewVar(name, tp.Callable{}))
		forms = append(forms, u.Define(name, u.Create(procs[name])))
	}

	if reassign {
		forms = append(forms, u.Assign(order[0], u.Ref(order[0])))
	}

	forms = append(forms, u.Return(u.Invoke(u.Ref(order[0]), args...)))

	u.Root = u.Lambda("main", ps, locals, u.Begin(forms...))

	return u
}
