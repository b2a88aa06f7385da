package ir

import (
	"fmt"

	"tlog.app/go/tlog/tlwire"

	"github.com/slowlang/tailopt/compiler/tp"
)

type (
	// Expr is a handle of a node in Unit.Exprs.
	Expr int

	// Var is a handle of a variable in Unit.Vars.
	Var int

	// Unit is a compilation unit.
	// Nodes are stored in an arena and refer to each other by handles.
	// A pass mutates the tree by replacing arena slots or child handles.
	// Replaced nodes stay in the arena unreachable.
	Unit struct {
		Name string
		Root Expr

		Exprs []any
		Vars  []Variable

		gensym int
	}

	Variable struct {
		Name string
		Type tp.Type

		Proc  Expr // declaring Proc, set by the binder
		Param bool

		// Lifted variables are captured by a nested Proc and live in a heap cell.
		Lifted bool

		Reassigned bool

		// Assumed is the sole initializer of the variable.
		// It's a backreference, not an owning edge.
		// Nil whenever Reassigned is set.
		Assumed Expr
	}
)

const (
	Nil   Expr = -1
	NoVar Var  = -1
)

func NewUnit(name string) *Unit {
	return &Unit{
		Name: name,
		Root: Nil,
	}
}

func (u *Unit) Alloc(x any) Expr {
	id := Expr(len(u.Exprs))

	u.Exprs = append(u.Exprs, x)

	return id
}

func (u *Unit) Set(id Expr, x any) {
	u.Exprs[id] = x
}

func (u *Unit) Node(id Expr) any {
	if id < 0 || int(id) >= len(u.Exprs) {
		panic(fmt.Sprintf("bad expr handle: %d of %d", id, len(u.Exprs)))
	}

	return u.Exprs[id]
}

func (u *Unit) Proc(id Expr) Proc {
	p, ok := u.Node(id).(Proc)
	if !ok {
		panic(fmt.Sprintf("expr %d: expected Proc, got %T", id, u.Exprs[id]))
	}

	return p
}

func (u *Unit) NewVar(name string, t tp.Type) Var {
	if t == nil {
		t = tp.Any{}
	}

	v := Var(len(u.Vars))

	u.Vars = append(u.Vars, Variable{
		Name:    name,
		Type:    t,
		Proc:    Nil,
		Assumed: Nil,
	})

	return v
}

func (u *Unit) Var(v Var) *Variable {
	return &u.Vars[v]
}

// MarkReassigned records an assignment to v after its initializing binding.
// The assumed value is stale from now on.
func (u *Unit) MarkReassigned(v Var) {
	x := &u.Vars[v]

	x.Reassigned = true
	x.Assumed = Nil
}

// SetAssumed records init as the sole initializer of v.
// It's no-op for reassigned variables.
func (u *Unit) SetAssumed(v Var, init Expr) {
	x := &u.Vars[v]

	if x.Reassigned {
		return
	}

	x.Assumed = init
}

// Gensym returns a name unique within the unit.
func (u *Unit) Gensym(prefix string) string {
again:
	u.gensym++

	name := fmt.Sprintf("%s.%d", prefix, u.gensym)

	for _, v := range u.Vars {
		if v.Name == name {
			goto again
		}
	}

	return name
}

func (v Variable) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	n := 2
	if v.Lifted || v.Reassigned {
		n++
	}
	if v.Assumed != Nil {
		n++
	}

	b = e.AppendMap(b, n)

	b = e.AppendString(b, "name")
	b = e.AppendString(b, v.Name)

	b = e.AppendString(b, "type")
	b = e.AppendString(b, fmt.Sprintf("%v", v.Type))

	if v.Lifted || v.Reassigned {
		flags := ""
		if v.Lifted {
			flags = "lifted"
		}
		if v.Reassigned {
			if flags != "" {
				flags += ","
			}

			flags += "reassigned"
		}

		b = e.AppendString(b, "flags")
		b = e.AppendString(b, flags)
	}

	if v.Assumed != Nil {
		b = e.AppendString(b, "assumed")
		b = e.AppendInt(b, int(v.Assumed))
	}

	return b
}
