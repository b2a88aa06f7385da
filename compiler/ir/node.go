package ir

import "github.com/slowlang/tailopt/compiler/tp"

type (
	Method int

	Cond struct {
		Test Expr
		Then Expr
		Else Expr
	}

	Not struct {
		X Expr
	}

	Call struct {
		Recv   Expr // Nil for static calls
		Method Method
		Args   []Expr

		// Tail is set by the front end from the syntactic context.
		Tail bool
	}

	Return struct {
		X Expr
	}

	Ref struct {
		Name string
		Var  Var
	}

	Assign struct {
		Name string
		Var  Var
		X    Expr

		// Init marks the initializing binding of the variable.
		Init bool
	}

	// Seq evaluates all the exprs in order. The value is the last one.
	Seq []Expr

	// Labeled is a loop re-entry point.
	Labeled struct {
		Body Expr
	}

	// Continue jumps to the entry of the Labeled node.
	Continue struct {
		Label Expr
	}

	Proc struct {
		Name string

		Params []Var
		Locals []Var
		Body   Expr

		// Set by the binder.
		Parent Expr
		Label  Expr
		Free   []Var
	}

	// ProcRef refers to a Proc node. Procs are identified by handle.
	ProcRef struct {
		Proc Expr
	}

	Const struct {
		Value any // int64 or bool
	}

	BinOp struct {
		Op   string
		L, R Expr
	}

	// Convert changes the static type only.
	Convert struct {
		X    Expr
		Type tp.Type
	}

	Field struct {
		X    Expr
		Name string
	}
)

const (
	// Invoke is the generic single entry invocation of a Callable.
	Invoke Method = iota

	// InvokeArgs is the catch-all invocation with an already built argument array.
	InvokeArgs

	// Create makes a Callable of a Proc.
	Create

	// MakeArgs builds an argument array.
	MakeArgs
)

var methodNames = []string{
	Invoke:     "invoke",
	InvokeArgs: "invoke*",
	Create:     "create",
	MakeArgs:   "args",
}

func ParseMethod(s string) (Method, bool) {
	for m, n := range methodNames {
		if n == s {
			return Method(m), true
		}
	}

	return 0, false
}

func (m Method) String() string {
	if m < 0 || int(m) >= len(methodNames) {
		return "method?"
	}

	return methodNames[m]
}

// TypeOf returns the static type of the expression.
func (u *Unit) TypeOf(id Expr) tp.Type {
	switch x := u.Node(id).(type) {
	case Const:
		if _, ok := x.Value.(bool); ok {
			return tp.Bool{}
		}

		return tp.Int64
	case BinOp:
		switch x.Op {
		case "=", "<":
			return tp.Bool{}
		}

		return tp.Int64
	case Not:
		return tp.Bool{}
	case Ref:
		if x.Var == NoVar {
			return tp.Any{}
		}

		return u.Vars[x.Var].Type
	case Assign:
		return u.TypeOf(x.X)
	case Convert:
		return x.Type
	case ProcRef, Proc:
		return tp.Callable{}
	case Call:
		switch x.Method {
		case Create:
			return tp.Callable{}
		case MakeArgs:
			return tp.ArgList{}
		}

		return tp.Any{}
	case Seq:
		if len(x) == 0 {
			return tp.Any{}
		}

		return u.TypeOf(x[len(x)-1])
	default:
		return tp.Any{}
	}
}
