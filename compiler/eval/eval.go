package eval

import (
	"context"
	"fmt"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/tailopt/compiler/ir"
	"github.com/slowlang/tailopt/compiler/tp"
)

type (
	// Value is int64, bool, *Closure, []Value or nil.
	Value any

	Closure struct {
		Proc ir.Expr
		Env  *frame
	}

	Config struct {
		// MaxDepth limits the number of nested activations.
		MaxDepth int
	}

	Stats struct {
		Calls      int
		Iterations int
		MaxDepth   int
	}

	// Machine is a reference tree interpreter.
	// Each invocation is a nested Go call, while Labeled/Continue loop in place.
	Machine struct {
		Stats Stats

		u   *ir.Unit
		cfg Config
		ctx context.Context

		depth int
	}

	frame struct {
		proc   ir.Expr
		parent *frame
		vals   map[ir.Var]Value
	}

	ctlKind int

	// ctl is a pending control transfer.
	ctl struct {
		kind  ctlKind
		label ir.Expr
	}

	StackOverflowError struct {
		Depth int
	}

	TypeError struct {
		Want string
		Got  Value
	}
)

const (
	next ctlKind = iota
	ret
	cont
)

const DefaultMaxDepth = 10000

func DefaultConfig() Config {
	return Config{MaxDepth: DefaultMaxDepth}
}

func New(ctx context.Context, u *ir.Unit, cfg Config) *Machine {
	if cfg.MaxDepth == 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}

	return &Machine{
		u:   u,
		cfg: cfg,
		ctx: ctx,
	}
}

// Run invokes the unit root proc with the args.
func Run(ctx context.Context, u *ir.Unit, cfg Config, args ...Value) (Value, Stats, error) {
	m := New(ctx, u, cfg)

	v, err := m.Run(args...)

	return v, m.Stats, err
}

func (m *Machine) Run(args ...Value) (v Value, err error) {
	if _, ok := m.u.Node(m.u.Root).(ir.Proc); !ok {
		return nil, errors.New("unit root is %T, not a proc", m.u.Exprs[m.u.Root])
	}

	v, err = m.Invoke(&Closure{Proc: m.u.Root}, args...)

	tlog.SpanFromContext(m.ctx).Printw("evaluated", "unit", m.u.Name, "calls", m.Stats.Calls, "iterations", m.Stats.Iterations, "max_depth", m.Stats.MaxDepth, "err", err)

	return v, err
}

func (m *Machine) Invoke(c *Closure, args ...Value) (v Value, err error) {
	p := m.u.Proc(c.Proc)

	if len(args) != len(p.Params) {
		return nil, errors.New("%v: %d args expected, got %d", p.Name, len(p.Params), len(args))
	}

	m.depth++
	defer func() {
		m.depth--
	}()

	if m.depth > m.cfg.MaxDepth {
		return nil, StackOverflowError{Depth: m.depth}
	}

	m.Stats.Calls++
	if m.depth > m.Stats.MaxDepth {
		m.Stats.MaxDepth = m.depth
	}

	fr := &frame{
		proc:   c.Proc,
		parent: c.Env,
		vals:   make(map[ir.Var]Value, len(p.Params)+len(p.Locals)),
	}

	for i, par := range p.Params {
		fr.vals[par] = args[i]
	}

	v, c2, err := m.eval(fr, p.Body)
	if err != nil {
		return nil, errors.Wrap(err, "%v", p.Name)
	}

	if c2.kind == cont {
		return nil, errors.New("%v: continue to %d escaped the proc", p.Name, c2.label)
	}

	return v, nil
}

func (m *Machine) eval(fr *frame, id ir.Expr) (v Value, c ctl, err error) {
	if id == ir.Nil {
		return nil, c, nil
	}

	switch x := m.u.Node(id).(type) {
	case ir.Const:
		return x.Value, c, nil
	case ir.Ref:
		v, err = m.load(fr, x.Var)
		return v, c, err
	case ir.Assign:
		v, c, err = m.eval(fr, x.X)
		if err != nil || c.kind != next {
			return v, c, err
		}

		err = m.store(fr, x.Var, v)

		return v, c, err
	case ir.Seq:
		for _, e := range x {
			v, c, err = m.eval(fr, e)
			if err != nil || c.kind != next {
				return v, c, err
			}
		}

		return v, c, nil
	case ir.Return:
		v, c, err = m.eval(fr, x.X)
		if err != nil || c.kind != next {
			return v, c, err
		}

		return v, ctl{kind: ret}, nil
	case ir.Cond:
		v, c, err = m.eval(fr, x.Test)
		if err != nil || c.kind != next {
			return v, c, err
		}

		t, ok := v.(bool)
		if !ok {
			return nil, c, TypeError{Want: "bool", Got: v}
		}

		if t {
			return m.eval(fr, x.Then)
		}

		return m.eval(fr, x.Else)
	case ir.Not:
		v, c, err = m.eval(fr, x.X)
		if err != nil || c.kind != next {
			return v, c, err
		}

		t, ok := v.(bool)
		if !ok {
			return nil, c, TypeError{Want: "bool", Got: v}
		}

		return !t, c, nil
	case ir.Labeled:
		for {
			v, c, err = m.eval(fr, x.Body)
			if err != nil || c.kind != cont || c.label != id {
				return v, c, err
			}

			m.Stats.Iterations++

			if m.Stats.Iterations&0xffff == 0 && m.ctx.Err() != nil {
				return nil, ctl{}, m.ctx.Err()
			}
		}
	case ir.Continue:
		return nil, ctl{kind: cont, label: x.Label}, nil
	case ir.BinOp:
		vals, c, err := m.operands(fr, x.L, x.R)
		if err != nil || c.kind != next {
			return nil, c, err
		}

		v, err = binop(x.Op, vals[0], vals[1])

		return v, c, err
	case ir.Convert:
		return m.eval(fr, x.X)
	case ir.ProcRef:
		return &Closure{Proc: x.Proc, Env: fr}, c, nil
	case ir.Proc:
		return &Closure{Proc: id, Env: fr}, c, nil
	case ir.Call:
		return m.call(fr, x)
	default:
		return nil, c, errors.New("eval %d: unsupported node %T", id, x)
	}
}

func (m *Machine) call(fr *frame, x ir.Call) (v Value, c ctl, err error) {
	switch x.Method {
	case ir.Create:
		if len(x.Args) == 0 {
			return nil, c, errors.New("create: no proc")
		}

		return m.eval(fr, x.Args[0])
	case ir.MakeArgs:
		vals, c, err := m.operands(fr, x.Args...)
		if err != nil || c.kind != next {
			return nil, c, err
		}

		return vals, c, nil
	case ir.Invoke, ir.InvokeArgs:
	default:
		return nil, c, errors.New("unsupported method: %v", x.Method)
	}

	recv, c, err := m.eval(fr, x.Recv)
	if err != nil || c.kind != next {
		return recv, c, err
	}

	cl, ok := recv.(*Closure)
	if !ok {
		return nil, c, TypeError{Want: "callable", Got: recv}
	}

	args, c, err := m.operands(fr, x.Args...)
	if err != nil || c.kind != next {
		return nil, c, err
	}

	spread := x.Method == ir.InvokeArgs ||
		len(x.Args) == 1 && m.u.TypeOf(x.Args[0]) == (tp.ArgList{})

	if spread {
		if len(args) != 1 {
			return nil, c, errors.New("invoke*: one argument array expected, got %d args", len(args))
		}

		arr, ok := args[0].([]Value)
		if !ok {
			return nil, c, TypeError{Want: "args", Got: args[0]}
		}

		args = arr
	}

	v, err = m.Invoke(cl, args...)

	return v, c, err
}

func (m *Machine) operands(fr *frame, ids ...ir.Expr) (vals []Value, c ctl, err error) {
	vals = make([]Value, len(ids))

	for i, id := range ids {
		vals[i], c, err = m.eval(fr, id)
		if err != nil || c.kind != next {
			return nil, c, err
		}
	}

	return vals, c, nil
}

func (m *Machine) lookup(fr *frame, v ir.Var) (*frame, error) {
	if v == ir.NoVar {
		return nil, errors.New("unbound variable reference")
	}

	decl := m.u.Vars[v].Proc

	for f := fr; f != nil; f = f.parent {
		if f.proc == decl {
			return f, nil
		}
	}

	return nil, errors.New("variable %v: no activation of its proc", m.u.Vars[v].Name)
}

func (m *Machine) load(fr *frame, v ir.Var) (Value, error) {
	f, err := m.lookup(fr, v)
	if err != nil {
		return nil, err
	}

	x, ok := f.vals[v]
	if !ok {
		return nil, errors.New("variable %v used before assignment", m.u.Vars[v].Name)
	}

	return x, nil
}

func (m *Machine) store(fr *frame, v ir.Var, x Value) error {
	f, err := m.lookup(fr, v)
	if err != nil {
		return err
	}

	f.vals[v] = x

	return nil
}

func binop(op string, l, r Value) (Value, error) {
	if op == "=" {
		if lb, ok := l.(bool); ok {
			rb, ok := r.(bool)
			if !ok {
				return nil, TypeError{Want: "bool", Got: r}
			}

			return lb == rb, nil
		}
	}

	a, ok := l.(int64)
	if !ok {
		return nil, TypeError{Want: "int", Got: l}
	}

	b, ok := r.(int64)
	if !ok {
		return nil, TypeError{Want: "int", Got: r}
	}

	switch op {
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "=":
		return a == b, nil
	case "<":
		return a < b, nil
	default:
		return nil, errors.New("unsupported op: %q", op)
	}
}

// IsStackOverflow reports whether err is caused by exceeding Config.MaxDepth.
func IsStackOverflow(err error) bool {
	var e StackOverflowError

	return errors.As(err, &e)
}

func (e StackOverflowError) Error() string {
	return fmt.Sprintf("stack overflow: depth %d", e.Depth)
}

func (e TypeError) Error() string {
	return fmt.Sprintf("%v expected, got %v (%[2]T)", e.Want, e.Got)
}
