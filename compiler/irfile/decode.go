package irfile

import (
	"math"

	"tlog.app/go/errors"

	"github.com/slowlang/tailopt/compiler/ir"
	"github.com/slowlang/tailopt/compiler/tp"
)

type (
	decoder struct {
		u *ir.Unit

		labels []ir.Expr
	}
)

func (d *decoder) node(n *Node) (id ir.Expr, err error) {
	if n == nil {
		return ir.Nil, nil
	}

	u := d.u

	switch {
	case n.Proc != "":
		return d.proc(n)
	case n.Cond != nil:
		ids, err := d.nodes(n.Cond, n.Then, n.Else)
		if err != nil {
			return ir.Nil, errors.Wrap(err, "cond")
		}

		return u.If(ids[0], ids[1], ids[2]), nil
	case n.Not != nil:
		x, err := d.node(n.Not)
		if err != nil {
			return ir.Nil, errors.Wrap(err, "not")
		}

		return u.Not(x), nil
	case n.Call != "":
		return d.call(n)
	case n.Return != nil:
		x, err := d.node(n.Return)
		if err != nil {
			return ir.Nil, errors.Wrap(err, "return")
		}

		return u.Return(x), nil
	case n.Ref != "":
		return u.Ref(n.Ref), nil
	case n.Define != "" || n.Assign != "":
		x, err := d.node(n.Value)
		if err != nil {
			return ir.Nil, errors.Wrap(err, "assign")
		}

		if n.Define != "" {
			return u.Define(n.Define, x), nil
		}

		return u.Assign(n.Assign, x), nil
	case n.Seq != nil:
		ids, err := d.nodes(n.Seq...)
		if err != nil {
			return ir.Nil, errors.Wrap(err, "seq")
		}

		return u.Begin(ids...), nil
	case n.Labeled != nil:
		id = u.Alloc(ir.Labeled{Body: ir.Nil})

		d.labels = append(d.labels, id)

		body, err := d.node(n.Labeled)

		d.labels = d.labels[:len(d.labels)-1]

		if err != nil {
			return ir.Nil, errors.Wrap(err, "labeled")
		}

		u.Set(id, ir.Labeled{Body: body})

		return id, nil
	case n.Continue:
		if len(d.labels) == 0 {
			return ir.Nil, errors.New("continue outside of labeled")
		}

		return u.Alloc(ir.Continue{Label: d.labels[len(d.labels)-1]}), nil
	case n.ProcRef != nil:
		p, err := d.node(n.ProcRef)
		if err != nil {
			return ir.Nil, errors.Wrap(err, "procref")
		}

		if _, ok := u.Node(p).(ir.Proc); !ok {
			return ir.Nil, errors.New("procref: proc expected, got %T", u.Exprs[p])
		}

		return u.Alloc(ir.ProcRef{Proc: p}), nil
	case n.Const != nil:
		v, err := constant(n.Const)
		if err != nil {
			return ir.Nil, err
		}

		return u.Alloc(ir.Const{Value: v}), nil
	case n.BinOp != "":
		ids, err := d.nodes(n.L, n.R)
		if err != nil {
			return ir.Nil, errors.Wrap(err, "binop %v", n.BinOp)
		}

		return u.Bin(n.BinOp, ids[0], ids[1]), nil
	case n.Convert != nil:
		t, err := tp.Parse(n.Type)
		if err != nil {
			return ir.Nil, errors.Wrap(err, "convert")
		}

		x, err := d.node(n.Convert)
		if err != nil {
			return ir.Nil, errors.Wrap(err, "convert")
		}

		return u.Convert(x, t), nil
	case n.Field != "":
		x, err := d.node(n.Of)
		if err != nil {
			return ir.Nil, errors.Wrap(err, "field %v", n.Field)
		}

		return u.Field(x, n.Field), nil
	default:
		return ir.Nil, errors.New("empty node")
	}
}

func (d *decoder) nodes(ns ...*Node) (ids []ir.Expr, err error) {
	ids = make([]ir.Expr, len(ns))

	for i, n := range ns {
		ids[i], err = d.node(n)
		if err != nil {
			return nil, errors.Wrap(err, "%d", i)
		}
	}

	return ids, nil
}

func (d *decoder) proc(n *Node) (id ir.Expr, err error) {
	params, err := d.vars(n.Params)
	if err != nil {
		return ir.Nil, errors.Wrap(err, "proc %v: params", n.Proc)
	}

	locals, err := d.vars(n.Locals)
	if err != nil {
		return ir.Nil, errors.Wrap(err, "proc %v: locals", n.Proc)
	}

	labels := d.labels
	d.labels = nil

	body, err := d.node(n.Body)

	d.labels = labels

	if err != nil {
		return ir.Nil, errors.Wrap(err, "proc %v", n.Proc)
	}

	return d.u.Lambda(n.Proc, params, locals, body), nil
}

func (d *decoder) vars(decls []VarDecl) (vs []ir.Var, err error) {
	for _, decl := range decls {
		t, err := tp.Parse(decl.Type)
		if err != nil {
			return nil, errors.Wrap(err, "%v", decl.Name)
		}

		v := d.u.NewVar(decl.Name, t)

		x := d.u.Var(v)
		x.Lifted = decl.Lifted

		if decl.Reassigned {
			d.u.MarkReassigned(v)
		}

		vs = append(vs, v)
	}

	return vs, nil
}

func (d *decoder) call(n *Node) (id ir.Expr, err error) {
	m, ok := ir.ParseMethod(n.Call)
	if !ok {
		return ir.Nil, errors.New("unknown method: %q", n.Call)
	}

	recv, err := d.node(n.Recv)
	if err != nil {
		return ir.Nil, errors.Wrap(err, "%v: recv", n.Call)
	}

	args, err := d.nodes(n.Args...)
	if err != nil {
		return ir.Nil, errors.Wrap(err, "%v: args", n.Call)
	}

	return d.u.Alloc(ir.Call{
		Recv:   recv,
		Method: m,
		Args:   args,
		Tail:   n.Tail,
	}), nil
}

func constant(v any) (any, error) {
	switch v := v.(type) {
	case bool:
		return v, nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case uint64:
		if v > math.MaxInt64 {
			return nil, errors.New("const out of range: %v", v)
		}

		return int64(v), nil
	default:
		return nil, errors.New("unsupported const: %v (%[1]T)", v)
	}
}
