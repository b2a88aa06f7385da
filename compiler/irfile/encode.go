package irfile

import (
	"tlog.app/go/errors"

	"github.com/slowlang/tailopt/compiler/ir"
)

type (
	encoder struct {
		u *ir.Unit
	}
)

func (e *encoder) node(id ir.Expr) (n *Node, err error) {
	if id == ir.Nil {
		return nil, nil
	}

	u := e.u
	n = &Node{}

	switch x := u.Node(id).(type) {
	case ir.Proc:
		n.Proc = x.Name
		n.Params = e.vars(x.Params)
		n.Locals = e.vars(x.Locals)

		n.Body, err = e.node(x.Body)
		if err != nil {
			return nil, errors.Wrap(err, "proc %v", x.Name)
		}
	case ir.Cond:
		ns, err := e.nodes(x.Test, x.Then, x.Else)
		if err != nil {
			return nil, errors.Wrap(err, "cond")
		}

		n.Cond, n.Then, n.Else = ns[0], ns[1], ns[2]
	case ir.Not:
		n.Not, err = e.node(x.X)
	case ir.Call:
		n.Call = x.Method.String()
		n.Tail = x.Tail

		n.Recv, err = e.node(x.Recv)
		if err != nil {
			return nil, errors.Wrap(err, "recv")
		}

		n.Args, err = e.nodes(x.Args...)
	case ir.Return:
		n.Return, err = e.node(x.X)
	case ir.Ref:
		n.Ref = e.name(x.Name, x.Var)
	case ir.Assign:
		if x.Init {
			n.Define = e.name(x.Name, x.Var)
		} else {
			n.Assign = e.name(x.Name, x.Var)
		}

		n.Value, err = e.node(x.X)
	case ir.Seq:
		n.Seq, err = e.nodes(x...)
	case ir.Labeled:
		n.Labeled, err = e.node(x.Body)
	case ir.Continue:
		n.Continue = true
	case ir.ProcRef:
		n.ProcRef, err = e.node(x.Proc)
	case ir.Const:
		n.Const = x.Value
	case ir.BinOp:
		n.BinOp = x.Op

		n.L, err = e.node(x.L)
		if err != nil {
			return nil, err
		}

		n.R, err = e.node(x.R)
	case ir.Convert:
		n.Type = x.Type.String()
		n.Convert, err = e.node(x.X)
	case ir.Field:
		n.Field = x.Name
		n.Of, err = e.node(x.X)
	default:
		return nil, errors.New("unsupported node %d: %T", id, x)
	}

	if err != nil {
		return nil, err
	}

	return n, nil
}

func (e *encoder) nodes(ids ...ir.Expr) (ns []*Node, err error) {
	for _, id := range ids {
		n, err := e.node(id)
		if err != nil {
			return nil, err
		}

		ns = append(ns, n)
	}

	return ns, nil
}

func (e *encoder) vars(vs []ir.Var) (ds []VarDecl) {
	for _, v := range vs {
		x := e.u.Vars[v]

		ds = append(ds, VarDecl{
			Name:       x.Name,
			Type:       x.Type.String(),
			Lifted:     x.Lifted,
			Reassigned: x.Reassigned,
		})
	}

	return ds
}

func (e *encoder) name(name string, v ir.Var) string {
	if name == "" && v != ir.NoVar {
		return e.u.Vars[v].Name
	}

	return name
}
