package format

import (
	"context"
	"fmt"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"

	"github.com/slowlang/tailopt/compiler/ir"
)

// Format appends the expression as a one line s-expression.
func Format(ctx context.Context, b []byte, u *ir.Unit, id ir.Expr) ([]byte, error) {
	return format(ctx, b, u, id)
}

// String is Format for tests and logs. Errors are embedded in the result.
func String(u *ir.Unit, id ir.Expr) string {
	b, err := format(context.Background(), nil, u, id)
	if err != nil {
		b = hfmt.Appendf(b, "<%v>", err)
	}

	return string(b)
}

// Unit appends the unit root proc, one body form per line.
func Unit(ctx context.Context, b []byte, u *ir.Unit) (_ []byte, err error) {
	b = hfmt.Appendf(b, "; unit %v\n", u.Name)

	p, ok := u.Node(u.Root).(ir.Proc)
	if !ok {
		b, err = format(ctx, b, u, u.Root)
		if err != nil {
			return nil, err
		}

		return append(b, '\n'), nil
	}

	b = app(b, 0, "(lambda %v ", p.Name)
	b = vars(b, u, p.Params)

	if len(p.Locals) != 0 {
		b = append(b, " (locals "...)
		b = names(b, u, p.Locals)
		b = append(b, ')')
	}

	d := 1
	body := p.Body

	if l, ok := u.Node(body).(ir.Labeled); ok {
		b = append(b, '\n')
		b = app(b, d, "(label L%d", body)
		body = l.Body
		d++
	}

	forms := []ir.Expr{body}
	if s, ok := u.Node(body).(ir.Seq); ok {
		forms = s
	}

	for _, f := range forms {
		b = append(b, '\n')
		b = app(b, d, "")

		b, err = format(ctx, b, u, f)
		if err != nil {
			return nil, errors.Wrap(err, "form %d", f)
		}
	}

	if body != p.Body {
		b = append(b, ')')
	}

	b = append(b, ")\n"...)

	return b, nil
}

func format(ctx context.Context, b []byte, u *ir.Unit, id ir.Expr) (_ []byte, err error) {
	if id == ir.Nil {
		return append(b, "()"...), nil
	}

	switch x := u.Node(id).(type) {
	case ir.Const:
		switch v := x.Value.(type) {
		case bool:
			if v {
				return append(b, "#t"...), nil
			}

			return append(b, "#f"...), nil
		default:
			return hfmt.Appendf(b, "%v", v), nil
		}
	case ir.Ref:
		if x.Name == "" && x.Var != ir.NoVar {
			return append(b, u.Vars[x.Var].Name...), nil
		}

		return append(b, x.Name...), nil
	case ir.Cond:
		return list(ctx, b, u, "if", x.Test, x.Then, x.Else)
	case ir.Not:
		return list(ctx, b, u, "not", x.X)
	case ir.Return:
		return list(ctx, b, u, "return", x.X)
	case ir.Assign:
		op := "set!"
		if x.Init {
			op = "define"
		}

		name := x.Name
		if name == "" && x.Var != ir.NoVar {
			name = u.Vars[x.Var].Name
		}

		return list(ctx, b, u, op+" "+name, x.X)
	case ir.Seq:
		return list(ctx, b, u, "begin", x...)
	case ir.Labeled:
		return list(ctx, b, u, fmt.Sprintf("label L%d", id), x.Body)
	case ir.Continue:
		return hfmt.Appendf(b, "(continue L%d)", x.Label), nil
	case ir.BinOp:
		return list(ctx, b, u, x.Op, x.L, x.R)
	case ir.Convert:
		return list(ctx, b, u, "convert "+x.Type.String(), x.X)
	case ir.Field:
		b, err = list(ctx, b, u, "field", x.X)
		if err != nil {
			return nil, err
		}

		b = b[:len(b)-1]

		return hfmt.Appendf(b, " %s)", x.Name), nil
	case ir.Call:
		op := x.Method.String()
		if x.Tail {
			op += "/tail"
		}

		args := x.Args
		if x.Recv != ir.Nil {
			args = append([]ir.Expr{x.Recv}, args...)
		}

		return list(ctx, b, u, op, args...)
	case ir.ProcRef:
		return format(ctx, b, u, x.Proc)
	case ir.Proc:
		b = hfmt.Appendf(b, "(lambda %v ", x.Name)
		b = vars(b, u, x.Params)

		if len(x.Locals) != 0 {
			b = append(b, " (locals "...)
			b = names(b, u, x.Locals)
			b = append(b, ')')
		}

		b = append(b, ' ')

		b, err = format(ctx, b, u, x.Body)
		if err != nil {
			return nil, errors.Wrap(err, "proc %v", x.Name)
		}

		return append(b, ')'), nil
	default:
		return nil, errors.New("unsupported node %d: %T", id, x)
	}
}

func list(ctx context.Context, b []byte, u *ir.Unit, op string, args ...ir.Expr) (_ []byte, err error) {
	b = append(b, '(')
	b = append(b, op...)

	for _, a := range args {
		b = append(b, ' ')

		b, err = format(ctx, b, u, a)
		if err != nil {
			return nil, err
		}
	}

	return append(b, ')'), nil
}

func vars(b []byte, u *ir.Unit, vs []ir.Var) []byte {
	b = append(b, '(')
	b = names(b, u, vs)
	return append(b, ')')
}

func names(b []byte, u *ir.Unit, vs []ir.Var) []byte {
	for i, v := range vs {
		if i != 0 {
			b = append(b, ' ')
		}

		b = append(b, u.Vars[v].Name...)
	}

	return b
}

func app(b []byte, d int, f string, args ...any) []byte {
	const tabs = "\t\t\t\t\t\t\t\t\t\t\t\t\t\t\t"
	b = append(b, tabs[:d]...)
	b = hfmt.Appendf(b, f, args...)
	return b
}
