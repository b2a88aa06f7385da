package walk

import (
	"context"
	"fmt"

	"tlog.app/go/errors"

	"github.com/slowlang/tailopt/compiler/ir"
	"github.com/slowlang/tailopt/compiler/set"
)

type (
	// Visitor has a hook per node kind.
	// A hook is called before the node children are visited.
	// Returning false prunes the children.
	// A hook may mutate the node and its children;
	// the walker descends into the node as it is after the hook returns.
	Visitor interface {
		Cond(w *Walker, id ir.Expr, x ir.Cond) (bool, error)
		Not(w *Walker, id ir.Expr, x ir.Not) (bool, error)
		Call(w *Walker, id ir.Expr, x ir.Call) (bool, error)
		Return(w *Walker, id ir.Expr, x ir.Return) (bool, error)
		Ref(w *Walker, id ir.Expr, x ir.Ref) (bool, error)
		Assign(w *Walker, id ir.Expr, x ir.Assign) (bool, error)
		Seq(w *Walker, id ir.Expr, x ir.Seq) (bool, error)
		Labeled(w *Walker, id ir.Expr, x ir.Labeled) (bool, error)
		Continue(w *Walker, id ir.Expr, x ir.Continue) (bool, error)
		Proc(w *Walker, id ir.Expr, x ir.Proc) (bool, error)
		ProcRef(w *Walker, id ir.Expr, x ir.ProcRef) (bool, error)
		Const(w *Walker, id ir.Expr, x ir.Const) (bool, error)
		BinOp(w *Walker, id ir.Expr, x ir.BinOp) (bool, error)
		Convert(w *Walker, id ir.Expr, x ir.Convert) (bool, error)
		Field(w *Walker, id ir.Expr, x ir.Field) (bool, error)

		// Leave is called after the children of a descended node are visited.
		Leave(w *Walker, id ir.Expr) error
	}

	// Base visits everything. Embed it and override what's needed.
	Base struct{}

	Walker struct {
		Unit *ir.Unit

		ctx context.Context
		v   Visitor

		path  []ir.Expr
		procs []ir.Expr

		visited set.Bits[ir.Expr]
	}

	UnsupportedNodeError struct {
		ID ir.Expr
		T  any
	}
)

// Walk visits the tree rooted at root depth first.
// Each node is visited at most once.
func Walk(ctx context.Context, u *ir.Unit, v Visitor, root ir.Expr) error {
	w := &Walker{
		Unit: u,
		ctx:  ctx,
		v:    v,
	}

	return w.Walk(root)
}

// Walk visits a subtree with the walker state.
// It may be called from a hook to visit a new subtree before returning.
func (w *Walker) Walk(id ir.Expr) (err error) {
	if id == ir.Nil || w.visited.IsSet(id) {
		return nil
	}

	w.visited.Set(id)

	var descend bool

	switch x := w.Unit.Node(id).(type) {
	case ir.Cond:
		descend, err = w.v.Cond(w, id, x)
	case ir.Not:
		descend, err = w.v.Not(w, id, x)
	case ir.Call:
		descend, err = w.v.Call(w, id, x)
	case ir.Return:
		descend, err = w.v.Return(w, id, x)
	case ir.Ref:
		descend, err = w.v.Ref(w, id, x)
	case ir.Assign:
		descend, err = w.v.Assign(w, id, x)
	case ir.Seq:
		descend, err = w.v.Seq(w, id, x)
	case ir.Labeled:
		descend, err = w.v.Labeled(w, id, x)
	case ir.Continue:
		descend, err = w.v.Continue(w, id, x)
	case ir.Proc:
		descend, err = w.v.Proc(w, id, x)
	case ir.ProcRef:
		descend, err = w.v.ProcRef(w, id, x)
	case ir.Const:
		descend, err = w.v.Const(w, id, x)
	case ir.BinOp:
		descend, err = w.v.BinOp(w, id, x)
	case ir.Convert:
		descend, err = w.v.Convert(w, id, x)
	case ir.Field:
		descend, err = w.v.Field(w, id, x)
	default:
		return NewUnsupportedNode(id, x)
	}

	if err != nil || !descend {
		return err
	}

	w.path = append(w.path, id)

	err = w.children(id)

	w.path = w.path[:len(w.path)-1]

	if err != nil {
		return err
	}

	return w.v.Leave(w, id)
}

func (w *Walker) children(id ir.Expr) (err error) {
	switch x := w.Unit.Node(id).(type) {
	case ir.Cond:
		return w.all(x.Test, x.Then, x.Else)
	case ir.Not:
		return w.Walk(x.X)
	case ir.Call:
		err = w.Walk(x.Recv)
		if err != nil {
			return err
		}

		return w.all(x.Args...)
	case ir.Return:
		return w.Walk(x.X)
	case ir.Assign:
		return w.Walk(x.X)
	case ir.Seq:
		return w.all(x...)
	case ir.Labeled:
		return w.Walk(x.Body)
	case ir.Proc:
		w.procs = append(w.procs, id)
		defer func() {
			w.procs = w.procs[:len(w.procs)-1]
		}()

		return w.Walk(x.Body)
	case ir.ProcRef:
		return w.Walk(x.Proc)
	case ir.BinOp:
		return w.all(x.L, x.R)
	case ir.Convert:
		return w.Walk(x.X)
	case ir.Field:
		return w.Walk(x.X)
	case ir.Ref, ir.Const, ir.Continue:
		return nil
	default:
		return NewUnsupportedNode(id, x)
	}
}

func (w *Walker) all(ids ...ir.Expr) error {
	for _, id := range ids {
		err := w.Walk(id)
		if err != nil {
			return err
		}
	}

	return nil
}

func (w *Walker) Context() context.Context { return w.ctx }

// Proc returns the innermost Proc enclosing the current node or ir.Nil.
// In a Proc hook it's the parent Proc.
func (w *Walker) Proc() ir.Expr {
	if len(w.procs) == 0 {
		return ir.Nil
	}

	return w.procs[len(w.procs)-1]
}

// Path returns ancestors of the current node, the root first.
// It must not be modified.
func (w *Walker) Path() []ir.Expr { return w.path }

func (w *Walker) Parent() ir.Expr {
	if len(w.path) == 0 {
		return ir.Nil
	}

	return w.path[len(w.path)-1]
}

func (w *Walker) Depth() int { return len(w.path) }

func NewUnsupportedNode(id ir.Expr, x any) UnsupportedNodeError {
	return UnsupportedNodeError{
		ID: id,
		T:  x,
	}
}

func (e UnsupportedNodeError) Error() string {
	return fmt.Sprintf("unsupported node %d: %T", e.ID, e.T)
}

// IsUnsupportedNode reports whether err is caused by an unknown node kind.
func IsUnsupportedNode(err error) bool {
	var e UnsupportedNodeError

	return errors.As(err, &e)
}
