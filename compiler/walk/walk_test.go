package walk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/tailopt/compiler/ir"
)

type (
	recorder struct {
		Base

		visited []ir.Expr
		left    []ir.Expr
		procs   map[ir.Expr]ir.Expr

		cond func(w *Walker, id ir.Expr, x ir.Cond) (bool, error)
	}
)

func (r *recorder) add(w *Walker, id ir.Expr) (bool, error) {
	r.visited = append(r.visited, id)

	if r.procs != nil {
		r.procs[id] = w.Proc()
	}

	return true, nil
}

func (r *recorder) Cond(w *Walker, id ir.Expr, x ir.Cond) (bool, error) {
	r.visited = append(r.visited, id)

	if r.cond != nil {
		return r.cond(w, id, x)
	}

	return true, nil
}

func (r *recorder) Not(w *Walker, id ir.Expr, x ir.Not) (bool, error)       { return r.add(w, id) }
func (r *recorder) Return(w *Walker, id ir.Expr, x ir.Return) (bool, error) { return r.add(w, id) }
func (r *recorder) Ref(w *Walker, id ir.Expr, x ir.Ref) (bool, error)       { return r.add(w, id) }
func (r *recorder) Const(w *Walker, id ir.Expr, x ir.Const) (bool, error)   { return r.add(w, id) }
func (r *recorder) Seq(w *Walker, id ir.Expr, x ir.Seq) (bool, error)       { return r.add(w, id) }
func (r *recorder) Proc(w *Walker, id ir.Expr, x ir.Proc) (bool, error)     { return r.add(w, id) }

func (r *recorder) Leave(w *Walker, id ir.Expr) error {
	r.left = append(r.left, id)
	return nil
}

func TestWalkPreOrder(t *testing.T) {
	u := ir.NewUnit("t")

	a := u.Ref("a")
	n := u.Not(a)
	one := u.Int(1)
	two := u.Int(2)
	c := u.If(n, one, two)
	r := u.Return(c)

	rec := &recorder{}

	err := Walk(context.Background(), u, rec, r)
	require.NoError(t, err)

	assert.Equal(t, []ir.Expr{r, c, n, a, one, two}, rec.visited)
	assert.Equal(t, []ir.Expr{a, n, one, two, c, r}, rec.left)
}

func TestWalkPrune(t *testing.T) {
	u := ir.NewUnit("t")

	c := u.If(u.Ref("a"), u.Int(1), u.Int(2))
	r := u.Return(c)

	rec := &recorder{
		cond: func(w *Walker, id ir.Expr, x ir.Cond) (bool, error) {
			return false, nil
		},
	}

	err := Walk(context.Background(), u, rec, r)
	require.NoError(t, err)

	assert.Equal(t, []ir.Expr{r, c}, rec.visited)
	assert.Equal(t, []ir.Expr{r}, rec.left)
}

func TestWalkSeesMutation(t *testing.T) {
	u := ir.NewUnit("t")

	a := u.Ref("a")
	n := u.Not(a)
	one := u.Int(1)
	two := u.Int(2)
	c := u.If(n, one, two)

	rec := &recorder{
		cond: func(w *Walker, id ir.Expr, x ir.Cond) (bool, error) {
			x.Test = w.Unit.Node(x.Test).(ir.Not).X
			x.Then, x.Else = x.Else, x.Then

			w.Unit.Set(id, x)

			return true, nil
		},
	}

	err := Walk(context.Background(), u, rec, c)
	require.NoError(t, err)

	assert.Equal(t, []ir.Expr{c, a, two, one}, rec.visited)
	assert.NotContains(t, rec.visited, n)
}

func TestWalkVisitsOnce(t *testing.T) {
	u := ir.NewUnit("t")

	shared := u.Int(1)
	r := u.Return(shared)
	s := u.Begin(shared, shared, r)

	rec := &recorder{}

	err := Walk(context.Background(), u, rec, s)
	require.NoError(t, err)

	assert.Equal(t, []ir.Expr{s, shared, r}, rec.visited)
}

func TestWalkProc(t *testing.T) {
	u := ir.NewUnit("t")

	inner := u.Ref("x")
	g := u.Lambda("g", nil, nil, inner)
	outer := u.Ref("y")
	body := u.Begin(outer, g)
	f := u.Lambda("f", nil, nil, body)

	rec := &recorder{procs: map[ir.Expr]ir.Expr{}}

	err := Walk(context.Background(), u, rec, f)
	require.NoError(t, err)

	assert.Equal(t, ir.Nil, rec.procs[f])
	assert.Equal(t, f, rec.procs[body])
	assert.Equal(t, f, rec.procs[outer])
	assert.Equal(t, f, rec.procs[g])
	assert.Equal(t, g, rec.procs[inner])
}

type pathRecorder struct {
	Base

	path []ir.Expr
}

func (r *pathRecorder) Const(w *Walker, id ir.Expr, x ir.Const) (bool, error) {
	r.path = append([]ir.Expr{}, w.Path()...)

	return true, nil
}

func TestWalkPath(t *testing.T) {
	u := ir.NewUnit("t")

	one := u.Int(1)
	r := u.Return(one)
	l := u.Alloc(ir.Labeled{Body: r})

	rec := &pathRecorder{}

	err := Walk(context.Background(), u, rec, l)
	require.NoError(t, err)

	assert.Equal(t, []ir.Expr{l, r}, rec.path)
}

func TestWalkUnsupported(t *testing.T) {
	u := ir.NewUnit("t")

	bad := u.Alloc(struct{ X int }{})
	s := u.Begin(u.Int(1), bad)

	err := Walk(context.Background(), u, Base{}, s)
	require.Error(t, err)

	assert.True(t, IsUnsupportedNode(err))

	var e UnsupportedNodeError
	require.ErrorAs(t, err, &e)
	assert.Equal(t, bad, e.ID)
}
