package compiler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/tailopt/compiler/eval"
	"github.com/slowlang/tailopt/compiler/front"
	"github.com/slowlang/tailopt/compiler/ir"
	"github.com/slowlang/tailopt/compiler/opt"
	"github.com/slowlang/tailopt/compiler/progs"
)

func build(t *testing.T, mk func() *ir.Unit, optimize bool) *ir.Unit {
	t.Helper()

	ctx := context.Background()

	u := mk()

	err := front.Annotate(ctx, u)
	require.NoError(t, err)

	if optimize {
		err = Optimize(ctx, u, opt.DefaultConfig())
		require.NoError(t, err)
	}

	return u
}

func run(t *testing.T, u *ir.Unit, args ...eval.Value) (eval.Value, eval.Stats) {
	t.Helper()

	v, st, err := eval.Run(context.Background(), u, eval.DefaultConfig(), args...)
	require.NoError(t, err)

	return v, st
}

func TestFactorial(t *testing.T) {
	u := build(t, progs.Fact, true)

	v, st := run(t, u, int64(10), int64(1))

	assert.Equal(t, int64(3628800), v)
	assert.Equal(t, 2, st.MaxDepth)
	assert.Equal(t, 2, st.Calls)
	assert.Equal(t, 10, st.Iterations)
}

func TestFactorialLarge(t *testing.T) {
	u := build(t, progs.Fact, true)

	_, st := run(t, u, int64(100000), int64(1))

	assert.Equal(t, 2, st.MaxDepth)
}

func TestFactorialMatchesReference(t *testing.T) {
	want := int64(1)

	for n := int64(0); n <= 12; n++ {
		if n != 0 {
			want *= n
		}

		plain, _ := run(t, build(t, progs.Fact, false), n, int64(1))
		optimized, _ := run(t, build(t, progs.Fact, true), n, int64(1))

		assert.Equal(t, want, plain, "n = %d", n)
		assert.Equal(t, want, optimized, "n = %d", n)
	}
}

func TestBoundedStack(t *testing.T) {
	const n = 1_000_000

	u := build(t, progs.Sum, true)

	v, st := run(t, u, int64(n), int64(0))

	assert.Equal(t, int64(n*(n+1)/2), v)
	assert.LessOrEqual(t, st.MaxDepth, 2)
	assert.Equal(t, n, st.Iterations)

	plain := build(t, progs.Sum, false)

	_, _, err := eval.Run(context.Background(), plain, eval.DefaultConfig(), int64(n), int64(0))
	assert.True(t, eval.IsStackOverflow(err), "err: %v", err)

	_, st = run(t, plain, int64(1000), int64(0))
	assert.Greater(t, st.MaxDepth, 1000)
}

func TestEquivalence(t *testing.T) {
	for _, tc := range []struct {
		name string
		mk   func() *ir.Unit
		args int
	}{
		{"fact", progs.Fact, 2},
		{"sum", progs.Sum, 2},
		{"twins", progs.Twins, 2},
		{"convert", func() *ir.Unit { return progs.Loop{Op: "+", ConvertRecv: true}.Build("convert") }, 2},
		{"reassign", func() *ir.Unit { return progs.Loop{Op: "+", Reassign: true}.Build("reassign") }, 2},
		{"nontail", func() *ir.Unit { return progs.Loop{Op: "+", NonTail: true}.Build("nontail") }, 2},
		{"argarray", func() *ir.Unit { return progs.Loop{Op: "+", ArgArray: true}.Build("argarray") }, 2},
		{"reassign_inside", func() *ir.Unit { return progs.Loop{Op: "+", ReassignInside: true}.Build("reassign_inside") }, 2},
		{"capture", progs.Capture, 1},
		{"many8", func() *ir.Unit { return progs.Many(8) }, 8},
		{"many9", func() *ir.Unit { return progs.Many(9) }, 9},
	} {
		t.Run(tc.name, func(t *testing.T) {
			for _, n := range []int64{0, 1, 2, 7, 20} {
				args := make([]eval.Value, tc.args)
				for i := range args {
					args[i] = int64(1)
				}

				args[0] = n

				plain, _ := run(t, build(t, tc.mk, false), args...)
				optimized, _ := run(t, build(t, tc.mk, true), args...)

				assert.Equal(t, plain, optimized, "n = %d", n)
			}
		})
	}
}

func TestCapturedParam(t *testing.T) {
	for _, n := range []int64{0, 1, 2, 5} {
		want := int64(1)
		if n == 0 {
			want = 100
		}

		plain, _ := run(t, build(t, progs.Capture, false), n)
		optimized, _ := run(t, build(t, progs.Capture, true), n)

		assert.Equal(t, want, plain, "n = %d", n)
		assert.Equal(t, want, optimized, "n = %d", n)
	}
}

func TestOptimizeUnits(t *testing.T) {
	ctx := context.Background()

	var units []*ir.Unit

	for _, name := range []string{"../testdata/fact.yaml", "../testdata/countdown.yaml"} {
		u, err := LoadFile(ctx, name)
		require.NoError(t, err)

		units = append(units, u)
	}

	err := OptimizeUnits(ctx, units, opt.DefaultConfig())
	require.NoError(t, err)

	v, st := run(t, units[0], int64(10), int64(1))
	assert.Equal(t, int64(3628800), v)
	assert.Equal(t, 2, st.MaxDepth)

	v, st = run(t, units[1], int64(100000))
	assert.Equal(t, true, v)
	assert.Equal(t, 2, st.MaxDepth)
}

func TestOptimizeFile(t *testing.T) {
	ctx := context.Background()

	u, err := OptimizeFile(ctx, "../testdata/fact.yaml", opt.DefaultConfig())
	require.NoError(t, err)

	v, st := run(t, u, int64(10), int64(1))
	assert.Equal(t, int64(3628800), v)
	assert.Equal(t, 2, st.MaxDepth)

	u, err = OptimizeFile(ctx, "../testdata/countdown.yaml", opt.DefaultConfig())
	require.NoError(t, err)

	v, st = run(t, u, int64(100000))
	assert.Equal(t, true, v)
	assert.Equal(t, 2, st.MaxDepth)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(context.Background(), "../testdata/missing.yaml")
	assert.Error(t, err)
}
