package milp

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// randomBoxedLP builds min c*x s.t. G*x <= h, sum(x) >= 0.5, sum(x) <= 10,
// 0 <= x <= u, both as a Model and as gonum's equality form with one slack
// per row.
func randomBoxedLP(rnd *rand.Rand, rows, cols int) (*Model, []float64, *mat.Dense, []float64) {
	m := NewModel()
	vars := make([]Var, cols)
	c := make([]float64, cols)
	u := make([]float64, cols)
	var obj Expr
	for j := range vars {
		u[j] = 1 + 2*rnd.Float64()
		vars[j] = m.AddVar(0, u[j], "x")
		c[j] = 2*rnd.Float64() - 1
		obj.Add(vars[j], c[j])
	}
	m.SetObjective(obj)

	// gonum rows: G, -sum, sum, identity for the bounds.
	total := rows + 2 + cols
	A := mat.NewDense(total, cols+total, nil)
	b := make([]float64, total)
	for i := 0; i < rows; i++ {
		var e Expr
		for j := range vars {
			g := rnd.Float64()
			e.Add(vars[j], g)
			A.Set(i, j, g)
		}
		b[i] = 1 + rnd.Float64()
		m.AddConstraint(e, LessEq, b[i], "g")
	}
	var sum Expr
	for j := range vars {
		sum.Add(vars[j], 1)
		A.Set(rows, j, -1)
		A.Set(rows+1, j, 1)
		A.Set(rows+2+j, j, 1)
		b[rows+2+j] = u[j]
	}
	b[rows], b[rows+1] = -0.5, 10
	m.AddConstraint(sum, GreaterEq, 0.5, "lo")
	m.AddConstraint(sum, LessEq, 10, "hi")
	for i := 0; i < total; i++ {
		A.Set(i, cols+i, 1)
	}
	cFull := make([]float64, cols+total)
	copy(cFull, c)
	return m, cFull, A, b
}

func TestBoundedSimplexMatchesGonum(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	for trial := 0; trial < 20; trial++ {
		m, c, A, b := randomBoxedLP(rnd, 3+trial%4, 4+trial%5)
		want, _, err := lp.Simplex(c, A, b, 1e-10, nil)
		require.NoError(t, err, "trial %d", trial)

		sol, err := m.Solve(context.Background(), Options{})
		require.NoError(t, err, "trial %d", trial)
		require.Equal(t, Optimal, sol.Status, "trial %d", trial)
		assert.InDelta(t, want, sol.Objective, 1e-6, "trial %d", trial)
		assert.True(t, m.feasible(sol.Values, 1e-6), "trial %d", trial)
	}
}

func TestSolve_Range(t *testing.T) {
	m := NewModel()
	x := m.AddVar(math.Inf(-1), math.Inf(1), "x")
	y := m.AddVar(0, 4, "y")
	m.AddRange(expr(0, Term{x, 1}, Term{y, 1}), -2, 3, "band")
	m.AddRange(expr(0, Term{x, 1}), -1, math.Inf(1), "x_lo")
	m.SetObjective(expr(0, Term{x, 1}, Term{y, 2}))

	sol, err := m.Solve(context.Background(), Options{})
	require.NoError(t, err)
	require.Equal(t, Optimal, sol.Status)
	assert.InDelta(t, -1, sol.Value(x), 1e-9)
	assert.InDelta(t, 0, sol.Value(y), 1e-9)

	m.SetObjective(expr(0, Term{x, -1}, Term{y, -1}))
	sol, err = m.Solve(context.Background(), Options{})
	require.NoError(t, err)
	assert.InDelta(t, -3, sol.Objective, 1e-9)
}

func TestSolve_EmptyRange(t *testing.T) {
	m := NewModel()
	x := m.AddVar(0, 1, "x")
	m.AddRange(expr(0, Term{x, 1}), 2, 1, "empty")
	_, err := m.Solve(context.Background(), Options{})
	assert.Error(t, err)
}

// A column that reaches its upper bound before any row blocks it flips
// bounds without a pivot.
func TestSolve_BoundFlip(t *testing.T) {
	m := NewModel()
	x := m.AddVar(0, 2, "x")
	y := m.AddVar(0, 5, "y")
	m.AddConstraint(expr(0, Term{x, 1}, Term{y, 1}), LessEq, 4, "sum")
	m.SetObjective(expr(0, Term{x, -3}, Term{y, -1}))

	sol, err := m.Solve(context.Background(), Options{})
	require.NoError(t, err)
	require.Equal(t, Optimal, sol.Status)
	assert.InDelta(t, 2, sol.Value(x), 1e-9)
	assert.InDelta(t, 2, sol.Value(y), 1e-9)
}

// Many identical rows through the origin make every pivot degenerate.
func TestSolve_DegenerateTerminates(t *testing.T) {
	m := NewModel()
	x := m.AddVar(0, math.Inf(1), "x")
	y := m.AddVar(0, math.Inf(1), "y")
	for i := 0; i < 30; i++ {
		m.AddConstraint(expr(0, Term{x, 1}, Term{y, -1}), LessEq, 0, "tie")
		m.AddConstraint(expr(0, Term{x, -1}, Term{y, 1}), LessEq, 0, "tie")
	}
	m.AddConstraint(expr(0, Term{x, 1}, Term{y, 1}), LessEq, 2, "cap")
	m.SetObjective(expr(0, Term{x, -1}, Term{y, -2}))

	sol, err := m.Solve(context.Background(), Options{})
	require.NoError(t, err)
	require.Equal(t, Optimal, sol.Status)
	assert.InDelta(t, 1, sol.Value(x), 1e-9)
	assert.InDelta(t, 1, sol.Value(y), 1e-9)
}
