package milp

import (
	"context"
	"fmt"
	"math"
)

// lpSolve solves a relaxation in bounded standard form. It can be overridden
// in tests to simulate solver failures.
var lpSolve = solveBounded

// column maps a standard-form column to a model variable: x[v] += sign*y.
type column struct {
	v    int
	sign float64
}

type relaxation struct {
	status Status
	obj    float64
	x      []float64
}

// relax solves the LP relaxation of m with the given variable bounds.
// Variables with a finite lower bound are shifted, variables with only an
// upper bound are mirrored and free variables are split, so every column
// lies in [0, u]. Constraints become rows a*y + s = b with a bounded slack s.
func (m *Model) relax(ctx context.Context, lb, ub []float64, tol float64) (relaxation, error) {
	n := len(m.vars)
	base := make([]float64, n)
	colsOf := make([][]int, n)
	var cols []column
	var upper []float64
	for j := 0; j < n; j++ {
		switch {
		case ub[j]-lb[j] <= zeroTol:
			base[j] = lb[j]
		case !math.IsInf(lb[j], -1):
			base[j] = lb[j]
			colsOf[j] = []int{len(cols)}
			cols = append(cols, column{v: j, sign: 1})
			upper = append(upper, ub[j]-lb[j])
		case !math.IsInf(ub[j], 1):
			base[j] = ub[j]
			colsOf[j] = []int{len(cols)}
			cols = append(cols, column{v: j, sign: -1})
			upper = append(upper, math.Inf(1))
		default:
			colsOf[j] = []int{len(cols), len(cols) + 1}
			cols = append(cols, column{v: j, sign: 1}, column{v: j, sign: -1})
			upper = append(upper, math.Inf(1), math.Inf(1))
		}
	}

	p := &lpProblem{c: make([]float64, len(cols)), upper: upper}
	objCoef := make([]float64, n)
	for _, t := range m.obj.Terms {
		objCoef[t.Var] += t.Coef
	}
	for k, col := range cols {
		p.c[k] = objCoef[col.v] * col.sign
	}

	scratch := make([]float64, len(cols))
	var touched []int
	for _, c := range m.cons {
		if c.sense == Range && math.IsInf(c.lo, -1) && math.IsInf(c.rhs, 1) {
			continue
		}
		shift := c.expr.Constant
		touched = touched[:0]
		for _, t := range c.expr.Terms {
			shift += t.Coef * base[t.Var]
			for _, k := range colsOf[t.Var] {
				if scratch[k] == 0 {
					touched = append(touched, k)
				}
				scratch[k] += t.Coef * cols[k].sign
			}
		}
		var row []entry
		for _, k := range touched {
			if v := scratch[k]; math.Abs(v) > zeroTol {
				row = append(row, entry{col: k, val: v})
			}
			scratch[k] = 0
		}

		// hi and span describe a*y in [hi-span, hi]; a >= row is negated.
		var hi, span float64
		switch c.sense {
		case LessEq:
			hi, span = c.rhs-shift, math.Inf(1)
		case GreaterEq:
			hi, span = -(c.rhs - shift), math.Inf(1)
			negate(row)
		case Equal:
			hi, span = c.rhs-shift, 0
		case Range:
			if math.IsInf(c.rhs, 1) {
				hi, span = -(c.lo - shift), math.Inf(1)
				negate(row)
			} else {
				hi, span = c.rhs-shift, c.rhs-c.lo
			}
		}
		if len(row) == 0 {
			if hi < -tol || hi-span > tol {
				return relaxation{status: Infeasible}, nil
			}
			continue
		}
		p.rows = append(p.rows, row)
		p.b = append(p.b, hi)
		p.span = append(p.span, span)
	}

	res, err := lpSolve(ctx, p, tol)
	if err != nil {
		return relaxation{}, fmt.Errorf("milp: simplex: %w", err)
	}
	if res.status != Optimal {
		return relaxation{status: res.status}, nil
	}

	x := make([]float64, n)
	copy(x, base)
	for k, col := range cols {
		x[col.v] += col.sign * res.y[k]
	}
	return relaxation{status: Optimal, obj: m.obj.eval(x), x: x}, nil
}

func negate(row []entry) {
	for i := range row {
		row[i].val = -row[i].val
	}
}
