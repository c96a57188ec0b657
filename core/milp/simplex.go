package milp

import (
	"context"
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
)

// zeroTol treats smaller coefficients and bound gaps as zero.
const zeroTol = 1e-12

const (
	// pivotTol ignores tableau entries too small to pivot on.
	pivotTol = 1e-9
	// blandAfter switches to Bland's rule after this many consecutive
	// degenerate iterations.
	blandAfter = 50
	// cancelCheck is the number of iterations between context checks.
	cancelCheck = 64
)

// ErrIterationLimit is returned when the simplex does not terminate within
// its iteration budget.
var ErrIterationLimit = errors.New("milp: simplex iteration limit")

type entry struct {
	col int
	val float64
}

// lpProblem is a relaxation in bounded standard form:
//
//	min c*y  s.t.  rows[i]*y + s_i = b[i],  0 <= s_i <= span[i],  0 <= y <= upper
type lpProblem struct {
	c     []float64
	upper []float64
	rows  [][]entry
	b     []float64
	span  []float64
}

type lpResult struct {
	status Status
	y      []float64
}

// dictionary expresses every basic variable through the nonbasic ones:
// x[basis[i]] = value - sum_k tab[i][k] * x[nonbasic[k]]. Variables are
// numbered structural columns first, then one slack per row, then the
// artificial variables of phase one. All lower bounds are zero.
type dictionary struct {
	tab      [][]float64
	reduced  []float64 // reduced costs of the nonbasic columns
	basis    []int
	nonbasic []int
	val      []float64
	upper    []float64
	atUpper  []bool
	cost     []float64
	dualTol  float64
}

// solveBounded runs a two-phase primal simplex. Bounds are handled
// implicitly: nonbasic variables rest at zero or at their upper bound and may
// flip between them without a pivot.
func solveBounded(ctx context.Context, p *lpProblem, tol float64) (lpResult, error) {
	n, m := len(p.c), len(p.rows)
	var artRows []int
	for i := range p.rows {
		if p.b[i] < 0 || p.b[i] > p.span[i] {
			artRows = append(artRows, i)
		}
	}
	total := n + m + len(artRows)
	d := &dictionary{
		tab:      make([][]float64, m),
		basis:    make([]int, m),
		nonbasic: make([]int, 0, n+len(artRows)),
		val:      make([]float64, total),
		upper:    make([]float64, total),
		atUpper:  make([]bool, total),
		cost:     make([]float64, total),
	}
	copy(d.upper, p.upper)
	copy(d.upper[n:], p.span)
	for j := n + m; j < total; j++ {
		d.upper[j] = math.Inf(1)
	}
	for j := 0; j < n; j++ {
		d.nonbasic = append(d.nonbasic, j)
	}
	for _, i := range artRows {
		d.nonbasic = append(d.nonbasic, n+i)
	}

	width := len(d.nonbasic)
	art := 0
	for i, row := range p.rows {
		t := make([]float64, width)
		slack := n + i
		sign := 1.0
		if art < len(artRows) && artRows[art] == i {
			// x_art = sign*(b - a*y - s) with the slack parked at a bound.
			a := n + m + art
			if p.b[i] < 0 {
				sign = -1
			} else {
				d.val[slack] = p.span[i]
				d.atUpper[slack] = true
			}
			t[n+art] = sign
			d.basis[i] = a
			d.val[a] = sign * (p.b[i] - d.val[slack])
			art++
		} else {
			d.basis[i] = slack
			d.val[slack] = p.b[i]
		}
		for _, e := range row {
			t[e.col] += sign * e.val
		}
		d.tab[i] = t
	}

	maxCost := 1.0
	for _, c := range p.c {
		maxCost = math.Max(maxCost, math.Abs(c))
	}
	maxRHS := 1.0
	for _, b := range p.b {
		maxRHS = math.Max(maxRHS, math.Abs(b))
	}

	if len(artRows) > 0 {
		for j := n + m; j < total; j++ {
			d.cost[j] = 1
		}
		d.dualTol = tol
		d.price()
		if _, err := d.iterate(ctx, tol); err != nil {
			return lpResult{}, err
		}
		var infeas float64
		for j := n + m; j < total; j++ {
			infeas += d.val[j]
		}
		if infeas > 1e-7*maxRHS {
			return lpResult{status: Infeasible}, nil
		}
		for j := n + m; j < total; j++ {
			d.upper[j] = 0
			d.val[j] = 0
			d.atUpper[j] = false
			d.cost[j] = 0
		}
	}

	copy(d.cost, p.c)
	d.dualTol = tol * maxCost
	d.price()
	bounded, err := d.iterate(ctx, tol)
	if err != nil {
		return lpResult{}, err
	}
	if !bounded {
		return lpResult{status: Unbounded}, nil
	}

	y := make([]float64, n)
	for j := range y {
		y[j] = math.Min(math.Max(d.val[j], 0), d.upper[j])
	}
	return lpResult{status: Optimal, y: y}, nil
}

// price recomputes the reduced costs from the current cost vector.
func (d *dictionary) price() {
	d.reduced = make([]float64, len(d.nonbasic))
	for k, j := range d.nonbasic {
		d.reduced[k] = d.cost[j]
	}
	for i, b := range d.basis {
		if c := d.cost[b]; c != 0 {
			floats.AddScaled(d.reduced, -c, d.tab[i])
		}
	}
}

// iterate pivots until no improving column is left. It reports false when
// the objective is unbounded.
func (d *dictionary) iterate(ctx context.Context, tol float64) (bool, error) {
	limit := 50*(len(d.basis)+len(d.nonbasic)) + 1000
	degenerate := 0
	for iter := 0; ; iter++ {
		if iter >= limit {
			return false, ErrIterationLimit
		}
		if iter%cancelCheck == 0 {
			if err := ctx.Err(); err != nil {
				return false, err
			}
		}
		bland := degenerate > blandAfter
		k, dir := d.entering(bland)
		if k < 0 {
			return true, nil
		}
		r, theta := d.leaving(k, dir, bland)
		if math.IsInf(theta, 1) {
			return false, nil
		}
		d.move(k, dir, theta)
		if r < 0 {
			j := d.nonbasic[k]
			d.atUpper[j] = !d.atUpper[j]
			if d.atUpper[j] {
				d.val[j] = d.upper[j]
			} else {
				d.val[j] = 0
			}
		} else {
			d.pivot(r, k, dir)
		}
		if theta <= tol {
			degenerate++
		} else {
			degenerate = 0
		}
	}
}

// entering picks the nonbasic column with the most attractive reduced cost,
// or the lowest variable index under Bland's rule. dir is +1 when the
// variable should increase from zero and -1 when it should leave its upper
// bound.
func (d *dictionary) entering(bland bool) (int, float64) {
	best, dir := -1, 0.0
	bestScore := 0.0
	for k, j := range d.nonbasic {
		if d.upper[j] <= zeroTol {
			continue
		}
		rc := d.reduced[k]
		var cand float64
		switch {
		case !d.atUpper[j] && rc < -d.dualTol:
			cand = 1
		case d.atUpper[j] && rc > d.dualTol:
			cand = -1
		default:
			continue
		}
		if bland {
			if best < 0 || j < d.nonbasic[best] {
				best, dir = k, cand
			}
			continue
		}
		if score := math.Abs(rc); score > bestScore {
			best, dir, bestScore = k, cand, score
		}
	}
	return best, dir
}

// leaving runs the ratio test for column k moving in direction dir. It
// returns the blocking row, or -1 when the column reaches its own bound
// first, and the step length.
func (d *dictionary) leaving(k int, dir float64, bland bool) (int, float64) {
	r := -1
	theta := d.upper[d.nonbasic[k]]
	var pivot float64
	for i, row := range d.tab {
		a := row[k] * dir
		if math.Abs(a) <= pivotTol {
			continue
		}
		b := d.basis[i]
		var lim float64
		if a > 0 {
			lim = math.Max(d.val[b], 0) / a
		} else {
			if math.IsInf(d.upper[b], 1) {
				continue
			}
			lim = math.Max(d.upper[b]-d.val[b], 0) / -a
		}
		switch {
		case lim < theta-zeroTol:
		case lim <= theta+zeroTol && r >= 0:
			if bland {
				if b > d.basis[r] {
					continue
				}
			} else if math.Abs(a) <= pivot {
				continue
			}
		default:
			continue
		}
		r, theta, pivot = i, lim, math.Abs(a)
	}
	return r, theta
}

// move shifts column k by dir*theta and updates the basic values.
func (d *dictionary) move(k int, dir, theta float64) {
	if theta == 0 {
		return
	}
	step := dir * theta
	for i, row := range d.tab {
		if a := row[k]; a != 0 {
			d.val[d.basis[i]] -= a * step
		}
	}
	d.val[d.nonbasic[k]] += step
}

// pivot exchanges the basic variable of row r with nonbasic column k.
func (d *dictionary) pivot(r, k int, dir float64) {
	leave, enter := d.basis[r], d.nonbasic[k]
	if d.tab[r][k]*dir > 0 {
		d.val[leave], d.atUpper[leave] = 0, false
	} else {
		d.val[leave], d.atUpper[leave] = d.upper[leave], true
	}
	d.atUpper[enter] = false

	pr := d.tab[r]
	inv := 1 / pr[k]
	floats.Scale(inv, pr)
	pr[k] = inv
	for i, row := range d.tab {
		if i == r {
			continue
		}
		if f := row[k]; f != 0 {
			row[k] = 0
			floats.AddScaled(row, -f, pr)
		}
	}
	if f := d.reduced[k]; f != 0 {
		d.reduced[k] = 0
		floats.AddScaled(d.reduced, -f, pr)
	}
	d.basis[r], d.nonbasic[k] = enter, leave
}
