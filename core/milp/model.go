// Package milp formulates mixed-integer linear programs and solves them by
// branch and bound over LP relaxations. Relaxations are solved by a
// bounded-variable primal simplex on a dense dictionary.
package milp

import (
	"fmt"
	"math"
)

// Var identifies a decision variable of a Model.
type Var int

// Term is one coefficient of a linear expression.
type Term struct {
	Var  Var
	Coef float64
}

// Expr is a linear expression sum(Coef*Var) + Constant.
type Expr struct {
	Terms    []Term
	Constant float64
}

// Add appends coef*v to the expression.
func (e *Expr) Add(v Var, coef float64) {
	e.Terms = append(e.Terms, Term{Var: v, Coef: coef})
}

// Sense is the relation of a constraint.
type Sense int

const (
	LessEq Sense = iota
	GreaterEq
	Equal
	// Range bounds the expression from both sides, see AddRange.
	Range
)

func (s Sense) String() string {
	switch s {
	case LessEq:
		return "<="
	case GreaterEq:
		return ">="
	case Equal:
		return "="
	case Range:
		return "in"
	default:
		return "?"
	}
}

type variable struct {
	name    string
	lb, ub  float64
	integer bool
}

type constraint struct {
	expr  Expr
	sense Sense
	lo    float64 // lower side of a Range constraint
	rhs   float64
	name  string
}

// Model is a minimisation problem. Use math.Inf for unbounded variables.
type Model struct {
	vars []variable
	cons []constraint
	obj  Expr

	// Heuristic, when set, is called with every fractional relaxation and may
	// return a candidate solution. Feasible integral candidates become the
	// incumbent.
	Heuristic func(x []float64) []float64
}

// NewModel returns an empty model.
func NewModel() *Model { return &Model{} }

// AddVar adds a continuous variable with bounds [lb, ub].
func (m *Model) AddVar(lb, ub float64, name string) Var {
	m.vars = append(m.vars, variable{name: name, lb: lb, ub: ub})
	return Var(len(m.vars) - 1)
}

// AddBinary adds an integer variable restricted to {0, 1}.
func (m *Model) AddBinary(name string) Var {
	m.vars = append(m.vars, variable{name: name, lb: 0, ub: 1, integer: true})
	return Var(len(m.vars) - 1)
}

// AddInteger adds an integer variable with bounds [lb, ub].
func (m *Model) AddInteger(lb, ub float64, name string) Var {
	m.vars = append(m.vars, variable{name: name, lb: lb, ub: ub, integer: true})
	return Var(len(m.vars) - 1)
}

// AddConstraint adds expr (sense) rhs. Constraints without terms are kept
// and only checked for consistency when solving.
func (m *Model) AddConstraint(expr Expr, sense Sense, rhs float64, name string) {
	m.cons = append(m.cons, constraint{expr: expr, sense: sense, rhs: rhs, name: name})
}

// AddRange adds lo <= expr <= hi as a single row. Either side may be
// infinite.
func (m *Model) AddRange(expr Expr, lo, hi float64, name string) {
	m.cons = append(m.cons, constraint{expr: expr, sense: Range, lo: lo, rhs: hi, name: name})
}

// SetObjective sets the expression to minimise.
func (m *Model) SetObjective(obj Expr) { m.obj = obj }

// NumVars returns the number of variables.
func (m *Model) NumVars() int { return len(m.vars) }

// NumConstraints returns the number of constraints.
func (m *Model) NumConstraints() int { return len(m.cons) }

// Name returns the name of v.
func (m *Model) Name(v Var) string { return m.vars[v].name }

func (m *Model) validate() error {
	for i, v := range m.vars {
		if math.IsNaN(v.lb) || math.IsNaN(v.ub) || v.lb > v.ub {
			return fmt.Errorf("milp: variable %d (%s) has invalid bounds [%g, %g]", i, v.name, v.lb, v.ub)
		}
	}
	for _, c := range m.cons {
		if c.sense == Range && c.lo > c.rhs {
			return fmt.Errorf("milp: constraint %s has empty range [%g, %g]", c.name, c.lo, c.rhs)
		}
		for _, t := range c.expr.Terms {
			if int(t.Var) < 0 || int(t.Var) >= len(m.vars) {
				return fmt.Errorf("milp: constraint %s references unknown variable %d", c.name, t.Var)
			}
		}
	}
	return nil
}

// eval returns the value of e at x.
func (e Expr) eval(x []float64) float64 {
	s := e.Constant
	for _, t := range e.Terms {
		s += t.Coef * x[t.Var]
	}
	return s
}

// feasible reports whether x satisfies all bounds, constraints and
// integrality requirements within tol.
func (m *Model) feasible(x []float64, tol float64) bool {
	if len(x) != len(m.vars) {
		return false
	}
	for i, v := range m.vars {
		if x[i] < v.lb-tol || x[i] > v.ub+tol {
			return false
		}
		if v.integer && math.Abs(x[i]-math.Round(x[i])) > tol {
			return false
		}
	}
	for _, c := range m.cons {
		lhs := c.expr.eval(x)
		scale := tol * math.Max(1, math.Abs(c.rhs))
		switch c.sense {
		case LessEq:
			if lhs > c.rhs+scale {
				return false
			}
		case GreaterEq:
			if lhs < c.rhs-scale {
				return false
			}
		case Equal:
			if math.Abs(lhs-c.rhs) > scale {
				return false
			}
		case Range:
			if lhs > c.rhs+scale || lhs < c.lo-tol*math.Max(1, math.Abs(c.lo)) {
				return false
			}
		}
	}
	return true
}
