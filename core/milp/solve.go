package milp

import (
	"context"
	"math"
)

// Status is the outcome of Solve.
type Status int

const (
	Optimal Status = iota
	Infeasible
	Unbounded
	NodeLimit
)

func (s Status) String() string {
	switch s {
	case Optimal:
		return "optimal"
	case Infeasible:
		return "infeasible"
	case Unbounded:
		return "unbounded"
	case NodeLimit:
		return "node_limit"
	default:
		return "unknown"
	}
}

// Default solver settings.
const (
	DefaultNodeLimit = 10000
	DefaultTol       = 1e-9
	DefaultIntTol    = 1e-6
)

// Options tunes the branch-and-bound search. Zero values select defaults.
type Options struct {
	NodeLimit int
	Tol       float64 // simplex tolerance
	IntTol    float64 // integrality and feasibility tolerance
}

func (o Options) withDefaults() Options {
	if o.NodeLimit <= 0 {
		o.NodeLimit = DefaultNodeLimit
	}
	if o.Tol <= 0 {
		o.Tol = DefaultTol
	}
	if o.IntTol <= 0 {
		o.IntTol = DefaultIntTol
	}
	return o
}

// Solution holds the best point found. Values is nil unless an incumbent
// exists; with NodeLimit it is the best known but unproven point.
type Solution struct {
	Status    Status
	Objective float64
	Values    []float64
	Nodes     int
}

// Value returns the solution value of v.
func (s Solution) Value(v Var) float64 {
	if s.Values == nil {
		return 0
	}
	return s.Values[v]
}

type node struct {
	lb, ub []float64
}

// Solve minimises the model by depth-first branch and bound. An error is
// returned for malformed models, solver failures and context cancellation;
// infeasibility and unboundedness are reported through Status.
func (m *Model) Solve(ctx context.Context, opts Options) (Solution, error) {
	if err := m.validate(); err != nil {
		return Solution{}, err
	}
	opts = opts.withDefaults()

	n := len(m.vars)
	root := node{lb: make([]float64, n), ub: make([]float64, n)}
	for j, v := range m.vars {
		root.lb[j], root.ub[j] = v.lb, v.ub
		if v.integer {
			root.lb[j] = math.Ceil(v.lb - opts.IntTol)
			root.ub[j] = math.Floor(v.ub + opts.IntTol)
			if root.lb[j] > root.ub[j] {
				return Solution{Status: Infeasible}, nil
			}
		}
	}

	best := Solution{Status: Infeasible, Objective: math.Inf(1)}
	improves := func(obj float64) bool {
		if best.Values == nil {
			return true
		}
		return obj < best.Objective-opts.Tol*math.Max(1, math.Abs(best.Objective))
	}
	accept := func(x []float64, obj float64) {
		best.Values = x
		best.Objective = obj
	}

	stack := []node{root}
	nodes := 0
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return Solution{}, err
		}
		if nodes >= opts.NodeLimit {
			best.Nodes = nodes
			if best.Values != nil {
				best.Status = NodeLimit
				return best, nil
			}
			return Solution{Status: NodeLimit, Nodes: nodes}, nil
		}
		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes++

		rel, err := m.relax(ctx, nd.lb, nd.ub, opts.Tol)
		if err != nil {
			return Solution{}, err
		}
		switch rel.status {
		case Infeasible:
			continue
		case Unbounded:
			return Solution{Status: Unbounded, Nodes: nodes}, nil
		}
		if !improves(rel.obj) {
			continue
		}

		branch, frac := -1, 0.0
		for j, v := range m.vars {
			if !v.integer {
				continue
			}
			f := math.Abs(rel.x[j] - math.Round(rel.x[j]))
			if f > opts.IntTol && f > frac {
				branch, frac = j, f
			}
		}
		if branch < 0 {
			x := rel.x
			for j, v := range m.vars {
				if v.integer {
					x[j] = math.Round(x[j])
				}
			}
			accept(x, m.obj.eval(x))
			continue
		}

		if m.Heuristic != nil {
			if cand := m.Heuristic(append([]float64(nil), rel.x...)); m.feasible(cand, opts.IntTol) {
				if obj := m.obj.eval(cand); improves(obj) {
					accept(cand, obj)
					if !improves(rel.obj) {
						continue
					}
				}
			}
		}

		down := node{lb: nd.lb, ub: append([]float64(nil), nd.ub...)}
		down.ub[branch] = math.Floor(rel.x[branch])
		up := node{lb: append([]float64(nil), nd.lb...), ub: nd.ub}
		up.lb[branch] = math.Ceil(rel.x[branch])
		// The up branch is explored first.
		stack = append(stack, down, up)
	}

	best.Nodes = nodes
	if best.Values != nil {
		best.Status = Optimal
	}
	return best, nil
}
