package schedule

import (
	"math"

	"github.com/kilianp07/chargehub/core/chargecurve"
	"github.com/kilianp07/chargehub/core/milp"
	"github.com/kilianp07/chargehub/core/model"
)

// session is one served truck with its time window, decision variables and,
// once solved, its power per step. Slices are indexed by t - tIn.
type session struct {
	truck     model.TruckArrival
	tIn, tOut int
	pmax      float64 // scaled truck power
	ptype     float64 // bay power of the truck's charger type
	ereq      float64

	// plus carries P in unidirectional mode. minus is only allocated when
	// discharging is allowed.
	plus, minus []milp.Var
	power       []float64
}

func (s *session) steps() int { return s.tOut - s.tIn + 1 }

// gain is the SOC change per kW over one step.
func (s *session) gain() float64 { return chargecurve.DeltaHours / s.truck.CapacityKWh }

// window returns the first and last step a truck occupies. The last step
// ends before the changeover slot.
func window(tr model.TruckArrival) (int, int) {
	arr := tr.EffectiveArrival()
	return floorDiv(arr, model.StepMinutes), floorDiv(arr+tr.PauseMin-model.StepMinutes, model.StepMinutes)
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// components splits sessions ordered by tIn into groups whose windows never
// overlap another group's. Only the grid rows couple trucks, so each group
// is an independent program.
func components(sessions []*session) [][]*session {
	var out [][]*session
	last := math.MinInt
	for _, s := range sessions {
		if s.tIn > last {
			out = append(out, nil)
		}
		out[len(out)-1] = append(out[len(out)-1], s)
		last = max(last, s.tOut)
	}
	return out
}

// formulate builds the schedule program for one group of sessions.
//
// P = P+ - P- with P+, P- in [0, ptype]. SOC is not a variable: the SOC
// before step k is s0 + g*sum(P_j, j < k), so its bounds and the charge curve
// become rows over the partial sums of P. Only the sum P+ + P- is capped by
// the curve and the grid, and both objectives depend on P alone, so an
// optimum with both parts positive can shrink them until one is zero. The
// direction therefore follows from the sign of P and needs no binary.
func formulate(sessions []*session, prices []float64, p Params) *milp.Model {
	m := milp.NewModel()
	curve := p.curve()

	first, last := math.MaxInt, math.MinInt
	for _, s := range sessions {
		first, last = min(first, s.tIn), max(last, s.tOut)
		n := s.steps()
		id := s.truck.ID
		s.plus = make([]milp.Var, n)
		s.minus = nil
		for k := range s.plus {
			s.plus[k] = m.AddVar(0, s.ptype, "Pplus_"+id)
		}
		if p.Bidirectional {
			s.minus = make([]milp.Var, n)
			for k := range s.minus {
				s.minus[k] = m.AddVar(0, s.ptype, "Pminus_"+id)
			}
		}

		s0, g := s.truck.SOC, s.gain()
		m.AddConstraint(s.net(n, chargecurve.DeltaHours), milp.LessEq, s.ereq, "energy_"+id)
		if p.Bidirectional {
			for k := 1; k <= n; k++ {
				m.AddRange(s.net(k, 1), -s0/g, (1-s0)/g, "soc_"+id)
			}
		} else {
			// SOC only rises, so the last state bounds every other one.
			m.AddConstraint(s.net(n, 1), milp.LessEq, (1-s0)/g, "soc_"+id)
		}

		// P+ + P- <= (a*SoC_k + b)*Pmax for every segment.
		for k := 0; k < n; k++ {
			for _, seg := range curve.Segments {
				c := s.net(k, -seg.Slope*s.pmax*g)
				c.Add(s.plus[k], 1)
				if s.minus != nil {
					c.Add(s.minus[k], 1)
				}
				m.AddConstraint(c, milp.LessEq, (seg.Slope*s0+seg.Intercept)*s.pmax, "curve_"+id)
			}
		}
	}

	grid := p.GridLimitKW()
	for t := first; t <= last; t++ {
		var load milp.Expr
		for _, s := range sessions {
			if t < s.tIn || t > s.tOut {
				continue
			}
			k := t - s.tIn
			load.Add(s.plus[k], 1)
			if s.minus != nil {
				load.Add(s.minus[k], 1)
			}
		}
		if len(load.Terms) > 0 {
			m.AddConstraint(load, milp.LessEq, grid, "grid")
		}
	}

	var obj milp.Expr
	for _, s := range sessions {
		for k := 0; k < s.steps(); k++ {
			t := s.tIn + k
			w := prices[t]
			if p.Strategy == StrategyTmin {
				w = float64(t)
			}
			obj.Add(s.plus[k], w)
			if s.minus != nil {
				obj.Add(s.minus[k], -w)
			}
		}
	}
	m.SetObjective(obj)
	return m
}

// net returns coef * sum(P_j, j < k).
func (s *session) net(k int, coef float64) milp.Expr {
	var e milp.Expr
	for j := 0; j < k; j++ {
		e.Add(s.plus[j], coef)
		if s.minus != nil {
			e.Add(s.minus[j], -coef)
		}
	}
	return e
}

// collect stores the solved power of every session of a group.
func collect(sessions []*session, sol milp.Solution) {
	for _, s := range sessions {
		s.power = make([]float64, s.steps())
		for k := range s.power {
			pw := sol.Value(s.plus[k])
			if s.minus != nil {
				pw -= sol.Value(s.minus[k])
			}
			s.power[k] = clean(pw)
		}
	}
}
