// Package schedule optimises the charging power of the served trucks of a hub
// over their stays, subject to charge curves, bay power and the grid
// connection.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/chargehub/core/chargecurve"
	"github.com/kilianp07/chargehub/core/logger"
	"github.com/kilianp07/chargehub/core/metrics"
	"github.com/kilianp07/chargehub/core/milp"
	"github.com/kilianp07/chargehub/core/model"
)

// ErrNoOptimalSchedule is returned when the solver does not prove an optimum.
// No rows are emitted in that case.
var ErrNoOptimalSchedule = errors.New("schedule: no optimal schedule")

const daysPerWeek = 7

// Engine builds and solves the schedule program. The zero value is usable.
type Engine struct {
	Log      logger.Logger
	Sink     metrics.MetricsSink
	Solver   milp.Options
	RunID    string
	Scenario string
}

func (e *Engine) log() logger.Logger {
	if e.Log == nil {
		return logger.Nop{}
	}
	return e.Log
}

func (e *Engine) sink() metrics.MetricsSink {
	if e.Sink == nil {
		return metrics.NopSink{}
	}
	return e.Sink
}

// Optimize schedules the served trucks of the selected week against prices,
// one price per 5-minute step.
func (e *Engine) Optimize(ctx context.Context, arrivals []model.TruckArrival, prices []float64, p Params) (model.Schedule, error) {
	if !p.Strategy.valid() {
		return model.Schedule{}, fmt.Errorf("%q: %w", p.Strategy, ErrUnknownStrategy)
	}
	if err := p.curve().Validate(); err != nil {
		return model.Schedule{}, fmt.Errorf("schedule: %w", err)
	}
	horizon := p.Horizon
	if horizon == 0 {
		horizon = len(prices)
	}
	if horizon > len(prices) {
		return model.Schedule{}, fmt.Errorf("schedule: horizon of %d steps exceeds %d prices", horizon, len(prices))
	}

	sessions, err := e.sessions(arrivals, horizon, p)
	if err != nil {
		return model.Schedule{}, err
	}
	out := model.Schedule{
		Strategy:    string(p.Strategy),
		GridLimitKW: p.GridLimitKW(),
		Trucks:      len(sessions),
	}
	if len(sessions) == 0 {
		e.log().Infof("[%s] no served trucks, nothing to schedule", p.Strategy)
		out.Site = siteLoad(nil, prices, horizon)
		e.recordSiteLoad(out, p)
		return out, nil
	}

	start := time.Now()
	status, nodes, err := e.solve(ctx, sessions, prices, p)
	if err != nil {
		return model.Schedule{}, fmt.Errorf("schedule %s: %w", p.Strategy, err)
	}
	ev := metrics.SolveEvent{
		RunID:    e.RunID,
		Scenario: e.Scenario,
		Strategy: string(p.Strategy),
		Status:   status.String(),
		Trucks:   len(sessions),
		Nodes:    nodes,
		Duration: time.Since(start),
	}
	if status != milp.Optimal {
		ev.Time = time.Now()
		e.recordSolve(ev)
		return model.Schedule{}, fmt.Errorf("%s: solver status %s: %w", p.Strategy, status, ErrNoOptimalSchedule)
	}

	out.Rows = extract(sessions, prices, horizon)
	out.Site = siteLoad(out.Rows, prices, horizon)
	out.TotalCost = totalCost(out.Rows)
	e.log().Infow("schedule optimised", map[string]any{
		"scenario":   e.Scenario,
		"strategy":   string(p.Strategy),
		"trucks":     len(sessions),
		"nodes":      nodes,
		"total_cost": out.TotalCost,
	})
	ev.TotalCost = out.TotalCost
	ev.Time = time.Now()
	e.recordSolve(ev)
	e.recordSiteLoad(out, p)
	return out, nil
}

// solve optimises each independent group of sessions and stores the power
// in the sessions. It stops at the first group without a proven optimum and
// reports its status.
func (e *Engine) solve(ctx context.Context, sessions []*session, prices []float64, p Params) (milp.Status, int, error) {
	nodes := 0
	for _, group := range components(sessions) {
		m := formulate(group, prices, p)
		e.log().Debugf("[%s] %d trucks from step %d, %d variables, %d constraints",
			p.Strategy, len(group), group[0].tIn, m.NumVars(), m.NumConstraints())
		sol, err := m.Solve(ctx, e.Solver)
		nodes += sol.Nodes
		if err != nil {
			return sol.Status, nodes, err
		}
		if sol.Status != milp.Optimal {
			return sol.Status, nodes, nil
		}
		collect(group, sol)
	}
	return milp.Optimal, nodes, nil
}

// sessions selects the served trucks of the week, ordered by arrival, and
// derives their windows and limits.
func (e *Engine) sessions(arrivals []model.TruckArrival, horizon int, p Params) ([]*session, error) {
	first, last := 1+daysPerWeek*p.Week, daysPerWeek+daysPerWeek*p.Week
	var trucks []model.TruckArrival
	for _, a := range arrivals {
		if a.Served && a.Weekday >= first && a.Weekday <= last {
			trucks = append(trucks, a)
		}
	}
	sort.SliceStable(trucks, func(i, j int) bool {
		return trucks[i].EffectiveArrival() < trucks[j].EffectiveArrival()
	})

	var out []*session
	for _, tr := range trucks {
		if err := tr.Validate(); err != nil {
			return nil, err
		}
		tIn, tOut := window(tr)
		if tOut < tIn {
			e.log().Warnf("truck %s: pause of %d min leaves no charging step, skipped", tr.ID, tr.PauseMin)
			continue
		}
		if tOut >= horizon {
			return nil, fmt.Errorf("truck %s: stay until step %d exceeds horizon of %d steps", tr.ID, tOut, horizon)
		}
		out = append(out, &session{
			truck: tr,
			tIn:   tIn,
			tOut:  tOut,
			pmax:  tr.MaxPowerKW * p.truckScale(),
			ptype: p.bayPower(tr.Charger),
			ereq:  chargecurve.RequiredEnergy(tr.Charger, tr.CapacityKWh, tr.SOC),
		})
	}
	return out, nil
}

// extract emits one row per truck and step plus a trailing row holding the
// SOC after the last step when it is still inside the horizon. SOC is
// accumulated from the arrival SOC.
func extract(sessions []*session, prices []float64, horizon int) []model.ScheduleRow {
	var rows []model.ScheduleRow
	for _, s := range sessions {
		soc := s.truck.SOC
		for k, pw := range s.power {
			t := s.tIn + k
			row := model.ScheduleRow{
				TruckID:   s.truck.ID,
				Charger:   s.truck.Charger,
				Step:      t,
				TimeMin:   t * model.StepMinutes,
				OnSiteMin: k * model.StepMinutes,
				PowerKW:   pw,
				SOC:       clean(soc),
				Price:     prices[t],
			}
			if pw >= 0 {
				row.PPlusKW, row.Direction = pw, 1
			} else {
				row.PMinusKW = -pw
			}
			rows = append(rows, row)
			soc = chargecurve.NextSOC(soc, pw, s.truck.CapacityKWh)
		}
		if t := s.tOut + 1; t < horizon {
			rows = append(rows, model.ScheduleRow{
				TruckID:   s.truck.ID,
				Charger:   s.truck.Charger,
				Step:      t,
				TimeMin:   t * model.StepMinutes,
				OnSiteMin: s.steps() * model.StepMinutes,
				SOC:       clean(soc),
				Price:     prices[t],
				Final:     true,
			})
		}
	}
	return rows
}

// siteLoad sums the charging power of all trucks per step. Discharging power
// is not netted against it.
func siteLoad(rows []model.ScheduleRow, prices []float64, horizon int) []model.SiteLoad {
	out := make([]model.SiteLoad, horizon)
	for t := range out {
		out[t] = model.SiteLoad{Step: t, TimeMin: t * model.StepMinutes, Price: prices[t]}
	}
	for _, r := range rows {
		if !r.Final && r.PowerKW > 0 {
			out[r.Step].PowerKW += r.PowerKW
		}
	}
	return out
}

// totalCost is sum(P * dt * price) over all scheduled steps.
func totalCost(rows []model.ScheduleRow) float64 {
	power := make([]float64, 0, len(rows))
	price := make([]float64, 0, len(rows))
	for _, r := range rows {
		if r.Final {
			continue
		}
		power = append(power, r.PowerKW)
		price = append(price, r.Price)
	}
	return floats.Dot(power, price) * chargecurve.DeltaHours
}

// clean drops solver noise around zero.
func clean(v float64) float64 {
	if math.Abs(v) < 1e-9 {
		return 0
	}
	return v
}

func (e *Engine) recordSolve(ev metrics.SolveEvent) {
	rec, ok := e.sink().(metrics.SolveRecorder)
	if !ok {
		return
	}
	if err := rec.RecordSolve(ev); err != nil {
		e.log().Warnf("record solve: %v", err)
	}
}

func (e *Engine) recordSiteLoad(s model.Schedule, p Params) {
	rec, ok := e.sink().(metrics.SiteLoadRecorder)
	if !ok {
		return
	}
	ev := metrics.SiteLoadEvent{RunID: e.RunID, Scenario: e.Scenario, Strategy: s.Strategy, Origin: p.Origin, Points: s.Site}
	if err := rec.RecordSiteLoad(ev); err != nil {
		e.log().Warnf("record site load: %v", err)
	}
}
