package schedule

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/chargehub/core/chargecurve"
	"github.com/kilianp07/chargehub/core/metrics"
	"github.com/kilianp07/chargehub/core/model"
)

func hpc(id string, arrival, pause int, soc float64) model.TruckArrival {
	return model.TruckArrival{
		ID: id, Cluster: 2, Weekday: 1, Charger: model.ChargerHPC,
		ArrivalMin: arrival, PauseMin: pause, PauseType: model.PauseFast,
		CapacityKWh: 400, MaxPowerKW: 350, SOC: soc, Served: true,
	}
}

func params(strategy Strategy) Params {
	return Params{
		Strategy:   strategy,
		Bays:       map[model.ChargerType]int{model.ChargerHPC: 1},
		GridFactor: 1,
	}
}

type solveSink struct {
	metrics.NopSink
	solves []metrics.SolveEvent
	loads  []metrics.SiteLoadEvent
}

func (s *solveSink) RecordSolve(ev metrics.SolveEvent) error {
	s.solves = append(s.solves, ev)
	return nil
}

func (s *solveSink) RecordSiteLoad(ev metrics.SiteLoadEvent) error {
	s.loads = append(s.loads, ev)
	return nil
}

// assertTransitions checks SOC bounds and the SOC update between consecutive
// rows of each truck.
func assertTransitions(t *testing.T, rows []model.ScheduleRow, capacity float64) {
	t.Helper()
	for i, r := range rows {
		assert.GreaterOrEqual(t, r.SOC, -1e-6)
		assert.LessOrEqual(t, r.SOC, 1+1e-6)
		if r.Final || i+1 >= len(rows) || rows[i+1].TruckID != r.TruckID {
			continue
		}
		want := chargecurve.NextSOC(r.SOC, r.PowerKW, capacity)
		assert.InDelta(t, want, rows[i+1].SOC, 1e-6, "truck %s step %d", r.TruckID, r.Step)
	}
}

func TestOptimizeZeroPriceStep(t *testing.T) {
	prices := []float64{100, 100, 0, 100, 100, 100, 100, 100}
	var e Engine
	s, err := e.Optimize(context.Background(), []model.TruckArrival{hpc("1", 0, 25, 0.2)}, prices, params(StrategyEpex))
	require.NoError(t, err)

	require.Len(t, s.Rows, 6)
	for _, r := range s.Rows {
		if r.Step != 2 {
			assert.InDelta(t, 0, r.PowerKW, 1e-6, "step %d", r.Step)
		}
	}
	assert.InDelta(t, 0, s.TotalCost, 1e-6)
	assertTransitions(t, s.Rows, 400)
}

func TestOptimizeChargesAtNegativePrice(t *testing.T) {
	prices := []float64{50, 50, -20, 50, 50, 50, 50, 50}
	sink := &solveSink{}
	e := Engine{Sink: sink, Scenario: "test"}
	s, err := e.Optimize(context.Background(), []model.TruckArrival{hpc("1", 0, 25, 0.2)}, prices, params(StrategyEpex))
	require.NoError(t, err)

	require.Len(t, s.Rows, 6)
	capAt02 := chargecurve.Default.Cap(0.2, 350)
	for _, r := range s.Rows[:5] {
		assert.Equal(t, r.Step*5, r.TimeMin)
		assert.Equal(t, r.Step*5, r.OnSiteMin)
		assert.Equal(t, prices[r.Step], r.Price)
		if r.Step == 2 {
			assert.InDelta(t, capAt02, r.PowerKW, 1e-4)
			assert.InDelta(t, capAt02, r.PPlusKW, 1e-4)
			assert.Equal(t, 1, r.Direction)
		} else {
			assert.InDelta(t, 0, r.PowerKW, 1e-6)
		}
	}
	final := s.Rows[5]
	assert.True(t, final.Final)
	assert.Equal(t, 5, final.Step)
	assert.Equal(t, 25, final.OnSiteMin)
	assert.InDelta(t, 0.2+capAt02*chargecurve.DeltaHours/400, final.SOC, 1e-6)
	assertTransitions(t, s.Rows, 400)

	assert.InDelta(t, capAt02*chargecurve.DeltaHours*-20, s.TotalCost, 1e-3)
	assert.InDelta(t, 350, s.GridLimitKW, 1e-9)
	require.Len(t, s.Site, len(prices))
	assert.InDelta(t, capAt02, s.Site[2].PowerKW, 1e-4)
	assert.Equal(t, 10, s.Site[2].TimeMin)

	require.Len(t, sink.solves, 1)
	assert.Equal(t, "optimal", sink.solves[0].Status)
	assert.Equal(t, "epex", sink.solves[0].Strategy)
	assert.Equal(t, 1, sink.solves[0].Trucks)
	require.Len(t, sink.loads, 1)
	assert.Equal(t, "test", sink.loads[0].Scenario)
}

func TestOptimizeGridCap(t *testing.T) {
	prices := []float64{-10, -10, -10, -10}
	trucks := []model.TruckArrival{hpc("1", 0, 15, 0.2), hpc("2", 0, 15, 0.3)}
	var e Engine
	s, err := e.Optimize(context.Background(), trucks, prices, params(StrategyEpex))
	require.NoError(t, err)

	load := map[int]float64{}
	for _, r := range s.Rows {
		if !r.Final {
			load[r.Step] += r.PPlusKW + r.PMinusKW
		}
	}
	for step := 0; step < 3; step++ {
		assert.LessOrEqual(t, load[step], 350+1e-6)
		assert.InDelta(t, 350, s.Site[step].PowerKW, 1e-4)
	}
	assert.Equal(t, 0.0, s.Site[3].PowerKW)
	assertTransitions(t, s.Rows, 400)
}

func TestOptimizeBidirectionalDischarges(t *testing.T) {
	prices := []float64{100, 100, 0}
	p := params(StrategyEpex)
	p.Bidirectional = true
	var e Engine
	s, err := e.Optimize(context.Background(), []model.TruckArrival{hpc("1", 0, 10, 0.5)}, prices, p)
	require.NoError(t, err)

	require.Len(t, s.Rows, 3)
	for _, r := range s.Rows[:2] {
		assert.Less(t, r.PowerKW, 0.0)
		assert.Equal(t, 0, r.Direction)
		assert.InDelta(t, 0, r.PPlusKW, 1e-6)
		assert.InDelta(t, -r.PowerKW, r.PMinusKW, 1e-6)
	}
	assert.InDelta(t, chargecurve.Default.Cap(0.5, 350), -s.Rows[0].PowerKW, 1e-4)
	assert.Less(t, s.TotalCost, 0.0)
	// Discharging does not count towards the site load.
	assert.Equal(t, 0.0, s.Site[0].PowerKW)
	assertTransitions(t, s.Rows, 400)
}

func TestOptimizeTminUnidirectionalIdles(t *testing.T) {
	prices := []float64{1, 1, 1, 1, 1, 1}
	var e Engine
	s, err := e.Optimize(context.Background(), []model.TruckArrival{hpc("1", 10, 15, 0.2)}, prices, params(StrategyTmin))
	require.NoError(t, err)
	require.Len(t, s.Rows, 4)
	assert.Equal(t, 2, s.Rows[0].Step)
	for _, r := range s.Rows {
		assert.InDelta(t, 0, r.PowerKW, 1e-6)
	}
	assert.Equal(t, "tmin", s.Strategy)
}

func TestOptimizeUnknownStrategy(t *testing.T) {
	var e Engine
	_, err := e.Optimize(context.Background(), nil, []float64{1}, params("cheapest"))
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestOptimizeNoOptimalSchedule(t *testing.T) {
	tr := hpc("1", 0, 10, 0.9)
	tr.CapacityKWh = 1000 // arrives above its required SOC
	sink := &solveSink{}
	e := Engine{Sink: sink}
	s, err := e.Optimize(context.Background(), []model.TruckArrival{tr}, []float64{1, 1, 1}, params(StrategyEpex))
	assert.ErrorIs(t, err, ErrNoOptimalSchedule)
	assert.Empty(t, s.Rows)
	require.Len(t, sink.solves, 1)
	assert.Equal(t, "infeasible", sink.solves[0].Status)
	assert.Empty(t, sink.loads)
}

func TestOptimizeNoServedTrucks(t *testing.T) {
	tr := hpc("1", 0, 10, 0.2)
	tr.Served = false
	other := hpc("2", 0, 10, 0.2)
	other.Weekday = 8
	sink := &solveSink{}
	e := Engine{Sink: sink}
	s, err := e.Optimize(context.Background(), []model.TruckArrival{tr, other}, []float64{3, 4}, params(StrategyEpex))
	require.NoError(t, err)
	assert.Empty(t, s.Rows)
	assert.Equal(t, 0, s.Trucks)
	assert.Equal(t, []model.SiteLoad{{Step: 0, TimeMin: 0, Price: 3}, {Step: 1, TimeMin: 5, Price: 4}}, s.Site)
	assert.Empty(t, sink.solves)
	assert.Len(t, sink.loads, 1)
}

func TestOptimizeSkipsEmptyWindow(t *testing.T) {
	var e Engine
	s, err := e.Optimize(context.Background(), []model.TruckArrival{hpc("1", 0, 0, 0.2)}, []float64{1, 1}, params(StrategyEpex))
	require.NoError(t, err)
	assert.Equal(t, 0, s.Trucks)
	assert.Empty(t, s.Rows)
}

func TestOptimizeWindowBeyondHorizon(t *testing.T) {
	var e Engine
	_, err := e.Optimize(context.Background(), []model.TruckArrival{hpc("1", 0, 60, 0.2)}, []float64{1, 1, 1}, params(StrategyEpex))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoOptimalSchedule)
}

func TestOptimizeHorizonExceedsPrices(t *testing.T) {
	p := params(StrategyEpex)
	p.Horizon = 10
	var e Engine
	_, err := e.Optimize(context.Background(), nil, []float64{1}, p)
	assert.Error(t, err)
}

func TestWindow(t *testing.T) {
	tr := hpc("1", 12, 45, 0.2)
	tr.Weekday = 2
	tIn, tOut := window(tr)
	assert.Equal(t, (1440+12)/5, tIn)
	assert.Equal(t, (1440+12+45-5)/5, tOut)
}

func TestGridLimit(t *testing.T) {
	p := Params{
		Bays:       map[model.ChargerType]int{model.ChargerNCS: 4, model.ChargerHPC: 2, model.ChargerMCS: 1},
		BayPowerKW: map[model.ChargerType]float64{model.ChargerMCS: 500},
		GridFactor: 0.5,
	}
	assert.InDelta(t, (4*100+2*350+500)*0.5, p.GridLimitKW(), 1e-9)
}

func TestFloorDiv(t *testing.T) {
	assert.Equal(t, -1, floorDiv(-3, 5))
	assert.Equal(t, -1, floorDiv(-5, 5))
	assert.Equal(t, 2, floorDiv(12, 5))
}

func TestOptimizeRejectsNegativeCurve(t *testing.T) {
	p := params(StrategyEpex)
	p.Curve = chargecurve.Curve{Segments: []chargecurve.Segment{{Slope: -2, Intercept: 1}}}
	sink := &solveSink{}
	e := Engine{Sink: sink}
	_, err := e.Optimize(context.Background(), []model.TruckArrival{hpc("1", 0, 10, 0.2)}, []float64{1, 1, 1}, p)
	assert.ErrorIs(t, err, chargecurve.ErrNegativeSegment)
	assert.Empty(t, sink.solves)
}

func TestOptimizeCustomCurve(t *testing.T) {
	p := params(StrategyEpex)
	p.Curve = chargecurve.Curve{Segments: []chargecurve.Segment{{Slope: -0.5, Intercept: 0.8}}}
	var e Engine
	s, err := e.Optimize(context.Background(), []model.TruckArrival{hpc("1", 0, 10, 0.2)}, []float64{-1, 5, 5}, p)
	require.NoError(t, err)
	require.Len(t, s.Rows, 3)
	assert.InDelta(t, 0.7*350, s.Rows[0].PowerKW, 1e-4)
	assert.InDelta(t, 0, s.Rows[1].PowerKW, 1e-6)
}

func TestComponents(t *testing.T) {
	windows := [][2]int{{0, 2}, {2, 4}, {6, 7}, {7, 9}, {20, 21}}
	var sessions []*session
	for _, w := range windows {
		sessions = append(sessions, &session{tIn: w[0], tOut: w[1]})
	}
	groups := components(sessions)
	require.Len(t, groups, 3)
	assert.Len(t, groups[0], 2)
	assert.Len(t, groups[1], 2)
	assert.Len(t, groups[2], 1)
	assert.Same(t, sessions[4], groups[2][0])
}

// A contained window extends its group only as far as the longest stay.
func TestComponentsNested(t *testing.T) {
	sessions := []*session{{tIn: 0, tOut: 10}, {tIn: 2, tOut: 3}, {tIn: 8, tOut: 12}, {tIn: 13, tOut: 14}}
	groups := components(sessions)
	require.Len(t, groups, 2)
	assert.Len(t, groups[0], 3)
}

// Disjoint stays are solved separately and give the same rows as one at a
// time.
func TestOptimizeIndependentGroups(t *testing.T) {
	prices := []float64{5, -3, 5, 5, 5, 5, -1, 5, 5, 5}
	trucks := []model.TruckArrival{hpc("1", 0, 15, 0.2), hpc("2", 25, 15, 0.4)}
	var e Engine
	both, err := e.Optimize(context.Background(), trucks, prices, params(StrategyEpex))
	require.NoError(t, err)

	var cost float64
	for _, tr := range trucks {
		one, err := e.Optimize(context.Background(), []model.TruckArrival{tr}, prices, params(StrategyEpex))
		require.NoError(t, err)
		cost += one.TotalCost
	}
	assert.InDelta(t, cost, both.TotalCost, 1e-6)
	assert.Less(t, both.TotalCost, 0.0)
}

// fleet returns trucks arriving every gap minutes on Monday, each staying
// 45 minutes.
func fleet(n, gap int) []model.TruckArrival {
	trucks := make([]model.TruckArrival, n)
	for i := range trucks {
		tr := hpc(fmt.Sprintf("T%02d", i), i*gap, 45, 0.1+0.4*float64(i%5)/4)
		tr.CapacityKWh = 600
		trucks[i] = tr
	}
	return trucks
}

func TestOptimizeFleetWithinBudget(t *testing.T) {
	const budget = time.Minute
	prices := make([]float64, 288)
	for i := range prices {
		prices[i] = 60 + 80*math.Sin(2*math.Pi*float64(i)/96)
	}
	trucks := fleet(50, 15)

	for _, bidirectional := range []bool{false, true} {
		t.Run(fmt.Sprintf("bidirectional=%t", bidirectional), func(t *testing.T) {
			p := params(StrategyEpex)
			p.Bays = map[model.ChargerType]int{model.ChargerHPC: 3}
			p.GridFactor = 0.5
			p.Bidirectional = bidirectional
			ctx, cancel := context.WithTimeout(context.Background(), budget)
			defer cancel()

			var e Engine
			start := time.Now()
			s, err := e.Optimize(ctx, trucks, prices, p)
			require.NoError(t, err)
			if elapsed := time.Since(start); elapsed > budget {
				t.Fatalf("50 trucks took %s", elapsed)
			}
			assert.Equal(t, 50, s.Trucks)
			assert.Less(t, s.TotalCost, 0.0)

			load := map[int]float64{}
			for _, r := range s.Rows {
				if r.Final {
					continue
				}
				load[r.Step] += r.PPlusKW + r.PMinusKW
				assert.LessOrEqual(t, math.Abs(r.PowerKW), chargecurve.Default.Cap(r.SOC, 350)+1e-4, "truck %s step %d", r.TruckID, r.Step)
				assert.LessOrEqual(t, math.Abs(r.PowerKW), 350+1e-6)
				if !bidirectional {
					assert.GreaterOrEqual(t, r.PowerKW, 0.0)
				}
			}
			for step, kw := range load {
				assert.LessOrEqual(t, kw, 525+1e-6, "step %d", step)
			}
			assertTransitions(t, s.Rows, 600)
		})
	}
}
