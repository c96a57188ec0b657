package flow

import (
	"errors"

	"github.com/kilianp07/chargehub/core/model"
)

// ChainCost is the cost of staying on the time axis for one bucket. Truck
// edges are free, so the solver prefers routing bay capacity through trucks.
// The cost only decides between maximum flows of equal value.
const ChainCost = 10

// ErrEmpty is returned when a bay network is requested for no trucks.
var ErrEmpty = errors.New("flow: no trucks")

// BayNetwork is the time-expanded network of one charger type. Flow enters at
// the first time bucket, travels along the time axis and may detour through a
// truck between its arrival and departure bucket. Each unit of flow is one
// bay, each detour a charged truck.
type BayNetwork struct {
	*Network
	Source, Sink int
	Start        int // effective minute of bucket 0
	Buckets      int
	Bays         int
	truckEdges   []int
}

// BuildBayNetwork constructs the network for trucks competing for the given
// number of bays. Time buckets span the trucks' effective arrival and
// departure range without padding. Arrivals are rounded down and departures
// rounded up to the bucket grid.
func BuildBayNetwork(trucks []model.TruckArrival, bays int) (*BayNetwork, error) {
	if len(trucks) == 0 {
		return nil, ErrEmpty
	}
	start, end := trucks[0].EffectiveArrival(), trucks[0].EffectiveDeparture()
	for _, tr := range trucks[1:] {
		start = min(start, tr.EffectiveArrival())
		end = max(end, tr.EffectiveDeparture())
	}
	buckets := ceilDiv(end-start, model.StepMinutes) + 1

	g := NewNetwork(2 + buckets + 2*len(trucks))
	bn := &BayNetwork{
		Network:    g,
		Source:     0,
		Sink:       1,
		Start:      start,
		Buckets:    buckets,
		Bays:       bays,
		truckEdges: make([]int, len(trucks)),
	}
	capacity := int64(bays)
	g.AddEdge(bn.Source, bn.bucket(0), capacity, 0)
	g.AddEdge(bn.bucket(buckets-1), bn.Sink, capacity, 0)
	for k := 0; k < buckets-1; k++ {
		g.AddEdge(bn.bucket(k), bn.bucket(k+1), capacity, ChainCost)
	}
	for i, tr := range trucks {
		arr := 2 + buckets + 2*i
		dep := arr + 1
		g.AddEdge(bn.bucket((tr.EffectiveArrival()-start)/model.StepMinutes), arr, 1, 0)
		bn.truckEdges[i] = g.AddEdge(arr, dep, 1, 0)
		g.AddEdge(dep, bn.bucket(ceilDiv(tr.EffectiveDeparture()-start, model.StepMinutes)), 1, 0)
	}
	return bn, nil
}

func (bn *BayNetwork) bucket(k int) int { return 2 + k }

// Solve runs the min-cost max-flow between source and sink.
func (bn *BayNetwork) Solve() (flow, cost int64) {
	return bn.MinCostMaxFlow(bn.Source, bn.Sink)
}

// Served returns the flow through truck i, which is 0 or 1.
func (bn *BayNetwork) Served(i int) int64 {
	return bn.Flow(bn.truckEdges[i])
}

// ServedCount returns the number of charged trucks.
func (bn *BayNetwork) ServedCount() int {
	n := 0
	for i := range bn.truckEdges {
		if bn.Served(i) > 0 {
			n++
		}
	}
	return n
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
