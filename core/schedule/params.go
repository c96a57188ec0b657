package schedule

import (
	"time"

	"github.com/kilianp07/chargehub/core/chargecurve"
	"github.com/kilianp07/chargehub/core/model"
)

// Params carries the scenario inputs of one optimisation run.
type Params struct {
	Strategy      Strategy
	Bidirectional bool
	// BayPowerKW is the scaled power per bay type. Missing types fall back to
	// their rated power.
	BayPowerKW map[model.ChargerType]float64
	// Bays is the sized bay count per type.
	Bays map[model.ChargerType]int
	// GridFactor scales the installed bay power to the grid connection.
	GridFactor float64
	// TruckPowerScale multiplies every truck's maximum power. Zero means 1.
	TruckPowerScale float64
	// Week selects the trucks with weekday in [1+7*Week, 7+7*Week].
	Week int
	// Horizon is the number of time steps. Zero uses the length of the price
	// series.
	Horizon int
	// Curve overrides the charge curve. The zero value uses chargecurve.Default.
	// Every segment must stay non-negative for SOC in [0, 1]; Optimize
	// rejects other curves with chargecurve.ErrNegativeSegment.
	Curve chargecurve.Curve
	// Origin is the wall-clock time of step 0, used when exporting the site
	// load to time series sinks.
	Origin time.Time
}

func (p Params) bayPower(c model.ChargerType) float64 {
	if kw, ok := p.BayPowerKW[c]; ok {
		return kw
	}
	return c.RatedPowerKW()
}

// GridLimitKW returns the grid connection: installed bay power times the grid
// factor.
func (p Params) GridLimitKW() float64 {
	var sum float64
	for _, c := range model.ChargerTypes {
		sum += float64(p.Bays[c]) * p.bayPower(c)
	}
	return sum * p.GridFactor
}

func (p Params) truckScale() float64 {
	if p.TruckPowerScale == 0 {
		return 1
	}
	return p.TruckPowerScale
}

func (p Params) curve() chargecurve.Curve {
	if len(p.Curve.Segments) == 0 {
		return chargecurve.Default
	}
	return p.Curve
}
