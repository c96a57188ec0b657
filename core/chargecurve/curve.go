// Package chargecurve models the battery side of a charging session: the
// tapering fast-charge power limit, the state of charge transition per time
// step and the energy a truck needs before it leaves.
package chargecurve

import (
	"errors"
	"fmt"
	"math"

	"github.com/kilianp07/chargehub/core/model"
)

// DeltaHours is the length of one scheduling step in hours.
const DeltaHours = float64(model.StepMinutes) / 60.0

// Segment bounds charging power as (Slope*soc + Intercept) * Pmax.
type Segment struct {
	Slope     float64
	Intercept float64
}

// Limit evaluates the segment at soc for a truck with the given rated power.
func (s Segment) Limit(soc, pmax float64) float64 {
	return math.Max(0, (s.Slope*soc+s.Intercept)*pmax)
}

// Curve is the lower envelope of affine segments.
type Curve struct {
	Segments []Segment
}

// ErrNegativeSegment is returned for curves with a segment below zero
// somewhere in [0, 1].
var ErrNegativeSegment = errors.New("chargecurve: segment negative within soc [0, 1]")

// Validate rejects curves whose segments drop below zero for a valid SOC.
// Cap clips such segments at zero, a linear program cannot.
func (c Curve) Validate() error {
	for i, s := range c.Segments {
		if s.Intercept < 0 || s.Slope+s.Intercept < 0 {
			return fmt.Errorf("segment %d (%g*soc%+g): %w", i, s.Slope, s.Intercept, ErrNegativeSegment)
		}
	}
	return nil
}

// Default approximates a fast-charge curve with a flat section up to roughly
// 80% SOC followed by a steep de-rating.
var Default = Curve{Segments: []Segment{
	{Slope: -0.177038, Intercept: 0.970903},
	{Slope: -1.51705, Intercept: 1.6336},
}}

// Cap returns the admissible power at soc. Every segment bounds the power
// independently, so the cap is their minimum.
func (c Curve) Cap(soc, pmax float64) float64 {
	limit := math.Inf(1)
	for _, s := range c.Segments {
		limit = math.Min(limit, s.Limit(soc, pmax))
	}
	if math.IsInf(limit, 1) {
		return pmax
	}
	return limit
}

// NextSOC applies one step of charging (positive) or discharging (negative)
// power to a battery.
func NextSOC(soc, powerKW, capacityKWh float64) float64 {
	return soc + powerKW*DeltaHours/capacityKWh
}

const (
	reserveHours       = 4.5
	reserveConsumption = 1.26 // kWh per km
	reserveSpeed       = 80.0 // km/h
	reserveBuffer      = 0.15
)

// RequiredSOC is the SOC a truck should leave with. Overnight (NCS) trucks are
// charged full; fast-charging trucks need enough energy for the next driving
// shift plus a safety buffer.
func RequiredSOC(charger model.ChargerType, capacityKWh float64) float64 {
	if charger == model.ChargerNCS {
		return 1
	}
	return reserveHours*reserveConsumption*reserveSpeed/capacityKWh + reserveBuffer
}

// RequiredEnergy returns the energy in kWh needed to lift soc to RequiredSOC.
// It is negative when the truck arrives above its target.
func RequiredEnergy(charger model.ChargerType, capacityKWh, soc float64) float64 {
	return capacityKWh * (RequiredSOC(charger, capacityKWh) - soc)
}
