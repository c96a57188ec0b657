package model

import "fmt"

const (
	// StepMinutes is the time discretisation used by sizing and scheduling.
	StepMinutes = 5
	// ChangeoverMinutes blocks a bay after a truck leaves.
	ChangeoverMinutes = 5
	// MinutesPerDay is used to unfold weekday-relative arrival times.
	MinutesPerDay = 1440
)

// TruckArrival is one forecast inbound truck.
type TruckArrival struct {
	ID          string
	Cluster     int
	Weekday     int // 1 = Monday ... 7 = Sunday
	Charger     ChargerType
	ArrivalMin  int // minutes into the day
	PauseMin    int
	PauseType   PauseType
	PauseLabel  string // raw pause type as read from the table
	CapacityKWh float64
	MaxPowerKW  float64
	SOC         float64 // arrival state of charge between 0 and 1

	// Served is set by the sizing engine when the truck gets a bay.
	Served bool
}

// EffectiveArrival returns the arrival in minutes since Monday 00:00.
func (t TruckArrival) EffectiveArrival() int {
	return t.ArrivalMin + (t.Weekday-1)*MinutesPerDay
}

// EffectiveDeparture returns the minute the bay becomes free again, including
// the changeover time.
func (t TruckArrival) EffectiveDeparture() int {
	return t.EffectiveArrival() + t.PauseMin + ChangeoverMinutes
}

// Validate checks that the arrival record is usable.
func (t TruckArrival) Validate() error {
	if t.Weekday < 1 {
		return fmt.Errorf("truck %s: weekday %d out of range", t.ID, t.Weekday)
	}
	if t.PauseMin < 0 {
		return fmt.Errorf("truck %s: negative pause", t.ID)
	}
	if t.CapacityKWh <= 0 {
		return fmt.Errorf("truck %s: battery capacity must be positive", t.ID)
	}
	if t.SOC < 0 || t.SOC > 1 {
		return fmt.Errorf("truck %s: soc %.3f outside [0,1]", t.ID, t.SOC)
	}
	return nil
}

// Filter returns the arrivals of one cluster requiring the given charger type,
// preserving input order.
func Filter(arrivals []TruckArrival, cluster int, charger ChargerType) []TruckArrival {
	var out []TruckArrival
	for _, a := range arrivals {
		if a.Cluster == cluster && a.Charger == charger {
			out = append(out, a)
		}
	}
	return out
}
