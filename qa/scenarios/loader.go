// Package scenarios runs YAML described regression cases through the sizing
// and scheduling engines.
package scenarios

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/chargehub/core/model"
)

type TruckDef struct {
	ID          string  `yaml:"id"`
	Weekday     int     `yaml:"weekday"`
	Arrival     int     `yaml:"arrival"`
	Pause       int     `yaml:"pause"`
	SOC         float64 `yaml:"soc"`
	CapacityKWh float64 `yaml:"capacity_kwh"`
	MaxPowerKW  float64 `yaml:"max_power_kw"`
}

func (d TruckDef) ToModel(charger model.ChargerType) model.TruckArrival {
	weekday := d.Weekday
	if weekday == 0 {
		weekday = 1
	}
	return model.TruckArrival{
		ID:          d.ID,
		Cluster:     1,
		Weekday:     weekday,
		Charger:     charger,
		ArrivalMin:  d.Arrival,
		PauseMin:    d.Pause,
		PauseType:   model.PauseFast,
		CapacityKWh: d.CapacityKWh,
		MaxPowerKW:  d.MaxPowerKW,
		SOC:         d.SOC,
	}
}

type Expected struct {
	Bays   int `yaml:"bays"`
	Served int `yaml:"served"`
	// MaxCost bounds the schedule cost when prices are given.
	MaxCost *float64 `yaml:"max_cost,omitempty"`
}

type Scenario struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Charger     string     `yaml:"charger"`
	Target      float64    `yaml:"target"`
	Trucks      []TruckDef `yaml:"trucks"`
	// Prices enables the schedule check, one price per 5-minute step.
	Prices   []float64 `yaml:"prices,omitempty"`
	Strategy string    `yaml:"strategy,omitempty"`
	Expected Expected  `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}
