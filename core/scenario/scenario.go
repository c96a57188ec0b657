// Package scenario decodes scenario names into typed run parameters.
//
// A name is a list of underscore separated tokens read by position:
//
//	[1]  cluster id
//	[3]  target quotas in percent, "NCS-HPC-MCS"
//	[5]  grid connection in percent of the installed bay power
//	[6]  truck power, "x" or "x-<scale percent>"
//	[7]  bay power in percent of the rated power, "NCS-HPC-MCS"
//	[9]  pause durations in minutes, "fast-night"
//	[10] "M" for unidirectional charging, anything else allows discharging
//	[12] label
//
// The remaining tokens are free text.
package scenario

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kilianp07/chargehub/core/model"
)

const minTokens = 13

// BaseLabel names the reference scenario whose sizing other scenarios reuse.
const BaseLabel = "Base"

// Sizing inputs of the reference scenario.
const (
	baseCluster = 2
	baseQuotas  = "80-80-80"
	basePauses  = "45-540"
)

// Scenario holds the decoded parameters of one scenario name.
type Scenario struct {
	Name    string
	Cluster int
	// Quotas holds the target share of served trucks per type in [0,1].
	Quotas map[model.ChargerType]float64
	// GridFactor is the grid connection as a fraction of installed bay power.
	GridFactor      float64
	TruckPowerScale float64
	// BayPowerKW is the scaled bay power per type, truncated to whole kW.
	BayPowerKW    map[model.ChargerType]float64
	FastPauseMin  int
	NightPauseMin int
	Bidirectional bool
	Label         string
	quotaToken    string
	pauseToken    string
}

// Parse decodes a scenario name.
func Parse(name string) (Scenario, error) {
	tok := strings.Split(name, "_")
	if len(tok) < minTokens {
		return Scenario{}, fmt.Errorf("scenario %q: %d tokens, need at least %d", name, len(tok), minTokens)
	}
	s := Scenario{Name: name, Label: tok[12], quotaToken: tok[3], pauseToken: tok[9]}
	var err error
	if s.Cluster, err = strconv.Atoi(tok[1]); err != nil {
		return Scenario{}, fmt.Errorf("scenario %q: cluster: %w", name, err)
	}

	quotas, err := triple(tok[3])
	if err != nil {
		return Scenario{}, fmt.Errorf("scenario %q: quotas: %w", name, err)
	}
	s.Quotas = make(map[model.ChargerType]float64, len(model.ChargerTypes))
	for i, c := range model.ChargerTypes {
		s.Quotas[c] = quotas[i] / 100
	}

	grid, err := strconv.Atoi(tok[5])
	if err != nil {
		return Scenario{}, fmt.Errorf("scenario %q: grid: %w", name, err)
	}
	// Percentages that are not multiples of 100 keep their fraction.
	s.GridFactor = float64(grid) / 100

	s.TruckPowerScale = 1
	if parts := strings.Split(tok[6], "-"); len(parts) > 1 {
		pct, err := strconv.Atoi(parts[1])
		if err != nil {
			return Scenario{}, fmt.Errorf("scenario %q: truck power: %w", name, err)
		}
		s.TruckPowerScale = float64(pct) / 100
	}

	bay, err := triple(tok[7])
	if err != nil {
		return Scenario{}, fmt.Errorf("scenario %q: bay power: %w", name, err)
	}
	s.BayPowerKW = make(map[model.ChargerType]float64, len(model.ChargerTypes))
	for i, c := range model.ChargerTypes {
		s.BayPowerKW[c] = math.Trunc(bay[i] / 100 * c.RatedPowerKW())
	}

	pauses := strings.Split(tok[9], "-")
	if len(pauses) != 2 {
		return Scenario{}, fmt.Errorf("scenario %q: pause token %q is not fast-night", name, tok[9])
	}
	if s.FastPauseMin, err = strconv.Atoi(pauses[0]); err != nil {
		return Scenario{}, fmt.Errorf("scenario %q: fast pause: %w", name, err)
	}
	if s.NightPauseMin, err = strconv.Atoi(pauses[1]); err != nil {
		return Scenario{}, fmt.Errorf("scenario %q: night pause: %w", name, err)
	}

	s.Bidirectional = tok[10] != "M"
	return s, nil
}

func triple(tok string) ([3]float64, error) {
	var out [3]float64
	parts := strings.Split(tok, "-")
	if len(parts) != 3 {
		return out, fmt.Errorf("%q is not of the form NCS-HPC-MCS", tok)
	}
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return out, err
		}
		out[i] = float64(v)
	}
	return out, nil
}

// SizingKey identifies the inputs of the sizing step. Scenarios with equal
// keys produce the same hub configuration.
func (s Scenario) SizingKey() string {
	return fmt.Sprintf("%d|%s|%s", s.Cluster, s.quotaToken, s.pauseToken)
}

// SkipsSizing reports whether the scenario shares the sizing inputs of the
// Base scenario without being Base itself. Its hub configuration is then
// taken from Base.
func (s Scenario) SkipsSizing() bool {
	return s.Cluster == baseCluster && s.quotaToken == baseQuotas && s.pauseToken == basePauses && s.Label != BaseLabel
}
