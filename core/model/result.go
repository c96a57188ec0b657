package model

// Probe documents one sizing iteration.
type Probe struct {
	Charger      ChargerType
	Bays         int
	Quota        float64
	TrucksPerBay float64 // served trucks per bay and day
}

// SizingResult is the outcome of the sizing loop for one charger type.
type SizingResult struct {
	Charger ChargerType
	Bays    int
	Quota   float64
	Target  float64
	Trucks  int
	Served  int
	// Converged is false when the probe budget ran out before the target
	// quota was reached. Bays, Quota and Flags then describe the last probe.
	Converged bool
	// Skipped marks an empty truck set; Quota is 0 and no probe ran.
	Skipped bool
	Probes  []Probe
	// Flags holds the load status of each sized truck, in the order the
	// trucks were passed to the sizing loop.
	Flags []bool
}

// HubConfiguration collects the sizing results of one scenario.
type HubConfiguration struct {
	Cluster int
	Results map[ChargerType]SizingResult
}

// Bays returns the bay count per charger type.
func (h HubConfiguration) Bays() map[ChargerType]int {
	out := make(map[ChargerType]int, len(h.Results))
	for c, r := range h.Results {
		out[c] = r.Bays
	}
	return out
}

// Probes flattens the probe history in charger type order.
func (h HubConfiguration) Probes() []Probe {
	var out []Probe
	for _, c := range ChargerTypes {
		out = append(out, h.Results[c].Probes...)
	}
	return out
}

// ScheduleRow is one truck at one time step of an optimised schedule.
type ScheduleRow struct {
	TruckID   string
	Charger   ChargerType
	Step      int
	TimeMin   int
	OnSiteMin int
	PowerKW   float64
	PPlusKW   float64
	PMinusKW  float64
	Direction int // 1 charging, 0 discharging
	SOC       float64
	Price     float64
	// Final marks the trailing row after departure that only carries the
	// final SOC.
	Final bool
}

// SiteLoad is the aggregated hub power at one time step.
type SiteLoad struct {
	Step    int
	TimeMin int
	PowerKW float64
	Price   float64
}

// Schedule is the optimised charging plan of one scenario and strategy.
type Schedule struct {
	Strategy    string
	Rows        []ScheduleRow
	Site        []SiteLoad
	TotalCost   float64
	GridLimitKW float64
	Trucks      int
}
