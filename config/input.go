package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/chargehub/core/milp"
)

// InputConfig points to the forecast tables.
type InputConfig struct {
	// Arrivals is the semicolon separated truck arrival table.
	Arrivals string `json:"arrivals"`
	// Prices is the day-ahead price table, one row per 5-minute step.
	Prices string `json:"prices"`
}

// Validate checks mandatory fields.
func (c InputConfig) Validate() error {
	if c.Arrivals == "" {
		return fmt.Errorf("arrivals path is required")
	}
	if c.Prices == "" {
		return fmt.Errorf("prices path is required")
	}
	return nil
}

// ScheduleConfig selects the optimisation window.
type ScheduleConfig struct {
	// Week picks the trucks with weekday in [1+7*week, 7+7*week].
	Week int `json:"week"`
	// Horizon limits the number of 5-minute steps. Zero uses every price.
	Horizon int `json:"horizon"`
	// Origin is the RFC 3339 time of step 0 for time series sinks.
	Origin string `json:"origin"`
}

// Validate checks the window settings.
func (c ScheduleConfig) Validate() error {
	if c.Week < 0 {
		return fmt.Errorf("week must not be negative")
	}
	if c.Horizon < 0 {
		return fmt.Errorf("horizon must not be negative")
	}
	if _, err := c.OriginTime(); err != nil {
		return err
	}
	return nil
}

// OriginTime parses Origin. The zero time is returned when it is unset.
func (c ScheduleConfig) OriginTime() (time.Time, error) {
	if c.Origin == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, c.Origin)
	if err != nil {
		return time.Time{}, fmt.Errorf("origin: %w", err)
	}
	return t, nil
}

// SolverConfig tunes the branch-and-bound search.
type SolverConfig struct {
	NodeLimit int     `json:"node_limit"`
	Tol       float64 `json:"tol"`
	IntTol    float64 `json:"int_tol"`
}

func (c *SolverConfig) SetDefaults() {
	if c.NodeLimit == 0 {
		c.NodeLimit = milp.DefaultNodeLimit
	}
	if c.Tol == 0 {
		c.Tol = milp.DefaultTol
	}
	if c.IntTol == 0 {
		c.IntTol = milp.DefaultIntTol
	}
}

func (c SolverConfig) Validate() error {
	if c.NodeLimit < 0 || c.Tol < 0 || c.IntTol < 0 {
		return fmt.Errorf("node_limit and tolerances must not be negative")
	}
	return nil
}

// Options converts the section into solver options.
func (c SolverConfig) Options() milp.Options {
	return milp.Options{NodeLimit: c.NodeLimit, Tol: c.Tol, IntTol: c.IntTol}
}
