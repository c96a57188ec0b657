package config

import (
	"fmt"

	"github.com/kilianp07/chargehub/infra/store"
)

// OutputConfig defines where results are stored.
type OutputConfig struct {
	// Backend selects the result store type: "csv" or "sqlite".
	Backend string `json:"backend"`
	// Path is the result directory for "csv" and the database file for
	// "sqlite".
	Path string `json:"path"`
	// ChartDir receives one HTML site load report per scenario. Empty
	// disables the reports.
	ChartDir string `json:"chart_dir"`
}

// SetDefaults applies sane defaults.
func (c *OutputConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = store.BackendCSV
	}
	if c.Path == "" {
		if c.Backend == store.BackendSQLite {
			c.Path = "results.db"
		} else {
			c.Path = "results"
		}
	}
}

// Validate checks mandatory fields.
func (c OutputConfig) Validate() error {
	if c.Backend != store.BackendCSV && c.Backend != store.BackendSQLite {
		return fmt.Errorf("unknown backend %s", c.Backend)
	}
	if c.Path == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}
