// Package store persists sizing and scheduling results per scenario.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/kilianp07/chargehub/core/model"
)

// ErrNotFound is returned when no result exists for a scenario.
var ErrNotFound = errors.New("store: not found")

// SizingRecord is the sizing output of one scenario.
type SizingRecord struct {
	RunID    string
	Scenario string
	Hub      model.HubConfiguration
	// Arrivals carries the sized trucks with their Served flag.
	Arrivals []model.TruckArrival
}

// ScheduleRecord collects the schedules of all strategies of one scenario.
type ScheduleRecord struct {
	RunID     string
	Scenario  string
	Schedules []model.Schedule
}

// ResultStore persists pipeline outputs. Saving a scenario again replaces
// its previous results.
type ResultStore interface {
	SaveSizing(ctx context.Context, rec SizingRecord) error
	LoadSizing(ctx context.Context, scenario string) (SizingRecord, error)
	SaveSchedules(ctx context.Context, rec ScheduleRecord) error
	// LoadSiteLoads returns the site load per strategy. Truck rows are not
	// loaded.
	LoadSiteLoads(ctx context.Context, scenario string) ([]model.Schedule, error)
	Close() error
}

// Backend names.
const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
)

// New opens the store for the given backend. For "csv" path is a directory,
// for "sqlite" a database file or DSN.
func New(backend, path string) (ResultStore, error) {
	switch backend {
	case BackendCSV:
		return NewCSVStore(path)
	case BackendSQLite:
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown store backend %s", backend)
	}
}
