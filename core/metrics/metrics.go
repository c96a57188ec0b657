package metrics

import (
	"time"

	"github.com/kilianp07/chargehub/core/model"
)

// ProbeEvent is one iteration of the sizing loop.
type ProbeEvent struct {
	RunID    string
	Scenario string
	Probe    model.Probe
	Time     time.Time
}

// MetricsSink records sizing probes for observability purposes.
type MetricsSink interface {
	RecordProbe(ev ProbeEvent) error
}

// SizingEvent summarises the sizing of one charger type.
type SizingEvent struct {
	RunID    string
	Scenario string
	Result   model.SizingResult
	Time     time.Time
}

// SizingRecorder records final sizing results.
type SizingRecorder interface {
	RecordSizing(ev SizingEvent) error
}

// SolveEvent describes one schedule optimisation.
type SolveEvent struct {
	RunID     string
	Scenario  string
	Strategy  string
	Status    string
	Trucks    int
	Nodes     int
	Duration  time.Duration
	TotalCost float64
	Time      time.Time
}

// SolveRecorder records schedule optimisations.
type SolveRecorder interface {
	RecordSolve(ev SolveEvent) error
}

// SiteLoadEvent carries the aggregated hub load of a schedule.
type SiteLoadEvent struct {
	RunID    string
	Scenario string
	Strategy string
	// Origin is the wall-clock time mapped to step 0.
	Origin time.Time
	Points []model.SiteLoad
}

// SiteLoadRecorder records site load trajectories.
type SiteLoadRecorder interface {
	RecordSiteLoad(ev SiteLoadEvent) error
}

// Flusher is implemented by sinks that buffer data until the end of a run.
type Flusher interface {
	Flush() error
}

// NopSink implements all recorders with no-op methods.
type NopSink struct{}

func (NopSink) RecordProbe(ProbeEvent) error       { return nil }
func (NopSink) RecordSizing(SizingEvent) error     { return nil }
func (NopSink) RecordSolve(SolveEvent) error       { return nil }
func (NopSink) RecordSiteLoad(SiteLoadEvent) error { return nil }
