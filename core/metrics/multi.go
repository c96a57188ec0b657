package metrics

import "errors"

// MultiSink fans events out to multiple sinks. Sinks that do not implement an
// optional recorder interface are skipped for that event.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordProbe forwards the probe to all sinks, returning the first error encountered.
func (m *MultiSink) RecordProbe(ev ProbeEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordProbe(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordSizing forwards sizing results.
func (m *MultiSink) RecordSizing(ev SizingEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(SizingRecorder); ok {
			if err := rec.RecordSizing(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordSolve forwards solve events.
func (m *MultiSink) RecordSolve(ev SolveEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(SolveRecorder); ok {
			if err := rec.RecordSolve(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordSiteLoad forwards site load trajectories.
func (m *MultiSink) RecordSiteLoad(ev SiteLoadEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(SiteLoadRecorder); ok {
			if err := rec.RecordSiteLoad(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush flushes every sink that buffers data. All sinks are flushed even if
// one fails.
func (m *MultiSink) Flush() error {
	var errs []error
	for _, s := range m.Sinks {
		if f, ok := s.(Flusher); ok {
			errs = append(errs, f.Flush())
		}
	}
	return errors.Join(errs...)
}
