// Package app wires the configuration, engines, metrics and result store into
// the scenario pipeline.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/chargehub/config"
	coremetrics "github.com/kilianp07/chargehub/core/metrics"
	"github.com/kilianp07/chargehub/core/model"
	"github.com/kilianp07/chargehub/core/scenario"
	"github.com/kilianp07/chargehub/infra/chart"
	"github.com/kilianp07/chargehub/infra/logger"
	_ "github.com/kilianp07/chargehub/infra/metrics"
	"github.com/kilianp07/chargehub/infra/store"
	"github.com/kilianp07/chargehub/pkg/export"
)

// Service runs the configured scenarios.
type Service struct {
	cfg    *config.Config
	Store  store.ResultStore
	Sink   coremetrics.MetricsSink
	log    logger.Logger
	runID  string
	origin time.Time

	// sized caches the sizing record of each sizing key within a run.
	sized map[string]store.SizingRecord
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	origin, err := cfg.Schedule.OriginTime()
	if err != nil {
		return nil, err
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	st, err := store.New(cfg.Output.Backend, cfg.Output.Path)
	if err != nil {
		return nil, fmt.Errorf("result store: %w", err)
	}
	return &Service{
		cfg:    cfg,
		Store:  st,
		Sink:   sink,
		log:    logg,
		runID:  uuid.NewString(),
		origin: origin,
		sized:  map[string]store.SizingRecord{},
	}, nil
}

// Scenarios returns the configured scenario names.
func (s *Service) Scenarios() []string { return s.cfg.Scenarios }

// RunID identifies the pipeline run in logs, metrics and stored results.
func (s *Service) RunID() string { return s.runID }

// Stage selects the pipeline steps executed per scenario.
type Stage int

const (
	StageAll Stage = iota
	StageSizing
	StageSchedule
)

// Run executes the stage for every configured scenario. A failing scenario is
// logged and the loop continues with the next one; the collected errors are
// returned joined.
func (s *Service) Run(ctx context.Context, stage Stage) error {
	s.log.Infow("pipeline started", map[string]any{"run_id": s.runID, "scenarios": len(s.cfg.Scenarios)})
	in, err := s.readInputs(stage)
	if err != nil {
		return err
	}
	var errs []error
	for _, name := range s.cfg.Scenarios {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := s.runScenario(ctx, name, stage, in); err != nil {
			s.log.Errorf("scenario %s: %v", name, err)
			errs = append(errs, fmt.Errorf("scenario %s: %w", name, err))
		}
	}
	if f, ok := s.Sink.(coremetrics.Flusher); ok {
		if err := f.Flush(); err != nil {
			s.log.Warnf("metrics flush: %v", err)
		}
	}
	s.log.Infow("pipeline finished", map[string]any{"run_id": s.runID, "failed": len(errs)})
	return errors.Join(errs...)
}

type inputs struct {
	arrivals []model.TruckArrival
	prices   []float64
}

func (s *Service) readInputs(stage Stage) (inputs, error) {
	var in inputs
	var err error
	if stage != StageSchedule {
		if in.arrivals, err = readTable(s.cfg.Input.Arrivals, export.ReadArrivals); err != nil {
			return in, err
		}
		s.log.Infof("read %d arrivals from %s", len(in.arrivals), s.cfg.Input.Arrivals)
	}
	if stage != StageSizing {
		if in.prices, err = readTable(s.cfg.Input.Prices, export.ReadPrices); err != nil {
			return in, err
		}
		s.log.Infof("read %d prices from %s", len(in.prices), s.cfg.Input.Prices)
	}
	return in, nil
}

func readTable[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, err
	}
	defer func() { _ = f.Close() }()
	v, err := read(f)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

func (s *Service) runScenario(ctx context.Context, name string, stage Stage, in inputs) error {
	sc, err := scenario.Parse(name)
	if err != nil {
		return err
	}
	var rec store.SizingRecord
	if stage == StageSchedule {
		if rec, err = s.Store.LoadSizing(ctx, name); err != nil {
			return fmt.Errorf("load sizing: %w", err)
		}
	} else {
		if rec, err = s.size(ctx, sc, in.arrivals); err != nil {
			return err
		}
	}
	if stage == StageSizing {
		return nil
	}
	if err := s.schedule(ctx, sc, rec, in.prices); err != nil {
		return err
	}
	if s.cfg.Output.ChartDir != "" {
		return s.Chart(ctx, name, s.cfg.Output.ChartDir)
	}
	return nil
}

// Chart renders the stored site load of a scenario into dir.
func (s *Service) Chart(ctx context.Context, name, dir string) error {
	schedules, err := s.Store.LoadSiteLoads(ctx, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, "lastgang_"+name+".html")
	if err := chart.WriteSiteLoad(path, name, schedules); err != nil {
		return err
	}
	s.log.Infof("chart written to %s", path)
	return nil
}

// Close releases the result store.
func (s *Service) Close() error { return s.Store.Close() }
