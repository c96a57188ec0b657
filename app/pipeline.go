package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/kilianp07/chargehub/core/model"
	"github.com/kilianp07/chargehub/core/scenario"
	"github.com/kilianp07/chargehub/core/schedule"
	"github.com/kilianp07/chargehub/core/sizing"
	"github.com/kilianp07/chargehub/infra/logger"
	"github.com/kilianp07/chargehub/infra/store"
)

// size sizes the hub of a scenario and stores the result. Scenarios sharing
// the sizing inputs of the base scenario reuse its configuration when it was
// sized earlier in the same run.
func (s *Service) size(ctx context.Context, sc scenario.Scenario, arrivals []model.TruckArrival) (store.SizingRecord, error) {
	if cached, ok := s.sized[sc.SizingKey()]; ok && sc.SkipsSizing() {
		s.log.Infof("sizing skipped: %s", sc.Name)
		cached.RunID = s.runID
		cached.Scenario = sc.Name
		if err := s.Store.SaveSizing(ctx, cached); err != nil {
			return cached, fmt.Errorf("save sizing: %w", err)
		}
		return cached, nil
	}
	if sc.SkipsSizing() {
		s.log.Warnf("no base sizing available for %s, sizing it", sc.Name)
	}

	s.log.Infof("sizing hub: %s", sc.Name)
	trucks, err := sizing.ApplyPauseDurations(arrivals, sc.FastPauseMin, sc.NightPauseMin)
	if err != nil {
		return store.SizingRecord{}, err
	}
	eng := &sizing.Engine{Log: logger.New("sizing"), Sink: s.Sink, RunID: s.runID, Scenario: sc.Name}
	hub, err := eng.SizeHub(ctx, trucks, sc.Cluster, sc.Quotas)
	if err != nil {
		return store.SizingRecord{}, err
	}
	for _, c := range hub.NotConverged {
		s.log.Warnf("%s: %s target quota %.2f not reached", sc.Name, c, sc.Quotas[c])
	}
	rec := store.SizingRecord{RunID: s.runID, Scenario: sc.Name, Hub: hub.Config, Arrivals: hub.Arrivals}
	if err := s.Store.SaveSizing(ctx, rec); err != nil {
		return rec, fmt.Errorf("save sizing: %w", err)
	}
	s.sized[sc.SizingKey()] = rec
	s.log.Infow("hub sized", map[string]any{
		"scenario": sc.Name,
		"NCS":      rec.Hub.Results[model.ChargerNCS].Bays,
		"HPC":      rec.Hub.Results[model.ChargerHPC].Bays,
		"MCS":      rec.Hub.Results[model.ChargerMCS].Bays,
	})
	return rec, nil
}

// schedule optimises every configured strategy and stores the schedules that
// reached an optimum. Strategies without an optimal schedule are reported
// without stopping the others.
func (s *Service) schedule(ctx context.Context, sc scenario.Scenario, rec store.SizingRecord, prices []float64) error {
	eng := &schedule.Engine{
		Log:      logger.New("schedule"),
		Sink:     s.Sink,
		Solver:   s.cfg.Solver.Options(),
		RunID:    s.runID,
		Scenario: sc.Name,
	}
	out := store.ScheduleRecord{RunID: s.runID, Scenario: sc.Name}
	var errs []error
	for _, strategy := range s.cfg.StrategyList() {
		p := schedule.Params{
			Strategy:        strategy,
			Bidirectional:   sc.Bidirectional,
			BayPowerKW:      sc.BayPowerKW,
			Bays:            rec.Hub.Bays(),
			GridFactor:      sc.GridFactor,
			TruckPowerScale: sc.TruckPowerScale,
			Week:            s.cfg.Schedule.Week,
			Horizon:         s.cfg.Schedule.Horizon,
			Origin:          s.origin,
		}
		res, err := eng.Optimize(ctx, rec.Arrivals, prices, p)
		if errors.Is(err, schedule.ErrNoOptimalSchedule) {
			s.log.Warnf("%s [%s]: %v", sc.Name, strategy, err)
			errs = append(errs, fmt.Errorf("%s: %w", strategy, err))
			continue
		}
		if err != nil {
			return err
		}
		s.log.Infof("%s [%s]: total cost %.2f", sc.Name, strategy, res.TotalCost)
		out.Schedules = append(out.Schedules, res)
	}
	if len(out.Schedules) > 0 {
		if err := s.Store.SaveSchedules(ctx, out); err != nil {
			return fmt.Errorf("save schedules: %w", err)
		}
	}
	return errors.Join(errs...)
}
