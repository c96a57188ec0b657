// Package sizing determines how many charging bays per charger type a hub
// needs to charge a target share of the forecast trucks.
package sizing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/kilianp07/chargehub/core/flow"
	"github.com/kilianp07/chargehub/core/logger"
	"github.com/kilianp07/chargehub/core/metrics"
	"github.com/kilianp07/chargehub/core/model"
)

// ErrNotConverged is returned together with the closest result when the probe
// budget is exhausted before the target quota is met.
var ErrNotConverged = errors.New("sizing: target quota not reached")

// daysPerWeek converts served trucks per bay into trucks per bay and day.
const daysPerWeek = 7

type state int

const (
	stateProbe state = iota
	stateEvaluate
	stateAccept
	stateRescale
	stateExhausted
)

// probeFunc returns the per-truck load flags for a bay count. It is a package
// variable so tests can drive the state machine with synthetic quotas.
var probeFunc = probeNetwork

func probeNetwork(trucks []model.TruckArrival, bays int) ([]bool, error) {
	bn, err := flow.BuildBayNetwork(trucks, bays)
	if err != nil {
		return nil, err
	}
	bn.Solve()
	flags := make([]bool, len(trucks))
	for i := range trucks {
		flags[i] = bn.Served(i) > 0
	}
	return flags, nil
}

// Engine runs the sizing loop. The zero value is usable and discards logs and
// metrics.
type Engine struct {
	Log      logger.Logger
	Sink     metrics.MetricsSink
	RunID    string
	Scenario string
}

func (e *Engine) log() logger.Logger {
	if e.Log == nil {
		return logger.Nop{}
	}
	return e.Log
}

func (e *Engine) sink() metrics.MetricsSink {
	if e.Sink == nil {
		return metrics.NopSink{}
	}
	return e.Sink
}

// Size finds the smallest bay count, starting at one, for which the share of
// served trucks reaches target. The trucks must already be filtered to one
// cluster and charger type. At most len(trucks) probes are run; if the target
// is still missed the last probe is returned with ErrNotConverged.
func (e *Engine) Size(ctx context.Context, trucks []model.TruckArrival, charger model.ChargerType, target float64) (model.SizingResult, error) {
	res := model.SizingResult{Charger: charger, Target: target, Trucks: len(trucks)}
	if len(trucks) == 0 {
		res.Skipped = true
		e.log().Infof("[%s] no trucks, sizing skipped", charger)
		return res, nil
	}

	bays := 1
	var flags []bool
	served := 0
	st := stateProbe
	for {
		switch st {
		case stateProbe:
			if len(res.Probes) == len(trucks) {
				st = stateExhausted
				continue
			}
			if err := ctx.Err(); err != nil {
				return res, err
			}
			var err error
			flags, err = probeFunc(trucks, bays)
			if err != nil {
				return res, fmt.Errorf("probe %s with %d bays: %w", charger, bays, err)
			}
			st = stateEvaluate

		case stateEvaluate:
			served = 0
			for _, f := range flags {
				if f {
					served++
				}
			}
			p := model.Probe{
				Charger:      charger,
				Bays:         bays,
				Quota:        float64(served) / float64(len(trucks)),
				TrucksPerBay: float64(served) / float64(bays) / daysPerWeek,
			}
			res.Probes = append(res.Probes, p)
			e.record(p)
			res.Bays, res.Quota, res.Served = bays, p.Quota, served
			if p.Quota >= target {
				st = stateAccept
			} else {
				st = stateRescale
			}

		case stateRescale:
			bays = nextBays(bays, served, len(trucks), target)
			st = stateProbe

		case stateAccept, stateExhausted:
			res.Flags = append([]bool(nil), flags...)
			res.Converged = st == stateAccept
			e.finish(res)
			if !res.Converged {
				return res, fmt.Errorf("%s: %d probes, quota %.3f < %.3f: %w", charger, len(res.Probes), res.Quota, target, ErrNotConverged)
			}
			return res, nil
		}
	}
}

// nextBays scales the bay count proportionally to the quota gap:
// ceil(bays * target / quota). The count is deliberately not capped; a quota
// close to zero can request a very large hub before the probe budget ends.
func nextBays(bays, served, total int, target float64) int {
	if served == 0 {
		return 2 * bays
	}
	next := float64(bays) * float64(total) * target / float64(served)
	n := int(math.Ceil(next - 1e-9))
	if n <= bays {
		n = bays + 1
	}
	return n
}

func (e *Engine) record(p model.Probe) {
	e.log().Infow("sizing probe", map[string]any{
		"scenario":       e.Scenario,
		"type":           p.Charger.String(),
		"bays":           p.Bays,
		"quota":          p.Quota,
		"trucks_per_bay": p.TrucksPerBay,
	})
	if err := e.sink().RecordProbe(metrics.ProbeEvent{RunID: e.RunID, Scenario: e.Scenario, Probe: p, Time: time.Now()}); err != nil {
		e.log().Warnf("record probe: %v", err)
	}
}

func (e *Engine) finish(res model.SizingResult) {
	if rec, ok := e.sink().(metrics.SizingRecorder); ok {
		if err := rec.RecordSizing(metrics.SizingEvent{RunID: e.RunID, Scenario: e.Scenario, Result: res, Time: time.Now()}); err != nil {
			e.log().Warnf("record sizing: %v", err)
		}
	}
}
