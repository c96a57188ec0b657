package sizing

import (
	"context"
	"errors"
	"fmt"

	"github.com/kilianp07/chargehub/core/model"
)

// ErrUnknownPauseType is a configuration error raised when pause durations
// are overridden for a truck whose pause type is not recognised.
var ErrUnknownPauseType = errors.New("sizing: unknown pause type")

const (
	defaultFastPause  = 45
	defaultNightPause = 540
)

// ApplyPauseDurations returns a copy of arrivals with pause lengths replaced
// by the scenario's fast and night durations. The table values are kept when
// the scenario uses the default 45/540 minutes.
func ApplyPauseDurations(arrivals []model.TruckArrival, fast, night int) ([]model.TruckArrival, error) {
	out := make([]model.TruckArrival, len(arrivals))
	copy(out, arrivals)
	if fast == defaultFastPause && night == defaultNightPause {
		return out, nil
	}
	for i := range out {
		switch out[i].PauseType {
		case model.PauseFast:
			out[i].PauseMin = fast
		case model.PauseNight:
			out[i].PauseMin = night
		default:
			return nil, fmt.Errorf("truck %s: %q: %w", out[i].ID, out[i].PauseLabel, ErrUnknownPauseType)
		}
	}
	return out, nil
}

// HubResult is the sizing outcome of a whole hub.
type HubResult struct {
	Config model.HubConfiguration
	// Arrivals holds the sized trucks of the cluster, grouped by charger
	// type, with Served set.
	Arrivals []model.TruckArrival
	// NotConverged lists charger types whose target quota was missed.
	NotConverged []model.ChargerType
}

// SizeHub sizes every charger type of one cluster independently. A charger
// type missing its target is reported in NotConverged and does not stop the
// others.
func (e *Engine) SizeHub(ctx context.Context, arrivals []model.TruckArrival, cluster int, targets map[model.ChargerType]float64) (HubResult, error) {
	out := HubResult{Config: model.HubConfiguration{Cluster: cluster, Results: make(map[model.ChargerType]model.SizingResult, len(model.ChargerTypes))}}
	for _, charger := range model.ChargerTypes {
		trucks := model.Filter(arrivals, cluster, charger)
		res, err := e.Size(ctx, trucks, charger, targets[charger])
		switch {
		case errors.Is(err, ErrNotConverged):
			e.log().Warnf("%v", err)
			out.NotConverged = append(out.NotConverged, charger)
		case err != nil:
			return out, err
		}
		out.Config.Results[charger] = res
		for i, tr := range trucks {
			tr.Served = i < len(res.Flags) && res.Flags[i]
			out.Arrivals = append(out.Arrivals, tr)
		}
	}
	return out, nil
}
