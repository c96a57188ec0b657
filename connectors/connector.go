// Package connectors fetches day-ahead prices from external market APIs.
package connectors

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kilianp07/chargehub/core/model"
)

// Interval is one market price over [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
	Price float64 // EUR/MWh
}

// PriceSource returns the market prices overlapping [start, end).
type PriceSource interface {
	Fetch(ctx context.Context, start, end time.Time) ([]Interval, error)
}

// ToSteps samples the intervals at the start of each of n 5-minute steps
// beginning at origin.
func ToSteps(intervals []Interval, origin time.Time, n int) ([]float64, error) {
	sorted := append([]Interval(nil), intervals...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })
	out := make([]float64, n)
	k := 0
	for i := range out {
		ts := origin.Add(time.Duration(i*model.StepMinutes) * time.Minute)
		for k < len(sorted) && !sorted[k].End.After(ts) {
			k++
		}
		if k == len(sorted) || sorted[k].Start.After(ts) {
			return nil, fmt.Errorf("no price for %s", ts.Format(time.RFC3339))
		}
		out[i] = sorted[k].Price
	}
	return out, nil
}
