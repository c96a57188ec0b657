package schedule

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownStrategy is a configuration error for an unsupported objective.
var ErrUnknownStrategy = errors.New("schedule: unknown strategy")

// Strategy selects the objective of the schedule optimisation.
type Strategy string

const (
	// StrategyEpex minimises the price-weighted energy drawn from the grid.
	StrategyEpex Strategy = "epex"
	// StrategyTmin weights charging power by its time step, which moves
	// charging towards the start of the stay and discharging towards its end.
	StrategyTmin Strategy = "tmin"
)

// Strategies lists the supported strategies in processing order.
var Strategies = []Strategy{StrategyEpex, StrategyTmin}

// ParseStrategy maps a case-insensitive name to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyEpex:
		return StrategyEpex, nil
	case StrategyTmin:
		return StrategyTmin, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrUnknownStrategy)
	}
}

func (s Strategy) valid() bool {
	return s == StrategyEpex || s == StrategyTmin
}
