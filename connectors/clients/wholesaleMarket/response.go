package wholesalemarket

import (
	"fmt"
	"time"

	"github.com/kilianp07/chargehub/connectors"
)

type Response struct {
	FrancePowerExchanges []struct {
		StartDate   string `json:"start_date"`
		EndDate     string `json:"end_date"`
		UpdatedDate string `json:"updated_date"`
		Values      []struct {
			StartDate string  `json:"start_date"`
			EndDate   string  `json:"end_date"`
			Value     float64 `json:"value"`
			Price     float64 `json:"price"`
		} `json:"values"`
	} `json:"france_power_exchanges"`
}

// Intervals flattens the exchange values into price intervals.
func (r *Response) Intervals() ([]connectors.Interval, error) {
	var out []connectors.Interval
	for _, exchange := range r.FrancePowerExchanges {
		for _, v := range exchange.Values {
			start, err := time.Parse(time.RFC3339, v.StartDate)
			if err != nil {
				return nil, fmt.Errorf("failed to parse time: %v", err)
			}
			end, err := time.Parse(time.RFC3339, v.EndDate)
			if err != nil {
				return nil, fmt.Errorf("failed to parse time: %v", err)
			}
			out = append(out, connectors.Interval{Start: start, End: end, Price: v.Price})
		}
	}
	return out, nil
}
