package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/kilianp07/chargehub/core/model"
)

// Column names of the arrivals table.
const (
	colNumber    = "Nummer"
	colCluster   = "Cluster"
	colCharger   = "Ladesäule"
	colArrival   = "Ankunftszeit"
	colPause     = "Pausenlaenge"
	colPauseType = "Pausentyp"
	colWeekday   = "Wochentag"
	colCapacity  = "Kapazitaet"
	colMaxPower  = "Max_Leistung"
	colSOC       = "SOC"
	colLoaded    = "LoadStatus"
)

var arrivalColumns = []string{
	colNumber, colCluster, colCharger, colArrival, colPause,
	colPauseType, colWeekday, colCapacity, colMaxPower, colSOC,
}

// ReadArrivals parses the forecast arrivals table. A LoadStatus column, as
// written by WriteArrivals, restores the Served flag.
func ReadArrivals(r io.Reader) ([]model.TruckArrival, error) {
	t, err := readTable(r)
	if err != nil {
		return nil, fmt.Errorf("arrivals: %w", err)
	}
	if err := t.require(arrivalColumns...); err != nil {
		return nil, fmt.Errorf("arrivals: %w", err)
	}
	out := make([]model.TruckArrival, 0, len(t.rows))
	for i, row := range t.rows {
		a, err := parseArrival(t, row)
		if err != nil {
			return nil, fmt.Errorf("arrivals row %d: %w", i+2, err)
		}
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("arrivals row %d: %w", i+2, err)
		}
		out = append(out, a)
	}
	return out, nil
}

func parseArrival(t *table, row []string) (model.TruckArrival, error) {
	a := model.TruckArrival{ID: t.get(row, colNumber)}
	var err error
	if a.Cluster, err = ParseInt(t.get(row, colCluster)); err != nil {
		return a, fmt.Errorf("%s: %w", colCluster, err)
	}
	if a.Charger, err = model.ParseChargerType(t.get(row, colCharger)); err != nil {
		return a, err
	}
	if a.ArrivalMin, err = ParseInt(t.get(row, colArrival)); err != nil {
		return a, fmt.Errorf("%s: %w", colArrival, err)
	}
	if a.PauseMin, err = ParseInt(t.get(row, colPause)); err != nil {
		return a, fmt.Errorf("%s: %w", colPause, err)
	}
	a.PauseLabel = t.get(row, colPauseType)
	a.PauseType = model.ParsePauseType(a.PauseLabel)
	if a.Weekday, err = ParseInt(t.get(row, colWeekday)); err != nil {
		return a, fmt.Errorf("%s: %w", colWeekday, err)
	}
	if a.CapacityKWh, err = ParseFloat(t.get(row, colCapacity)); err != nil {
		return a, fmt.Errorf("%s: %w", colCapacity, err)
	}
	if a.MaxPowerKW, err = ParseFloat(t.get(row, colMaxPower)); err != nil {
		return a, fmt.Errorf("%s: %w", colMaxPower, err)
	}
	if a.SOC, err = ParseFloat(t.get(row, colSOC)); err != nil {
		return a, fmt.Errorf("%s: %w", colSOC, err)
	}
	if t.has(colLoaded) {
		v, err := ParseInt(t.get(row, colLoaded))
		if err != nil {
			return a, fmt.Errorf("%s: %w", colLoaded, err)
		}
		a.Served = v == 1
	}
	return a, nil
}

// WriteArrivals writes arrivals with their LoadStatus.
func WriteArrivals(w io.Writer, arrivals []model.TruckArrival) error {
	cw := NewWriter(w)
	header := append(append([]string{}, arrivalColumns...), colLoaded)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, a := range arrivals {
		loaded := "0"
		if a.Served {
			loaded = "1"
		}
		pause := a.PauseLabel
		if pause == "" {
			pause = a.PauseType.String()
		}
		rec := []string{
			a.ID,
			strconv.Itoa(a.Cluster),
			a.Charger.String(),
			strconv.Itoa(a.ArrivalMin),
			strconv.Itoa(a.PauseMin),
			pause,
			strconv.Itoa(a.Weekday),
			FormatFloat(a.CapacityKWh),
			FormatFloat(a.MaxPowerKW),
			FormatFloat(a.SOC),
			loaded,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
