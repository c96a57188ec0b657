package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/kilianp07/chargehub/core/model"
)

// WriteBayCounts writes the single-row hub configuration: cluster, bays per
// type and achieved quota per type.
func WriteBayCounts(w io.Writer, h model.HubConfiguration) error {
	cw := NewWriter(w)
	header := []string{colCluster}
	rec := []string{strconv.Itoa(h.Cluster)}
	for _, c := range model.ChargerTypes {
		header = append(header, c.String())
		rec = append(rec, strconv.Itoa(h.Results[c].Bays))
	}
	for _, c := range model.ChargerTypes {
		header = append(header, "Ladequote_"+c.String())
		rec = append(rec, FormatFloat(h.Results[c].Quota))
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.Write(rec); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// ReadBayCounts reads the bay count per type from the first row written by
// WriteBayCounts.
func ReadBayCounts(r io.Reader) (map[model.ChargerType]int, error) {
	t, err := readTable(r)
	if err != nil {
		return nil, fmt.Errorf("bay counts: %w", err)
	}
	if len(t.rows) == 0 {
		return nil, fmt.Errorf("bay counts: no rows")
	}
	out := make(map[model.ChargerType]int, len(model.ChargerTypes))
	for _, c := range model.ChargerTypes {
		if err := t.require(c.String()); err != nil {
			return nil, fmt.Errorf("bay counts: %w", err)
		}
		if out[c], err = ParseInt(t.get(t.rows[0], c.String())); err != nil {
			return nil, fmt.Errorf("bay counts %s: %w", c, err)
		}
	}
	return out, nil
}

// WriteProbes writes the sizing iterations.
func WriteProbes(w io.Writer, probes []model.Probe) error {
	cw := NewWriter(w)
	if err := cw.Write([]string{"Ladetyp", "Anzahl_Ladesaeulen", "Ladequote", "LKW_pro_Ladesaeule"}); err != nil {
		return err
	}
	for _, p := range probes {
		rec := []string{p.Charger.String(), strconv.Itoa(p.Bays), FormatFloat(p.Quota), FormatFloat(p.TrucksPerBay)}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSchedules writes the truck-level rows of several strategies into one
// table. The trailing SOC row of each truck leaves the power columns empty.
func WriteSchedules(w io.Writer, schedules []model.Schedule) error {
	cw := NewWriter(w)
	header := []string{"LKW_ID", "Ladetyp", "Zeit", "Ladezeit", "Leistung", "Pplus", "Pminus", "SOC", "z", "Preis", "Strategie"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, s := range schedules {
		for _, r := range s.Rows {
			power, plus, minus, dir := "", "", "", ""
			if !r.Final {
				power, plus, minus = FormatFloat(r.PowerKW), FormatFloat(r.PPlusKW), FormatFloat(r.PMinusKW)
				dir = strconv.Itoa(r.Direction)
			}
			rec := []string{
				r.TruckID,
				r.Charger.String(),
				strconv.Itoa(r.TimeMin),
				strconv.Itoa(r.OnSiteMin),
				power, plus, minus,
				FormatFloat(r.SOC),
				dir,
				FormatFloat(r.Price),
				s.Strategy,
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSiteLoads writes the aggregated site load of several strategies.
func WriteSiteLoads(w io.Writer, schedules []model.Schedule) error {
	cw := NewWriter(w)
	if err := cw.Write([]string{"Zeit_Num", "Preis", "Leistung", "Strategie"}); err != nil {
		return err
	}
	for _, s := range schedules {
		for _, p := range s.Site {
			rec := []string{strconv.Itoa(p.TimeMin), FormatFloat(p.Price), FormatFloat(p.PowerKW), s.Strategy}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadSiteLoads reads a table written by WriteSiteLoads back into one
// schedule per strategy, in order of first appearance. Only Strategy and Site
// are set.
func ReadSiteLoads(r io.Reader) ([]model.Schedule, error) {
	t, err := readTable(r)
	if err != nil {
		return nil, fmt.Errorf("site load: %w", err)
	}
	if err := t.require("Zeit_Num", colPrice, "Leistung", "Strategie"); err != nil {
		return nil, fmt.Errorf("site load: %w", err)
	}
	var out []model.Schedule
	index := map[string]int{}
	for i, row := range t.rows {
		var p model.SiteLoad
		if p.TimeMin, err = ParseInt(t.get(row, "Zeit_Num")); err != nil {
			return nil, fmt.Errorf("site load row %d: %w", i+2, err)
		}
		if p.Price, err = ParseFloat(t.get(row, colPrice)); err != nil {
			return nil, fmt.Errorf("site load row %d: %w", i+2, err)
		}
		if p.PowerKW, err = ParseFloat(t.get(row, "Leistung")); err != nil {
			return nil, fmt.Errorf("site load row %d: %w", i+2, err)
		}
		p.Step = p.TimeMin / model.StepMinutes
		strategy := t.get(row, "Strategie")
		k, ok := index[strategy]
		if !ok {
			k = len(out)
			index[strategy] = k
			out = append(out, model.Schedule{Strategy: strategy})
		}
		out[k].Site = append(out[k].Site, p)
	}
	return out, nil
}
