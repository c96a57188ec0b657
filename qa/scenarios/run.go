package scenarios

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/chargehub/core/model"
	"github.com/kilianp07/chargehub/core/schedule"
	"github.com/kilianp07/chargehub/core/sizing"
	"github.com/kilianp07/chargehub/infra/logger"
	"github.com/kilianp07/chargehub/infra/metrics"
)

func RunScenario(t *testing.T, sc *Scenario) {
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(metrics.PromConfig{}, reg, reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}

	charger, err := model.ParseChargerType(sc.Charger)
	if err != nil {
		t.Fatalf("scenario %s: %v", sc.Name, err)
	}
	trucks := make([]model.TruckArrival, len(sc.Trucks))
	for i, d := range sc.Trucks {
		trucks[i] = d.ToModel(charger)
	}

	ctx := context.Background()
	eng := &sizing.Engine{Log: logger.NopLogger{}, Sink: sink, Scenario: sc.Name}
	res, err := eng.Size(ctx, trucks, charger, sc.Target)
	if err != nil {
		t.Fatalf("scenario %s: size: %v", sc.Name, err)
	}
	if res.Bays != sc.Expected.Bays {
		t.Errorf("scenario %s expected %d bays, got %d", sc.Name, sc.Expected.Bays, res.Bays)
	}
	if res.Served != sc.Expected.Served {
		t.Errorf("scenario %s expected %d served, got %d", sc.Name, sc.Expected.Served, res.Served)
	}
	if got := gaugeValue(t, reg, "chargehub_bays", sc.Name, charger.String()); int(got) != res.Bays {
		t.Errorf("scenario %s bay gauge %v, result %d", sc.Name, got, res.Bays)
	}

	if len(sc.Prices) == 0 {
		return
	}
	for i := range trucks {
		trucks[i].Served = res.Flags[i]
	}
	strategy, err := schedule.ParseStrategy(sc.Strategy)
	if err != nil {
		t.Fatalf("scenario %s: %v", sc.Name, err)
	}
	p := schedule.Params{
		Strategy:   strategy,
		Bays:       map[model.ChargerType]int{charger: res.Bays},
		GridFactor: 1,
	}
	sched, err := (&schedule.Engine{Log: logger.NopLogger{}, Sink: sink, Scenario: sc.Name}).Optimize(ctx, trucks, sc.Prices, p)
	if err != nil {
		t.Fatalf("scenario %s: optimize: %v", sc.Name, err)
	}
	for _, sl := range sched.Site {
		if sl.PowerKW > sched.GridLimitKW+1e-6 {
			t.Errorf("scenario %s step %d: site load %.3f above grid limit %.3f", sc.Name, sl.Step, sl.PowerKW, sched.GridLimitKW)
		}
	}
	if sc.Expected.MaxCost != nil && sched.TotalCost > *sc.Expected.MaxCost+1e-6 {
		t.Errorf("scenario %s expected cost at most %.3f, got %.3f", sc.Name, *sc.Expected.MaxCost, sched.TotalCost)
	}
}

// gaugeValue reads the gauge with the given scenario and type labels from reg.
func gaugeValue(t *testing.T, reg prometheus.Gatherer, name, scenario, typ string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["scenario"] == scenario && labels["type"] == typ {
				return m.GetGauge().GetValue()
			}
		}
	}
	t.Fatalf("gauge %s{scenario=%q,type=%q} not found", name, scenario, typ)
	return 0
}
