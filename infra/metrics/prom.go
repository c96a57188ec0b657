package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	coremetrics "github.com/kilianp07/chargehub/core/metrics"
)

// PromConfig configures the Prometheus sink.
type PromConfig struct {
	// PushURL is the address of a Pushgateway. When set, Flush pushes all
	// collected metrics under Job.
	PushURL string `json:"push_url"`
	Job     string `json:"job"`
}

// PromSink records sizing and scheduling runs in Prometheus metrics.
type PromSink struct {
	probes    *prometheus.CounterVec
	bays      *prometheus.GaugeVec
	quota     *prometheus.GaugeVec
	solves    *prometheus.CounterVec
	solveTime *prometheus.HistogramVec
	cost      *prometheus.GaugeVec
	peak      *prometheus.GaugeVec

	gatherer prometheus.Gatherer
	cfg      PromConfig
}

// NewPromSink registers the metrics on the default Prometheus registerer.
func NewPromSink(cfg PromConfig) (*PromSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer; the gatherer
// is only needed for pushing.
func NewPromSinkWithRegistry(cfg PromConfig, reg prometheus.Registerer, g prometheus.Gatherer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	if cfg.Job == "" {
		cfg.Job = "chargehub"
	}
	s := &PromSink{gatherer: g, cfg: cfg}
	var err error
	if s.probes, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chargehub_sizing_probes_total",
		Help: "Number of flow network probes run by the sizing loop",
	}, []string{"scenario", "type"})); err != nil {
		return nil, err
	}
	if s.bays, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "chargehub_bays",
		Help: "Bay count of the latest probe or sizing result",
	}, []string{"scenario", "type"})); err != nil {
		return nil, err
	}
	if s.quota, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "chargehub_quota",
		Help: "Share of served trucks of the latest probe or sizing result",
	}, []string{"scenario", "type"})); err != nil {
		return nil, err
	}
	if s.solves, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chargehub_schedule_solves_total",
		Help: "Number of schedule optimisations by outcome",
	}, []string{"strategy", "status"})); err != nil {
		return nil, err
	}
	if s.solveTime, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chargehub_schedule_solve_seconds",
		Help:    "Duration of schedule optimisations",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
	}, []string{"strategy"})); err != nil {
		return nil, err
	}
	if s.cost, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "chargehub_schedule_cost",
		Help: "Total energy cost of the optimised schedule",
	}, []string{"scenario", "strategy"})); err != nil {
		return nil, err
	}
	if s.peak, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "chargehub_site_peak_kw",
		Help: "Peak aggregated site load of the optimised schedule",
	}, []string{"scenario", "strategy"})); err != nil {
		return nil, err
	}
	return s, nil
}

// register adds c to reg and returns the already registered collector when
// an equal one exists.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordProbe counts the probe and exposes its bay count and quota.
func (s *PromSink) RecordProbe(ev coremetrics.ProbeEvent) error {
	typ := ev.Probe.Charger.String()
	s.probes.WithLabelValues(ev.Scenario, typ).Inc()
	s.bays.WithLabelValues(ev.Scenario, typ).Set(float64(ev.Probe.Bays))
	s.quota.WithLabelValues(ev.Scenario, typ).Set(ev.Probe.Quota)
	return nil
}

// RecordSizing sets the final bay count and quota of a charger type.
func (s *PromSink) RecordSizing(ev coremetrics.SizingEvent) error {
	typ := ev.Result.Charger.String()
	s.bays.WithLabelValues(ev.Scenario, typ).Set(float64(ev.Result.Bays))
	s.quota.WithLabelValues(ev.Scenario, typ).Set(ev.Result.Quota)
	return nil
}

// RecordSolve counts the optimisation and observes its duration.
func (s *PromSink) RecordSolve(ev coremetrics.SolveEvent) error {
	s.solves.WithLabelValues(ev.Strategy, ev.Status).Inc()
	s.solveTime.WithLabelValues(ev.Strategy).Observe(ev.Duration.Seconds())
	if ev.Status == "optimal" {
		s.cost.WithLabelValues(ev.Scenario, ev.Strategy).Set(ev.TotalCost)
	}
	return nil
}

// RecordSiteLoad exposes the peak of the site load.
func (s *PromSink) RecordSiteLoad(ev coremetrics.SiteLoadEvent) error {
	var peak float64
	for _, p := range ev.Points {
		if p.PowerKW > peak {
			peak = p.PowerKW
		}
	}
	s.peak.WithLabelValues(ev.Scenario, ev.Strategy).Set(peak)
	return nil
}

// Flush pushes the collected metrics to the Pushgateway if one is configured.
func (s *PromSink) Flush() error {
	if s.cfg.PushURL == "" {
		return nil
	}
	return push.New(s.cfg.PushURL, s.cfg.Job).Gatherer(s.gatherer).Push()
}
