package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/chargehub/core/metrics"
	"github.com/kilianp07/chargehub/core/model"
	"github.com/kilianp07/chargehub/infra/logger"
)

// InfluxConfig configures the InfluxDB sink.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes sizing probes, solver outcomes and site load series to an
// InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordProbe writes one sizing iteration.
func (s *InfluxSink) RecordProbe(ev coremetrics.ProbeEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("sizing_probe").
		AddTag("run_id", ev.RunID).
		AddTag("scenario", ev.Scenario).
		AddTag("type", ev.Probe.Charger.String()).
		AddField("bays", ev.Probe.Bays).
		AddField("quota", round3(ev.Probe.Quota)).
		AddField("trucks_per_bay", round3(ev.Probe.TrucksPerBay)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSizing writes the final result of a charger type.
func (s *InfluxSink) RecordSizing(ev coremetrics.SizingEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r := ev.Result
	p := write.NewPointWithMeasurement("sizing_result").
		AddTag("run_id", ev.RunID).
		AddTag("scenario", ev.Scenario).
		AddTag("type", r.Charger.String()).
		AddTag("converged", strconv.FormatBool(r.Converged)).
		AddField("bays", r.Bays).
		AddField("quota", round3(r.Quota)).
		AddField("trucks", r.Trucks).
		AddField("served", r.Served).
		AddField("probes", len(r.Probes)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSolve writes the outcome of a schedule optimisation.
func (s *InfluxSink) RecordSolve(ev coremetrics.SolveEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("schedule_solve").
		AddTag("run_id", ev.RunID).
		AddTag("scenario", ev.Scenario).
		AddTag("strategy", ev.Strategy).
		AddTag("status", ev.Status).
		AddField("trucks", ev.Trucks).
		AddField("nodes", ev.Nodes).
		AddField("duration_ms", round3(float64(ev.Duration)/float64(time.Millisecond))).
		AddField("total_cost", round3(ev.TotalCost)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSiteLoad writes the site load as a time series starting at the
// event origin, one point per step.
func (s *InfluxSink) RecordSiteLoad(ev coremetrics.SiteLoadEvent) error {
	if len(ev.Points) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	points := make([]*write.Point, 0, len(ev.Points))
	for _, sl := range ev.Points {
		points = append(points, write.NewPointWithMeasurement("site_load").
			AddTag("run_id", ev.RunID).
			AddTag("scenario", ev.Scenario).
			AddTag("strategy", ev.Strategy).
			AddField("power_kw", round3(sl.PowerKW)).
			AddField("price", round3(sl.Price)).
			SetTime(stepTime(ev.Origin, sl.Step)))
	}
	return s.writeAPI.WritePoint(ctx, points...)
}

func stepTime(origin time.Time, step int) time.Time {
	return origin.Add(time.Duration(step*model.StepMinutes) * time.Minute)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
