package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/chargehub/core/metrics"
	"github.com/kilianp07/chargehub/core/model"
)

func newTestPromSink(t *testing.T, cfg PromConfig) (*PromSink, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(cfg, reg, reg)
	require.NoError(t, err)
	return sink, reg
}

func TestPromSink_RecordProbe(t *testing.T) {
	sink, _ := newTestPromSink(t, PromConfig{})
	for _, bays := range []int{1, 3} {
		err := sink.RecordProbe(coremetrics.ProbeEvent{
			Scenario: "base",
			Probe:    model.Probe{Charger: model.ChargerHPC, Bays: bays, Quota: float64(bays) / 3},
		})
		require.NoError(t, err)
	}

	expected := `
# HELP chargehub_sizing_probes_total Number of flow network probes run by the sizing loop
# TYPE chargehub_sizing_probes_total counter
chargehub_sizing_probes_total{scenario="base",type="HPC"} 2
`
	if err := testutil.CollectAndCompare(sink.probes, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(sink.bays.WithLabelValues("base", "HPC")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.quota.WithLabelValues("base", "HPC")))
}

func TestPromSink_RecordSolveAndSiteLoad(t *testing.T) {
	sink, _ := newTestPromSink(t, PromConfig{})
	require.NoError(t, sink.RecordSolve(coremetrics.SolveEvent{Scenario: "s", Strategy: "epex", Status: "optimal", Duration: 20 * time.Millisecond, TotalCost: -12.5}))
	require.NoError(t, sink.RecordSolve(coremetrics.SolveEvent{Scenario: "s", Strategy: "epex", Status: "infeasible", TotalCost: 99}))
	require.NoError(t, sink.RecordSiteLoad(coremetrics.SiteLoadEvent{Scenario: "s", Strategy: "epex", Points: []model.SiteLoad{{PowerKW: 10}, {PowerKW: 250}, {PowerKW: 40}}}))

	assert.Equal(t, 1.0, testutil.ToFloat64(sink.solves.WithLabelValues("epex", "optimal")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.solves.WithLabelValues("epex", "infeasible")))
	assert.Equal(t, -12.5, testutil.ToFloat64(sink.cost.WithLabelValues("s", "epex")))
	assert.Equal(t, 250.0, testutil.ToFloat64(sink.peak.WithLabelValues("s", "epex")))
	assert.Equal(t, 1, testutil.CollectAndCount(sink.solveTime))
}

func TestPromSink_AlreadyRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSinkWithRegistry(PromConfig{}, reg, reg)
	require.NoError(t, err)
	second, err := NewPromSinkWithRegistry(PromConfig{}, reg, reg)
	require.NoError(t, err)
	assert.Same(t, first.probes, second.probes)
}

func TestPromSink_FlushPushes(t *testing.T) {
	var method, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink, _ := newTestPromSink(t, PromConfig{PushURL: srv.URL})
	require.NoError(t, sink.RecordProbe(coremetrics.ProbeEvent{Scenario: "s", Probe: model.Probe{Charger: model.ChargerNCS, Bays: 1}}))
	require.NoError(t, sink.Flush())
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/metrics/job/chargehub", path)
}

func TestPromSink_FlushWithoutGateway(t *testing.T) {
	sink, _ := newTestPromSink(t, PromConfig{})
	assert.NoError(t, sink.Flush())
}
