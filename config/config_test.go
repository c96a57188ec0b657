package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/chargehub/core/milp"
	"github.com/kilianp07/chargehub/core/schedule"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, "config.yaml", `input:
  arrivals: "data/lkws.csv"
  prices: "data/epex.csv"
output:
  backend: "sqlite"
  path: "out.db"
  chart_dir: "charts"
scenarios:
  - "S_2_Q_80-80-80_N_100_x_100-100-100_P_45-540_M_L_Base"
strategies: ["epex"]
schedule:
  week: 1
  origin: "2024-01-01T00:00:00Z"
solver:
  node_limit: 500
metrics:
  prometheus_addr: ":2112"
  sinks:
    - type: "nop"
log_level: "debug"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"input.arrivals", cfg.Input.Arrivals, "data/lkws.csv"},
		{"input.prices", cfg.Input.Prices, "data/epex.csv"},
		{"output.backend", cfg.Output.Backend, "sqlite"},
		{"output.path", cfg.Output.Path, "out.db"},
		{"output.chart_dir", cfg.Output.ChartDir, "charts"},
		{"scenarios", len(cfg.Scenarios), 1},
		{"strategies", len(cfg.Strategies), 1},
		{"schedule.week", cfg.Schedule.Week, 1},
		{"solver.node_limit", cfg.Solver.NodeLimit, 500},
		{"solver.tol", cfg.Solver.Tol, milp.DefaultTol},
		{"metrics_addr", cfg.Metrics.PrometheusAddr, ":2112"},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"log_level", cfg.LogLevel, "debug"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
	origin, err := cfg.Schedule.OriginTime()
	require.NoError(t, err)
	assert.Equal(t, 2024, origin.Year())
	assert.Equal(t, []schedule.Strategy{schedule.StrategyEpex}, cfg.StrategyList())
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "config.json", `{
  "input": {"arrivals": "a.csv", "prices": "p.csv"},
  "scenarios": ["S_2_Q_80-80-80_N_100_x_100-100-100_P_45-540_M_L_Base"]
}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "csv", cfg.Output.Backend)
	assert.Equal(t, "results", cfg.Output.Path)
	assert.Equal(t, []string{"epex", "tmin"}, cfg.Strategies)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":8080", cfg.API.Addr)
	assert.Equal(t, "wholesale_market", cfg.PriceAPI.Source)
	assert.Equal(t, milp.Options{NodeLimit: milp.DefaultNodeLimit, Tol: milp.DefaultTol, IntTol: milp.DefaultIntTol}, cfg.Solver.Options())
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "config.yaml", `input:
  arrivals: "a.csv"
  prices: "p.csv"
scenarios: ["S_2_Q_80-80-80_N_100_x_100-100-100_P_45-540_M_L_Base"]
`)
	t.Setenv("K_OUTPUT__BACKEND", "sqlite")
	t.Setenv("K_SOLVER__NODE_LIMIT", "25")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Output.Backend)
	assert.Equal(t, "results.db", cfg.Output.Path)
	assert.Equal(t, 25, cfg.Solver.NodeLimit)
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]string{
		"missing input":    `scenarios: ["x"]`,
		"no scenarios":     "input:\n  arrivals: a.csv\n  prices: p.csv\n",
		"unknown strategy": "input:\n  arrivals: a.csv\n  prices: p.csv\nscenarios: [\"x\"]\nstrategies: [\"peak\"]\n",
		"unknown backend":  "input:\n  arrivals: a.csv\n  prices: p.csv\nscenarios: [\"x\"]\noutput:\n  backend: parquet\n",
		"bad origin":       "input:\n  arrivals: a.csv\n  prices: p.csv\nscenarios: [\"x\"]\nschedule:\n  origin: yesterday\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, "config.yaml", data))
			assert.Error(t, err)
		})
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	if _, err := Load("config.toml"); err == nil {
		t.Fatalf("expected error for toml")
	}
}
