package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/chargehub/config"
	"github.com/kilianp07/chargehub/core/model"
	"github.com/kilianp07/chargehub/infra/store"
)

const (
	baseScenario = "S_2_Q_80-80-80_N_100_x_100-100-100_P_45-540_M_L_Base"
	gridScenario = "S_2_Q_80-80-80_N_100_x_100-100-100_P_45-540_M_L_Grid"
)

const arrivalsCSV = `;Nummer;Cluster;Ladesäule;Ankunftszeit;Pausenlaenge;Pausentyp;Wochentag;Kapazitaet;Max_Leistung;SOC
0;1;2;HPC;0;25;Schnelllader;1;400;350;0,2
1;2;3;NCS;60;540;Nachtlader;1;600;100;0,5
`

const pricesCSV = `Zeit;Preis
0;100
5;100
10;0
15;100
20;100
25;100
30;100
35;100
`

func testConfig(t *testing.T, backend string, scenarios ...string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	arrivals := filepath.Join(dir, "lkws.csv")
	prices := filepath.Join(dir, "epex.csv")
	require.NoError(t, os.WriteFile(arrivals, []byte(arrivalsCSV), 0o644))
	require.NoError(t, os.WriteFile(prices, []byte(pricesCSV), 0o644))
	out := filepath.Join(dir, "results")
	if backend == store.BackendSQLite {
		out = "file:" + t.Name() + "?mode=memory&cache=shared"
	}
	cfg := &config.Config{
		Input:      config.InputConfig{Arrivals: arrivals, Prices: prices},
		Output:     config.OutputConfig{Backend: backend, Path: out, ChartDir: filepath.Join(dir, "charts")},
		Scenarios:  scenarios,
		Strategies: []string{"epex"},
	}
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())
	return cfg
}

func newService(t *testing.T, cfg *config.Config) *Service {
	t.Helper()
	svc, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestRunAllStages(t *testing.T) {
	cfg := testConfig(t, store.BackendCSV, baseScenario, gridScenario)
	svc := newService(t, cfg)
	require.NotEmpty(t, svc.RunID())

	require.NoError(t, svc.Run(context.Background(), StageAll))

	ctx := context.Background()
	base, err := svc.Store.LoadSizing(ctx, baseScenario)
	require.NoError(t, err)
	assert.Equal(t, 1, base.Hub.Results[model.ChargerHPC].Bays)
	require.Len(t, base.Arrivals, 1)
	assert.True(t, base.Arrivals[0].Served)

	grid, err := svc.Store.LoadSizing(ctx, gridScenario)
	require.NoError(t, err)
	assert.Equal(t, base.Hub.Bays(), grid.Hub.Bays())

	for _, name := range []string{baseScenario, gridScenario} {
		loads, err := svc.Store.LoadSiteLoads(ctx, name)
		require.NoError(t, err)
		require.Len(t, loads, 1)
		assert.Equal(t, "epex", loads[0].Strategy)
		require.Len(t, loads[0].Site, 8)
		for _, p := range loads[0].Site {
			if p.Step != 2 {
				assert.InDelta(t, 0, p.PowerKW, 1e-6, "step %d", p.Step)
			}
		}
		_, err = os.Stat(filepath.Join(cfg.Output.ChartDir, "lastgang_"+name+".html"))
		assert.NoError(t, err)
	}
}

func TestRunContinuesAfterBadScenario(t *testing.T) {
	cfg := testConfig(t, store.BackendCSV, "S_broken", baseScenario)
	svc := newService(t, cfg)

	err := svc.Run(context.Background(), StageSizing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "S_broken")

	_, err = svc.Store.LoadSizing(context.Background(), baseScenario)
	assert.NoError(t, err)
}

func TestRunStagesSeparately(t *testing.T) {
	cfg := testConfig(t, store.BackendSQLite, baseScenario)
	cfg.Output.ChartDir = ""
	svc := newService(t, cfg)
	ctx := context.Background()

	require.NoError(t, svc.Run(ctx, StageSizing))
	_, err := svc.Store.LoadSiteLoads(ctx, baseScenario)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, svc.Run(ctx, StageSchedule))
	loads, err := svc.Store.LoadSiteLoads(ctx, baseScenario)
	require.NoError(t, err)
	require.Len(t, loads, 1)

	dir := t.TempDir()
	require.NoError(t, svc.Chart(ctx, baseScenario, dir))
	_, err = os.Stat(filepath.Join(dir, "lastgang_"+baseScenario+".html"))
	assert.NoError(t, err)
}

func TestScheduleWithoutSizing(t *testing.T) {
	cfg := testConfig(t, store.BackendCSV, baseScenario)
	svc := newService(t, cfg)
	err := svc.Run(context.Background(), StageSchedule)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestRunCanceled(t *testing.T) {
	cfg := testConfig(t, store.BackendCSV, baseScenario)
	svc := newService(t, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, svc.Run(ctx, StageAll), context.Canceled)
}
