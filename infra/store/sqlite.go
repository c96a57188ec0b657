package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/chargehub/core/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS sizing (
    scenario TEXT,
    charger TEXT,
    run_id TEXT,
    cluster INTEGER,
    bays INTEGER,
    quota REAL,
    target REAL,
    trucks INTEGER,
    served INTEGER,
    converged INTEGER,
    skipped INTEGER,
    PRIMARY KEY(scenario, charger)
);
CREATE TABLE IF NOT EXISTS probes (
    scenario TEXT,
    seq INTEGER,
    run_id TEXT,
    charger TEXT,
    bays INTEGER,
    quota REAL,
    trucks_per_bay REAL,
    PRIMARY KEY(scenario, seq)
);
CREATE TABLE IF NOT EXISTS arrivals (
    scenario TEXT,
    seq INTEGER,
    run_id TEXT,
    truck_id TEXT,
    served INTEGER,
    record TEXT,
    PRIMARY KEY(scenario, seq)
);
CREATE TABLE IF NOT EXISTS schedules (
    scenario TEXT,
    strategy TEXT,
    run_id TEXT,
    trucks INTEGER,
    grid_limit_kw REAL,
    total_cost REAL,
    PRIMARY KEY(scenario, strategy)
);
CREATE TABLE IF NOT EXISTS schedule_rows (
    scenario TEXT,
    strategy TEXT,
    truck_id TEXT,
    charger TEXT,
    step INTEGER,
    time_min INTEGER,
    on_site_min INTEGER,
    power_kw REAL,
    p_plus_kw REAL,
    p_minus_kw REAL,
    direction INTEGER,
    soc REAL,
    price REAL,
    final INTEGER
);
CREATE TABLE IF NOT EXISTS site_load (
    scenario TEXT,
    strategy TEXT,
    step INTEGER,
    time_min INTEGER,
    power_kw REAL,
    price REAL,
    PRIMARY KEY(scenario, strategy, step)
);`

// SQLiteStore persists results in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// inTx runs fn in a transaction and commits when it succeeds.
func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func deleteScenario(ctx context.Context, tx *sql.Tx, scenario string, tables ...string) error {
	for _, t := range tables {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+t+` WHERE scenario = ?`, scenario); err != nil {
			return err
		}
	}
	return nil
}

// SaveSizing replaces the sizing results, probes and arrivals of a scenario.
func (s *SQLiteStore) SaveSizing(ctx context.Context, rec SizingRecord) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := deleteScenario(ctx, tx, rec.Scenario, "sizing", "probes", "arrivals"); err != nil {
			return err
		}
		for _, c := range model.ChargerTypes {
			r, ok := rec.Hub.Results[c]
			if !ok {
				continue
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO sizing
                (scenario, charger, run_id, cluster, bays, quota, target, trucks, served, converged, skipped)
                VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				rec.Scenario, c.String(), rec.RunID, rec.Hub.Cluster, r.Bays, r.Quota, r.Target,
				r.Trucks, r.Served, r.Converged, r.Skipped); err != nil {
				return err
			}
		}
		for i, p := range rec.Hub.Probes() {
			if _, err := tx.ExecContext(ctx, `INSERT INTO probes
                (scenario, seq, run_id, charger, bays, quota, trucks_per_bay) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				rec.Scenario, i, rec.RunID, p.Charger.String(), p.Bays, p.Quota, p.TrucksPerBay); err != nil {
				return err
			}
		}
		for i, a := range rec.Arrivals {
			b, err := json.Marshal(a)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO arrivals
                (scenario, seq, run_id, truck_id, served, record) VALUES (?, ?, ?, ?, ?, ?)`,
				rec.Scenario, i, rec.RunID, a.ID, a.Served, string(b)); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadSizing returns the stored results of a scenario.
func (s *SQLiteStore) LoadSizing(ctx context.Context, scenario string) (SizingRecord, error) {
	rec := SizingRecord{Scenario: scenario, Hub: model.HubConfiguration{Results: map[model.ChargerType]model.SizingResult{}}}
	rows, err := s.db.QueryContext(ctx, `SELECT charger, run_id, cluster, bays, quota, target, trucks, served, converged, skipped
        FROM sizing WHERE scenario = ?`, scenario)
	if err != nil {
		return rec, err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var name string
		var r model.SizingResult
		if err := rows.Scan(&name, &rec.RunID, &rec.Hub.Cluster, &r.Bays, &r.Quota, &r.Target, &r.Trucks, &r.Served, &r.Converged, &r.Skipped); err != nil {
			return rec, err
		}
		if r.Charger, err = model.ParseChargerType(name); err != nil {
			return rec, err
		}
		rec.Hub.Results[r.Charger] = r
	}
	if err := rows.Err(); err != nil {
		return rec, err
	}
	if len(rec.Hub.Results) == 0 {
		return rec, fmt.Errorf("sizing of %s: %w", scenario, ErrNotFound)
	}

	if err := s.loadProbes(ctx, &rec); err != nil {
		return rec, err
	}
	arrRows, err := s.db.QueryContext(ctx, `SELECT record FROM arrivals WHERE scenario = ? ORDER BY seq`, scenario)
	if err != nil {
		return rec, err
	}
	defer func() { _ = arrRows.Close() }()
	for arrRows.Next() {
		var data string
		if err := arrRows.Scan(&data); err != nil {
			return rec, err
		}
		var a model.TruckArrival
		if err := json.Unmarshal([]byte(data), &a); err != nil {
			return rec, fmt.Errorf("unmarshal arrival: %w", err)
		}
		rec.Arrivals = append(rec.Arrivals, a)
	}
	return rec, arrRows.Err()
}

func (s *SQLiteStore) loadProbes(ctx context.Context, rec *SizingRecord) error {
	rows, err := s.db.QueryContext(ctx, `SELECT charger, bays, quota, trucks_per_bay FROM probes WHERE scenario = ? ORDER BY seq`, rec.Scenario)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var name string
		var p model.Probe
		if err := rows.Scan(&name, &p.Bays, &p.Quota, &p.TrucksPerBay); err != nil {
			return err
		}
		if p.Charger, err = model.ParseChargerType(name); err != nil {
			return err
		}
		r := rec.Hub.Results[p.Charger]
		r.Probes = append(r.Probes, p)
		rec.Hub.Results[p.Charger] = r
	}
	return rows.Err()
}

// SaveSchedules replaces the schedules of a scenario.
func (s *SQLiteStore) SaveSchedules(ctx context.Context, rec ScheduleRecord) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := deleteScenario(ctx, tx, rec.Scenario, "schedules", "schedule_rows", "site_load"); err != nil {
			return err
		}
		for _, sc := range rec.Schedules {
			if _, err := tx.ExecContext(ctx, `INSERT INTO schedules
                (scenario, strategy, run_id, trucks, grid_limit_kw, total_cost) VALUES (?, ?, ?, ?, ?, ?)`,
				rec.Scenario, sc.Strategy, rec.RunID, sc.Trucks, sc.GridLimitKW, sc.TotalCost); err != nil {
				return err
			}
			for _, r := range sc.Rows {
				if _, err := tx.ExecContext(ctx, `INSERT INTO schedule_rows
                    (scenario, strategy, truck_id, charger, step, time_min, on_site_min, power_kw, p_plus_kw, p_minus_kw, direction, soc, price, final)
                    VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
					rec.Scenario, sc.Strategy, r.TruckID, r.Charger.String(), r.Step, r.TimeMin, r.OnSiteMin,
					r.PowerKW, r.PPlusKW, r.PMinusKW, r.Direction, r.SOC, r.Price, r.Final); err != nil {
					return err
				}
			}
			for _, p := range sc.Site {
				if _, err := tx.ExecContext(ctx, `INSERT INTO site_load
                    (scenario, strategy, step, time_min, power_kw, price) VALUES (?, ?, ?, ?, ?, ?)`,
					rec.Scenario, sc.Strategy, p.Step, p.TimeMin, p.PowerKW, p.Price); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// LoadSiteLoads returns the site load and summary of every stored strategy.
func (s *SQLiteStore) LoadSiteLoads(ctx context.Context, scenario string) ([]model.Schedule, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT strategy, trucks, grid_limit_kw, total_cost
        FROM schedules WHERE scenario = ? ORDER BY rowid`, scenario)
	if err != nil {
		return nil, err
	}
	var out []model.Schedule
	for rows.Next() {
		var sc model.Schedule
		if err := rows.Scan(&sc.Strategy, &sc.Trucks, &sc.GridLimitKW, &sc.TotalCost); err != nil {
			_ = rows.Close()
			return nil, err
		}
		out = append(out, sc)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("schedules of %s: %w", scenario, ErrNotFound)
	}
	for i := range out {
		if out[i].Site, err = s.loadSite(ctx, scenario, out[i].Strategy); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *SQLiteStore) loadSite(ctx context.Context, scenario, strategy string) ([]model.SiteLoad, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT step, time_min, power_kw, price FROM site_load
        WHERE scenario = ? AND strategy = ? ORDER BY step`, scenario, strategy)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []model.SiteLoad
	for rows.Next() {
		var p model.SiteLoad
		if err := rows.Scan(&p.Step, &p.TimeMin, &p.PowerKW, &p.Price); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
