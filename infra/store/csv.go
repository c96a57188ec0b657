package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kilianp07/chargehub/core/model"
	"github.com/kilianp07/chargehub/pkg/export"
)

// Sub-directories of the CSV layout.
const (
	dirBayCounts = "konfiguration_ladehub"
	dirArrivals  = "lkws"
	dirProbes    = "konf_optionen"
	dirTrucks    = "lastgang_lkw_epex"
	dirSite      = "lastgang_epex"
)

// CSVStore writes one semicolon separated file per table and scenario below
// a root directory.
type CSVStore struct {
	root string
}

// NewCSVStore creates the directory layout below root.
func NewCSVStore(root string) (*CSVStore, error) {
	for _, d := range []string{dirBayCounts, dirArrivals, dirProbes, dirTrucks, dirSite} {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return nil, err
		}
	}
	return &CSVStore{root: root}, nil
}

func (s *CSVStore) path(dir, prefix, scenario string) string {
	return filepath.Join(s.root, dir, prefix+scenario+".csv")
}

func (s *CSVStore) bayCountsPath(scenario string) string {
	return s.path(dirBayCounts, "anzahl_ladesaeulen_", scenario)
}

func (s *CSVStore) arrivalsPath(scenario string) string {
	return s.path(dirArrivals, "eingehende_lkws_loadstatus_", scenario)
}

func (s *CSVStore) probesPath(scenario string) string {
	return s.path(dirProbes, "konf_optionen_", scenario)
}

func (s *CSVStore) trucksPath(scenario string) string {
	return s.path(dirTrucks, "lastgang_lkw_", scenario)
}

func (s *CSVStore) sitePath(scenario string) string {
	return s.path(dirSite, "lastgang_", scenario)
}

// SaveSizing writes the bay counts, the annotated arrivals and the probe log.
func (s *CSVStore) SaveSizing(_ context.Context, rec SizingRecord) error {
	if err := writeFile(s.bayCountsPath(rec.Scenario), func(w io.Writer) error {
		return export.WriteBayCounts(w, rec.Hub)
	}); err != nil {
		return err
	}
	if err := writeFile(s.arrivalsPath(rec.Scenario), func(w io.Writer) error {
		return export.WriteArrivals(w, rec.Arrivals)
	}); err != nil {
		return err
	}
	return writeFile(s.probesPath(rec.Scenario), func(w io.Writer) error {
		return export.WriteProbes(w, rec.Hub.Probes())
	})
}

// LoadSizing reads the bay counts and annotated arrivals of a scenario.
func (s *CSVStore) LoadSizing(_ context.Context, scenario string) (SizingRecord, error) {
	rec := SizingRecord{Scenario: scenario}
	var bays map[model.ChargerType]int
	if err := readFile(s.bayCountsPath(scenario), func(r io.Reader) error {
		var err error
		bays, err = export.ReadBayCounts(r)
		return err
	}); err != nil {
		return rec, err
	}
	rec.Hub.Results = make(map[model.ChargerType]model.SizingResult, len(bays))
	for c, n := range bays {
		rec.Hub.Results[c] = model.SizingResult{Charger: c, Bays: n}
	}
	err := readFile(s.arrivalsPath(scenario), func(r io.Reader) error {
		var err error
		rec.Arrivals, err = export.ReadArrivals(r)
		return err
	})
	return rec, err
}

// SaveSchedules writes the truck rows and site load of all strategies.
func (s *CSVStore) SaveSchedules(_ context.Context, rec ScheduleRecord) error {
	if err := writeFile(s.trucksPath(rec.Scenario), func(w io.Writer) error {
		return export.WriteSchedules(w, rec.Schedules)
	}); err != nil {
		return err
	}
	return writeFile(s.sitePath(rec.Scenario), func(w io.Writer) error {
		return export.WriteSiteLoads(w, rec.Schedules)
	})
}

// LoadSiteLoads reads the site load file of a scenario.
func (s *CSVStore) LoadSiteLoads(_ context.Context, scenario string) ([]model.Schedule, error) {
	var out []model.Schedule
	err := readFile(s.sitePath(scenario), func(r io.Reader) error {
		var err error
		out, err = export.ReadSiteLoads(r)
		return err
	})
	return out, err
}

// Close is a no-op.
func (s *CSVStore) Close() error { return nil }

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if err := write(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func readFile(path string, read func(io.Reader) error) error {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return read(f)
}
