package census

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// File names inside the output directory.
const (
	PersonsFile       = "persons.csv"
	NeighborhoodsFile = "neighborhoods.csv"
	StepsFile         = "steps.csv"
)

var (
	personHeader = []string{
		"step", "pid", "hid", "nid", "rid", "sex", "age",
		"spouse_id", "mother_id", "father_id", "desired_children", "first_birth_timing",
	}
	neighborhoodHeader = []string{
		"step", "nid", "rid", "x", "y", "population", "households", "marriages", "non_wood_fuel",
		"agveg", "nonagveg", "privbldg", "pubbldg", "other",
		"total_area", "perc_agveg", "perc_veg", "perc_bldg",
	}
	stepHeader = []string{
		"step", "date", "rid", "births", "deaths", "marriages", "out_migrations",
		"returned", "in_migrants", "unplaced", "population", "households", "away",
	}
)

type table struct {
	f *os.File
	w *csv.Writer
}

func openTable(path string, header []string) (*table, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return nil, err
	}
	return &table{f: f, w: w}, nil
}

func (t *table) close() error {
	t.w.Flush()
	return errors.Join(t.w.Error(), t.f.Close())
}

// Writer appends records to one CSV file per record kind.
type Writer struct {
	dir           string
	persons       *table
	neighborhoods *table
	steps         *table
}

// NewWriter creates dir if needed and opens the three output files,
// truncating any previous run.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}
	w := &Writer{dir: dir}
	var err error
	if w.persons, err = openTable(filepath.Join(dir, PersonsFile), personHeader); err != nil {
		return nil, fmt.Errorf("opening person table: %w", err)
	}
	if w.neighborhoods, err = openTable(filepath.Join(dir, NeighborhoodsFile), neighborhoodHeader); err != nil {
		w.persons.close()
		return nil, fmt.Errorf("opening neighborhood table: %w", err)
	}
	if w.steps, err = openTable(filepath.Join(dir, StepsFile), stepHeader); err != nil {
		w.persons.close()
		w.neighborhoods.close()
		return nil, fmt.Errorf("opening step table: %w", err)
	}
	return w, nil
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

func itoa[T ~int | ~int64](v T) string { return strconv.FormatInt(int64(v), 10) }

func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func optional[T ~int | ~int64](v *T) string {
	if v == nil {
		return ""
	}
	return itoa(*v)
}

// WritePersons appends person records.
func (w *Writer) WritePersons(recs []PersonRecord) error {
	for _, r := range recs {
		row := []string{
			itoa(r.Step), itoa(r.PersonID), itoa(r.HouseholdID), itoa(r.NeighborhoodID), itoa(r.RegionID),
			r.Sex, itoa(r.Age),
			optional(r.SpouseID), optional(r.MotherID), optional(r.FatherID), optional(r.DesiredChildren),
			ftoa(r.FirstBirthTiming),
		}
		if err := w.persons.w.Write(row); err != nil {
			return fmt.Errorf("writing person %d: %w", r.PersonID, err)
		}
	}
	return nil
}

// WriteNeighborhoods appends neighborhood records.
func (w *Writer) WriteNeighborhoods(recs []NeighborhoodRecord) error {
	for _, r := range recs {
		row := []string{
			itoa(r.Step), itoa(r.NeighborhoodID), itoa(r.RegionID), ftoa(r.X), ftoa(r.Y),
			itoa(r.Population), itoa(r.Households), itoa(r.Marriages), itoa(r.NonWoodFuel),
			ftoa(r.AgVeg), ftoa(r.NonAgVeg), ftoa(r.PrivBldg), ftoa(r.PubBldg), ftoa(r.Other),
			ftoa(r.TotalArea), ftoa(r.PercAgVeg), ftoa(r.PercVeg), ftoa(r.PercBldg),
		}
		if err := w.neighborhoods.w.Write(row); err != nil {
			return fmt.Errorf("writing neighborhood %d: %w", r.NeighborhoodID, err)
		}
	}
	return nil
}

// WriteStep appends one step record.
func (w *Writer) WriteStep(r StepRecord) error {
	row := []string{
		itoa(r.Step), r.Date, itoa(r.RegionID),
		itoa(r.Births), itoa(r.Deaths), itoa(r.Marriages), itoa(r.OutMigrations),
		itoa(r.Returned), itoa(r.InMigrants), itoa(r.Unplaced),
		itoa(r.Population), itoa(r.Households), itoa(r.Away),
	}
	if err := w.steps.w.Write(row); err != nil {
		return fmt.Errorf("writing step %d: %w", r.Step, err)
	}
	return nil
}

// Flush pushes buffered rows to disk.
func (w *Writer) Flush() error {
	var errs []error
	for _, t := range []*table{w.persons, w.neighborhoods, w.steps} {
		t.w.Flush()
		errs = append(errs, t.w.Error())
	}
	return errors.Join(errs...)
}

// Close flushes and closes every file.
func (w *Writer) Close() error {
	return errors.Join(w.persons.close(), w.neighborhoods.close(), w.steps.close())
}

// Record writes every record of a snapshot.
func (w *Writer) Record(snap Snapshot) error {
	for _, s := range snap.Steps {
		if err := w.WriteStep(s); err != nil {
			return err
		}
	}
	if err := w.WriteNeighborhoods(snap.Neighborhoods); err != nil {
		return err
	}
	return w.WritePersons(snap.Persons)
}
