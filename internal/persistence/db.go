// Package persistence provides SQLite-based storage of run records.
package persistence

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/valleysim/internal/census"
	"github.com/talgya/valleysim/internal/engine"
)

// DB wraps a SQLite connection for run persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// A single writer keeps SQLite from returning SQLITE_BUSY inside a run.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		config TEXT NOT NULL,
		status TEXT NOT NULL,
		steps INTEGER NOT NULL DEFAULT 0,
		started_at INTEGER NOT NULL,
		finished_at INTEGER
	);

	CREATE TABLE IF NOT EXISTS steps (
		run_id TEXT NOT NULL REFERENCES runs(id),
		step INTEGER NOT NULL,
		date TEXT NOT NULL,
		region_id INTEGER NOT NULL,
		births INTEGER NOT NULL,
		deaths INTEGER NOT NULL,
		marriages INTEGER NOT NULL,
		out_migrations INTEGER NOT NULL,
		returned INTEGER NOT NULL,
		in_migrants INTEGER NOT NULL,
		unplaced INTEGER NOT NULL,
		population INTEGER NOT NULL,
		households INTEGER NOT NULL,
		away INTEGER NOT NULL,
		PRIMARY KEY (run_id, step, region_id)
	);

	CREATE TABLE IF NOT EXISTS neighborhood_records (
		run_id TEXT NOT NULL REFERENCES runs(id),
		step INTEGER NOT NULL,
		neighborhood_id INTEGER NOT NULL,
		region_id INTEGER NOT NULL,
		x REAL NOT NULL,
		y REAL NOT NULL,
		population INTEGER NOT NULL,
		households INTEGER NOT NULL,
		marriages INTEGER NOT NULL,
		non_wood_fuel INTEGER NOT NULL,
		agveg REAL NOT NULL,
		nonagveg REAL NOT NULL,
		privbldg REAL NOT NULL,
		pubbldg REAL NOT NULL,
		other REAL NOT NULL,
		total_area REAL NOT NULL,
		perc_agveg REAL NOT NULL,
		perc_veg REAL NOT NULL,
		perc_bldg REAL NOT NULL,
		PRIMARY KEY (run_id, step, neighborhood_id)
	);

	CREATE TABLE IF NOT EXISTS person_records (
		run_id TEXT NOT NULL REFERENCES runs(id),
		step INTEGER NOT NULL,
		person_id INTEGER NOT NULL,
		household_id INTEGER NOT NULL,
		neighborhood_id INTEGER NOT NULL,
		region_id INTEGER NOT NULL,
		sex TEXT NOT NULL,
		age INTEGER NOT NULL,
		spouse_id INTEGER,
		mother_id INTEGER,
		father_id INTEGER,
		desired_children INTEGER,
		first_birth_timing REAL NOT NULL,
		PRIMARY KEY (run_id, step, person_id)
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		step INTEGER NOT NULL,
		date TEXT NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_run ON events(run_id, step);
	CREATE INDEX IF NOT EXISTS idx_person_records_household ON person_records(run_id, household_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Run statuses.
const (
	StatusRunning  = "running"
	StatusFinished = "finished"
	StatusFailed   = "failed"
)

// Run is one simulation run.
type Run struct {
	ID         string `db:"id"`
	Seed       int64  `db:"seed"`
	Config     string `db:"config"`
	Status     string `db:"status"`
	Steps      int    `db:"steps"`
	StartedAt  int64  `db:"started_at"`
	FinishedAt *int64 `db:"finished_at"`
}

// Started returns the start time.
func (r *Run) Started() time.Time { return time.Unix(r.StartedAt, 0) }

// BeginRun registers a new run under a fresh identifier. config is the run
// configuration as YAML.
func (db *DB) BeginRun(seed int64, config string) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		Seed:      seed,
		Config:    config,
		Status:    StatusRunning,
		StartedAt: time.Now().Unix(),
	}
	_, err := db.conn.NamedExec(`INSERT INTO runs (id, seed, config, status, steps, started_at)
		VALUES (:id, :seed, :config, :status, :steps, :started_at)`, run)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	if err := db.SaveMeta("last_run", run.ID); err != nil {
		return nil, fmt.Errorf("save meta: %w", err)
	}
	return run, nil
}

// FinishRun records the final status and step count of a run.
func (db *DB) FinishRun(runID, status string, steps int) error {
	_, err := db.conn.Exec(
		"UPDATE runs SET status = ?, steps = ?, finished_at = ? WHERE id = ?",
		status, steps, time.Now().Unix(), runID,
	)
	return err
}

// GetRun loads a run by identifier.
func (db *DB) GetRun(runID string) (*Run, error) {
	var run Run
	if err := db.conn.Get(&run, "SELECT * FROM runs WHERE id = ?", runID); err != nil {
		return nil, err
	}
	return &run, nil
}

// SaveSnapshot writes the records of one timestep in a single transaction.
func (db *DB) SaveSnapshot(runID string, snap census.Snapshot) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	inserts := []struct {
		query string
		rows  func(exec func(any) error) error
	}{
		{
			`INSERT INTO steps
				(run_id, step, date, region_id, births, deaths, marriages, out_migrations,
				 returned, in_migrants, unplaced, population, households, away)
				VALUES (:run_id, :step, :date, :region_id, :births, :deaths, :marriages, :out_migrations,
				 :returned, :in_migrants, :unplaced, :population, :households, :away)`,
			func(exec func(any) error) error {
				for _, r := range snap.Steps {
					if err := exec(stepRow{runID, r}); err != nil {
						return fmt.Errorf("insert step %d region %d: %w", r.Step, r.RegionID, err)
					}
				}
				return nil
			},
		},
		{
			`INSERT INTO neighborhood_records
				(run_id, step, neighborhood_id, region_id, x, y, population, households, marriages,
				 non_wood_fuel, agveg, nonagveg, privbldg, pubbldg, other, total_area,
				 perc_agveg, perc_veg, perc_bldg)
				VALUES (:run_id, :step, :neighborhood_id, :region_id, :x, :y, :population, :households, :marriages,
				 :non_wood_fuel, :agveg, :nonagveg, :privbldg, :pubbldg, :other, :total_area,
				 :perc_agveg, :perc_veg, :perc_bldg)`,
			func(exec func(any) error) error {
				for _, r := range snap.Neighborhoods {
					if err := exec(neighborhoodRow{runID, r}); err != nil {
						return fmt.Errorf("insert neighborhood %d: %w", r.NeighborhoodID, err)
					}
				}
				return nil
			},
		},
		{
			`INSERT INTO person_records
				(run_id, step, person_id, household_id, neighborhood_id, region_id, sex, age,
				 spouse_id, mother_id, father_id, desired_children, first_birth_timing)
				VALUES (:run_id, :step, :person_id, :household_id, :neighborhood_id, :region_id, :sex, :age,
				 :spouse_id, :mother_id, :father_id, :desired_children, :first_birth_timing)`,
			func(exec func(any) error) error {
				for _, r := range snap.Persons {
					if err := exec(personRow{runID, r}); err != nil {
						return fmt.Errorf("insert person %d: %w", r.PersonID, err)
					}
				}
				return nil
			},
		},
	}

	for _, ins := range inserts {
		stmt, err := tx.PrepareNamed(ins.query)
		if err != nil {
			return err
		}
		err = ins.rows(func(arg any) error {
			_, err := stmt.Exec(arg)
			return err
		})
		stmt.Close()
		if err != nil {
			return err
		}
	}

	if _, err := tx.Exec("UPDATE runs SET steps = ? WHERE id = ?", snap.Step, runID); err != nil {
		return err
	}
	return tx.Commit()
}

type stepRow struct {
	RunID string `db:"run_id"`
	census.StepRecord
}

type neighborhoodRow struct {
	RunID string `db:"run_id"`
	census.NeighborhoodRecord
}

type personRow struct {
	RunID string `db:"run_id"`
	census.PersonRecord
}

// SaveEvents appends events to the database.
func (db *DB) SaveEvents(runID string, events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.Exec(
			"INSERT INTO events (run_id, step, date, description, category) VALUES (?, ?, ?, ?, ?)",
			runID, e.Step, e.Date, e.Description, e.Category,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// StepRecords returns every step record of a run in step order.
func (db *DB) StepRecords(runID string) ([]census.StepRecord, error) {
	var recs []census.StepRecord
	err := db.conn.Select(&recs, `SELECT step, date, region_id, births, deaths, marriages, out_migrations,
		returned, in_migrants, unplaced, population, households, away
		FROM steps WHERE run_id = ? ORDER BY step, region_id`, runID)
	return recs, err
}

// NeighborhoodRecords returns the neighborhood records of one step.
func (db *DB) NeighborhoodRecords(runID string, step int) ([]census.NeighborhoodRecord, error) {
	var recs []census.NeighborhoodRecord
	err := db.conn.Select(&recs, `SELECT step, neighborhood_id, region_id, x, y, population, households,
		marriages, non_wood_fuel, agveg, nonagveg, privbldg, pubbldg, other, total_area,
		perc_agveg, perc_veg, perc_bldg
		FROM neighborhood_records WHERE run_id = ? AND step = ? ORDER BY neighborhood_id`, runID, step)
	return recs, err
}

// PersonRecords returns the person records of one step.
func (db *DB) PersonRecords(runID string, step int) ([]census.PersonRecord, error) {
	var recs []census.PersonRecord
	err := db.conn.Select(&recs, `SELECT step, person_id, household_id, neighborhood_id, region_id, sex, age,
		spouse_id, mother_id, father_id, desired_children, first_birth_timing
		FROM person_records WHERE run_id = ? AND step = ? ORDER BY person_id`, runID, step)
	return recs, err
}

// RecentEvents returns the most recent N events of a run.
func (db *DB) RecentEvents(runID string, limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.Select(&events,
		"SELECT step, date, description, category FROM events WHERE run_id = ? ORDER BY id DESC LIMIT ?",
		runID, limit,
	)
	return events, err
}

// Recorder binds a run so the engine can stream records into it.
type Recorder struct {
	db  *DB
	run *Run
}

// Recorder returns a recorder for run.
func (db *DB) Recorder(run *Run) *Recorder {
	return &Recorder{db: db, run: run}
}

// Record implements engine.Recorder.
func (r *Recorder) Record(snap census.Snapshot) error {
	if err := r.db.SaveSnapshot(r.run.ID, snap); err != nil {
		return fmt.Errorf("save step %d: %w", snap.Step, err)
	}
	return nil
}

// RecordEvents implements engine.EventRecorder.
func (r *Recorder) RecordEvents(events []engine.Event) error {
	return r.db.SaveEvents(r.run.ID, events)
}

// Finish closes out the run with status.
func (r *Recorder) Finish(status string, steps int) error {
	slog.Info("run saved", "run", r.run.ID, "status", status, "steps", steps)
	return r.db.FinishRun(r.run.ID, status, steps)
}
