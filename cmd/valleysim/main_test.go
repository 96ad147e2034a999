package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/valleysim/internal/config"
	"github.com/talgya/valleysim/internal/persistence"
	"github.com/talgya/valleysim/internal/timeline"
)

// writeSmallConfig saves a six-month, two-neighborhood run to dir.
func writeSmallConfig(t *testing.T, dir string) string {
	t.Helper()
	cfg := config.Default()
	cfg.Seed = 17
	cfg.Model.Start = timeline.YearMonth{Year: 1997, Month: 1}
	cfg.Model.End = timeline.YearMonth{Year: 1997, Month: 7}
	cfg.Init.Regions = 1
	cfg.Init.NeighborhoodsPerRegion = 2
	cfg.Init.HouseholdsPerNeighborhood = 3
	cfg.Output.LogLevel = "error"
	cfg.Output.CSVDir = ""
	cfg.Output.Database = ""
	path := filepath.Join(dir, "run.yaml")
	require.NoError(t, config.Write(path, cfg))
	return path
}

func TestRunOptions_Apply(t *testing.T) {
	cfg := config.Default()
	runOptions{dbPath: "x.db", csvDir: "out", trace: true, traceSet: true, seed: 5, seedSet: true}.apply(cfg)
	assert.Equal(t, "x.db", cfg.Output.Database)
	assert.Equal(t, "out", cfg.Output.CSVDir)
	assert.True(t, cfg.Output.Trace)
	assert.Equal(t, int64(5), cfg.Seed)

	cfg = config.Default()
	cfg.Seed = 9
	runOptions{}.apply(cfg)
	assert.Equal(t, int64(9), cfg.Seed)
	assert.Equal(t, config.Default().Output, cfg.Output)
}

func TestDefaults(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runDefaults(&out, ""))
	cfg, err := config.Parse(out.Bytes())
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	path := filepath.Join(t.TempDir(), "cfg", "defaults.yaml")
	out.Reset()
	require.NoError(t, runDefaults(&out, path))
	assert.Contains(t, out.String(), "wrote")
	_, err = config.Load(path)
	require.NoError(t, err)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	require.NoError(t, runValidate(&out, writeSmallConfig(t, dir)))
	assert.Contains(t, out.String(), "ok (6 timesteps, 1 regions of 2 neighborhoods)")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("model:\n  timestep_months: -1\n"), 0644))
	out.Reset()
	assert.Error(t, runValidate(&out, bad))
	assert.Contains(t, out.String(), "bad.yaml")
}

func TestRunSimulation(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "data", "run.db")
	csvDir := filepath.Join(dir, "results")

	err := runSimulation(t.Context(), runOptions{
		configPath: writeSmallConfig(t, dir),
		dbPath:     dbPath,
		csvDir:     csvDir,
	})
	require.NoError(t, err)

	for _, name := range []string{"persons.csv", "neighborhoods.csv", "steps.csv"} {
		info, err := os.Stat(filepath.Join(csvDir, name))
		require.NoError(t, err, name)
		assert.Positive(t, info.Size(), name)
	}

	db, err := persistence.Open(dbPath)
	require.NoError(t, err)
	defer db.Close()
	runID, err := db.GetMeta("last_run")
	require.NoError(t, err)
	run, err := db.GetRun(runID)
	require.NoError(t, err)
	assert.Equal(t, persistence.StatusFinished, run.Status)
	assert.Equal(t, int64(17), run.Seed)
	assert.Equal(t, 6, run.Steps)

	steps, err := db.StepRecords(runID)
	require.NoError(t, err)
	assert.Len(t, steps, 7) // initial state plus six months
}

func TestValidateCmd_RequiresConfig(t *testing.T) {
	cmd := validateCmd()
	cmd.SetArgs([]string{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.ErrorContains(t, cmd.Execute(), "--config is required")
}

func TestRunSimulation_RejectsInvalidOverride(t *testing.T) {
	dir := t.TempDir()
	err := runSimulation(t.Context(), runOptions{
		configPath: writeSmallConfig(t, dir),
		seed:       -3,
		seedSet:    true,
	})
	assert.ErrorContains(t, err, "seed must not be negative")
	_, statErr := os.Stat(filepath.Join(dir, "results"))
	assert.True(t, os.IsNotExist(statErr), "nothing is written for a rejected run")
}
